package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// ParseYAML decodes a YAML manifest:
//
//	assets:
//	  - kind: sprite
//	    name: Player
//	    fields:
//	      width: 64
//	      height: 64
//
// path is used in error positions; baseDir is passed to Resolvers.
func (c *Catalog) ParseYAML(data []byte, path, baseDir string) (*Manifest, error) {
	var doc struct {
		Assets []yaml.Node `yaml:"assets"`
	}
	if err := strictDecode(bytes.NewReader(data), &doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &Manifest{Path: path}, nil
		}
		return nil, fmt.Errorf("manifest: %s: %w", path, err)
	}

	b := newBuilder(c, path, baseDir)
	for i := range doc.Assets {
		node := &doc.Assets[i]
		pos := fmt.Sprintf("%s:%d", path, node.Line)

		var entry struct {
			Kind   string    `yaml:"kind"`
			Name   string    `yaml:"name"`
			Fields yaml.Node `yaml:"fields"`
		}
		if err := strictDecodeNode(node, &entry); err != nil {
			return nil, fmt.Errorf("%s: manifest: %w", pos, err)
		}
		err := b.add(entry.Kind, entry.Name, pos, func(target any) error {
			if entry.Fields.Kind == 0 {
				return nil
			}
			return strictDecodeNode(&entry.Fields, target)
		})
		if err != nil {
			return nil, err
		}
	}
	return b.m, nil
}

func strictDecode(r io.Reader, v any) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	return dec.Decode(v)
}

// strictDecodeNode decodes node with unknown-field checking, which
// yaml.Node.Decode does not offer.
func strictDecodeNode(node *yaml.Node, v any) error {
	b, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	return strictDecode(bytes.NewReader(b), v)
}
