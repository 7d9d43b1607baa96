package manifest

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

var hclSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "asset", LabelNames: []string{"kind", "name"}},
	},
}

// ParseHCL decodes an HCL manifest:
//
//	asset "sprite" "Player" {
//	  width   = 64
//	  height  = 64
//	  texture = "${manifest_dir}/player.png"
//	}
//
// Expressions may reference manifest_dir, the directory holding the file.
func (c *Catalog) ParseHCL(data []byte, path, baseDir string) (*Manifest, error) {
	file, diags := hclparse.NewParser().ParseHCL(data, path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("manifest: %w", diags)
	}
	content, diags := file.Body.Content(hclSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("manifest: %w", diags)
	}

	ctx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"manifest_dir": cty.StringVal(baseDir),
		},
	}

	b := newBuilder(c, path, baseDir)
	for _, blk := range content.Blocks {
		pos := fmt.Sprintf("%s:%d", blk.DefRange.Filename, blk.DefRange.Start.Line)
		err := b.add(blk.Labels[0], blk.Labels[1], pos, func(target any) error {
			if diags := gohcl.DecodeBody(blk.Body, ctx, target); diags.HasErrors() {
				return diags
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return b.m, nil
}
