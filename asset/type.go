package asset

import "reflect"

// TypeID identifies a concrete record type within a single process.
//
// The zero TypeID identifies no type.
type TypeID struct {
	t reflect.Type
}

// TypeIDOf returns the identity of T.
func TypeIDOf[T any]() TypeID {
	return TypeID{t: reflect.TypeFor[T]()}
}

// IsZero reports whether id identifies no type.
func (id TypeID) IsZero() bool { return id.t == nil }

func (id TypeID) String() string {
	if id.t == nil {
		return "<none>"
	}
	return id.t.String()
}

// TypeNameOf returns a wire tag for T derived from its package path and
// name, e.g. "xdao.co/game/assets.Sprite".
//
// The result is stable for a given program build. Unnamed types have no
// stable name and yield "".
func TypeNameOf[T any]() string {
	t := reflect.TypeFor[T]()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return ""
	}
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}
