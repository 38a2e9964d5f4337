// Package protocol describes peer message contracts as explicit schema
// descriptors and provides the structural assignability check used to gate
// an agent/simulator pairing before any episode runs.
package protocol

import "fmt"

// Kind is the coarse shape of a schema node.
type Kind string

const (
	KindAny    Kind = "any"
	KindBool   Kind = "bool"
	KindInt    Kind = "int"
	KindFloat  Kind = "float"
	KindString Kind = "string"
	KindBytes  Kind = "bytes"
	KindList   Kind = "list"
	KindMap    Kind = "map"
	KindStruct Kind = "struct"
)

// Schema is a structural type descriptor. Peers exchange these during the
// handshake instead of relying on runtime reflection.
type Schema struct {
	Kind   Kind    `cbor:"kind"`
	Name   string  `cbor:"name,omitempty"`
	Elem   *Schema `cbor:"elem,omitempty"`
	Fields []Field `cbor:"fields,omitempty"`
}

// Field is one named member of a struct schema.
type Field struct {
	Name     string  `cbor:"name"`
	Schema   *Schema `cbor:"schema"`
	Optional bool    `cbor:"optional,omitempty"`
}

// Any returns the wildcard schema.
func Any() *Schema { return &Schema{Kind: KindAny} }

// Struct builds a struct schema with the given fields.
func Struct(name string, fields ...Field) *Schema {
	return &Schema{Kind: KindStruct, Name: name, Fields: fields}
}

// Field looks up a struct field by name.
func (s *Schema) Field(name string) *Schema {
	if s == nil || s.Kind != KindStruct {
		return nil
	}
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Schema
		}
	}
	return nil
}

func (s *Schema) String() string {
	if s == nil {
		return "<nil>"
	}
	if s.Name != "" {
		return fmt.Sprintf("%s(%s)", s.Kind, s.Name)
	}
	return string(s.Kind)
}

// CanBeUsedAs reports whether a value described by sub can be consumed
// wherever super is expected. The check is structural: a struct is usable
// if it carries every non-optional field the consumer declares, with
// recursively usable schemas. Ints widen to floats.
func CanBeUsedAs(sub, super *Schema) (bool, string) {
	if super == nil || super.Kind == KindAny {
		return true, ""
	}
	if sub == nil || sub.Kind == KindAny {
		return false, fmt.Sprintf("cannot use unconstrained value where %s is expected", super)
	}

	switch super.Kind {
	case KindBool, KindString, KindBytes:
		if sub.Kind != super.Kind {
			return false, fmt.Sprintf("%s is not usable as %s", sub, super)
		}
		return true, ""
	case KindInt:
		if sub.Kind != KindInt {
			return false, fmt.Sprintf("%s is not usable as %s", sub, super)
		}
		return true, ""
	case KindFloat:
		if sub.Kind != KindFloat && sub.Kind != KindInt {
			return false, fmt.Sprintf("%s is not usable as %s", sub, super)
		}
		return true, ""
	case KindList, KindMap:
		if sub.Kind != super.Kind {
			return false, fmt.Sprintf("%s is not usable as %s", sub, super)
		}
		if ok, why := CanBeUsedAs(sub.Elem, super.Elem); !ok {
			return false, fmt.Sprintf("element of %s: %s", sub, why)
		}
		return true, ""
	case KindStruct:
		if sub.Kind != KindStruct {
			return false, fmt.Sprintf("%s is not usable as %s", sub, super)
		}
		for _, want := range super.Fields {
			got := sub.Field(want.Name)
			if got == nil {
				if want.Optional {
					continue
				}
				return false, fmt.Sprintf("%s lacks required field %q of %s", sub, want.Name, super)
			}
			if ok, why := CanBeUsedAs(got, want.Schema); !ok {
				return false, fmt.Sprintf("field %q: %s", want.Name, why)
			}
		}
		return true, ""
	default:
		return false, fmt.Sprintf("unknown schema kind %q", super.Kind)
	}
}
