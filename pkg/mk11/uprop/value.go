// Package uprop recursively decodes UE3 tagged property streams into a
// closed value tree, per spec.md §4.8 and its Design Notes' preference
// for "a closed tagged union" over the source's dynamic name→class
// dispatch table. A stream is a sequence of (name, type, size, payload)
// tags terminated by a tag whose name is "None".
package uprop

import "fmt"

// Kind identifies which variant of Value is populated.
type Kind int

const (
	KindStr Kind = iota
	KindName
	KindInt
	KindUInt
	KindFloat
	KindBool
	KindEnum
	KindStruct
	KindArray
	KindMap
)

// Value is the closed sum type spec.md §9 Design Notes asks for in
// place of the source's dynamic property-class dictionary.
type Value struct {
	Kind Kind

	Str   string // KindStr, KindName
	Int   int64  // KindInt
	UInt  uint64 // KindUInt
	Float float32
	Bool  bool

	EnumField string // KindEnum: the tag's own property name
	EnumText  string // KindEnum: rendered "Name::Variant" or "field::n"

	StructType string           // KindStruct: the name read from the header, "" if untyped
	Fields     []Property       // KindStruct: nested tagged properties
	GUID       *[16]byte        // KindStruct, only when StructType == "FGuid"

	Elements []Value // KindArray

	MapEntries []MapEntry // KindMap
	Multimap   bool       // KindMap
}

// Property is one decoded (name, value) pair within a tag stream or a
// struct body.
type Property struct {
	Name  string
	Value Value
}

// MapEntry is one key/value pair decoded from a MapProperty.
type MapEntry struct {
	Key   Value
	Value Value
}

func (v Value) String() string {
	switch v.Kind {
	case KindStr, KindName:
		return v.Str
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindUInt:
		return fmt.Sprintf("%d", v.UInt)
	case KindFloat:
		return fmt.Sprintf("%g", v.Float)
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case KindEnum:
		return v.EnumText
	case KindStruct:
		return fmt.Sprintf("Struct(%s, %d fields)", v.StructType, len(v.Fields))
	case KindArray:
		return fmt.Sprintf("Array(%d)", len(v.Elements))
	case KindMap:
		return fmt.Sprintf("Map(%d, multimap=%t)", len(v.MapEntries), v.Multimap)
	default:
		return "<invalid>"
	}
}
