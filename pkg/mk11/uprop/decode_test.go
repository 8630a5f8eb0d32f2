package uprop

import (
	"errors"
	"testing"

	"github.com/mk11nrs/mk11asset/pkg/bcursor"
	"github.com/mk11nrs/mk11asset/pkg/mkerr"
)

func putU64(buf []byte, v uint64) []byte {
	for i := 0; i < 8; i++ {
		buf = append(buf, byte(v>>(8*i)))
	}
	return buf
}

func putU32(buf []byte, v uint32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// names: 0=None 1=Health 2=IntProperty 3=Flag 4=BoolProperty
func baseNames() []string {
	return []string{"None", "Health", "IntProperty", "Flag", "BoolProperty"}
}

func TestDecodeStreamScalarTags(t *testing.T) {
	var buf []byte
	// Health: IntProperty, size=4, value=42
	buf = putU64(buf, 1)
	buf = putU64(buf, 2)
	buf = putU64(buf, 4)
	buf = putU32(buf, 42)
	// Flag: BoolProperty, size=4, value=1
	buf = putU64(buf, 3)
	buf = putU64(buf, 4)
	buf = putU64(buf, 4)
	buf = putU32(buf, 1)
	// terminator
	buf = putU64(buf, 0)

	d := NewDecoder(baseNames())
	c := bcursor.FromBytes(buf)
	props, warnings, err := d.DecodeStream(c)
	if err != nil {
		t.Fatalf("DecodeStream: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(props) != 2 {
		t.Fatalf("expected 2 properties, got %d", len(props))
	}
	if props[0].Name != "Health" || props[0].Value.Int != 42 {
		t.Fatalf("props[0] = %+v", props[0])
	}
	if props[1].Name != "Flag" || props[1].Value.Bool != true {
		t.Fatalf("props[1] = %+v", props[1])
	}
}

func TestZeroSizeNonBoolIsFatal(t *testing.T) {
	var buf []byte
	buf = putU64(buf, 1) // Health
	buf = putU64(buf, 2) // IntProperty
	buf = putU64(buf, 0) // size = 0, not allowed for IntProperty
	buf = putU64(buf, 0) // terminator (unreached)

	d := NewDecoder(baseNames())
	c := bcursor.FromBytes(buf)
	if _, _, err := d.DecodeStream(c); !errors.Is(err, mkerr.ErrZeroSizedProperty) {
		t.Fatalf("expected ErrZeroSizedProperty, got %v", err)
	}
}

func TestZeroSizeBoolAllowed(t *testing.T) {
	var buf []byte
	buf = putU64(buf, 3) // Flag
	buf = putU64(buf, 4) // BoolProperty
	buf = putU64(buf, 0) // size = 0 -> treated as 4
	buf = putU32(buf, 1)
	buf = putU64(buf, 0) // terminator

	d := NewDecoder(baseNames())
	c := bcursor.FromBytes(buf)
	props, _, err := d.DecodeStream(c)
	if err != nil {
		t.Fatalf("DecodeStream: %v", err)
	}
	if len(props) != 1 || !props[0].Value.Bool {
		t.Fatalf("props = %+v", props)
	}
}

func TestUnsupportedPropertyType(t *testing.T) {
	names := []string{"None", "Weird", "MysteryProperty"}
	var buf []byte
	buf = putU64(buf, 1) // Weird
	buf = putU64(buf, 2) // MysteryProperty
	buf = putU64(buf, 4)
	buf = putU32(buf, 0)

	d := NewDecoder(names)
	c := bcursor.FromBytes(buf)
	if _, _, err := d.DecodeStream(c); !errors.Is(err, mkerr.ErrUnsupportedPropertyType) {
		t.Fatalf("expected ErrUnsupportedPropertyType, got %v", err)
	}
}

func TestDecodeArrayKnownU32Element(t *testing.T) {
	names := []string{"None", "mUnlockPagesSentForOnline", "ArrayProperty"}
	var buf []byte
	buf = putU64(buf, 1) // mUnlockPagesSentForOnline
	buf = putU64(buf, 2) // ArrayProperty
	// size: count(4) + 2 elements * 4 bytes = 12
	buf = putU64(buf, 12)
	buf = putU32(buf, 2) // count
	buf = putU32(buf, 7)
	buf = putU32(buf, 9)
	buf = putU64(buf, 0) // terminator

	d := NewDecoder(names)
	c := bcursor.FromBytes(buf)
	props, _, err := d.DecodeStream(c)
	if err != nil {
		t.Fatalf("DecodeStream: %v", err)
	}
	arr := props[0].Value
	if arr.Kind != KindArray || len(arr.Elements) != 2 {
		t.Fatalf("arr = %+v", arr)
	}
	if arr.Elements[0].UInt != 7 || arr.Elements[1].UInt != 9 {
		t.Fatalf("elements = %+v", arr.Elements)
	}
}

// TestDecodeArraySizeMismatchIsFatal locks in that an ArrayProperty's
// declared property_size is checked against the bytes the array tag
// itself consumes (count prefix + elements), not silently skipped the
// way container types used to be.
func TestDecodeArraySizeMismatchIsFatal(t *testing.T) {
	names := []string{"None", "mUnlockPagesSentForOnline", "ArrayProperty"}
	var buf []byte
	buf = putU64(buf, 1) // mUnlockPagesSentForOnline
	buf = putU64(buf, 2) // ArrayProperty
	// actual consumed bytes are count(4) + 2 elements * 4 bytes = 12,
	// but the declared size below is wrong.
	buf = putU64(buf, 99)
	buf = putU32(buf, 2) // count
	buf = putU32(buf, 7)
	buf = putU32(buf, 9)
	buf = putU64(buf, 0) // terminator (unreached)

	d := NewDecoder(names)
	c := bcursor.FromBytes(buf)
	if _, _, err := d.DecodeStream(c); err == nil {
		t.Fatal("expected a size-mismatch error for ArrayProperty, got nil")
	}
}

// TestDecodeStructSizeMismatchIsFatal is the StructProperty analogue
// of TestDecodeArraySizeMismatchIsFatal: the struct tag's own declared
// size must match what decodeStruct actually consumes (its type-name
// index plus the nested property stream), even though the fields
// nested inside that stream are read without their own property_size.
func TestDecodeStructSizeMismatchIsFatal(t *testing.T) {
	names := []string{"None", "Outer", "StructProperty", "MyStruct", "Inner", "IntProperty"}
	var buf []byte
	buf = putU64(buf, 1) // Outer
	buf = putU64(buf, 2) // StructProperty
	// actual consumed: type_idx (8) + inner stream (Inner:IntProperty,
	// size 4, value + terminator = 8+8+8+4+8 = 36) = 44 bytes, but the
	// declared size below is wrong.
	buf = putU64(buf, 99)
	buf = putU64(buf, 3) // type_name -> "MyStruct"
	buf = putU64(buf, 4) // Inner
	buf = putU64(buf, 5) // IntProperty
	buf = putU64(buf, 4) // size
	buf = putU32(buf, 7)
	buf = putU64(buf, 0) // inner terminator
	buf = putU64(buf, 0) // outer terminator (unreached)

	d := NewDecoder(names)
	c := bcursor.FromBytes(buf)
	if _, _, err := d.DecodeStream(c); err == nil {
		t.Fatal("expected a size-mismatch error for StructProperty, got nil")
	}
}

func TestDecodeMapUnsupportedKind(t *testing.T) {
	names := []string{"None", "NotARealMap", "MapProperty"}
	var buf []byte
	buf = putU64(buf, 1) // NotARealMap
	buf = putU64(buf, 2) // MapProperty
	buf = putU64(buf, 4)
	buf = putU32(buf, 0) // count = 0

	d := NewDecoder(names)
	c := bcursor.FromBytes(buf)
	if _, _, err := d.DecodeStream(c); !errors.Is(err, mkerr.ErrUnsupportedMapKind) {
		t.Fatalf("expected ErrUnsupportedMapKind, got %v", err)
	}
}
