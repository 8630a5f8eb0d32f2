package uprop

import (
	"fmt"

	"github.com/mk11nrs/mk11asset/pkg/bcursor"
	"github.com/mk11nrs/mk11asset/pkg/mk11/uprop/mk11enum"
	"github.com/mk11nrs/mk11asset/pkg/mkerr"
)

// Warning is a non-fatal condition raised while decoding a property
// stream (spec.md §7 propagation policy): unknown array element names,
// surfaced once per name per decode run. Unknown map names are fatal
// (ErrUnsupportedMapKind), not warnings.
type Warning struct {
	Message string
}

func (w Warning) String() string { return w.Message }

// Decoder walks one or more tagged property streams against a shared
// name table. One Decoder is scoped to a single decode run: the
// "already warned" set in spec.md §5 is per-run, not process-wide.
type Decoder struct {
	Names []string

	warned    map[string]bool
	collected []Warning
}

// NewDecoder constructs a Decoder over the given name table.
func NewDecoder(names []string) *Decoder {
	return &Decoder{Names: names, warned: make(map[string]bool)}
}

func (d *Decoder) name(idx uint64) (string, error) {
	if idx >= uint64(len(d.Names)) {
		return "", fmt.Errorf("uprop: name index %d out of range (table has %d entries)", idx, len(d.Names))
	}
	return d.Names[idx], nil
}

func (d *Decoder) warnOnce(key, message string) {
	if d.warned[key] {
		return
	}
	d.warned[key] = true
	d.collected = append(d.collected, Warning{Message: message})
}

// DecodeStream reads tags from c until a "None" terminator or EOF,
// returning the decoded properties and any warnings raised along the
// way (spec.md §4.8).
func (d *Decoder) DecodeStream(c *bcursor.Cursor) ([]Property, []Warning, error) {
	before := len(d.collected)
	var props []Property
	for {
		if c.Pos() >= c.Len() {
			return props, d.collected[before:], nil
		}
		nameIdx, err := c.U64()
		if err != nil {
			return props, d.collected[before:], err
		}
		name, err := d.name(nameIdx)
		if err != nil {
			return props, d.collected[before:], err
		}
		if name == "None" {
			return props, d.collected[before:], nil
		}

		typeIdx, err := c.U64()
		if err != nil {
			return props, d.collected[before:], err
		}
		typeName, err := d.name(typeIdx)
		if err != nil {
			return props, d.collected[before:], err
		}

		size, err := c.U64()
		if err != nil {
			return props, d.collected[before:], err
		}
		if size == 0 {
			if typeName != "BoolProperty" {
				return props, d.collected[before:], fmt.Errorf("uprop: property %q tag %q has zero size: %w", name, typeName, mkerr.ErrZeroSizedProperty)
			}
			size = 4
		}

		start := c.Pos()
		val, exact, err := d.decodeValue(c, name, typeName, size)
		if err != nil {
			return props, d.collected[before:], fmt.Errorf("uprop: property %q (%s): %w", name, typeName, err)
		}
		if exact {
			consumed := uint64(c.Pos() - start)
			if consumed != size {
				return props, d.collected[before:], fmt.Errorf("uprop: property %q (%s) consumed %d bytes, declared size %d", name, typeName, consumed, size)
			}
		}

		props = append(props, Property{Name: name, Value: val})
	}
}

// decodeValue dispatches on typeName per spec.md §4.8's table. The bool
// return reports whether the caller should enforce the declared size
// against bytes actually consumed. Every tag occurrence, including
// Struct/Array/Map, opts in; only the elements nested inside a
// container are read without their own property_size tag, via the
// recursive DecodeStream/decodeArrayElement/decodeMapUnlock* calls.
func (d *Decoder) decodeValue(c *bcursor.Cursor, propName, typeName string, size uint64) (Value, bool, error) {
	switch typeName {
	case "StrProperty":
		return d.decodeStr(c)
	case "NameProperty":
		return d.decodeName(c)
	case "IntProperty":
		return d.decodeInt(c, size)
	case "FloatProperty":
		return d.decodeFloat(c)
	case "BoolProperty":
		return d.decodeBool(c)
	case "DWordProperty", "QWordProperty":
		return d.decodeUInt(c, size)
	case "EnumProperty":
		return d.decodeEnum(c, propName, size)
	case "StructProperty":
		return d.decodeStruct(c)
	case "ArrayProperty":
		return d.decodeArray(c, propName)
	case "MapProperty":
		return d.decodeMap(c, propName)
	default:
		return Value{}, false, fmt.Errorf("uprop: %w: %q", mkerr.ErrUnsupportedPropertyType, typeName)
	}
}

func (d *Decoder) decodeStr(c *bcursor.Cursor) (Value, bool, error) {
	n, err := c.U32()
	if err != nil {
		return Value{}, false, err
	}
	s, err := c.ASCII(int(n))
	if err != nil {
		return Value{}, false, err
	}
	return Value{Kind: KindStr, Str: s}, true, nil
}

func (d *Decoder) decodeName(c *bcursor.Cursor) (Value, bool, error) {
	idx, err := c.U64()
	if err != nil {
		return Value{}, false, err
	}
	name, err := d.name(idx)
	if err != nil {
		return Value{}, false, err
	}
	return Value{Kind: KindName, Str: name}, true, nil
}

// readWidth reads a little-endian integer of the given byte width (1,
// 2, 4, or 8), returning it as a uint64 for the caller to reinterpret.
func readWidth(c *bcursor.Cursor, width uint64) (uint64, error) {
	switch width {
	case 1:
		v, err := c.U8()
		return uint64(v), err
	case 2:
		v, err := c.U16()
		return uint64(v), err
	case 4:
		v, err := c.U32()
		return uint64(v), err
	case 8:
		return c.U64()
	default:
		return 0, fmt.Errorf("uprop: unsupported integer width %d", width)
	}
}

func (d *Decoder) decodeInt(c *bcursor.Cursor, size uint64) (Value, bool, error) {
	raw, err := readWidth(c, size)
	if err != nil {
		return Value{}, false, err
	}
	var signed int64
	switch size {
	case 1:
		signed = int64(int8(raw))
	case 2:
		signed = int64(int16(raw))
	case 4:
		signed = int64(int32(raw))
	default:
		signed = int64(raw)
	}
	return Value{Kind: KindInt, Int: signed}, true, nil
}

func (d *Decoder) decodeUInt(c *bcursor.Cursor, size uint64) (Value, bool, error) {
	raw, err := readWidth(c, size)
	if err != nil {
		return Value{}, false, err
	}
	return Value{Kind: KindUInt, UInt: raw}, true, nil
}

func (d *Decoder) decodeFloat(c *bcursor.Cursor) (Value, bool, error) {
	f, err := c.F32()
	if err != nil {
		return Value{}, false, err
	}
	return Value{Kind: KindFloat, Float: f}, true, nil
}

func (d *Decoder) decodeBool(c *bcursor.Cursor) (Value, bool, error) {
	v, err := c.U32()
	if err != nil {
		return Value{}, false, err
	}
	return Value{Kind: KindBool, Bool: v == 1}, true, nil
}

func (d *Decoder) decodeEnum(c *bcursor.Cursor, propName string, size uint64) (Value, bool, error) {
	raw, err := readWidth(c, size)
	if err != nil {
		return Value{}, false, err
	}
	return Value{Kind: KindEnum, EnumField: propName, EnumText: mk11enum.Render(propName, raw)}, true, nil
}

func (d *Decoder) decodeStruct(c *bcursor.Cursor) (Value, bool, error) {
	typeIdx, err := c.U64()
	if err != nil {
		return Value{}, false, err
	}
	structType, err := d.name(typeIdx)
	if err != nil {
		return Value{}, false, err
	}

	if structType == "FGuid" {
		b, err := c.Bytes(16)
		if err != nil {
			return Value{}, false, err
		}
		var g [16]byte
		copy(g[:], b)
		return Value{Kind: KindStruct, StructType: structType, GUID: &g}, true, nil
	}

	fields, _, err := d.DecodeStream(c)
	if err != nil {
		return Value{}, false, err
	}
	return Value{Kind: KindStruct, StructType: structType, Fields: fields}, true, nil
}

func (d *Decoder) decodeArray(c *bcursor.Cursor, propName string) (Value, bool, error) {
	count, err := c.U32()
	if err != nil {
		return Value{}, false, err
	}

	elems := make([]Value, 0, count)
	for i := uint32(0); i < count; i++ {
		v, err := d.decodeArrayElement(c, propName)
		if err != nil {
			return Value{}, false, fmt.Errorf("element %d: %w", i, err)
		}
		elems = append(elems, v)
	}
	return Value{Kind: KindArray, Elements: elems}, true, nil
}

// decodeArrayElement classifies an ArrayProperty's element type by the
// enclosing property's name, per spec.md §4.8's closed table. Unknown
// names still decode as an untagged StructProperty body (headers=false)
// but raise a one-shot warning.
func (d *Decoder) decodeArrayElement(c *bcursor.Cursor, propName string) (Value, error) {
	switch propName {
	case "mUnlockPagesSentForOnline":
		v, err := c.U32()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindUInt, UInt: uint64(v)}, nil
	case "mUnlockedByDefault", "mUnlockedForDev":
		return d.decodeUntaggedName(c)
	default:
		if !isKnownStructArray(propName) {
			d.warnOnce("array:"+propName, fmt.Sprintf("array property %q has no registered element classification; decoding as untagged struct", propName))
		}
		fields, _, err := d.DecodeStream(c)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindStruct, Fields: fields}, nil
	}
}

func (d *Decoder) decodeUntaggedName(c *bcursor.Cursor) (Value, error) {
	idx, err := c.U64()
	if err != nil {
		return Value{}, err
	}
	name, err := d.name(idx)
	if err != nil {
		return Value{}, err
	}
	return Value{Kind: KindName, Str: name}, nil
}

// knownStructArrayNames is the non-exhaustive known-good whitelist
// spec.md §4.8 describes: property names known to hold an array of
// untagged structs, suppressing the one-shot warning for the common
// case. Names outside this set still decode correctly; they just warn
// once.
var knownStructArrayNames = map[string]bool{
	"mUnlocks":          true,
	"mUnlockItems":      true,
	"mItems":            true,
	"mAttributes":       true,
	"mModifiers":        true,
	"mLootTableEntries": true,
}

func isKnownStructArray(name string) bool { return knownStructArrayNames[name] }

func (d *Decoder) decodeMap(c *bcursor.Cursor, propName string) (Value, bool, error) {
	count, err := c.U32()
	if err != nil {
		return Value{}, false, err
	}

	switch propName {
	case "mUnlockNameMap":
		return d.decodeMapUnlockName(c, count)
	case "mUnlockTypeMap":
		return d.decodeMapUnlockType(c, count)
	case "DefaultUnlocks":
		return d.decodeMapDefaultUnlocks(c, count)
	case "NameToItemHandleLookup":
		return d.decodeMapNameToItemHandle(c, count)
	default:
		return Value{}, false, fmt.Errorf("uprop: %w: %q", mkerr.ErrUnsupportedMapKind, propName)
	}
}

func (d *Decoder) decodeMapUnlockName(c *bcursor.Cursor, count uint32) (Value, bool, error) {
	entries := make([]MapEntry, 0, count)
	seen := make(map[string]bool, count)
	for i := uint32(0); i < count; i++ {
		key, err := d.decodeUntaggedName(c)
		if err != nil {
			return Value{}, false, err
		}
		keySlot, err := c.U32()
		if err != nil {
			return Value{}, false, err
		}
		valSlot, err := c.U32()
		if err != nil {
			return Value{}, false, err
		}
		if seen[key.Str] {
			return Value{}, false, fmt.Errorf("%w: key %q", mkerr.ErrDuplicateMapKey, key.Str)
		}
		seen[key.Str] = true
		entries = append(entries, MapEntry{
			Key: key,
			Value: Value{Kind: KindStruct, Fields: []Property{
				{Name: "key_slot", Value: Value{Kind: KindUInt, UInt: uint64(keySlot)}},
				{Name: "value_slot", Value: Value{Kind: KindUInt, UInt: uint64(valSlot)}},
			}},
		})
	}
	return Value{Kind: KindMap, MapEntries: entries}, true, nil
}

func (d *Decoder) decodeMapUnlockType(c *bcursor.Cursor, count uint32) (Value, bool, error) {
	entries := make([]MapEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		k, err := c.U8()
		if err != nil {
			return Value{}, false, err
		}
		v, err := d.decodeUntaggedName(c)
		if err != nil {
			return Value{}, false, err
		}
		entries = append(entries, MapEntry{Key: Value{Kind: KindUInt, UInt: uint64(k)}, Value: v})
	}
	return Value{Kind: KindMap, MapEntries: entries, Multimap: true}, true, nil
}

func (d *Decoder) decodeMapDefaultUnlocks(c *bcursor.Cursor, count uint32) (Value, bool, error) {
	entries := make([]MapEntry, 0, count)
	seen := make(map[string]bool, count)
	for i := uint32(0); i < count; i++ {
		keyFields, _, err := d.DecodeStream(c)
		if err != nil {
			return Value{}, false, err
		}
		if len(keyFields) != 1 {
			return Value{}, false, fmt.Errorf("DefaultUnlocks key struct has %d fields, want exactly 1", len(keyFields))
		}
		key := keyFields[0].Value
		v, err := c.U8()
		if err != nil {
			return Value{}, false, err
		}
		dedupKey := key.String()
		if seen[dedupKey] {
			return Value{}, false, fmt.Errorf("%w: key %s", mkerr.ErrDuplicateMapKey, dedupKey)
		}
		seen[dedupKey] = true
		entries = append(entries, MapEntry{Key: key, Value: Value{Kind: KindUInt, UInt: uint64(v)}})
	}
	return Value{Kind: KindMap, MapEntries: entries}, true, nil
}

func (d *Decoder) decodeMapNameToItemHandle(c *bcursor.Cursor, count uint32) (Value, bool, error) {
	entries := make([]MapEntry, 0, count)
	seen := make(map[string]bool, count)
	for i := uint32(0); i < count; i++ {
		key, _, err := d.decodeStr(c)
		if err != nil {
			return Value{}, false, err
		}
		fields, _, err := d.DecodeStream(c)
		if err != nil {
			return Value{}, false, err
		}
		if seen[key.Str] {
			return Value{}, false, fmt.Errorf("%w: key %q", mkerr.ErrDuplicateMapKey, key.Str)
		}
		seen[key.Str] = true
		entries = append(entries, MapEntry{Key: key, Value: Value{Kind: KindStruct, Fields: fields}})
	}
	return Value{Kind: KindMap, MapEntries: entries}, true, nil
}
