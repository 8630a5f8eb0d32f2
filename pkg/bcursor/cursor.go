// Package bcursor provides a bounds-checked, little-endian byte cursor
// over a fixed in-memory region. Every parser in this module reads
// through one of these: a file-backed source opened with FromFile, or a
// borrowed buffer opened with FromBytes. Neither is safe to share across
// goroutines — each parse uses its own Cursor over a read-only region.
package bcursor

import (
	"fmt"
	"io"
	"os"

	"github.com/mk11nrs/mk11asset/pkg/mkerr"
)

// Cursor is a random-access little-endian reader over a byte region. The
// zero value is not usable; construct one with FromBytes or FromFile.
type Cursor struct {
	data  []byte
	pos   int64
	owner io.Closer // non-nil when the Cursor owns a file handle/mapping
}

// FromBytes wraps buf without copying it. The caller retains ownership;
// Close is a no-op.
func FromBytes(buf []byte) *Cursor {
	return &Cursor{data: buf}
}

// FromFile opens path read-only and reads it fully into memory, owning
// the file handle until Close. This module has no write or resize path
// for archive sources, so a plain read-only buffer stands in for a
// memory map without pulling in a platform-specific mmap dependency.
func FromFile(path string) (*Cursor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("bcursor: open %s: %w", path, err)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("bcursor: read %s: %w", path, err)
	}
	return &Cursor{data: data, owner: f}, nil
}

// Close releases the owned file handle, if any.
func (c *Cursor) Close() error {
	if c.owner != nil {
		return c.owner.Close()
	}
	return nil
}

// Len returns the total size of the region.
func (c *Cursor) Len() int64 { return int64(len(c.data)) }

// Pos returns the current cursor position.
func (c *Cursor) Pos() int64 { return c.pos }

// Seek moves the cursor to an absolute offset.
func (c *Cursor) Seek(abs int64) error {
	if abs < 0 || abs > c.Len() {
		return fmt.Errorf("bcursor: seek %d: %w", abs, mkerr.ErrEOF)
	}
	c.pos = abs
	return nil
}

// Skip moves the cursor by a relative offset.
func (c *Cursor) Skip(rel int64) error {
	return c.Seek(c.pos + rel)
}

func (c *Cursor) require(n int64) error {
	if n < 0 || c.pos+n > c.Len() {
		return fmt.Errorf("bcursor: read %d bytes at %d (len %d): %w", n, c.pos, c.Len(), mkerr.ErrEOF)
	}
	return nil
}

// Bytes reads n raw bytes and advances the cursor. The returned slice
// aliases the cursor's backing storage; callers that retain it beyond
// the parse must copy.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	if err := c.require(int64(n)); err != nil {
		return nil, err
	}
	b := c.data[c.pos : c.pos+int64(n)]
	c.pos += int64(n)
	return b, nil
}

// ASCII reads n bytes and returns them as a string, with no null
// stripping — callers that expect a terminator trim it themselves.
func (c *Cursor) ASCII(n int) (string, error) {
	b, err := c.Bytes(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// UTF16LE reads nChars UTF-16LE code units and decodes them, used for the
// optional localization companion stream.
func (c *Cursor) UTF16LE(nChars int) ([]uint16, error) {
	raw, err := c.Bytes(nChars * 2)
	if err != nil {
		return nil, err
	}
	out := make([]uint16, nChars)
	for i := range out {
		out[i] = uint16(raw[2*i]) | uint16(raw[2*i+1])<<8
	}
	return out, nil
}

// U8 reads one unsigned byte.
func (c *Cursor) U8() (uint8, error) {
	b, err := c.Bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// I8 reads one signed byte.
func (c *Cursor) I8() (int8, error) {
	v, err := c.U8()
	return int8(v), err
}

// U16 reads a little-endian uint16.
func (c *Cursor) U16() (uint16, error) {
	b, err := c.Bytes(2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0]) | uint16(b[1])<<8, nil
}

// I16 reads a little-endian int16.
func (c *Cursor) I16() (int16, error) {
	v, err := c.U16()
	return int16(v), err
}

// U32 reads a little-endian uint32.
func (c *Cursor) U32() (uint32, error) {
	b, err := c.Bytes(4)
	if err != nil {
		return 0, err
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, nil
}

// I32 reads a little-endian int32.
func (c *Cursor) I32() (int32, error) {
	v, err := c.U32()
	return int32(v), err
}

// U64 reads a little-endian uint64.
func (c *Cursor) U64() (uint64, error) {
	b, err := c.Bytes(8)
	if err != nil {
		return 0, err
	}
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v, nil
}

// I64 reads a little-endian int64.
func (c *Cursor) I64() (int64, error) {
	v, err := c.U64()
	return int64(v), err
}

// F32 reads an IEEE-754 binary32 float.
func (c *Cursor) F32() (float32, error) {
	v, err := c.U32()
	if err != nil {
		return 0, err
	}
	return math32frombits(v), nil
}
