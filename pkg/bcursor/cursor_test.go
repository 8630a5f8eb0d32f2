package bcursor

import (
	"errors"
	"testing"

	"github.com/mk11nrs/mk11asset/pkg/mkerr"
)

func TestPrimitiveReads(t *testing.T) {
	buf := []byte{
		0x01,             // u8
		0x02, 0x00,       // u16 = 2
		0x03, 0x00, 0x00, 0x00, // u32 = 3
		0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // u64 = 4
		'h', 'i',
	}
	c := FromBytes(buf)

	u8, err := c.U8()
	if err != nil || u8 != 1 {
		t.Fatalf("U8 = %d, %v", u8, err)
	}
	u16, err := c.U16()
	if err != nil || u16 != 2 {
		t.Fatalf("U16 = %d, %v", u16, err)
	}
	u32, err := c.U32()
	if err != nil || u32 != 3 {
		t.Fatalf("U32 = %d, %v", u32, err)
	}
	u64, err := c.U64()
	if err != nil || u64 != 4 {
		t.Fatalf("U64 = %d, %v", u64, err)
	}
	s, err := c.ASCII(2)
	if err != nil || s != "hi" {
		t.Fatalf("ASCII = %q, %v", s, err)
	}
	if c.Pos() != c.Len() {
		t.Fatalf("expected cursor at end: pos=%d len=%d", c.Pos(), c.Len())
	}
}

func TestEOF(t *testing.T) {
	c := FromBytes([]byte{0x01, 0x02})
	if _, err := c.U32(); !errors.Is(err, mkerr.ErrEOF) {
		t.Fatalf("expected ErrEOF, got %v", err)
	}
}

func TestSeekSkip(t *testing.T) {
	c := FromBytes(make([]byte, 16))
	if err := c.Seek(8); err != nil {
		t.Fatal(err)
	}
	if c.Pos() != 8 {
		t.Fatalf("pos = %d", c.Pos())
	}
	if err := c.Skip(4); err != nil {
		t.Fatal(err)
	}
	if c.Pos() != 12 {
		t.Fatalf("pos = %d", c.Pos())
	}
	if err := c.Seek(-1); err == nil {
		t.Fatal("expected error seeking negative")
	}
	if err := c.Seek(17); err == nil {
		t.Fatal("expected error seeking past end")
	}
}

func TestSignedReads(t *testing.T) {
	c := FromBytes([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	if v, err := FromBytes([]byte{0xFF}).I8(); err != nil || v != -1 {
		t.Fatalf("I8 = %d, %v", v, err)
	}
	if v, err := c.I32(); err != nil || v != -1 {
		t.Fatalf("I32 = %d, %v", v, err)
	}
}
