// Package fixture provides a real-codec stand-in for oodle.Decompressor,
// used by this module's tests and, absent a real Oodle binding, as the
// decompressor cmd/mk11extract passes to the extractor. It is grounded on the teacher's own
// compression usage (pkg/archive/reader.go wrapping github.com/DataDog/zstd)
// rather than a null echo: Compress produces genuine DataDog/zstd frames,
// and Decompress (the oodle.Decompressor method) inverts them, so the
// archive deserializer's block/chunk framing and splice logic can be
// exercised against byte-exact, independently compressible fixtures
// without a native Oodle library in the test binary.
package fixture

import (
	"fmt"

	"github.com/DataDog/zstd"
)

// Codec is a DataDog/zstd-backed oodle.Decompressor. It decodes only
// chunks that were themselves compressed with zstd (e.g. by Compress),
// not real Oodle data.
type Codec struct {
	Level int
}

// New returns a Codec at zstd's default compression level.
func New() *Codec {
	return &Codec{Level: zstd.DefaultCompression}
}

// Compress produces a chunk payload suitable for feeding back through
// Decompress, mirroring how a real Oodle-compressed chunk would arrive
// on the wire.
func (c *Codec) Compress(src []byte) ([]byte, error) {
	out, err := zstd.CompressLevel(nil, src, c.Level)
	if err != nil {
		return nil, fmt.Errorf("fixture: compress: %w", err)
	}
	return out, nil
}

// Decompress implements oodle.Decompressor.
func (c *Codec) Decompress(src []byte, expectedSize int) ([]byte, error) {
	out, err := zstd.Decompress(make([]byte, 0, expectedSize), src)
	if err != nil {
		return nil, fmt.Errorf("fixture: decompress: %w", err)
	}
	if len(out) != expectedSize {
		return nil, fmt.Errorf("fixture: decompressed %d bytes, expected %d", len(out), expectedSize)
	}
	return out, nil
}

// Echo is the degenerate fake described in the spec's design notes: it
// never compresses anything and simply returns src unchanged, truncated
// or zero-padded to expectedSize. Useful for tests that want to assert
// on the decompressor call sequence (count, argument sizes) without
// paying for real compression.
type Echo struct {
	Calls []EchoCall
}

// EchoCall records one invocation against an Echo decompressor.
type EchoCall struct {
	SrcLen       int
	ExpectedSize int
}

func (e *Echo) Decompress(src []byte, expectedSize int) ([]byte, error) {
	e.Calls = append(e.Calls, EchoCall{SrcLen: len(src), ExpectedSize: expectedSize})
	out := make([]byte, expectedSize)
	copy(out, src)
	return out, nil
}
