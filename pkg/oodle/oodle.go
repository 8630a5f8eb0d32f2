// Package oodle defines the narrow compression-adapter contract the
// archive deserializer depends on. Oodle itself is a proprietary native
// library (spec: "do not embed; call via a narrow FFI surface") — this
// package never links against it. Callers supply their own Decompressor,
// typically backed by cgo or a dynamic-load wrapper around the vendor's
// shared object; pkg/oodle/fixture supplies a real-codec stand-in for
// tests.
package oodle

import (
	"fmt"

	"github.com/mk11nrs/mk11asset/pkg/mkerr"
)

// Decompressor is the single operation the archive deserializer needs
// from a compression codec: decompress src into exactly expectedSize
// bytes. Implementations are expected to be stateless and safe for
// concurrent use, since pkg/mk11/extract may drive several archive
// parses in parallel against one shared Decompressor.
type Decompressor interface {
	Decompress(src []byte, expectedSize int) ([]byte, error)
}

// Codec identifies a codec family within the Oodle compression flag
// bit-set (spec.md §4.3, §9 OodleCompressionCodecs). Only the selection
// policy is implemented here; codec-specific behavior is the caller's
// Decompressor's concern.
type Codec uint32

const (
	CodecMK11      Codec = 7
	CodecKraken    Codec = 8
	CodecMermaid   Codec = 9
	CodecMedian    Codec = 10
	CodecSelkie    Codec = 11
	CodecHydra     Codec = 12
	CodecLeviathan Codec = 13
)

// Compression flag bits, per spec.md §4.3 and §9 CompressionType.
const (
	FlagNone  uint32 = 0x0000
	FlagZlib  uint32 = 0x0001
	FlagLZO   uint32 = 0x0002
	FlagLZX   uint32 = 0x0004
	FlagPFS   uint32 = 0x0008
	FlagPS4   uint32 = 0x0010
	FlagXBX   uint32 = 0x0040
	FlagOodle uint32 = 0x0100
)

// oodleFamilyThreshold is the selection boundary from spec.md §4.3:
// "values ≥ 0x0010 (PS4/XBX/OODLE) select Oodle. All other nonzero
// values fail with UnsupportedCompression."
const oodleFamilyThreshold = 0x0010

// SelectCodec applies the compression-flag selection policy. A return of
// (true, nil) means the flag selects the Oodle family and the caller's
// Decompressor should be used. A return of (false, nil) means flag == 0,
// which is only valid on a midway image, never a raw archive — the
// caller decides whether that is an error in its context. Any other
// shape returns ErrUnsupportedCompression.
func SelectCodec(flag uint32) (useOodle bool, err error) {
	switch {
	case flag == FlagNone:
		return false, nil
	case flag >= oodleFamilyThreshold:
		return true, nil
	default:
		return false, fmt.Errorf("oodle: compression flag 0x%x: %w", flag, mkerr.ErrUnsupportedCompression)
	}
}
