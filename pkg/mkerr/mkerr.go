// Package mkerr defines the fatal error taxonomy shared by the archive
// deserializer, external-table engine, midway parser, and property
// decoder. Every fatal condition in those packages wraps one of these
// sentinels so callers can classify a failure with errors.Is, while the
// wrapping fmt.Errorf chain still carries the byte position and context.
package mkerr

import "errors"

var (
	// ErrEOF is returned when a read would go past the end of the source.
	ErrEOF = errors.New("mkerr: read past end of source")

	// ErrInvalidHeader is returned when a raw archive's magic, four-cc, or
	// main-package field does not match the expected constant.
	ErrInvalidHeader = errors.New("mkerr: invalid archive header")

	// ErrInvalidMidwayHeader is the same check, applied to a reconstructed
	// midway image.
	ErrInvalidMidwayHeader = errors.New("mkerr: invalid midway header")

	// ErrUnsupportedCompression is returned when a compression flag falls
	// outside the Oodle family.
	ErrUnsupportedCompression = errors.New("mkerr: unsupported compression flag")

	// ErrCorruptBlock is returned when a block's chunk sizes or
	// decompressed output length disagree with its header.
	ErrCorruptBlock = errors.New("mkerr: corrupt compressed block")

	// ErrOverlappingWrite is returned when a midway splice targets a
	// byte range that already holds non-zero data.
	ErrOverlappingWrite = errors.New("mkerr: overlapping midway splice")

	// ErrMalformedExternalEntry is returned when an external-table entry's
	// offset signature is neither psf-shaped nor bulk-shaped.
	ErrMalformedExternalEntry = errors.New("mkerr: malformed external table entry")

	// ErrDuplicateTableKey is returned when two external tables in the
	// same group share a reference_key.
	ErrDuplicateTableKey = errors.New("mkerr: duplicate external table key")

	// ErrPsfExtraMismatch is returned when the PSF table entries cannot be
	// zipped 1:1 against the extra-package-list entries.
	ErrPsfExtraMismatch = errors.New("mkerr: psf table does not match extra package list")

	// ErrZeroSizedProperty is returned when a tagged property declares
	// property_size == 0 and its tag is not BoolProperty.
	ErrZeroSizedProperty = errors.New("mkerr: zero sized property")

	// ErrDuplicateMapKey is returned when a non-multimap MapProperty
	// contains a repeated key.
	ErrDuplicateMapKey = errors.New("mkerr: duplicate map key")

	// ErrUnsupportedMapKind is returned for a MapProperty whose key/value
	// shape is not one of the closed set of known property names.
	ErrUnsupportedMapKind = errors.New("mkerr: unsupported map kind")

	// ErrUnsupportedPropertyType is returned when a tag name has no
	// registered dispatch.
	ErrUnsupportedPropertyType = errors.New("mkerr: unsupported property type")
)
