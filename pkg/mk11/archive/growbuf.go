package archive

import (
	"fmt"

	"github.com/mk11nrs/mk11asset/pkg/mkerr"
)

// growBuf is the explicit growable scratch buffer spec.md §9 Design
// Notes calls for in place of relying on a container's own length:
// "track L; never trust the underlying container's length alone." Here
// L is simply len(data): the buffer never holds allocated-but-unwritten
// tail bytes, so growth always means an explicit zero-pad append.
type growBuf struct {
	data []byte
}

func newGrowBuf() *growBuf { return &growBuf{} }

// Len reports the populated length L.
func (g *growBuf) Len() int { return len(g.data) }

// Bytes returns the populated buffer.
func (g *growBuf) Bytes() []byte { return g.data }

// Append grows L by appending src at the current end.
func (g *growBuf) Append(src []byte) {
	g.data = append(g.data, src...)
}

func isZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// spliceWarning is one non-fatal condition raised by Splice.
type spliceWarning struct {
	Message string
}

// Splice writes src at absolute offset off, applying the policy of
// spec.md §4.4:
//   - off beyond the current populated length: zero-pad up to off, then
//     append; warns "offset beyond current buffer".
//   - off within the populated region and the destination bytes are all
//     zero (any portion past the old end is zero by construction): overwrite
//     silently, with a debug warning "possibly unordered input".
//   - off within the populated region and any destination byte is
//     nonzero: fatal OverlappingWrite.
func (g *growBuf) Splice(off int, src []byte) (spliceWarning, bool, error) {
	oldLen := len(g.data)
	end := off + len(src)

	switch {
	case off > oldLen:
		g.data = append(g.data, make([]byte, off-oldLen)...)
		g.Append(src)
		return spliceWarning{Message: fmt.Sprintf("offset %d beyond current buffer length %d", off, oldLen)}, true, nil

	case off == oldLen:
		g.Append(src)
		return spliceWarning{}, false, nil

	default: // off < oldLen
		checkEnd := end
		if checkEnd > oldLen {
			checkEnd = oldLen
		}
		if !isZero(g.data[off:checkEnd]) {
			return spliceWarning{}, false, fmt.Errorf("archive: splice at offset %d overlaps non-zero data: %w", off, mkerr.ErrOverlappingWrite)
		}
		if end > oldLen {
			g.data = append(g.data, make([]byte, end-oldLen)...)
		}
		copy(g.data[off:end], src)
		return spliceWarning{Message: "possibly unordered input"}, true, nil
	}
}
