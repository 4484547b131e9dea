// Package style deduplicates run formatting into short reference keys that can
// travel through an LLM prompt and be resolved back afterwards.
package style

import (
	"strconv"

	"github.com/nerdneilsfield/go-doc-translator/internal/document"
)

// KeyPrefix starts every palette key.
const KeyPrefix = "s"

type tristate int8

const (
	unset tristate = iota
	off
	on
)

func tri(b *bool) tristate {
	switch {
	case b == nil:
		return unset
	case *b:
		return on
	default:
		return off
	}
}

// signature is the comparable form of a document.Formatting. Two formattings
// with equal signatures share a key.
type signature struct {
	bold, italic, underline tristate

	font         string
	hasFont      bool
	size         float64
	hasSize      bool
	color        string
	hasColor     bool
	highlight    int
	hasHighlight bool
}

func signatureOf(f document.Formatting) signature {
	s := signature{
		bold:      tri(f.Bold),
		italic:    tri(f.Italic),
		underline: tri(f.Underline),
	}
	if f.Font != nil {
		s.font, s.hasFont = *f.Font, true
	}
	if f.Size != nil {
		s.size, s.hasSize = *f.Size, true
	}
	if f.Color != nil {
		s.color, s.hasColor = *f.Color, true
	}
	if f.Highlight != nil {
		s.highlight, s.hasHighlight = *f.Highlight, true
	}
	return s
}

// Palette maps formatting signatures to keys s1, s2, ... in order of first
// registration. A palette covers a single paragraph and is not safe for
// concurrent use.
type Palette struct {
	keys    map[signature]string
	formats map[string]document.Formatting
	order   []string
}

// NewPalette returns an empty palette.
func NewPalette() *Palette {
	return &Palette{
		keys:    make(map[signature]string),
		formats: make(map[string]document.Formatting),
	}
}

// Register returns the key for f, allocating the next one if f has not been
// seen yet.
func (p *Palette) Register(f document.Formatting) string {
	sig := signatureOf(f)
	if key, ok := p.keys[sig]; ok {
		return key
	}
	key := KeyPrefix + strconv.Itoa(len(p.order)+1)
	p.keys[sig] = key
	p.formats[key] = f
	p.order = append(p.order, key)
	return key
}

// Apply copies every field set in the formatting stored under key onto run.
// Fields unset in the stored formatting are left as they are. It returns false,
// and leaves run untouched, when key is unknown.
func (p *Palette) Apply(key string, run *document.Run) bool {
	f, ok := p.formats[key]
	if !ok {
		return false
	}
	if f.Bold != nil {
		run.Format.Bold = document.Ptr(*f.Bold)
	}
	if f.Italic != nil {
		run.Format.Italic = document.Ptr(*f.Italic)
	}
	if f.Underline != nil {
		run.Format.Underline = document.Ptr(*f.Underline)
	}
	if f.Font != nil {
		run.Format.Font = document.Ptr(*f.Font)
	}
	if f.Size != nil {
		run.Format.Size = document.Ptr(*f.Size)
	}
	if f.Color != nil {
		run.Format.Color = document.Ptr(*f.Color)
	}
	if f.Highlight != nil {
		run.Format.Highlight = document.Ptr(*f.Highlight)
	}
	return true
}

// Has reports whether key was allocated by this palette.
func (p *Palette) Has(key string) bool {
	_, ok := p.formats[key]
	return ok
}

// Keys returns the allocated keys in allocation order.
func (p *Palette) Keys() []string {
	return append([]string(nil), p.order...)
}

// Len is the number of distinct formattings registered.
func (p *Palette) Len() int {
	return len(p.order)
}
