package document

import (
	"iter"
	"path/filepath"
	"strings"
)

// Formatting describes the character formatting of a run. A nil field is unset:
// the run inherits whatever its paragraph or style defines.
type Formatting struct {
	Bold      *bool
	Italic    *bool
	Underline *bool
	Font      *string
	// Size is expressed in points.
	Size *float64
	// Color is a six digit RGB hex string such as "FF0000".
	Color *string
	// Highlight is a Word colour index (WD_COLOR_INDEX). Presentations have none.
	Highlight *int
}

// Run is a span of text sharing one Formatting.
type Run struct {
	Text   string
	Format Formatting
}

// Paragraph is an ordered sequence of runs inside a container.
type Paragraph interface {
	// Runs returns the text-bearing runs of the paragraph in document order.
	Runs() []Run
	// ReplaceRuns drops the current text runs and inserts runs in their place.
	ReplaceRuns(runs []Run)
}

// Document is an opened run-structured container.
type Document interface {
	// Paragraphs yields every paragraph depth-first, including those nested in
	// tables, cells, shapes and text frames.
	Paragraphs() iter.Seq[Paragraph]
	Save(path string) error
}

// Opener opens a container from disk.
type Opener interface {
	Open(path string) (Document, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(path string) (Document, error)

// Open calls f(path).
func (f OpenerFunc) Open(path string) (Document, error) {
	return f(path)
}

// HasText reports whether any run of p carries text.
func HasText(p Paragraph) bool {
	for _, r := range p.Runs() {
		if r.Text != "" {
			return true
		}
	}
	return false
}

// Text concatenates the run texts of p.
func Text(p Paragraph) string {
	var sb strings.Builder
	for _, r := range p.Runs() {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// Ptr returns a pointer to v, handy for building Formatting literals.
func Ptr[T any](v T) *T {
	return &v
}

// OpenFile picks DOCX or PPTX by extension.
func OpenFile(path string) (Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".docx":
		d, err := OpenDocx(path)
		if err != nil {
			return nil, err
		}
		return d, nil
	case ".pptx":
		p, err := OpenPptx(path)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, &FormatError{Path: path, Reason: "not a DOCX or PPTX container"}
	}
}
