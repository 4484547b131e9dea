package pipeline

import (
	"errors"
	"path/filepath"
	"slices"
	"strings"

	"github.com/nerdneilsfield/go-doc-translator/internal/document"
	"github.com/nerdneilsfield/go-doc-translator/internal/prompt"
)

// ErrUnsupportedFileType matches every UnsupportedFileTypeError.
var ErrUnsupportedFileType = errors.New("unsupported file type")

// UnsupportedFileTypeError is returned for an extension without a Format.
type UnsupportedFileTypeError struct {
	Ext string
}

func (e *UnsupportedFileTypeError) Error() string {
	if e.Ext == "" {
		return "unsupported file type: no extension"
	}
	return "unsupported file type: " + e.Ext
}

// Is makes errors.Is(err, ErrUnsupportedFileType) hold.
func (e *UnsupportedFileTypeError) Is(target error) bool {
	return target == ErrUnsupportedFileType
}

// Format describes how files with one extension are translated.
type Format struct {
	Name string
	// Prompt selects the system prompt.
	Prompt prompt.Kind
	// Opener is nil for flat text, which is translated in one request.
	Opener document.Opener
	// Unit names one paragraph in progress messages.
	Unit string
	// Started and Completed are reported at 5% and 100%.
	Started   string
	Completed string
}

// Flat reports whether the format is translated as a single text.
func (f Format) Flat() bool {
	return f.Opener == nil
}

var (
	textFormat = Format{
		Name:      "text",
		Prompt:    prompt.KindText,
		Started:   "Translating text document",
		Completed: "Translation completed",
	}
	docxFormat = Format{
		Name:      "docx",
		Prompt:    prompt.KindDocx,
		Opener:    document.OpenerFunc(func(path string) (document.Document, error) { return document.OpenDocx(path) }),
		Unit:      "paragraph",
		Started:   "Analyzing DOCX structure",
		Completed: "DOCX translation completed",
	}
	pptxFormat = Format{
		Name:      "pptx",
		Prompt:    prompt.KindPptx,
		Opener:    document.OpenerFunc(func(path string) (document.Document, error) { return document.OpenPptx(path) }),
		Unit:      "slide text",
		Started:   "Analyzing PPTX slides",
		Completed: "PPTX translation completed",
	}
)

// Register 注册文件扩展名对应的格式，已存在时覆盖
func (d *Dispatcher) Register(ext string, f Format) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.formats[normalizeExt(ext)] = f
}

// Lookup returns the format for filename's extension.
func (d *Dispatcher) Lookup(filename string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	d.mu.RLock()
	defer d.mu.RUnlock()

	f, ok := d.formats[ext]
	if !ok {
		return Format{}, &UnsupportedFileTypeError{Ext: ext}
	}
	return f, nil
}

// Extensions lists the supported extensions, sorted.
func (d *Dispatcher) Extensions() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	exts := make([]string, 0, len(d.formats))
	for ext := range d.formats {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
