// Package translator turns an input file into a translated output file.
package translator

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrEmptyDocument is returned for input without any text.
	ErrEmptyDocument = errors.New("the document is empty")
	// ErrUndecodable is returned for input that is neither UTF-8 nor UTF-16.
	ErrUndecodable = errors.New("unable to decode the document, only UTF-8 and UTF-16 are supported")
)

// ProgressFunc 进度回调函数，fraction 取值 [0,1]
type ProgressFunc func(fraction float64, message string)

// Report summarises one translated document.
type Report struct {
	// Total is the number of paragraphs sent to the model.
	Total int
	// Untranslated lists, by position among the sent paragraphs, those whose
	// answer held no usable segment and were left as they were.
	Untranslated []int
}

// Translated is the number of paragraphs whose runs were replaced.
func (r Report) Translated() int {
	return r.Total - len(r.Untranslated)
}

// Summary appends the untranslated count to message when there is one.
func (r Report) Summary(message string) string {
	switch n := len(r.Untranslated); n {
	case 0:
		return message
	case 1:
		return message + " (1 paragraph left untranslated)"
	default:
		return fmt.Sprintf("%s (%d paragraphs left untranslated)", message, n)
	}
}

// Translator translates the file at in and writes the result to out.
type Translator interface {
	Translate(ctx context.Context, in, out string, progress ProgressFunc) (Report, error)
}

func (f ProgressFunc) report(fraction float64, message string) {
	if f != nil {
		f(fraction, message)
	}
}
