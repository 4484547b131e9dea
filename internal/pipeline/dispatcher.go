// Package pipeline routes a stored upload to the translator for its format.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-doc-translator/internal/batch"
	"github.com/nerdneilsfield/go-doc-translator/internal/llm"
	"github.com/nerdneilsfield/go-doc-translator/internal/prompt"
	"github.com/nerdneilsfield/go-doc-translator/internal/translator"
)

// DefaultOutputSuffix is inserted before the extension of translated files.
const DefaultOutputSuffix = "_translated"

const (
	structureStart = 0.05
	structureSpan  = 0.90
)

// Storage resolves job file locations.
type Storage interface {
	InputPath(jobID, filename string) (string, error)
	OutputPath(jobID, filename, suffix string) (string, error)
}

// Options configures a Dispatcher. Zero values fall back to defaults.
type Options struct {
	Prompts      prompt.Set
	BatchSize    int
	Delimiter    string
	OutputSuffix string
	Logger       *zap.Logger
}

// Dispatcher translates stored job inputs.
type Dispatcher struct {
	mu      sync.RWMutex
	formats map[string]Format

	storage Storage
	prompts prompt.Set
	size    int
	delim   string
	suffix  string
	logger  *zap.Logger
}

// NewDispatcher returns a dispatcher handling .txt, .md, .docx and .pptx.
func NewDispatcher(storage Storage, opts Options) *Dispatcher {
	d := &Dispatcher{
		formats: make(map[string]Format),
		storage: storage,
		prompts: opts.Prompts,
		size:    opts.BatchSize,
		delim:   opts.Delimiter,
		suffix:  opts.OutputSuffix,
		logger:  opts.Logger,
	}
	if d.suffix == "" {
		d.suffix = DefaultOutputSuffix
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}

	d.Register(".txt", textFormat)
	d.Register(".md", textFormat)
	d.Register(".docx", docxFormat)
	d.Register(".pptx", pptxFormat)
	return d
}

// Dispatch translates the input of jobID with client and returns the output
// path. Unsupported extensions fail before storage is touched. Progress runs
// from 0.05 to 1; the final message mentions paragraphs left untranslated.
func (d *Dispatcher) Dispatch(ctx context.Context, jobID, filename string, client llm.Client, progress translator.ProgressFunc) (string, error) {
	format, err := d.Lookup(filename)
	if err != nil {
		return "", err
	}
	progress = orNop(progress)

	in, err := d.storage.InputPath(jobID, filename)
	if err != nil {
		return "", fmt.Errorf("failed to resolve input path: %w", err)
	}
	out, err := d.storage.OutputPath(jobID, filename, d.suffix)
	if err != nil {
		return "", fmt.Errorf("failed to resolve output path: %w", err)
	}

	logger := d.logger.With(zap.String("jobID", jobID), zap.String("format", format.Name))
	logger.Info("dispatching translation", zap.String("filename", filename))

	systemPrompt := d.systemPrompt(format.Prompt)
	progress(structureStart, format.Started)

	var (
		report translator.Report
		inner  translator.ProgressFunc
		tr     translator.Translator
	)
	if format.Flat() {
		tr = translator.NewText(client, systemPrompt, logger)
	} else {
		b := batch.New(client, systemPrompt,
			batch.WithSize(d.size),
			batch.WithDelimiter(d.delim),
			batch.WithLogger(logger),
		)
		tr = translator.NewRuns(format.Opener, b, format.Unit, logger)
		inner = Scale(structureStart, structureSpan, progress)
	}

	report, err = tr.Translate(ctx, in, out, inner)
	if err != nil {
		return "", err
	}

	progress(1, report.Summary(format.Completed))
	logger.Info("translation finished",
		zap.Int("paragraphs", report.Total),
		zap.Int("untranslated", len(report.Untranslated)),
	)
	return out, nil
}

func (d *Dispatcher) systemPrompt(kind prompt.Kind) string {
	switch kind {
	case prompt.KindDocx:
		return d.prompts.Docx
	case prompt.KindPptx:
		return d.prompts.Pptx
	default:
		return d.prompts.Text
	}
}

// Scale maps a translator's [0,1] progress onto [base, base+span].
func Scale(base, span float64, progress translator.ProgressFunc) translator.ProgressFunc {
	if progress == nil {
		return nil
	}
	return func(fraction float64, message string) {
		progress(base+span*fraction, message)
	}
}

func orNop(f translator.ProgressFunc) translator.ProgressFunc {
	if f == nil {
		return func(float64, string) {}
	}
	return f
}
