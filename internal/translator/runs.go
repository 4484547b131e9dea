package translator

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-doc-translator/internal/batch"
	"github.com/nerdneilsfield/go-doc-translator/internal/document"
)

// Runs translates run-structured containers (DOCX, PPTX) paragraph by
// paragraph while keeping each run's formatting.
type Runs struct {
	opener  document.Opener
	batcher *batch.Batcher
	unit    string
	logger  *zap.Logger
}

// NewRuns creates a run-structured translator. unit names a paragraph in
// progress messages, e.g. "paragraph" or "slide text".
func NewRuns(opener document.Opener, batcher *batch.Batcher, unit string, logger *zap.Logger) *Runs {
	if logger == nil {
		logger = zap.NewNop()
	}
	if unit == "" {
		unit = "paragraph"
	}
	return &Runs{opener: opener, batcher: batcher, unit: unit, logger: logger}
}

// Translate implements Translator. Batches run one after another; the
// document is saved to out once every batch has been applied.
func (r *Runs) Translate(ctx context.Context, in, out string, progress ProgressFunc) (Report, error) {
	doc, err := r.opener.Open(in)
	if err != nil {
		return Report{}, err
	}

	var bundles []*batch.Bundle
	for p := range doc.Paragraphs() {
		if b, ok := batch.BuildBundle(p); ok {
			bundles = append(bundles, b)
		}
	}

	report := Report{Total: len(bundles)}
	logger := r.logger.With(zap.String("file", filepath.Base(in)))
	logger.Info("collected paragraphs",
		zap.Int("paragraphs", report.Total),
		zap.Int("batchSize", r.batcher.Size()),
	)

	if report.Total > 0 {
		processed := 0
		for chunk := range r.batcher.Batches(bundles) {
			results, err := r.batcher.Translate(ctx, chunk)
			if err != nil {
				return report, fmt.Errorf("batch starting at paragraph %d: %w", processed+1, err)
			}
			for i, b := range chunk {
				if !b.Apply(results[i]) {
					report.Untranslated = append(report.Untranslated, processed)
				}
				processed++
				progress.report(float64(processed)/float64(report.Total),
					fmt.Sprintf("Translated %s %d/%d", r.unit, processed, report.Total))
			}
		}
	}

	if err := doc.Save(out); err != nil {
		return report, fmt.Errorf("failed to save translated document: %w", err)
	}

	if len(report.Untranslated) > 0 {
		logger.Warn("some paragraphs were left untranslated",
			zap.Int("untranslated", len(report.Untranslated)),
			zap.Ints("indices", report.Untranslated),
		)
	}
	return report, nil
}
