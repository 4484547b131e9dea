// Package batch multiplexes several tagged paragraphs through one LLM request
// and splits the answer back into per-paragraph segments.
package batch

import (
	"context"
	"iter"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-doc-translator/internal/document"
	"github.com/nerdneilsfield/go-doc-translator/internal/llm"
	"github.com/nerdneilsfield/go-doc-translator/internal/segment"
	"github.com/nerdneilsfield/go-doc-translator/internal/style"
)

const (
	// DefaultSize is the number of paragraphs sent per request.
	DefaultSize = 8
	// DefaultDelimiter separates paragraphs inside one request and its answer.
	DefaultDelimiter = "[--translate-doc-paragraph-break--]"
)

// Bundle is a paragraph ready for translation: its palette and tagged prompt.
type Bundle struct {
	Paragraph document.Paragraph
	Palette   *style.Palette
	Prompt    string
}

// BuildBundle registers every non-empty run of p in a fresh palette and tags
// its text. It returns false when p has no text to translate.
func BuildBundle(p document.Paragraph) (*Bundle, bool) {
	palette := style.NewPalette()
	var sb strings.Builder
	for _, run := range p.Runs() {
		if run.Text == "" {
			continue
		}
		key := palette.Register(run.Format)
		sb.WriteString(segment.Encode(key, run.Text))
	}
	if sb.Len() == 0 {
		return nil, false
	}
	return &Bundle{Paragraph: p, Palette: palette, Prompt: sb.String()}, true
}

// Apply replaces the paragraph's runs with segs, restoring formatting through
// the palette. Segments with a key the palette does not know become plain runs.
// An empty segs leaves the paragraph untouched and returns false.
func (b *Bundle) Apply(segs []segment.Segment) bool {
	if len(segs) == 0 {
		return false
	}
	runs := make([]document.Run, 0, len(segs))
	for _, s := range segs {
		run := document.Run{Text: segment.Unescape(s.Text)}
		b.Palette.Apply(s.Key, &run)
		runs = append(runs, run)
	}
	b.Paragraph.ReplaceRuns(runs)
	return true
}

// Batcher sends bundles to an LLM client.
type Batcher struct {
	client       llm.Client
	systemPrompt string
	size         int
	delimiter    string
	logger       *zap.Logger
}

// Option configures a Batcher.
type Option func(*Batcher)

// WithSize sets the batch size. Values below one are ignored.
func WithSize(n int) Option {
	return func(b *Batcher) {
		if n > 0 {
			b.size = n
		}
	}
}

// WithDelimiter sets the paragraph delimiter. An empty value is ignored.
func WithDelimiter(d string) Option {
	return func(b *Batcher) {
		if d != "" {
			b.delimiter = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Batcher) {
		if l != nil {
			b.logger = l
		}
	}
}

// New returns a Batcher using systemPrompt for every request.
func New(client llm.Client, systemPrompt string, opts ...Option) *Batcher {
	b := &Batcher{
		client:       client,
		systemPrompt: systemPrompt,
		size:         DefaultSize,
		delimiter:    DefaultDelimiter,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Size is the configured batch size.
func (b *Batcher) Size() int {
	return b.size
}

// Batches splits bundles into consecutive batches of at most Size bundles.
func (b *Batcher) Batches(bundles []*Bundle) iter.Seq[[]*Bundle] {
	return slices.Chunk(bundles, b.size)
}

// Translate sends one request for the whole batch and returns the parsed
// segments of every bundle, in order. A nil entry means the model's answer
// for that paragraph held no usable segment. An error is returned only when
// the request itself fails.
func (b *Batcher) Translate(ctx context.Context, bundles []*Bundle) ([][]segment.Segment, error) {
	if len(bundles) == 0 {
		return nil, nil
	}

	prompts := make([]string, len(bundles))
	for i, bundle := range bundles {
		prompts[i] = bundle.Prompt
	}

	b.logger.Debug("sending batch translation request",
		zap.Int("paragraphs", len(bundles)),
		zap.Int("promptLength", len(strings.Join(prompts, b.delimiter))),
	)

	response, err := b.client.Translate(ctx, b.systemPrompt, strings.Join(prompts, b.delimiter))
	if err != nil {
		return nil, err
	}

	pieces := strings.Split(response, b.delimiter)
	if len(pieces) != len(bundles) {
		b.logger.Warn("paragraph count mismatch in batch response",
			zap.Int("expected", len(bundles)),
			zap.Int("received", len(pieces)),
		)
	}
	pieces = Align(pieces, response, len(bundles))

	out := make([][]segment.Segment, len(bundles))
	for i, piece := range pieces {
		out[i] = segment.Parse(piece)
		if out[i] == nil {
			b.logger.Warn("no tagged segments in paragraph response", zap.Int("index", i))
		}
	}
	return out, nil
}

// Align repairs a split response so that it has exactly n pieces. Extra pieces
// are dropped, missing ones repeat the last piece, and when there are no
// pieces at all every paragraph gets the full response.
func Align(pieces []string, full string, n int) []string {
	switch {
	case len(pieces) == n:
		return pieces
	case len(pieces) == 0:
		out := make([]string, n)
		for i := range out {
			out[i] = full
		}
		return out
	case len(pieces) > n:
		return pieces[:n]
	default:
		out := make([]string, n)
		copy(out, pieces)
		last := pieces[len(pieces)-1]
		for i := len(pieces); i < n; i++ {
			out[i] = last
		}
		return out
	}
}
