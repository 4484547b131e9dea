package translator

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/nerdneilsfield/go-doc-translator/internal/llm"
)

// Text translates flat text files (plain text, Markdown) with a single
// request. The answer is written verbatim.
type Text struct {
	client       llm.Client
	systemPrompt string
	logger       *zap.Logger
}

// NewText creates a flat text translator.
func NewText(client llm.Client, systemPrompt string, logger *zap.Logger) *Text {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Text{client: client, systemPrompt: systemPrompt, logger: logger}
}

// Translate implements Translator. Flat text has no intermediate progress.
func (t *Text) Translate(ctx context.Context, in, out string, _ ProgressFunc) (Report, error) {
	raw, err := os.ReadFile(in)
	if err != nil {
		return Report{}, fmt.Errorf("failed to read input: %w", err)
	}
	text, err := DecodeText(raw)
	if err != nil {
		return Report{}, err
	}

	t.logger.Debug("translating text document",
		zap.String("file", filepath.Base(in)),
		zap.Int("length", len(text)),
	)

	translated, err := t.client.Translate(ctx, t.systemPrompt, text)
	if err != nil {
		return Report{}, err
	}

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return Report{}, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(out, []byte(translated), 0o644); err != nil {
		return Report{}, fmt.Errorf("failed to write output: %w", err)
	}
	return Report{Total: 1}, nil
}

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// DecodeText returns raw as a string. UTF-8 is tried first, then UTF-16
// (byte order from the BOM, little endian without one). Blank input yields
// ErrEmptyDocument.
func DecodeText(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", ErrEmptyDocument
	}

	var text string
	switch {
	case bytes.HasPrefix(raw, bomUTF8), bytes.HasPrefix(raw, bomUTF16LE), bytes.HasPrefix(raw, bomUTF16BE):
		decoded, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), raw)
		if err != nil || !utf8.Valid(decoded) {
			return "", ErrUndecodable
		}
		text = string(decoded)
	case utf8.Valid(raw):
		text = string(raw)
	default:
		if len(raw)%2 != 0 {
			return "", ErrUndecodable
		}
		dec := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
		decoded, _, err := transform.Bytes(dec, raw)
		if err != nil {
			return "", ErrUndecodable
		}
		text = string(decoded)
	}

	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}
