package translator

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-doc-translator/internal/llm"
)

const uploadSystemPrompt = "You are a professional translator. Translate the content you receive while " +
	"preserving its original formatting, layout, markup, metadata and code snippets."

// formatHints names the text formats the model is told about.
var formatHints = map[string]string{
	".txt":      "plain text",
	".md":       "Markdown",
	".markdown": "Markdown",
	".rst":      "reStructuredText",
	".html":     "HTML",
	".htm":      "HTML",
	".json":     "JSON",
	".yml":      "YAML",
	".yaml":     "YAML",
}

// UploadResult is the answer to a synchronous translation.
type UploadResult struct {
	Filename       string `json:"filename"`
	TranslatedText string `json:"translated_text"`
}

// Upload translates an uploaded text document in memory, without a job.
type Upload struct {
	client llm.Client
	logger *zap.Logger
}

// NewUpload creates an in-memory translator.
func NewUpload(client llm.Client, logger *zap.Logger) *Upload {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Upload{client: client, logger: logger}
}

// Translate decodes data and translates it into targetLanguage. Decoding
// failures return ErrEmptyDocument or ErrUndecodable; provider failures are
// returned as they are.
func (u *Upload) Translate(ctx context.Context, data []byte, filename, targetLanguage string) (UploadResult, error) {
	text, err := DecodeText(data)
	if err != nil {
		return UploadResult{}, err
	}

	hint := formatHints[strings.ToLower(filepath.Ext(filename))]
	u.logger.Debug("translating upload",
		zap.String("filename", filename),
		zap.String("targetLanguage", targetLanguage),
		zap.String("format", hint),
	)

	translated, err := u.client.Translate(ctx, uploadSystemPrompt, uploadUserMessage(text, targetLanguage, hint))
	if err != nil {
		return UploadResult{}, err
	}
	return UploadResult{
		Filename:       UploadFilename(filename, targetLanguage),
		TranslatedText: translated,
	}, nil
}

func uploadUserMessage(text, targetLanguage, hint string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Translate the document into %s.\n", targetLanguage)
	sb.WriteString("Keep the structure identical: preserve headings, tables, bullet lists, emphasis, HTML tags and code blocks.\n")
	sb.WriteString("Do not translate code identifiers or file paths. Maintain placeholders such as {{variable}} or <tag> as-is.")
	if hint != "" {
		fmt.Fprintf(&sb, "\nThe document format is %s.", hint)
	}
	sb.WriteString("\n\n---DOCUMENT START---\n")
	sb.WriteString(text)
	sb.WriteString("\n---DOCUMENT END---")
	return sb.String()
}

// UploadFilename names the translated upload "<stem>.<language><ext>", with
// the language lowercased and spaces turned into dashes.
func UploadFilename(filename, targetLanguage string) string {
	base := filepath.Base(filename)
	if filename == "" || base == "." || base == string(filepath.Separator) {
		base = "document.txt"
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if ext == "" {
		ext = ".txt"
	}
	if stem == "" {
		stem = "document"
	}
	lang := strings.ReplaceAll(strings.ToLower(targetLanguage), " ", "-")
	return stem + "." + lang + ext
}
