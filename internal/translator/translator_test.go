package translator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-doc-translator/internal/batch"
	"github.com/nerdneilsfield/go-doc-translator/internal/document"
	"github.com/nerdneilsfield/go-doc-translator/internal/test"
)

type progressEvent struct {
	fraction float64
	message  string
}

func recordProgress(events *[]progressEvent) ProgressFunc {
	return func(fraction float64, message string) {
		*events = append(*events, progressEvent{fraction, message})
	}
}

func TestTextTranslate(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "note.txt")
	out := filepath.Join(dir, "out", "note_translated.txt")
	require.NoError(t, os.WriteFile(in, []byte("Simple text"), 0o644))

	client := test.NewFrenchClient()
	report, err := NewText(client, "system", zap.NewNop()).Translate(context.Background(), in, out, nil)
	require.NoError(t, err)
	assert.Equal(t, Report{Total: 1}, report)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "Texte simple", string(data))
	assert.Equal(t, []string{"Simple text"}, client.Prompts())
}

func TestTextTranslateErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("empty file", func(t *testing.T) {
		in := filepath.Join(dir, "empty.md")
		require.NoError(t, os.WriteFile(in, []byte("  \n"), 0o644))

		client := &test.MockLLMClient{}
		_, err := NewText(client, "system", nil).Translate(context.Background(), in, filepath.Join(dir, "o.md"), nil)
		assert.ErrorIs(t, err, ErrEmptyDocument)
		client.AssertNotCalled(t, "Translate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("provider failure", func(t *testing.T) {
		in := filepath.Join(dir, "in.txt")
		out := filepath.Join(dir, "failed.txt")
		require.NoError(t, os.WriteFile(in, []byte("text"), 0o644))

		boom := errors.New("boom")
		client := &test.MockLLMClient{}
		client.On("Translate", mock.Anything, "system", "text").Return("", boom)

		_, err := NewText(client, "system", nil).Translate(context.Background(), in, out, nil)
		assert.ErrorIs(t, err, boom)
		assert.NoFileExists(t, out)
	})
}

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name    string
		raw     []byte
		want    string
		wantErr error
	}{
		{"utf8", []byte("héllo"), "héllo", nil},
		{"utf8 bom", []byte("\xEF\xBB\xBFhi"), "hi", nil},
		{"utf16 le bom", []byte{0xFF, 0xFE, 'h', 0, 'i', 0}, "hi", nil},
		{"utf16 be bom", []byte{0xFE, 0xFF, 0, 'h', 0, 'i'}, "hi", nil},
		{"utf16 le without bom", []byte{'h', 0, 0xE9, 0}, "hé", nil},
		{"odd invalid bytes", []byte{0xFF, 0xC3, 0x28}, "", ErrUndecodable},
		{"empty", nil, "", ErrEmptyDocument},
		{"blank", []byte(" \t\n"), "", ErrEmptyDocument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeText(tt.raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRunsTranslateDocx(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "sample.docx")
	out := filepath.Join(dir, "sample_translated.docx")
	test.WriteDocx(t, in, test.HelloWorldBody)

	var events []progressEvent
	client := test.NewFrenchClient()
	runs := NewRuns(document.OpenerFunc(document.OpenFile), batch.New(client, "system"), "paragraph", zap.NewNop())

	report, err := runs.Translate(context.Background(), in, out, recordProgress(&events))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Total)
	assert.Empty(t, report.Untranslated)
	assert.Equal(t, []string{"<s1>Hello </s1><s2>world</s2><s1>!</s1>"}, client.Prompts())
	assert.Equal(t, []progressEvent{{1, "Translated paragraph 1/1"}}, events)

	doc, err := document.OpenFile(out)
	require.NoError(t, err)
	var paras []document.Paragraph
	for p := range doc.Paragraphs() {
		paras = append(paras, p)
	}
	require.Len(t, paras, 1)

	got := paras[0].Runs()
	require.Len(t, got, 3)
	assert.Equal(t, "Bonjour ", got[0].Text)
	assert.Nil(t, got[0].Format.Bold)
	assert.Equal(t, "monde", got[1].Text)
	require.NotNil(t, got[1].Format.Bold)
	assert.True(t, *got[1].Format.Bold)
	assert.Equal(t, "!", got[2].Text)
}

func TestRunsTranslateFake(t *testing.T) {
	bold := document.Formatting{Bold: document.Ptr(true)}

	t.Run("batches and progress", func(t *testing.T) {
		doc := &test.FakeDocument{Paras: []*test.FakeParagraph{
			test.PlainParagraph("one"),
			test.PlainParagraph(""),
			test.NewFakeParagraph(document.Run{Text: "two", Format: bold}),
			test.PlainParagraph("three"),
		}}
		client := test.NewReplacerClient("one", "un", "two", "deux", "three", "trois")
		runs := NewRuns(doc.Opener(), batch.New(client, "system", batch.WithSize(2)), "slide text", nil)

		var events []progressEvent
		report, err := runs.Translate(context.Background(), "in.pptx", "out.pptx", recordProgress(&events))
		require.NoError(t, err)
		assert.Equal(t, Report{Total: 3}, report)
		assert.Len(t, client.Prompts(), 2)
		assert.Equal(t, []string{"out.pptx"}, doc.SavedTo)

		assert.Equal(t, []progressEvent{
			{1.0 / 3, "Translated slide text 1/3"},
			{2.0 / 3, "Translated slide text 2/3"},
			{1, "Translated slide text 3/3"},
		}, events)

		assert.Equal(t, "un", document.Text(doc.Paras[0]))
		assert.Equal(t, 0, doc.Paras[1].Replaced)
		assert.Equal(t, []document.Run{{Text: "deux", Format: bold}}, doc.Paras[2].Runs())
		assert.Equal(t, "trois", document.Text(doc.Paras[3]))
	})

	t.Run("no text saves unchanged", func(t *testing.T) {
		doc := &test.FakeDocument{Paras: []*test.FakeParagraph{test.PlainParagraph("")}}
		client := &test.MockLLMClient{}
		runs := NewRuns(doc.Opener(), batch.New(client, "system"), "paragraph", nil)

		report, err := runs.Translate(context.Background(), "in.docx", "out.docx", nil)
		require.NoError(t, err)
		assert.Equal(t, 0, report.Total)
		assert.Equal(t, []string{"out.docx"}, doc.SavedTo)
		client.AssertNotCalled(t, "Translate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unparsable answer is reported", func(t *testing.T) {
		doc := &test.FakeDocument{Paras: []*test.FakeParagraph{
			test.PlainParagraph("a"),
			test.PlainParagraph("b"),
		}}
		client := &test.MockLLMClient{}
		client.On("Translate", mock.Anything, mock.Anything, mock.Anything).
			Return("<s1>A</s1>"+batch.DefaultDelimiter+"no tags here", nil)
		runs := NewRuns(doc.Opener(), batch.New(client, "system"), "paragraph", nil)

		report, err := runs.Translate(context.Background(), "in.docx", "out.docx", nil)
		require.NoError(t, err)
		assert.Equal(t, []int{1}, report.Untranslated)
		assert.Equal(t, 1, report.Translated())
		assert.Equal(t, "A", document.Text(doc.Paras[0]))
		assert.Equal(t, "b", document.Text(doc.Paras[1]))
		assert.Equal(t, 0, doc.Paras[1].Replaced)
	})

	t.Run("provider error stops before saving", func(t *testing.T) {
		doc := &test.FakeDocument{Paras: []*test.FakeParagraph{test.PlainParagraph("a")}}
		boom := errors.New("boom")
		client := &test.MockLLMClient{}
		client.On("Translate", mock.Anything, mock.Anything, mock.Anything).Return("", boom)
		runs := NewRuns(doc.Opener(), batch.New(client, "system"), "paragraph", nil)

		_, err := runs.Translate(context.Background(), "in.docx", "out.docx", nil)
		assert.ErrorIs(t, err, boom)
		assert.Empty(t, doc.SavedTo)
	})

	t.Run("save error", func(t *testing.T) {
		doc := &test.FakeDocument{SaveErr: errors.New("disk full")}
		runs := NewRuns(doc.Opener(), batch.New(&test.MockLLMClient{}, "system"), "paragraph", nil)

		_, err := runs.Translate(context.Background(), "in.docx", "out.docx", nil)
		assert.ErrorContains(t, err, "disk full")
	})
}

func TestReportSummary(t *testing.T) {
	assert.Equal(t, "done", Report{Total: 2}.Summary("done"))
	assert.Equal(t, "done (1 paragraph left untranslated)", Report{Total: 2, Untranslated: []int{0}}.Summary("done"))
	assert.Equal(t, "done (2 paragraphs left untranslated)", Report{Total: 2, Untranslated: []int{0, 1}}.Summary("done"))
}

func TestUploadTranslate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		client := &test.MockLLMClient{}
		client.On("Translate", mock.Anything, uploadSystemPrompt, mock.MatchedBy(func(msg string) bool {
			return assert.Contains(t, msg, "Translate the document into French.") &&
				assert.Contains(t, msg, "The document format is Markdown.") &&
				assert.Contains(t, msg, "---DOCUMENT START---\nhello world\n---DOCUMENT END---")
		})).Return("bonjour le monde", nil)

		res, err := NewUpload(client, nil).Translate(context.Background(), []byte("hello world"), "example.md", "French")
		require.NoError(t, err)
		assert.Equal(t, UploadResult{Filename: "example.french.md", TranslatedText: "bonjour le monde"}, res)
		client.AssertExpectations(t)
	})

	t.Run("empty upload", func(t *testing.T) {
		_, err := NewUpload(&test.MockLLMClient{}, nil).Translate(context.Background(), nil, "example.md", "French")
		assert.ErrorIs(t, err, ErrEmptyDocument)
	})
}

func TestUploadFilename(t *testing.T) {
	assert.Equal(t, "report.brazilian-portuguese.txt", UploadFilename("report.txt", "Brazilian Portuguese"))
	assert.Equal(t, "notes.german.txt", UploadFilename("notes", "German"))
	assert.Equal(t, "document.french.txt", UploadFilename("", "French"))
}
