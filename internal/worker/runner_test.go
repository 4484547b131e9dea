package worker

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-doc-translator/internal/job"
	"github.com/nerdneilsfield/go-doc-translator/internal/llm"
	"github.com/nerdneilsfield/go-doc-translator/internal/pipeline"
	"github.com/nerdneilsfield/go-doc-translator/internal/prompt"
	"github.com/nerdneilsfield/go-doc-translator/internal/storage"
	"github.com/nerdneilsfield/go-doc-translator/internal/test"
	"github.com/nerdneilsfield/go-doc-translator/internal/translator"
)

type dispatchFunc func(ctx context.Context, jobID, filename string, client llm.Client, progress translator.ProgressFunc) (string, error)

func (f dispatchFunc) Dispatch(ctx context.Context, jobID, filename string, client llm.Client, progress translator.ProgressFunc) (string, error) {
	return f(ctx, jobID, filename, client, progress)
}

func newJob(t *testing.T, store *job.Store, filename string) job.Job {
	t.Helper()
	j := job.New(filename)
	require.NoError(t, store.Create(j))
	return j
}

func TestRunCompletes(t *testing.T) {
	store := job.NewStore()
	j := newJob(t, store, "sample.docx")

	var seen []job.Job
	d := dispatchFunc(func(_ context.Context, jobID, filename string, _ llm.Client, progress translator.ProgressFunc) (string, error) {
		assert.Equal(t, j.ID, jobID)
		assert.Equal(t, "sample.docx", filename)
		progress(0.05, "Analyzing DOCX structure")
		progress(0.5, "Translated paragraph 1/2")
		progress(1, "DOCX translation completed")
		return "/data/out.docx", nil
	})
	r := New(store, d, llm.EchoClient{}, WithLogger(zap.NewNop()), WithObserver(func(j job.Job) { seen = append(seen, j) }))

	final, err := r.Run(context.Background(), j.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusCompleted, final.Status)
	assert.Equal(t, 1.0, final.Progress)
	assert.Equal(t, "DOCX translation completed", final.Message)
	assert.Equal(t, "/data/out.docx", final.ResultPath)

	require.Len(t, seen, 5)
	assert.Equal(t, job.StatusProcessing, seen[0].Status)
	assert.Equal(t, 0.05, seen[0].Progress)
	assert.Equal(t, "Translated paragraph 1/2", seen[2].Message)
	assert.Equal(t, job.StatusCompleted, seen[4].Status)

	stored, ok := store.Get(j.ID)
	require.True(t, ok)
	assert.Equal(t, final, stored)
}

func TestRunFails(t *testing.T) {
	t.Run("dispatch error", func(t *testing.T) {
		store := job.NewStore()
		j := newJob(t, store, "scan.pdf")
		d := dispatchFunc(func(context.Context, string, string, llm.Client, translator.ProgressFunc) (string, error) {
			return "", &pipeline.UnsupportedFileTypeError{Ext: ".pdf"}
		})

		final, err := New(store, d, llm.EchoClient{}).Run(context.Background(), j.ID)
		assert.ErrorIs(t, err, pipeline.ErrUnsupportedFileType)
		assert.Equal(t, job.StatusFailed, final.Status)
		assert.Equal(t, 1.0, final.Progress)
		assert.Equal(t, "unsupported file type: .pdf", final.Message)
		assert.Empty(t, final.ResultPath)
	})

	t.Run("error after partial progress", func(t *testing.T) {
		store := job.NewStore()
		j := newJob(t, store, "slides.pptx")
		d := dispatchFunc(func(_ context.Context, _, _ string, _ llm.Client, progress translator.ProgressFunc) (string, error) {
			progress(0.3, "Translated slide text 1/3")
			return "", errors.New("provider down")
		})

		final, err := New(store, d, llm.EchoClient{}).Run(context.Background(), j.ID)
		assert.EqualError(t, err, "provider down")
		assert.Equal(t, job.StatusFailed, final.Status)
		assert.Equal(t, 1.0, final.Progress)
		assert.Equal(t, "provider down", final.Message)

		stored, ok := store.Get(j.ID)
		require.True(t, ok)
		assert.Equal(t, final, stored)
	})

	t.Run("panic is recovered", func(t *testing.T) {
		store := job.NewStore()
		j := newJob(t, store, "a.txt")
		d := dispatchFunc(func(context.Context, string, string, llm.Client, translator.ProgressFunc) (string, error) {
			panic("nil map")
		})

		final, err := New(store, d, llm.EchoClient{}).Run(context.Background(), j.ID)
		assert.EqualError(t, err, "internal error: nil map")
		assert.Equal(t, job.StatusFailed, final.Status)
		assert.Equal(t, 1.0, final.Progress)
	})

	t.Run("unknown job", func(t *testing.T) {
		_, err := New(job.NewStore(), nil, nil).Run(context.Background(), "missing")
		assert.ErrorIs(t, err, job.ErrJobNotFound)
	})

	t.Run("terminal job is not rerun", func(t *testing.T) {
		store := job.NewStore()
		j := newJob(t, store, "a.txt")
		_, err := store.Update(j.ID, job.Changes{}.WithStatus(job.StatusFailed))
		require.NoError(t, err)

		called := false
		d := dispatchFunc(func(context.Context, string, string, llm.Client, translator.ProgressFunc) (string, error) {
			called = true
			return "", nil
		})
		_, err = New(store, d, nil).Run(context.Background(), j.ID)
		assert.ErrorIs(t, err, job.ErrInvalidTransition)
		assert.False(t, called)
	})
}

func TestFailureMessage(t *testing.T) {
	retryable := &llm.ProviderError{Provider: "mistral", StatusCode: http.StatusServiceUnavailable, Message: "overloaded"}
	assert.Equal(t, "mistral API error 503: overloaded (temporary provider failure, try again later)", FailureMessage(retryable))

	permanent := &llm.ProviderError{Provider: "mistral", StatusCode: http.StatusUnauthorized, Message: "bad key"}
	assert.Equal(t, "mistral API error 401: bad key", FailureMessage(permanent))

	assert.Equal(t, "plain", FailureMessage(errors.New("plain")))
}

func TestSubmitRunsConcurrently(t *testing.T) {
	store := job.NewStore()
	m, err := storage.New(t.TempDir())
	require.NoError(t, err)
	prompts, err := prompt.Default().RenderAll(prompt.Vars{TargetLanguage: "French", Delimiter: "|"})
	require.NoError(t, err)
	d := pipeline.NewDispatcher(m, pipeline.Options{Prompts: prompts})

	var ids []string
	for _, name := range []string{"note.txt", "other.md"} {
		j := newJob(t, store, name)
		_, err := m.SaveInput(j.ID, name, strings.NewReader("Simple text"))
		require.NoError(t, err)
		ids = append(ids, j.ID)
	}
	docJob := newJob(t, store, "sample.docx")
	in, err := m.InputPath(docJob.ID, "sample.docx")
	require.NoError(t, err)
	test.WriteDocx(t, in, test.HelloWorldBody)
	ids = append(ids, docJob.ID)

	var mu sync.Mutex
	updates := map[string]int{}
	r := New(store, d, test.NewFrenchClient(), WithObserver(func(j job.Job) {
		mu.Lock()
		updates[j.ID]++
		mu.Unlock()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	for _, id := range ids {
		r.Submit(ctx, id)
	}
	// Jobs must survive the submitting request going away.
	cancel()
	r.Wait()

	for _, id := range ids {
		j, ok := store.Get(id)
		require.True(t, ok)
		assert.Equal(t, job.StatusCompleted, j.Status, j.Message)
		assert.Equal(t, 1.0, j.Progress)
		assert.Equal(t, filepath.Join(m.Base(), id), filepath.Dir(j.ResultPath))
		assert.Greater(t, updates[id], 2)
	}
	assert.Equal(t, "DOCX translation completed", mustGet(t, store, docJob.ID).Message)
}

func mustGet(t *testing.T, store *job.Store, id string) job.Job {
	t.Helper()
	j, ok := store.Get(id)
	require.True(t, ok)
	return j
}
