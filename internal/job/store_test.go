package job

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	j := New("report.docx")
	assert.NotEmpty(t, j.ID)
	assert.Equal(t, "report.docx", j.Filename)
	assert.Equal(t, StatusPending, j.Status)
	assert.Zero(t, j.Progress)
	assert.Empty(t, j.ResultPath)
	assert.False(t, j.HasResult())
	assert.Equal(t, j.CreatedAt, j.UpdatedAt)
	assert.NotEqual(t, j.ID, New("report.docx").ID)
}

func TestStoreCreateGetList(t *testing.T) {
	s := NewStore()
	a, b := New("a.txt"), New("b.txt")
	require.NoError(t, s.Create(a))
	require.NoError(t, s.Create(b))
	assert.ErrorIs(t, s.Create(a), ErrDuplicateJob)

	got, ok := s.Get(a.ID)
	require.True(t, ok)
	assert.Equal(t, a, got)

	_, ok = s.Get("missing")
	assert.False(t, ok)

	assert.ElementsMatch(t, []Job{a, b}, s.List())
}

func TestStoreLifecycle(t *testing.T) {
	j := New("sample.docx")

	s := NewStore()
	tick := j.CreatedAt
	s.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	require.NoError(t, s.Create(j))

	got, err := s.Update(j.ID, Changes{}.WithStatus(StatusProcessing).WithProgress(0.05).WithMessage("Analyzing DOCX structure"))
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, got.Status)
	assert.Equal(t, 0.05, got.Progress)
	assert.Equal(t, "Analyzing DOCX structure", got.Message)
	assert.True(t, got.UpdatedAt.After(j.UpdatedAt))
	firstUpdate := got.UpdatedAt

	got, err = s.Update(j.ID, Changes{}.WithProgress(0.5))
	require.NoError(t, err)
	assert.Equal(t, 0.5, got.Progress)
	assert.True(t, got.UpdatedAt.After(firstUpdate))

	got, err = s.Update(j.ID, Changes{}.WithProgress(0.2))
	require.NoError(t, err)
	assert.Equal(t, 0.5, got.Progress, "progress must not go backwards while processing")

	got, err = s.Update(j.ID, Changes{}.WithProgress(3))
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Progress)

	got, err = s.Update(j.ID, Changes{}.WithStatus(StatusCompleted).WithResultPath("/data/out.docx").WithMessage("DOCX translation completed"))
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.True(t, got.HasResult())
	assert.Equal(t, j.CreatedAt, got.CreatedAt)

	_, err = s.Update(j.ID, Changes{}.WithMessage("late"))
	assert.ErrorIs(t, err, ErrInvalidTransition)
	stored, _ := s.Get(j.ID)
	assert.Equal(t, "DOCX translation completed", stored.Message)
}

func TestStoreTransitions(t *testing.T) {
	tests := []struct {
		name    string
		path    []Status
		wantErr error
	}{
		{"pending to failed", []Status{StatusFailed}, nil},
		{"processing to failed", []Status{StatusProcessing, StatusFailed}, nil},
		{"pending to completed", []Status{StatusCompleted}, ErrInvalidTransition},
		{"back to pending", []Status{StatusProcessing, StatusPending}, ErrInvalidTransition},
		{"failed is terminal", []Status{StatusFailed, StatusProcessing}, ErrInvalidTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			j := New("x.txt")
			require.NoError(t, s.Create(j))

			var err error
			for _, status := range tt.path {
				c := Changes{}.WithStatus(status)
				if status == StatusCompleted {
					c = c.WithResultPath("/out")
				}
				if _, err = s.Update(j.ID, c); err != nil {
					break
				}
			}
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestStoreResultPathInvariant(t *testing.T) {
	s := NewStore()
	j := New("x.txt")
	require.NoError(t, s.Create(j))
	_, err := s.Update(j.ID, Changes{}.WithStatus(StatusProcessing))
	require.NoError(t, err)

	_, err = s.Update(j.ID, Changes{}.WithStatus(StatusCompleted))
	assert.ErrorIs(t, err, ErrResultPathInvariant)

	_, err = s.Update(j.ID, Changes{}.WithResultPath("/out"))
	assert.ErrorIs(t, err, ErrResultPathInvariant)

	got, _ := s.Get(j.ID)
	assert.Equal(t, StatusProcessing, got.Status)
	assert.Empty(t, got.ResultPath)
}

func TestStoreUpdateMissing(t *testing.T) {
	_, err := NewStore().Update("nope", Changes{}.WithProgress(0.1))
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestStoreConcurrentUpdates(t *testing.T) {
	s := NewStore()
	var ids []string
	for i := range 8 {
		j := New(fmt.Sprintf("doc-%d.txt", i))
		require.NoError(t, s.Create(j))
		_, err := s.Update(j.ID, Changes{}.WithStatus(StatusProcessing))
		require.NoError(t, err)
		ids = append(ids, j.ID)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for step := 1; step <= 100; step++ {
				_, _ = s.Update(id, Changes{}.WithProgress(float64(step)/100))
				_ = s.List()
			}
		}()
	}
	wg.Wait()

	for _, j := range s.List() {
		assert.Equal(t, 1.0, j.Progress)
	}
}

func TestStoreUpdatedAtNeverGoesBack(t *testing.T) {
	j := New("sample.txt")

	s := NewStore()
	s.now = func() time.Time { return j.CreatedAt.Add(-time.Hour) }
	require.NoError(t, s.Create(j))

	got, err := s.Update(j.ID, Changes{}.WithStatus(StatusProcessing))
	require.NoError(t, err)
	assert.Equal(t, j.UpdatedAt, got.UpdatedAt)
}
