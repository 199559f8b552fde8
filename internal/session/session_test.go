package session

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/survaize/survaize-client/internal/domain"
)

func TestNew(t *testing.T) {
	s := New(nil)

	_, err := uuid.Parse(s.ID())
	require.NoError(t, err)
	assert.NotEqual(t, s.ID(), New(nil).ID())

	snap := s.Snapshot()
	assert.Nil(t, snap.Document)
	assert.Zero(t, snap.Revision)
	assert.False(t, snap.Loading)
}

func TestSetDocument_BumpsRevision(t *testing.T) {
	s := New(nil)
	first := &domain.Questionnaire{Title: "First"}
	second := &domain.Questionnaire{Title: "First"}

	r1 := s.SetDocument(first)
	r2 := s.SetDocument(second)

	assert.Equal(t, uint64(1), r1)
	assert.Equal(t, uint64(2), r2, "equal content still counts as a new document")
	assert.Same(t, second, s.Document())
	assert.Equal(t, r2, s.Revision())
}

func TestLoadLifecycle(t *testing.T) {
	s := New(nil)

	s.BeginLoad()
	assert.True(t, s.Loading())

	s.SetProgress(42, "Extracting questions")
	snap := s.Snapshot()
	assert.True(t, snap.Loading)
	assert.Equal(t, 42.0, snap.Progress)
	assert.Equal(t, "Extracting questions", snap.Message)

	s.EndLoad()
	snap = s.Snapshot()
	assert.False(t, snap.Loading)
	assert.Zero(t, snap.Progress)
	assert.Empty(t, snap.Message)
}

func TestSubscribe(t *testing.T) {
	s := New(nil)

	var got []Snapshot
	unsubscribe := s.Subscribe(func(snap Snapshot) {
		got = append(got, snap)
		// listeners run outside the lock
		_ = s.Document()
	})

	s.BeginLoad()
	s.SetProgress(10, "a")
	s.SetDocument(&domain.Questionnaire{Title: "Survey"})
	unsubscribe()
	unsubscribe()
	s.EndLoad()

	require.Len(t, got, 3)
	assert.True(t, got[0].Loading)
	assert.Equal(t, 10.0, got[1].Progress)
	assert.Equal(t, "Survey", got[2].Document.Title)
	assert.Equal(t, uint64(1), got[2].Revision)
}

func TestConcurrentReaders(t *testing.T) {
	s := New(nil)
	s.BeginLoad()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = s.Snapshot()
			}
		}()
	}
	for p := 0; p <= 100; p += 10 {
		s.SetProgress(float64(p), "working")
	}
	wg.Wait()

	assert.Equal(t, 100.0, s.Snapshot().Progress)
}
