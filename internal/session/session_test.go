package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/KaramelBytes/tabloom-cli/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReplacesDataset(t *testing.T) {
	s := New()
	_, ok := s.Dataset()
	assert.False(t, ok)

	ds, err := s.Load("a.csv", []byte("x,y\n1,2\n3,4\n"), parser.Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Nrow())
	assert.Equal(t, "a.csv", s.Source())
	s.SetPredictions(&Predictions{Actual: []float64{1}, Predicted: []float64{1}})

	_, err = s.Load("b.csv", []byte("z\n1\n2\n3\n"), parser.Options{})
	require.NoError(t, err)
	got, ok := s.Dataset()
	require.True(t, ok)
	assert.Equal(t, []string{"z"}, got.Names())
	_, ok = s.Predictions()
	assert.False(t, ok, "a new upload drops results of the old dataset")
}

func TestLoadErrorKeepsPreviousDataset(t *testing.T) {
	s := New()
	_, err := s.Load("a.csv", []byte("x\n1\n"), parser.Options{})
	require.NoError(t, err)
	_, err = s.Load("notes.pdf", []byte("%PDF"), parser.Options{})
	assert.True(t, errors.Is(err, parser.ErrUnsupported))
	ds, ok := s.Dataset()
	require.True(t, ok)
	assert.Equal(t, []string{"x"}, ds.Names())
}

func TestStoreLifecycleAndSweep(t *testing.T) {
	st := NewStore(time.Minute)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return now }

	a := st.Create()
	b := st.Create()
	assert.Equal(t, 2, st.Len())

	now = now.Add(45 * time.Second)
	_, ok := st.Get(b.ID)
	require.True(t, ok)

	now = now.Add(30 * time.Second)
	assert.Equal(t, 1, st.Sweep())
	_, ok = st.Get(a.ID)
	assert.False(t, ok)
	_, ok = st.Get(b.ID)
	assert.True(t, ok)

	assert.True(t, st.Delete(b.ID))
	assert.False(t, st.Delete(b.ID))
	assert.Zero(t, st.Len())
	assert.Zero(t, NewStore(0).Sweep())
}

func TestParsePage(t *testing.T) {
	for in, want := range map[string]Page{"Upload Data": PageUpload, "eda": PageEDA, "ML Training": PageTraining} {
		got, err := ParsePage(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParsePage("settings")
	assert.Error(t, err)
	assert.Equal(t, "ML Training", PageTraining.String())
}

func TestDispatcherRoutesEachPageOnce(t *testing.T) {
	var hits []Page
	d := NewDispatcher()
	for _, p := range []Page{PageUpload, PageEDA} {
		p := p
		d.Handle(p, func(context.Context, *Session) error { hits = append(hits, p); return nil })
	}
	s := New()
	require.NoError(t, d.Dispatch(context.Background(), PageEDA, s))
	require.NoError(t, d.Dispatch(context.Background(), PageUpload, s))
	assert.Equal(t, []Page{PageEDA, PageUpload}, hits)

	err := d.Dispatch(context.Background(), PageTraining, s)
	assert.True(t, errors.Is(err, ErrNoHandler))
}
