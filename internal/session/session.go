// Package session holds the per-user state of an interactive session: the current
// dataset and the last run's predictions.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/KaramelBytes/tabloom-cli/internal/dataset"
	"github.com/KaramelBytes/tabloom-cli/internal/parser"
	"github.com/google/uuid"
)

// Predictions is the actual-vs-predicted series of the last regression run.
type Predictions struct {
	RunID     uuid.UUID
	Model     string
	Actual    []float64
	Predicted []float64
}

// Session owns one dataset. It is not safe for concurrent use by itself; the HTTP
// surface serializes interactions with Lock/Unlock.
type Session struct {
	sync.Mutex

	ID       uuid.UUID
	ds       *dataset.Dataset
	source   string
	loadedAt time.Time
	lastSeen time.Time
	preds    *Predictions
}

// New returns an empty session with a fresh id.
func New() *Session {
	now := time.Now()
	return &Session{ID: uuid.New(), lastSeen: now}
}

// Load parses an uploaded file and makes it the session dataset, replacing any prior one.
func (s *Session) Load(name string, content []byte, opt parser.Options) (*dataset.Dataset, error) {
	tbl, err := parser.ParseBytes(name, content, opt)
	if err != nil {
		return nil, err
	}
	ds, err := dataset.FromTable(tbl)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	s.Replace(ds)
	s.source = name
	return ds, nil
}

// LoadFile is Load for a path on disk.
func (s *Session) LoadFile(path string, opt parser.Options) (*dataset.Dataset, error) {
	tbl, err := parser.ParseFile(path, opt)
	if err != nil {
		return nil, err
	}
	ds, err := dataset.FromTable(tbl)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	s.Replace(ds)
	s.source = tbl.Name
	return ds, nil
}

// Replace swaps in a new dataset and forgets results derived from the old one.
func (s *Session) Replace(ds *dataset.Dataset) {
	s.ds = ds
	s.source = ds.Name()
	s.loadedAt = time.Now()
	s.preds = nil
}

// Dataset returns the current dataset, if any.
func (s *Session) Dataset() (*dataset.Dataset, bool) {
	return s.ds, s.ds != nil
}

// Source is the name of the loaded file.
func (s *Session) Source() string { return s.source }

// LoadedAt is when the current dataset was loaded.
func (s *Session) LoadedAt() time.Time { return s.loadedAt }

// SetPredictions records the last regression run.
func (s *Session) SetPredictions(p *Predictions) { s.preds = p }

// Predictions returns the last regression run, if any.
func (s *Session) Predictions() (*Predictions, bool) { return s.preds, s.preds != nil }
