// Package workflow runs the dataset preparation and model training steps against a
// session's dataset.
package workflow

import (
	"errors"
	"fmt"

	"github.com/KaramelBytes/tabloom-cli/internal/config"
	"github.com/KaramelBytes/tabloom-cli/internal/dataset"
	"github.com/KaramelBytes/tabloom-cli/internal/prep"
	"github.com/KaramelBytes/tabloom-cli/internal/session"
	"go.uber.org/zap"
)

var (
	// ErrNoDataset means the session has nothing loaded; the step is skipped.
	ErrNoDataset = errors.New("no dataset loaded")
	// ErrNoTarget means training was requested without a target column.
	ErrNoTarget = errors.New("no target column selected")
	// ErrUnknownColumn is the dataset's unknown-column error.
	ErrUnknownColumn = dataset.ErrUnknownColumn
)

// Workflow carries the settings shared by every step.
type Workflow struct {
	cfg *config.Global
	log *zap.Logger
}

// New returns a workflow. A nil cfg means config.Default(); a nil log discards output.
func New(cfg *config.Global, log *zap.Logger) *Workflow {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Workflow{cfg: cfg, log: log}
}

// Config returns the settings in use.
func (w *Workflow) Config() *config.Global { return w.cfg }

func (w *Workflow) dataset(sess *session.Session) (*dataset.Dataset, error) {
	ds, ok := sess.Dataset()
	if !ok {
		return nil, ErrNoDataset
	}
	return ds, nil
}

// ColumnInfo names a column and its inferred kind.
type ColumnInfo struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// Preview is what the upload page shows.
type Preview struct {
	Source  string       `json:"source"`
	Rows    int          `json:"rows"`
	Columns []ColumnInfo `json:"columns"`
	Head    [][]string   `json:"head"`
}

// Preview returns the first rows and schema of the session dataset.
func (w *Workflow) Preview(sess *session.Session) (*Preview, error) {
	ds, err := w.dataset(sess)
	if err != nil {
		return nil, err
	}
	p := &Preview{Source: sess.Source(), Rows: ds.Nrow(), Head: ds.Head(w.cfg.HeadRows)}
	for _, name := range ds.Names() {
		kind := "categorical"
		if ds.IsNumeric(name) {
			kind = "numeric"
		}
		p.Columns = append(p.Columns, ColumnInfo{Name: name, Kind: kind})
	}
	return p, nil
}

// PrepOptions selects the cleaning applied to the session dataset.
type PrepOptions struct {
	Missing prep.Strategy `json:"missing"`
	Dedup   bool          `json:"dedup"`
}

// PrepResult reports what Prepare changed.
type PrepResult struct {
	MissingBefore []dataset.ColumnMissing `json:"missing_before"`
	Cleaning      prep.Summary            `json:"cleaning"`
	Duplicates    int                     `json:"duplicates_removed"`
	Rows          int                     `json:"rows"`
}

// Prepare applies missing-value handling and then optional deduplication, in place.
func (w *Workflow) Prepare(sess *session.Session, opt PrepOptions) (*PrepResult, error) {
	ds, err := w.dataset(sess)
	if err != nil {
		return nil, err
	}
	if opt.Missing == "" {
		opt.Missing = prep.StrategyNone
	}
	res := &PrepResult{}
	for _, m := range ds.MissingCounts() {
		if m.Count > 0 {
			res.MissingBefore = append(res.MissingBefore, m)
		}
	}
	if res.Cleaning, err = prep.HandleMissing(ds, opt.Missing); err != nil {
		return nil, fmt.Errorf("handle missing values: %w", err)
	}
	if opt.Dedup {
		if res.Duplicates, err = prep.Deduplicate(ds); err != nil {
			return nil, fmt.Errorf("deduplicate: %w", err)
		}
	}
	res.Rows = ds.Nrow()
	w.log.Debug("dataset prepared",
		zap.String("session", sess.ID.String()),
		zap.String("strategy", string(opt.Missing)),
		zap.Int("rows_dropped", res.Cleaning.RowsDropped),
		zap.Int("duplicates", res.Duplicates),
		zap.Int("rows", res.Rows))
	return res, nil
}
