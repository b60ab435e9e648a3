package workflow

import (
	"github.com/KaramelBytes/tabloom-cli/internal/analysis"
	"github.com/KaramelBytes/tabloom-cli/internal/prep"
	"github.com/KaramelBytes/tabloom-cli/internal/session"
	"go.uber.org/zap"
)

// EDAOptions drives one exploration pass.
type EDAOptions struct {
	Missing prep.Strategy `json:"missing"`
	Dedup   bool          `json:"dedup"`
	// Column selects the histogram column; empty means the first column.
	Column string `json:"column"`
	Bins   int    `json:"bins"`
}

// EDAResult is everything the EDA page shows.
type EDAResult struct {
	PrepResult
	Report    *analysis.Report     `json:"report"`
	Histogram *analysis.Histogram  `json:"histogram,omitempty"`
	Corr      *analysis.CorrMatrix `json:"corr,omitempty"`
}

// Explore cleans the session dataset as requested and summarizes the result.
func (w *Workflow) Explore(sess *session.Session, opt EDAOptions) (*EDAResult, error) {
	pr, err := w.Prepare(sess, PrepOptions{Missing: opt.Missing, Dedup: opt.Dedup})
	if err != nil {
		return nil, err
	}
	ds, _ := sess.Dataset()
	aopt := analysis.DefaultOptions()
	aopt.SampleRows = w.cfg.HeadRows
	rep, err := analysis.Analyze(ds, aopt)
	if err != nil {
		return nil, err
	}
	res := &EDAResult{PrepResult: *pr, Report: rep, Corr: rep.Corr}
	if opt.Column == "" && ds.Ncol() > 0 {
		opt.Column = ds.Names()[0]
	}
	if opt.Column != "" {
		bins := opt.Bins
		if bins <= 0 {
			bins = w.cfg.HistBins
		}
		if res.Histogram, err = analysis.NewHistogram(ds, opt.Column, bins); err != nil {
			return nil, err
		}
	}
	w.log.Info("eda complete",
		zap.String("session", sess.ID.String()),
		zap.Int("rows", ds.Nrow()),
		zap.Int("columns", ds.Ncol()),
		zap.Int("columns_with_missing", len(res.MissingBefore)))
	return res, nil
}
