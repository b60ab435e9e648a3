package workflow

import (
	"fmt"
	"time"

	"github.com/KaramelBytes/tabloom-cli/internal/estimator"
	"github.com/KaramelBytes/tabloom-cli/internal/metrics"
	"github.com/KaramelBytes/tabloom-cli/internal/prep"
	"github.com/KaramelBytes/tabloom-cli/internal/session"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TrainOptions selects the target and the model.
type TrainOptions struct {
	Target string           `json:"target"`
	Scale  bool             `json:"scale"`
	Task   estimator.Task   `json:"task"`
	Family estimator.Family `json:"model"`
}

// TrainResult is one fit-and-evaluate run. Classification runs fill Accuracy and
// Report; regression runs fill MSE and R2. Actual and Predicted are holdout values
// (class indices for classification).
type TrainResult struct {
	RunID     uuid.UUID       `json:"run_id"`
	Model     string          `json:"model"`
	Task      estimator.Task  `json:"task"`
	Target    string          `json:"target"`
	Features  []string        `json:"features"`
	Scaled    bool            `json:"scaled"`
	TrainRows int             `json:"train_rows"`
	TestRows  int             `json:"test_rows"`
	Accuracy  float64         `json:"accuracy"`
	Report    *metrics.Report `json:"report,omitempty"`
	MSE       float64         `json:"mse"`
	R2        float64         `json:"r2"`
	Actual    []float64       `json:"actual"`
	Predicted []float64       `json:"predicted"`
	Classes   []string        `json:"classes,omitempty"`
	Notes     []string        `json:"notes,omitempty"`
	Duration  time.Duration   `json:"duration_ns"`
}

// Params maps the configuration onto estimator parameters.
func (w *Workflow) Params() estimator.Params {
	return estimator.Params{
		Trees:     w.cfg.ForestTrees,
		MaxDepth:  w.cfg.ForestMaxDepth,
		MinSplit:  w.cfg.ForestMinSplit,
		Seed:      w.cfg.RandomSeed,
		LogisticC: w.cfg.LogisticC,
		SVMC:      w.cfg.SVMC,
		Epsilon:   w.cfg.SVREpsilon,
		MaxIter:   w.cfg.MaxIterations,
	}
}

// Train encodes, splits, optionally scales, fits the chosen model on the training rows
// and scores it on the holdout. After a successful run the label-encoded columns replace
// their text in the session dataset; scaling is never written back.
func (w *Workflow) Train(sess *session.Session, opt TrainOptions) (*TrainResult, error) {
	start := time.Now()
	ds, err := w.dataset(sess)
	if err != nil {
		return nil, err
	}
	if opt.Target == "" {
		return nil, ErrNoTarget
	}
	if !ds.HasColumn(opt.Target) {
		return nil, fmt.Errorf("target %w: %q", ErrUnknownColumn, opt.Target)
	}
	if opt.Task == "" {
		opt.Task = estimator.Classification
	}
	if opt.Family == "" {
		opt.Family = estimator.RandomForest
	}
	model, err := estimator.New(opt.Task, opt.Family, w.Params())
	if err != nil {
		return nil, err
	}

	design, err := prep.BuildDesign(ds, opt.Target, opt.Task == estimator.Classification)
	if err != nil {
		return nil, err
	}
	trainIdx, testIdx, err := prep.Split(len(design.Y), w.cfg.TestSize, w.cfg.RandomSeed)
	if err != nil {
		return nil, err
	}
	Xtr, ytr := design.Rows(trainIdx)
	Xte, yte := design.Rows(testIdx)
	if opt.Scale {
		var sc prep.StandardScaler
		if Xtr, err = sc.FitTransform(Xtr); err != nil {
			return nil, err
		}
		if Xte, err = sc.Transform(Xte); err != nil {
			return nil, err
		}
	}

	if err := model.Fit(Xtr, ytr); err != nil {
		return nil, fmt.Errorf("fit %s: %w", model.Name(), err)
	}
	pred, err := model.Predict(Xte)
	if err != nil {
		return nil, fmt.Errorf("predict %s: %w", model.Name(), err)
	}

	res := &TrainResult{
		RunID:     uuid.New(),
		Model:     model.Name(),
		Task:      opt.Task,
		Target:    opt.Target,
		Features:  design.Features,
		Scaled:    opt.Scale,
		TrainRows: len(trainIdx),
		TestRows:  len(testIdx),
		Actual:    yte,
		Predicted: pred,
		Classes:   design.Classes,
		Notes:     design.Notes,
	}
	if opt.Task == estimator.Classification {
		if res.Accuracy, err = metrics.Accuracy(yte, pred); err != nil {
			return nil, err
		}
		if res.Report, err = metrics.ClassificationReport(yte, pred, design.Classes); err != nil {
			return nil, err
		}
	} else {
		if res.MSE, err = metrics.MSE(yte, pred); err != nil {
			return nil, err
		}
		if res.R2, err = metrics.R2(yte, pred); err != nil {
			return nil, err
		}
		sess.SetPredictions(&session.Predictions{RunID: res.RunID, Model: res.Model, Actual: yte, Predicted: pred})
	}
	if err := design.WriteBack(ds, opt.Target); err != nil {
		return nil, err
	}
	res.Duration = time.Since(start)

	fields := []zap.Field{
		zap.String("session", sess.ID.String()),
		zap.String("run", res.RunID.String()),
		zap.String("model", res.Model),
		zap.String("target", opt.Target),
		zap.Int("train_rows", res.TrainRows),
		zap.Int("test_rows", res.TestRows),
		zap.Duration("took", res.Duration),
	}
	if opt.Task == estimator.Classification {
		fields = append(fields, zap.Float64("accuracy", res.Accuracy))
	} else {
		fields = append(fields, zap.Float64("mse", res.MSE), zap.Float64("r2", res.R2))
	}
	w.log.Info("training complete", fields...)
	return res, nil
}
