package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/KaramelBytes/tabloom-cli/internal/chart"
	"github.com/KaramelBytes/tabloom-cli/internal/estimator"
	"github.com/KaramelBytes/tabloom-cli/internal/prep"
	"github.com/KaramelBytes/tabloom-cli/internal/session"
	"github.com/KaramelBytes/tabloom-cli/internal/utils"
	"github.com/KaramelBytes/tabloom-cli/internal/workflow"
)

// pageFlags holds every option a page handler reads. Each command binds its own copy.
type pageFlags struct {
	missing string
	dedup   bool

	column  string
	bins    int
	hist    string
	heatmap string
	report  string

	target  string
	task    string
	model   string
	scale   bool
	scatter string

	jsonOut bool

	// prepared is set once the EDA page has cleaned the session dataset
	prepared bool
}

func (f *pageFlags) prepOptions() (workflow.PrepOptions, error) {
	strategy, err := prep.ParseStrategy(f.missing)
	if err != nil {
		return workflow.PrepOptions{}, err
	}
	return workflow.PrepOptions{Missing: strategy, Dedup: f.dedup}, nil
}

func (f *pageFlags) trainOptions() (workflow.TrainOptions, error) {
	opt := workflow.TrainOptions{Target: f.target, Scale: f.scale}
	var err error
	if f.task != "" {
		if opt.Task, err = estimator.ParseTask(f.task); err != nil {
			return opt, err
		}
	}
	if f.model != "" {
		if opt.Family, err = estimator.ParseFamily(f.model); err != nil {
			return opt, err
		}
	}
	return opt, nil
}

// pages wires one handler per page, all printing to out.
func pages(out io.Writer, wf *workflow.Workflow, f *pageFlags) *session.Dispatcher {
	charts := chart.New(wf.Config().ChartWidth, wf.Config().ChartHeight)
	return session.NewDispatcher().
		Handle(session.PageUpload, func(ctx context.Context, s *session.Session) error {
			p, err := wf.Preview(s)
			if err != nil {
				return err
			}
			if f.jsonOut {
				return printJSON(out, p)
			}
			printPreview(out, p)
			return nil
		}).
		Handle(session.PageEDA, func(ctx context.Context, s *session.Session) error {
			popt, err := f.prepOptions()
			if err != nil {
				return err
			}
			res, err := wf.Explore(s, workflow.EDAOptions{Missing: popt.Missing, Dedup: popt.Dedup, Column: f.column, Bins: f.bins})
			if err != nil {
				return err
			}
			f.prepared = true
			if f.jsonOut {
				if err := printJSON(out, res); err != nil {
					return err
				}
			} else {
				printPrep(out, &res.PrepResult)
				fmt.Fprintln(out, res.Report.Markdown())
			}
			if f.report != "" {
				if err := utils.SafeWriteFile(f.report, []byte(res.Report.Markdown())); err != nil {
					return err
				}
				fmt.Fprintf(out, "✓ Wrote analysis to %s\n", f.report)
			}
			if f.hist != "" && res.Histogram != nil {
				if err := writePNG(out, f.hist, func(w io.Writer) error { return charts.Histogram(w, res.Histogram) }); err != nil {
					return err
				}
			}
			if f.heatmap != "" {
				if res.Corr == nil {
					fmt.Fprintln(out, "⚠ Skipped heatmap: fewer than two numeric columns")
				} else if err := writePNG(out, f.heatmap, func(w io.Writer) error { return charts.Heatmap(w, res.Corr) }); err != nil {
					return err
				}
			}
			return nil
		}).
		Handle(session.PageTraining, func(ctx context.Context, s *session.Session) error {
			popt, err := f.prepOptions()
			if err != nil {
				return err
			}
			if !f.prepared && (popt.Missing != prep.StrategyNone || popt.Dedup) {
				pr, err := wf.Prepare(s, popt)
				if err != nil {
					return err
				}
				if !f.jsonOut {
					printPrep(out, pr)
				}
			}
			topt, err := f.trainOptions()
			if err != nil {
				return err
			}
			res, err := wf.Train(s, topt)
			if err != nil {
				return err
			}
			if f.jsonOut {
				if err := printJSON(out, res); err != nil {
					return err
				}
			} else {
				printTrain(out, res)
			}
			if f.scatter != "" {
				p, ok := s.Predictions()
				if !ok {
					fmt.Fprintln(out, "⚠ Skipped scatter plot: only regression runs have one")
					return nil
				}
				title := "Actual vs Predicted (" + p.Model + ")"
				return writePNG(out, f.scatter, func(w io.Writer) error { return charts.Scatter(w, title, p.Actual, p.Predicted) })
			}
			return nil
		})
}

func printJSON(out io.Writer, v any) error {
	b, err := utils.PrettyJSON(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(b))
	return err
}

func writePNG(out io.Writer, path string, render func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Wrote %s\n", path)
	return nil
}

func printPreview(out io.Writer, p *workflow.Preview) {
	fmt.Fprintf(out, "✓ Loaded %s: %d rows × %d columns\n\n", p.Source, p.Rows, len(p.Columns))
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	names := make([]string, len(p.Columns))
	kinds := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		names[i] = c.Name
		kinds[i] = "(" + c.Kind + ")"
	}
	fmt.Fprintln(tw, strings.Join(names, "\t"))
	fmt.Fprintln(tw, strings.Join(kinds, "\t"))
	for _, row := range p.Head {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	_ = tw.Flush()
}

func printPrep(out io.Writer, pr *workflow.PrepResult) {
	if len(pr.MissingBefore) == 0 {
		fmt.Fprintln(out, "✓ No missing values")
	} else {
		fmt.Fprintln(out, "Missing values:")
		for _, m := range pr.MissingBefore {
			fmt.Fprintf(out, "  %s: %d\n", m.Column, m.Count)
		}
	}
	switch pr.Cleaning.Strategy {
	case prep.StrategyDrop:
		fmt.Fprintf(out, "✓ Dropped %d rows with missing values\n", pr.Cleaning.RowsDropped)
	case prep.StrategyMean, prep.StrategyMedian:
		n := 0
		for _, c := range pr.Cleaning.Filled {
			n += c
		}
		fmt.Fprintf(out, "✓ %s filled %d cells\n", pr.Cleaning.Strategy.Label(), n)
	}
	if pr.Duplicates > 0 {
		fmt.Fprintf(out, "✓ Removed %d duplicate rows\n", pr.Duplicates)
	}
	fmt.Fprintf(out, "Rows: %d\n\n", pr.Rows)
}

func printTrain(out io.Writer, res *workflow.TrainResult) {
	fmt.Fprintf(out, "✓ Trained %s on %d rows, evaluated on %d (target %q)\n", res.Model, res.TrainRows, res.TestRows, res.Target)
	for _, n := range res.Notes {
		fmt.Fprintf(out, "⚠ %s\n", n)
	}
	if res.Task == estimator.Classification {
		fmt.Fprintf(out, "Accuracy: %.2f\n\n", res.Accuracy)
		fmt.Fprint(out, res.Report.String())
		return
	}
	fmt.Fprintf(out, "Mean Squared Error: %.2f\n", res.MSE)
	fmt.Fprintf(out, "R² Score: %.2f\n", res.R2)
}
