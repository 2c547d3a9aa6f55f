package pipeline

import (
	"context"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"wg-deploy/pkg/model"
)

// Result is what a stage hands back to the driver.
type Result struct {
	Status  Status
	Class   Class
	Err     error
	Message string
}

func OK(msg string) Result { return Result{Status: StatusOK, Message: msg} }

func Warning(class Class, err error) Result {
	return Result{Status: StatusWarning, Class: class, Err: err}
}

func Fatal(class Class, err error) Result {
	return Result{Status: StatusFatal, Class: class, Err: err}
}

// Stage is one named step of a run.
type Stage struct {
	Name string
	Run  func(ctx context.Context, st *State) Result
}

// State is threaded through the stages of one run. Config is replaced once by
// the resolve stage and read-only afterwards.
type State struct {
	Config    model.DeploymentConfig
	Host      model.HostCapabilities
	Container model.ContainerHandle
	Ready     bool
	Report    *model.Report
}

// Observer is notified after every stage.
type Observer interface {
	ObserveStage(rec model.StageRecord)
}

// Summary collects the stage records and warnings of a run.
type Summary struct {
	Stages   []model.StageRecord
	Warnings []error
}

func (s Summary) Warning() error { return multierr.Combine(s.Warnings...) }

type Driver struct {
	stages    []Stage
	observers []Observer
	log       *zap.Logger
	now       func() time.Time
}

func NewDriver(log *zap.Logger, stages ...Stage) *Driver {
	return &Driver{stages: stages, log: log, now: time.Now}
}

func (d *Driver) Observe(o ...Observer) { d.observers = append(d.observers, o...) }

// Run executes the stages in order and stops at the first fatal result.
// Warnings are logged and collected, never changing the outcome.
func (d *Driver) Run(ctx context.Context, st *State) (Summary, error) {
	var sum Summary
	for _, stage := range d.stages {
		if err := ctx.Err(); err != nil {
			d.log.Error("run interrupted", zap.String("stage", stage.Name), zap.Error(err))
			return sum, &StageError{Stage: stage.Name, Class: ClassFatal, Err: err}
		}
		start := d.now()
		d.log.Debug("stage started", zap.String("stage", stage.Name))
		res := stage.Run(ctx, st)
		if res.Status == "" {
			res.Status = StatusOK
		}

		rec := model.StageRecord{
			Name:      stage.Name,
			Status:    string(res.Status),
			Message:   res.Message,
			Duration:  d.now().Sub(start),
			Timestamp: start,
		}
		if res.Err != nil {
			rec.Message = res.Err.Error()
		}
		sum.Stages = append(sum.Stages, rec)
		for _, o := range d.observers {
			o.ObserveStage(rec)
		}

		switch res.Status {
		case StatusFatal:
			d.log.Error("stage failed", zap.String("stage", stage.Name), zap.Stringer("class", res.Class), zap.Error(res.Err))
			return sum, &StageError{Stage: stage.Name, Class: res.Class, Err: res.Err}
		case StatusWarning:
			d.log.Warn("stage completed with warnings", zap.String("stage", stage.Name), zap.Stringer("class", res.Class), zap.Error(res.Err))
			sum.Warnings = append(sum.Warnings, &StageError{Stage: stage.Name, Class: res.Class, Err: res.Err})
		default:
			d.log.Info("stage completed", zap.String("stage", stage.Name), zap.String("detail", res.Message), zap.Duration("took", rec.Duration))
		}
	}
	return sum, nil
}
