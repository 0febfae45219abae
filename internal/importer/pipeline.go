// Package importer loads tabular files into the catalog and client stores.
// Every run has a dry-run preview and a committing execute phase, and a bad
// row never aborts the rest of the file.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"paginaflex/internal/domain/imports"
	"paginaflex/internal/infra/dbx"

	"go.uber.org/zap"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionSkip   Action = "skip"
)

const (
	sampleSize      = 10
	checkpointEvery = 5
)

// Processor handles the rows of one import kind. With dryRun set it must
// only report what it would do.
type Processor interface {
	Kind() imports.Kind
	RequiredColumns() []string
	ProcessRow(ctx context.Context, row Row, dryRun bool) (Action, error)
}

// Preparer is implemented by processors that need fixtures in the store
// before the first row is handled, dry run included.
type Preparer interface {
	Prepare(ctx context.Context) error
}

type PreviewError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type Preview struct {
	Rows     []Row          `json:"rows_sample"`
	ToCreate int            `json:"to_create"`
	ToUpdate int            `json:"to_update"`
	Errors   []PreviewError `json:"errors"`
	Total    int            `json:"total"`
}

type Pipeline struct {
	proc   Processor
	logs   imports.Store
	logger *zap.SugaredLogger
	now    func() time.Time
}

func New(proc Processor, logs imports.Store, logger *zap.SugaredLogger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Pipeline{proc: proc, logs: logs, logger: logger, now: time.Now}
}

func (p *Pipeline) Kind() imports.Kind {
	return p.proc.Kind()
}

// Load reads the file and checks its columns against the processor.
func (p *Pipeline) Load(name string, r io.Reader) (*File, error) {
	f, err := ReadFile(name, r)
	if err != nil {
		return nil, err
	}
	if err := ValidateColumns(f.Rows, p.proc.RequiredColumns()); err != nil {
		return nil, err
	}
	return f, nil
}

func (p *Pipeline) prepare(ctx context.Context) error {
	if pr, ok := p.proc.(Preparer); ok {
		if err := pr.Prepare(ctx); err != nil {
			return fmt.Errorf("prepare %s import: %w", p.proc.Kind(), err)
		}
	}
	return nil
}

// Preview dry-runs every row of f and tallies the outcome.
func (p *Pipeline) Preview(ctx context.Context, f *File) (*Preview, error) {
	if err := p.prepare(ctx); err != nil {
		return nil, err
	}

	pv := &Preview{
		Rows:   f.Rows[:min(sampleSize, len(f.Rows))],
		Errors: []PreviewError{},
		Total:  len(f.Rows),
	}
	for _, row := range f.Rows {
		action, err := p.proc.ProcessRow(ctx, row, true)
		if err != nil {
			pv.Errors = append(pv.Errors, PreviewError{Row: row.Number, Message: describe(err)})
			continue
		}
		switch action {
		case ActionCreate:
			pv.ToCreate++
		case ActionUpdate:
			pv.ToUpdate++
		}
	}
	return pv, nil
}

// Start opens a log in processing state sized to f.
func (p *Pipeline) Start(ctx context.Context, f *File, userID *int64) (*imports.Log, error) {
	l := &imports.Log{
		Kind:      p.proc.Kind(),
		Status:    imports.StatusProcessing,
		FileName:  f.Name,
		UserID:    userID,
		TotalRows: len(f.Rows),
	}
	if err := p.logs.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// Run processes every row of f for real against the log opened by Start.
// Row failures are stored as import errors. The processed count is
// checkpointed every few rows and a cancel seen at a checkpoint stops the
// run, keeping what was already written. Any other failure marks the log
// as errored and is returned.
func (p *Pipeline) Run(ctx context.Context, l *imports.Log, f *File) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("import %d: panic: %v", l.ID, rec)
		}
		if err != nil {
			p.fail(ctx, l, err)
		}
	}()

	if err := p.prepare(ctx); err != nil {
		return err
	}
	p.logger.Infow("import started", "kind", l.Kind, "log_id", l.ID, "file", f.Name, "rows", len(f.Rows))

	cancelled := false
	for i, row := range f.Rows {
		if err := ctx.Err(); err != nil {
			return err
		}

		action, rowErr := p.proc.ProcessRow(ctx, row, false)
		if rowErr != nil {
			l.Errors++
			p.logger.Warnw("import row failed", "kind", l.Kind, "log_id", l.ID, "row", row.Number, "error", rowErr)
			if err := p.logs.AddError(ctx, newImportError(l.ID, row.Number, rowErr)); err != nil {
				return err
			}
		} else {
			switch action {
			case ActionCreate:
				l.Created++
			case ActionUpdate:
				l.Updated++
			}
		}
		l.Processed = i + 1

		if l.Processed%checkpointEvery == 0 {
			status, err := p.logs.SaveProgress(ctx, l.ID, l.Processed)
			if err != nil {
				return err
			}
			if status == imports.StatusCancelled {
				p.logger.Infow("import cancelled", "kind", l.Kind, "log_id", l.ID, "processed", l.Processed)
				cancelled = true
				break
			}
		}
	}

	l.Status = imports.StatusCompleted
	if cancelled {
		l.Status = imports.StatusCancelled
	}
	now := p.now()
	l.CompletedAt = &now
	if err := p.logs.Finish(ctx, l); err != nil {
		return err
	}

	p.logger.Infow("import finished",
		"log_id", l.ID, "kind", l.Kind, "status", l.Status,
		"created", l.Created, "updated", l.Updated, "errors", l.Errors,
		"processed", l.Processed, "total", l.TotalRows)
	return nil
}

// Execute is Start followed by Run.
func (p *Pipeline) Execute(ctx context.Context, f *File, userID *int64) (*imports.Log, error) {
	l, err := p.Start(ctx, f, userID)
	if err != nil {
		return nil, err
	}
	if err := p.Run(ctx, l, f); err != nil {
		return l, err
	}
	return l, nil
}

func (p *Pipeline) fail(ctx context.Context, l *imports.Log, cause error) {
	l.Status = imports.StatusError
	if err := p.logs.MarkFailed(context.WithoutCancel(ctx), l.ID); err != nil {
		p.logger.Errorw("failed to mark import as failed", "log_id", l.ID, "error", err)
	}
	p.logger.Errorw("import aborted", "log_id", l.ID, "kind", l.Kind, "processed", l.Processed, "error", cause)
}

func newImportError(logID int64, rowNum int, err error) *imports.RowError {
	e := &imports.RowError{LogID: logID, Row: rowNum, Message: describe(err)}
	var re *RowError
	if errors.As(err, &re) {
		e.Column = re.Column
		e.Value = re.Value
	}
	return e
}

// describe turns a row failure into the message shown to the operator.
func describe(err error) string {
	var re *RowError
	switch {
	case errors.As(err, &re):
		return re.Message
	case dbx.IsUniqueViolation(err):
		return "duplicate value: " + err.Error()
	case dbx.IsForeignKeyViolation(err):
		return "referenced record does not exist: " + err.Error()
	default:
		return err.Error()
	}
}
