package imports

import (
	"errors"
	"time"
)

var (
	ErrLogNotFound    = errors.New("import log not found")
	ErrNotProcessing  = errors.New("only imports in progress can be cancelled")
	ErrAlreadyRunning = errors.New("another import is still processing")
)

// Kind identifies which importer produced a log.
type Kind string

const (
	KindProducts    Kind = "productos"
	KindClients     Kind = "clientes"
	KindCategories  Kind = "categorias"
	KindAbrazaderas Kind = "abrazaderas"
)

type Status string

const (
	StatusPending    Status = "pendiente"
	StatusProcessing Status = "procesando"
	StatusCompleted  Status = "completado"
	StatusCancelled  Status = "cancelado"
	StatusError      Status = "error"
)

// Log records one import run. Processed is checkpointed while the run is
// in flight so other requests can poll progress.
type Log struct {
	ID          int64      `json:"id"`
	Kind        Kind       `json:"kind"`
	Status      Status     `json:"status"`
	FileName    string     `json:"file_name"`
	UserID      *int64     `json:"user_id,omitempty"`
	TotalRows   int        `json:"total_rows"`
	Created     int        `json:"created"`
	Updated     int        `json:"updated"`
	Errors      int        `json:"errors"`
	Processed   int        `json:"processed"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Progress is the processed share of the run as a whole percentage.
func (l *Log) Progress() int {
	if l.TotalRows <= 0 {
		return 0
	}
	return l.Processed * 100 / l.TotalRows
}

// RowError is one failed row of a run. Column and Value are optional.
type RowError struct {
	ID      int64  `json:"id"`
	LogID   int64  `json:"log_id"`
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Value   string `json:"value"`
	Message string `json:"message"`
}
