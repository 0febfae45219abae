package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"paginaflex/internal/domain/imports"
	"paginaflex/internal/importer"
	"paginaflex/internal/params"

	"github.com/go-chi/chi/v5"
)

const (
	importLogsPageSize = 20
	previewErrorsShown = 5
	uploadFormField    = "archivo"
	uploadFormMemory   = 8 << 20
)

type executeImportPayload struct {
	UpdatePasswords bool `json:"update_passwords"`
}

type previewResponse struct {
	Kind       imports.Kind            `json:"kind"`
	FileName   string                  `json:"file_name"`
	Columns    []string                `json:"columns"`
	Rows       []importer.Row          `json:"rows_sample"`
	ToCreate   int                     `json:"to_create"`
	ToUpdate   int                     `json:"to_update"`
	Total      int                     `json:"total"`
	Errors     []importer.PreviewError `json:"errors"`
	ErrorCount int                     `json:"error_count"`
}

type progressResponse struct {
	ID        int64          `json:"id"`
	Status    imports.Status `json:"status"`
	Progress  int            `json:"progress"`
	Processed int            `json:"processed"`
	Total     int            `json:"total"`
	Created   int            `json:"created"`
	Updated   int            `json:"updated"`
	Errors    int            `json:"errors"`
}

// importKind resolves the {kind} path segment, writing a 404 when unknown.
func (app *application) importKind(w http.ResponseWriter, r *http.Request) (imports.Kind, bool) {
	def, err := app.importers.Lookup(chi.URLParam(r, "kind"))
	if err != nil {
		app.notFoundResponse(w, r, err)
		return "", false
	}
	return def.Kind, true
}

func (app *application) importLogID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := params.ParseID(chi.URLParam(r, "logID"))
	if !ok {
		app.badRequestResponse(w, r, fmt.Errorf("invalid log id"))
	}
	return id, ok
}

// loadStaged opens a staged upload and parses it with the kind's pipeline.
// It writes the error response itself and reports whether to go on.
func (app *application) loadStaged(w http.ResponseWriter, r *http.Request, kind imports.Kind, opts importer.Options) (*importer.Pipeline, *importer.File, bool) {
	user := getUserFromContext(r)

	pipeline, err := app.importers.Pipeline(kind, opts)
	if err != nil {
		app.notFoundResponse(w, r, err)
		return nil, nil, false
	}

	name, rc, err := app.stager.Open(user.ID, kind, chi.URLParam(r, "token"))
	if err != nil {
		if errors.Is(err, importer.ErrUploadNotFound) {
			app.notFoundResponse(w, r, err)
			return nil, nil, false
		}
		app.internalServerError(w, r, err)
		return nil, nil, false
	}
	defer rc.Close()

	f, err := pipeline.Load(name, rc)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return nil, nil, false
	}
	return pipeline, f, true
}

func (app *application) listImportKindsHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.jsonResponse(w, http.StatusOK, app.importers.Definitions()); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) uploadImportFileHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	kind, ok := app.importKind(w, r)
	if !ok {
		return
	}

	maxBytes := int64(app.config.imports.maxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<20)
	if err := r.ParseMultipartForm(uploadFormMemory); err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("failed to parse form: %w", err))
		return
	}

	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("select a file in field %q", uploadFormField))
		return
	}
	defer file.Close()

	staged, err := app.stager.Save(user.ID, kind, header.Filename, file)
	if err != nil {
		var formatErr *importer.FormatError
		switch {
		case errors.As(err, &formatErr), errors.Is(err, importer.ErrUploadTooLarge):
			app.badRequestResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.logger.Infow("import file staged", "kind", kind, "file", staged.Name, "size", staged.Size, "user_id", user.ID)

	if err := app.jsonResponse(w, http.StatusCreated, staged); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) previewImportHandler(w http.ResponseWriter, r *http.Request) {
	kind, ok := app.importKind(w, r)
	if !ok {
		return
	}

	pipeline, f, ok := app.loadStaged(w, r, kind, importer.Options{})
	if !ok {
		return
	}

	pv, err := pipeline.Preview(r.Context(), f)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	resp := previewResponse{
		Kind:       kind,
		FileName:   f.Name,
		Columns:    []string{},
		Rows:       pv.Rows,
		ToCreate:   pv.ToCreate,
		ToUpdate:   pv.ToUpdate,
		Total:      pv.Total,
		Errors:     pv.Errors[:min(previewErrorsShown, len(pv.Errors))],
		ErrorCount: len(pv.Errors),
	}
	if len(pv.Rows) > 0 {
		resp.Columns = pv.Rows[0].Headers()
	}

	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

// executeImportHandler opens the log right away and processes the rows in
// the background. Clients poll the progress endpoint.
func (app *application) executeImportHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	kind, ok := app.importKind(w, r)
	if !ok {
		return
	}

	var payload executeImportPayload
	if r.ContentLength != 0 {
		if err := readJSON(w, r, &payload); err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
	}

	// one running import per user
	active, err := app.store.Imports.LatestProcessing(r.Context(), user.ID)
	switch {
	case err == nil:
		app.conflictResponse(w, r, fmt.Errorf("import %d is still processing", active.ID))
		return
	case !errors.Is(err, imports.ErrLogNotFound):
		app.internalServerError(w, r, err)
		return
	}

	pipeline, f, ok := app.loadStaged(w, r, kind, importer.Options{UpdatePasswords: payload.UpdatePasswords})
	if !ok {
		return
	}

	userID := user.ID
	l, err := pipeline.Start(r.Context(), f, &userID)
	if err != nil {
		if errors.Is(err, imports.ErrAlreadyRunning) {
			app.conflictResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	// l is owned by the background run from here on
	snapshot := *l

	token := chi.URLParam(r, "token")
	app.background(func() {
		if err := pipeline.Run(context.Background(), l, f); err != nil {
			app.logger.Errorw("import run failed", "log_id", l.ID, "kind", kind, "error", err)
		}
		if err := app.stager.Remove(userID, kind, token); err != nil {
			app.logger.Warnw("failed to remove staged upload", "log_id", l.ID, "error", err)
		}
	})

	if err := app.jsonResponse(w, http.StatusAccepted, snapshot); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) listImportLogsHandler(w http.ResponseWriter, r *http.Request) {
	pg := params.ParsePage(r.URL.Query(), importLogsPageSize)

	logs, total, err := app.store.Imports.List(r.Context(), pg.Limit, pg.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	pg.ComputeMeta(total)
	if logs == nil {
		logs = []imports.Log{}
	}

	resp := struct {
		Logs       []imports.Log     `json:"logs"`
		Pagination params.Pagination `json:"pagination"`
	}{logs, pg}

	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) importProgressHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := app.importLogID(w, r)
	if !ok {
		return
	}

	l, err := app.store.Imports.GetByID(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, imports.ErrLogNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	resp := progressResponse{
		ID:        l.ID,
		Status:    l.Status,
		Progress:  l.Progress(),
		Processed: l.Processed,
		Total:     l.TotalRows,
		Created:   l.Created,
		Updated:   l.Updated,
		Errors:    l.Errors,
	}
	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) activeImportHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	type activeResponse struct {
		Active bool `json:"active"`
		*progressResponse
	}

	l, err := app.store.Imports.LatestProcessing(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, imports.ErrLogNotFound) {
			if err := app.jsonResponse(w, http.StatusOK, activeResponse{}); err != nil {
				app.internalServerError(w, r, err)
			}
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	resp := activeResponse{
		Active: true,
		progressResponse: &progressResponse{
			ID:        l.ID,
			Status:    l.Status,
			Progress:  l.Progress(),
			Processed: l.Processed,
			Total:     l.TotalRows,
			Created:   l.Created,
			Updated:   l.Updated,
			Errors:    l.Errors,
		},
	}
	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) downloadImportErrorsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := app.importLogID(w, r)
	if !ok {
		return
	}

	if _, err := app.store.Imports.GetByID(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, imports.ErrLogNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	rowErrors, err := app.store.Imports.ListErrors(r.Context(), id)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="errores_importacion_%d.csv"`, id))
	w.WriteHeader(http.StatusOK)
	if err := importer.WriteErrorsCSV(w, rowErrors); err != nil {
		app.logger.Errorw("failed to write errors csv", "log_id", id, "error", err)
	}
}

func (app *application) cancelImportHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := app.importLogID(w, r)
	if !ok {
		return
	}

	if err := app.store.Imports.Cancel(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, imports.ErrLogNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, imports.ErrNotProcessing):
			app.badRequestResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	app.logger.Infow("import cancel requested", "log_id", id, "by", getUserFromContext(r).ID)

	resp := map[string]any{"success": true, "message": "import cancelled"}
	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}
