// routes/file_handlers.go
package routes

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/LilVoxy/mayabus_analytics/ETL/extractors"
	"github.com/LilVoxy/mayabus_analytics/ETL/models"
)

// FilesResponse lists the registered files
type FilesResponse struct {
	Files []extractors.FileSummary `json:"files"`
}

// UploadResponse describes an accepted upload and the run it started
type UploadResponse struct {
	File  extractors.FileSummary `json:"file"`
	RunID string                 `json:"runId,omitempty"`
}

// ListFilesHandler returns the registered files
func ListFilesHandler(files *extractors.FileSet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := files.List()
		if list == nil {
			list = []extractors.FileSummary{}
		}
		writeJSON(w, http.StatusOK, FilesResponse{Files: list})
	}
}

// UploadFileHandler decodes the multipart "file" field, registers it and
// starts a new run over every registered file
func UploadFileHandler(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category, err := models.ParseCategory(mux.Vars(r)["category"])
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		// 1. Read the multipart file
		r.Body = http.MaxBytesReader(w, r.Body, deps.MaxUploadBytes)
		if err := r.ParseMultipartForm(deps.MaxUploadBytes); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart upload: "+err.Error())
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "missing form field \"file\"")
			return
		}
		defer file.Close()

		// 2. Decode and register it
		loaded, err := deps.Files.Load(category, header.Filename, file)
		var decodeErr *extractors.DecodeError
		switch {
		case errors.Is(err, extractors.ErrFileNamePrefix):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		case errors.As(err, &decodeErr):
			deps.Logger.Warn("upload %s rejected: %v", header.Filename, err)
			deps.Metrics.DecodeError(category)
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		deps.Logger.Info("file %s registered as %s (%d rows)", loaded.Name, category, len(loaded.Rows))

		// 3. Start a run over every registered file
		runID, err := deps.Pipeline.Submit(deps.Files.Datasets())
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}

		writeJSON(w, http.StatusCreated, UploadResponse{
			File: extractors.FileSummary{
				Name:     loaded.Name,
				Category: category,
				Rows:     len(loaded.Rows),
				LoadedAt: loaded.LoadedAt,
			},
			RunID: runID,
		})
	}
}

// DeleteFileHandler unregisters a file and starts a new run
func DeleteFileHandler(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		category, err := models.ParseCategory(vars["category"])
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if !deps.Files.Delete(category, vars["name"]) {
			writeError(w, http.StatusNotFound, "file not found")
			return
		}
		deps.Logger.Info("file %s removed from %s", vars["name"], category)

		if _, err := deps.Pipeline.Submit(deps.Files.Datasets()); err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
