package handler

import (
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"go-measure-pipeline/internal/errors"
)

// Ingest accepts one measurement CSV as a batch
// @Summary Ingest a measurement file
// @Description Upload a semicolon separated CSV (Date;ExecutionTime;Value) as multipart field "file", or as the raw body with the fileName query parameter. The batch is stored only if every row is valid; the file's summary is then replaced.
// @Tags ingest
// @Accept multipart/form-data
// @Accept text/csv
// @Produce json
// @Param file formData file false "Measurement CSV"
// @Param fileName query string false "Logical file name (required for raw body uploads)"
// @Success 201 {object} model.IngestResult "Batch stored"
// @Failure 400 {object} ErrorResponse "Malformed input or request"
// @Failure 422 {object} ErrorResponse "Batch rejected by validation"
// @Failure 500 {object} ErrorResponse "Storage failure"
// @Router /ingest [post]
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	fileName := strings.TrimSpace(r.URL.Query().Get("fileName"))

	var body io.Reader = r.Body
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		file, header, err := r.FormFile("file")
		if err != nil {
			h.writeError(w, errors.InvalidRequestf("multipart field \"file\" is required: %v", err))
			return
		}
		defer file.Close()
		body = file
		if fileName == "" {
			fileName = path.Base(header.Filename)
		}
	}

	if fileName == "" {
		h.writeError(w, errors.InvalidRequestf("fileName is required"))
		return
	}

	result, err := h.pipeline.Ingest(r.Context(), fileName, body)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}
