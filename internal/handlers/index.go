package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"studyqa/internal/contextutil"
	"studyqa/internal/ingest"
	"studyqa/internal/service"
	"studyqa/internal/storage"
)

// maxUploadBytes bounds uploaded PDF size.
const maxUploadBytes = 64 << 20

var errNotPDF = errors.New("only PDF files are supported")

// IndexHandler handles HTTP requests for adding content to a namespace.
type IndexHandler struct {
	studyService service.StudyService
	uploadDir    string
}

// NewIndexHandler creates a new IndexHandler. Uploaded PDFs are written to
// uploadDir, or to the system temp directory when it is empty.
func NewIndexHandler(studyService service.StudyService, uploadDir string) *IndexHandler {
	return &IndexHandler{studyService: studyService, uploadDir: uploadDir}
}

// IndexRequest represents the JSON payload for indexing.
//
// swagger:model IndexRequest
type IndexRequest struct {
	Subject      string           `json:"subject"`
	Chapter      string           `json:"chapter"`
	Records      []storage.Record `json:"records,omitempty"`
	Pages        []ingest.Page    `json:"pages,omitempty"`
	Format       string           `json:"format,omitempty"`
	Path         string           `json:"path,omitempty"`
	Filename     string           `json:"filename,omitempty"`
	ChunkSize    int              `json:"chunk_size,omitempty"`
	ChunkOverlap int              `json:"chunk_overlap,omitempty"`
	Reset        bool             `json:"reset,omitempty"`
}

// ServeHTTP handles HTTP requests for indexing.
//
// swagger:route POST /data/index indexContent
//
// # Index chapter content
//
// Accepts a JSON body with records, pages (text or markdown) or a
// server-side PDF path, or a multipart form with a PDF in the "file" field.
//
// ---
// consumes:
// - application/json
// - multipart/form-data
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Namespace and its record count after indexing
//	'400':
//	  description: Bad request
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'404':
//	  description: PDF path does not exist
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *IndexHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req IndexRequest
	transient := false
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		path, cleanup, err := h.readUpload(w, r, &req)
		if err != nil {
			logger.WarnContext(ctx, "invalid upload", "error", err)
			writeError(w, http.StatusBadRequest, "Invalid upload: "+err.Error())
			return
		}
		defer cleanup()
		req.Path = path
		transient = true
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.studyService.Index(ctx, service.IndexRequest{
		Subject:      req.Subject,
		Chapter:      req.Chapter,
		Records:      req.Records,
		Pages:        req.Pages,
		Format:       req.Format,
		Path:         req.Path,
		Transient:    transient,
		Filename:     req.Filename,
		ChunkSize:    req.ChunkSize,
		ChunkOverlap: req.ChunkOverlap,
		Reset:        req.Reset,
	})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to index content")
		return
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}

// readUpload stores the multipart "file" field on disk and fills req from the
// other form fields. cleanup removes the stored file.
func (h *IndexHandler) readUpload(w http.ResponseWriter, r *http.Request, req *IndexRequest) (string, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return "", nil, err
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, err
	}
	defer func() {
		_ = file.Close()
	}()
	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		return "", nil, errNotPDF
	}

	req.Subject = r.FormValue("subject")
	req.Chapter = r.FormValue("chapter")
	req.Filename = filepath.Base(header.Filename)
	req.Reset, _ = strconv.ParseBool(r.FormValue("reset"))
	req.ChunkSize, _ = strconv.Atoi(r.FormValue("chunk_size"))
	req.ChunkOverlap, _ = strconv.Atoi(r.FormValue("chunk_overlap"))

	out, err := os.CreateTemp(h.uploadDir, "upload-*.pdf")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() {
		_ = os.Remove(out.Name())
	}
	if _, err := io.Copy(out, file); err != nil {
		_ = out.Close()
		cleanup()
		return "", nil, err
	}
	if err := out.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return out.Name(), cleanup, nil
}
