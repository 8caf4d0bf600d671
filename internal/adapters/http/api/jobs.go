package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/okian/recapdeck/internal/adapters/loader"
	"github.com/okian/recapdeck/internal/domain/model"
	"github.com/okian/recapdeck/pkg/logger"
)

// Multipart field names accepted by POST /jobs.
const (
	fieldDataset     = "dataset"
	fieldHeadline    = "headline"
	fieldBatch       = "batch"
	fieldClient      = "client"
	fieldReportDate  = "report_date"
	imageFieldPrefix = "image."
)

const deckContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

// JobsHandler accepts generation uploads and reports job state.
type JobsHandler struct {
	deps           Dependencies
	maxUploadBytes int64
	logger         logger.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(deps Dependencies, maxUploadBytes int64, l logger.Logger) *JobsHandler {
	return &JobsHandler{deps: deps, maxUploadBytes: maxUploadBytes, logger: l}
}

type jobResponse struct {
	model.Job
	Links map[string]string `json:"links"`
}

func newJobResponse(j model.Job) jobResponse {
	links := map[string]string{"self": "/jobs/" + j.ID}
	if j.Status == model.JobSucceeded {
		links["deck"] = "/jobs/" + j.ID + "/deck"
	}
	return jobResponse{Job: j, Links: links}
}

// HandlePostJob handles POST /jobs requests.
func (h *JobsHandler) HandlePostJob(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_job"
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	form := r.MultipartForm
	datasets := form.File[fieldDataset]
	if len(datasets) == 0 {
		writeFailure(w, WrapKind(op, ErrBadRequest, errors.New("missing dataset file")))
		return
	}
	if _, err := loader.DetectFormat(datasets[0].Filename); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	dir, err := h.deps.UploadDir(r.Context())
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	accepted := false
	defer func() {
		// A rejected request leaves nothing behind.
		if !accepted {
			_ = os.RemoveAll(dir)
		}
	}()

	req := model.GenerationRequest{
		Headline:   formValue(form, fieldHeadline),
		Batch:      formValue(form, fieldBatch),
		Client:     formValue(form, fieldClient),
		ReportDate: formValue(form, fieldReportDate),
	}
	if req.DatasetPath, err = saveUpload(dir, "dataset", datasets[0]); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	for field, files := range form.File {
		key, ok := strings.CutPrefix(field, imageFieldPrefix)
		if !ok || key == "" || len(files) == 0 {
			continue
		}
		if req.Images == nil {
			req.Images = make(map[string]string)
		}
		if req.Images[key], err = saveUpload(dir, "image-"+filepath.Base(key), files[0]); err != nil {
			writeFailure(w, Wrap(op, err))
			return
		}
	}

	job, err := h.deps.Submit(r.Context(), req)
	if err != nil {
		h.logger.Warn(r.Context(), "job rejected", logger.Error(err))
		writeFailure(w, Wrap(op, err))
		return
	}
	accepted = true
	writeJSON(w, http.StatusAccepted, newJobResponse(job))
}

// HandleGetJob handles GET /jobs/{id} requests.
func (h *JobsHandler) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_job"
	job, err := h.deps.Job(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, newJobResponse(job))
}

// HandleGetDeck handles GET /jobs/{id}/deck requests.
func (h *JobsHandler) HandleGetDeck(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_deck"
	path, err := h.deps.Deck(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeFailure(w, WrapKind(op, ErrNotFound, err))
			return
		}
		writeFailure(w, Wrap(op, err))
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	w.Header().Set("Content-Type", deckContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeContent(w, r, filepath.Base(path), info.ModTime(), f)
}

func formValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

// saveUpload copies fh into dir as name plus the upload's extension.
func saveUpload(dir, name string, fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	path := filepath.Join(dir, name+strings.ToLower(filepath.Ext(fh.Filename)))
	dst, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return "", err
	}
	return path, dst.Close()
}
