package redline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/redline/horosafe"
	"github.com/hazyhaar/redline/shield"
)

// DocxContentType is the media type of the returned redline.
const DocxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// maxMemory is the multipart budget held in memory; larger parts spill to disk.
const maxMemory = 32 << 20

// Routes returns the HTTP API:
//
//	GET  /health
//	POST /api/compare        multipart "source", "target", optional "text_mode"
//	GET  /api/history        ?limit=n (history enabled only)
//	GET  /api/history/{id}   (history enabled only)
func (c *Comparator) Routes() http.Handler {
	r := chi.NewRouter()
	for _, mw := range shield.DefaultStack(2*c.cfg.MaxFileSize + maxMemory) {
		r.Use(mw)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/api/compare", c.handleCompare)

	if c.history != nil {
		r.Get("/api/history", c.handleHistory)
		r.Get("/api/history/{id}", c.handleHistoryGet)
	}
	return r
}

func (c *Comparator) handleCompare(w http.ResponseWriter, r *http.Request) {
	logger := shield.GetLogger(r.Context())

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", tooBig.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Errorf("parse form: %w", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	dir, err := os.MkdirTemp("", "redline-*")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	defer os.RemoveAll(dir)

	source, err := saveUpload(r, "source", dir)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	target, err := saveUpload(r, "target", dir)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	textMode, _ := strconv.ParseBool(r.FormValue("text_mode"))

	res, err := c.Compare(r.Context(), source, target, Options{
		Output:    filepath.Join(dir, OutputName(source, target)),
		ForceText: textMode,
	})
	if err != nil {
		logger.Warn("compare failed", "error", err)
		writeError(w, statusFor(err), err)
		return
	}

	f, err := os.Open(res.OutputPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	defer f.Close()

	h := w.Header()
	h.Set("Content-Type", DocxContentType)
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": filepath.Base(res.OutputPath),
	}))
	h.Set("X-Redline-Id", res.ID)
	h.Set("X-Redline-Mode", res.Mode)
	h.Set("X-Redline-Equal", strconv.Itoa(res.Stats.Equal))
	h.Set("X-Redline-Insert", strconv.Itoa(res.Stats.Insert))
	h.Set("X-Redline-Delete", strconv.Itoa(res.Stats.Delete))
	h.Set("X-Redline-Replace", strconv.Itoa(res.Stats.Replace))
	h.Set("X-Redline-Whitespace", strconv.Itoa(res.Stats.Whitespace))
	for _, warn := range res.Warnings {
		h.Add("X-Redline-Warning", warn)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, f); err != nil {
		logger.Warn("write response", "error", err)
	}
}

// saveUpload stores the multipart file field under dir/<field>/<name> and
// returns its path. The client file name is kept so the result name matches.
func saveUpload(r *http.Request, field, dir string) (string, error) {
	file, hdr, err := r.FormFile(field)
	if err != nil {
		return "", fmt.Errorf("missing %q file: %w", field, err)
	}
	defer file.Close()

	name := filepath.Base(hdr.Filename)
	if name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("%q upload has no file name", field)
	}
	path, err := horosafe.SafePath(filepath.Join(dir, field), name)
	if err != nil {
		return "", fmt.Errorf("%q upload: %w", field, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}

	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		return "", fmt.Errorf("store %q upload: %w", field, err)
	}
	return path, out.Close()
}

func statusFor(err error) int {
	switch {
	case IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, ErrExtraction):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (c *Comparator) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	recs, err := c.history.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if recs == nil {
		recs = []*Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (c *Comparator) handleHistoryGet(w http.ResponseWriter, r *http.Request) {
	rec, err := c.history.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
