package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/karne/internal/document"
	"github.com/pavelanni/karne/internal/model"
)

// Summary is one row of the saved analyses list.
type Summary struct {
	ID         string  `json:"id"`
	SavedAt    int64   `json:"savedAt"`
	Student    string  `json:"student"`
	ExamName   string  `json:"exam,omitempty"`
	Percentile float64 `json:"percentile"`
	Topics     int     `json:"topics"`
}

func summarize(r model.AnalysisResult) Summary {
	s := Summary{
		ID:         r.ID,
		SavedAt:    r.SavedAt,
		Student:    r.StudentInfo.Name,
		Percentile: r.ExecutiveSummary.EstimatedPercentile,
		Topics:     len(r.TopicAnalysis),
	}
	if n := len(r.ExamHistory); n > 0 {
		s.ExamName = r.ExamHistory[n-1].ExamName
	}
	return s
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUpload)
	if err := r.ParseMultipartForm(h.config.MaxUpload); err != nil {
		writeError(w, r, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	files, err := readUploads(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	payload, err := document.Prepare(files)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if extra := strings.TrimSpace(r.FormValue("text")); extra != "" {
		payload.Text = strings.TrimSpace(payload.Text + "\n" + extra)
	}

	slog.Info("analyzing upload", "files", len(files), "images", len(payload.Images), "text_chars", len(payload.Text))
	result, err := h.llm.Analyze(r.Context(), payload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := h.store.Save(result)
	if err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("analysis saved", "id", saved.ID, "student", saved.StudentInfo.Name)
	writeJSON(w, http.StatusCreated, saved)
}

func readUploads(r *http.Request) ([]document.File, error) {
	headers := r.MultipartForm.File["files"]
	files := make([]document.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read upload %s: %w", fh.Filename, err)
		}
		files = append(files, document.File{Name: fh.Filename, Data: data})
	}
	return files, nil
}

func (h *Handler) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	history, err := h.store.List()
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]Summary, 0, len(history))
	for _, a := range history {
		out = append(out, summarize(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	a, err := h.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) handleDeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.Delete(id); err != nil {
		writeError(w, r, err)
		return
	}
	slog.Info("analysis deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}
