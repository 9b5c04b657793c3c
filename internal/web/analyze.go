package web

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/neurotune/backend/internal/affect"
	"github.com/neurotune/backend/internal/analysis"
	"github.com/neurotune/backend/internal/db"
)

// uploadFields are the four required multipart fields, by channel role.
var uploadFields = []string{"eeg1", "eeg2", "ecg", "gsr"}

// Analyze accepts the four biosignal files, runs the analysis process and
// persists the result. Uploaded files are deleted when anything fails;
// after success they are retained or removed per the configured policy.
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, 4*h.uploads.MaxFileSize+(1<<20))
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respondError(w, http.StatusBadRequest, "File upload too large or malformed")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	var saved []string
	cleanup := func() {
		for _, path := range saved {
			if err := os.Remove(path); err != nil {
				log.Printf("web: removing upload %s: %v", path, err)
			}
		}
	}

	paths := make(map[string]string, len(uploadFields))
	for _, field := range uploadFields {
		path, err := h.saveUpload(r, field)
		if err != nil {
			cleanup()
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		saved = append(saved, path)
		paths[field] = path
	}

	result, err := h.gateway.Run(ctx, analysis.Input{
		EEG1: paths["eeg1"],
		EEG2: paths["eeg2"],
		ECG:  paths["ecg"],
		GSR:  paths["gsr"],
	})
	if err != nil {
		cleanup()
		respondAnalysisError(w, err)
		return
	}

	record := &db.AnalysisResult{
		UserID:            r.FormValue("userId"),
		EEG1Path:          paths["eeg1"],
		EEG2Path:          paths["eeg2"],
		ECGPath:           paths["ecg"],
		GSRPath:           paths["gsr"],
		ThetaPower:        result.ThetaPower,
		HRV:               result.HRV,
		P300Latency:       result.P300Latency,
		Engagement:        result.Engagement,
		Arousal:           result.Arousal,
		Valence:           result.Valence,
		OverallPreference: result.OverallPreference,
		Focus:             result.Focus,
		Relax:             result.Relax,
		Excite:            result.Excite,
		Preference:        result.Preference,
	}
	if err := h.results.Create(ctx, record); err != nil {
		log.Printf("web: saving analysis result: %v", err)
		cleanup()
		respondError(w, http.StatusInternalServerError, "Failed to save analysis result")
		return
	}

	if !h.uploads.Retain {
		cleanup()
	}

	respondJSON(w, http.StatusOK, envelope{
		"message": "EEG analysis completed successfully",
		"data":    resultView(record),
	})
}

// saveUpload stores one uploaded channel file under a unique name.
func (h *Handlers) saveUpload(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", fmt.Errorf("missing required file: %s", field)
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".txt") {
		return "", fmt.Errorf("file %s must be a .txt file", header.Filename)
	}
	if h.uploads.MaxFileSize > 0 && header.Size > h.uploads.MaxFileSize {
		return "", fmt.Errorf("file %s exceeds the size limit", header.Filename)
	}

	path := filepath.Join(h.uploads.Dir, fmt.Sprintf("%s-%s.txt", field, uuid.NewString()))
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("storing upload: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("storing upload: %w", err)
	}
	return path, nil
}

// respondAnalysisError maps gateway failures to responses. Diagnostic text
// goes to the log for operators; clients get the structured failure result.
func respondAnalysisError(w http.ResponseWriter, err error) {
	var procErr *analysis.ProcessError
	var parseErr *analysis.ParseError

	switch {
	case errors.Is(err, analysis.ErrTimeout):
		log.Printf("web: analysis timed out")
		respondError(w, http.StatusGatewayTimeout, "EEG analysis timed out")
	case errors.Is(err, analysis.ErrSpawn):
		log.Printf("web: analysis spawn failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to start EEG processing")
	case errors.As(err, &procErr):
		log.Printf("web: analysis process failed (exit %d): %s", procErr.ExitCode, procErr.Stderr)
		respondError(w, http.StatusInternalServerError, "EEG processing failed")
	case errors.As(err, &parseErr):
		log.Printf("web: unparseable analysis output: %q", parseErr.Output)
		respondError(w, http.StatusInternalServerError, "Failed to parse EEG analysis results")
	default:
		log.Printf("web: analysis failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to analyze EEG data")
	}
}

// resultView is the JSON shape of a stored analysis run; file paths are
// never included.
func resultView(record *db.AnalysisResult) envelope {
	return envelope{
		"id":     record.ID,
		"userId": record.UserID,
		"results": envelope{
			"thetaPower":        record.ThetaPower,
			"hrv":               record.HRV,
			"p300Latency":       record.P300Latency,
			"engagement":        record.Engagement,
			"arousal":           record.Arousal,
			"valence":           record.Valence,
			"overallPreference": record.OverallPreference,
			"focus":             record.Focus,
			"relax":             record.Relax,
			"excite":            record.Excite,
			"preference":        record.Preference,
		},
		"createdAt": record.CreatedAt,
	}
}

// AnalysisHistory returns a page of a user's analysis runs, newest first.
func (h *Handlers) AnalysisHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	limit := queryInt(r, "limit", 10)
	page := queryInt(r, "page", 1)
	offset := (page - 1) * limit

	records, err := h.results.History(r.Context(), userID, limit, offset)
	if err != nil {
		log.Printf("web: loading history: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch analysis history")
		return
	}
	total, err := h.results.Count(r.Context(), userID)
	if err != nil {
		log.Printf("web: counting history: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch analysis history")
		return
	}

	views := make([]envelope, 0, len(records))
	for i := range records {
		views = append(views, resultView(&records[i]))
	}

	pages := (total + int64(limit) - 1) / int64(limit)
	respondJSON(w, http.StatusOK, envelope{
		"count": len(views),
		"total": total,
		"page":  page,
		"pages": pages,
		"data":  views,
	})
}

// LatestAnalysis returns a user's most recent analysis run.
func (h *Handlers) LatestAnalysis(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	record, err := h.results.Latest(r.Context(), userID)
	if errors.Is(err, db.ErrNotFound) {
		respondError(w, http.StatusNotFound, "No analysis found for this user")
		return
	}
	if err != nil {
		log.Printf("web: loading latest analysis: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch latest analysis")
		return
	}
	respondJSON(w, http.StatusOK, envelope{"data": resultView(record)})
}

// AnalysisMoods clusters a user's recent runs into mood groups.
func (h *Handlers) AnalysisMoods(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	scores, err := h.historyScores(r, userID, 50)
	if err != nil {
		log.Printf("web: loading history for moods: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch analysis history")
		return
	}

	moods, err := affect.ClusterMoods(scores, queryInt(r, "k", 3))
	if err != nil {
		log.Printf("web: clustering moods: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to cluster moods")
		return
	}
	respondJSON(w, http.StatusOK, envelope{
		"count": len(moods),
		"data":  moods,
	})
}

// NarrativeReport writes a narrative summary of the latest analysis run.
func (h *Handlers) NarrativeReport(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	record, err := h.results.Latest(r.Context(), userID)
	if errors.Is(err, db.ErrNotFound) {
		respondError(w, http.StatusNotFound, "No analysis found for this user")
		return
	}
	if err != nil {
		log.Printf("web: loading latest analysis: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch latest analysis")
		return
	}

	report := h.narrator.Report(r.Context(), scoresFromResult(record))
	respondJSON(w, http.StatusOK, envelope{"data": envelope{"report": report}})
}

// NarrativeMood writes a short mood paragraph from recent history.
func (h *Handlers) NarrativeMood(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	scores, err := h.historyScores(r, userID, 10)
	if err != nil {
		log.Printf("web: loading history for mood: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch analysis history")
		return
	}

	mood := h.narrator.MoodFromHistory(r.Context(), scores)
	respondJSON(w, http.StatusOK, envelope{"data": envelope{"mood": mood}})
}

// NarrativeGenres suggests seed genres from recent history.
func (h *Handlers) NarrativeGenres(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	scores, err := h.historyScores(r, userID, 10)
	if err != nil {
		log.Printf("web: loading history for genres: %v", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch analysis history")
		return
	}

	genres := h.narrator.GenresFromHistory(r.Context(), scores)
	respondJSON(w, http.StatusOK, envelope{
		"count": len(genres),
		"data":  genres,
	})
}

// historyScores loads up to limit recent runs as mapper scores.
func (h *Handlers) historyScores(r *http.Request, userID string, limit int) ([]affect.Scores, error) {
	records, err := h.results.History(r.Context(), userID, limit, 0)
	if err != nil {
		return nil, err
	}
	scores := make([]affect.Scores, 0, len(records))
	for i := range records {
		scores = append(scores, scoresFromResult(&records[i]))
	}
	return scores, nil
}
