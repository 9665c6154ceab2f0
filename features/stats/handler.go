// Package stats reports course catalog analytics for the frontend landing
// view.
package stats

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"courserag/internal/middleware"
)

type CourseIndex interface {
	CourseCount(ctx context.Context) (int, error)
	CourseTitles(ctx context.Context) ([]string, error)
}

type Handler struct {
	index CourseIndex
}

func NewHandler(index CourseIndex) *Handler {
	return &Handler{index: index}
}

type CoursesResponse struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

func (h *Handler) GetCourses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	correlationID := middleware.GetCorrelationID(ctx)

	count, err := h.index.CourseCount(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count courses", "error", err, "correlationId", correlationID)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count courses", http.StatusInternalServerError)
		return
	}

	titles, err := h.index.CourseTitles(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list courses", "error", err, "correlationId", correlationID)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to list courses", http.StatusInternalServerError)
		return
	}
	if titles == nil {
		titles = []string{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(CoursesResponse{
		TotalCourses: count,
		CourseTitles: titles,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
