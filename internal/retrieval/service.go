package retrieval

import (
	"context"
	"fmt"
	"time"

	"courserag/internal/middleware"
)

// SearchResult is one retrieved chunk: document text, its metadata and the
// vector distance (lower = more similar).
type SearchResult struct {
	Content      string                 `json:"content"`
	CourseTitle  string                 `json:"course_title,omitempty"`
	LessonNumber *int                   `json:"lesson_number,omitempty"`
	ChunkIndex   int                    `json:"chunk_index"`
	Distance     float32                `json:"distance"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// SearchResults carries an ordered result set or a user-facing error string.
// Resolution and query failures are values, not raised errors, so the caller
// can always render a response. Zero results with an empty Error is a valid
// outcome and distinct from a failed course resolution.
type SearchResults struct {
	Results []SearchResult `json:"results"`
	Error   string         `json:"error,omitempty"`
}

func (r SearchResults) IsEmpty() bool { return len(r.Results) == 0 }

func ErrorResults(msg string) SearchResults { return SearchResults{Error: msg} }

type SearchOptions struct {
	CourseName   string
	LessonNumber *int
	Limit        *int
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Index is the two-collection semantic store: the catalog partition answers
// fuzzy course-name resolution, the content partition answers chunk queries.
type Index interface {
	ResolveCourseName(ctx context.Context, vector []float32) (string, error)
	QueryContent(ctx context.Context, vector []float32, courseTitle string, lessonNumber *int, limit int) ([]SearchResult, error)
}

type Service struct {
	embedder   Embedder
	index      Index
	maxResults int
	logger     *QueryLogger
}

func NewService(e Embedder, idx Index, maxResults int, l *QueryLogger) *Service {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &Service{embedder: e, index: idx, maxResults: maxResults, logger: l}
}

// Search resolves an optional fuzzy course name against the catalog, builds
// the metadata filter and queries the content collection. All failures come
// back in the Error field of the result.
func (s *Service) Search(ctx context.Context, query string, opts *SearchOptions) SearchResults {
	start := time.Now()

	courseName := ""
	resolvedTitle := ""
	var lesson *int
	limit := s.maxResults

	if opts != nil {
		courseName = opts.CourseName
		lesson = opts.LessonNumber
		if opts.Limit != nil && *opts.Limit > 0 {
			limit = *opts.Limit
		}
	}

	if courseName != "" {
		title, err := s.ResolveCourseName(ctx, courseName)
		if err != nil {
			return ErrorResults(fmt.Sprintf("Search error: %v", err))
		}
		if title == "" {
			return ErrorResults(fmt.Sprintf("No course found matching '%s'", courseName))
		}
		resolvedTitle = title
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return ErrorResults(fmt.Sprintf("Search error: %v", err))
	}

	hits, err := s.index.QueryContent(ctx, vec, resolvedTitle, lesson, limit)
	if err != nil {
		return ErrorResults(fmt.Sprintf("Search error: %v", err))
	}

	if s.logger != nil {
		s.logger.Log(QueryLogEntry{
			Query:         query,
			CourseName:    courseName,
			LessonNumber:  lesson,
			NumResults:    len(hits),
			Duration:      time.Since(start),
			CorrelationID: middleware.GetCorrelationID(ctx),
		})
	}

	return SearchResults{Results: hits}
}

// ResolveCourseName maps a fuzzy user-supplied name to the closest stored
// course title. Returns "" when the catalog is empty.
func (s *Service) ResolveCourseName(ctx context.Context, name string) (string, error) {
	vec, err := s.embedder.Embed(ctx, name)
	if err != nil {
		return "", err
	}
	return s.index.ResolveCourseName(ctx, vec)
}
