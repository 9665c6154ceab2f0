package tools

import (
	"context"
	"fmt"
	"strings"

	"courserag/internal/course"
	"courserag/internal/retrieval"
)

// Searcher is the slice of the query resolver the search tool needs.
type Searcher interface {
	Search(ctx context.Context, query string, opts *retrieval.SearchOptions) retrieval.SearchResults
}

// CatalogReader looks up catalog entries for lesson-link attribution.
type CatalogReader interface {
	GetCourse(ctx context.Context, title string) (course.Course, bool, error)
}

// SearchTool answers content questions by querying the chunk collection,
// recording a source per hit so the answer can cite lesson links.
type SearchTool struct {
	searcher Searcher
	catalog  CatalogReader
	sources  []Source
}

func NewSearchTool(searcher Searcher, catalog CatalogReader) *SearchTool {
	return &SearchTool{searcher: searcher, catalog: catalog}
}

func (t *SearchTool) Definition() Definition {
	return Definition{
		Name:        "search_course_content",
		Description: "Search course materials with smart course name matching and lesson filtering",
		Parameters: map[string]Property{
			"query":         {Type: "string", Description: "What to search for in the course content"},
			"course_name":   {Type: "string", Description: "Course title (partial matches work, e.g. 'MCP', 'Introduction')"},
			"lesson_number": {Type: "integer", Description: "Specific lesson number to search within (e.g. 1, 2, 3)"},
		},
		Required: []string{"query"},
	}
}

func (t *SearchTool) Execute(ctx context.Context, args map[string]interface{}) string {
	query, _ := args["query"].(string)
	courseName, _ := args["course_name"].(string)
	lessonNumber := intArg(args, "lesson_number")

	results := t.searcher.Search(ctx, query, &retrieval.SearchOptions{
		CourseName:   courseName,
		LessonNumber: lessonNumber,
	})

	if results.Error != "" {
		return results.Error
	}
	if results.IsEmpty() {
		msg := "No relevant content found"
		if courseName != "" {
			msg += fmt.Sprintf(" in course '%s'", courseName)
		}
		if lessonNumber != nil {
			msg += fmt.Sprintf(" in lesson %d", *lessonNumber)
		}
		return msg + "."
	}

	return t.formatResults(ctx, results.Results)
}

// formatResults renders each hit under a "[course - Lesson n]" header and
// records one source per hit as a side effect.
func (t *SearchTool) formatResults(ctx context.Context, hits []retrieval.SearchResult) string {
	var blocks []string
	t.sources = t.sources[:0]

	for _, hit := range hits {
		header := hit.CourseTitle
		sourceText := hit.CourseTitle
		link := ""
		if hit.LessonNumber != nil {
			header = fmt.Sprintf("%s - Lesson %d", hit.CourseTitle, *hit.LessonNumber)
			sourceText = header
			link = t.lessonLink(ctx, hit.CourseTitle, *hit.LessonNumber)
		}
		blocks = append(blocks, fmt.Sprintf("[%s]\n%s", header, hit.Content))
		t.sources = append(t.sources, Source{Text: sourceText, Link: link})
	}
	return strings.Join(blocks, "\n\n")
}

func (t *SearchTool) lessonLink(ctx context.Context, title string, lessonNumber int) string {
	if t.catalog == nil {
		return ""
	}
	c, found, err := t.catalog.GetCourse(ctx, title)
	if err != nil || !found {
		return ""
	}
	if lesson, ok := c.Lesson(lessonNumber); ok {
		return lesson.Link
	}
	return ""
}

func (t *SearchTool) LastSources() []Source { return t.sources }

func (t *SearchTool) ResetSources() { t.sources = nil }

func intArg(args map[string]interface{}, key string) *int {
	switch v := args[key].(type) {
	case float64:
		n := int(v)
		return &n
	case int:
		n := v
		return &n
	}
	return nil
}
