package tools

import (
	"context"
	"fmt"
	"strings"
)

// Resolver maps a fuzzy course name to a stored title.
type Resolver interface {
	ResolveCourseName(ctx context.Context, name string) (string, error)
}

// OutlineTool answers structure questions: the lesson list of a course,
// resolved fuzzily from whatever name the user supplied.
type OutlineTool struct {
	resolver Resolver
	catalog  CatalogReader
	sources  []Source
}

func NewOutlineTool(resolver Resolver, catalog CatalogReader) *OutlineTool {
	return &OutlineTool{resolver: resolver, catalog: catalog}
}

func (t *OutlineTool) Definition() Definition {
	return Definition{
		Name:        "get_course_outline",
		Description: "Get the outline of a course: its title, link and complete lesson list",
		Parameters: map[string]Property{
			"course_name": {Type: "string", Description: "Course title (partial matches work, e.g. 'MCP', 'Introduction')"},
		},
		Required: []string{"course_name"},
	}
}

func (t *OutlineTool) Execute(ctx context.Context, args map[string]interface{}) string {
	courseName, _ := args["course_name"].(string)
	if courseName == "" {
		return "No course name provided"
	}

	title, err := t.resolver.ResolveCourseName(ctx, courseName)
	if err != nil {
		return fmt.Sprintf("Search error: %v", err)
	}
	if title == "" {
		return fmt.Sprintf("No course found matching '%s'", courseName)
	}

	c, found, err := t.catalog.GetCourse(ctx, title)
	if err != nil {
		return fmt.Sprintf("Search error: %v", err)
	}
	if !found {
		return fmt.Sprintf("No course found matching '%s'", courseName)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Course: %s\n", c.Title)
	if c.Link != "" {
		fmt.Fprintf(&b, "Course Link: %s\n", c.Link)
	}
	if c.Instructor != "" {
		fmt.Fprintf(&b, "Instructor: %s\n", c.Instructor)
	}
	fmt.Fprintf(&b, "Lessons (%d):\n", len(c.Lessons))
	for _, lesson := range c.Lessons {
		fmt.Fprintf(&b, "Lesson %d: %s\n", lesson.Number, lesson.Title)
	}

	t.sources = []Source{{Text: c.Title, Link: c.Link}}
	return strings.TrimRight(b.String(), "\n")
}

func (t *OutlineTool) LastSources() []Source { return t.sources }

func (t *OutlineTool) ResetSources() { t.sources = nil }
