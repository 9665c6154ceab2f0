// Package ingest loads course documents into the semantic index at startup:
// parse, chunk, embed, and write both collections together.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"courserag/internal/course"
	"courserag/internal/docparse"
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Index is the write-side of the semantic store.
type Index interface {
	ClearAll(ctx context.Context) error
	UpsertCourse(ctx context.Context, c course.Course, vec []float32) error
	UpsertChunks(ctx context.Context, chunks []course.Chunk, vectors [][]float32) error
	ExistingCourseTitles(ctx context.Context) (map[string]struct{}, error)
	CourseTitles(ctx context.Context) ([]string, error)
	CourseCount(ctx context.Context) (int, error)
}

type Service struct {
	parser   *docparse.Parser
	embedder Embedder
	index    Index
}

func NewService(parser *docparse.Parser, embedder Embedder, index Index) *Service {
	return &Service{parser: parser, embedder: embedder, index: index}
}

// AddCourseDocument parses and indexes a single file. The catalog entry is
// embedded from the course title so fuzzy name resolution works; chunks are
// embedded as one batch.
func (s *Service) AddCourseDocument(ctx context.Context, path string) (course.Course, int, error) {
	c, chunks, err := s.parser.ParseFile(path)
	if err != nil {
		return course.Course{}, 0, err
	}
	count, err := s.indexCourse(ctx, c, chunks)
	if err != nil {
		return course.Course{}, 0, err
	}
	return c, count, nil
}

// AddCourseFolder indexes every course document directly under path, skipping
// titles already present so reloading the same folder is idempotent. A file
// that cannot be read or parsed is logged and skipped; the batch continues.
// Only embed and index failures abort the load. Returns the number of courses
// and chunks added.
func (s *Service) AddCourseFolder(ctx context.Context, path string, clearExisting bool) (int, int, error) {
	if clearExisting {
		slog.InfoContext(ctx, "clearing existing course data")
		if err := s.index.ClearAll(ctx); err != nil {
			return 0, 0, fmt.Errorf("clear index: %w", err)
		}
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return 0, 0, fmt.Errorf("read course folder: %w", err)
	}

	existing, err := s.index.ExistingCourseTitles(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list existing courses: %w", err)
	}

	coursesAdded, chunksAdded := 0, 0
	for _, entry := range entries {
		if entry.IsDir() || !isCourseFile(entry.Name()) {
			continue
		}
		filePath := filepath.Join(path, entry.Name())

		c, chunks, err := s.parser.ParseFile(filePath)
		if err != nil {
			slog.WarnContext(ctx, "skipping unreadable course document", "file", entry.Name(), "error", err)
			continue
		}
		if _, ok := existing[c.Title]; ok {
			continue
		}

		count, err := s.indexCourse(ctx, c, chunks)
		if err != nil {
			return coursesAdded, chunksAdded, err
		}

		existing[c.Title] = struct{}{}
		coursesAdded++
		chunksAdded += count
		slog.InfoContext(ctx, "course indexed", "title", c.Title, "chunks", count)
	}

	return coursesAdded, chunksAdded, nil
}

// indexCourse writes the catalog entry and all chunks for a parsed course.
func (s *Service) indexCourse(ctx context.Context, c course.Course, chunks []course.Chunk) (int, error) {
	titleVec, err := s.embedder.Embed(ctx, c.Title)
	if err != nil {
		return 0, fmt.Errorf("embed course title %q: %w", c.Title, err)
	}
	if err := s.index.UpsertCourse(ctx, c, titleVec); err != nil {
		return 0, fmt.Errorf("upsert course %q: %w", c.Title, err)
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed chunks for %q: %w", c.Title, err)
	}
	if err := s.index.UpsertChunks(ctx, chunks, vectors); err != nil {
		return 0, fmt.Errorf("upsert chunks for %q: %w", c.Title, err)
	}

	return len(chunks), nil
}

func (s *Service) CourseCount(ctx context.Context) (int, error) {
	return s.index.CourseCount(ctx)
}

func (s *Service) CourseTitles(ctx context.Context) ([]string, error) {
	return s.index.CourseTitles(ctx)
}

func isCourseFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".pdf", ".docx":
		return true
	}
	return false
}
