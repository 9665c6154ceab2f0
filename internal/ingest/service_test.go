package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courserag/internal/course"
	"courserag/internal/docparse"
)

type fakeEmbedder struct {
	embedCalls []string
	batchCalls [][]string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.embedCalls = append(f.embedCalls, text)
	return []float32{0.1, 0.2}, nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.batchCalls = append(f.batchCalls, texts)
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{0.1, float32(i)}
	}
	return vectors, nil
}

type fakeIndex struct {
	cleared  bool
	existing map[string]struct{}
	courses  []course.Course
	chunks   []course.Chunk
}

func (f *fakeIndex) ClearAll(context.Context) error {
	f.cleared = true
	f.existing = map[string]struct{}{}
	f.courses = nil
	f.chunks = nil
	return nil
}

func (f *fakeIndex) UpsertCourse(_ context.Context, c course.Course, _ []float32) error {
	f.courses = append(f.courses, c)
	return nil
}

func (f *fakeIndex) UpsertChunks(_ context.Context, chunks []course.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("length mismatch")
	}
	f.chunks = append(f.chunks, chunks...)
	return nil
}

func (f *fakeIndex) ExistingCourseTitles(context.Context) (map[string]struct{}, error) {
	set := make(map[string]struct{}, len(f.existing))
	for k := range f.existing {
		set[k] = struct{}{}
	}
	return set, nil
}

func (f *fakeIndex) CourseTitles(context.Context) ([]string, error) {
	var titles []string
	for _, c := range f.courses {
		titles = append(titles, c.Title)
	}
	return titles, nil
}

func (f *fakeIndex) CourseCount(context.Context) (int, error) {
	return len(f.courses), nil
}

func writeDoc(t *testing.T, dir, name, title string) {
	t.Helper()
	content := fmt.Sprintf(`Course Title: %s
Course Link: https://example.com/course
Course Instructor: Jane Smith

Lesson 0: Introduction
Welcome to the course. This lesson covers the basics and sets expectations for everyone.

Lesson 1: Going Deeper
This lesson builds on the introduction. It explores the details with worked examples.
`, title)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func newTestService(embedder *fakeEmbedder, index *fakeIndex) *Service {
	return NewService(docparse.NewParser(120, 0), embedder, index)
}

func TestAddCourseFolder(t *testing.T) {
	t.Run("indexes every course document in the folder", func(t *testing.T) {
		dir := t.TempDir()
		writeDoc(t, dir, "course1.txt", "Course One")
		writeDoc(t, dir, "course2.txt", "Course Two")
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("ignore me"), 0o600))
		require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o750))

		embedder := &fakeEmbedder{}
		index := &fakeIndex{}
		svc := newTestService(embedder, index)

		courses, chunks, err := svc.AddCourseFolder(context.Background(), dir, false)

		require.NoError(t, err)
		assert.Equal(t, 2, courses)
		assert.Equal(t, len(index.chunks), chunks)
		assert.Greater(t, chunks, 0)
		assert.False(t, index.cleared)
		assert.ElementsMatch(t, []string{"Course One", "Course Two"}, embedder.embedCalls)
	})

	t.Run("skips titles already in the catalog", func(t *testing.T) {
		dir := t.TempDir()
		writeDoc(t, dir, "course1.txt", "Course One")
		writeDoc(t, dir, "course2.txt", "Course Two")

		embedder := &fakeEmbedder{}
		index := &fakeIndex{existing: map[string]struct{}{"Course One": {}}}
		svc := newTestService(embedder, index)

		courses, _, err := svc.AddCourseFolder(context.Background(), dir, false)

		require.NoError(t, err)
		assert.Equal(t, 1, courses)
		require.Len(t, index.courses, 1)
		assert.Equal(t, "Course Two", index.courses[0].Title)
	})

	t.Run("reload of the same folder is idempotent", func(t *testing.T) {
		dir := t.TempDir()
		writeDoc(t, dir, "course1.txt", "Course One")

		embedder := &fakeEmbedder{}
		index := &fakeIndex{}
		svc := newTestService(embedder, index)

		_, _, err := svc.AddCourseFolder(context.Background(), dir, false)
		require.NoError(t, err)
		index.existing = map[string]struct{}{"Course One": {}}

		courses, chunks, err := svc.AddCourseFolder(context.Background(), dir, false)
		require.NoError(t, err)
		assert.Zero(t, courses)
		assert.Zero(t, chunks)
		assert.Len(t, index.courses, 1)
	})

	t.Run("clearExisting wipes the index first", func(t *testing.T) {
		dir := t.TempDir()
		writeDoc(t, dir, "course1.txt", "Course One")

		index := &fakeIndex{existing: map[string]struct{}{"Course One": {}}}
		svc := newTestService(&fakeEmbedder{}, index)

		courses, _, err := svc.AddCourseFolder(context.Background(), dir, true)

		require.NoError(t, err)
		assert.True(t, index.cleared)
		assert.Equal(t, 1, courses)
	})

	t.Run("malformed document is skipped, batch continues", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.txt"), []byte("no header here"), 0o600))
		writeDoc(t, dir, "course1.txt", "Course One")

		svc := newTestService(&fakeEmbedder{}, &fakeIndex{})

		courses, _, err := svc.AddCourseFolder(context.Background(), dir, false)

		require.NoError(t, err)
		assert.Equal(t, 1, courses)
	})

	t.Run("unreadable file is skipped, later files still index", func(t *testing.T) {
		dir := t.TempDir()
		// Dangling symlink sorts first; reading it fails before parsing starts.
		require.NoError(t, os.Symlink(filepath.Join(dir, "missing.txt"), filepath.Join(dir, "aaa-broken.txt")))
		writeDoc(t, dir, "zzz-course.txt", "Course One")

		index := &fakeIndex{}
		svc := newTestService(&fakeEmbedder{}, index)

		courses, _, err := svc.AddCourseFolder(context.Background(), dir, false)

		require.NoError(t, err)
		assert.Equal(t, 1, courses)
		require.Len(t, index.courses, 1)
		assert.Equal(t, "Course One", index.courses[0].Title)
	})

	t.Run("missing folder is an error", func(t *testing.T) {
		svc := newTestService(&fakeEmbedder{}, &fakeIndex{})

		_, _, err := svc.AddCourseFolder(context.Background(), "/nonexistent/docs", false)

		assert.Error(t, err)
	})
}

func TestAddCourseDocument(t *testing.T) {
	t.Run("indexes both collections from one file", func(t *testing.T) {
		dir := t.TempDir()
		writeDoc(t, dir, "course1.txt", "Course One")

		embedder := &fakeEmbedder{}
		index := &fakeIndex{}
		svc := newTestService(embedder, index)

		c, chunks, err := svc.AddCourseDocument(context.Background(), filepath.Join(dir, "course1.txt"))

		require.NoError(t, err)
		assert.Equal(t, "Course One", c.Title)
		assert.Equal(t, len(index.chunks), chunks)
		require.Len(t, index.courses, 1)
		require.Len(t, embedder.batchCalls, 1)
		assert.Len(t, embedder.batchCalls[0], chunks)
	})

	t.Run("malformed file surfaces the parse error", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "broken.txt")
		require.NoError(t, os.WriteFile(path, []byte("not a course"), 0o600))

		svc := newTestService(&fakeEmbedder{}, &fakeIndex{})

		_, _, err := svc.AddCourseDocument(context.Background(), path)

		assert.ErrorIs(t, err, docparse.ErrMalformedDocument)
	})
}
