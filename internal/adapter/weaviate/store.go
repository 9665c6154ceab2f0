// Package weaviate implements the two-collection semantic index on top of a
// Weaviate instance: CourseCatalog for fuzzy title resolution and CourseChunk
// for content retrieval. Both collections are written together at load time
// and rebuilt together on a full clear, so they never drift apart.
package weaviate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"courserag/internal/course"
	"courserag/internal/retrieval"
	"courserag/internal/vector"
)

// objectID derives a stable UUID from a collection key so reloading a course
// writes over its previous objects instead of accumulating duplicates.
func objectID(key string) strfmt.UUID {
	return strfmt.UUID(uuid.NewSHA1(uuid.NameSpaceURL, []byte("courserag/"+key)).String())
}

type Store struct {
	client *weaviate.Client
}

func NewStore(client *weaviate.Client) *Store {
	return &Store{client: client}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	return vector.EnsureSchema(ctx, vector.NewWeaviateClientAdapter(s.client))
}

// ClearAll drops and recreates both collections.
func (s *Store) ClearAll(ctx context.Context) error {
	adapter := vector.NewWeaviateClientAdapter(s.client)
	if err := vector.DropSchema(ctx, adapter); err != nil {
		return err
	}
	return vector.EnsureSchema(ctx, adapter)
}

// UpsertCourse writes one catalog entry. The course title itself is the
// embedded document so that fuzzy name lookups are a nearest-neighbor search.
func (s *Store) UpsertCourse(ctx context.Context, c course.Course, vec []float32) error {
	lessonsJSON, err := json.Marshal(c.Lessons)
	if err != nil {
		return err
	}

	obj := &models.Object{
		Class: vector.ClassCatalog,
		ID:    objectID(c.Title),
		Properties: map[string]interface{}{
			"title":       c.Title,
			"instructor":  c.Instructor,
			"courseLink":  c.Link,
			"lessonCount": len(c.Lessons),
			"lessonsJson": string(lessonsJSON),
		},
		Vector: vec,
	}
	return s.batchWrite(ctx, obj)
}

// UpsertChunks writes content entries keyed "{courseTitle}_{chunkIndex}".
// A missing lesson number is stored as -1 so the property stays filterable.
func (s *Store) UpsertChunks(ctx context.Context, chunks []course.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d != %d", len(chunks), len(vectors))
	}

	objects := make([]*models.Object, len(chunks))
	for i, chunk := range chunks {
		lessonNumber := -1
		if chunk.LessonNumber != nil {
			lessonNumber = *chunk.LessonNumber
		}
		key := fmt.Sprintf("%s_%d", chunk.CourseTitle, chunk.Index)
		objects[i] = &models.Object{
			Class: vector.ClassContent,
			ID:    objectID(key),
			Properties: map[string]interface{}{
				"content":      chunk.Content,
				"courseTitle":  chunk.CourseTitle,
				"lessonNumber": lessonNumber,
				"chunkIndex":   chunk.Index,
			},
			Vector: vectors[i],
		}
	}
	return s.batchWrite(ctx, objects...)
}

// batchWrite puts objects through the batch API, which overwrites on ID
// collision; the single-object creator rejects existing ids.
func (s *Store) batchWrite(ctx context.Context, objects ...*models.Object) error {
	if len(objects) == 0 {
		return nil
	}
	resp, err := s.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return err
	}
	for _, res := range resp {
		if res.Result != nil && res.Result.Errors != nil && len(res.Result.Errors.Error) > 0 {
			return fmt.Errorf("batch write %s: %s", res.ID, res.Result.Errors.Error[0].Message)
		}
	}
	return nil
}

// ResolveCourseName returns the stored title closest to the query vector, or
// "" when the catalog is empty. No distance threshold is applied.
func (s *Store) ResolveCourseName(ctx context.Context, vec []float32) (string, error) {
	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(vec)

	res, err := s.client.GraphQL().Get().
		WithClassName(vector.ClassCatalog).
		WithNearVector(nearVector).
		WithLimit(1).
		WithFields(graphql.Field{Name: "title"}).
		Do(ctx)
	if err != nil {
		return "", err
	}
	if len(res.Errors) > 0 {
		return "", fmt.Errorf("graphql error: %v", res.Errors)
	}

	for _, props := range classObjects(res.Data, vector.ClassCatalog) {
		if title, ok := props["title"].(string); ok {
			return title, nil
		}
	}
	return "", nil
}

// QueryContent runs a nearest-neighbor search over the content collection,
// optionally narrowed by an equality filter on course title and/or lesson
// number (AND when both are present).
func (s *Store) QueryContent(ctx context.Context, vec []float32, courseTitle string, lessonNumber *int, limit int) ([]retrieval.SearchResult, error) {
	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(vec)

	fields := []graphql.Field{
		{Name: "content"},
		{Name: "courseTitle"},
		{Name: "lessonNumber"},
		{Name: "chunkIndex"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}}},
	}

	query := s.client.GraphQL().Get().
		WithClassName(vector.ClassContent).
		WithNearVector(nearVector).
		WithLimit(limit).
		WithFields(fields...)

	if where := contentFilter(courseTitle, lessonNumber); where != nil {
		query = query.WithWhere(where)
	}

	res, err := query.Do(ctx)
	if err != nil {
		return nil, err
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %v", res.Errors)
	}

	var results []retrieval.SearchResult
	for _, props := range classObjects(res.Data, vector.ClassContent) {
		result := retrieval.SearchResult{
			Metadata: make(map[string]interface{}),
		}
		if content, ok := props["content"].(string); ok {
			result.Content = content
		}
		if title, ok := props["courseTitle"].(string); ok {
			result.CourseTitle = title
			result.Metadata["course_title"] = title
		}
		if n, ok := props["lessonNumber"].(float64); ok && int(n) >= 0 {
			lesson := int(n)
			result.LessonNumber = &lesson
			result.Metadata["lesson_number"] = lesson
		}
		if idx, ok := props["chunkIndex"].(float64); ok {
			result.ChunkIndex = int(idx)
			result.Metadata["chunk_index"] = int(idx)
		}
		if additional, ok := props["_additional"].(map[string]interface{}); ok {
			if distance, ok := additional["distance"].(float64); ok {
				result.Distance = float32(distance)
			}
		}
		results = append(results, result)
	}
	return results, nil
}

// ExistingCourseTitles lists the catalog titles for dedup on reload.
func (s *Store) ExistingCourseTitles(ctx context.Context) (map[string]struct{}, error) {
	titles, err := s.CourseTitles(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(titles))
	for _, t := range titles {
		set[t] = struct{}{}
	}
	return set, nil
}

func (s *Store) CourseTitles(ctx context.Context) ([]string, error) {
	res, err := s.client.GraphQL().Get().
		WithClassName(vector.ClassCatalog).
		WithLimit(10000).
		WithFields(graphql.Field{Name: "title"}).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %v", res.Errors)
	}

	var titles []string
	for _, props := range classObjects(res.Data, vector.ClassCatalog) {
		if title, ok := props["title"].(string); ok {
			titles = append(titles, title)
		}
	}
	return titles, nil
}

func (s *Store) CourseCount(ctx context.Context) (int, error) {
	return s.aggregateCount(ctx, vector.ClassCatalog)
}

func (s *Store) CountChunks(ctx context.Context) (int, error) {
	return s.aggregateCount(ctx, vector.ClassContent)
}

// GetCourse reads one catalog entry back, including the lesson list stored as
// JSON. The second return is false when the title is not in the catalog.
func (s *Store) GetCourse(ctx context.Context, title string) (course.Course, bool, error) {
	where := filters.Where().
		WithPath([]string{"title"}).
		WithOperator(filters.Equal).
		WithValueString(title)

	res, err := s.client.GraphQL().Get().
		WithClassName(vector.ClassCatalog).
		WithWhere(where).
		WithLimit(1).
		WithFields(
			graphql.Field{Name: "title"},
			graphql.Field{Name: "instructor"},
			graphql.Field{Name: "courseLink"},
			graphql.Field{Name: "lessonsJson"},
		).
		Do(ctx)
	if err != nil {
		return course.Course{}, false, err
	}
	if len(res.Errors) > 0 {
		return course.Course{}, false, fmt.Errorf("graphql error: %v", res.Errors)
	}

	for _, props := range classObjects(res.Data, vector.ClassCatalog) {
		c := course.Course{}
		if t, ok := props["title"].(string); ok {
			c.Title = t
		}
		if instr, ok := props["instructor"].(string); ok {
			c.Instructor = instr
		}
		if link, ok := props["courseLink"].(string); ok {
			c.Link = link
		}
		if lessonsJSON, ok := props["lessonsJson"].(string); ok && lessonsJSON != "" {
			if err := json.Unmarshal([]byte(lessonsJSON), &c.Lessons); err != nil {
				return course.Course{}, false, fmt.Errorf("decode lessons for %q: %w", title, err)
			}
		}
		return c, true, nil
	}
	return course.Course{}, false, nil
}

func (s *Store) aggregateCount(ctx context.Context, className string) (int, error) {
	res, err := s.client.GraphQL().Aggregate().
		WithClassName(className).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil {
		return 0, err
	}
	if len(res.Errors) > 0 {
		return 0, fmt.Errorf("graphql error: %v", res.Errors)
	}

	if data, ok := res.Data["Aggregate"].(map[string]interface{}); ok {
		if rows, ok := data[className].([]interface{}); ok && len(rows) > 0 {
			if row, ok := rows[0].(map[string]interface{}); ok {
				if meta, ok := row["meta"].(map[string]interface{}); ok {
					if count, ok := meta["count"].(float64); ok {
						return int(count), nil
					}
				}
			}
		}
	}
	return 0, nil
}

func contentFilter(courseTitle string, lessonNumber *int) *filters.WhereBuilder {
	var operands []*filters.WhereBuilder
	if courseTitle != "" {
		operands = append(operands, filters.Where().
			WithPath([]string{"courseTitle"}).
			WithOperator(filters.Equal).
			WithValueString(courseTitle))
	}
	if lessonNumber != nil {
		operands = append(operands, filters.Where().
			WithPath([]string{"lessonNumber"}).
			WithOperator(filters.Equal).
			WithValueInt(int64(*lessonNumber)))
	}

	switch len(operands) {
	case 0:
		return nil
	case 1:
		return operands[0]
	default:
		return filters.Where().WithOperator(filters.And).WithOperands(operands)
	}
}

func classObjects(data map[string]models.JSONObject, className string) []map[string]interface{} {
	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return nil
	}
	rows, ok := get[className].([]interface{})
	if !ok {
		return nil
	}
	var objects []map[string]interface{}
	for _, row := range rows {
		if props, ok := row.(map[string]interface{}); ok {
			objects = append(objects, props)
		}
	}
	return objects
}
