package vector

import (
	"context"

	"github.com/weaviate/weaviate/entities/models"
)

// The semantic index is split into two collections sharing one embedder:
// a catalog of course-level metadata used for fuzzy title resolution, and the
// chunked lesson content used for retrieval.
const (
	ClassCatalog = "CourseCatalog"
	ClassContent = "CourseChunk"
)

// SchemaClient defines the interface for Weaviate schema operations
type SchemaClient interface {
	ClassExists(ctx context.Context, className string) (bool, error)
	CreateClass(ctx context.Context, class *models.Class) error
	GetClass(ctx context.Context, className string) (*models.Class, error)
	AddProperty(ctx context.Context, className string, property *models.Property) error
	DeleteClass(ctx context.Context, className string) error
}

func catalogProperties() []*models.Property {
	return []*models.Property{
		{Name: "title", DataType: []string{"text"}},
		{Name: "instructor", DataType: []string{"text"}},
		{Name: "courseLink", DataType: []string{"string"}}, // URL, exact match only
		{Name: "lessonCount", DataType: []string{"int"}},
		{Name: "lessonsJson", DataType: []string{"text"}},
	}
}

func contentProperties() []*models.Property {
	return []*models.Property{
		{Name: "content", DataType: []string{"text"}},
		{Name: "courseTitle", DataType: []string{"string"}}, // filter key, exact match
		{Name: "lessonNumber", DataType: []string{"int"}},
		{Name: "chunkIndex", DataType: []string{"int"}},
	}
}

// EnsureSchema checks that both collections exist and creates or extends them
// as needed. Vectorizer is "none": embeddings are supplied by the caller.
func EnsureSchema(ctx context.Context, client SchemaClient) error {
	if err := ensureClass(ctx, client, ClassCatalog, "Course-level metadata for fuzzy name resolution", catalogProperties()); err != nil {
		return err
	}
	return ensureClass(ctx, client, ClassContent, "A chunk of lesson content", contentProperties())
}

// DropSchema deletes both collections together so catalog and content never
// drift out of sync.
func DropSchema(ctx context.Context, client SchemaClient) error {
	if err := client.DeleteClass(ctx, ClassCatalog); err != nil {
		return err
	}
	return client.DeleteClass(ctx, ClassContent)
}

func ensureClass(ctx context.Context, client SchemaClient, className, description string, properties []*models.Property) error {
	exists, err := client.ClassExists(ctx, className)
	if err != nil {
		return err
	}

	if !exists {
		class := &models.Class{
			Class:       className,
			Description: description,
			Vectorizer:  "none",
			Properties:  properties,
		}
		return client.CreateClass(ctx, class)
	}

	// Class exists, check for missing properties
	class, err := client.GetClass(ctx, className)
	if err != nil {
		return err
	}

	existingProps := make(map[string]bool)
	for _, p := range class.Properties {
		existingProps[p.Name] = true
	}

	for _, p := range properties {
		if !existingProps[p.Name] {
			if err := client.AddProperty(ctx, className, p); err != nil {
				return err
			}
		}
	}

	return nil
}
