package store

import (
	"context"
	"fmt"
	"time"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

const className = "Recipe"

// Weaviate is the production Store, holding recipe content as object
// properties and the embedding as the object vector.
type Weaviate struct {
	client *weaviate.Client
}

func NewWeaviate(client *weaviate.Client) *Weaviate {
	return &Weaviate{client: client}
}

// EnsureSchema creates the Recipe class on first use. Vectorizer is "none":
// vectors are computed by the extraction pipeline, not by Weaviate.
func (s *Weaviate) EnsureSchema(ctx context.Context) error {
	exists, err := s.client.Schema().ClassExistenceChecker().WithClassName(className).Do(ctx)
	if err != nil {
		return fmt.Errorf("%w: check class: %v", ErrUnavailable, err)
	}
	if exists {
		return nil
	}

	class := &models.Class{
		Class:       className,
		Description: "An extracted recipe and its embedding",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{Name: "docId", DataType: []string{"string"}},
			{Name: "content", DataType: []string{"text"}},
			{Name: "url", DataType: []string{"string"}},
			{Name: "createdAt", DataType: []string{"date"}},
		},
	}
	if err := s.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return fmt.Errorf("%w: create class: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *Weaviate) GetByID(ctx context.Context, id string) (Entry, error) {
	where := filters.Where().
		WithPath([]string{"docId"}).
		WithOperator(filters.Equal).
		WithValueString(id)

	res, err := s.client.GraphQL().Get().
		WithClassName(className).
		WithWhere(where).
		WithLimit(1).
		WithFields(entryFields()...).
		Do(ctx)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: get %s: %v", ErrUnavailable, id, err)
	}
	if len(res.Errors) > 0 {
		return Entry{}, fmt.Errorf("%w: get %s: graphql error: %v", ErrUnavailable, id, res.Errors)
	}

	entries := entriesFromResponse(res.Data)
	if len(entries) == 0 {
		return Entry{}, ErrNotFound
	}
	return entries[0], nil
}

func (s *Weaviate) Put(ctx context.Context, entry Entry) error {
	objectID := ObjectUUID(entry.ID)

	// Overwrites are allowed: drop any object already under this key, then
	// write content and vector in one create.
	_ = s.client.Data().Deleter().WithClassName(className).WithID(objectID).Do(ctx)

	_, err := s.client.Data().Creator().
		WithClassName(className).
		WithID(objectID).
		WithProperties(map[string]interface{}{
			"docId":     entry.ID,
			"content":   entry.Content,
			"url":       entry.URL,
			"createdAt": entry.CreatedAt.Format(time.RFC3339),
		}).
		WithVector(entry.Vector).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("%w: put %s: %v", ErrUnavailable, entry.ID, err)
	}
	return nil
}

func (s *Weaviate) NearestNeighbors(ctx context.Context, vector []float32, limit int) ([]Entry, error) {
	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(vector)

	res, err := s.client.GraphQL().Get().
		WithClassName(className).
		WithNearVector(nearVector).
		WithLimit(limit).
		WithFields(entryFields()...).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: nearest neighbors: %v", ErrUnavailable, err)
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("%w: nearest neighbors: graphql error: %v", ErrUnavailable, res.Errors)
	}

	return entriesFromResponse(res.Data), nil
}

func entryFields() []graphql.Field {
	return []graphql.Field{
		{Name: "docId"},
		{Name: "content"},
		{Name: "url"},
		{Name: "createdAt"},
	}
}

func entriesFromResponse(data map[string]models.JSONObject) []Entry {
	var entries []Entry
	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return entries
	}
	objects, ok := get[className].([]interface{})
	if !ok {
		return entries
	}
	for _, o := range objects {
		props, ok := o.(map[string]interface{})
		if !ok {
			continue
		}
		var entry Entry
		if v, ok := props["docId"].(string); ok {
			entry.ID = v
		}
		if v, ok := props["content"].(string); ok {
			entry.Content = v
		}
		if v, ok := props["url"].(string); ok {
			entry.URL = v
		}
		if v, ok := props["createdAt"].(string); ok {
			if ts, err := time.Parse(time.RFC3339, v); err == nil {
				entry.CreatedAt = ts
			}
		}
		entries = append(entries, entry)
	}
	return entries
}
