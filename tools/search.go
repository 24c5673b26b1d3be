package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	aichef "github.com/prasha-au/aichef"
)

func searchInputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"query": {Type: "string", Description: "The user query."},
		},
		Required: []string{"query"},
	}
}

func searchOutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"results": {Type: "array", Items: aichef.SearchResultSchema(true)},
		},
		Required: []string{"results"},
	}
}

func searchResultsOutput(results []aichef.SearchResult) (map[string]any, error) {
	if results == nil {
		results = []aichef.SearchResult{}
	}
	b, err := json.Marshal(map[string]any{"results": results})
	if err != nil {
		return nil, fmt.Errorf("serialize results: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("serialize results: %w", err)
	}
	return m, nil
}

func queryFromInput(input map[string]any) (string, error) {
	query, ok := input["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return "", fmt.Errorf("query is required")
	}
	return query, nil
}

type SearchWeb struct{ search Searcher }

func NewSearchWeb(search Searcher) *SearchWeb { return &SearchWeb{search: search} }

func (t *SearchWeb) Name() string  { return "search_web" }
func (t *SearchWeb) Title() string { return "Search Web For Recipes" }
func (t *SearchWeb) Description() string {
	return "Searches the web for recipes based on a user query."
}

func (t *SearchWeb) InputSchema() *jsonschema.Schema  { return searchInputSchema() }
func (t *SearchWeb) OutputSchema() *jsonschema.Schema { return searchOutputSchema() }

func (t *SearchWeb) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	query, err := queryFromInput(input)
	if err != nil {
		return nil, err
	}
	results, err := t.search.SearchWeb(ctx, query)
	if err != nil {
		return nil, err
	}
	return searchResultsOutput(results)
}

type SearchStore struct{ search Searcher }

func NewSearchStore(search Searcher) *SearchStore { return &SearchStore{search: search} }

func (t *SearchStore) Name() string  { return "search_store" }
func (t *SearchStore) Title() string { return "Search Saved Recipes" }
func (t *SearchStore) Description() string {
	return "Searches for saved recipes in the database based on a user query."
}

func (t *SearchStore) InputSchema() *jsonschema.Schema  { return searchInputSchema() }
func (t *SearchStore) OutputSchema() *jsonschema.Schema { return searchOutputSchema() }

func (t *SearchStore) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	query, err := queryFromInput(input)
	if err != nil {
		return nil, err
	}
	results, err := t.search.SearchSaved(ctx, query)
	if err != nil {
		return nil, err
	}
	return searchResultsOutput(results)
}
