package search

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aichef "github.com/prasha-au/aichef"
	"github.com/prasha-au/aichef/llm"
	"github.com/prasha-au/aichef/store"
	"github.com/prasha-au/aichef/websearch"
)

type stubWeb struct {
	results []websearch.Result
	err     error
}

func (s stubWeb) Search(_ context.Context, _ string, _ int) ([]websearch.Result, error) {
	return s.results, s.err
}

type stubEmbedder struct {
	vec []float32
	err error
}

func (s stubEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return s.vec, s.err
}

func savedStore(t *testing.T) *store.Memory {
	t.Helper()
	mem := store.NewMemory()
	recipe := aichef.Recipe{
		Title:       "Saved Butter Chicken",
		Description: "The family favorite.",
		URL:         "https://example.com/recipes/butter-chicken",
	}
	content, err := json.Marshal(recipe)
	require.NoError(t, err)
	require.NoError(t, mem.Put(context.Background(), store.Entry{
		ID:        "example.com__recipes_butter-chicken",
		Content:   string(content),
		Vector:    []float32{1, 0},
		CreatedAt: time.Now(),
		URL:       recipe.URL,
	}))
	return mem
}

func passthroughClient(results ...[]aichef.SearchResult) *llm.ScriptedClient {
	steps := make([]llm.Response, 0, len(results))
	for _, r := range results {
		b, _ := json.Marshal(r)
		steps = append(steps, llm.Response{Content: string(b)})
	}
	return llm.NewScriptedClient(steps...)
}

func TestSearchMergesSavedAndWeb(t *testing.T) {
	web := stubWeb{results: []websearch.Result{
		{Title: "Web Tacos - TastySite", URL: "https://web.example/tacos", Summary: "Tacos from the web."},
	}}
	saved := []aichef.SearchResult{
		{Title: "Saved Butter Chicken", URL: "https://example.com/recipes/butter-chicken", Summary: "The family favorite.", Source: aichef.SourceSaved},
	}
	webCleaned := []aichef.SearchResult{
		{Title: "Web Tacos", URL: "https://web.example/tacos", Summary: "Tacos from the web.", Source: aichef.SourceWeb},
	}
	merged := append(append([]aichef.SearchResult{}, saved...), webCleaned...)

	client := passthroughClient(webCleaned, merged)
	agg := NewAggregator(web, savedStore(t), stubEmbedder{vec: []float32{1, 0}}, client, 10)

	results, err := agg.Search(context.Background(), "dinner ideas")
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, aichef.SourceSaved, results[0].Source)
	assert.Equal(t, "Saved Butter Chicken", results[0].Title)
	assert.Equal(t, aichef.SourceWeb, results[1].Source)
	assert.Equal(t, "Web Tacos", results[1].Title)
}

func TestSearchDropsInventedResults(t *testing.T) {
	web := stubWeb{results: []websearch.Result{
		{Title: "Real Result", URL: "https://web.example/real", Summary: "Exists."},
	}}

	cleaned := []aichef.SearchResult{
		{Title: "Real Result", URL: "https://web.example/real", Summary: "Exists.", Source: aichef.SourceWeb},
		{Title: "Hallucinated", URL: "https://web.example/fake", Summary: "Does not exist.", Source: aichef.SourceWeb},
	}
	merged := cleaned

	client := passthroughClient(cleaned, merged)
	agg := NewAggregator(web, store.NewMemory(), stubEmbedder{vec: []float32{1}}, client, 10)

	results, err := agg.Search(context.Background(), "anything")
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "https://web.example/real", results[0].URL)
}

func TestSearchWebFallsBackToRawOnCleanupFailure(t *testing.T) {
	web := stubWeb{results: []websearch.Result{
		{Title: "Raw Result - SomeSite", URL: "https://web.example/raw", Summary: "Raw summary."},
	}}

	// Cleanup pass errors out; raw results must survive.
	client := llm.NewScriptedClient().FailAt(0, fmt.Errorf("model down"))
	agg := NewAggregator(web, store.NewMemory(), stubEmbedder{}, client, 10)

	results, err := agg.SearchWeb(context.Background(), "anything")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Raw Result - SomeSite", results[0].Title)
	assert.Equal(t, aichef.SourceWeb, results[0].Source)
}

func TestSearchBothSidesFailingReturnsEmptyList(t *testing.T) {
	web := stubWeb{err: fmt.Errorf("search api down")}
	agg := NewAggregator(web, store.NewMemory(), stubEmbedder{err: fmt.Errorf("embedder down")}, llm.NewScriptedClient(), 10)

	results, err := agg.Search(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchFallsBackToCandidateOrderOnMergeFailure(t *testing.T) {
	web := stubWeb{results: []websearch.Result{
		{Title: "Web Result", URL: "https://web.example/one", Summary: "One."},
	}}
	webCleaned := []aichef.SearchResult{
		{Title: "Web Result", URL: "https://web.example/one", Summary: "One.", Source: aichef.SourceWeb},
	}

	client := passthroughClient(webCleaned)
	client.FailAt(1, fmt.Errorf("model down"))
	agg := NewAggregator(web, savedStore(t), stubEmbedder{vec: []float32{1, 0}}, client, 10)

	results, err := agg.Search(context.Background(), "butter chicken")
	require.NoError(t, err)

	// Fallback ordering is saved first, then web.
	require.Len(t, results, 2)
	assert.Equal(t, aichef.SourceSaved, results[0].Source)
	assert.Equal(t, aichef.SourceWeb, results[1].Source)
}

func TestSearchSavedMapsStoredRecipes(t *testing.T) {
	agg := NewAggregator(stubWeb{}, savedStore(t), stubEmbedder{vec: []float32{1, 0}}, llm.NewScriptedClient(), 10)

	results, err := agg.SearchSaved(context.Background(), "butter chicken")
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "Saved Butter Chicken", results[0].Title)
	assert.Equal(t, "https://example.com/recipes/butter-chicken", results[0].URL)
	assert.Equal(t, "The family favorite.", results[0].Summary)
	assert.Equal(t, aichef.SourceSaved, results[0].Source)
}

func TestSearchSavedPropagatesStoreUnavailable(t *testing.T) {
	failing := store.Failing{Err: store.ErrUnavailable}
	agg := NewAggregator(stubWeb{}, failing, stubEmbedder{vec: []float32{1}}, llm.NewScriptedClient(), 10)

	_, err := agg.SearchSaved(context.Background(), "anything")
	assert.ErrorIs(t, err, store.ErrUnavailable)
}
