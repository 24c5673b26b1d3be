// Package search aggregates recipe results from the open web and the private
// store into one ranked list.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
	"go.opentelemetry.io/otel"

	aichef "github.com/prasha-au/aichef"
	"github.com/prasha-au/aichef/llm"
	"github.com/prasha-au/aichef/store"
	"github.com/prasha-au/aichef/websearch"
)

// WebSearcher is the slice of the web search client the aggregator needs.
type WebSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]websearch.Result, error)
}

const defaultLimit = 10

// Aggregator fans a query out to web and saved search, cleans the web side up
// with a model pass, and merges both into one ranked list. Sub-search failures
// degrade to an empty contribution, never an error.
type Aggregator struct {
	web      WebSearcher
	store    store.Store
	embedder aichef.Embedder
	llm      llm.Client
	limit    int
}

func NewAggregator(web WebSearcher, st store.Store, embedder aichef.Embedder, llmClient llm.Client, limit int) *Aggregator {
	if limit <= 0 {
		limit = defaultLimit
	}
	return &Aggregator{
		web:      web,
		store:    st,
		embedder: embedder,
		llm:      llmClient,
		limit:    limit,
	}
}

const cleanupSystem = `Clean the JSON list of recipe search results by:
- Excluding any results that have irrelevant data.
- Excluding any social media sites like Facebook, Instagram, etc.
- Removing the website name from the title.
- Editing the summary so it is a couple of concise sentences if required.
Never add results that are not in the input and never change a url.`

const mergeSystem = `You are a recipe search engine. You will ONLY return data from the candidates provided and not search for or create any new items.
Order the values based on relevance to the query but prefer saved recipes if relevant.
Reply with an ordered list of recipes aiming for 10 items with both web and saved recipes.`

// Search returns the merged, ranked result list for query. Both sides failing
// yields an empty list, not an error.
func (a *Aggregator) Search(ctx context.Context, query string) ([]aichef.SearchResult, error) {
	ctx, span := otel.Tracer(aichef.TracerNameSearch).Start(ctx, "Aggregator.Search")
	defer span.End()

	web, err := a.SearchWeb(ctx, query)
	if err != nil {
		slog.Warn("SEARCH: Web search failed, continuing without it", "error", err)
		web = nil
	}

	saved, err := a.SearchSaved(ctx, query)
	if err != nil {
		slog.Warn("SEARCH: Saved search failed, continuing without it", "error", err)
		saved = nil
	}

	// Saved first so the fallback ordering already prefers them.
	candidates := make([]aichef.SearchResult, 0, len(saved)+len(web))
	candidates = append(candidates, saved...)
	candidates = append(candidates, web...)
	if len(candidates) == 0 {
		return []aichef.SearchResult{}, nil
	}

	merged := a.rank(ctx, query, candidates)
	if len(merged) > a.limit {
		merged = merged[:a.limit]
	}
	return merged, nil
}

// SearchWeb queries the web and runs the cleanup pass. Cleanup failure falls
// back to the raw results.
func (a *Aggregator) SearchWeb(ctx context.Context, query string) ([]aichef.SearchResult, error) {
	raw, err := a.web.Search(ctx, query, a.limit)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return []aichef.SearchResult{}, nil
	}

	results := make([]aichef.SearchResult, 0, len(raw))
	for _, r := range raw {
		results = append(results, aichef.SearchResult{
			Title:   r.Title,
			URL:     r.URL,
			Summary: r.Summary,
			Source:  aichef.SourceWeb,
		})
	}

	cleaned, err := a.modelPass(ctx, cleanupSystem, query, results, false)
	if err != nil {
		slog.Warn("SEARCH: Cleanup pass failed, using raw results", "error", err)
		return results, nil
	}
	return clampToCandidates(cleaned, results), nil
}

// SearchSaved embeds the query and looks up nearest stored recipes.
func (a *Aggregator) SearchSaved(ctx context.Context, query string) ([]aichef.SearchResult, error) {
	vector, err := a.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	entries, err := a.store.NearestNeighbors(ctx, vector, a.limit)
	if err != nil {
		return nil, err
	}

	results := make([]aichef.SearchResult, 0, len(entries))
	for _, entry := range entries {
		var recipe aichef.Recipe
		if err := json.Unmarshal([]byte(entry.Content), &recipe); err != nil {
			slog.Warn("SEARCH: Skipping unreadable stored recipe", "id", entry.ID, "error", err)
			continue
		}
		results = append(results, aichef.SearchResult{
			Title:   recipe.Title,
			URL:     entry.URL,
			Summary: recipe.Description,
			Source:  aichef.SourceSaved,
		})
	}
	return results, nil
}

// rank runs the merge pass. The model only orders and filters; every returned
// result is mechanically replaced by its candidate with the same URL, so
// invented results cannot survive. Merge failure falls back to candidate order.
func (a *Aggregator) rank(ctx context.Context, query string, candidates []aichef.SearchResult) []aichef.SearchResult {
	prompt := fmt.Sprintf("Query: %s\n\nCandidates (JSON):\n%s", query, mustJSON(candidates))

	out, err := llm.GenerateStructured(ctx, a.llm, llm.StructuredRequest{
		System: mergeSystem,
		Prompt: prompt,
		Schema: resultListSchema(true),
	})
	if err != nil {
		slog.Warn("SEARCH: Merge pass failed, using candidate order", "error", err)
		return candidates
	}

	var ranked []aichef.SearchResult
	if err := json.Unmarshal(out, &ranked); err != nil {
		slog.Warn("SEARCH: Merge output unreadable, using candidate order", "error", err)
		return candidates
	}

	clamped := clampToCandidates(ranked, candidates)
	if len(clamped) == 0 {
		return candidates
	}
	return clamped
}

// modelPass sends results through a structured model call and parses the list back.
func (a *Aggregator) modelPass(ctx context.Context, system, query string, results []aichef.SearchResult, withSource bool) ([]aichef.SearchResult, error) {
	prompt := fmt.Sprintf("Query: %s\n\n\"\"\"json\n%s\n\"\"\"", query, mustJSON(results))

	out, err := llm.GenerateStructured(ctx, a.llm, llm.StructuredRequest{
		System: system,
		Prompt: prompt,
		Schema: resultListSchema(withSource),
	})
	if err != nil {
		return nil, err
	}

	var cleaned []aichef.SearchResult
	if err := json.Unmarshal(out, &cleaned); err != nil {
		return nil, fmt.Errorf("parse model output: %w", err)
	}
	return cleaned, nil
}

// clampToCandidates keeps the model's ordering and title/summary edits but
// only for URLs present in the candidate set; source always comes from the
// candidate. Duplicates and inventions are dropped.
func clampToCandidates(ranked, candidates []aichef.SearchResult) []aichef.SearchResult {
	byURL := make(map[string]aichef.SearchResult, len(candidates))
	for _, c := range candidates {
		byURL[c.URL] = c
	}

	seen := make(map[string]bool, len(ranked))
	out := make([]aichef.SearchResult, 0, len(ranked))
	for _, r := range ranked {
		c, ok := byURL[r.URL]
		if !ok || seen[r.URL] {
			continue
		}
		seen[r.URL] = true

		keep := c
		if r.Title != "" {
			keep.Title = r.Title
		}
		if r.Summary != "" {
			keep.Summary = r.Summary
		}
		out = append(out, keep)
	}
	return out
}

func resultListSchema(withSource bool) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:  "array",
		Items: aichef.SearchResultSchema(withSource),
	}
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}
