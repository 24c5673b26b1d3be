// Package extract turns a recipe page URL into a validated, stored Recipe.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
	"go.opentelemetry.io/otel"

	aichef "github.com/prasha-au/aichef"
	"github.com/prasha-au/aichef/llm"
	"github.com/prasha-au/aichef/store"
	"github.com/prasha-au/aichef/units"
)

var (
	// ErrFetchFailed means the page could not be retrieved.
	ErrFetchFailed = errors.New("failed to fetch recipe page")
	// ErrNoRecipeContent means the page fetched but held nothing extractable.
	ErrNoRecipeContent = errors.New("no recipe content on page")
	// ErrExtractionFailed means the model could not produce a valid recipe
	// from the page content.
	ErrExtractionFailed = errors.New("recipe extraction failed")
)

// Extractor runs the fetch, extract, embed, persist pipeline. Results are
// cached by doc id, so extracting the same page twice costs one fetch.
type Extractor struct {
	httpClient aichef.HTTPClient
	llm        llm.Client
	embedder   aichef.Embedder
	store      store.Store
}

func New(httpClient aichef.HTTPClient, llmClient llm.Client, embedder aichef.Embedder, st store.Store) *Extractor {
	return &Extractor{
		httpClient: httpClient,
		llm:        llmClient,
		embedder:   embedder,
		store:      st,
	}
}

const extractionSystem = `You are a HTML recipe data extractor. Your only task is to pull out recipe data from the provided HTML content.
Do not rephrase, summarize, interpret, reorder or modify the text in any way.
Keep ingredient names simple and put alternative values in the notes field.
Strip styled note markers and drop reviewer or comment sections.
Use the convert_units tool for any imperial quantities; stored recipes never contain pounds or ounces.`

// FromURL fetches, extracts, and stores the recipe at rawURL. A recipe
// already stored under the page's doc id is returned without any network
// work.
func (e *Extractor) FromURL(ctx context.Context, rawURL string) (*aichef.Recipe, error) {
	ctx, span := otel.Tracer(aichef.TracerNameExtractor).Start(ctx, "Extractor.FromURL")
	defer span.End()

	simpleURL, err := store.SimplifyURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	docID, err := store.DocID(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	entry, err := e.store.GetByID(ctx, docID)
	if err == nil {
		slog.Info("EXTRACTOR: Recipe already stored", "doc_id", docID)
		var recipe aichef.Recipe
		if uerr := json.Unmarshal([]byte(entry.Content), &recipe); uerr == nil {
			return &recipe, nil
		}
		slog.Warn("EXTRACTOR: Stored entry is unreadable, re-extracting", "doc_id", docID)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("check stored recipe: %w", err)
	}

	page, err := e.fetch(ctx, simpleURL)
	if err != nil {
		return nil, err
	}

	fragment, err := SelectFragment(page)
	if err != nil {
		return nil, err
	}

	recipe, err := e.extractRecipe(ctx, fragment)
	if err != nil {
		return nil, err
	}
	recipe.URL = simpleURL

	recipe.Normalize()
	if verr := recipe.Validate(); verr != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, verr)
	}

	content, err := json.Marshal(recipe)
	if err != nil {
		return nil, fmt.Errorf("serialize recipe: %w", err)
	}

	vector, err := e.embedder.Embed(ctx, string(content))
	if err != nil {
		return nil, fmt.Errorf("embed recipe: %w", err)
	}

	if err := e.store.Put(ctx, store.Entry{
		ID:        docID,
		Content:   string(content),
		Vector:    vector,
		CreatedAt: time.Now().UTC(),
		URL:       simpleURL,
	}); err != nil {
		return nil, fmt.Errorf("store recipe: %w", err)
	}

	slog.Info("EXTRACTOR: Stored recipe", "doc_id", docID, "title", recipe.Title)
	return recipe, nil
}

func (e *Extractor) fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s returned %s", ErrFetchFailed, pageURL, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	return string(body), nil
}

func (e *Extractor) extractRecipe(ctx context.Context, fragment string) (*aichef.Recipe, error) {
	out, err := llm.GenerateStructured(ctx, e.llm, llm.StructuredRequest{
		System: extractionSystem,
		Prompt: "Content:\"\"\"\n" + fragment + "\n\"\"\"",
		Schema: aichef.RecipeSchema(),
		Tools:  []llm.StructuredTool{convertUnitsTool{}},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	var recipe aichef.Recipe
	if err := json.Unmarshal(out, &recipe); err != nil {
		return nil, fmt.Errorf("%w: parse model output: %v", ErrExtractionFailed, err)
	}
	return &recipe, nil
}

// convertUnitsTool lets the extraction model normalize imperial quantities
// while it builds the structured recipe.
type convertUnitsTool struct{}

func (convertUnitsTool) Name() string { return "convert_units" }

func (convertUnitsTool) Description() string {
	return "Converts an imperial quantity (pounds, ounces) to its stored metric equivalent."
}

func (convertUnitsTool) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"amount": {Type: "number"},
			"unit":   {Type: "string"},
		},
		Required: []string{"amount", "unit"},
	}
}

func (convertUnitsTool) Run(_ context.Context, input map[string]any) (map[string]any, error) {
	amount, ok := input["amount"].(float64)
	if !ok {
		return nil, fmt.Errorf("amount must be a number")
	}
	unit, ok := input["unit"].(string)
	if !ok {
		return nil, fmt.Errorf("unit must be a string")
	}

	q, err := units.Convert(amount, unit)
	if err != nil {
		return nil, err
	}
	return map[string]any{"amount": q.Amount, "unit": q.Unit}, nil
}
