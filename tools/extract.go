package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	aichef "github.com/prasha-au/aichef"
)

// GetRecipeFromURL runs the extraction pipeline for a page URL. Repeat calls
// for the same page are served from the recipe store.
type GetRecipeFromURL struct{ fetcher RecipeFetcher }

func NewGetRecipeFromURL(fetcher RecipeFetcher) *GetRecipeFromURL {
	return &GetRecipeFromURL{fetcher: fetcher}
}

func (t *GetRecipeFromURL) Name() string  { return "get_recipe_from_url" }
func (t *GetRecipeFromURL) Title() string { return "Get Recipe From URL" }
func (t *GetRecipeFromURL) Description() string {
	return "Gets a recipe from a given URL."
}

func (t *GetRecipeFromURL) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"url": {Type: "string", Description: "The url to get the recipe from."},
		},
		Required: []string{"url"},
	}
}

func (t *GetRecipeFromURL) OutputSchema() *jsonschema.Schema {
	return aichef.RecipeSchema()
}

func (t *GetRecipeFromURL) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	u, ok := input["url"].(string)
	if !ok || strings.TrimSpace(u) == "" {
		return nil, fmt.Errorf("url is required")
	}

	recipe, err := t.fetcher.FromURL(ctx, u)
	if err != nil {
		return nil, err
	}

	b, err := json.Marshal(recipe)
	if err != nil {
		return nil, fmt.Errorf("serialize recipe: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("serialize recipe: %w", err)
	}
	return m, nil
}
