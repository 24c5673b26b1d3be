package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	aichef "github.com/prasha-au/aichef"
)

// queryEscape escapes a string for use in a redirect path. Spaces become %20
// so the paths match what the browser client expects.
func queryEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func successSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"success": {Type: "boolean"},
		},
		Required: []string{"success"},
	}
}

// recipeFromInput round-trips a tool input map into a validated Recipe.
func recipeFromInput(input map[string]any) (*aichef.Recipe, error) {
	b, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("recipe is not serializable: %w", err)
	}
	var recipe aichef.Recipe
	if err := json.Unmarshal(b, &recipe); err != nil {
		return nil, fmt.Errorf("recipe does not match the expected shape: %w", err)
	}
	recipe.Normalize()
	if err := recipe.Validate(); err != nil {
		return nil, err
	}
	return &recipe, nil
}

type GetCurrentRecipe struct{ state *aichef.ChatState }

func NewGetCurrentRecipe(state *aichef.ChatState) *GetCurrentRecipe {
	return &GetCurrentRecipe{state: state}
}

func (t *GetCurrentRecipe) Name() string  { return "get_current_recipe" }
func (t *GetCurrentRecipe) Title() string { return "Get Current Recipe" }
func (t *GetCurrentRecipe) Description() string {
	return "Gets the recipe the user is currently viewing."
}

func (t *GetCurrentRecipe) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object"}
}

func (t *GetCurrentRecipe) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"recipe": aichef.RecipeSchema(),
		},
	}
}

func (t *GetCurrentRecipe) Run(_ context.Context, _ map[string]any) (map[string]any, error) {
	if t.state.Recipe == nil {
		return map[string]any{"recipe": nil}, nil
	}
	b, err := json.Marshal(t.state.Recipe)
	if err != nil {
		return nil, fmt.Errorf("serialize current recipe: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("serialize current recipe: %w", err)
	}
	return map[string]any{"recipe": m}, nil
}

type SetCurrentRecipe struct{ state *aichef.ChatState }

func NewSetCurrentRecipe(state *aichef.ChatState) *SetCurrentRecipe {
	return &SetCurrentRecipe{state: state}
}

func (t *SetCurrentRecipe) Name() string  { return "set_current_recipe" }
func (t *SetCurrentRecipe) Title() string { return "Set Current Recipe" }
func (t *SetCurrentRecipe) Description() string {
	return "Sets the recipe for the user to view."
}

func (t *SetCurrentRecipe) InputSchema() *jsonschema.Schema {
	return aichef.RecipeSchema()
}

func (t *SetCurrentRecipe) OutputSchema() *jsonschema.Schema {
	return successSchema()
}

func (t *SetCurrentRecipe) Run(_ context.Context, input map[string]any) (map[string]any, error) {
	recipe, err := recipeFromInput(input)
	if err != nil {
		return nil, err
	}
	t.state.Recipe = recipe
	return map[string]any{"success": true}, nil
}

type RedirectToSearch struct{ state *aichef.ChatState }

func NewRedirectToSearch(state *aichef.ChatState) *RedirectToSearch {
	return &RedirectToSearch{state: state}
}

func (t *RedirectToSearch) Name() string  { return "redirect_to_search" }
func (t *RedirectToSearch) Title() string { return "Redirect To Search" }
func (t *RedirectToSearch) Description() string {
	return "Redirect the user's browser to the search page with the given query."
}

func (t *RedirectToSearch) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"query": {Type: "string", Description: "The query to search for."},
		},
		Required: []string{"query"},
	}
}

func (t *RedirectToSearch) OutputSchema() *jsonschema.Schema {
	return successSchema()
}

func (t *RedirectToSearch) Run(_ context.Context, input map[string]any) (map[string]any, error) {
	query, ok := input["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is required")
	}
	t.state.RequestedRedirect = "/search?q=" + queryEscape(query)
	return map[string]any{"success": true}, nil
}

type RedirectToRecipe struct{ state *aichef.ChatState }

func NewRedirectToRecipe(state *aichef.ChatState) *RedirectToRecipe {
	return &RedirectToRecipe{state: state}
}

func (t *RedirectToRecipe) Name() string  { return "redirect_to_recipe" }
func (t *RedirectToRecipe) Title() string { return "Redirect To Recipe" }
func (t *RedirectToRecipe) Description() string {
	return "Redirect the user's browser to the recipe page with the given URL."
}

func (t *RedirectToRecipe) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"url": {Type: "string", Description: "The URL of the recipe to view."},
		},
		Required: []string{"url"},
	}
}

func (t *RedirectToRecipe) OutputSchema() *jsonschema.Schema {
	return successSchema()
}

func (t *RedirectToRecipe) Run(_ context.Context, input map[string]any) (map[string]any, error) {
	u, ok := input["url"].(string)
	if !ok || strings.TrimSpace(u) == "" {
		return nil, fmt.Errorf("url is required")
	}
	t.state.RequestedRedirect = "/recipe?url=" + queryEscape(u)
	return map[string]any{"success": true}, nil
}
