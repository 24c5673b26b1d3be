package tools

import (
	"context"
	"fmt"

	aichef "github.com/prasha-au/aichef"
	"github.com/prasha-au/aichef/llm"
)

// RecipeFetcher is the extraction capability the get_recipe_from_url tool needs.
type RecipeFetcher interface {
	FromURL(ctx context.Context, url string) (*aichef.Recipe, error)
}

// Searcher is the search capability exposed to the model.
type Searcher interface {
	SearchWeb(ctx context.Context, query string) ([]aichef.SearchResult, error)
	SearchSaved(ctx context.Context, query string) ([]aichef.SearchResult, error)
}

// Deps are the capabilities tools reach out to.
type Deps struct {
	LLM       llm.Client
	Extractor RecipeFetcher
	Search    Searcher
}

// Registry maps tool names to implementations. The set is closed: the model
// can only dispatch to names registered here.
type Registry map[string]Tool

// NewRegistry builds the per-turn tool set bound to state. State mutations by
// one tool are visible to later tool calls in the same turn.
func NewRegistry(state *aichef.ChatState, deps Deps) (*Registry, error) {
	if state == nil {
		return nil, fmt.Errorf("chat state is required")
	}

	tools := map[string]Tool{
		"get_current_recipe":  NewGetCurrentRecipe(state),
		"set_current_recipe":  NewSetCurrentRecipe(state),
		"redirect_to_search":  NewRedirectToSearch(state),
		"redirect_to_recipe":  NewRedirectToRecipe(state),
		"edit_recipe":         NewEditRecipe(deps.LLM),
		"search_web":          NewSearchWeb(deps.Search),
		"search_store":        NewSearchStore(deps.Search),
		"get_recipe_from_url": NewGetRecipeFromURL(deps.Extractor),
		"convert_units":       NewConvertUnits(),
	}

	registry := Registry(tools)
	return &registry, nil
}

// GetTools returns all tools in the registry as a slice
func (r *Registry) GetTools() []Tool {
	tools := make([]Tool, 0, len(*r))
	for _, tool := range *r {
		tools = append(tools, tool)
	}
	return tools
}

// GetTool retrieves a tool by name from the registry
func (r Registry) GetTool(name string) (Tool, error) {
	tool, exists := r[name]
	if !exists {
		return nil, fmt.Errorf("tool %q not found in registry", name)
	}
	return tool, nil
}
