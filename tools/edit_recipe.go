package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	aichef "github.com/prasha-au/aichef"
	"github.com/prasha-au/aichef/llm"
)

const editSystem = `You are a personal recipe helper. Update the recipe below given the requested edit.
If you are making changes to ingredients ensure you note down any changes in quantity, units or names in "changesMade" as single items.`

// EditRecipe applies a described edit to a recipe through an inner model call.
// It returns the updated recipe but never writes state itself; displaying the
// result requires a follow-up set_current_recipe call, which the system prompt
// instructs the model to make.
type EditRecipe struct{ llm llm.Client }

func NewEditRecipe(llmClient llm.Client) *EditRecipe {
	return &EditRecipe{llm: llmClient}
}

func (t *EditRecipe) Name() string  { return "edit_recipe" }
func (t *EditRecipe) Title() string { return "Edit Recipe" }
func (t *EditRecipe) Description() string {
	return "Applies an edit to a recipe and returns the updated recipe."
}

func (t *EditRecipe) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"recipe": aichef.RecipeSchema(),
			"edit":   {Type: "string", Description: "The edit to apply to the recipe."},
		},
		Required: []string{"recipe", "edit"},
	}
}

func (t *EditRecipe) OutputSchema() *jsonschema.Schema {
	return editResultSchema()
}

func editResultSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"updatedRecipe": aichef.RecipeSchema(),
			"changesMade":   {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
		},
		Required: []string{"updatedRecipe", "changesMade"},
	}
}

func (t *EditRecipe) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	edit, ok := input["edit"].(string)
	if !ok || strings.TrimSpace(edit) == "" {
		return nil, fmt.Errorf("edit is required")
	}
	recipeIn, ok := input["recipe"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("recipe is required")
	}
	recipe, err := recipeFromInput(recipeIn)
	if err != nil {
		return nil, err
	}

	recipeJSON, err := json.Marshal(recipe)
	if err != nil {
		return nil, fmt.Errorf("serialize recipe: %w", err)
	}

	prompt := fmt.Sprintf("Requested edit:\n\"\"\"\n%s\n\"\"\"\n\nRecipe (JSON):\n\"\"\"\n%s\n\"\"\"", edit, recipeJSON)

	out, err := llm.GenerateStructured(ctx, t.llm, llm.StructuredRequest{
		System: editSystem,
		Prompt: prompt,
		Schema: editResultSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("apply edit: %w", err)
	}

	var result struct {
		UpdatedRecipe aichef.Recipe `json:"updatedRecipe"`
		ChangesMade   []string      `json:"changesMade"`
	}
	if err := json.Unmarshal(out, &result); err != nil {
		return nil, fmt.Errorf("parse edit result: %w", err)
	}

	result.UpdatedRecipe.Normalize()
	if result.UpdatedRecipe.URL == "" {
		result.UpdatedRecipe.URL = recipe.URL
	}
	if err := result.UpdatedRecipe.Validate(); err != nil {
		return nil, fmt.Errorf("edited recipe is invalid: %w", err)
	}
	if result.ChangesMade == nil {
		result.ChangesMade = []string{}
	}

	b, err := json.Marshal(map[string]any{
		"updatedRecipe": result.UpdatedRecipe,
		"changesMade":   result.ChangesMade,
	})
	if err != nil {
		return nil, fmt.Errorf("serialize edit result: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("serialize edit result: %w", err)
	}
	return m, nil
}
