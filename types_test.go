package aichef_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aichef "github.com/prasha-au/aichef"
)

func validRecipe() aichef.Recipe {
	amount := 2.0
	return aichef.Recipe{
		Title:       "Butter Chicken",
		Description: "A rich tomato based curry.",
		IngredientGroups: []aichef.IngredientGroup{
			{
				Heading: "",
				Ingredients: []aichef.Ingredient{
					{Name: "chicken thigh", Amount: &amount, Unit: aichef.UnitKilogram},
					{Name: "salt", Amount: nil, Unit: aichef.UnitEach},
				},
			},
		},
		Instructions: []aichef.InstructionGroup{
			{Heading: "", Steps: []string{"Marinate the chicken.", "Simmer in the sauce."}},
		},
		URL: "https://example.com/recipes/butter-chicken",
	}
}

func TestRecipeValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(r *aichef.Recipe)
		problems []string
	}{
		{
			name:   "valid recipe passes",
			mutate: func(r *aichef.Recipe) {},
		},
		{
			name:     "blank title",
			mutate:   func(r *aichef.Recipe) { r.Title = "   " },
			problems: []string{"title is required"},
		},
		{
			name:     "missing url",
			mutate:   func(r *aichef.Recipe) { r.URL = "" },
			problems: []string{"url is required"},
		},
		{
			name:     "no ingredient groups",
			mutate:   func(r *aichef.Recipe) { r.IngredientGroups = nil },
			problems: []string{"at least one ingredient group is required"},
		},
		{
			name: "empty ingredient group",
			mutate: func(r *aichef.Recipe) {
				r.IngredientGroups[0].Ingredients = []aichef.Ingredient{}
			},
			problems: []string{"ingredient group 0 has no ingredients"},
		},
		{
			name: "nameless ingredient",
			mutate: func(r *aichef.Recipe) {
				r.IngredientGroups[0].Ingredients[0].Name = ""
			},
			problems: []string{"ingredient 0/0 has no name"},
		},
		{
			name: "imperial unit rejected",
			mutate: func(r *aichef.Recipe) {
				r.IngredientGroups[0].Ingredients[0].Unit = "pound"
			},
			problems: []string{`ingredient 0/0 has unsupported unit "pound"`},
		},
		{
			name:     "no instructions",
			mutate:   func(r *aichef.Recipe) { r.Instructions = nil },
			problems: []string{"at least one instruction group is required"},
		},
		{
			name: "empty instruction group",
			mutate: func(r *aichef.Recipe) {
				r.Instructions[0].Steps = nil
			},
			problems: []string{"instruction group 0 has no steps"},
		},
		{
			name: "problems accumulate",
			mutate: func(r *aichef.Recipe) {
				r.Title = ""
				r.Instructions = nil
			},
			problems: []string{"title is required", "at least one instruction group is required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recipe := validRecipe()
			tt.mutate(&recipe)

			err := recipe.Validate()
			if len(tt.problems) == 0 {
				assert.NoError(t, err)
				return
			}

			var verr *aichef.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.problems, verr.Problems)
		})
	}
}

func TestRecipeNormalize(t *testing.T) {
	recipe := aichef.Recipe{
		Title: "Bread",
		IngredientGroups: []aichef.IngredientGroup{
			{Heading: "Dough", Ingredients: []aichef.Ingredient{{Name: "flour"}}},
			{Heading: "Topping"},
		},
		Instructions: []aichef.InstructionGroup{{Heading: "Bake"}},
	}

	recipe.Normalize()

	assert.Equal(t, aichef.UnitEach, recipe.IngredientGroups[0].Ingredients[0].Unit)
	assert.NotNil(t, recipe.IngredientGroups[1].Ingredients)
	assert.NotNil(t, recipe.Instructions[0].Steps)
}

func TestUnitValid(t *testing.T) {
	for _, u := range []aichef.Unit{
		aichef.UnitTablespoon, aichef.UnitTeaspoon, aichef.UnitCup, aichef.UnitKilogram,
		aichef.UnitGram, aichef.UnitLiter, aichef.UnitMilliliter, aichef.UnitEach,
	} {
		assert.True(t, u.Valid(), string(u))
	}
	for _, u := range []aichef.Unit{"pound", "ounce", "", "Gram"} {
		assert.False(t, u.Valid(), string(u))
	}
}

func TestChatStateMerge(t *testing.T) {
	base := func() aichef.ChatState {
		recipe := validRecipe()
		return aichef.ChatState{
			Recipe:            &recipe,
			SearchResults:     []aichef.SearchResult{{Title: "Old", URL: "https://example.com/old", Source: aichef.SourceWeb}},
			RequestedRedirect: "/search?q=old",
		}
	}

	t.Run("empty input leaves state untouched", func(t *testing.T) {
		state := base()
		state.Merge(aichef.ChatState{})

		assert.Equal(t, base(), state)
	})

	t.Run("present keys win", func(t *testing.T) {
		state := base()
		updated := validRecipe()
		updated.Title = "Butter Chicken v2"

		state.Merge(aichef.ChatState{
			Recipe:            &updated,
			RequestedRedirect: "/recipe?url=https%3A%2F%2Fexample.com",
		})

		assert.Equal(t, "Butter Chicken v2", state.Recipe.Title)
		assert.Equal(t, "/recipe?url=https%3A%2F%2Fexample.com", state.RequestedRedirect)
		assert.Equal(t, base().SearchResults, state.SearchResults)
	})

	t.Run("empty result list still replaces", func(t *testing.T) {
		state := base()
		state.Merge(aichef.ChatState{SearchResults: []aichef.SearchResult{}})

		assert.Empty(t, state.SearchResults)
	})
}
