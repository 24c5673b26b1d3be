package aichef

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// HTTPClient abstracts outbound HTTP so page fetches and API calls are testable.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Embedder turns text into the vector representation used for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Unit is a measurement unit allowed on a stored ingredient. Imperial units are
// converted before a recipe is persisted, so only metric and kitchen units appear here.
type Unit string

const (
	UnitTablespoon Unit = "tablespoon"
	UnitTeaspoon   Unit = "teaspoon"
	UnitCup        Unit = "cup"
	UnitKilogram   Unit = "kilogram"
	UnitGram       Unit = "gram"
	UnitLiter      Unit = "liter"
	UnitMilliliter Unit = "milliliter"
	UnitEach       Unit = "each"
)

func (u Unit) Valid() bool {
	switch u {
	case UnitTablespoon, UnitTeaspoon, UnitCup, UnitKilogram, UnitGram, UnitLiter, UnitMilliliter, UnitEach:
		return true
	}
	return false
}

// Ingredient is one line of a recipe. A nil Amount means the ingredient is not
// quantified ("salt to taste"); Unit defaults to "each" for unmeasured items.
type Ingredient struct {
	Name   string   `json:"name"`
	Amount *float64 `json:"amount"`
	Unit   Unit     `json:"unit"`
	Notes  *string  `json:"notes"`
}

// IngredientGroup is a titled run of ingredients. Heading is always present,
// possibly as the empty string, so "no heading" is never ambiguous.
type IngredientGroup struct {
	Heading     string       `json:"heading"`
	Ingredients []Ingredient `json:"ingredients"`
}

type InstructionGroup struct {
	Heading string   `json:"heading"`
	Steps   []string `json:"steps"`
}

// Recipe is the canonical extracted recipe. URL is the page it came from with the
// query string stripped. Once stored a recipe is immutable; edits produce a new
// value held in session state, never a store write.
type Recipe struct {
	Title            string             `json:"title"`
	Description      string             `json:"description"`
	IngredientGroups []IngredientGroup  `json:"ingredientGroups"`
	Instructions     []InstructionGroup `json:"instructions"`
	Notes            []string           `json:"notes,omitempty"`
	URL              string             `json:"url"`
}

// Validate checks the invariants every recipe must hold before it crosses a
// boundary (model output, store write, tool input).
func (r *Recipe) Validate() error {
	var problems []string
	if strings.TrimSpace(r.Title) == "" {
		problems = append(problems, "title is required")
	}
	if r.URL == "" {
		problems = append(problems, "url is required")
	}
	if len(r.IngredientGroups) == 0 {
		problems = append(problems, "at least one ingredient group is required")
	}
	for gi, g := range r.IngredientGroups {
		if len(g.Ingredients) == 0 {
			problems = append(problems, fmt.Sprintf("ingredient group %d has no ingredients", gi))
		}
		for ii, ing := range g.Ingredients {
			if strings.TrimSpace(ing.Name) == "" {
				problems = append(problems, fmt.Sprintf("ingredient %d/%d has no name", gi, ii))
			}
			if ing.Unit != "" && !ing.Unit.Valid() {
				problems = append(problems, fmt.Sprintf("ingredient %d/%d has unsupported unit %q", gi, ii, ing.Unit))
			}
		}
	}
	if len(r.Instructions) == 0 {
		problems = append(problems, "at least one instruction group is required")
	}
	for gi, g := range r.Instructions {
		if len(g.Steps) == 0 {
			problems = append(problems, fmt.Sprintf("instruction group %d has no steps", gi))
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// Normalize fills the defaults the schema allows callers to omit: missing units
// become "each" and nil slices become empty ones.
func (r *Recipe) Normalize() {
	for gi := range r.IngredientGroups {
		if r.IngredientGroups[gi].Ingredients == nil {
			r.IngredientGroups[gi].Ingredients = []Ingredient{}
		}
		for ii := range r.IngredientGroups[gi].Ingredients {
			if r.IngredientGroups[gi].Ingredients[ii].Unit == "" {
				r.IngredientGroups[gi].Ingredients[ii].Unit = UnitEach
			}
		}
	}
	for gi := range r.Instructions {
		if r.Instructions[gi].Steps == nil {
			r.Instructions[gi].Steps = []string{}
		}
	}
}

// Source tags where a search result came from: the open web or the private store.
type Source string

const (
	SourceWeb   Source = "web"
	SourceSaved Source = "saved"
)

// SearchResult is a transient search hit; it is never persisted on its own.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Summary string `json:"summary"`
	Source  Source `json:"source"`
}

// ChatState is the mutable context shared between the client UI and the model's
// tools: the recipe being viewed, the last search results, and a pending redirect.
type ChatState struct {
	Recipe            *Recipe        `json:"recipe,omitempty"`
	SearchResults     []SearchResult `json:"searchResults,omitempty"`
	RequestedRedirect string         `json:"requestedRedirect,omitempty"`
}

// Merge applies client-asserted state onto s: shallow, per top-level key, last
// writer wins. Absent keys (nil/empty) leave the stored value untouched.
func (s *ChatState) Merge(in ChatState) {
	if in.Recipe != nil {
		s.Recipe = in.Recipe
	}
	if in.SearchResults != nil {
		s.SearchResults = in.SearchResults
	}
	if in.RequestedRedirect != "" {
		s.RequestedRedirect = in.RequestedRedirect
	}
}

// Role of a persisted chat message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

type Message struct {
	Role           Role           `json:"role"`
	Text           string         `json:"text"`
	StructuredData map[string]any `json:"structuredData,omitempty"`
}

// Session is one durable conversation: ordered message history plus ChatState,
// keyed by an opaque id. It is created empty on first reference.
type Session struct {
	ID       string    `json:"id"`
	Messages []Message `json:"messages"`
	State    ChatState `json:"state"`
}

