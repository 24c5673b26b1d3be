package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aichef "github.com/prasha-au/aichef"
	"github.com/prasha-au/aichef/llm"
	"github.com/prasha-au/aichef/store"
)

const recipePage = `<html><body>
	<div class="wprm-recipe">
		<h2>Butter Chicken</h2>
		<li>1 pound chicken thighs</li>
		<li>2 cups basmati rice</li>
		<p>Simmer until done.</p>
	</div>
</body></html>`

const extractedRecipeJSON = `{
	"title": "Butter Chicken",
	"description": "Creamy butter chicken with rice.",
	"ingredientGroups": [{
		"heading": "",
		"ingredients": [
			{"name": "chicken thighs", "amount": 0.453592, "unit": "kilogram", "notes": null},
			{"name": "basmati rice", "amount": 2, "unit": "cup", "notes": null}
		]
	}],
	"instructions": [{"heading": "", "steps": ["Simmer until done."]}],
	"notes": []
}`

// countingTransport serves a fixed page and counts fetches.
type countingTransport struct {
	mu      sync.Mutex
	fetches int
	status  int
	body    string
}

func (c *countingTransport) Do(req *http.Request) (*http.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetches++
	status := c.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Body:       io.NopCloser(strings.NewReader(c.body)),
	}, nil
}

func (c *countingTransport) Fetches() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetches
}

type fixedEmbedder struct{ vec []float32 }

func (f fixedEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return f.vec, nil
}

func TestFromURLExtractsAndStores(t *testing.T) {
	transport := &countingTransport{body: recipePage}
	client := llm.NewScriptedClient(llm.Response{Content: extractedRecipeJSON})
	mem := store.NewMemory()

	e := New(transport, client, fixedEmbedder{vec: []float32{1, 0}}, mem)

	recipe, err := e.FromURL(context.Background(), "https://example.com/recipes/butter-chicken?utm=abc")
	require.NoError(t, err)

	assert.Equal(t, "Butter Chicken", recipe.Title)
	assert.Equal(t, "https://example.com/recipes/butter-chicken", recipe.URL)

	entry, err := mem.GetByID(context.Background(), "example.com__recipes_butter-chicken")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/recipes/butter-chicken", entry.URL)
	assert.Equal(t, []float32{1, 0}, entry.Vector)

	var stored aichef.Recipe
	require.NoError(t, json.Unmarshal([]byte(entry.Content), &stored))
	assert.Equal(t, recipe.Title, stored.Title)

	// The extraction prompt must carry the recipe fragment, not the whole page.
	require.NotEmpty(t, client.Prompts)
	prompt := client.Prompts[0].Messages[1].Content.Join()
	assert.Contains(t, prompt, "Butter Chicken")
}

func TestFromURLSecondCallServedFromStore(t *testing.T) {
	transport := &countingTransport{body: recipePage}
	client := llm.NewScriptedClient(llm.Response{Content: extractedRecipeJSON})
	mem := store.NewMemory()

	e := New(transport, client, fixedEmbedder{vec: []float32{1, 0}}, mem)

	first, err := e.FromURL(context.Background(), "https://example.com/recipes/butter-chicken")
	require.NoError(t, err)

	// Query string variant must hit the same cache entry.
	second, err := e.FromURL(context.Background(), "https://example.com/recipes/butter-chicken?print=1")
	require.NoError(t, err)

	assert.Equal(t, 1, transport.Fetches())
	assert.Equal(t, 1, client.Calls())
	assert.Equal(t, first, second)
}

func TestFromURLFetchFailure(t *testing.T) {
	transport := &countingTransport{status: http.StatusInternalServerError, body: "boom"}
	client := llm.NewScriptedClient()

	e := New(transport, client, fixedEmbedder{}, store.NewMemory())

	_, err := e.FromURL(context.Background(), "https://example.com/recipes/down")
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.Equal(t, 0, client.Calls())
}

func TestFromURLEmptyPage(t *testing.T) {
	transport := &countingTransport{body: `<html><body></body></html>`}
	client := llm.NewScriptedClient()

	e := New(transport, client, fixedEmbedder{}, store.NewMemory())

	_, err := e.FromURL(context.Background(), "https://example.com/recipes/empty")
	assert.ErrorIs(t, err, ErrNoRecipeContent)
}

func TestFromURLInvalidModelOutput(t *testing.T) {
	transport := &countingTransport{body: recipePage}
	// Model returns a recipe missing instructions, twice.
	bad := `{"title":"Broken","description":"","ingredientGroups":[],"instructions":[]}`
	client := llm.NewScriptedClient(llm.Response{Content: bad})

	e := New(transport, client, fixedEmbedder{}, store.NewMemory())

	_, err := e.FromURL(context.Background(), "https://example.com/recipes/broken")
	assert.ErrorIs(t, err, ErrExtractionFailed)
}

func TestFromURLRunsConvertUnitsTool(t *testing.T) {
	transport := &countingTransport{body: recipePage}
	client := llm.NewScriptedClient(
		llm.Response{ToolCalls: []llm.ToolCall{{
			Name:      "convert_units",
			Input:     map[string]any{"amount": 1.0, "unit": "pound"},
			ToolUseID: "tu-1",
		}}},
		llm.Response{Content: extractedRecipeJSON},
	)
	mem := store.NewMemory()

	e := New(transport, client, fixedEmbedder{vec: []float32{1}}, mem)

	_, err := e.FromURL(context.Background(), "https://example.com/recipes/butter-chicken")
	require.NoError(t, err)

	// Second prompt must contain the converted quantity as a tool result.
	require.Equal(t, 2, client.Calls())
	var result map[string]any
	for _, m := range client.Prompts[1].Messages {
		for _, p := range m.Content {
			if p.Type == "tool_result" && p.ToolUseID == "tu-1" {
				result = p.Data
			}
		}
	}
	require.NotNil(t, result)
	assert.InDelta(t, 0.453592, result["amount"].(float64), 1e-9)
	assert.Equal(t, "kilogram", result["unit"])
}

func TestConvertUnitsToolRejectsBadInput(t *testing.T) {
	tool := convertUnitsTool{}

	_, err := tool.Run(context.Background(), map[string]any{"amount": "one", "unit": "pound"})
	assert.Error(t, err)

	_, err = tool.Run(context.Background(), map[string]any{"amount": 1.0, "unit": "stone"})
	assert.Error(t, err)
}
