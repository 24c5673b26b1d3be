package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aichef "github.com/prasha-au/aichef"
)

func TestNewRegistryHoldsFullToolSet(t *testing.T) {
	state := &aichef.ChatState{}
	registry, err := NewRegistry(state, Deps{})
	require.NoError(t, err)

	names := []string{
		"get_current_recipe",
		"set_current_recipe",
		"redirect_to_search",
		"redirect_to_recipe",
		"edit_recipe",
		"search_web",
		"search_store",
		"get_recipe_from_url",
		"convert_units",
	}
	assert.Len(t, registry.GetTools(), len(names))
	for _, name := range names {
		tool, err := registry.GetTool(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, tool.Name())
	}
}

func TestGetToolUnknownName(t *testing.T) {
	registry, err := NewRegistry(&aichef.ChatState{}, Deps{})
	require.NoError(t, err)

	_, err = registry.GetTool("order_takeout")
	assert.Error(t, err)
}

func TestNewRegistryRequiresState(t *testing.T) {
	_, err := NewRegistry(nil, Deps{})
	assert.Error(t, err)
}
