package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equitydesk/pkg/errors"
)

func TestRegistry(t *testing.T) {
	registry := NewRegistry()

	t.Run("Register and Get", func(t *testing.T) {
		tool := New(GetCompanyInfo, "company info", func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			return args["ticker"], nil
		})
		registry.Register(tool)

		retrieved, ok := registry.Get(GetCompanyInfo)
		require.True(t, ok)
		assert.Equal(t, tool, retrieved)

		result, err := retrieved.Execute(context.Background(), map[string]interface{}{"ticker": "AAPL"})
		require.NoError(t, err)
		assert.Equal(t, "AAPL", result)

		_, ok = registry.Get("unknown_tool")
		assert.False(t, ok, "unknown tool should not be found")
	})

	t.Run("Select keeps order and skips unknown", func(t *testing.T) {
		registry.Register(New(CompanyNewsSearch, "news", nil))

		selected := registry.Select(CompanyNewsSearch, "unknown_tool", GetCompanyInfo)
		require.Len(t, selected, 2)
		assert.Equal(t, CompanyNewsSearch, selected[0].Name())
		assert.Equal(t, GetCompanyInfo, selected[1].Name())
	})

	t.Run("List is sorted", func(t *testing.T) {
		assert.Equal(t, []string{CompanyNewsSearch, GetCompanyInfo}, registry.List())
	})

	t.Run("Nil handler", func(t *testing.T) {
		tool, _ := registry.Get(CompanyNewsSearch)
		_, err := tool.Execute(context.Background(), nil)
		assert.ErrorIs(t, err, errors.ErrInternal)
	})
}

func TestDescribe(t *testing.T) {
	for _, def := range Definitions() {
		got, ok := Describe(def.Name)
		require.True(t, ok, def.Name)
		assert.NotEmpty(t, got.Description)
	}

	_, ok := Describe("place_order")
	assert.False(t, ok)
}
