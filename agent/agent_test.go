package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/strixlabs/strix/provider/anthropic"
	"github.com/strixlabs/strix/provider/openai"
	"github.com/strixlabs/strix/tool"
	"github.com/strixlabs/strix/types"
)

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		a := New(Name("helper"))
		assert.Equal(t, "helper", a.Name())
		assert.Equal(t, "gpt-4o-mini", a.Model().Name())
		assert.True(t, a.ParallelToolCalls())
		assert.Empty(t, a.Tools())
	})

	t.Run("with options", func(t *testing.T) {
		def := tool.Must(func(city string) string { return city }, tool.Name("lookup"))
		extra := tool.Must(func() string { return "" }, tool.Name("noop"))

		a := New(
			Name("researcher"),
			Model(anthropic.Claude35Sonnet),
			Instructions("You research things."),
			Tools(def, extra),
			ParallelToolCalls(false),
		)

		assert.Equal(t, "researcher", a.Name())
		assert.Equal(t, anthropic.Claude35Sonnet.Name(), a.Model().Name())
		assert.Equal(t, "You research things.", a.Instructions())
		require.Len(t, a.Tools(), 2)
		assert.Equal(t, "lookup", a.Tools()[0].Name)
		assert.False(t, a.ParallelToolCalls())
	})
}

func TestRenderInstructions(t *testing.T) {
	t.Run("plain instructions pass through", func(t *testing.T) {
		a := New(Name("plain"), Instructions("Always answer in French."))
		out, err := a.RenderInstructions(types.ContextVars{"ignored": true})
		require.NoError(t, err)
		assert.Equal(t, "Always answer in French.", out)
	})

	t.Run("templated instructions render context vars", func(t *testing.T) {
		a := New(
			Name("templated"),
			Model(openai.GPT4oMini),
			Instructions("You are helping {{.user}} with {{.topic}}."),
		)
		out, err := a.RenderInstructions(types.ContextVars{"user": "jules", "topic": "gardening"})
		require.NoError(t, err)
		assert.Equal(t, "You are helping jules with gardening.", out)
	})

	t.Run("missing key errors", func(t *testing.T) {
		a := New(Name("strict"), Instructions("Hello {{.user}}"))
		_, err := a.RenderInstructions(types.ContextVars{})
		require.Error(t, err)
	})

	t.Run("malformed template errors", func(t *testing.T) {
		a := New(Name("broken"), Instructions("Hello {{.user"))
		_, err := a.RenderInstructions(types.ContextVars{"user": "x"})
		require.Error(t, err)
	})
}
