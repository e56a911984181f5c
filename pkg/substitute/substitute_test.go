package substitute_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailroom/pkg/substitute"
)

func TestNew_SelectsEngineByName(t *testing.T) {
	t.Parallel()

	require.IsType(t, substitute.Handlebars{}, substitute.New(substitute.EngineHandlebars))
	require.IsType(t, substitute.Mustache{}, substitute.New(substitute.EngineMustache))
	require.IsType(t, substitute.Literal{}, substitute.New(substitute.EngineLiteral))
}

func TestNew_UnknownNameFallsBackToLiteral(t *testing.T) {
	t.Parallel()

	require.IsType(t, substitute.Literal{}, substitute.New("ejs"))
	require.IsType(t, substitute.Literal{}, substitute.New(""))
}

func TestHandlebars_Render(t *testing.T) {
	t.Parallel()

	out, err := substitute.Handlebars{}.Render("Hi {{firstName}}", map[string]any{"firstName": "Ana"})

	require.NoError(t, err)
	require.Equal(t, "Hi Ana", out)
}

func TestHandlebars_Conditional(t *testing.T) {
	t.Parallel()

	out, err := substitute.Handlebars{}.Render(
		"{{#if premium}}Welcome back{{else}}Hello{{/if}}, {{name}}",
		map[string]any{"premium": true, "name": "Ana"},
	)

	require.NoError(t, err)
	require.Equal(t, "Welcome back, Ana", out)
}

func TestHandlebars_InvalidTemplate(t *testing.T) {
	t.Parallel()

	_, err := substitute.Handlebars{}.Render("{{#if}}broken", map[string]any{})

	require.Error(t, err)
}

func TestMustache_Render(t *testing.T) {
	t.Parallel()

	out, err := substitute.Mustache{}.Render("Hi {{firstName}}", map[string]any{"firstName": "Ana"})

	require.NoError(t, err)
	require.Equal(t, "Hi Ana", out)
}

func TestLiteral_Render(t *testing.T) {
	t.Parallel()

	out, err := substitute.Literal{}.Render(
		"Hi {{firstName}} {{ lastName }}",
		map[string]any{"firstName": "Ana", "lastName": "Lima"},
	)

	require.NoError(t, err)
	require.Equal(t, "Hi Ana Lima", out)
}

func TestLiteral_UnresolvedLeftVerbatim(t *testing.T) {
	t.Parallel()

	out, err := substitute.Literal{}.Render("Hi {{firstName}}", map[string]any{"other": "x"})

	require.NoError(t, err)
	require.Equal(t, "Hi {{firstName}}", out)
}

func TestLiteral_DottedPath(t *testing.T) {
	t.Parallel()

	out, err := substitute.Literal{}.Render("Order {{order.id}}", map[string]any{
		"order": map[string]any{"id": 42},
	})

	require.NoError(t, err)
	require.Equal(t, "Order 42", out)
}

func TestLiteral_NoVariables(t *testing.T) {
	t.Parallel()

	out, err := substitute.Literal{}.Render("Hi {{firstName}}", nil)

	require.NoError(t, err)
	require.Equal(t, "Hi {{firstName}}", out)
}

func TestFunc_AdaptsFunction(t *testing.T) {
	t.Parallel()

	engine := substitute.Func(func(tmpl string, _ map[string]any) (string, error) {
		return tmpl + "!", nil
	})

	out, err := engine.Render("hello", nil)

	require.NoError(t, err)
	require.Equal(t, "hello!", out)
}
