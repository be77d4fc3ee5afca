package formatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/pytyper/internal/analyzer"
	"github.com/mcncl/pytyper/internal/generator"
	"github.com/mcncl/pytyper/internal/models"
	"github.com/mcncl/pytyper/internal/parser"
)

func TestIntegration_ParserAnalyzerGeneratorFormatter(t *testing.T) {
	jsonInput := `{
		"user_id": 123,
		"username": "johndoe",
		"is_active": true,
		"profile": {
			"full_name": "John Doe",
			"email": "john.doe@example.com"
		}
	}`

	value, err := parser.ParseString(jsonInput)
	require.NoError(t, err)

	graph, err := analyzer.NewAnalyzer().Infer([]models.Value{value})
	require.NoError(t, err)

	code, err := generator.NewGenerator().Render(graph, generator.PlainDataClass)
	require.NoError(t, err)

	formatted, err := NewFormatter().Format(code)
	require.NoError(t, err)

	expected := `from dataclasses import dataclass


@dataclass
class Profile:
    full_name: str
    email: str


@dataclass
class Root:
    user_id: int
    username: str
    is_active: bool
    profile: Profile
`
	assert.Equal(t, expected, formatted)
}

func TestIntegration_EveryStyleFormats(t *testing.T) {
	value, err := parser.ParseString(`[{"id": 1, "tags": ["a"], "meta": {"k-1": null}}, {"id": 2.5, "extra": [1, "x", {"z": true}]}]`)
	require.NoError(t, err)

	graph, err := analyzer.NewAnalyzer().Infer([]models.Value{value})
	require.NoError(t, err)

	for _, style := range generator.Styles() {
		t.Run(style.String(), func(t *testing.T) {
			code, err := generator.NewGenerator().Render(graph, style)
			require.NoError(t, err)

			formatted, err := NewFormatterWithIndent(2).Format(code)
			require.NoError(t, err)
			assert.NotContains(t, formatted, "\t")
			assert.NotContains(t, formatted, "\n\n\n\n")
			assert.True(t, len(formatted) > 0 && formatted[len(formatted)-1] == '\n')
		})
	}
}
