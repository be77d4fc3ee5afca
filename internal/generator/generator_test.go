package generator

import (
	stderrors "errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/pytyper/internal/analyzer"
	"github.com/mcncl/pytyper/internal/errors"
	"github.com/mcncl/pytyper/internal/graph"
	"github.com/mcncl/pytyper/internal/models"
	"github.com/mcncl/pytyper/internal/parser"
)

func inferGraph(t *testing.T, inputs ...string) *graph.TypeGraph {
	t.Helper()
	samples := make([]models.Value, len(inputs))
	for i, in := range inputs {
		v, err := parser.ParseString(in)
		require.NoError(t, err)
		samples[i] = v
	}
	g, err := analyzer.NewAnalyzer().Infer(samples)
	require.NoError(t, err)
	return g
}

func render(t *testing.T, style Style, inputs ...string) string {
	t.Helper()
	out, err := NewGenerator().Render(inferGraph(t, inputs...), style)
	require.NoError(t, err)
	return out
}

// py joins lines into a source file with a trailing newline.
func py(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

func TestRender_PlainDataClass(t *testing.T) {
	tests := []struct {
		name     string
		inputs   []string
		expected string
	}{
		{
			name:   "simple object",
			inputs: []string{`{"a": 1, "b": "x"}`},
			expected: py(
				"from dataclasses import dataclass",
				"",
				"",
				"@dataclass",
				"class Root:",
				"\ta: int",
				"\tb: str",
			),
		},
		{
			name:   "optional fields follow required ones",
			inputs: []string{`[{"a": 1, "b": "x"}, {"b": "y", "c": true}]`},
			expected: py(
				"from dataclasses import dataclass",
				"from typing import List, Optional",
				"",
				"",
				"@dataclass",
				"class RootItem:",
				"\tb: str",
				"\ta: Optional[int] = None",
				"\tc: Optional[bool] = None",
				"",
				"",
				"Root = List[RootItem]",
			),
		},
		{
			name:   "renamed key keeps a comment",
			inputs: []string{`{"first-name": "x", "class": 1}`},
			expected: py(
				"from dataclasses import dataclass",
				"",
				"",
				"@dataclass",
				"class Root:",
				"\tfirst_name: str  # JSON key: \"first-name\"",
				"\tclass_: int  # JSON key: \"class\"",
			),
		},
		{
			name:   "empty object",
			inputs: []string{`{}`},
			expected: py(
				"from dataclasses import dataclass",
				"",
				"",
				"@dataclass",
				"class Root:",
				"\tpass",
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, render(t, PlainDataClass, tt.inputs...))
		})
	}
}

func TestRender_ScalarRoots(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`5`, py("Root = int")},
		{`"x"`, py("Root = str")},
		{`null`, py("Root = None")},
		{`[]`, py("from typing import Any, List", "", "", "Root = List[Any]")},
		{`[1, null]`, py("from typing import List, Optional", "", "", "Root = List[Optional[int]]")},
		{`[1, 2.5]`, py("from typing import List", "", "", "Root = List[float]")},
		{`[1, "a"]`, py("from typing import List, Union", "", "", "Root = List[Union[int, str]]")},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			for _, style := range Styles() {
				assert.Equal(t, tt.expected, render(t, style, tt.input), style.String())
			}
		})
	}
}

func TestRender_Pydantic(t *testing.T) {
	input := `[{"first-name": "x", "age": 3, "e-mail": "a"}, {"first-name": "y"}]`

	base := py(
		"from typing import Annotated, List, Optional",
		"",
		"from pydantic import BaseModel, Field",
		"",
		"",
		"class RootItem(BaseModel):",
		"\tfirst_name: Annotated[str, Field(alias=\"first-name\")]",
		"\tage: Optional[int] = Field(default=None)",
		"\te_mail: Optional[str] = Field(default=None, alias=\"e-mail\")",
		"",
		"",
		"Root = List[RootItem]",
	)
	assert.Equal(t, base, render(t, ValidationModelBaseClass, input))

	decorated := py(
		"from typing import Annotated, List, Optional",
		"",
		"from pydantic import Field",
		"from pydantic.dataclasses import dataclass",
		"",
		"",
		"@dataclass",
		"class RootItem:",
		"\tfirst_name: Annotated[str, Field(alias=\"first-name\")]",
		"\tage: Optional[int] = Field(default=None)",
		"\te_mail: Optional[str] = Field(default=None, alias=\"e-mail\")",
		"",
		"",
		"Root = List[RootItem]",
	)
	assert.Equal(t, decorated, render(t, ValidationModelDecorated, input))
}

func TestRender_PydanticReservedNames(t *testing.T) {
	out := render(t, ValidationModelBaseClass, `{"_id": 1, "model_config": "x", "json": true}`)

	assert.Contains(t, out, "\tid: Annotated[int, Field(alias=\"_id\")]")
	assert.Contains(t, out, "\tmodel_config_: Annotated[str, Field(alias=\"model_config\")]")
	assert.Contains(t, out, "\tjson_: Annotated[bool, Field(alias=\"json\")]")
}

func TestRender_Serialization(t *testing.T) {
	out := render(t, DataClassWithSerialization, `{"id": 1, "tags": ["a"], "owner": {"name": "x"}, "score": null}`)

	expected := py(
		"from dataclasses import dataclass",
		"from typing import Any, Dict, List",
		"",
		"",
		"@dataclass",
		"class Owner:",
		"\tname: str",
		"",
		"\t@classmethod",
		"\tdef from_dict(cls, obj: Dict[str, Any]) -> \"Owner\":",
		"\t\treturn cls(",
		"\t\t\tname=obj[\"name\"],",
		"\t\t)",
		"",
		"\tdef to_dict(self) -> Dict[str, Any]:",
		"\t\tresult: Dict[str, Any] = {}",
		"\t\tresult[\"name\"] = self.name",
		"\t\treturn result",
		"",
		"",
		"@dataclass",
		"class Root:",
		"\tid: int",
		"\ttags: List[str]",
		"\towner: Owner",
		"\tscore: None = None",
		"",
		"\t@classmethod",
		"\tdef from_dict(cls, obj: Dict[str, Any]) -> \"Root\":",
		"\t\treturn cls(",
		"\t\t\tid=int(obj[\"id\"]),",
		"\t\t\ttags=list(obj[\"tags\"]),",
		"\t\t\towner=Owner.from_dict(obj[\"owner\"]),",
		"\t\t\tscore=obj.get(\"score\"),",
		"\t\t)",
		"",
		"\tdef to_dict(self) -> Dict[str, Any]:",
		"\t\tresult: Dict[str, Any] = {}",
		"\t\tresult[\"id\"] = self.id",
		"\t\tresult[\"tags\"] = list(self.tags)",
		"\t\tresult[\"owner\"] = self.owner.to_dict()",
		"\t\tresult[\"score\"] = self.score",
		"\t\treturn result",
	)
	assert.Equal(t, expected, out)
}

func TestRender_SerializationOptionalFields(t *testing.T) {
	out := render(t, DataClassWithSerialization,
		`{"id": 1, "owner": {"name": "x"}}`,
		`{"id": 2, "owner": null}`,
		`{"id": 3}`,
	)

	assert.Contains(t, out, "\towner: Optional[Owner] = None")
	assert.Contains(t, out, "\t\t\towner=None if obj.get(\"owner\") is None else Owner.from_dict(obj.get(\"owner\")),")
	assert.Contains(t, out, "\t\tif self.owner is not None:\n\t\t\tresult[\"owner\"] = self.owner.to_dict()")
}

func TestRender_TypedDict(t *testing.T) {
	out := render(t, StructuralDictClass,
		`{"id": 1, "user": {"name": "n", "e-mail": null}}`,
		`{"id": 2}`,
	)

	expected := py(
		"from typing import TypedDict",
		"",
		"from typing_extensions import NotRequired",
		"",
		"",
		"User = TypedDict(\"User\", {",
		"\t\"name\": str,",
		"\t\"e-mail\": None,",
		"})",
		"",
		"",
		"class Root(TypedDict):",
		"\tid: int",
		"\tuser: NotRequired[User]",
	)
	assert.Equal(t, expected, out)
}

func TestRender_TypedDictNullableKey(t *testing.T) {
	out := render(t, StructuralDictClass, `{"a": 1}`, `{"a": null}`)

	// A value that was null in some sample may also be left out.
	assert.Contains(t, out, "\ta: NotRequired[Optional[int]]")
}

func TestRender_TypedDictInline(t *testing.T) {
	out := render(t, StructuralDictInline, `{"user": {"name": "n", "address": {"city": "c"}}, "tags": ["x"]}`)

	expected := py(
		"from typing import List, TypedDict",
		"",
		"",
		"Root = TypedDict(\"Root\", {",
		"\t\"user\": TypedDict(\"User\", {",
		"\t\t\"name\": str,",
		"\t\t\"address\": TypedDict(\"Address\", {",
		"\t\t\t\"city\": str,",
		"\t\t}),",
		"\t}),",
		"\t\"tags\": List[str],",
		"})",
	)
	assert.Equal(t, expected, out)
}

func TestRender_TypedDictNested(t *testing.T) {
	out := render(t, StructuralDictNested, `{"home": {"city": "x"}, "work": {"city": "y"}, "meta": {"v": 1}}`)

	expected := py(
		"from typing import TypedDict",
		"",
		"",
		"class Home(TypedDict):",
		"\tcity: str",
		"",
		"",
		"class Root(TypedDict):",
		"\thome: Home",
		"\twork: Home",
		"\tmeta: TypedDict(\"Meta\", {",
		"\t\t\"v\": int,",
		"\t})",
	)
	assert.Equal(t, expected, out)
}

func TestRender_UnionAliases(t *testing.T) {
	inputs := []string{`{"v": 1}`, `{"v": {"x": true}}`, `{}`}

	withAlias := py(
		"from dataclasses import dataclass",
		"from typing import Optional, Union",
		"",
		"",
		"@dataclass",
		"class V:",
		"\tx: bool",
		"",
		"",
		"VUnion = Union[int, V]",
		"",
		"",
		"@dataclass",
		"class Root:",
		"\tv: Optional[VUnion] = None",
	)
	assert.Equal(t, withAlias, render(t, PlainDataClass, inputs...))

	out, err := NewGeneratorWithOptions(Options{}).Render(inferGraph(t, inputs...), PlainDataClass)
	require.NoError(t, err)
	spelled := py(
		"from dataclasses import dataclass",
		"from typing import Optional, Union",
		"",
		"",
		"@dataclass",
		"class V:",
		"\tx: bool",
		"",
		"",
		"@dataclass",
		"class Root:",
		"\tv: Optional[Union[int, V]] = None",
	)
	assert.Equal(t, spelled, out)
}

func TestRender_SpecialStrings(t *testing.T) {
	samples := []models.Value{models.Object(
		models.Member{Key: "id", Value: models.String("123e4567-e89b-12d3-a456-426614174000")},
		models.Member{Key: "at", Value: models.String("2024-01-02T03:04:05Z")},
	)}
	g, err := analyzer.NewAnalyzerWithOptions(analyzer.Options{DetectSpecialStrings: true}, nil).Infer(samples)
	require.NoError(t, err)

	out, err := NewGenerator().Render(g, DataClassWithSerialization)
	require.NoError(t, err)

	assert.Contains(t, out, "from datetime import datetime\n")
	assert.Contains(t, out, "from uuid import UUID\n")
	assert.Contains(t, out, "\tid: UUID\n")
	assert.Contains(t, out, "\tat: datetime\n")
	assert.Contains(t, out, "id=UUID(obj[\"id\"]),")
	assert.Contains(t, out, "at=datetime.fromisoformat(obj[\"at\"].replace(\"Z\", \"+00:00\")),")
	assert.Contains(t, out, "result[\"id\"] = str(self.id)")
	assert.Contains(t, out, "result[\"at\"] = self.at.isoformat().replace(\"+00:00\", \"Z\")")
}

func TestRender_FileHeader(t *testing.T) {
	gen := NewGeneratorWithOptions(Options{UnionAliases: true, FileHeader: "Generated by pytyper.\nDo not edit."})
	out, err := gen.Render(inferGraph(t, `5`), PlainDataClass)
	require.NoError(t, err)
	assert.Equal(t, py("# Generated by pytyper.", "# Do not edit.", "", "Root = int"), out)
}

func TestRender_DeclarationOrder(t *testing.T) {
	input := `{"a": {"b": {"c": {"d": 1}}, "e": [{"f": {"z": 2}}]}, "g": {"h": true}}`

	for _, style := range []Style{PlainDataClass, ValidationModelBaseClass, StructuralDictClass} {
		t.Run(style.String(), func(t *testing.T) {
			out := render(t, style, input)
			pos := func(decl string) int {
				i := strings.Index(out, decl)
				require.GreaterOrEqual(t, i, 0, "%q missing from\n%s", decl, out)
				return i
			}
			assert.Less(t, pos("class C"), pos("class B"))
			assert.Less(t, pos("class F"), pos("class EItem"))
			assert.Less(t, pos("class B"), pos("class A"))
			assert.Less(t, pos("class EItem"), pos("class A"))
			assert.Less(t, pos("class A"), pos("class Root"))
			assert.Less(t, pos("class G"), pos("class Root"))
		})
	}
}

func TestRender_Deterministic(t *testing.T) {
	input := `[{"a": 1, "b": [{"c": "x"}]}, {"a": 2.5, "d": {"e": null}}]`
	for _, style := range Styles() {
		first := render(t, style, input)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, render(t, style, input), style.String())
		}
	}
}

func TestRender_Errors(t *testing.T) {
	_, err := NewGenerator().Render(inferGraph(t, `{}`), Style(99))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrUnsupportedStyle))

	_, err = NewGenerator().Render(nil, PlainDataClass)
	require.Error(t, err)
	var appErr *errors.AppError
	require.True(t, stderrors.As(err, &appErr))
	assert.Equal(t, errors.ErrorTypeGenerate, appErr.Type)
}

func TestParseStyle(t *testing.T) {
	for _, s := range Styles() {
		parsed, err := ParseStyle(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	parsed, err := ParseStyle(" Pydantic ")
	require.NoError(t, err)
	assert.Equal(t, ValidationModelBaseClass, parsed)

	_, err = ParseStyle("protobuf")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrUnsupportedStyle))

	assert.Len(t, StyleNames(), 7)
}

// Python-backed checks run only where an interpreter is installed.

func python(t *testing.T) string {
	t.Helper()
	path, err := exec.LookPath("python3")
	if err != nil {
		t.Skip("python3 not available")
	}
	return path
}

// hasModule reports whether the interpreter can import module.
func hasModule(interpreter, module string) bool {
	return exec.Command(interpreter, "-c", "import "+module).Run() == nil
}

func runPython(t *testing.T, interpreter, source, stdin string) {
	t.Helper()
	file := filepath.Join(t.TempDir(), "check.py")
	require.NoError(t, os.WriteFile(file, []byte(source), 0o644))

	cmd := exec.Command(interpreter, file)
	cmd.Stdin = strings.NewReader(stdin)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "python failed:\n%s\n--- source ---\n%s", out, source)
}

func TestRender_PythonSyntax(t *testing.T) {
	interpreter := python(t)
	inputs := []string{
		`{"a": 1, "b": "x"}`,
		`[{"a": 1}, {"a": "x", "b": null}, {"c": {"d": [1, 2.5]}}]`,
		`{"class": 1, "from": {"import": true}, "2fa": "x", "self": null, "_x": 1}`,
		`{"v": [1, "a", {"k": true}, [null]]}`,
		`[[[]]]`,
		`{}`,
		`{"annotated": {"x": 1}, "2b": 1, "int": null}`,
	}

	for _, style := range Styles() {
		for _, in := range inputs {
			out := render(t, style, in)
			check := "import ast, sys\nast.parse(sys.stdin.read())\n"
			runPython(t, interpreter, check, out)
		}
	}
}

func TestRender_SerializationRoundTrip(t *testing.T) {
	interpreter := python(t)
	sample := `{"id": 1, "tags": ["a", "b"], "owner": {"name": "x"}, "score": null, "ratio": 0.5, "mixed": [1, "two", {"k": true}], "grid": [[1, 2], [3]]}`

	code := render(t, DataClassWithSerialization, sample)
	script := code + "\n\nimport json, sys\n" +
		"sample = json.loads(sys.stdin.read())\n" +
		"assert Root.from_dict(sample).to_dict() == sample, Root.from_dict(sample).to_dict()\n"
	runPython(t, interpreter, script, sample)
}

func TestRender_BuiltinFieldNames(t *testing.T) {
	inputs := []string{`{"int": 1, "x": 2}`, `{"x": 3, "y": 4}`}

	expected := py(
		"from dataclasses import dataclass",
		"from typing import Optional",
		"",
		"",
		"@dataclass",
		"class Root:",
		"\tx: int",
		"\tint_: Optional[int] = None  # JSON key: \"int\"",
		"\ty: Optional[int] = None",
	)
	assert.Equal(t, expected, render(t, PlainDataClass, inputs...))

	for _, key := range []string{"str", "float", "bool"} {
		out := render(t, ValidationModelBaseClass, `{"`+key+`": 1}`, `{}`)
		assert.Contains(t, out, "\t"+key+"_: Optional[int] = Field(default=None, alias=\""+key+"\")", key)
	}
	out := render(t, ValidationModelBaseClass, `{"Annotated": 1}`, `{}`)
	assert.Contains(t, out, "\tannotated: Optional[int] = Field(default=None, alias=\"Annotated\")")

	interpreter := python(t)
	check := `
import typing
hints = Root.__annotations__
assert hints["x"] is int, hints
assert hints["int_"] == typing.Optional[int], hints
assert hints["y"] == typing.Optional[int], hints
r = Root(x=3)
assert r.int_ is None and r.y is None
`
	for _, style := range []Style{PlainDataClass, DataClassWithSerialization, ValidationModelBaseClass, ValidationModelDecorated} {
		t.Run(style.String(), func(t *testing.T) {
			if style.isPydantic() && !hasModule(interpreter, "pydantic") {
				t.Skip("pydantic not installed")
			}
			runPython(t, interpreter, render(t, style, inputs...)+check, "")
		})
	}

	code := render(t, DataClassWithSerialization, inputs...)
	roundTrip := `
import json, sys
sample = json.loads(sys.stdin.read())
assert Root.from_dict(sample).to_dict() == sample, Root.from_dict(sample).to_dict()
`
	runPython(t, interpreter, code+roundTrip, inputs[0])
}

func TestRender_ImportedNameCollisions(t *testing.T) {
	input := `{"annotated": {"x": 1}, "2b": 1}`

	out := render(t, ValidationModelBaseClass, input)
	assert.Contains(t, out, "class Annotated_(BaseModel):\n\tx: int\n")
	assert.Contains(t, out, "\tannotated: Annotated_\n")
	assert.Contains(t, out, "\tfield_2_b: Annotated[int, Field(alias=\"2b\")]\n")

	interpreter := python(t)
	for _, style := range Styles() {
		t.Run(style.String(), func(t *testing.T) {
			if style.isPydantic() && !hasModule(interpreter, "pydantic") {
				t.Skip("pydantic not installed")
			}
			runPython(t, interpreter, render(t, style, input), "")
		})
	}

	if hasModule(interpreter, "pydantic") {
		check := "\nm = Root.model_validate({\"annotated\": {\"x\": 1}, \"2b\": 5})\nassert m.field_2_b == 5 and m.annotated.x == 1\n"
		runPython(t, interpreter, out+check, "")
	}
}

func TestRender_SerializationRoundTripSpecialStrings(t *testing.T) {
	sample := `{"events": [` +
		`{"id": "7c9e6679-7425-40de-944b-e07fc1f90ae7", "at": "2024-01-02T03:04:05Z"},` +
		`{"id": "123e4567-e89b-12d3-a456-426614174000", "at": "2024-01-02T03:04:05.123456-05:30"},` +
		`{"id": "00000000-0000-0000-0000-000000000001", "at": "2024-01-02T03:04:05", "seen": ["2023-12-31T23:59:59Z"]}` +
		`]}`

	v, err := parser.ParseString(sample)
	require.NoError(t, err)
	g, err := analyzer.NewAnalyzerWithOptions(analyzer.Options{DetectSpecialStrings: true}, nil).Infer([]models.Value{v})
	require.NoError(t, err)
	code, err := NewGenerator().Render(g, DataClassWithSerialization)
	require.NoError(t, err)

	assert.Contains(t, code, "\tid: UUID\n\tat: datetime\n\tseen: Optional[List[datetime]] = None\n")

	interpreter := python(t)
	script := code + `
import json, sys
from datetime import datetime
sample = json.loads(sys.stdin.read())
root = Root.from_dict(sample)
assert all(isinstance(e.at, datetime) for e in root.events)
assert root.to_dict() == sample, root.to_dict()
`
	runPython(t, interpreter, script, sample)
}
