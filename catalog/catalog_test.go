package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/richinex/toolpilot/model"
)

func TestNormalizeParametersShapes(t *testing.T) {
	explicit := map[string]any{
		"required": []any{map[string]any{"name": "origin", "type": "string"}, "date"},
		"optional": []any{map[string]any{"name": "class"}},
	}
	got := NormalizeParameters(explicit)
	assert.Equal(t, []model.Param{{Name: "origin", Type: "string"}, {Name: "date"}}, got.Required)
	assert.Equal(t, []model.Param{{Name: "class"}}, got.Optional)

	named := map[string]any{
		"location": map[string]any{"type": "string", "description": "City", "default": "x"},
		"days":     map[string]any{"type": "integer"},
	}
	got = NormalizeParameters(named)
	assert.Equal(t, []model.Param{
		{Name: "days", Type: "integer"},
		{Name: "location", Type: "string", Description: "City"},
	}, got.Required)
	assert.Empty(t, got.Optional)

	flat := []any{map[string]any{"name": "q"}, "ignored"}
	got = NormalizeParameters(flat)
	assert.Equal(t, []model.Param{{Name: "q"}}, got.Required)

	got = NormalizeParameters(nil)
	assert.NotNil(t, got.Required)
	assert.NotNil(t, got.Optional)
	assert.Empty(t, got.Required)
}

func TestNormalizeParametersIdempotent(t *testing.T) {
	inputs := []any{
		map[string]any{"required": []any{map[string]any{"name": "a", "type": "int"}}, "optional": []any{}},
		map[string]any{"x": map[string]any{"description": "the x"}},
		[]any{map[string]any{"name": "first"}, map[string]any{"name": "second"}},
	}
	for _, in := range inputs {
		once := NormalizeParameters(in)

		// Round-trip through JSON, the way metadata is persisted and re-read.
		data, err := json.Marshal(once)
		require.NoError(t, err)
		var raw any
		require.NoError(t, json.Unmarshal(data, &raw))

		assert.Equal(t, once, NormalizeParameters(raw))
		assert.Equal(t, once, NormalizeParameters(once))
	}
}

func TestNamedParametersKeepDeclarationOrder(t *testing.T) {
	want := []string{"origin", "destination", "date", "passengers"}
	names := func(params []model.Param) []string {
		out := make([]string, 0, len(params))
		for _, p := range params {
			out = append(out, p.Name)
		}
		return out
	}

	object := gjson.Parse(`{"function": {"name": "book_flight", "parameters": {
		"origin": {"type": "string"},
		"destination": {"type": "string"},
		"date": {"type": "string", "description": "YYYY-MM-DD"},
		"passengers": {"type": "integer"}
	}}}`)
	fns := ExtractFunctions(object)
	require.Len(t, fns, 1)
	info := ToolInfoFrom(fns[0])
	assert.Equal(t, want, names(info.Parameters.Required))
	assert.Equal(t, model.Param{Name: "date", Type: "string", Description: "YYYY-MM-DD"}, info.Parameters.Required[2])

	literal := gjson.Parse(`{"Functions": ["{'name': 'book_flight', 'parameters': {'origin': {}, 'destination': {}, 'date': {}, 'passengers': {}}}"]}`)
	fns = ExtractFunctions(literal)
	require.Len(t, fns, 1)
	assert.Equal(t, want, names(ToolInfoFrom(fns[0]).Parameters.Required))
}

func TestToolIDStable(t *testing.T) {
	a := ToolInfoFrom(gjson.Parse(`{
		"name": "book_flight",
		"api_call": "flights.book",
		"description": "first description",
		"parameters": {"origin": {"type": "string"}, "destination": {"type": "string"}}
	}`))
	b := ToolInfoFrom(gjson.Parse(`{
		"parameters": {"origin": {"type": "string"}, "destination": {"type": "string"}},
		"api_name": "flights.book",
		"name": "book_flight",
		"description": "description is not part of identity"
	}`))

	idA, err := ToolID(a)
	require.NoError(t, err)
	idB, err := ToolID(b)
	require.NoError(t, err)
	assert.Equal(t, idA, idB)
	assert.Len(t, idA, 64)

	b.Parameters.Optional = append(b.Parameters.Optional, model.Param{Name: "cabin"})
	idC, err := ToolID(b)
	require.NoError(t, err)
	assert.NotEqual(t, idA, idC)
}

func TestParseRecordsArrayAndNDJSON(t *testing.T) {
	arr, err := ParseRecords([]byte(`  [{"a":1},{"a":2}]`))
	require.NoError(t, err)
	assert.Len(t, arr, 2)

	nd, err := ParseRecords([]byte("{\"a\":1}\n\n{\"a\":2}\n"))
	require.NoError(t, err)
	require.Len(t, nd, 2)
	assert.Equal(t, int64(2), nd[1].Get("a").Int())

	_, err = ParseRecords([]byte("{\"a\":1}\n{broken"))
	assert.Error(t, err)

	empty, err := ParseRecords([]byte("  "))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestExtractFunctions(t *testing.T) {
	record := gjson.Parse(`{"Functions": [
		"{'name': 'get_weather', 'api_name': 'weather.get', 'description': 'It is sunny', 'parameters': {'location': {'type': 'string'}}, 'async': False}",
		"{\"name\": \"json_fn\", \"parameters\": []}",
		"not a literal at all",
		{"name": "object_fn"}
	]}`)
	fns := ExtractFunctions(record)
	require.Len(t, fns, 3)
	assert.Equal(t, "get_weather", fns[0].Get("name").String())
	assert.True(t, fns[0].Get("async").Exists())
	assert.False(t, fns[0].Get("async").Bool())
	assert.Equal(t, "json_fn", fns[1].Get("name").String())
	assert.Equal(t, "object_fn", fns[2].Get("name").String())

	single := gjson.Parse(`{"function": {"name": "f", "api_call": "m.f"}}`)
	fns = ExtractFunctions(single)
	require.Len(t, fns, 1)
	assert.Equal(t, "m.f", ToolInfoFrom(fns[0]).APIName)

	assert.Empty(t, ExtractFunctions(gjson.Parse(`{"other": 1}`)))
}

func TestPythonToJSON(t *testing.T) {
	in := `{'a': 'say "hi"', 'b': None, 'c': [True, False], 'Trueish': 'don\'t'}`
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(pythonToJSON(in)), &out))
	assert.Equal(t, `say "hi"`, out["a"])
	assert.Nil(t, out["b"])
	assert.Equal(t, []any{true, false}, out["c"])
	assert.Equal(t, "don't", out["Trueish"])
}

func TestFunctionText(t *testing.T) {
	info := model.ToolInfo{
		Name:        "book_flight",
		APIName:     "flights.book",
		Description: "Book a flight",
		Parameters:  model.Parameters{Required: []model.Param{{Name: "origin"}}},
	}
	assert.Equal(t,
		"book_flight::flights.book\nBook a flight\nparams: {\"required\":[{\"name\":\"origin\"}],\"optional\":[]}",
		FunctionText(info))
}

func TestLoadDedupes(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.json")
	second := filepath.Join(dir, "b.jsonl")

	fn := `{"name": "book_flight", "api_name": "flights.book", "parameters": {"origin": {}, "destination": {}}}`
	require.NoError(t, os.WriteFile(first, []byte(`[{"function": `+fn+`}, {"function": {"name": "get_weather"}}]`), 0o644))
	require.NoError(t, os.WriteFile(second, []byte(`{"function": `+fn+`}`+"\n"), 0o644))

	entries, err := Load(zerolog.Nop(), first, second)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "book_flight", entries[0].Info.Name)
	assert.Equal(t, "get_weather", entries[1].Info.Name)
	assert.Equal(t, FunctionText(entries[0].Info), entries[0].Text)

	_, err = Load(zerolog.Nop(), filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
