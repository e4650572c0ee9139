// Package catalog ingests tool-function definitions from dataset files
// and turns them into normalized, identity-hashed entries ready to be
// indexed.
package catalog

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"github.com/zeebo/blake3"

	"github.com/richinex/toolpilot/internal/codec"
	"github.com/richinex/toolpilot/model"
)

// Entry is one unique tool definition ready for indexing.
type Entry struct {
	ToolID string
	Text   string
	Info   model.ToolInfo
}

// Load reads every dataset path and returns unique entries in first-seen
// order. Records that yield no parsable function are skipped.
func Load(logger zerolog.Logger, paths ...string) ([]Entry, error) {
	var entries []Entry
	seen := make(map[string]bool)

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read dataset %s: %w", path, err)
		}
		records, err := ParseRecords(data)
		if err != nil {
			return nil, fmt.Errorf("parse dataset %s: %w", path, err)
		}

		before := len(entries)
		for _, record := range records {
			for _, fn := range ExtractFunctions(record) {
				info := ToolInfoFrom(fn)
				id, err := ToolID(info)
				if err != nil {
					return nil, err
				}
				if seen[id] {
					continue
				}
				seen[id] = true
				entries = append(entries, Entry{ToolID: id, Text: FunctionText(info), Info: info})
			}
		}
		logger.Info().
			Str("path", path).
			Int("records", len(records)).
			Int("functions", len(entries)-before).
			Msg("dataset loaded")
	}
	return entries, nil
}

// ParseRecords accepts either a JSON array of records or newline-delimited
// JSON, one record per non-blank line.
func ParseRecords(data []byte) ([]gjson.Result, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		if !gjson.ValidBytes(trimmed) {
			return nil, fmt.Errorf("invalid JSON array")
		}
		return gjson.ParseBytes(trimmed).Array(), nil
	}

	var records []gjson.Result
	for i, line := range bytes.Split(trimmed, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if !gjson.ValidBytes(line) {
			return nil, fmt.Errorf("line %d: invalid JSON", i+1)
		}
		records = append(records, gjson.ParseBytes(line))
	}
	return records, nil
}

// ExtractFunctions returns the function definitions carried by a record:
// either a "Functions" array of object literals (as strings or objects)
// or a single "function" object.
func ExtractFunctions(record gjson.Result) []gjson.Result {
	var out []gjson.Result

	if fns := record.Get("Functions"); fns.Exists() {
		for _, item := range fns.Array() {
			switch {
			case item.Type == gjson.String:
				if fn, ok := parseLiteral(item.Str); ok {
					out = append(out, fn)
				}
			case item.IsObject():
				out = append(out, item)
			}
		}
		return out
	}

	if fn := record.Get("function"); fn.IsObject() {
		out = append(out, fn)
	}
	return out
}

// ToolInfoFrom builds a ToolInfo from a function definition.
// api_call is accepted as an alias of api_name.
func ToolInfoFrom(fn gjson.Result) model.ToolInfo {
	apiName := stringField(fn, "api_name")
	if apiName == "" {
		apiName = stringField(fn, "api_call")
	}
	return model.ToolInfo{
		Name:        stringField(fn, "name"),
		APIName:     apiName,
		Description: stringField(fn, "description"),
		Parameters:  NormalizeParameters(fn.Get("parameters")),
	}
}

// FunctionText renders the text that gets embedded for a tool.
func FunctionText(info model.ToolInfo) string {
	params, _ := json.Marshal(info.Parameters)
	return fmt.Sprintf("%s::%s\n%s\nparams: %s", info.Name, info.APIName, info.Description, params)
}

type identity struct {
	Name     string        `cbor:"name"`
	APIName  string        `cbor:"api_name"`
	Required []model.Param `cbor:"required"`
	Optional []model.Param `cbor:"optional"`
}

// ToolID is the hex blake3 digest of the deterministic CBOR encoding of
// the normalized (name, api_name, parameters) triple.
func ToolID(info model.ToolInfo) (string, error) {
	required := info.Parameters.Required
	if required == nil {
		required = []model.Param{}
	}
	optional := info.Parameters.Optional
	if optional == nil {
		optional = []model.Param{}
	}
	data, err := codec.Marshal(identity{
		Name:     info.Name,
		APIName:  info.APIName,
		Required: required,
		Optional: optional,
	})
	if err != nil {
		return "", fmt.Errorf("encode tool identity: %w", err)
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func stringField(fn gjson.Result, key string) string {
	v := fn.Get(key)
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Null:
		return ""
	default:
		return strings.TrimSpace(v.String())
	}
}
