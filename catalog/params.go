package catalog

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/richinex/toolpilot/model"
)

// NormalizeParameters converts the three parameter shapes found in
// datasets into {required, optional}:
//
//   - an object with "required"/"optional" keys is used as-is
//   - any other object is a set of named parameters, all required
//   - a list is used directly as the required list
//
// A gjson.Result keeps the order its named parameters are declared in.
// Decoded Go values are re-encoded first, so map keys come out sorted.
// The function is idempotent on its own output.
func NormalizeParameters(raw any) model.Parameters {
	switch v := raw.(type) {
	case model.Parameters:
		params := emptyParameters()
		params.Required = append(params.Required, v.Required...)
		params.Optional = append(params.Optional, v.Optional...)
		return params
	case gjson.Result:
		return normalizeResult(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return emptyParameters()
		}
		return normalizeResult(gjson.ParseBytes(data))
	}
}

func normalizeResult(r gjson.Result) model.Parameters {
	params := emptyParameters()

	switch {
	case r.IsObject():
		if r.Get("required").Exists() || r.Get("optional").Exists() {
			params.Required = paramList(r.Get("required"))
			params.Optional = paramList(r.Get("optional"))
			return params
		}
		r.ForEach(func(name, info gjson.Result) bool {
			p := model.Param{Name: name.String()}
			if info.IsObject() {
				p.Type = text(info.Get("type"))
				p.Description = text(info.Get("description"))
			}
			params.Required = append(params.Required, p)
			return true
		})
	case r.IsArray():
		for _, item := range r.Array() {
			if item.IsObject() {
				params.Required = append(params.Required, paramFrom(item))
			}
		}
	}
	return params
}

func emptyParameters() model.Parameters {
	return model.Parameters{Required: []model.Param{}, Optional: []model.Param{}}
}

func paramList(r gjson.Result) []model.Param {
	out := []model.Param{}
	if !r.IsArray() {
		return out
	}
	for _, item := range r.Array() {
		switch {
		case item.IsObject():
			out = append(out, paramFrom(item))
		case item.Type == gjson.String:
			out = append(out, model.Param{Name: item.Str})
		}
	}
	return out
}

func paramFrom(r gjson.Result) model.Param {
	return model.Param{
		Name:        text(r.Get("name")),
		Type:        text(r.Get("type")),
		Description: text(r.Get("description")),
	}
}

func text(r gjson.Result) string {
	if r.Type == gjson.Null {
		return ""
	}
	return r.String()
}
