package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/richinex/toolpilot/model"
)

func candidate(id, desc string, required ...model.Param) model.Candidate {
	return model.Candidate{ToolRecord: model.ToolRecord{
		ToolID:      id,
		Name:        "name_" + id,
		APIName:     "api." + id,
		Description: desc,
		Parameters:  model.Parameters{Required: required},
	}}
}

func TestCandidateLine(t *testing.T) {
	c := candidate("t1", "Books flights",
		model.Param{Name: "origin", Type: "string"},
		model.Param{Name: "passengers"},
	)
	assert.Equal(t,
		"id:t1 name:name_t1 api:api.t1 desc:Books flights req:[origin(string), passengers(?)]",
		CandidateLine(c))
}

func TestCandidateLineTruncatesDescription(t *testing.T) {
	line := CandidateLine(candidate("t", strings.Repeat("é", 200)))
	assert.Contains(t, line, "desc:"+strings.Repeat("é", 120)+" req:[]")
}

func TestNumberedAndBulleted(t *testing.T) {
	cands := []model.Candidate{candidate("a", ""), candidate("b", "")}

	numbered := Numbered(cands)
	assert.True(t, strings.HasPrefix(numbered, "0. id:a "))
	assert.Contains(t, numbered, "\n1. id:b ")

	bulleted := Bulleted(cands)
	assert.Equal(t, 2, strings.Count(bulleted, "- id:"))
}
