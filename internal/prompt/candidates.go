// Package prompt renders candidate tools for model-backed stages.
package prompt

import (
	"fmt"
	"strings"

	"github.com/richinex/toolpilot/model"
)

// descLimit caps how much of a description goes into a prompt line.
const descLimit = 120

// CandidateLine renders one candidate as
//
//	id:<tool_id> name:<name> api:<api_name> desc:<description> req:[p(type), ...]
//
// with the description cut to its first 120 characters and "?" for
// parameters without a type.
func CandidateLine(c model.Candidate) string {
	req := make([]string, len(c.Parameters.Required))
	for i, p := range c.Parameters.Required {
		typ := p.Type
		if typ == "" {
			typ = "?"
		}
		req[i] = fmt.Sprintf("%s(%s)", p.Name, typ)
	}
	return fmt.Sprintf("id:%s name:%s api:%s desc:%s req:[%s]",
		c.ToolID, c.Name, c.APIName, truncate(c.Description, descLimit), strings.Join(req, ", "))
}

// Numbered renders candidates one per line as "<i>. <line>".
func Numbered(candidates []model.Candidate) string {
	var b strings.Builder
	for i, c := range candidates {
		fmt.Fprintf(&b, "%d. %s\n", i, CandidateLine(c))
	}
	return b.String()
}

// Bulleted renders candidates one per line as "- <line>".
func Bulleted(candidates []model.Candidate) string {
	var b strings.Builder
	for _, c := range candidates {
		b.WriteString("- ")
		b.WriteString(CandidateLine(c))
		b.WriteByte('\n')
	}
	return b.String()
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
