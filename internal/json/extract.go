// Package json provides JSON extraction utilities for parsing model replies.
//
// Models often wrap JSON in markdown code fences or surround it with
// commentary. This package strips that wrapping before decoding.
package json

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractJSON finds and returns the JSON portion of a reply. It handles:
// 1. Pure JSON - returns the trimmed reply
// 2. JSON wrapped in a code fence (```json ... ``` or ``` ... ```)
// 3. A JSON object embedded in text - first '{' to last '}'
//
// Brace matching is naive: braces inside strings around the object can
// defeat case 3.
func extractJSON(response string) (string, error) {
	response = StripCodeFence(response)
	if response == "" {
		return "", fmt.Errorf("empty model response")
	}

	if json.Valid([]byte(response)) {
		return response, nil
	}

	start := strings.Index(response, "{")
	if start != -1 {
		end := strings.LastIndex(response, "}")
		if end > start {
			candidate := response[start : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate, nil
			}
		}
	}

	preview := response
	if len(preview) > 100 {
		preview = preview[:100] + "..."
	}
	return "", fmt.Errorf("failed to extract valid JSON from response: %q", preview)
}

// StripCodeFence removes a surrounding markdown code fence, including an
// optional language tag on the opening fence.
func StripCodeFence(response string) string {
	trimmed := strings.TrimSpace(response)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	// Drop the language tag: everything up to the first newline, as long
	// as it is a bare word such as "json".
	if nl := strings.IndexByte(trimmed, '\n'); nl != -1 {
		tag := strings.TrimSpace(trimmed[:nl])
		if !strings.ContainsAny(tag, "{[\"") {
			trimmed = trimmed[nl+1:]
		}
	} else {
		trimmed = strings.TrimLeft(trimmed, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
	}

	trimmed = strings.TrimSpace(trimmed)
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}

// Decode extracts and decodes JSON from a model reply into T.
func Decode[T any](response string) (T, error) {
	var result T
	jsonStr, err := extractJSON(response)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return result, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return result, nil
}

// DecodeInto extracts JSON from a reply into the value pointed to by result.
func DecodeInto(response string, result any) error {
	jsonStr, err := extractJSON(response)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(jsonStr), result); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return nil
}
