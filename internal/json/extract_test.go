package json

import (
	"strings"
	"testing"
)

type segmentsReply struct {
	Segments []string `json:"segments"`
}

func TestPureJSON(t *testing.T) {
	result, err := Decode[segmentsReply](`{"segments": ["a", "b"]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Segments) != 2 || result.Segments[0] != "a" {
		t.Errorf("unexpected segments: %v", result.Segments)
	}
}

func TestFencedJSON(t *testing.T) {
	response := "```json\n{\"segments\": [\"book flight\"]}\n```"
	result, err := Decode[segmentsReply](response)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Segments) != 1 || result.Segments[0] != "book flight" {
		t.Errorf("unexpected segments: %v", result.Segments)
	}
}

func TestFenceWithoutLanguageTag(t *testing.T) {
	response := "```\n{\"segments\": []}\n```"
	result, err := Decode[segmentsReply](response)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Segments) != 0 {
		t.Errorf("expected no segments, got %v", result.Segments)
	}
}

func TestJSONWithCommentary(t *testing.T) {
	response := `Here you go: {"segments": ["x"]} Done!`
	result, err := Decode[segmentsReply](response)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Segments) != 1 {
		t.Errorf("expected 1 segment, got %v", result.Segments)
	}
}

func TestNoJSON(t *testing.T) {
	_, err := Decode[segmentsReply]("This is just plain text without any JSON.")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "failed to extract valid JSON") {
		t.Errorf("expected 'failed to extract valid JSON' in error, got: %v", err)
	}
}

func TestEmptyResponse(t *testing.T) {
	if _, err := Decode[segmentsReply]("   "); err == nil {
		t.Fatal("expected error for empty response")
	}
}

func TestInvalidJSON(t *testing.T) {
	if _, err := Decode[segmentsReply](`{"segments": [}`); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestStripCodeFence(t *testing.T) {
	cases := map[string]string{
		"```json\n{}\n```": "{}",
		"```{}```":         "{}",
		"  {}  ":           "{}",
		"```JSON\n[1]\n```": "[1]",
	}
	for in, want := range cases {
		if got := StripCodeFence(in); got != want {
			t.Errorf("StripCodeFence(%q) = %q, want %q", in, got, want)
		}
	}
}
