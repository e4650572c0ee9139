package codec

import (
	"bytes"
	"testing"
)

type header struct {
	Version int    `cbor:"version"`
	Name    string `cbor:"name"`
}

func TestMarshalDeterministicMapOrder(t *testing.T) {
	a := map[string]any{"b": 1, "a": 2, "c": []any{"x"}}
	b := map[string]any{"c": []any{"x"}, "a": 2, "b": 1}

	first, err := Marshal(a)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	second, err := Marshal(b)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("deterministic encoding violated: %x != %x", first, second)
	}
}

func TestUnmarshalFirstReturnsRest(t *testing.T) {
	data, err := Marshal(header{Version: 1, Name: "vectors"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	data = append(data, 0xde, 0xad)

	var decoded header
	rest, err := UnmarshalFirst(data, &decoded)
	if err != nil {
		t.Fatalf("UnmarshalFirst: %v", err)
	}
	if decoded.Version != 1 || decoded.Name != "vectors" {
		t.Errorf("decoded = %+v", decoded)
	}
	if !bytes.Equal(rest, []byte{0xde, 0xad}) {
		t.Errorf("rest = %x", rest)
	}
}

func TestUnmarshalAnyUsesStringKeys(t *testing.T) {
	data, _ := Marshal(map[string]any{"k": "v"})
	var out any
	if err := Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, ok := out.(map[string]any); !ok {
		t.Errorf("decoded %T, want map[string]any", out)
	}
}
