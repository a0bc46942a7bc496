package canonical

import (
	"encoding/json"
	"testing"
)

func TestCanonicalize_KeyOrderIndependent(t *testing.T) {
	a, err := CanonicalizeJSON([]byte(`{"b":1,"a":2}`))
	if err != nil {
		t.Fatalf("CanonicalizeJSON a: %v", err)
	}
	b, err := CanonicalizeJSON([]byte(`{"a":2,"b":1}`))
	if err != nil {
		t.Fatalf("CanonicalizeJSON b: %v", err)
	}
	if a != b {
		t.Fatalf("key order changed canonical output: %q vs %q", a, b)
	}
	if a != `{"a":2,"b":1}` {
		t.Fatalf("unexpected canonical form: %q", a)
	}
}

func TestCanonicalize_NestedSorting(t *testing.T) {
	got, err := CanonicalizeJSON([]byte(`{"z":{"b":[{"y":1,"x":2}],"a":true},"a":null}`))
	if err != nil {
		t.Fatalf("CanonicalizeJSON: %v", err)
	}
	want := `{"a":null,"z":{"a":true,"b":[{"x":2,"y":1}]}}`
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestCanonicalize_ArrayOrderPreserved(t *testing.T) {
	got, err := CanonicalizeJSON([]byte(`[3,1,2]`))
	if err != nil {
		t.Fatalf("CanonicalizeJSON: %v", err)
	}
	if got != `[3,1,2]` {
		t.Fatalf("array order not preserved: %q", got)
	}
}

func TestCanonicalize_Idempotent(t *testing.T) {
	inputs := []string{
		`{"b":1,"a":{"d":[1,2,{"q":"v"}],"c":"x"}}`,
		`{"version":1,"standard":"OTMS","treasury":"T1","entries":[]}`,
		`[{"b":false},null,"s",1.5]`,
		`"plain string with \"quotes\" and <"`,
		`12345678901234567890.000001`,
	}
	for _, in := range inputs {
		first, err := CanonicalizeJSON([]byte(in))
		if err != nil {
			t.Fatalf("CanonicalizeJSON(%q): %v", in, err)
		}
		second, err := CanonicalizeJSON([]byte(first))
		if err != nil {
			t.Fatalf("CanonicalizeJSON(first): %v", err)
		}
		if first != second {
			t.Fatalf("not idempotent for %q: %q vs %q", in, first, second)
		}
	}
}

func TestCanonicalize_NumberSpellingPreserved(t *testing.T) {
	got, err := CanonicalizeJSON([]byte(`{"n":1.0,"m":1}`))
	if err != nil {
		t.Fatalf("CanonicalizeJSON: %v", err)
	}
	if got != `{"m":1,"n":1.0}` {
		t.Fatalf("number spelling not preserved: %q", got)
	}
}

func TestCanonicalize_CycleShortCircuits(t *testing.T) {
	m := map[string]any{"a": json.Number("1")}
	m["self"] = m
	got, err := Canonicalize(m)
	if err != nil {
		t.Fatalf("Canonicalize cyclic map: %v", err)
	}
	if got != `{"a":1,"self":null}` {
		t.Fatalf("cycle not broken as null: %q", got)
	}

	inner := []any{nil}
	outer := []any{inner}
	inner[0] = outer
	got, err = Canonicalize(outer)
	if err != nil {
		t.Fatalf("Canonicalize cyclic slice: %v", err)
	}
	if got != `[[null]]` {
		t.Fatalf("slice cycle not broken as null: %q", got)
	}
}

func TestCanonicalize_SharedSubtreeIsNotACycle(t *testing.T) {
	shared := map[string]any{"k": "v"}
	got, err := Canonicalize(map[string]any{"a": shared, "b": shared})
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	if got != `{"a":{"k":"v"},"b":{"k":"v"}}` {
		t.Fatalf("shared subtree mis-handled: %q", got)
	}
}

func TestCanonicalize_TypedValuesFlattened(t *testing.T) {
	type entry struct {
		Signature string `json:"signature"`
		Category  string `json:"category"`
	}
	got, err := Canonicalize(struct {
		Version int     `json:"version"`
		Entries []entry `json:"entries"`
	}{Version: 1, Entries: []entry{{Signature: "s1", Category: "Donation"}}})
	if err != nil {
		t.Fatalf("Canonicalize struct: %v", err)
	}
	want := `{"entries":[{"category":"Donation","signature":"s1"}],"version":1}`
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestParseJSON_RejectsTrailingData(t *testing.T) {
	if _, err := ParseJSON([]byte(`{} {}`)); err == nil {
		t.Fatal("expected error for trailing data")
	}
}

func TestCanonicalizeJSON_RejectsMalformed(t *testing.T) {
	if _, err := CanonicalizeJSON([]byte(`{"a":`)); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}
