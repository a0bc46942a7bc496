// Package canonical implements the deterministic JSON byte form used for
// hashing and anchoring OTMS documents.
package canonical

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Canonicalize is the mandatory canonicalization choke point for the proof
// protocol.
//
// Every digest, CID derivation, and memo comparison MUST pass through this
// function. It rewrites a JSON-like value into a single fixed textual form:
// object keys sorted byte-wise at every nesting depth, array order preserved,
// compact spacing, no trailing newline.
//
// Canonicalize is deterministic and idempotent:
//
//	Canonicalize(parse(Canonicalize(v))) == Canonicalize(v)
//
// A revisited map or slice (a reference cycle) is emitted as null rather than
// recursed into.
func Canonicalize(v any) (string, error) {
	var sb strings.Builder
	if err := writeCanonical(&sb, v, map[uintptr]bool{}); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// CanonicalizeJSON parses raw JSON and canonicalizes the result.
//
// Numbers are kept in their source spelling (json.Number), so the canonical
// form of a parsed document never depends on float round-tripping.
func CanonicalizeJSON(raw []byte) (string, error) {
	v, err := ParseJSON(raw)
	if err != nil {
		return "", err
	}
	return Canonicalize(v)
}

// ParseJSON decodes raw JSON into the generic value shape Canonicalize
// operates on, preserving numeric spelling and rejecting trailing garbage.
func ParseJSON(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after JSON value")
	}
	return v, nil
}

func writeCanonical(sb *strings.Builder, v any, seen map[uintptr]bool) error {
	switch val := v.(type) {
	case nil:
		sb.WriteString("null")
		return nil
	case bool:
		if val {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
		return nil
	case string:
		return writeString(sb, val)
	case json.Number:
		sb.WriteString(val.String())
		return nil
	case map[string]any:
		ptr := reflect.ValueOf(val).Pointer()
		if ptr != 0 && seen[ptr] {
			sb.WriteString("null")
			return nil
		}
		if ptr != 0 {
			seen[ptr] = true
			defer delete(seen, ptr)
		}
		return writeObject(sb, val, seen)
	case []any:
		ptr := reflect.ValueOf(val).Pointer()
		if ptr != 0 && seen[ptr] {
			sb.WriteString("null")
			return nil
		}
		if ptr != 0 {
			seen[ptr] = true
			defer delete(seen, ptr)
		}
		return writeArray(sb, val, seen)
	}

	// Anything else (structs, typed slices/maps, numeric kinds) is flattened
	// through encoding/json into the generic shape first. Such values cannot
	// be cyclic: json.Marshal rejects cycles.
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("canonicalize: %w", err)
	}
	flat, err := ParseJSON(b)
	if err != nil {
		return fmt.Errorf("canonicalize: %w", err)
	}
	return writeCanonical(sb, flat, seen)
}

func writeObject(sb *strings.Builder, m map[string]any, seen map[uintptr]bool) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sb.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		if err := writeString(sb, k); err != nil {
			return err
		}
		sb.WriteByte(':')
		if err := writeCanonical(sb, m[k], seen); err != nil {
			return err
		}
	}
	sb.WriteByte('}')
	return nil
}

func writeArray(sb *strings.Builder, a []any, seen map[uintptr]bool) error {
	sb.WriteByte('[')
	for i, el := range a {
		if i > 0 {
			sb.WriteByte(',')
		}
		if err := writeCanonical(sb, el, seen); err != nil {
			return err
		}
	}
	sb.WriteByte(']')
	return nil
}

// writeString delegates escaping to encoding/json so the escape rules stay
// fixed in one place.
func writeString(sb *strings.Builder, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	sb.Write(b)
	return nil
}
