package otms

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
)

const (
	// Standard is the constant schema tag carried by every exported document.
	Standard = "OTMS"

	// Version is the current document schema version.
	Version = 1
)

// Entry is one exported annotation. All fields are strings; optional source
// fields default to "" so the canonical shape never varies with presence.
type Entry struct {
	Signature   string `json:"signature"`
	Category    Label  `json:"category"`
	Description string `json:"description"`
	ProofURL    string `json:"proofUrl"`
}

// Document is the exportable OTMS document.
//
// A Document is a derived, disposable value: it is built fresh on every
// export or proof generation and never persisted as a mutable object.
type Document struct {
	Version    int     `json:"version"`
	Standard   string  `json:"standard"`
	Cluster    string  `json:"cluster"`
	Treasury   string  `json:"treasury"`
	ExportedAt string  `json:"exportedAt"`
	Entries    []Entry `json:"entries"`
}

// Build assembles a Document from the current annotation set.
//
// Entries are sorted by signature so that two builds over the same set always
// canonicalize to identical bytes regardless of store iteration order. The
// exportedAt timestamp is the only non-deterministic field; builds at
// different instants legitimately produce different digests.
func Build(treasury, cluster string, annotations map[string]Annotation, now time.Time) Document {
	entries := make([]Entry, 0, len(annotations))
	for sig, a := range annotations {
		entries = append(entries, Entry{
			Signature:   sig,
			Category:    a.Label,
			Description: PackNote(a.Note),
			ProofURL:    a.ProofURL,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Signature < entries[j].Signature })

	return Document{
		Version:    Version,
		Standard:   Standard,
		Cluster:    cluster,
		Treasury:   treasury,
		ExportedAt: now.UTC().Format(time.RFC3339),
		Entries:    entries,
	}
}

// MarshalIndent renders the document for human-facing export. Proof digests
// are never computed over this form; they use the canonical form only.
func (d Document) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// Annotations converts entries back into the annotation-store mapping.
func (d Document) Annotations() (map[string]Annotation, error) {
	out := make(map[string]Annotation, len(d.Entries))
	for _, e := range d.Entries {
		if e.Signature == "" {
			return nil, errors.New("entry missing signature")
		}
		if !e.Category.Valid() {
			return nil, fmt.Errorf("entry %s: unknown category %q", e.Signature, e.Category)
		}
		out[e.Signature] = Annotation{
			Label:    e.Category,
			Note:     UnpackNote(e.Description, e.Category),
			ProofURL: e.ProofURL,
		}
	}
	return out, nil
}

// legacyDocument is the pre-v1 export shape: a bare signature→annotation
// mapping under a top-level "meta" key.
type legacyDocument struct {
	Meta map[string]struct {
		Label    string `json:"label"`
		Note     string `json:"note"`
		ProofURL string `json:"proofUrl"`
	} `json:"meta"`
}

// Import parses an exported document, accepting both the current shape and
// the legacy meta-keyed shape.
func Import(raw []byte) (Document, error) {
	var d Document
	if err := json.Unmarshal(raw, &d); err != nil {
		return Document{}, fmt.Errorf("parse document: %w", err)
	}
	if d.Standard == Standard {
		if d.Version != Version {
			return Document{}, fmt.Errorf("unsupported document version %d", d.Version)
		}
		return d, nil
	}

	var legacy legacyDocument
	if err := json.Unmarshal(raw, &legacy); err != nil || legacy.Meta == nil {
		return Document{}, errors.New("not an OTMS document")
	}
	entries := make([]Entry, 0, len(legacy.Meta))
	for sig, m := range legacy.Meta {
		label, err := ParseLabel(m.Label)
		if err != nil {
			return Document{}, fmt.Errorf("legacy entry %s: %w", sig, err)
		}
		entries = append(entries, Entry{
			Signature:   sig,
			Category:    label,
			Description: m.Note,
			ProofURL:    m.ProofURL,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Signature < entries[j].Signature })
	return Document{Version: Version, Standard: Standard, Entries: entries}, nil
}
