package otms

import (
	"testing"
	"time"

	"github.com/kanima1/opentreasury/canonical"
)

var buildTime = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func sampleAnnotations() map[string]Annotation {
	return map[string]Annotation{
		"sigB": {Label: LabelGrant, Note: Note{Description: "milestone 2 payout"}},
		"sigA": {Label: LabelDonation, Note: Note{Description: "community drive"}, ProofURL: "https://example.org/receipt"},
		"sigC": {Label: LabelOther, Note: Note{CustomCategory: "Legal", Description: "retainer"}},
	}
}

func TestBuild_EntriesSortedBySignature(t *testing.T) {
	doc := Build("T1", "mainnet-beta", sampleAnnotations(), buildTime)
	if len(doc.Entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(doc.Entries))
	}
	for i, want := range []string{"sigA", "sigB", "sigC"} {
		if doc.Entries[i].Signature != want {
			t.Fatalf("entry %d: got %q want %q", i, doc.Entries[i].Signature, want)
		}
	}
}

func TestBuild_OptionalFieldsDefaultToEmpty(t *testing.T) {
	doc := Build("T1", "devnet", map[string]Annotation{
		"sig1": {Label: LabelOps},
	}, buildTime)
	e := doc.Entries[0]
	if e.Description != "" || e.ProofURL != "" {
		t.Fatalf("optional fields not empty: %+v", e)
	}
	canon, err := canonical.Canonicalize(doc)
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	want := `{"cluster":"devnet","entries":[{"category":"Ops","description":"","proofUrl":"","signature":"sig1"}],"exportedAt":"2026-03-14T09:26:53Z","standard":"OTMS","treasury":"T1","version":1}`
	if canon != want {
		t.Fatalf("canonical form drifted:\n got %s\nwant %s", canon, want)
	}
}

func TestBuild_PacksOtherSubCategory(t *testing.T) {
	doc := Build("T1", "devnet", sampleAnnotations(), buildTime)
	var other Entry
	for _, e := range doc.Entries {
		if e.Category == LabelOther {
			other = e
		}
	}
	if other.Description != "Legal | retainer" {
		t.Fatalf("packed description: got %q", other.Description)
	}
}

func TestDigest_StableAcrossRebuilds(t *testing.T) {
	anns := sampleAnnotations()
	r1, err := NewProofRecord(Build("T1", "devnet", anns, buildTime))
	if err != nil {
		t.Fatalf("NewProofRecord: %v", err)
	}
	r2, err := NewProofRecord(Build("T1", "devnet", anns, buildTime))
	if err != nil {
		t.Fatalf("NewProofRecord: %v", err)
	}
	if r1.DigestHex != r2.DigestHex {
		t.Fatalf("digest unstable: %s vs %s", r1.DigestHex, r2.DigestHex)
	}
	if r1.CID != r2.CID {
		t.Fatalf("CID unstable: %s vs %s", r1.CID, r2.CID)
	}
}

func TestDigest_TimestampIsExpectedNonDeterminism(t *testing.T) {
	anns := sampleAnnotations()
	r1, err := NewProofRecord(Build("T1", "devnet", anns, buildTime))
	if err != nil {
		t.Fatalf("NewProofRecord: %v", err)
	}
	r2, err := NewProofRecord(Build("T1", "devnet", anns, buildTime.Add(time.Second)))
	if err != nil {
		t.Fatalf("NewProofRecord: %v", err)
	}
	// Two exports one second apart differ by exportedAt only, and so must
	// their full digests. Known protocol property, not a bug.
	if r1.DigestHex == r2.DigestHex {
		t.Fatal("digests equal despite differing exportedAt")
	}
}

func TestImport_CurrentShape(t *testing.T) {
	doc := Build("T1", "devnet", sampleAnnotations(), buildTime)
	raw, err := doc.MarshalIndent()
	if err != nil {
		t.Fatalf("MarshalIndent: %v", err)
	}
	got, err := Import(raw)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if got.Treasury != "T1" || len(got.Entries) != 3 {
		t.Fatalf("imported document mismatch: %+v", got)
	}
}

func TestImport_LegacyMetaShape(t *testing.T) {
	raw := []byte(`{"meta":{
		"sig2":{"label":"Grant","note":"grant payout","proofUrl":""},
		"sig1":{"label":"Other","note":"Legal | retainer","proofUrl":"https://example.org/p"}
	}}`)
	doc, err := Import(raw)
	if err != nil {
		t.Fatalf("Import legacy: %v", err)
	}
	if doc.Standard != Standard || doc.Version != Version {
		t.Fatalf("legacy import missing schema tags: %+v", doc)
	}
	if doc.Entries[0].Signature != "sig1" || doc.Entries[1].Signature != "sig2" {
		t.Fatalf("legacy entries not sorted: %+v", doc.Entries)
	}
	anns, err := doc.Annotations()
	if err != nil {
		t.Fatalf("Annotations: %v", err)
	}
	if anns["sig1"].Note.CustomCategory != "Legal" || anns["sig1"].Note.Description != "retainer" {
		t.Fatalf("packed note not unpacked: %+v", anns["sig1"].Note)
	}
}

func TestImport_RejectsUnknownShape(t *testing.T) {
	if _, err := Import([]byte(`{"hello":"world"}`)); err == nil {
		t.Fatal("expected error for unknown shape")
	}
	if _, err := Import([]byte(`{"standard":"OTMS","version":2}`)); err == nil {
		t.Fatal("expected error for unsupported version")
	}
}

func TestAnnotationValidate(t *testing.T) {
	cases := []struct {
		name string
		ann  Annotation
		ok   bool
	}{
		{"plain", Annotation{Label: LabelDonation}, true},
		{"https proof", Annotation{Label: LabelGrant, ProofURL: "https://example.org"}, true},
		{"http proof", Annotation{Label: LabelGrant, ProofURL: "http://example.org"}, true},
		{"ftp proof", Annotation{Label: LabelGrant, ProofURL: "ftp://example.org"}, false},
		{"bad label", Annotation{Label: Label("Misc")}, false},
		{"custom without other", Annotation{Label: LabelOps, Note: Note{CustomCategory: "X"}}, false},
		{"custom with other", Annotation{Label: LabelOther, Note: Note{CustomCategory: "X"}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.ann.Validate()
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestDigestHexAlg(t *testing.T) {
	c := `{"a":1}`
	sha, err := DigestHexAlg("sha256", c)
	if err != nil {
		t.Fatalf("sha256: %v", err)
	}
	if sha != DigestHex(c) {
		t.Fatal("sha256 helper disagrees with DigestHex")
	}
	sha3sum, err := DigestHexAlg("sha3-256", c)
	if err != nil {
		t.Fatalf("sha3-256: %v", err)
	}
	if sha3sum == sha || len(sha3sum) != 64 {
		t.Fatalf("sha3-256 digest unexpected: %s", sha3sum)
	}
	if _, err := DigestHexAlg("md5", c); err == nil {
		t.Fatal("expected error for unsupported algorithm")
	}
}
