package otms

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Note is the structured annotation text.
//
// CustomCategory is only meaningful when the label is Other; it names the
// user-defined sub-category. The legacy export format packs both fields into
// a single string (see PackNote), which exists solely at the OTMS boundary.
type Note struct {
	CustomCategory string `json:"customCategoryName,omitempty"`
	Description    string `json:"description,omitempty"`
}

// Annotation is one user-entered categorization of a ledger transaction.
// Annotations are keyed by the transaction signature in the annotation store
// and never expire on their own.
type Annotation struct {
	Label    Label  `json:"label"`
	Note     Note   `json:"note"`
	ProofURL string `json:"proofUrl,omitempty"`
}

// Validate enforces the local input rules: a known label and, if a proof URL
// is present, an http or https scheme.
func (a Annotation) Validate() error {
	if !a.Label.Valid() {
		return fmt.Errorf("invalid annotation label %q", a.Label)
	}
	if a.ProofURL != "" {
		u, err := url.Parse(a.ProofURL)
		if err != nil {
			return fmt.Errorf("invalid proof URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return errors.New("proof URL must be http or https")
		}
	}
	if a.Label != LabelOther && a.Note.CustomCategory != "" {
		return errors.New("custom category requires the Other label")
	}
	return nil
}

// PackNote renders the legacy single-string description used in exported
// documents: "<custom> | <description>" when a custom sub-category is set.
func PackNote(n Note) string {
	if n.CustomCategory == "" {
		return n.Description
	}
	if n.Description == "" {
		return n.CustomCategory
	}
	return n.CustomCategory + " | " + n.Description
}

// UnpackNote splits a packed legacy description back into its parts. Only
// used when importing documents produced by older exports; a plain string
// without the separator maps entirely to Description.
func UnpackNote(s string, label Label) Note {
	if label != LabelOther {
		return Note{Description: s}
	}
	custom, desc, found := strings.Cut(s, " | ")
	if !found {
		return Note{Description: s}
	}
	return Note{CustomCategory: custom, Description: desc}
}
