package otms

import "fmt"

// Label is the closed set of annotation categories.
type Label string

const (
	LabelDonation  Label = "Donation"
	LabelGrant     Label = "Grant"
	LabelOps       Label = "Ops"
	LabelMilestone Label = "Milestone"
	LabelOther     Label = "Other"
)

var labels = []Label{LabelDonation, LabelGrant, LabelOps, LabelMilestone, LabelOther}

// ParseLabel validates a category tag from external input.
func ParseLabel(s string) (Label, error) {
	for _, l := range labels {
		if string(l) == s {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

func (l Label) Valid() bool {
	for _, k := range labels {
		if l == k {
			return true
		}
	}
	return false
}
