// Package anchor renders and decodes the on-chain memo that binds an OTMS
// document digest to the ledger, and orchestrates writing it.
package anchor

import (
	"errors"
	"fmt"
	"strings"
)

// ProtocolName is the human-readable label on the memo's first line.
const ProtocolName = "OpenTreasury"

// ErrMissingHashLine is returned by Decode when no Hash: line is present.
var ErrMissingHashLine = errors.New("anchor: memo has no Hash line")

// Memo is the decoded form of an anchor memo. It is always derived by
// parsing memo text; never built directly from untrusted input.
type Memo struct {
	Label        string
	Treasury     string
	DigestHex    string
	TimestampISO string
}

// Encode renders the fixed four-line memo layout:
//
//	OpenTreasury Proof (OTMS v1)
//	Treasury: <treasury>
//	Hash: <digestHex>
//	Timestamp: <timestampIso>
func Encode(treasury, digestHex, timestampISO string) string {
	var sb strings.Builder
	sb.WriteString(ProtocolName)
	sb.WriteString(" Proof (OTMS v1)\n")
	sb.WriteString("Treasury: ")
	sb.WriteString(treasury)
	sb.WriteString("\n")
	sb.WriteString("Hash: ")
	sb.WriteString(digestHex)
	sb.WriteString("\n")
	sb.WriteString("Timestamp: ")
	sb.WriteString(timestampISO)
	return sb.String()
}

// Decode parses memo text back into a Memo.
//
// Fields are located by case-insensitive prefix match, not by position, so
// extra lines and reordering introduced by third-party re-encoding are
// tolerated. Only a missing Hash line is fatal.
func Decode(memoText string) (Memo, error) {
	m := Memo{}
	for i, line := range strings.Split(memoText, "\n") {
		trimmed := strings.TrimSpace(line)
		if i == 0 && m.Label == "" && !strings.Contains(trimmed, ":") {
			m.Label = trimmed
			continue
		}
		switch {
		case hasFoldPrefix(trimmed, "Hash:"):
			m.DigestHex = strings.TrimSpace(trimmed[len("Hash:"):])
		case hasFoldPrefix(trimmed, "Treasury:"):
			m.Treasury = strings.TrimSpace(trimmed[len("Treasury:"):])
		case hasFoldPrefix(trimmed, "Timestamp:"):
			m.TimestampISO = strings.TrimSpace(trimmed[len("Timestamp:"):])
		}
	}
	if m.DigestHex == "" {
		return Memo{}, fmt.Errorf("%w", ErrMissingHashLine)
	}
	return m, nil
}

func hasFoldPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
