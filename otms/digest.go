package otms

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"golang.org/x/crypto/sha3"
)

// DigestHex returns the lowercase hex sha-256 digest of canonical bytes.
// Input must be the Canonicalizer's output, never a pretty-printed form.
func DigestHex(canonical string) string {
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// DigestHexAlg computes a digest with an explicit algorithm.
// Supported: sha256 (the protocol default) and sha3-256.
func DigestHexAlg(alg, canonical string) (string, error) {
	switch alg {
	case "sha256":
		return DigestHex(canonical), nil
	case "sha3-256":
		sum := sha3.Sum256([]byte(canonical))
		return hex.EncodeToString(sum[:]), nil
	default:
		return "", fmt.Errorf("unsupported hash algorithm: %q", alg)
	}
}

// ContentCID returns an IPFS-compatible CIDv1 (raw + sha2-256) for canonical
// document bytes, usable as a content address alongside the hex digest.
func ContentCID(canonical string) string {
	sum, err := multihash.Sum([]byte(canonical), multihash.SHA2_256, -1)
	if err != nil {
		// multihash.Sum only errors for invalid parameters; with SHA2_256 and
		// default length this is unreachable.
		return ""
	}
	return cid.NewCidV1(cid.Raw, sum).String()
}

// ValidDigestHex reports whether s is a well-formed 64-char hex digest.
func ValidDigestHex(s string) bool {
	if len(s) != 64 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
