// Package fingerprint derives stable content-addressed identifiers for form
// fields. The canonical payload is a wire contract shared with the browser
// extension: both sides serialize {label, options, type} with alphabetical
// keys, "," and ":" separators, no HTML escaping, then take the first 32 hex
// characters of a SHA-256 digest. Any change to the normalization or the
// payload layout breaks cross-stack matching and needs a versioned scheme.
package fingerprint

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"regexp"
	"sort"
	"strings"
)

const Length = 32

var (
	nonAlnum   = regexp.MustCompile(`[^a-z0-9 ]`)
	whitespace = regexp.MustCompile(`\s+`)
)

// NormalizeLabel lowercases s, replaces every character outside [a-z0-9 ]
// with a space and collapses whitespace runs.
func NormalizeLabel(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonAlnum.ReplaceAllString(s, " ")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

type payload struct {
	Label   string   `json:"label"`
	Options []string `json:"options"`
	Type    string   `json:"type"`
}

// Compute hashes a field identity down to a 32-character fingerprint.
// The label is expected to be the raw display label (callers apply the
// placeholder/name fallback before calling); options keep duplicates but
// lose their order.
func Compute(label, fieldType string, options []string) string {
	norm := make([]string, 0, len(options))
	for _, opt := range options {
		norm = append(norm, NormalizeLabel(opt))
	}
	sort.Strings(norm)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload{
		Label:   NormalizeLabel(label),
		Options: norm,
		Type:    strings.ToLower(strings.TrimSpace(fieldType)),
	})

	sum := sha256.Sum256(bytes.TrimRight(buf.Bytes(), "\n"))
	return hex.EncodeToString(sum[:])[:Length]
}
