// Package referral generates and derives the short public codes embedded in
// shareable campaign links.
package referral

import (
	"math/rand"
	"regexp"
	"strings"
)

const codeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const codeLength = 8

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]`)

// GenerateCode returns a random 8-character code over [A-Z0-9].
func GenerateCode() string {
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeChars[rand.Intn(len(codeChars))]
	}

	return string(b)
}

// CodeFromName derives a referral code from a campaign name: trimmed,
// lowercased, with every non-alphanumeric character stripped. Returns an
// empty string when nothing survives.
func CodeFromName(name string) string {
	return nonAlphanumeric.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "")
}

// Link builds the shareable landing-page link for a code.
func Link(baseURL, refCode string) string {
	return baseURL + "?ref=" + refCode
}
