package utils

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/gosimple/slug"
)

// NormalizeSlug creates a URL-friendly slug using the gosimple/slug library
// This handles all Unicode characters including Turkish, European, and other languages
func NormalizeSlug(text string) string {
	if text == "" {
		return ""
	}

	// Use gosimple/slug which handles all international characters properly
	return slug.Make(text)
}

// GenerateSourceSlug creates a slug for a scrape source name. Source slugs
// are the stable identifiers used in quotas, waves, and store rows.
func GenerateSourceSlug(sourceName string) string {
	if sourceName == "" {
		return "source"
	}
	return NormalizeSlug(sourceName)
}

// GenerateJobFingerprint is the canonical derivation of the content-based
// identifier for a job posting. The same posting reported by different
// sources, or by the same source on different days, yields the same
// fingerprint. Scraper processes write fingerprints to the store directly
// and must produce byte-identical output for the same fields; this function
// is the reference they are held to.
func GenerateJobFingerprint(company, title, location string) string {
	if company == "" {
		company = "company"
	}
	if title == "" {
		title = "title"
	}

	text := NormalizeSlug(company + " " + title + " " + location)
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:16])
}
