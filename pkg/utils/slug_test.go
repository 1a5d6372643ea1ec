package utils

import (
	"testing"
)

func TestNormalizeSlug(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Basic text with spaces",
			input:    "Hello World",
			expected: "hello-world",
		},
		{
			name:     "German special characters",
			input:    "Siemens München",
			expected: "siemens-munchen",
		},
		{
			name:     "French special characters",
			input:    "Société Générale",
			expected: "societe-generale",
		},
		{
			name:     "Numbers and special chars",
			input:    "Dev 123! @#$% Test",
			expected: "dev-123-at-test",
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "Multiple spaces and hyphens",
			input:    "Senior    ---    Backend   Engineer",
			expected: "senior-backend-engineer",
		},
		{
			name:     "Leading and trailing spaces",
			input:    "   Data Analyst   ",
			expected: "data-analyst",
		},
		{
			name:     "Accented characters",
			input:    "Café Résumé Naïve",
			expected: "cafe-resume-naive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeSlug(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizeSlug(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestGenerateSourceSlug(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Simple name",
			input:    "LinkedIn",
			expected: "linkedin",
		},
		{
			name:     "Name with spaces",
			input:    "We Work Remotely",
			expected: "we-work-remotely",
		},
		{
			name:     "Empty name falls back",
			input:    "",
			expected: "source",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GenerateSourceSlug(tt.input)
			if result != tt.expected {
				t.Errorf("GenerateSourceSlug(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestGenerateJobFingerprint(t *testing.T) {
	// Same logical posting must produce the same fingerprint regardless of
	// casing and accents, since sources format these fields differently.
	a := GenerateJobFingerprint("Acme GmbH", "Senior Backend Engineer", "Berlin")
	b := GenerateJobFingerprint("ACME GMBH", "Senior Backend Engineer", "Berlin")
	if a != b {
		t.Errorf("fingerprints differ for equivalent postings: %q vs %q", a, b)
	}

	c := GenerateJobFingerprint("Acme GmbH", "Senior Backend Engineer", "Hamburg")
	if a == c {
		t.Errorf("fingerprints collide for different locations: %q", a)
	}

	if len(a) != 32 {
		t.Errorf("fingerprint length = %d, want 32", len(a))
	}

	// Empty fields get placeholder values rather than producing an empty hash input
	d := GenerateJobFingerprint("", "", "")
	if d == "" {
		t.Error("fingerprint for empty input should not be empty")
	}
}
