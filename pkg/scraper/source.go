package scraper

import (
	"regexp"
	"time"

	"github.com/jobradar/core/internal/config"
	"github.com/jobradar/core/pkg/utils"
)

// Source describes one external scraper: how to invoke it, how long it may
// run, and how to read its self-reported count.
type Source struct {
	// Slug is the stable identifier used in quotas, waves, and store rows
	Slug string
	Name string
	// Command is the argv of the scraper process
	Command []string
	// Timeout is the hard wall-clock bound for one invocation
	Timeout time.Duration
	// Marker extracts the self-reported saved count from the scraper's
	// text output. The first capture group must be the count. Absence of a
	// match falls back to counting store rows.
	Marker *regexp.Regexp
}

// Wave is an ordered group of sources dispatched concurrently
type Wave []Source

var defaultMarker = regexp.MustCompile(`(?m)^SAVED (\d+) jobs?$`)

// DefaultWaves returns the built-in wave plan: fast low-cost boards first,
// the critical high-volume sources next, long-tail sources last.
func DefaultWaves() []Wave {
	return []Wave{
		{
			newSource("RemoteOK", []string{"python3", "scrapers/remoteok.py"}, 90*time.Second, defaultMarker),
			newSource("We Work Remotely", []string{"python3", "scrapers/weworkremotely.py"}, 2*time.Minute, defaultMarker),
			newSource("HN Who Is Hiring", []string{"python3", "scrapers/hn_hiring.py"}, 3*time.Minute, defaultMarker),
		},
		{
			newSource("LinkedIn", []string{"python3", "scrapers/linkedin.py"}, 20*time.Minute,
				regexp.MustCompile(`(?m)^Total jobs saved: (\d+)$`)),
			newSource("Indeed", []string{"python3", "scrapers/indeed.py"}, 15*time.Minute,
				regexp.MustCompile(`(?m)^Total jobs saved: (\d+)$`)),
		},
		{
			newSource("StepStone", []string{"python3", "scrapers/stepstone.py"}, 10*time.Minute, defaultMarker),
			newSource("Glassdoor", []string{"python3", "scrapers/glassdoor.py"}, 10*time.Minute, defaultMarker),
			newSource("Company Pages", []string{"python3", "scrapers/company_pages.py"}, 8*time.Minute, defaultMarker),
		},
	}
}

func newSource(name string, command []string, timeout time.Duration, marker *regexp.Regexp) Source {
	slug := utils.GenerateSourceSlug(name)
	timeoutSeconds := config.SourceTimeoutSeconds(slug, int(timeout.Seconds()))

	return Source{
		Slug:    slug,
		Name:    name,
		Command: command,
		Timeout: time.Duration(timeoutSeconds) * time.Second,
		Marker:  marker,
	}
}

// FilterWaves removes disabled sources and drops waves left empty
func FilterWaves(waves []Wave, disabled []string) []Wave {
	disabledSet := make(map[string]bool, len(disabled))
	for _, slug := range disabled {
		disabledSet[slug] = true
	}

	var filtered []Wave
	for _, wave := range waves {
		var kept Wave
		for _, src := range wave {
			if !disabledSet[src.Slug] {
				kept = append(kept, src)
			}
		}
		if len(kept) > 0 {
			filtered = append(filtered, kept)
		}
	}
	return filtered
}
