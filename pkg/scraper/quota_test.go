package scraper

import (
	"testing"

	"github.com/jobradar/core/pkg/models"
)

func TestQuotaManager_ShouldStopCycle(t *testing.T) {
	tests := []struct {
		name         string
		globalTarget int
		totalUnique  int
		want         bool
	}{
		{
			name:         "zero target never stops",
			globalTarget: 0,
			totalUnique:  1000000,
			want:         false,
		},
		{
			name:         "below target continues",
			globalTarget: 500,
			totalUnique:  499,
			want:         false,
		},
		{
			name:         "exact target stops",
			globalTarget: 500,
			totalUnique:  500,
			want:         true,
		},
		{
			name:         "over target stops",
			globalTarget: 500,
			totalUnique:  520,
			want:         true,
		},
		{
			name:         "zero progress with target continues",
			globalTarget: 500,
			totalUnique:  0,
			want:         false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewQuotaManager(tt.globalTarget, nil)
			stats := models.CycleStats{TotalUniqueJobs: tt.totalUnique}

			if got := q.ShouldStopCycle(stats); got != tt.want {
				t.Errorf("ShouldStopCycle() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQuotaManager_HasSourceReachedTarget(t *testing.T) {
	targets := map[string]int{
		"linkedin": 100,
		"indeed":   0, // explicitly unlimited
	}

	tests := []struct {
		name   string
		counts map[string]int
		source string
		want   bool
	}{
		{
			name:   "below target",
			counts: map[string]int{"linkedin": 99},
			source: "linkedin",
			want:   false,
		},
		{
			name:   "at target",
			counts: map[string]int{"linkedin": 100},
			source: "linkedin",
			want:   true,
		},
		{
			name:   "over target",
			counts: map[string]int{"linkedin": 150},
			source: "linkedin",
			want:   true,
		},
		{
			name:   "zero target is unlimited",
			counts: map[string]int{"indeed": 100000},
			source: "indeed",
			want:   false,
		},
		{
			name:   "unconfigured source is unlimited",
			counts: map[string]int{"remoteok": 100000},
			source: "remoteok",
			want:   false,
		},
		{
			name:   "no count yet",
			counts: map[string]int{},
			source: "linkedin",
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewQuotaManager(0, targets)
			stats := models.CycleStats{PerSourceCounts: tt.counts}

			if got := q.HasSourceReachedTarget(stats, tt.source); got != tt.want {
				t.Errorf("HasSourceReachedTarget(%q) = %v, want %v", tt.source, got, tt.want)
			}
		})
	}
}

func TestQuotaManager_SourceTargetsCopied(t *testing.T) {
	original := map[string]int{"linkedin": 100}
	q := NewQuotaManager(0, original)

	// Mutating the input map or the returned copy must not affect decisions
	original["linkedin"] = 1
	returned := q.SourceTargets()
	returned["linkedin"] = 1

	stats := models.CycleStats{PerSourceCounts: map[string]int{"linkedin": 50}}
	if q.HasSourceReachedTarget(stats, "linkedin") {
		t.Error("quota manager observed external map mutation")
	}
}
