package api

import "time"

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// SourceCountResponse represents active job counts for one source
type SourceCountResponse struct {
	Source     string `json:"source"`
	ActiveJobs int    `json:"active_jobs"`
}

// SourcesResponse represents the per-source store breakdown
type SourcesResponse struct {
	Sources   []SourceCountResponse `json:"sources"`
	TotalJobs int                   `json:"total_jobs"`
	Timestamp time.Time             `json:"timestamp"`
}

// Response represents a general API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
	Message string      `json:"message,omitempty"`
}
