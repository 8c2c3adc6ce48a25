package models

import "time"

// AnalyzeRequest is the body of POST /api/analyze. A missing criteria field
// selects the default criteria; an empty list scores brightness only.
type AnalyzeRequest struct {
	Filenames []string `json:"filenames" binding:"required,min=1,dive,required"`
	Criteria  []string `json:"criteria,omitempty"`
	Locale    string   `json:"locale,omitempty" binding:"omitempty,oneof=en zh"`
}

// AnalyzeResponse is returned by POST /api/analyze
type AnalyzeResponse struct {
	Success      bool             `json:"success"`
	Results      []AnalysisResult `json:"results"`
	AnalysisTime time.Time        `json:"analysis_time"`
}

// UploadResponse is returned by POST /api/upload
type UploadResponse struct {
	Success bool `json:"success"`
	UploadRecord
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Time    string `json:"time"`
	Storage string `json:"storage"`
}
