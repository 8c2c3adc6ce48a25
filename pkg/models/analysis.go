package models

import "time"

// AnalysisResult is one photo's entry in a batch analysis response
type AnalysisResult struct {
	Filename     string     `json:"filename"`
	Score        float64    `json:"score"`
	Tags         []string   `json:"tags"`
	QualityLevel string     `json:"quality"`
	SubScores    []SubScore `json:"sub_scores,omitempty"`

	// Set when the photo could not be scored
	Fallback       bool   `json:"fallback,omitempty"`
	FallbackReason string `json:"fallback_reason,omitempty"`

	// Earlier photo in the same batch that looks the same
	DuplicateOf string `json:"duplicate_of,omitempty"`
}

// SubScore is the contribution of one criterion to the final score
type SubScore struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
	Tag   string  `json:"tag,omitempty"`
}

// UploadRecord describes a stored upload
type UploadRecord struct {
	Filename     string      `json:"filename"`
	OriginalName string      `json:"original_name"`
	Size         int64       `json:"size"`
	Width        int         `json:"width"`
	Height       int         `json:"height"`
	Format       string      `json:"format"`
	ContentType  string      `json:"content_type"`
	UploadTime   time.Time   `json:"upload_time"`
	Camera       *CameraInfo `json:"camera,omitempty"`
}

// CameraInfo holds EXIF camera fields when the upload carries them
type CameraInfo struct {
	Make    string     `json:"make,omitempty"`
	Model   string     `json:"model,omitempty"`
	TakenAt *time.Time `json:"taken_at,omitempty"`
}
