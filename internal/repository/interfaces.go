package repository

import (
	"context"
	"image"
	"time"

	"github.com/anime-shed/photo-curator-go/internal/analyzer"
)

// ImageRepository defines the interface for image data access operations
type ImageRepository interface {
	// LoadImage reads and decodes a stored photo
	LoadImage(ctx context.Context, filename string) (image.Image, error)

	// ReadMetadata extracts dimensions, format and camera fields from raw bytes
	ReadMetadata(data []byte) (*ImageMetadata, error)
}

// ImageMetadata contains metadata about an image
type ImageMetadata struct {
	ContentType string
	Width       int
	Height      int
	Format      string
	Camera      *CameraInfo
}

// CameraInfo holds the EXIF fields shown with an upload
type CameraInfo struct {
	Make    string     `json:"make,omitempty"`
	Model   string     `json:"model,omitempty"`
	TakenAt *time.Time `json:"taken_at,omitempty"`
}

// CachedAnalysis is what the cache remembers about one scored photo
type CachedAnalysis struct {
	Outcome analyzer.Outcome
	// DHash is the difference hash of the decoded photo, valid when Hashed
	DHash  uint64
	Hashed bool
}

// AnalysisCache defines the interface for caching analysis outcomes
type AnalysisCache interface {
	Get(filename string, options analyzer.AnalysisOptions) (CachedAnalysis, bool)
	Set(filename string, options analyzer.AnalysisOptions, entry CachedAnalysis)
	ItemCount() int
}
