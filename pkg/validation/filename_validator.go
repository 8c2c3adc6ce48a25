package validation

import (
	"strings"

	apperrors "github.com/anime-shed/photo-curator-go/internal/errors"

	"github.com/samber/lo"
)

// DefaultAllowedExtensions are the upload types the service accepts
var DefaultAllowedExtensions = []string{"png", "jpg", "jpeg", "gif", "webp"}

// FilenameValidator handles upload and stored-file name validation
type FilenameValidator struct {
	allowedExtensions []string
}

// NewFilenameValidator creates a new filename validator with default settings
func NewFilenameValidator() *FilenameValidator {
	return NewFilenameValidatorWithOptions(DefaultAllowedExtensions)
}

// NewFilenameValidatorWithOptions creates a filename validator with custom extensions
func NewFilenameValidatorWithOptions(extensions []string) *FilenameValidator {
	return &FilenameValidator{
		allowedExtensions: lo.Map(extensions, func(ext string, _ int) string {
			return strings.ToLower(strings.TrimPrefix(ext, "."))
		}),
	}
}

// ValidateUploadName checks the client-supplied name of an upload and
// returns its lowercased extension.
func (v *FilenameValidator) ValidateUploadName(originalName string) (string, error) {
	if strings.TrimSpace(originalName) == "" {
		return "", apperrors.NewValidationError("No file selected", nil)
	}

	// Only the part after the last dot counts
	idx := strings.LastIndex(originalName, ".")
	if idx < 0 || idx == len(originalName)-1 {
		return "", apperrors.NewUnsupportedMediaError("Unsupported file format", nil).
			WithDetails("file has no extension")
	}

	ext := strings.ToLower(originalName[idx+1:])
	if !lo.Contains(v.allowedExtensions, ext) {
		return "", apperrors.NewUnsupportedMediaError("Unsupported file format", nil).
			WithDetails("allowed: " + strings.Join(v.allowedExtensions, ", "))
	}
	return ext, nil
}

// ValidateStoredName rejects names that are not plain file names
func (v *FilenameValidator) ValidateStoredName(name string) error {
	if strings.TrimSpace(name) == "" {
		return apperrors.NewValidationError("Filename cannot be empty", nil)
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") || strings.ContainsRune(name, 0) {
		return apperrors.NewValidationError("Invalid filename", nil)
	}
	return nil
}
