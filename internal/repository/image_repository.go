package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/anime-shed/photo-curator-go/internal/logger"
	"github.com/anime-shed/photo-curator-go/internal/storage"

	"github.com/bep/imagemeta"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/webp"
)

// exifTimeLayout is the EXIF DateTime format
const exifTimeLayout = "2006:01:02 15:04:05"

// cameraTags are the EXIF tags copied into CameraInfo
var cameraTags = map[string]bool{
	"Make":             true,
	"Model":            true,
	"DateTimeOriginal": true,
}

// metaFormats maps image.DecodeConfig format names to the formats
// imagemeta can read EXIF from. GIF carries no EXIF.
var metaFormats = map[string]imagemeta.ImageFormat{
	"jpeg": imagemeta.JPEG,
	"png":  imagemeta.PNG,
	"webp": imagemeta.WebP,
}

// StoreImageRepository implements ImageRepository on top of an ImageStore
type StoreImageRepository struct {
	store     storage.ImageStore
	maxBytes  int64
	maxPixels int64
}

// NewStoreImageRepository creates a repository reading at most maxBytes per
// image and decoding at most maxPixels. Zero disables a limit.
func NewStoreImageRepository(store storage.ImageStore, maxBytes, maxPixels int64) ImageRepository {
	return &StoreImageRepository{
		store:     store,
		maxBytes:  maxBytes,
		maxPixels: maxPixels,
	}
}

// LoadImage reads a stored photo and decodes it. A missing file yields
// ErrImageNotFound; bytes no registered decoder accepts yield ErrUndecodable.
func (r *StoreImageRepository) LoadImage(ctx context.Context, filename string) (image.Image, error) {
	rc, err := r.store.Open(ctx, filename)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) || errors.Is(err, storage.ErrInvalidName) {
			return nil, fmt.Errorf("%s: %w", filename, ErrImageNotFound)
		}
		return nil, err
	}
	defer rc.Close()

	reader := io.Reader(rc)
	if r.maxBytes > 0 {
		reader = io.LimitReader(rc, r.maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	if r.maxBytes > 0 && int64(len(data)) > r.maxBytes {
		return nil, fmt.Errorf("%s: %w", filename, ErrImageTooLarge)
	}

	img, cfg, format, err := decode(data, r.maxPixels)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	logger.WithFields(logrus.Fields{
		"filename": filename,
		"format":   format,
		"bytes":    len(data),
		"width":    cfg.Width,
		"height":   cfg.Height,
	}).Debug("Image decoded")

	return img, nil
}

// ReadMetadata fully decodes the upload, then reads dimensions, format and
// EXIF camera fields. Missing or broken EXIF data is not an error.
func (r *StoreImageRepository) ReadMetadata(data []byte) (*ImageMetadata, error) {
	return ReadMetadata(data, r.maxPixels)
}

// ReadMetadata is the store-independent form of ImageRepository.ReadMetadata.
func ReadMetadata(data []byte, maxPixels int64) (*ImageMetadata, error) {
	_, cfg, format, err := decode(data, maxPixels)
	if err != nil {
		return nil, err
	}

	return &ImageMetadata{
		ContentType: http.DetectContentType(data),
		Width:       cfg.Width,
		Height:      cfg.Height,
		Format:      strings.ToUpper(format),
		Camera:      extractCamera(data, format),
	}, nil
}

// decode checks the declared dimensions against maxPixels before decoding
// the pixel data.
func decode(data []byte, maxPixels int64) (image.Image, image.Config, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, cfg, "", fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); maxPixels > 0 && pixels > maxPixels {
		return nil, cfg, format, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrImageTooLarge, cfg.Width, cfg.Height, maxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, cfg, format, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	return img, cfg, format, nil
}

func extractCamera(data []byte, format string) *CameraInfo {
	metaFormat, ok := metaFormats[format]
	if !ok {
		return nil
	}
	info := &CameraInfo{}
	found := false

	_, err := imagemeta.Decode(imagemeta.Options{
		R:           bytes.NewReader(data),
		ImageFormat: metaFormat,
		Sources:     imagemeta.EXIF,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			return cameraTags[ti.Tag]
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			s, ok := ti.Value.(string)
			if !ok {
				return nil
			}
			s = strings.TrimSpace(strings.TrimRight(s, "\x00"))
			if s == "" {
				return nil
			}
			switch ti.Tag {
			case "Make":
				info.Make = s
			case "Model":
				info.Model = s
			case "DateTimeOriginal":
				t, err := time.Parse(exifTimeLayout, s)
				if err != nil {
					return nil
				}
				info.TakenAt = &t
			default:
				return nil
			}
			found = true
			return nil
		},
	})
	if err != nil || !found {
		return nil
	}
	return info
}
