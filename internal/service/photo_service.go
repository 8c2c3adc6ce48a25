package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/anime-shed/photo-curator-go/internal/analyzer"
	apperrors "github.com/anime-shed/photo-curator-go/internal/errors"
	"github.com/anime-shed/photo-curator-go/internal/logger"
	"github.com/anime-shed/photo-curator-go/internal/observer"
	"github.com/anime-shed/photo-curator-go/internal/repository"
	"github.com/anime-shed/photo-curator-go/internal/storage"
	"github.com/anime-shed/photo-curator-go/pkg/models"
	"github.com/anime-shed/photo-curator-go/pkg/validation"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// PhotoService defines upload, retrieval and batch analysis of photos
type PhotoService interface {
	// Upload validates and stores a photo under a fresh unique name
	Upload(ctx context.Context, originalName string, r io.Reader) (*models.UploadRecord, error)

	// Open streams a stored photo together with its content type
	Open(ctx context.Context, filename string) (io.ReadCloser, string, error)

	// AnalyzeBatch scores every existing photo of the batch and ranks them
	AnalyzeBatch(ctx context.Context, req BatchRequest) ([]models.AnalysisResult, error)
}

// BatchRequest selects the photos and scoring options of one batch. Nil
// Criteria means the default set; an empty set scores brightness only.
type BatchRequest struct {
	Filenames []string
	Criteria  analyzer.Criteria
	Locale    analyzer.Locale
}

// Dependencies are the collaborators of the photo service
type Dependencies struct {
	Store         storage.ImageStore
	Repository    repository.ImageRepository
	Analyzer      analyzer.QualityAnalyzer
	Cache         repository.AnalysisCache
	Pool          *analyzer.WorkerPool
	Events        observer.Subject
	Validator     *validation.FilenameValidator
	Thresholds    analyzer.ScoringThresholds
	MaxUploadSize int64
}

// photoService implements PhotoService
type photoService struct {
	store         storage.ImageStore
	repo          repository.ImageRepository
	analyzer      analyzer.QualityAnalyzer
	cache         repository.AnalysisCache
	pool          *analyzer.WorkerPool
	events        observer.Subject
	validator     *validation.FilenameValidator
	thresholds    analyzer.ScoringThresholds
	maxUploadSize int64

	newID func() string
	now   func() time.Time
}

// NewPhotoService creates a new photo service
func NewPhotoService(deps Dependencies) PhotoService {
	validator := deps.Validator
	if validator == nil {
		validator = validation.NewFilenameValidator()
	}
	thresholds := deps.Thresholds
	if thresholds.MaxScore == 0 {
		thresholds = analyzer.DefaultThresholds()
	}
	return &photoService{
		store:         deps.Store,
		repo:          deps.Repository,
		analyzer:      deps.Analyzer,
		cache:         deps.Cache,
		pool:          deps.Pool,
		events:        deps.Events,
		validator:     validator,
		thresholds:    thresholds,
		maxUploadSize: deps.MaxUploadSize,
		newID:         uuid.NewString,
		now:           time.Now,
	}
}

// Upload stores the photo as "<uuid>.<ext>" with the lowercased extension of
// the client-supplied name.
func (s *photoService) Upload(ctx context.Context, originalName string, r io.Reader) (*models.UploadRecord, error) {
	start := time.Now()

	record, err := s.upload(ctx, originalName, r)
	if err != nil {
		s.publish(ctx, observer.PhotoEvent{
			EventType:    observer.UploadFailed,
			Filename:     originalName,
			Duration:     time.Since(start),
			ErrorMessage: err.Error(),
			Backend:      s.store.Backend(),
		})
		return nil, err
	}

	s.publish(ctx, observer.PhotoEvent{
		EventType: observer.UploadCompleted,
		Filename:  record.Filename,
		Duration:  time.Since(start),
		Success:   true,
		Backend:   s.store.Backend(),
		Bytes:     record.Size,
		Metadata: map[string]interface{}{
			"original_name": originalName,
			"format":        record.Format,
		},
	})
	return record, nil
}

func (s *photoService) upload(ctx context.Context, originalName string, r io.Reader) (*models.UploadRecord, error) {
	ext, err := s.validator.ValidateUploadName(originalName)
	if err != nil {
		return nil, err
	}

	data, err := s.readUpload(r)
	if err != nil {
		return nil, err
	}

	meta, err := s.repo.ReadMetadata(data)
	if err != nil {
		if errors.Is(err, repository.ErrImageTooLarge) {
			return nil, apperrors.NewPayloadTooLargeError("Image dimensions exceed the pixel limit", err)
		}
		return nil, apperrors.NewUnsupportedMediaError("File is not a valid image", err)
	}

	filename := s.newID() + "." + ext
	size, err := s.store.Save(ctx, filename, bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewTimeoutError("Saving upload timed out", err)
		}
		return nil, apperrors.NewStorageError("Failed to save upload", err)
	}

	record := &models.UploadRecord{
		Filename:     filename,
		OriginalName: originalName,
		Size:         size,
		Width:        meta.Width,
		Height:       meta.Height,
		Format:       meta.Format,
		ContentType:  meta.ContentType,
		UploadTime:   s.now(),
	}
	if meta.Camera != nil {
		record.Camera = &models.CameraInfo{
			Make:    meta.Camera.Make,
			Model:   meta.Camera.Model,
			TakenAt: meta.Camera.TakenAt,
		}
	}
	return record, nil
}

func (s *photoService) readUpload(r io.Reader) ([]byte, error) {
	limited := r
	if s.maxUploadSize > 0 {
		limited = io.LimitReader(r, s.maxUploadSize+1)
	}

	data, err := io.ReadAll(limited)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, apperrors.NewPayloadTooLargeError("File too large", err)
		}
		return nil, apperrors.NewValidationError("Failed to read upload", err)
	}
	if s.maxUploadSize > 0 && int64(len(data)) > s.maxUploadSize {
		return nil, apperrors.NewPayloadTooLargeError("File too large", nil)
	}
	if len(data) == 0 {
		return nil, apperrors.NewValidationError("Uploaded file is empty", nil)
	}
	return data, nil
}

// Open looks the photo up in uploads first, then in processed.
func (s *photoService) Open(ctx context.Context, filename string) (io.ReadCloser, string, error) {
	if err := s.validator.ValidateStoredName(filename); err != nil {
		return nil, "", apperrors.NewNotFoundError("File does not exist", err)
	}

	rc, err := s.store.Open(ctx, filename)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, "", apperrors.NewNotFoundError("File does not exist", err)
		}
		return nil, "", apperrors.NewStorageError("Failed to read image", err)
	}
	return rc, contentTypeFor(filename), nil
}

func contentTypeFor(filename string) string {
	if ct := mime.TypeByExtension(strings.ToLower(path.Ext(filename))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// photoSlot is the per-photo result of a batch before ranking
type photoSlot struct {
	found    bool
	cacheHit bool
	entry    repository.CachedAnalysis
}

// AnalyzeBatch fans the photos out over the worker pool and ranks the
// outcomes once all of them are in. Photos that do not exist are left out.
func (s *photoService) AnalyzeBatch(ctx context.Context, req BatchRequest) ([]models.AnalysisResult, error) {
	if len(req.Filenames) == 0 {
		return nil, apperrors.NewValidationError("No filenames provided", nil)
	}

	start := time.Now()
	criteria := req.Criteria
	if criteria == nil {
		criteria = analyzer.DefaultCriteria()
	}
	options := analyzer.DefaultOptions().
		WithThresholds(s.thresholds).
		WithCriteria(criteria).
		WithLocale(req.Locale)

	slots := make([]photoSlot, len(req.Filenames))
	var wg sync.WaitGroup
	var submitErr error

	for i, name := range req.Filenames {
		wg.Add(1)
		job := func() {
			defer wg.Done()
			slots[i] = s.analyzeOne(ctx, name, options)
		}
		if !s.pool.Submit(job) {
			wg.Done()
			submitErr = apperrors.NewInternalError("Analysis workers are shut down", nil)
			break
		}
	}
	wg.Wait()

	if submitErr == nil {
		submitErr = ctx.Err()
	}
	if submitErr != nil {
		s.publish(ctx, observer.PhotoEvent{
			EventType:    observer.BatchFailed,
			Duration:     time.Since(start),
			Count:        len(req.Filenames),
			ErrorMessage: submitErr.Error(),
		})
		if errors.Is(submitErr, context.DeadlineExceeded) {
			return nil, apperrors.NewTimeoutError("Analysis timed out", submitErr)
		}
		return nil, submitErr
	}

	results := rankResults(req.Filenames, slots, options.Locale)

	s.publish(ctx, observer.PhotoEvent{
		EventType: observer.BatchCompleted,
		Duration:  time.Since(start),
		Success:   true,
		Count:     len(results),
		Metadata: map[string]interface{}{
			"requested": len(req.Filenames),
			"criteria":  options.Criteria.Key(),
			"locale":    string(options.Locale),
		},
	})
	return results, nil
}

// analyzeOne loads and scores one photo. Photos that cannot be decoded get
// the analyzer's unreadable outcome rather than an error.
func (s *photoService) analyzeOne(ctx context.Context, name string, options analyzer.AnalysisOptions) photoSlot {
	if ctx.Err() != nil {
		return photoSlot{}
	}
	start := time.Now()

	if err := s.validator.ValidateStoredName(name); err != nil {
		s.publishSkipped(ctx, name, err)
		return photoSlot{}
	}

	if entry, ok := s.cache.Get(name, options); ok {
		s.publishScored(ctx, name, entry.Outcome, time.Since(start), true)
		return photoSlot{found: true, cacheHit: true, entry: entry}
	}

	img, err := s.repo.LoadImage(ctx, name)
	cacheable := true
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrImageNotFound):
		s.publishSkipped(ctx, name, err)
		return photoSlot{}
	case ctx.Err() != nil:
		return photoSlot{}
	default:
		// Undecodable bytes never change; storage hiccups might
		cacheable = errors.Is(err, repository.ErrUndecodable) || errors.Is(err, repository.ErrImageTooLarge)
		logger.WithError(err).WithField("filename", name).Warn("Photo could not be loaded")
		img = nil
	}

	entry := repository.CachedAnalysis{
		Outcome: s.analyzer.AnalyzeWithOptions(img, options),
	}
	if img != nil {
		entry.DHash, entry.Hashed = differenceHash(img)
	}
	if cacheable {
		s.cache.Set(name, options, entry)
	}

	s.publishScored(ctx, name, entry.Outcome, time.Since(start), false)
	return photoSlot{found: true, entry: entry}
}

func (s *photoService) publishScored(ctx context.Context, name string, outcome analyzer.Outcome, d time.Duration, cacheHit bool) {
	s.publish(ctx, observer.PhotoEvent{
		EventType:      observer.AnalysisCompleted,
		Filename:       name,
		Duration:       d,
		Success:        !outcome.IsFallback(),
		Score:          outcome.Score,
		QualityLevel:   string(analyzer.QualityLevelFor(outcome.Score)),
		FallbackReason: string(outcome.Reason),
		CacheHit:       cacheHit,
	})
}

func (s *photoService) publishSkipped(ctx context.Context, name string, err error) {
	s.publish(ctx, observer.PhotoEvent{
		EventType:    observer.PhotoSkipped,
		Filename:     name,
		ErrorMessage: err.Error(),
	})
}

func (s *photoService) publish(ctx context.Context, event observer.PhotoEvent) {
	if s.events == nil {
		logger.WithFields(logrus.Fields{
			"event_type": event.EventType,
			"filename":   event.Filename,
		}).Debug("Photo event without publisher")
		return
	}
	s.events.NotifyObservers(ctx, event)
}
