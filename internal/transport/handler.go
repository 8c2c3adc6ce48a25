package transport

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/anime-shed/photo-curator-go/internal/analyzer"
	"github.com/anime-shed/photo-curator-go/internal/config"
	apperrors "github.com/anime-shed/photo-curator-go/internal/errors"
	"github.com/anime-shed/photo-curator-go/internal/logger"
	"github.com/anime-shed/photo-curator-go/internal/service"
	"github.com/anime-shed/photo-curator-go/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const version = "1.0.0"

// multipartOverhead is the body allowance on top of the file size for
// multipart boundaries and part headers
const multipartOverhead = 64 << 10

// Options carries the non-service inputs of the router
type Options struct {
	// Gatherer backs GET /metrics; nil means the default registry
	Gatherer prometheus.Gatherer
	// Backend is reported by the health check
	Backend string
}

func NewHandler(svc service.PhotoService, cfg *config.Config, opts Options) http.Handler {
	r := gin.Default()

	// Add middleware
	r.Use(
		requestSizeLimiter(cfg.MaxUploadSize+multipartOverhead),
		errorHandler(),
	)

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	// Configure routes
	r.GET("/health", healthCheck(opts.Backend))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	api.POST("/upload", uploadPhoto(svc, cfg))
	api.GET("/image/:filename", servePhoto(svc, cfg))
	api.POST("/analyze", analyzePhotos(svc, cfg))

	return r
}

func uploadPhoto(svc service.PhotoService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		fileHeader, err := c.FormFile("file")
		if err != nil {
			if isBodyTooLarge(err) {
				respondError(c, apperrors.NewPayloadTooLargeError("File too large", err))
				return
			}
			respondError(c, apperrors.NewValidationError("No file provided", err))
			return
		}
		if fileHeader.Size > cfg.MaxUploadSize {
			respondError(c, apperrors.NewPayloadTooLargeError("File too large", nil))
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			respondError(c, apperrors.NewValidationError("Failed to read upload", err))
			return
		}
		defer file.Close()

		record, err := svc.Upload(ctx, fileHeader.Filename, file)
		if err != nil {
			respondError(c, err)
			return
		}

		logger.WithFields(logrus.Fields{
			"filename":      record.Filename,
			"original_name": record.OriginalName,
			"size":          record.Size,
			"ip":            c.ClientIP(),
		}).Info("Photo uploaded")

		c.JSON(http.StatusOK, models.UploadResponse{Success: true, UploadRecord: *record})
	}
}

func servePhoto(svc service.PhotoService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		rc, contentType, err := svc.Open(ctx, c.Param("filename"))
		if err != nil {
			respondError(c, err)
			return
		}
		defer rc.Close()

		c.DataFromReader(http.StatusOK, -1, contentType, rc, nil)
	}
}

func analyzePhotos(svc service.PhotoService, cfg *config.Config) gin.HandlerFunc {
	defaultLocale := analyzer.ParseLocale(cfg.DefaultLocale)

	return func(c *gin.Context) {
		startTime := time.Now()

		var req models.AnalyzeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, apperrors.NewValidationError("Invalid request format", err))
			return
		}

		// A missing criteria field keeps nil so the service applies defaults
		var criteria analyzer.Criteria
		if req.Criteria != nil {
			parsed, err := analyzer.ParseCriteria(req.Criteria)
			if err != nil {
				respondError(c, apperrors.NewValidationError("Invalid criteria", err))
				return
			}
			criteria = parsed
		}

		locale := defaultLocale
		if req.Locale != "" {
			locale = analyzer.ParseLocale(req.Locale)
		}

		logger.WithFields(logrus.Fields{
			"photos":   len(req.Filenames),
			"criteria": req.Criteria,
			"locale":   locale,
			"ip":       c.ClientIP(),
		}).Info("Processing photo analysis request")

		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.AnalysisTimeout)
		defer cancel()

		results, err := svc.AnalyzeBatch(ctx, service.BatchRequest{
			Filenames: req.Filenames,
			Criteria:  criteria,
			Locale:    locale,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		logger.WithFields(logrus.Fields{
			"photos":             len(req.Filenames),
			"results":            len(results),
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Info("Photo analysis completed successfully")

		c.JSON(http.StatusOK, models.AnalyzeResponse{
			Success:      true,
			Results:      results,
			AnalysisTime: time.Now(),
		})
	}
}

func healthCheck(backend string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  "available",
			Version: version,
			Time:    time.Now().UTC().Format(time.RFC3339),
			Storage: backend,
		})
	}
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			respondError(c, c.Errors.Last().Err)
		}
	}
}

// isBodyTooLarge recognizes the MaxBytesReader error, which multipart
// parsing does not always wrap
func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}

func determineStatusCode(err error) int {
	// Check if it's a custom app error first
	if appErr, ok := apperrors.As(err); ok {
		return appErr.StatusCode
	}

	// Fallback to context-based errors
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	code := determineStatusCode(err)

	resp := models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: "request processing failed",
	}
	if appErr, ok := apperrors.As(err); ok {
		resp.Message = appErr.Message
		resp.Details = appErr.Details
	}

	entry := logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	})
	if code >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	c.AbortWithStatusJSON(code, resp)
}
