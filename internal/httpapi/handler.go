// Package httpapi serves the image analyzer over HTTP.
//
// Every analysis route accepts an image either as the raw request body or as
// the "image" field of a multipart form. The image is decoded once per
// request into an imaging.Analyzer, which computes only the artifacts the
// route needs.
package httpapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ironsheep/image-analyzer-mcp/internal/config"
	"github.com/ironsheep/image-analyzer-mcp/internal/imaging"
	"github.com/ironsheep/image-analyzer-mcp/internal/logger"
	"github.com/sirupsen/logrus"
)

const (
	formField  = "image"
	contentPNG = "image/png"
	apiVersion = "1.0.0"
)

// errBadRequest marks malformed query parameters and uploads.
var errBadRequest = errors.New("bad request")

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// result is what an analysis produces: either a PNG body or a JSON value.
type result struct {
	png  []byte
	json interface{}
}

// analysisFunc computes the response for one route from a bound analyzer.
// c is a copy of the request context and must only be read.
type analysisFunc func(c *gin.Context, a *imaging.Analyzer) (*result, error)

type handler struct {
	cfg *config.Config
}

// NewHandler returns the gin engine serving all routes.
func NewHandler(cfg *config.Config) http.Handler {
	r := gin.New()

	r.Use(
		requestLogger(),
		gin.Recovery(),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	h := &handler{cfg: cfg}

	r.GET("/health", healthCheck)

	v1 := r.Group("/v1")
	v1.POST("/grayscale", h.analyze(grayscale))
	v1.POST("/histogram", h.analyze(histogram))
	v1.POST("/histogram/channels", h.analyze(channelHistogram))
	v1.POST("/histogram/chart", h.analyze(histogramChart))
	v1.POST("/threshold", h.analyze(threshold))

	return r
}

// analyze decodes the uploaded image and runs fn under the request timeout.
func (h *handler) analyze(fn analysisFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
		defer cancel()

		body, err := readUpload(c)
		if err != nil {
			_ = c.Error(err)
			return
		}

		img, err := imaging.Decode(bytes.NewReader(body))
		if err != nil {
			_ = c.Error(err)
			return
		}
		if err := ctx.Err(); err != nil {
			_ = c.Error(err)
			return
		}
		a := imaging.NewAnalyzer(img, h.cfg.AnalyzerOptions()...)

		type outcome struct {
			res *result
			err error
		}
		done := make(chan outcome, 1)
		cp := c.Copy()
		// The pixel loops take no context. On timeout fn still runs to
		// completion on its private analyzer and its result is dropped.
		go func() {
			a.Grayscale(h.cfg.GrayHints())
			res, err := fn(cp, a)
			done <- outcome{res, err}
		}()

		var out outcome
		select {
		case <-ctx.Done():
			_ = c.Error(ctx.Err())
			return
		case out = <-done:
		}
		if out.err != nil {
			_ = c.Error(out.err)
			return
		}

		b := a.Bounds()
		logger.WithFields(logrus.Fields{
			"path":               c.Request.URL.Path,
			"width":              b.Dx(),
			"height":             b.Dy(),
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Info("Image analysis completed successfully")

		if out.res.png != nil {
			c.Data(http.StatusOK, contentPNG, out.res.png)
			return
		}
		c.JSON(http.StatusOK, out.res.json)
	}
}

// readUpload returns the image bytes from the "image" multipart field or,
// for any other content type, the raw body.
func readUpload(c *gin.Context) ([]byte, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		fh, err := c.FormFile(formField)
		if err != nil {
			return nil, fmt.Errorf("%w: missing %q form file: %w", errBadRequest, formField, err)
		}
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open upload: %w", err)
		}
		defer f.Close()
		return io.ReadAll(f)
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty request body", errBadRequest)
	}
	return body, nil
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": apiVersion,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Middleware and helper functions
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status_code": c.Writer.Status(),
			"latency_ms":  time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
		}).Debug("Handled request")
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last().Err
			respondError(c, determineStatusCode(err), "request processing failed", err)
		}
	}
}

func determineStatusCode(err error) int {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, imaging.ErrDecode):
		return http.StatusUnprocessableEntity
	case errors.Is(err, imaging.ErrThresholdRange), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
