package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/ironsheep/image-analyzer-mcp/internal/logger"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// Decode reads and decodes an image from r.
//
// Supported formats are PNG, JPEG, GIF, BMP, TIFF and WebP. JPEG EXIF
// orientation is applied so the raster is upright. Any failure is returned
// as a *DecodeError.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	return img, nil
}

// Open decodes the image file at path. Missing, unreadable, corrupt and
// unsupported files all return a *DecodeError carrying path.
func Open(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	defer f.Close()

	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	return img, nil
}

// ImageCache provides thread-safe caching of analyzers keyed by file path.
//
// Once an image is loaded, subsequent Load() calls for the same path return
// the same *Analyzer, so its grayscale raster and histograms are computed
// once and shared by every caller.
//
// ImageCache is safe for concurrent use by multiple goroutines.
//
// # Memory Management
//
// A cache created with a positive size holds at most that many analyzers and
// evicts the oldest entry first. An unbounded cache keeps analyzers until
// Evict() or Clear() is called.
//
// # Example Usage
//
//	cache := imaging.NewImageCache(16)
//	a, err := cache.Load("/path/to/image.png")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	hist := a.LuminanceHistogram()
type ImageCache struct {
	mu         sync.RWMutex
	analyzers  map[string]*Analyzer
	order      []string
	maxEntries int

	// applied to every analyzer the cache creates
	opts []AnalyzerOption
}

// NewImageCache creates an empty cache holding at most maxEntries analyzers.
// A maxEntries of zero or less means unbounded. opts configure every analyzer
// the cache creates.
func NewImageCache(maxEntries int, opts ...AnalyzerOption) *ImageCache {
	if maxEntries < 0 {
		maxEntries = 0
	}
	return &ImageCache{
		analyzers:  make(map[string]*Analyzer),
		maxEntries: maxEntries,
		opts:       opts,
	}
}

// Load returns the analyzer for path, decoding and binding the image on the
// first call.
//
// The analyzer is cached using the exact path string provided. Different
// paths to the same file (e.g., relative vs absolute) will result in separate
// cache entries. Decode failures return a *DecodeError and cache nothing.
func (c *ImageCache) Load(path string) (*Analyzer, error) {
	c.mu.RLock()
	if a, ok := c.analyzers[path]; ok {
		c.mu.RUnlock()
		return a, nil
	}
	c.mu.RUnlock()

	a, err := NewAnalyzerFromFile(path, c.opts...)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// another caller may have loaded the same path meanwhile
	if existing, ok := c.analyzers[path]; ok {
		return existing, nil
	}

	if c.maxEntries > 0 && len(c.order) >= c.maxEntries {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.analyzers, oldest)
		logger.WithField("path", oldest).Debug("Evicted analyzer from cache")
	}
	c.analyzers[path] = a
	c.order = append(c.order, path)

	b := a.Bounds()
	logger.WithFields(logrus.Fields{
		"path":   path,
		"width":  b.Dx(),
		"height": b.Dy(),
	}).Debug("Loaded image")

	return a, nil
}

// Len returns the number of cached analyzers.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.analyzers)
}

// Clear removes all analyzers from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.analyzers = make(map[string]*Analyzer)
	c.order = nil
	c.mu.Unlock()
}

// Evict removes a specific analyzer from the cache by its path.
//
// If the path is not in the cache, this method does nothing.
// After eviction, the next Load() call for this path will read from disk.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.analyzers[path]; !ok {
		return
	}
	delete(c.analyzers, path)
	for i, p := range c.order {
		if p == path {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// ImageInfo contains metadata about a loaded image file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the format guessed from the file extension: "png", "jpeg",
	// "gif", "bmp", "tiff", "webp" or "unknown".
	Format string `json:"format"`

	// HasAlpha reports whether any pixel is not fully opaque.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an image into the cache (if not already cached) and
// returns its dimensions, format, alpha presence and file size.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	a, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	b := a.Bounds()
	return &ImageInfo{
		Width:         b.Dx(),
		Height:        b.Dy(),
		Format:        formatFromExt(path),
		HasAlpha:      !a.Opaque(),
		FileSizeBytes: stat.Size(),
	}, nil
}

func formatFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png"
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".gif":
		return "gif"
	case ".bmp":
		return "bmp"
	case ".tif", ".tiff":
		return "tiff"
	case ".webp":
		return "webp"
	default:
		return "unknown"
	}
}

// DimensionsResult contains the width and height of an image.
type DimensionsResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// GetDimensions returns the dimensions of an image, loading it into the cache
// if not already present.
func GetDimensions(cache *ImageCache, path string) (*DimensionsResult, error) {
	a, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	b := a.Bounds()
	return &DimensionsResult{
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}
