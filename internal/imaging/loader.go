package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"
)

// ImageCache provides thread-safe caching of decoded images and of their
// luminance channels.
//
// Decoded images are keyed by file path. Luminance buffers are keyed by path
// and LuminanceMode, so switching modes for the same file does not decode it
// again. Cached GrayImages are shared: callers that mutate samples (for
// example a diffusion step) must Clone first.
//
// # Memory Management
//
// At most limit decoded images are held. Loading one more evicts the path
// that was decoded first, together with its luminance buffers. A limit of
// zero or less leaves the cache unbounded.
type ImageCache struct {
	mu        sync.RWMutex
	limit     int
	order     []string
	images    map[string]image.Image
	luminance map[luminanceKey]*GrayImage
}

type luminanceKey struct {
	path string
	mode LuminanceMode
}

// NewImageCache creates an empty cache holding at most limit decoded images.
func NewImageCache(limit int) *ImageCache {
	return &ImageCache{
		limit:     limit,
		images:    make(map[string]image.Image),
		luminance: make(map[luminanceKey]*GrayImage),
	}
}

// Load retrieves a decoded image from the cache or reads it from disk.
//
// Parameters:
//   - path: File path of a PNG, JPEG, or GIF image.
//
// Returns:
//   - image.Image: The decoded image.
//   - error: Non-nil if the file cannot be opened or decoded.
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	c.mu.Lock()
	if _, ok := c.images[path]; !ok {
		c.images[path] = img
		c.order = append(c.order, path)
		for c.limit > 0 && len(c.order) > c.limit {
			c.evictLocked(c.order[0])
		}
	}
	c.mu.Unlock()

	return img, nil
}

// LoadLuminance returns the luminance channel of the whole image at path.
//
// The returned buffer is shared with later callers; Clone it before mutating.
func (c *ImageCache) LoadLuminance(path string, mode LuminanceMode) (*GrayImage, error) {
	key := luminanceKey{path: path, mode: mode}

	c.mu.RLock()
	if g, ok := c.luminance[key]; ok {
		c.mu.RUnlock()
		return g, nil
	}
	c.mu.RUnlock()

	img, err := c.Load(path)
	if err != nil {
		return nil, err
	}
	g := Luminance(img, mode)

	c.mu.Lock()
	// Skip buffers whose image was evicted while converting.
	if _, ok := c.images[path]; ok {
		c.luminance[key] = g
	}
	c.mu.Unlock()

	return g, nil
}

// Len returns the number of decoded images currently cached.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// evictLocked removes the decoded image and every luminance buffer derived
// from path. The caller holds c.mu.
func (c *ImageCache) evictLocked(path string) {
	delete(c.images, path)
	for k := range c.luminance {
		if k.path == path {
			delete(c.luminance, k)
		}
	}
	for i, p := range c.order {
		if p == path {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
