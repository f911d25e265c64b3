package render

import (
	"encoding/binary"
	"math"

	"honnef.co/go/stuff/container/tinylfu"
)

const (
	labelCacheSize    = 1024
	labelCacheSamples = 10 * labelCacheSize
)

// labelCache remembers the result of fitText across frames. Between two frames, most bars keep their label and
// width, and fitting a label that doesn't fit costs a dozen text measurements.
type labelCache struct {
	surface Surface
	cache   *tinylfu.T[string, string]
	key     []byte
	hits    int
	misses  int
}

func newLabelCache(s Surface) *labelCache {
	return &labelCache{
		surface: s,
		cache:   tinylfu.New[string, string](labelCacheSize, labelCacheSamples),
	}
}

// fit returns fitText(surface, text, width).
func (c *labelCache) fit(text string, width float64) string {
	if width <= 0 || text == "" {
		return ""
	}
	// The line height stands in for the font size, which the result depends on as well.
	c.key = binary.LittleEndian.AppendUint64(c.key[:0], math.Float64bits(width))
	c.key = binary.LittleEndian.AppendUint64(c.key, math.Float64bits(c.surface.LineHeight()))
	c.key = append(c.key, text...)
	key := string(c.key)
	if txt, ok := c.cache.Get(key); ok {
		c.hits++
		return txt
	}
	c.misses++
	txt := fitText(c.surface, text, width)
	c.cache.Add(key, txt)
	return txt
}
