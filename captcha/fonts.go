package captcha

import (
	"fmt"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// FontSet is the fixed list of font families glyphs are drawn with.
// Parsed fonts are read-only and shared; faces are not, see faceCache.
type FontSet struct {
	fonts []*truetype.Font
}

// NewFontSet parses one TrueType font per family.
func NewFontSet(ttfs ...[]byte) (*FontSet, error) {
	if len(ttfs) == 0 {
		return nil, fmt.Errorf("%w: no font data", ErrRendering)
	}
	fs := &FontSet{fonts: make([]*truetype.Font, 0, len(ttfs))}
	for i, data := range ttfs {
		f, err := truetype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%w: parse font %d: %v", ErrRendering, i, err)
		}
		fs.fonts = append(fs.fonts, f)
	}
	return fs, nil
}

var defaultFonts struct {
	once sync.Once
	fs   *FontSet
	err  error
}

// DefaultFonts returns the four Go font families bundled with x/image.
func DefaultFonts() (*FontSet, error) {
	defaultFonts.once.Do(func() {
		defaultFonts.fs, defaultFonts.err = NewFontSet(
			goregular.TTF,
			gobold.TTF,
			goitalic.TTF,
			gomono.TTF,
		)
	})
	return defaultFonts.fs, defaultFonts.err
}

// Len returns the number of families.
func (fs *FontSet) Len() int {
	return len(fs.fonts)
}

type faceKey struct {
	family int
	size   int
}

// faceCache hands out sized faces for a single Compose call. truetype faces
// keep glyph caches internally and must not be shared across goroutines.
type faceCache struct {
	fs    *FontSet
	faces map[faceKey]font.Face
}

func (fs *FontSet) newFaceCache() *faceCache {
	return &faceCache{fs: fs, faces: make(map[faceKey]font.Face)}
}

func (c *faceCache) face(family, size int) font.Face {
	k := faceKey{family: family, size: size}
	if f, ok := c.faces[k]; ok {
		return f
	}
	f := truetype.NewFace(c.fs.fonts[family], &truetype.Options{
		Size:    float64(size),
		Hinting: font.HintingFull,
	})
	c.faces[k] = f
	return f
}

func (c *faceCache) Close() {
	for _, f := range c.faces {
		f.Close()
	}
}
