// Package captcha synthesises text CAPTCHA images: a random code is drawn
// over a noisy canvas with per-glyph jitter and then bent by a sine wave.
//
// A challenge is built in four stages, each producing a new value from the
// previous one:
//
//	Configured -> TextResolved -> Composed -> Distorted -> Finalized
//
// The only state shared between concurrent Generate calls is the random
// Source, which serialises its own draws.
package captcha

import (
	"context"
	"fmt"
	"image"
	"math"
	"strings"
	"sync"
	"unicode/utf8"
)

// Stage names a step of the generation pipeline.
type Stage int

const (
	StageConfigured Stage = iota
	StageTextResolved
	StageComposed
	StageDistorted
	StageFinalized
)

func (s Stage) String() string {
	switch s {
	case StageConfigured:
		return "configured"
	case StageTextResolved:
		return "text resolved"
	case StageComposed:
		return "composed"
	case StageDistorted:
		return "distorted"
	case StageFinalized:
		return "finalized"
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// Config describes one challenge.
type Config struct {
	Difficulty Difficulty
	// MixLetters selects CharsetMixed instead of CharsetDigits when Charset is CharsetAuto.
	MixLetters bool
	// Charset overrides MixLetters when set.
	Charset Charset
	// Text, when not blank, is used verbatim instead of a generated code.
	Text         string
	LetterCount  int
	LetterHeight int
}

// DefaultConfig is a four digit code, 20 pixels high, normal noise.
func DefaultConfig() Config {
	return Config{
		Difficulty:   DifficultyNormal,
		MixLetters:   false,
		LetterCount:  4,
		LetterHeight: 20,
	}
}

func (c Config) hasText() bool {
	return strings.TrimSpace(c.Text) != ""
}

func (c Config) charset() Charset {
	if c.Charset != CharsetAuto {
		return c.Charset
	}
	if c.MixLetters {
		return CharsetMixed
	}
	return CharsetDigits
}

// Validate reports the first problem with c, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	if CellWidth(c.LetterHeight) < 1 {
		return configErrorf("letter height", "too small for a glyph cell, got %d", c.LetterHeight)
	}
	if _, err := ResolveNoise(c.Difficulty); err != nil {
		return err
	}
	if c.hasText() {
		return nil
	}
	if c.LetterCount <= 0 {
		return configErrorf("letter count", "must be positive, got %d", c.LetterCount)
	}
	switch c.charset() {
	case CharsetDigits, CharsetLetters, CharsetMixed:
	default:
		return configErrorf("charset", "unknown charset %v", c.Charset)
	}
	return nil
}

// Result is a finished challenge. The caller owns Image.
type Result struct {
	Text  string
	Image *image.RGBA
}

// Engine generates challenges. It is safe for concurrent use.
type Engine struct {
	src       *Source
	fonts     *FontSet
	axis      Axis
	amplitude [2]float64
	phase     [2]float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithSource sets the random source. Defaults to DefaultSource.
func WithSource(src *Source) Option {
	return func(e *Engine) { e.src = src }
}

// WithFonts sets the glyph font families. Defaults to DefaultFonts.
func WithFonts(fs *FontSet) Option {
	return func(e *Engine) { e.fonts = fs }
}

// WithAxis sets the distortion axis. Defaults to Horizontal.
func WithAxis(a Axis) Option {
	return func(e *Engine) { e.axis = a }
}

// WithAmplitudeRange bounds the wave amplitude drawn per challenge.
func WithAmplitudeRange(lo, hi float64) Option {
	return func(e *Engine) { e.amplitude = [2]float64{lo, hi} }
}

// WithPhaseRange bounds the wave phase drawn per challenge.
func WithPhaseRange(lo, hi float64) Option {
	return func(e *Engine) { e.phase = [2]float64{lo, hi} }
}

// NewEngine builds an Engine, keying the default source and parsing the
// default fonts unless options supply them.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		axis:      Horizontal,
		amplitude: [2]float64{1, 3},
		phase:     [2]float64{4, 6},
	}
	for _, opt := range opts {
		opt(e)
	}

	if lo, hi := e.amplitude[0], e.amplitude[1]; !(lo > 0 && hi >= lo) || math.IsInf(hi, 0) {
		return nil, configErrorf("amplitude range", "need 0 < lo <= hi, got [%v, %v)", lo, hi)
	}
	if lo, hi := e.phase[0], e.phase[1]; !(lo >= 0 && hi >= lo && hi <= 2*math.Pi) {
		return nil, configErrorf("phase range", "need 0 <= lo <= hi <= 2π, got [%v, %v)", lo, hi)
	}
	if e.axis != Horizontal && e.axis != Vertical {
		return nil, configErrorf("axis", "unknown axis %v", e.axis)
	}

	if e.src == nil {
		src, err := DefaultSource()
		if err != nil {
			return nil, err
		}
		e.src = src
	}
	if e.fonts == nil {
		fs, err := DefaultFonts()
		if err != nil {
			return nil, err
		}
		e.fonts = fs
	}
	return e, nil
}

// Generate runs the whole pipeline for cfg. On error no image is returned.
func (e *Engine) Generate(cfg Config) (*Result, error) {
	return e.GenerateContext(context.Background(), cfg)
}

// GenerateContext is Generate with a context that can abandon the
// distortion stage.
func (e *Engine) GenerateContext(ctx context.Context, cfg Config) (*Result, error) {
	log := Logger()

	if err := cfg.Validate(); err != nil {
		return nil, &StageError{Stage: StageConfigured, Err: err}
	}
	noise, _ := ResolveNoise(cfg.Difficulty)

	text := cfg.Text
	if !cfg.hasText() {
		var err error
		text, err = GenerateText(e.src, cfg.LetterCount, cfg.charset())
		if err != nil {
			return nil, &StageError{Stage: StageTextResolved, Err: err}
		}
	}
	log.Debug("captcha: text resolved", "letters", utf8.RuneCountInString(text), "explicit", cfg.hasText())

	base, err := Compose(e.src, e.fonts, text, cfg.LetterHeight, noise)
	if err != nil {
		return nil, &StageError{Stage: StageComposed, Err: err}
	}
	log.Debug("captcha: composed",
		"width", base.Rect.Dx(), "height", base.Rect.Dy(),
		"difficulty", cfg.Difficulty, "lines", noise.Lines, "points", noise.Points)

	wave := Wave{
		Axis:      e.axis,
		Amplitude: e.src.Range(e.amplitude[0], e.amplitude[1]),
		Phase:     e.src.Range(e.phase[0], e.phase[1]),
	}
	img, err := DistortContext(ctx, base, wave)
	if err != nil {
		return nil, &StageError{Stage: StageDistorted, Err: err}
	}
	log.Debug("captcha: distorted", "axis", wave.Axis, "amplitude", wave.Amplitude, "phase", wave.Phase)

	return &Result{Text: text, Image: img}, nil
}

var defaultEngine struct {
	once sync.Once
	e    *Engine
	err  error
}

// Generate builds a challenge with a process-wide default Engine.
func Generate(cfg Config) (*Result, error) {
	defaultEngine.once.Do(func() {
		defaultEngine.e, defaultEngine.err = NewEngine()
	})
	if defaultEngine.err != nil {
		return nil, defaultEngine.err
	}
	return defaultEngine.e.Generate(cfg)
}
