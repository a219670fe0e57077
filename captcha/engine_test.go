package captcha

import (
	"context"
	"image"
	"math"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, key byte, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithSource(newTestSource(t, key))}, opts...)
	e, err := NewEngine(opts...)
	require.NoError(t, err)
	return e
}

func TestEngine_TextMatchesConfig(t *testing.T) {
	e := newTestEngine(t, 41)
	cases := []struct {
		name string
		cfg  Config
		cs   Charset
	}{
		{"digits", Config{Difficulty: DifficultyLow, LetterCount: 4, LetterHeight: 20}, CharsetDigits},
		{"mixed", Config{Difficulty: DifficultyNormal, MixLetters: true, LetterCount: 6, LetterHeight: 24}, CharsetMixed},
		{"letters", Config{Difficulty: DifficultyHigh, Charset: CharsetLetters, LetterCount: 5, LetterHeight: 30}, CharsetLetters},
		{"charset wins", Config{Difficulty: DifficultyHigh, MixLetters: true, Charset: CharsetDigits, LetterCount: 3, LetterHeight: 16}, CharsetDigits},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := e.Generate(tc.cfg)
			require.NoError(t, err)
			assert.Len(t, res.Text, tc.cfg.LetterCount)
			for _, r := range res.Text {
				assert.True(t, strings.ContainsRune(tc.cs.Alphabet(), r), "%q", r)
			}
			w, h := CanvasSize(tc.cfg.LetterCount, tc.cfg.LetterHeight)
			assert.Equal(t, image.Rect(0, 0, w, h), res.Image.Bounds())
		})
	}
}

func TestEngine_ExplicitText(t *testing.T) {
	e := newTestEngine(t, 42)
	cfg := DefaultConfig()
	cfg.Text = "Hello7"
	res, err := e.Generate(cfg)
	require.NoError(t, err)
	assert.Equal(t, "Hello7", res.Text)
	assert.Equal(t, 6*16, res.Image.Bounds().Dx())

	// explicit text does not need a letter count
	cfg.LetterCount = 0
	_, err = e.Generate(cfg)
	assert.NoError(t, err)
}

func TestEngine_BlankTextIsGenerated(t *testing.T) {
	e := newTestEngine(t, 43)
	cfg := DefaultConfig()
	cfg.Text = "   "
	res, err := e.Generate(cfg)
	require.NoError(t, err)
	assert.Len(t, res.Text, 4)
	assert.NotEqual(t, "   ", res.Text)
}

func TestEngine_DefaultEndToEnd(t *testing.T) {
	cfg := Config{Difficulty: DifficultyNormal, MixLetters: false, LetterCount: 4, LetterHeight: 20}

	texts := make(map[string]bool)
	for i := 0; i < 5; i++ {
		res, err := Generate(cfg)
		require.NoError(t, err)
		require.Equal(t, 4, utf8.RuneCountInString(res.Text))
		for _, r := range res.Text {
			require.True(t, r >= '0' && r <= '9', "%q", r)
		}
		assert.Equal(t, image.Rect(0, 0, 64, 40), res.Image.Bounds())
		texts[res.Text] = true
	}
	assert.Greater(t, len(texts), 1, "five draws produced the same code")
}

func TestEngine_SameKeySameChallenge(t *testing.T) {
	cfg := DefaultConfig()
	a, err := newTestEngine(t, 44).Generate(cfg)
	require.NoError(t, err)
	b, err := newTestEngine(t, 44).Generate(cfg)
	require.NoError(t, err)
	assert.Equal(t, a.Text, b.Text)
	assert.Equal(t, a.Image.Pix, b.Image.Pix)
}

func TestEngine_VerticalAxis(t *testing.T) {
	e := newTestEngine(t, 45, WithAxis(Vertical))
	res, err := e.Generate(DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 40), res.Image.Bounds())
}

func TestEngine_InvalidConfig(t *testing.T) {
	e := newTestEngine(t, 46)
	cases := map[string]Config{
		"zero height":      {Difficulty: DifficultyNormal, LetterCount: 4, LetterHeight: 0},
		"zero cell width":  {Difficulty: DifficultyNormal, LetterCount: 4, LetterHeight: 1},
		"negative count":   {Difficulty: DifficultyNormal, LetterCount: -1, LetterHeight: 20},
		"unknown tier":     {Difficulty: 9, LetterCount: 4, LetterHeight: 20},
		"zero tier":        {LetterCount: 4, LetterHeight: 20},
		"unknown charset":  {Difficulty: DifficultyLow, Charset: 12, LetterCount: 4, LetterHeight: 20},
		"text zero height": {Difficulty: DifficultyLow, Text: "abc", LetterHeight: -3},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			res, err := e.Generate(cfg)
			assert.Nil(t, res)
			require.ErrorIs(t, err, ErrInvalidConfig)

			var serr *StageError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, StageConfigured, serr.Stage)
		})
	}
}

func TestEngine_GenerateContextCancelled(t *testing.T) {
	e := newTestEngine(t, 49)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := e.GenerateContext(ctx, DefaultConfig())
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.Canceled)
	var serr *StageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, StageDistorted, serr.Stage)
}

func TestEngine_FullPhaseCircle(t *testing.T) {
	e := newTestEngine(t, 50, WithPhaseRange(0, 2*math.Pi))
	for i := 0; i < 50; i++ {
		_, err := e.Generate(DefaultConfig())
		require.NoError(t, err)
	}
}

func TestNewEngine_InvalidOptions(t *testing.T) {
	src := newTestSource(t, 47)
	bad := [][]Option{
		{WithAmplitudeRange(0, 3)},
		{WithAmplitudeRange(3, 1)},
		{WithPhaseRange(-1, 2)},
		{WithPhaseRange(4, 7)},
		{WithAxis(Axis(3))},
	}
	for _, opts := range bad {
		_, err := NewEngine(append(opts, WithSource(src))...)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	}
}

func TestEngine_ConcurrentGenerate(t *testing.T) {
	e := newTestEngine(t, 48)
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := e.Generate(DefaultConfig())
			if err == nil && len(res.Text) != 4 {
				t.Errorf("unexpected text %q", res.Text)
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DifficultyNormal, cfg.Difficulty)
	assert.False(t, cfg.MixLetters)
	assert.Equal(t, 4, cfg.LetterCount)
	assert.Equal(t, 20, cfg.LetterHeight)
	assert.NoError(t, cfg.Validate())
}
