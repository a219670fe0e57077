package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textCaptchaAuth/captcha"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cc, err := cfg.Captcha.ChallengeConfig()
	require.NoError(t, err)
	assert.Equal(t, captcha.DefaultConfig(), cc)
}

func TestLoadConfig_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
addr: ":9000"
challenge_ttl_seconds: 120
captcha:
  difficulty: high
  charset: letters
  letter_count: 6
  letter_height: 32
  axis: vertical
store:
  driver: redis
  redis_addr: "localhost:6379"
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, 120, cfg.ChallengeTTLSeconds)
	assert.Equal(t, "redis", cfg.Store.Driver)
	// untouched fields keep their defaults
	assert.Equal(t, "captcha:", cfg.Store.KeyPrefix)
	assert.Equal(t, 600, cfg.Token.TTLSeconds)

	cc, err := cfg.Captcha.ChallengeConfig()
	require.NoError(t, err)
	assert.Equal(t, captcha.DifficultyHigh, cc.Difficulty)
	assert.Equal(t, captcha.CharsetLetters, cc.Charset)
	assert.Equal(t, 6, cc.LetterCount)
	assert.Equal(t, 32, cc.LetterHeight)

	opts, err := cfg.Captcha.EngineOptions()
	require.NoError(t, err)
	assert.Len(t, opts, 1)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	require.NotNil(t, cfg)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("captcha: [unclosed"), 0o600))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestConfig_ValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"empty addr":         func(c *Config) { c.Addr = "" },
		"short ttl":          func(c *Config) { c.ChallengeTTLSeconds = 1 },
		"bad difficulty":     func(c *Config) { c.Captcha.Difficulty = "extreme" },
		"long code":          func(c *Config) { c.Captcha.LetterCount = 40 },
		"tiny letters":       func(c *Config) { c.Captcha.LetterHeight = 3 },
		"bad axis":           func(c *Config) { c.Captcha.Axis = "diagonal" },
		"redis without addr": func(c *Config) { c.Store.Driver = "redis" },
		"unknown driver":     func(c *Config) { c.Store.Driver = "etcd" },
		"weak secret":        func(c *Config) { c.Token.Secret = "short" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfig_ApplyEnv(t *testing.T) {
	t.Setenv("CAPTCHA_ADDR", ":7777")
	t.Setenv("CAPTCHA_REDIS_ADDR", "redis:6379")
	t.Setenv("CAPTCHA_TOKEN_SECRET", "env-secret-env-secret")

	cfg := DefaultConfig()
	cfg.ApplyEnv()
	assert.Equal(t, ":7777", cfg.Addr)
	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.Equal(t, "redis:6379", cfg.Store.RedisAddr)
	assert.Equal(t, "env-secret-env-secret", cfg.Token.Secret)
	assert.NoError(t, cfg.Validate())
}

func TestCaptchaConfig_EngineOptionsBadFont(t *testing.T) {
	cc := DefaultConfig().Captcha
	cc.Fonts = []string{filepath.Join(t.TempDir(), "missing.ttf")}
	_, err := cc.EngineOptions()
	assert.ErrorIs(t, err, os.ErrNotExist)

	junk := filepath.Join(t.TempDir(), "junk.ttf")
	require.NoError(t, os.WriteFile(junk, []byte("junk"), 0o600))
	cc.Fonts = []string{junk}
	_, err = cc.EngineOptions()
	assert.ErrorIs(t, err, captcha.ErrRendering)
}

func TestCaptchaConfig_Validate(t *testing.T) {
	cc := DefaultConfig().Captcha
	require.NoError(t, cc.Validate())

	cc.LetterHeight = 1
	assert.Error(t, cc.Validate())
}
