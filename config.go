// File: config.go
package main

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"textCaptchaAuth/captcha"
)

// Config is the server configuration, read from YAML over DefaultConfig.
type Config struct {
	Addr                string        `yaml:"addr" validate:"required"`
	StaticDir           string        `yaml:"static_dir"`
	ChallengeTTLSeconds int           `yaml:"challenge_ttl_seconds" validate:"min=10,max=3600"`
	Captcha             CaptchaConfig `yaml:"captcha"`
	Store               StoreConfig   `yaml:"store"`
	Token               TokenConfig   `yaml:"token"`
}

// CaptchaConfig holds the defaults for issued challenges.
type CaptchaConfig struct {
	Difficulty   string   `yaml:"difficulty" validate:"oneof=low normal high"`
	MixLetters   bool     `yaml:"mix_letters"`
	Charset      string   `yaml:"charset" validate:"omitempty,oneof=auto digits letters mixed"`
	LetterCount  int      `yaml:"letter_count" validate:"min=1,max=12"`
	LetterHeight int      `yaml:"letter_height" validate:"min=12,max=120"`
	Axis         string   `yaml:"axis" validate:"omitempty,oneof=horizontal vertical"`
	Fonts        []string `yaml:"fonts"` // TTF files, replace the built-in Go fonts
}

// StoreConfig selects where challenge answers live until verified.
type StoreConfig struct {
	Driver        string `yaml:"driver" validate:"oneof=memory redis"`
	RedisAddr     string `yaml:"redis_addr" validate:"required_if=Driver redis"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db" validate:"min=0"`
	KeyPrefix     string `yaml:"key_prefix"`
}

// TokenConfig controls the pass tokens handed out after a correct answer.
// An empty secret makes the server generate one at startup.
type TokenConfig struct {
	Secret     string `yaml:"secret" validate:"omitempty,min=16"`
	TTLSeconds int    `yaml:"ttl_seconds" validate:"min=1"`
}

func DefaultConfig() *Config {
	return &Config{
		Addr:                ":28416",
		StaticDir:           "./static",
		ChallengeTTLSeconds: 300,
		Captcha: CaptchaConfig{
			Difficulty:   "normal",
			MixLetters:   false,
			LetterCount:  4,
			LetterHeight: 20,
			Axis:         "horizontal",
		},
		Store: StoreConfig{
			Driver:    "memory",
			KeyPrefix: "captcha:",
		},
		Token: TokenConfig{
			TTLSeconds: 600,
		},
	}
}

// LoadConfig reads a YAML file over the defaults. On error the defaults are
// still returned so the caller can decide whether to continue.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from CAPTCHA_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("CAPTCHA_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("CAPTCHA_REDIS_ADDR"); v != "" {
		c.Store.Driver = "redis"
		c.Store.RedisAddr = v
	}
	if v := os.Getenv("CAPTCHA_REDIS_PASSWORD"); v != "" {
		c.Store.RedisPassword = v
	}
	if v := os.Getenv("CAPTCHA_TOKEN_SECRET"); v != "" {
		c.Token.Secret = v
	}
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// Validate checks the captcha section on its own, for callers that do not
// load a full server config.
func (c CaptchaConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("captcha config error: %w", err)
	}
	return nil
}

// ChallengeConfig converts the captcha section into an engine Config.
func (c CaptchaConfig) ChallengeConfig() (captcha.Config, error) {
	d, err := captcha.ParseDifficulty(c.Difficulty)
	if err != nil {
		return captcha.Config{}, err
	}
	cs, err := captcha.ParseCharset(c.Charset)
	if err != nil {
		return captcha.Config{}, err
	}
	return captcha.Config{
		Difficulty:   d,
		MixLetters:   c.MixLetters,
		Charset:      cs,
		LetterCount:  c.LetterCount,
		LetterHeight: c.LetterHeight,
	}, nil
}

// EngineOptions loads custom fonts and the wave axis.
func (c CaptchaConfig) EngineOptions() ([]captcha.Option, error) {
	var opts []captcha.Option
	if c.Axis == "vertical" {
		opts = append(opts, captcha.WithAxis(captcha.Vertical))
	}
	if len(c.Fonts) > 0 {
		ttfs := make([][]byte, 0, len(c.Fonts))
		for _, p := range c.Fonts {
			data, err := os.ReadFile(p)
			if err != nil {
				return nil, fmt.Errorf("read font %s: %w", p, err)
			}
			ttfs = append(ttfs, data)
		}
		fs, err := captcha.NewFontSet(ttfs...)
		if err != nil {
			return nil, err
		}
		opts = append(opts, captcha.WithFonts(fs))
	}
	return opts, nil
}
