// File: render.go
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"textCaptchaAuth/captcha"
)

var renderOpts struct {
	out        string
	count      int
	difficulty string
	charset    string
	mix        bool
	length     int
	height     int
	text       string
	axis       string
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Write challenge images to PNG files and print their answers",
	RunE:  runRender,
}

func init() {
	f := renderCmd.Flags()
	f.StringVarP(&renderOpts.out, "out", "o", "captcha.png", "Output PNG path; numbered when --count > 1")
	f.IntVarP(&renderOpts.count, "count", "n", 1, "Number of images")
	f.StringVar(&renderOpts.difficulty, "difficulty", "normal", "low, normal or high")
	f.StringVar(&renderOpts.charset, "charset", "auto", "auto, digits, letters or mixed")
	f.BoolVar(&renderOpts.mix, "mix", false, "Mix letters into the code")
	f.IntVar(&renderOpts.length, "length", 4, "Code length")
	f.IntVar(&renderOpts.height, "height", 20, "Letter height in pixels")
	f.StringVar(&renderOpts.text, "text", "", "Use this text instead of a random code")
	f.StringVar(&renderOpts.axis, "axis", "horizontal", "Wave axis: horizontal or vertical")
	rootCmd.AddCommand(renderCmd)
}

// numberedPath turns out/c.png into out/c-3.png.
func numberedPath(path string, i, count int) string {
	if count <= 1 {
		return path
	}
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(path, ext), i+1, ext)
}

func runRender(cmd *cobra.Command, _ []string) error {
	if renderOpts.count < 1 {
		return fmt.Errorf("--count must be at least 1")
	}
	cc := CaptchaConfig{
		Difficulty:   renderOpts.difficulty,
		MixLetters:   renderOpts.mix,
		Charset:      renderOpts.charset,
		LetterCount:  renderOpts.length,
		LetterHeight: renderOpts.height,
		Axis:         renderOpts.axis,
	}
	if err := cc.Validate(); err != nil {
		return err
	}
	cfg, err := cc.ChallengeConfig()
	if err != nil {
		return err
	}
	cfg.Text = renderOpts.text

	opts, err := cc.EngineOptions()
	if err != nil {
		return err
	}
	engine, err := captcha.NewEngine(opts...)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(renderOpts.out); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	for i := 0; i < renderOpts.count; i++ {
		res, err := engine.Generate(cfg)
		if err != nil {
			return err
		}
		path := numberedPath(renderOpts.out, i, renderOpts.count)
		if err := writePNGFile(path, res); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", path, res.Text)
	}
	return nil
}

func writePNGFile(path string, res *captcha.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := captcha.WritePNG(f, res.Image); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
