package captcha

import (
	"fmt"
	"strings"
)

// Difficulty controls noise density only.
type Difficulty int

const (
	DifficultyLow Difficulty = iota + 1
	DifficultyNormal
	DifficultyHigh
)

func (d Difficulty) String() string {
	switch d {
	case DifficultyLow:
		return "low"
	case DifficultyNormal:
		return "normal"
	case DifficultyHigh:
		return "high"
	}
	return fmt.Sprintf("Difficulty(%d)", int(d))
}

// ParseDifficulty maps "low", "normal" or "high" (any case) to a Difficulty.
func ParseDifficulty(name string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "low":
		return DifficultyLow, nil
	case "normal":
		return DifficultyNormal, nil
	case "high":
		return DifficultyHigh, nil
	}
	return 0, configErrorf("difficulty", "unknown difficulty %q", name)
}

// NoiseProfile is the amount of clutter drawn over a challenge.
type NoiseProfile struct {
	Lines  int
	Points int
}

var noiseTable = map[Difficulty]NoiseProfile{
	DifficultyLow:    {Lines: 5, Points: 10},
	DifficultyNormal: {Lines: 9, Points: 25},
	DifficultyHigh:   {Lines: 14, Points: 35},
}

// ResolveNoise looks up the noise profile for d.
func ResolveNoise(d Difficulty) (NoiseProfile, error) {
	p, ok := noiseTable[d]
	if !ok {
		return NoiseProfile{}, configErrorf("difficulty", "unknown difficulty %v", d)
	}
	return p, nil
}
