package captcha

import (
	"fmt"
	"strings"
)

// Charset selects the symbol pool challenge text is drawn from.
type Charset int

const (
	// CharsetAuto derives Digits or Mixed from Config.MixLetters.
	CharsetAuto Charset = iota
	CharsetDigits
	CharsetLetters
	CharsetMixed
)

func (c Charset) String() string {
	switch c {
	case CharsetAuto:
		return "auto"
	case CharsetDigits:
		return "digits"
	case CharsetLetters:
		return "letters"
	case CharsetMixed:
		return "mixed"
	}
	return fmt.Sprintf("Charset(%d)", int(c))
}

// ParseCharset maps a case-insensitive name to a Charset.
func ParseCharset(name string) (Charset, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return CharsetAuto, nil
	case "digits":
		return CharsetDigits, nil
	case "letters":
		return CharsetLetters, nil
	case "mixed":
		return CharsetMixed, nil
	}
	return 0, configErrorf("charset", "unknown charset %q", name)
}

// Symbol pools. Letters leave out I, O, i, j, l, o and the lowercase forms
// that only differ from their capital in size.
const (
	Digits      = "0123456789"
	Letters     = "ABCDEFGHJKLMNPQRSTUVWXYZabdefghmnqrty"
	mixedDigits = "23456789"
)

// In mixed text the digit class is drawn this much more often than the letter class.
const (
	mixedDigitWeight  = 5
	mixedLetterWeight = 2
)

// Alphabet returns every symbol GenerateText can emit for c.
func (c Charset) Alphabet() string {
	switch c {
	case CharsetDigits:
		return Digits
	case CharsetLetters:
		return Letters
	case CharsetMixed:
		return mixedDigits + Letters
	}
	return ""
}

// GenerateText draws length symbols from charset, independently and with replacement.
func GenerateText(src *Source, length int, charset Charset) (string, error) {
	if length <= 0 {
		return "", configErrorf("letter count", "must be positive, got %d", length)
	}
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		switch charset {
		case CharsetDigits:
			b.WriteByte(Digits[src.Intn(len(Digits))])
		case CharsetLetters:
			b.WriteByte(Letters[src.Intn(len(Letters))])
		case CharsetMixed:
			if src.Intn(mixedDigitWeight+mixedLetterWeight) < mixedDigitWeight {
				b.WriteByte(mixedDigits[src.Intn(len(mixedDigits))])
			} else {
				b.WriteByte(Letters[src.Intn(len(Letters))])
			}
		default:
			return "", configErrorf("charset", "unknown charset %v", charset)
		}
	}
	return b.String(), nil
}
