package utils

import (
	"crypto/rand"
	"errors"
	"strings"
)

// Crockford Base32 encoding alphabet (uppercase). No I, L, O or U, so codes
// survive being read aloud or copied by hand.
const crockfordAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// ReferralCodeHook lets tests force the next generated code.
// It returns the code and whether to override random generation.
var ReferralCodeHook func() (code string, override bool)

var crockfordDecodeMap map[byte]byte

func init() {
	crockfordDecodeMap = make(map[byte]byte, 64)
	for i := range crockfordAlphabet {
		crockfordDecodeMap[crockfordAlphabet[i]] = crockfordAlphabet[i]
	}
	lower := strings.ToLower(crockfordAlphabet)
	for i := range lower {
		crockfordDecodeMap[lower[i]] = crockfordAlphabet[i]
	}

	// Commonly confused characters
	crockfordDecodeMap['O'] = '0'
	crockfordDecodeMap['o'] = '0'
	crockfordDecodeMap['I'] = '1'
	crockfordDecodeMap['i'] = '1'
	crockfordDecodeMap['L'] = '1'
	crockfordDecodeMap['l'] = '1'
}

// NewReferralCode returns a random code of length characters from the Crockford alphabet.
func NewReferralCode(length int) (string, error) {
	if ReferralCodeHook != nil {
		if code, override := ReferralCodeHook(); override {
			return code, nil
		}
	}
	return NewCode(length)
}

// NewCode returns length random Crockford characters.
func NewCode(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("code length must be positive")
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = crockfordAlphabet[b&0x1F]
	}
	return string(buf), nil
}

// CanonicalReferralCode trims user input, drops hyphens and spaces and
// upper-cases it. Letters are kept as typed, so stored codes such as "GOLD20" match exactly.
func CanonicalReferralCode(code string) string {
	code = strings.TrimSpace(code)
	code = strings.ReplaceAll(code, "-", "")
	code = strings.ReplaceAll(code, " ", "")
	return strings.ToUpper(code)
}

// NormalizeReferralCode is CanonicalReferralCode with the confusable letters
// O, I and L folded to 0 and 1. Only generated codes are guaranteed to survive it.
func NormalizeReferralCode(code string) string {
	code = CanonicalReferralCode(code)

	out := make([]byte, 0, len(code))
	for i := 0; i < len(code); i++ {
		if mapped, ok := crockfordDecodeMap[code[i]]; ok {
			out = append(out, mapped)
			continue
		}
		out = append(out, strings.ToUpper(string(code[i]))...)
	}
	return string(out)
}
