/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package hangul holds the script rules of the word chain: which strings count
// as words, and which syllables may open the next word.
package hangul

import (
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	syllableFirst rune = 0xAC00
	syllableLast  rune = 0xD7A3

	leadBase  rune = 0x1100
	vowelBase rune = 0x1161
	leadNieun rune = leadBase + 2
	leadRieul rune = leadBase + 5
	leadIeung rune = leadBase + 11
	vowelYa   rune = vowelBase + 2
	vowelYae  rune = vowelBase + 3
	vowelYeo  rune = vowelBase + 6
	vowelYe   rune = vowelBase + 7
	vowelYo   rune = vowelBase + 12
	vowelYu   rune = vowelBase + 17
	vowelI    rune = vowelBase + 20
)

// Vowels that let ㄹ and ㄴ fall away to ㅇ at the start of a word.
var palatalVowels = map[rune]bool{
	vowelI:   true,
	vowelYa:  true,
	vowelYae: true,
	vowelYeo: true,
	vowelYe:  true,
	vowelYo:  true,
	vowelYu:  true,
}

// IsSyllable reports whether r is a precomposed Hangul syllable block.
func IsSyllable(r rune) bool {
	return r >= syllableFirst && r <= syllableLast
}

// IsWord reports whether s is non-empty and made only of syllable blocks.
func IsWord(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if !IsSyllable(r) {
			return false
		}
	}

	return true
}

// First returns the first character of word, or "" for an empty string.
func First(word string) string {
	r, size := utf8.DecodeRuneInString(word)
	if r == utf8.RuneError && size <= 1 {
		return ""
	}

	return word[:size]
}

// Last returns the last character of word, or "" for an empty string.
func Last(word string) string {
	r, size := utf8.DecodeLastRuneInString(word)
	if r == utf8.RuneError && size <= 1 {
		return ""
	}

	return word[len(word)-size:]
}

// Variants returns the syllables that may open the word following one that
// ends in syllable. The input itself is always the first element.
//
// ㄹ may become ㄴ, and both ㄹ and ㄴ may become ㅇ in front of ㅣ ㅑ ㅒ ㅕ ㅖ ㅛ ㅠ.
// Anything that is not a single syllable block is returned unchanged.
func Variants(syllable string) []string {
	out := []string{syllable}

	r, size := utf8.DecodeRuneInString(syllable)
	if size != len(syllable) || !IsSyllable(r) {
		return out
	}

	jamo := []rune(norm.NFD.String(syllable))
	if len(jamo) < 2 {
		return out
	}

	lead, vowel := jamo[0], jamo[1]

	switch lead {
	case leadRieul:
		out = append(out, withLead(jamo, leadNieun))
		if palatalVowels[vowel] {
			out = append(out, withLead(jamo, leadIeung))
		}
	case leadNieun:
		if palatalVowels[vowel] {
			out = append(out, withLead(jamo, leadIeung))
		}
	}

	return out
}

// CanFollow reports whether next may be played after prev. Anything may
// follow an empty prev.
func CanFollow(prev, next string) bool {
	if prev == "" {
		return true
	}

	first := First(next)
	for _, v := range Variants(Last(prev)) {
		if v == first {
			return true
		}
	}

	return false
}

// NextStarts lists the syllables that may open the word after prev, or nil
// when prev is empty.
func NextStarts(prev string) []string {
	if prev == "" {
		return nil
	}

	return Variants(Last(prev))
}

func withLead(jamo []rune, lead rune) string {
	swapped := make([]rune, len(jamo))
	copy(swapped, jamo)
	swapped[0] = lead

	return norm.NFC.String(string(swapped))
}
