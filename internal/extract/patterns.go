// Package extract pulls best-effort structured fields out of free-form
// completion text. Every function here is total: a failed match yields an
// empty result or ok=false, never an error.
package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	hashtagRe = regexp.MustCompile(`#[\p{L}\p{M}\p{N}_]+`)
	scoreRe   = regexp.MustCompile(`(?i)\b(\d{1,2}(?:[.,]\d+)?)\s*(?:/\s*10\b|điểm)`)
	hexRe     = regexp.MustCompile(`#[0-9A-Fa-f]{6}`)
	timeRe    = regexp.MustCompile(`(?i)\b(?:(?:[01]?\d|2[0-3]):[0-5]\d(?:\s?[ap]m\b)?|(?:[01]?\d|2[0-3])h(?:[0-5]\d)?)`)
	numberRe  = regexp.MustCompile(`\d{1,3}(?:[.,]\d{3})+|\d+`)
	percentRe = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*%`)
	listRe    = regexp.MustCompile(`^\s*(?:\d+[.)]|[-*•])\s+(.+?)\s*$`)
)

// Hashtags returns every hashtag in text in order of appearance.
// Duplicates are kept. The result is never nil.
func Hashtags(text string) []string {
	out := hashtagRe.FindAllString(text, -1)
	if out == nil {
		return []string{}
	}
	return out
}

// Score returns the first "N/10" or "N điểm" value in text. N has at most
// two integer digits, and a match that is part of a date such as
// "2024/10/05" is skipped.
func Score(text string) (float64, bool) {
	for _, loc := range scoreRe.FindAllStringSubmatchIndex(text, -1) {
		if loc[2] > 0 && strings.IndexByte("0123456789/.,", text[loc[2]-1]) >= 0 {
			continue
		}
		if loc[1] < len(text) && text[loc[1]] == '/' {
			continue
		}
		v, err := strconv.ParseFloat(strings.Replace(text[loc[2]:loc[3]], ",", ".", 1), 64)
		if err != nil {
			continue
		}
		return v, true
	}
	return 0, false
}

// HexColors returns every "#RRGGBB" code in text. A run of more than six
// word characters after the '#' is not a color.
func HexColors(text string) []string {
	out := []string{}
	for _, loc := range hexRe.FindAllStringIndex(text, -1) {
		if loc[1] < len(text) && isWordByte(text[loc[1]]) {
			continue
		}
		out = append(out, text[loc[0]:loc[1]])
	}
	return out
}

// TimeTokens returns every "HH:MM", "H:MMam", "Nh" or "NhMM" time in text.
// A token running into a word, as in "5hours", is not a time.
func TimeTokens(text string) []string {
	out := []string{}
	for _, loc := range timeRe.FindAllStringIndex(text, -1) {
		if loc[1] < len(text) && isWordByte(text[loc[1]]) {
			continue
		}
		out = append(out, text[loc[0]:loc[1]])
	}
	return out
}

// Count returns the first integer immediately followed by one of labels,
// e.g. "1,200 likes". The label must end at a word boundary, so "like"
// does not match "likely". Thousands separators are dropped.
func Count(text string, labels ...string) (int, bool) {
	lower := strings.ToLower(text)
	for _, loc := range numberRe.FindAllStringIndex(lower, -1) {
		rest := strings.TrimLeft(lower[loc[1]:], " \t")
		for _, l := range labels {
			l = strings.ToLower(l)
			if !strings.HasPrefix(rest, l) || !wordEnds(rest[len(l):]) {
				continue
			}
			digits := strings.NewReplacer(",", "", ".", "").Replace(lower[loc[0]:loc[1]])
			n, err := strconv.Atoi(digits)
			if err != nil {
				return 0, false
			}
			return n, true
		}
	}
	return 0, false
}

// Percent returns the first percentage that appears after one of labels.
func Percent(text string, labels ...string) (float64, bool) {
	lower := strings.ToLower(text)
	for _, l := range labels {
		i := strings.Index(lower, strings.ToLower(l))
		if i < 0 {
			continue
		}
		m := percentRe.FindStringSubmatch(lower[i+len(l):])
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(strings.Replace(m[1], ",", ".", 1), 64)
		if err != nil {
			continue
		}
		return v, true
	}
	return 0, false
}

// ListItems returns the text of numbered ("1." / "1)") and bulleted lines.
func ListItems(text string) []string {
	out := []string{}
	for _, line := range strings.Split(text, "\n") {
		if m := listRe.FindStringSubmatch(line); m != nil {
			out = append(out, m[1])
		}
	}
	return out
}

// wordEnds reports whether s does not continue the word before it.
func wordEnds(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return r == utf8.RuneError || !(r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r))
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}
