package content

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatPrice renders whole dollars with thousands separators: $1,250,000.
func FormatPrice(price int64) string {
	return printer.Sprintf("$%d", price)
}

// FormatNumber groups an integer with thousands separators.
func FormatNumber(n int) string {
	return printer.Sprintf("%d", n)
}

// FormatBaths drops a trailing ".0": 2 -> "2", 2.5 -> "2.5".
func FormatBaths(b float64) string {
	return strconv.FormatFloat(b, 'f', -1, 64)
}

// hashtagWord strips everything but letters and digits, title-casing words:
// "San Diego" -> "SanDiego".
func hashtagWord(s string) string {
	var b strings.Builder
	upperNext := true
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upperNext = true
			continue
		}
		if upperNext {
			r = unicode.ToUpper(r)
			upperNext = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// truncateRunes cuts s to at most max runes, ending with an ellipsis when cut.
func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return strings.TrimRightFunc(string(runes[:max-1]), unicode.IsSpace) + "…"
}
