package utils

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var englishPrinter = message.NewPrinter(language.English)

// FormatWholeAmount renders v rounded to a whole number with thousands separators, e.g. 2,295
func FormatWholeAmount(v float64) string {
	return englishPrinter.Sprintf("%d", int64(math.RoundToEven(v)))
}

// CleanModelName removes repeated year tokens such as "2024 2024 Civic" -> "Civic"
func CleanModelName(model string, year int) string {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(strconv.Itoa(year)) + `\s+`)
	return strings.TrimSpace(re.ReplaceAllString(model, ""))
}

// NonEmptyLines returns the trimmed lines of s that are not blank
func NonEmptyLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// IsBlank reports whether s is empty or a missing-value marker
func IsBlank(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "na", "n/a", "nan", "null", "none":
		return true
	}
	return false
}
