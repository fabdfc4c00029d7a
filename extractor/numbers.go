package extractor

import (
	"regexp"
	"strconv"
	"strings"
)

// reNumericNoise drops every character that cannot be part of a numeric
// token: digits, thousands separators, the decimal point, and the magnitude
// suffix letter survive; everything else becomes a token boundary.
var reNumericNoise = regexp.MustCompile(`[^0-9kK.,]+`)

// reNumericToken matches one numeric token, optionally carrying a trailing
// "thousand" magnitude suffix.
var reNumericToken = regexp.MustCompile(`[0-9][0-9.,]*[kK]?`)

// parseNumericToken extracts the first numeric token from s and interprets
// it, in priority order: magnitude-suffixed ("2.5k" → 2500), thousands
// separated ("1,500" → 1500), decimal ("2.5" → 2), plain integer.
// Returns false when s contains no numeric token.
func parseNumericToken(s string) (int, bool) {
	clean := reNumericNoise.ReplaceAllString(s, " ")
	token := reNumericToken.FindString(clean)
	if token == "" {
		return 0, false
	}

	if strings.HasSuffix(token, "k") || strings.HasSuffix(token, "K") {
		base := strings.TrimRight(token[:len(token)-1], ".,")
		base = strings.ReplaceAll(base, ",", "")
		f, err := strconv.ParseFloat(base, 64)
		if err != nil {
			return 0, false
		}
		return int(f*1000 + 0.5), true
	}

	token = strings.TrimRight(token, ".,")
	if strings.Contains(token, ",") {
		token = strings.ReplaceAll(token, ",", "")
		n, err := strconv.Atoi(token)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	if strings.Contains(token, ".") {
		f, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return 0, false
		}
		return int(f), true
	}

	n, err := strconv.Atoi(token)
	if err != nil {
		return 0, false
	}
	return n, true
}
