package models

import (
	"fmt"
	"regexp"
	"strings"
)

var tickerRe = regexp.MustCompile(`^[A-Z0-9.\-]{1,16}$`)

// NormalizeTicker upper-cases ticker and checks it is safe to use in file
// names and SQL parameters.
func NormalizeTicker(ticker string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if !tickerRe.MatchString(t) {
		return "", fmt.Errorf("%w: ticker %q", ErrInvalidInput, ticker)
	}
	return t, nil
}
