package bot

import (
	"autocalc-bot/internal/model"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	minPrice    = 1
	maxPrice    = 10_000_000_000
	minEngineCC = 50
	maxEngineCC = 10_000
	maxFeeValue = 100_000_000
)

var maxQuotedRate = decimal.NewFromInt(1_000_000)

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f', '\t':
			return -1
		}
		return r
	}, s)
}

// ParseWholeNumber accepts digits with optional spaces between them
// ("1 500 000") and checks the value lies in [min, max].
func ParseWholeNumber(text string, min, max int64) (int64, error) {
	cleaned := stripSpaces(strings.TrimSpace(text))
	if cleaned == "" {
		return 0, fmt.Errorf("%w: %q", model.ErrNotInteger, text)
	}
	for _, r := range cleaned {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: %q", model.ErrNotInteger, text)
		}
	}

	v, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", model.ErrOutOfRange, text)
	}
	if v < min || v > max {
		return 0, fmt.Errorf("%w: %d not in [%d, %d]", model.ErrOutOfRange, v, min, max)
	}
	return v, nil
}

// ParseQuotedRate accepts a positive decimal with a comma or dot separator.
func ParseQuotedRate(text string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(stripSpaces(strings.TrimSpace(text)), ",", ".")
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("%w: %q", model.ErrNotNumber, text)
	}

	v, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", model.ErrNotNumber, text)
	}
	if !v.IsPositive() || v.GreaterThan(maxQuotedRate) {
		return decimal.Zero, fmt.Errorf("%w: %s", model.ErrOutOfRange, v)
	}
	return v, nil
}

func ParsePrice(text string) (int64, error) {
	return ParseWholeNumber(text, minPrice, maxPrice)
}

func ParseEngineCC(text string) (int64, error) {
	return ParseWholeNumber(text, minEngineCC, maxEngineCC)
}

// ParseFeeValue accepts zero: a fee can be waived.
func ParseFeeValue(text string) (int64, error) {
	return ParseWholeNumber(text, 0, maxFeeValue)
}
