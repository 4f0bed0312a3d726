// Package model holds the domain vocabulary shared by the calculator, the
// storage layer and the bot: countries, currencies, age brackets, fee names
// and exchange rates.
package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Country string

const (
	China Country = "Китай"
	Japan Country = "Япония"
	Korea Country = "Корея"
)

// Countries keeps the order used for keyboards and exports.
var Countries = []Country{China, Japan, Korea}

var countryAliases = map[string]Country{
	"китай":  China,
	"china":  China,
	"япония": Japan,
	"japan":  Japan,
	"корея":  Korea,
	"korea":  Korea,
}

func (c Country) String() string {
	return string(c)
}

func (c Country) Valid() bool {
	switch c {
	case China, Japan, Korea:
		return true
	}
	return false
}

// ParseCountry accepts a country name in any letter case, in Russian or English.
func ParseCountry(s string) (Country, error) {
	if c, ok := countryAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCountry, s)
}

func (c Country) Currency() Currency {
	switch c {
	case Japan:
		return JPY
	case Korea:
		return KRW
	default:
		return CNY
	}
}

// SecondFee is the delivery fee charged on top of the broker fee:
// the Ussuriysk crossing for China, transfer for Japan and Korea.
func (c Country) SecondFee() FeeName {
	if c == China {
		return FeeUssuriysk
	}
	return FeeTransfer
}

// Genitive is used in the breakdown title ("из Японии").
func (c Country) Genitive() string {
	switch c {
	case China:
		return "Китая"
	case Japan:
		return "Японии"
	case Korea:
		return "Кореи"
	}
	return string(c)
}

type Currency string

const (
	CNY Currency = "CNY"
	JPY Currency = "JPY"
	KRW Currency = "KRW"
)

var Currencies = []Currency{CNY, JPY, KRW}

func (c Currency) String() string {
	return string(c)
}

func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	switch c {
	case CNY, JPY, KRW:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCurrency, s)
}

// QuoteUnit is how many units of the currency a rate is quoted for.
func (c Currency) QuoteUnit() int64 {
	switch c {
	case JPY:
		return 100
	case KRW:
		return 1000
	default:
		return 1
	}
}

// Normalize turns a rate quoted per QuoteUnit into a per-unit rate.
func (c Currency) Normalize(quoted decimal.Decimal) decimal.Decimal {
	return quoted.Div(decimal.NewFromInt(c.QuoteUnit()))
}

// Quote is the inverse of Normalize.
func (c Currency) Quote(perUnit decimal.Decimal) decimal.Decimal {
	return perUnit.Mul(decimal.NewFromInt(c.QuoteUnit()))
}

type AgeBracket string

const (
	AgeUnder3 AgeBracket = "До 3 лет"
	Age3to5   AgeBracket = "3–5 лет"
	AgeOver5  AgeBracket = "Старше 5 лет"
)

var AgeBrackets = []AgeBracket{AgeUnder3, Age3to5, AgeOver5}

func (a AgeBracket) String() string {
	return string(a)
}

func ParseAgeBracket(s string) (AgeBracket, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.EqualFold(s, string(AgeUnder3)):
		return AgeUnder3, nil
	case strings.EqualFold(s, string(Age3to5)), strings.EqualFold(s, "3-5 лет"):
		return Age3to5, nil
	case strings.EqualFold(s, string(AgeOver5)):
		return AgeOver5, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAgeBracket, s)
}
