package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

type FeeName string

const (
	FeeBroker            FeeName = "broker"
	FeeTransfer          FeeName = "transfer"
	FeeUssuriysk         FeeName = "ussuriysk"
	FeeAgent             FeeName = "agent"
	FeeUtilizationUnder3 FeeName = "utilization_under3"
	FeeUtilizationOver3  FeeName = "utilization_over3"
	FeeTransport         FeeName = "transport"
)

func (n FeeName) String() string {
	return string(n)
}

// FeeSet maps a fee name to its amount in rubles for one country.
type FeeSet map[FeeName]int64

// Get reports whether the fee is configured. A configured fee of zero is
// a real zero, not an absence.
func (s FeeSet) Get(name FeeName) (int64, bool) {
	v, ok := s[name]
	return v, ok
}

// Require returns the fee or ErrFeeNotConfigured.
func (s FeeSet) Require(country Country, name FeeName) (int64, error) {
	v, ok := s[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s/%s", ErrFeeNotConfigured, country, name)
	}
	return v, nil
}

// Names returns the fee names in a stable order.
func (s FeeSet) Names() []FeeName {
	names := make([]FeeName, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

func (s FeeSet) Clone() FeeSet {
	out := make(FeeSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// FeeNames lists the six fee names recognised for a country.
func FeeNames(c Country) []FeeName {
	return []FeeName{
		FeeBroker,
		c.SecondFee(),
		FeeAgent,
		FeeUtilizationUnder3,
		FeeUtilizationOver3,
		FeeTransport,
	}
}

// ParseFeeName lowercases s and checks it is one of the country's fee names.
func ParseFeeName(c Country, s string) (FeeName, error) {
	name := FeeName(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range FeeNames(c) {
		if known == name {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: %s/%q", ErrUnknownFee, c, s)
}

// DefaultFees is the seed table written once on first startup.
func DefaultFees() map[Country]FeeSet {
	return map[Country]FeeSet{
		China: {
			FeeBroker:            98000,
			FeeUssuriysk:         7000,
			FeeAgent:             80000,
			FeeUtilizationUnder3: 3400,
			FeeUtilizationOver3:  5200,
			FeeTransport:         15000,
		},
		Japan: {
			FeeBroker:            75000,
			FeeTransfer:          5000,
			FeeAgent:             60000,
			FeeUtilizationUnder3: 3400,
			FeeUtilizationOver3:  5200,
			FeeTransport:         105000,
		},
		Korea: {
			FeeBroker:            100000,
			FeeTransfer:          5000,
			FeeAgent:             80000,
			FeeUtilizationUnder3: 3400,
			FeeUtilizationOver3:  5200,
			FeeTransport:         1700000,
		},
	}
}

// Rate is a per-unit exchange rate pair for one currency.
type Rate struct {
	ToRuble decimal.Decimal `json:"to_rub"`
	ToEuro  decimal.Decimal `json:"to_eur"`
}

func NewRate(toRuble, toEuro decimal.Decimal) (Rate, error) {
	r := Rate{ToRuble: toRuble, ToEuro: toEuro}
	if err := r.Validate(); err != nil {
		return Rate{}, err
	}
	return r, nil
}

func (r Rate) Validate() error {
	if !r.ToRuble.IsPositive() || !r.ToEuro.IsPositive() {
		return fmt.Errorf("%w: to_rub=%s to_eur=%s", ErrInvalidRate, r.ToRuble, r.ToEuro)
	}
	return nil
}

// EuroToRuble is the cross rate derived from the two local-currency rates.
func (r Rate) EuroToRuble() decimal.Decimal {
	return r.ToRuble.Div(r.ToEuro)
}
