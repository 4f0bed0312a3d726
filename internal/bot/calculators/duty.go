package calculators

import (
	"autocalc-bot/internal/model"

	"github.com/shopspring/decimal"
)

// Input is a fully collected calculation request.
type Input struct {
	Country      model.Country
	Price        int64 // local currency
	TransportFee int64 // local currency
	Age          model.AgeBracket
	EngineCC     int64
	Rate         model.Rate // per-unit rates
}

// FixedFees are the ruble fees that do not depend on the car value.
type FixedFees struct {
	Broker      int64
	SecondName  model.FeeName
	Second      int64
	Agent       int64
	Utilization int64
}

func (f FixedFees) Total() int64 {
	return f.Broker + f.Second + f.Agent + f.Utilization
}

// Breakdown carries every intermediate value shown to the user.
type Breakdown struct {
	Input Input
	Fees  FixedFees

	TotalLocal  int64
	TotalRuble  decimal.Decimal
	TotalEuro   decimal.Decimal
	DutyPercent decimal.Decimal // zero for per-cc brackets
	DutyPerCC   decimal.Decimal
	DutyEuro    decimal.Decimal
	EuroToRuble decimal.Decimal
	DutyRuble   decimal.Decimal
	GrandTotal  decimal.Decimal
}

type valueTier struct {
	upTo    decimal.Decimal
	percent decimal.Decimal
	perCC   decimal.Decimal
}

type displacementBand struct {
	upTo  int64
	perCC decimal.Decimal
}

// Upper bounds are inclusive; the last entry of every table is unbounded.
var (
	under3Tiers = []valueTier{
		{upTo: decimal.NewFromInt(8500), percent: decimal.RequireFromString("0.54"), perCC: decimal.RequireFromString("2.5")},
		{upTo: decimal.NewFromInt(16700), percent: decimal.RequireFromString("0.48"), perCC: decimal.RequireFromString("3.5")},
		{upTo: decimal.NewFromInt(42300), percent: decimal.RequireFromString("0.48"), perCC: decimal.RequireFromString("5.5")},
		{upTo: decimal.NewFromInt(84500), percent: decimal.RequireFromString("0.48"), perCC: decimal.RequireFromString("7.5")},
		{upTo: decimal.NewFromInt(169000), percent: decimal.RequireFromString("0.48"), perCC: decimal.RequireFromString("15")},
		{percent: decimal.RequireFromString("0.48"), perCC: decimal.RequireFromString("20")},
	}

	from3to5Bands = []displacementBand{
		{upTo: 1000, perCC: decimal.RequireFromString("1.5")},
		{upTo: 1500, perCC: decimal.RequireFromString("1.7")},
		{upTo: 1800, perCC: decimal.RequireFromString("2.5")},
		{upTo: 2300, perCC: decimal.RequireFromString("2.7")},
		{upTo: 3000, perCC: decimal.RequireFromString("3.0")},
		{perCC: decimal.RequireFromString("3.6")},
	}

	over5Bands = []displacementBand{
		{upTo: 1000, perCC: decimal.RequireFromString("3.0")},
		{upTo: 1500, perCC: decimal.RequireFromString("3.2")},
		{upTo: 1800, perCC: decimal.RequireFromString("3.5")},
		{upTo: 2300, perCC: decimal.RequireFromString("4.8")},
		{upTo: 3000, perCC: decimal.RequireFromString("5.0")},
		{perCC: decimal.RequireFromString("5.7")},
	}
)

// ResolveFees picks the fixed fees for a country and age bracket out of
// the stored fee set.
func ResolveFees(country model.Country, age model.AgeBracket, set model.FeeSet) (FixedFees, error) {
	var (
		fees FixedFees
		err  error
	)

	if fees.Broker, err = set.Require(country, model.FeeBroker); err != nil {
		return FixedFees{}, err
	}

	fees.SecondName = country.SecondFee()
	if fees.Second, err = set.Require(country, fees.SecondName); err != nil {
		return FixedFees{}, err
	}

	if fees.Agent, err = set.Require(country, model.FeeAgent); err != nil {
		return FixedFees{}, err
	}

	utilization := model.FeeUtilizationOver3
	if age == model.AgeUnder3 {
		utilization = model.FeeUtilizationUnder3
	}
	if fees.Utilization, err = set.Require(country, utilization); err != nil {
		return FixedFees{}, err
	}

	return fees, nil
}

// CalculateDuty computes the landed cost. Price, displacement and rates are
// expected to be validated positive by the caller.
func CalculateDuty(in Input, fees FixedFees) Breakdown {
	b := Breakdown{Input: in, Fees: fees}

	b.TotalLocal = in.Price + in.TransportFee
	b.TotalRuble = decimal.NewFromInt(b.TotalLocal).Mul(in.Rate.ToRuble)

	// Customs value is the car price alone, transport is not part of it.
	b.TotalEuro = decimal.NewFromInt(in.Price).Mul(in.Rate.ToEuro)

	cc := decimal.NewFromInt(in.EngineCC)
	switch in.Age {
	case model.AgeUnder3:
		tier := pickValueTier(b.TotalEuro)
		b.DutyPercent = tier.percent
		b.DutyPerCC = tier.perCC
		b.DutyEuro = decimal.Max(b.TotalEuro.Mul(tier.percent), tier.perCC.Mul(cc))
	case model.Age3to5:
		b.DutyPerCC = pickBand(from3to5Bands, in.EngineCC).perCC
		b.DutyEuro = b.DutyPerCC.Mul(cc)
	default:
		b.DutyPerCC = pickBand(over5Bands, in.EngineCC).perCC
		b.DutyEuro = b.DutyPerCC.Mul(cc)
	}

	b.EuroToRuble = in.Rate.EuroToRuble()
	b.DutyRuble = b.DutyEuro.Mul(b.EuroToRuble)

	b.GrandTotal = b.TotalRuble.
		Add(b.DutyRuble).
		Add(decimal.NewFromInt(fees.Total()))

	return b
}

func pickValueTier(totalEuro decimal.Decimal) valueTier {
	last := len(under3Tiers) - 1
	for i, t := range under3Tiers {
		if i == last || totalEuro.LessThanOrEqual(t.upTo) {
			return t
		}
	}
	return under3Tiers[last]
}

func pickBand(bands []displacementBand, cc int64) displacementBand {
	last := len(bands) - 1
	for i, b := range bands {
		if i == last || cc <= b.upTo {
			return b
		}
	}
	return bands[last]
}
