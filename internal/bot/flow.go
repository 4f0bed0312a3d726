package bot

import (
	"autocalc-bot/internal/bot/calculators"
	"autocalc-bot/internal/model"
	"context"
	"errors"
	"fmt"
)

// Keyboard tells the transport which reply keyboard goes with a message.
type Keyboard int

const (
	KeyboardKeep Keyboard = iota
	KeyboardRemove
	KeyboardCountries
	KeyboardAges
	KeyboardRetry
)

type Reply struct {
	Text     string
	Keyboard Keyboard
}

// FeeStore is the persistent fee and daily rate storage.
type FeeStore interface {
	GetFee(ctx context.Context, country model.Country, name model.FeeName) (int64, bool, error)
	GetFeeSet(ctx context.Context, country model.Country) (model.FeeSet, error)
	SetFee(ctx context.Context, country model.Country, name model.FeeName, value int64) (bool, error)
	GetTodayRate(ctx context.Context, currency model.Currency) (model.Rate, bool, error)
	SetTodayRate(ctx context.Context, currency model.Currency, rate model.Rate) error
}

// Transition is the result of feeding one message to a session.
type Transition struct {
	Session Session
	Replies []Reply
	Done    bool
	Result  *calculators.Breakdown
}

type Flow struct {
	fees FeeStore
}

func NewFlow(fees FeeStore) *Flow {
	return &Flow{fees: fees}
}

// Start opens a fresh session, replacing whatever was in progress.
func (f *Flow) Start() (Session, Reply) {
	return Session{Step: StepCountry}, Reply{
		Text:     "Выберите страну импорта:",
		Keyboard: KeyboardCountries,
	}
}

// Advance validates text against the session's current step. Invalid
// input keeps the session where it is and explains what went wrong; only
// storage failures are returned as errors.
func (f *Flow) Advance(ctx context.Context, s Session, text string) (Transition, error) {
	switch s.Step {
	case StepCountry:
		return f.country(s, text), nil
	case StepPrice:
		return f.price(ctx, s, text)
	case StepAge:
		return f.age(s, text), nil
	case StepEngine:
		return f.engine(ctx, s, text)
	case StepRate1:
		return f.rateToRuble(s, text), nil
	case StepRate2:
		return f.rateToEuro(ctx, s, text)
	default:
		return Transition{}, fmt.Errorf("unknown step %q", s.Step)
	}
}

func stay(s Session, text string, kb Keyboard) Transition {
	return Transition{Session: s, Replies: []Reply{{Text: "❌ " + text, Keyboard: kb}}}
}

func next(s Session, text string, kb Keyboard) Transition {
	return Transition{Session: s, Replies: []Reply{{Text: text, Keyboard: kb}}}
}

func (f *Flow) country(s Session, text string) Transition {
	country, err := model.ParseCountry(text)
	if err != nil {
		return stay(s, "Пожалуйста, выберите одну из кнопок: Китай, Япония или Корея.", KeyboardCountries)
	}

	s.Country = country
	s.Step = StepPrice
	return next(s, fmt.Sprintf(
		"Выбрано: %s. Теперь введите стоимость автомобиля (целое число) в местной валюте (%s).",
		country, country.Currency()), KeyboardRemove)
}

func (f *Flow) price(ctx context.Context, s Session, text string) (Transition, error) {
	price, err := ParsePrice(text)
	if err != nil {
		return stay(s, numberError(err, "Введите только целое число (например: 150000).", minPrice, maxPrice), KeyboardKeep), nil
	}

	transport, ok, err := f.fees.GetFee(ctx, s.Country, model.FeeTransport)
	if err != nil {
		return Transition{}, fmt.Errorf("get transport fee: %w", err)
	}
	if !ok {
		return Transition{}, fmt.Errorf("%w: %s/%s", model.ErrFeeNotConfigured, s.Country, model.FeeTransport)
	}

	s.Price = price
	s.TransportFee = transport
	s.Step = StepAge
	return next(s, "Выберите возраст автомобиля (кнопкой):", KeyboardAges), nil
}

func (f *Flow) age(s Session, text string) Transition {
	age, err := model.ParseAgeBracket(text)
	if err != nil {
		return stay(s, "Пожалуйста, выберите одну из кнопок: «До 3 лет», «3–5 лет», «Старше 5 лет».", KeyboardAges)
	}

	s.Age = age
	s.Step = StepEngine
	return next(s, "Введите объём двигателя (целое число, в куб.см), например: 1800", KeyboardRemove)
}

func (f *Flow) engine(ctx context.Context, s Session, text string) (Transition, error) {
	cc, err := ParseEngineCC(text)
	if err != nil {
		return stay(s, numberError(err, "Введите целое число (например: 1800).", minEngineCC, maxEngineCC), KeyboardKeep), nil
	}
	s.EngineCC = cc

	currency := s.Country.Currency()
	rate, ok, err := f.fees.GetTodayRate(ctx, currency)
	if err != nil {
		return Transition{}, fmt.Errorf("get today's %s rate: %w", currency, err)
	}
	if ok {
		s.RateToRuble = rate.ToRuble
		s.RateToEuro = rate.ToEuro
		return f.finish(ctx, s)
	}

	s.Step = StepRate1
	return next(s, rubleRatePrompt(currency), KeyboardKeep), nil
}

func (f *Flow) rateToRuble(s Session, text string) Transition {
	quoted, err := ParseQuotedRate(text)
	if err != nil {
		return stay(s, rateError(err, "75.50"), KeyboardKeep)
	}

	currency := s.Country.Currency()
	s.RateToRuble = currency.Normalize(quoted)
	s.Step = StepRate2
	return next(s, euroRatePrompt(currency), KeyboardKeep)
}

func (f *Flow) rateToEuro(ctx context.Context, s Session, text string) (Transition, error) {
	quoted, err := ParseQuotedRate(text)
	if err != nil {
		return stay(s, rateError(err, "0.13"), KeyboardKeep), nil
	}

	currency := s.Country.Currency()
	s.RateToEuro = currency.Normalize(quoted)

	rate, err := model.NewRate(s.RateToRuble, s.RateToEuro)
	if err != nil {
		return Transition{}, err
	}
	if err := f.fees.SetTodayRate(ctx, currency, rate); err != nil {
		return Transition{}, fmt.Errorf("store today's %s rate: %w", currency, err)
	}

	return f.finish(ctx, s)
}

func (f *Flow) finish(ctx context.Context, s Session) (Transition, error) {
	set, err := f.fees.GetFeeSet(ctx, s.Country)
	if err != nil {
		return Transition{}, fmt.Errorf("get fees: %w", err)
	}

	fees, err := calculators.ResolveFees(s.Country, s.Age, set)
	if err != nil {
		return Transition{}, err
	}

	result := calculators.CalculateDuty(inputFromSession(s), fees)

	return Transition{
		Session: Session{},
		Replies: []Reply{{Text: FormatBreakdown(result), Keyboard: KeyboardRetry}},
		Done:    true,
		Result:  &result,
	}, nil
}

func inputFromSession(s Session) calculators.Input {
	return calculators.Input{
		Country:      s.Country,
		Price:        s.Price,
		TransportFee: s.TransportFee,
		Age:          s.Age,
		EngineCC:     s.EngineCC,
		Rate:         model.Rate{ToRuble: s.RateToRuble, ToEuro: s.RateToEuro},
	}
}

func rubleRatePrompt(c model.Currency) string {
	switch c {
	case model.JPY:
		return "Укажите курс японской йены за 100 JPY (JPY→₽), например: 75.50"
	case model.KRW:
		return "Укажите курс корейской воны за 1000 KRW (KRW→₽), например: 65.00"
	default:
		return "Укажите текущий курс юаня (CNY→₽), например: 11.05"
	}
}

func euroRatePrompt(c model.Currency) string {
	switch c {
	case model.JPY:
		return "Укажите курс за 100 JPY→EUR, например: 0.65"
	case model.KRW:
		return "Укажите курс за 1000 KRW→EUR, например: 0.75"
	default:
		return "Укажите курс CNY→EUR, например: 0.13"
	}
}

func numberError(err error, hint string, min, max int64) string {
	if errors.Is(err, model.ErrOutOfRange) {
		return fmt.Sprintf("Значение вне допустимого диапазона: от %s до %s.", formatInt(min), formatInt(max))
	}
	return "Некорректный ввод. " + hint
}

func rateError(err error, example string) string {
	if errors.Is(err, model.ErrOutOfRange) {
		return "Курс должен быть больше нуля и не больше " + formatInt(maxQuotedRate.IntPart()) + "."
	}
	return "Некорректный ввод. Введите число, например: " + example
}
