package bot

import (
	"autocalc-bot/internal/bot/calculators"
	"autocalc-bot/internal/model"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.Russian)

// formatInt groups digits the Russian way: 1 500 000.
func formatInt(v int64) string {
	return printer.Sprintf("%v", number.Decimal(v))
}

// formatMoney rounds d to places and groups the integer part. The digits
// come from the decimal itself, so large totals keep every kopeck.
func formatMoney(d decimal.Decimal, places int) string {
	r := d.Round(int32(places))
	sign := ""
	if r.IsNegative() {
		sign = "-"
		r = r.Abs()
	}

	whole := r.Truncate(0)
	out := sign + formatInt(whole.IntPart())
	if places > 0 {
		// "0.57" -> "57"
		frac := r.Sub(whole).StringFixed(int32(places))
		out += "," + frac[strings.IndexByte(frac, '.')+1:]
	}
	return out
}

func FormatBreakdown(b calculators.Breakdown) string {
	in := b.Input
	currency := in.Country.Currency()

	var sb strings.Builder
	fmt.Fprintf(&sb, "Расчёт стоимости автомобиля «под ключ» из %s до Владивостока:\n\n", in.Country.Genitive())

	fmt.Fprintf(&sb, "1. Стоимость авто (%s): %s + Транспорт: %s = %s\n",
		currency, formatInt(in.Price), formatInt(in.TransportFee), formatInt(b.TotalLocal))
	fmt.Fprintf(&sb, "   Курс %s→₽: %s → %s ₽\n",
		currency, in.Rate.ToRuble.StringFixed(4), formatMoney(b.TotalRuble, 0))
	fmt.Fprintf(&sb, "   Курс %s→EUR: %s → %s EUR\n\n",
		currency, in.Rate.ToEuro.StringFixed(6), formatMoney(b.TotalEuro, 2))

	fmt.Fprintf(&sb, "2. Возраст: %s, объём: %s см³\n", in.Age, formatInt(in.EngineCC))
	if in.Age == model.AgeUnder3 {
		fmt.Fprintf(&sb, "   Ставка: %s%%, но не менее %s EUR/см³\n",
			b.DutyPercent.Shift(2).String(), b.DutyPerCC.String())
	} else {
		fmt.Fprintf(&sb, "   Ставка: %s EUR/см³\n", b.DutyPerCC.String())
	}
	fmt.Fprintf(&sb, "   Таможенная пошлина: %s EUR → %s ₽ (через EUR→₽ = %s)\n\n",
		formatMoney(b.DutyEuro, 2), formatMoney(b.DutyRuble, 0), b.EuroToRuble.StringFixed(4))

	sb.WriteString("3. Фиксированные сборы (₽):\n")
	fmt.Fprintf(&sb, "   • Брокер: %s ₽\n", formatInt(b.Fees.Broker))
	fmt.Fprintf(&sb, "   • %s: %s ₽\n", feeLabel(b.Fees.SecondName), formatInt(b.Fees.Second))
	fmt.Fprintf(&sb, "   • Агент: %s ₽\n", formatInt(b.Fees.Agent))
	fmt.Fprintf(&sb, "   • Утилизационный сбор: %s ₽\n\n", formatInt(b.Fees.Utilization))

	fmt.Fprintf(&sb, "Итого: %s ₽", formatMoney(b.GrandTotal, 0))
	return sb.String()
}

func feeLabel(name model.FeeName) string {
	switch name {
	case model.FeeBroker:
		return "Брокер"
	case model.FeeTransfer:
		return "Перегон"
	case model.FeeUssuriysk:
		return "Перегон (Уссурийск)"
	case model.FeeAgent:
		return "Агент"
	case model.FeeUtilizationUnder3:
		return "Утильсбор до 3 лет"
	case model.FeeUtilizationOver3:
		return "Утильсбор старше 3 лет"
	case model.FeeTransport:
		return "Транспорт"
	}
	return string(name)
}

// FormatFeeSet lists a country's fees, one per line.
func FormatFeeSet(country model.Country, set model.FeeSet) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Сборы для %s (₽):\n", country.Genitive())
	for _, name := range model.FeeNames(country) {
		v, ok := set.Get(name)
		value := "не задан"
		if ok {
			value = formatInt(v)
		}
		fmt.Fprintf(&sb, "• %s (%s): %s\n", feeLabel(name), name, value)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatRates shows the stored per-unit rates together with the quoted form.
func FormatRates(rates map[model.Currency]model.Rate) string {
	var sb strings.Builder
	sb.WriteString("Курсы на сегодня:\n")
	for _, c := range model.Currencies {
		r, ok := rates[c]
		if !ok {
			fmt.Fprintf(&sb, "• %s: не задан\n", c)
			continue
		}
		fmt.Fprintf(&sb, "• %s: → ₽ %s, → EUR %s", c, r.ToRuble.StringFixed(4), r.ToEuro.StringFixed(6))
		if unit := c.QuoteUnit(); unit > 1 {
			fmt.Fprintf(&sb, " (за %d %s: %s ₽)", unit, c, c.Quote(r.ToRuble).StringFixed(2))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
