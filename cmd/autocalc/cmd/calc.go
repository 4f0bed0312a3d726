package cmd

import (
	"autocalc-bot/internal/bot"
	"autocalc-bot/internal/bot/calculators"
	"autocalc-bot/internal/model"
	"autocalc-bot/internal/storage"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

type calcOptions struct {
	country  string
	price    string
	age      string
	engine   string
	rateRub  string
	rateEur  string
	feesFile string
}

var calcOpts calcOptions

var calcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Calculate a landed cost offline",
	Long: `Runs the same calculation as the bot without Telegram or a database.
Fees come from the built-in table or --fees-file. Rates are quoted the way
the bot asks for them: CNY per 1, JPY per 100, KRW per 1000.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCalc(cmd.OutOrStdout(), calcOpts)
	},
}

func init() {
	f := calcCmd.Flags()
	f.StringVar(&calcOpts.country, "country", "", "Китай, Япония or Корея [REQUIRED]")
	f.StringVar(&calcOpts.price, "price", "", "car price in local currency [REQUIRED]")
	f.StringVar(&calcOpts.age, "age", "", `"До 3 лет", "3–5 лет" or "Старше 5 лет" [REQUIRED]`)
	f.StringVar(&calcOpts.engine, "engine", "", "engine displacement, cc [REQUIRED]")
	f.StringVar(&calcOpts.rateRub, "rate-rub", "", "local currency to ruble rate, quoted [REQUIRED]")
	f.StringVar(&calcOpts.rateEur, "rate-eur", "", "local currency to euro rate, quoted [REQUIRED]")
	f.StringVar(&calcOpts.feesFile, "fees-file", "", "YAML file overriding the built-in fees")

	for _, name := range []string{"country", "price", "age", "engine", "rate-rub", "rate-eur"} {
		_ = calcCmd.MarkFlagRequired(name)
	}
}

func runCalc(out io.Writer, opts calcOptions) error {
	country, err := model.ParseCountry(opts.country)
	if err != nil {
		return err
	}
	price, err := bot.ParsePrice(opts.price)
	if err != nil {
		return fmt.Errorf("price: %w", err)
	}
	age, err := model.ParseAgeBracket(opts.age)
	if err != nil {
		return err
	}
	engineCC, err := bot.ParseEngineCC(opts.engine)
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	currency := country.Currency()
	toRuble, err := bot.ParseQuotedRate(opts.rateRub)
	if err != nil {
		return fmt.Errorf("rate-rub: %w", err)
	}
	toEuro, err := bot.ParseQuotedRate(opts.rateEur)
	if err != nil {
		return fmt.Errorf("rate-eur: %w", err)
	}
	rate, err := model.NewRate(currency.Normalize(toRuble), currency.Normalize(toEuro))
	if err != nil {
		return err
	}

	defaults, err := storage.LoadDefaultFees(opts.feesFile)
	if err != nil {
		return err
	}
	set := defaults[country]

	transport, err := set.Require(country, model.FeeTransport)
	if err != nil {
		return err
	}
	fees, err := calculators.ResolveFees(country, age, set)
	if err != nil {
		return err
	}

	result := calculators.CalculateDuty(calculators.Input{
		Country:      country,
		Price:        price,
		TransportFee: transport,
		Age:          age,
		EngineCC:     engineCC,
		Rate:         rate,
	}, fees)

	_, err = fmt.Fprintln(out, bot.FormatBreakdown(result))
	return err
}
