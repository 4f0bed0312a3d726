package cmd

import (
	"autocalc-bot/internal/model"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunCalc(t *testing.T) {
	var out bytes.Buffer
	err := runCalc(&out, calcOptions{
		country: "Китай",
		price:   "150000",
		age:     "До 3 лет",
		engine:  "1800",
		rateRub: "11.05",
		rateEur: "0.13",
	})
	if err != nil {
		t.Fatalf("runCalc: %v", err)
	}

	text := out.String()
	if !strings.Contains(text, "из Китая") || !strings.Contains(text, "через EUR→₽ = 85.0000") {
		t.Errorf("unexpected output:\n%s", text)
	}
}

func TestRunCalc_FeesFileOverridesTransport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fees.yaml")
	if err := os.WriteFile(path, []byte("Япония:\n  transport: 0\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	err := runCalc(&out, calcOptions{
		country:  "japan",
		price:    "1000000",
		age:      "3-5 лет",
		engine:   "1500",
		rateRub:  "75.50",
		rateEur:  "0.65",
		feesFile: path,
	})
	if err != nil {
		t.Fatalf("runCalc: %v", err)
	}
	if !strings.Contains(out.String(), "Курс JPY→₽: 0.7550") {
		t.Errorf("rate should be shown per yen:\n%s", out.String())
	}
}

func TestRunCalc_RejectsBadInput(t *testing.T) {
	base := calcOptions{
		country: "Корея",
		price:   "20000000",
		age:     "Старше 5 лет",
		engine:  "2000",
		rateRub: "65",
		rateEur: "0.75",
	}

	tests := []struct {
		name   string
		modify func(*calcOptions)
		want   error
	}{
		{"country", func(o *calcOptions) { o.country = "Германия" }, model.ErrUnknownCountry},
		{"price", func(o *calcOptions) { o.price = "0" }, model.ErrOutOfRange},
		{"age", func(o *calcOptions) { o.age = "новая" }, model.ErrUnknownAgeBracket},
		{"engine", func(o *calcOptions) { o.engine = "2.0" }, model.ErrNotInteger},
		{"rate", func(o *calcOptions) { o.rateEur = "-1" }, model.ErrOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := base
			tt.modify(&opts)
			var out bytes.Buffer
			if err := runCalc(&out, opts); !errors.Is(err, tt.want) {
				t.Errorf("runCalc error = %v, want %v", err, tt.want)
			}
			if out.Len() != 0 {
				t.Error("nothing should be printed on error")
			}
		})
	}
}
