package storage

import (
	"autocalc-bot/internal/model"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	sheetCalculations = "Расчёты"
	sheetRates        = "Курсы"
	sheetFees         = "Сборы"
)

type Report struct {
	GeneratedAt  time.Time
	Calculations []Calculation
	Rates        []DailyRate
	Fees         map[model.Country]model.FeeSet
}

// BuildReport gathers the latest calculations, today's rates and the
// current fee table.
func (s *PostgresStorage) BuildReport(ctx context.Context, limit int) (Report, error) {
	calcs, err := s.ListCalculations(ctx, limit)
	if err != nil {
		return Report{}, err
	}

	rates, err := s.TodayRates(ctx)
	if err != nil {
		return Report{}, err
	}

	fees := make(map[model.Country]model.FeeSet, len(model.Countries))
	for _, c := range model.Countries {
		set, err := s.GetFeeSet(ctx, c)
		if err != nil {
			return Report{}, err
		}
		fees[c] = set
	}

	return Report{
		GeneratedAt:  s.now().In(s.loc),
		Calculations: calcs,
		Rates:        rates,
		Fees:         fees,
	}, nil
}

// WriteReport saves the report as an .xlsx workbook in dir and returns its path.
func WriteReport(r Report, dir string) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetCalculations); err != nil {
		return "", fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(sheetRates); err != nil {
		return "", fmt.Errorf("failed to create sheet: %w", err)
	}
	if _, err := f.NewSheet(sheetFees); err != nil {
		return "", fmt.Errorf("failed to create sheet: %w", err)
	}

	// Заголовки
	calcHeaders := []any{
		"ID", "Chat ID", "Страна", "Цена", "Транспорт", "Возраст", "Объём, см³",
		"Курс → ₽", "Курс → EUR", "Пошлина, EUR", "Пошлина, ₽", "Сборы, ₽", "Итого, ₽", "Дата",
	}
	if err := writeRow(f, sheetCalculations, 1, calcHeaders); err != nil {
		return "", err
	}

	// Данные
	for i, c := range r.Calculations {
		row := []any{
			c.ID.String(),
			c.ChatID,
			c.Country,
			c.Price,
			c.TransportFee,
			c.AgeBracket,
			c.EngineCC,
			c.RateToRuble.InexactFloat64(),
			c.RateToEuro.InexactFloat64(),
			c.DutyEuro.Round(2).InexactFloat64(),
			c.DutyRuble.Round(2).InexactFloat64(),
			c.FeesTotal,
			c.GrandTotal.Round(2).InexactFloat64(),
			c.CreatedAt.Format("2006-01-02 15:04"),
		}
		if err := writeRow(f, sheetCalculations, i+2, row); err != nil {
			return "", err
		}
	}

	if err := writeRow(f, sheetRates, 1, []any{"Дата", "Валюта", "→ ₽ за 1", "→ EUR за 1"}); err != nil {
		return "", err
	}
	for i, rate := range r.Rates {
		row := []any{rate.Date, rate.Currency, rate.ToRuble.InexactFloat64(), rate.ToEuro.InexactFloat64()}
		if err := writeRow(f, sheetRates, i+2, row); err != nil {
			return "", err
		}
	}

	if err := writeRow(f, sheetFees, 1, []any{"Страна", "Сбор", "Сумма, ₽"}); err != nil {
		return "", err
	}
	rowNum := 2
	for _, country := range model.Countries {
		set := r.Fees[country]
		for _, name := range set.Names() {
			if err := writeRow(f, sheetFees, rowNum, []any{country.String(), name.String(), set[name]}); err != nil {
				return "", err
			}
			rowNum++
		}
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		_ = f.SetRowStyle(sheetCalculations, 1, 1, style)
		_ = f.SetRowStyle(sheetRates, 1, 1, style)
		_ = f.SetRowStyle(sheetFees, 1, 1, style)
	}

	f.SetActiveSheet(0)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create reports directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("report_%s.xlsx", r.GeneratedAt.Format("20060102_150405")))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save Excel file: %w", err)
	}
	return path, nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}
