package storage

import (
	"autocalc-bot/internal/model"
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

func newMockStorage(t *testing.T, cache Cache, now time.Time) (*PostgresStorage, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	s := newTestStorage(t, cache, now)
	s.db = sqlx.NewDb(db, "postgres")
	return s, mock
}

func TestSetFee_UpdatesOnlyExistingRows(t *testing.T) {
	cache := newFakeCache()
	s, mock := newMockStorage(t, cache, time.Now())

	mock.ExpectExec(`UPDATE fees SET value = \$1, updated_at = NOW\(\) WHERE country = \$2 AND name = \$3`).
		WithArgs(int64(80000), "Япония", "broker").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE fees SET value`).
		WithArgs(int64(1), "Китай", "transfer").
		WillReturnResult(sqlmock.NewResult(0, 0))

	found, err := s.SetFee(context.Background(), model.Japan, model.FeeBroker, 80000)
	if err != nil || !found {
		t.Errorf("SetFee(existing) = %v, %v", found, err)
	}

	found, err = s.SetFee(context.Background(), model.China, model.FeeTransfer, 1)
	if err != nil || found {
		t.Errorf("SetFee(missing) = %v, %v; want not found", found, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected statements: %v", err)
	}
	if len(cache.dels) != 2 || cache.dels[0] != feesCacheKey(model.Japan) {
		t.Errorf("cache invalidations = %v", cache.dels)
	}
}

func TestSetTodayRate_UpsertsSameDay(t *testing.T) {
	cache := newFakeCache()
	// 03:00 UTC is 13:00 in Vladivostok, same calendar day.
	s, mock := newMockStorage(t, cache, time.Date(2026, 10, 17, 3, 0, 0, 0, time.UTC))

	upsert := `INSERT INTO rates \(date, currency, to_rub, to_eur\) VALUES \(\$1, \$2, \$3, \$4\) ` +
		`ON CONFLICT \(date, currency\) DO UPDATE SET to_rub = EXCLUDED\.to_rub, to_eur = EXCLUDED\.to_eur`
	for i := 0; i < 2; i++ {
		mock.ExpectExec(upsert).
			WithArgs("2026-10-17", "CNY", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}

	ctx := context.Background()
	first := model.Rate{ToRuble: decimal.RequireFromString("11.05"), ToEuro: decimal.RequireFromString("0.13")}
	second := model.Rate{ToRuble: decimal.RequireFromString("11.10"), ToEuro: decimal.RequireFromString("0.13")}
	if err := s.SetTodayRate(ctx, model.CNY, first); err != nil {
		t.Fatalf("first SetTodayRate: %v", err)
	}
	if err := s.SetTodayRate(ctx, model.CNY, second); err != nil {
		t.Fatalf("second SetTodayRate: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected statements: %v", err)
	}
	key := rateCacheKey("2026-10-17", model.CNY)
	if len(cache.dels) != 2 || cache.dels[1] != key {
		t.Errorf("cache invalidations = %v, want %s twice", cache.dels, key)
	}
}

func TestGetTodayRate_FromDatabase(t *testing.T) {
	cache := newFakeCache()
	s, mock := newMockStorage(t, cache, time.Date(2026, 10, 17, 3, 0, 0, 0, time.UTC))

	mock.ExpectQuery(`SELECT to_rub, to_eur FROM rates WHERE date = \$1 AND currency = \$2`).
		WithArgs("2026-10-17", "CNY").
		WillReturnRows(sqlmock.NewRows([]string{"to_rub", "to_eur"}))
	mock.ExpectQuery(`SELECT to_rub, to_eur FROM rates`).
		WithArgs("2026-10-17", "JPY").
		WillReturnRows(sqlmock.NewRows([]string{"to_rub", "to_eur"}).AddRow("0.755", "0.0065"))

	ctx := context.Background()
	if _, ok, err := s.GetTodayRate(ctx, model.CNY); err != nil || ok {
		t.Errorf("GetTodayRate(CNY) ok = %v, err = %v; want absent", ok, err)
	}

	rate, ok, err := s.GetTodayRate(ctx, model.JPY)
	if err != nil || !ok {
		t.Fatalf("GetTodayRate(JPY) ok = %v, err = %v", ok, err)
	}
	if !rate.ToRuble.Equal(decimal.RequireFromString("0.755")) || !rate.ToEuro.Equal(decimal.RequireFromString("0.0065")) {
		t.Errorf("rate = %+v", rate)
	}
	if _, ok := cache.data[rateCacheKey("2026-10-17", model.JPY)]; !ok {
		t.Error("rate should be cached after a database read")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected statements: %v", err)
	}
}

func TestSeedDefaultFees_KeepsExistingRows(t *testing.T) {
	s, mock := newMockStorage(t, nil, time.Now())
	defaults := model.DefaultFees()

	mock.ExpectBegin()
	for _, country := range model.Countries {
		set := defaults[country]
		for _, name := range set.Names() {
			// Only China's broker is already stored.
			var affected int64 = 1
			if country == model.China && name == model.FeeBroker {
				affected = 0
			}
			mock.ExpectExec(`INSERT INTO fees \(country, name, value\) VALUES \(\$1, \$2, \$3\) ON CONFLICT \(country, name\) DO NOTHING`).
				WithArgs(country.String(), name.String(), set[name]).
				WillReturnResult(sqlmock.NewResult(0, affected))
		}
	}
	mock.ExpectCommit()

	if err := s.SeedDefaultFees(context.Background(), defaults); err != nil {
		t.Fatalf("SeedDefaultFees: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected statements: %v", err)
	}
}

func TestGetFeeSet_FromDatabase(t *testing.T) {
	cache := newFakeCache()
	s, mock := newMockStorage(t, cache, time.Now())

	mock.ExpectQuery(`SELECT name, value FROM fees WHERE country = \$1`).
		WithArgs("Корея").
		WillReturnRows(sqlmock.NewRows([]string{"name", "value"}).
			AddRow("broker", int64(0)).
			AddRow("transport", int64(1800000)))

	set, err := s.GetFeeSet(context.Background(), model.Korea)
	if err != nil {
		t.Fatalf("GetFeeSet: %v", err)
	}
	if v, ok := set.Get(model.FeeBroker); !ok || v != 0 {
		t.Errorf("broker = %d, %v; want configured zero", v, ok)
	}
	if _, ok := set.Get(model.FeeAgent); ok {
		t.Error("agent is not stored and must be absent")
	}
	if _, ok := cache.data[feesCacheKey(model.Korea)]; !ok {
		t.Error("fee set should be cached after a database read")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected statements: %v", err)
	}
}

func TestListCalculations_MapsColumns(t *testing.T) {
	s, mock := newMockStorage(t, nil, time.Now())
	id := uuid.New()
	created := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

	columns := []string{
		"id", "chat_id", "country", "price", "transport_fee", "age_bracket", "engine_cc",
		"rate_to_rub", "rate_to_eur", "duty_eur", "duty_rub", "fees_total", "grand_total", "created_at",
	}
	mock.ExpectQuery(`SELECT \* FROM calculations ORDER BY created_at DESC LIMIT \$1`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			id.String(), int64(1001), "Китай", int64(150000), int64(15000), "До 3 лет", int64(1800),
			"11.05", "0.13", "9900", "841500", int64(188400), "2853150", created,
		))

	calcs, err := s.ListCalculations(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListCalculations: %v", err)
	}
	if len(calcs) != 1 {
		t.Fatalf("calculations = %d, want 1", len(calcs))
	}
	c := calcs[0]
	if c.ID != id || c.ChatID != 1001 || c.Country != "Китай" || c.EngineCC != 1800 || c.FeesTotal != 188400 {
		t.Errorf("unexpected row %+v", c)
	}
	if !c.GrandTotal.Equal(decimal.NewFromInt(2853150)) || !c.RateToRuble.Equal(decimal.RequireFromString("11.05")) {
		t.Errorf("decimal columns = %s, %s", c.GrandTotal, c.RateToRuble)
	}
	if !c.CreatedAt.Equal(created) {
		t.Errorf("created_at = %s", c.CreatedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected statements: %v", err)
	}
}
