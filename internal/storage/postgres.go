package storage

import (
	"autocalc-bot/internal/config"
	"autocalc-bot/internal/model"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// Cache is the subset of the Redis client the storage needs. Cache
// failures never fail a call, they only cost a round trip to Postgres.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type Options struct {
	Location *time.Location
	CacheTTL time.Duration
}

type PostgresStorage struct {
	db       *sqlx.DB
	cache    Cache
	cacheTTL time.Duration
	loc      *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

type Calculation struct {
	ID           uuid.UUID       `db:"id"`
	ChatID       int64           `db:"chat_id"`
	Country      string          `db:"country"`
	Price        int64           `db:"price"`
	TransportFee int64           `db:"transport_fee"`
	AgeBracket   string          `db:"age_bracket"`
	EngineCC     int64           `db:"engine_cc"`
	RateToRuble  decimal.Decimal `db:"rate_to_rub"`
	RateToEuro   decimal.Decimal `db:"rate_to_eur"`
	DutyEuro     decimal.Decimal `db:"duty_eur"`
	DutyRuble    decimal.Decimal `db:"duty_rub"`
	FeesTotal    int64           `db:"fees_total"`
	GrandTotal   decimal.Decimal `db:"grand_total"`
	CreatedAt    time.Time       `db:"created_at"`
}

// DailyRate is a stored rate row.
type DailyRate struct {
	Date     string          `db:"date"`
	Currency string          `db:"currency"`
	ToRuble  decimal.Decimal `db:"to_rub"`
	ToEuro   decimal.Decimal `db:"to_eur"`
}

func Connect(ctx context.Context, cfg config.Database, logger *zap.Logger) (*sqlx.DB, error) {
	const operation = "storage.Connect"

	var db *sqlx.DB
	var err error

	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.MaxElapsedTime = 2 * time.Minute
	retryPolicy.MaxInterval = 15 * time.Second

	logger.Info("Connecting to PostgreSQL...")

	err = backoff.RetryNotify(
		func() error {
			db, err = sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}

			if err = db.PingContext(ctx); err != nil {
				return fmt.Errorf("ping: %w", err)
			}
			return nil
		},
		backoff.WithContext(retryPolicy, ctx),
		func(err error, duration time.Duration) {
			logger.Warn("PostgreSQL connection failed, retrying...",
				zap.Error(err),
				zap.Duration("next_attempt_in", duration))
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect after retries: %w", operation, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	logger.Info("Successfully connected to PostgreSQL")
	return db, nil
}

func NewPostgresStorage(db *sqlx.DB, cache Cache, opts Options, logger *zap.Logger) *PostgresStorage {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &PostgresStorage{
		db:       db,
		cache:    cache,
		cacheTTL: opts.CacheTTL,
		loc:      loc,
		now:      time.Now,
		logger:   logger,
	}
}

// Today is the calendar date in the storage timezone.
func (s *PostgresStorage) Today() string {
	return s.now().In(s.loc).Format(dateLayout)
}

// SeedDefaultFees inserts the default fees that are not stored yet.
// Existing rows, including admin overrides, are left untouched.
func (s *PostgresStorage) SeedDefaultFees(ctx context.Context, defaults map[model.Country]model.FeeSet) error {
	const operation = "storage.SeedDefaultFees"

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", operation, err)
	}
	defer tx.Rollback()

	const query = `
        INSERT INTO fees (country, name, value)
        VALUES ($1, $2, $3)
        ON CONFLICT (country, name) DO NOTHING
    `

	inserted := 0
	for _, country := range model.Countries {
		set := defaults[country]
		for _, name := range set.Names() {
			res, err := tx.ExecContext(ctx, query, country.String(), name.String(), set[name])
			if err != nil {
				return fmt.Errorf("%s: insert %s/%s: %w", operation, country, name, err)
			}
			if n, err := res.RowsAffected(); err == nil {
				inserted += int(n)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", operation, err)
	}

	s.logger.Info("Default fees seeded", zap.Int("inserted", inserted))
	return nil
}

// GetFee reports whether the fee exists alongside its value.
func (s *PostgresStorage) GetFee(ctx context.Context, country model.Country, name model.FeeName) (int64, bool, error) {
	set, err := s.GetFeeSet(ctx, country)
	if err != nil {
		return 0, false, err
	}
	v, ok := set.Get(name)
	return v, ok, nil
}

func (s *PostgresStorage) GetFeeSet(ctx context.Context, country model.Country) (model.FeeSet, error) {
	cacheKey := feesCacheKey(country)

	var set model.FeeSet
	if s.getCached(ctx, cacheKey, &set) {
		return set, nil
	}

	const query = `SELECT name, value FROM fees WHERE country = $1`

	var rows []struct {
		Name  string `db:"name"`
		Value int64  `db:"value"`
	}
	if err := s.db.SelectContext(ctx, &rows, query, country.String()); err != nil {
		return nil, fmt.Errorf("failed to get fees for %s: %w", country, err)
	}

	set = make(model.FeeSet, len(rows))
	for _, r := range rows {
		set[model.FeeName(r.Name)] = r.Value
	}

	s.setCached(ctx, cacheKey, set)
	return set, nil
}

// SetFee updates an already seeded fee. It reports false when the
// (country, name) row does not exist; nothing is inserted in that case.
func (s *PostgresStorage) SetFee(ctx context.Context, country model.Country, name model.FeeName, value int64) (bool, error) {
	const query = `UPDATE fees SET value = $1, updated_at = NOW() WHERE country = $2 AND name = $3`

	res, err := s.db.ExecContext(ctx, query, value, country.String(), name.String())
	if err != nil {
		return false, fmt.Errorf("failed to update fee %s/%s: %w", country, name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	s.invalidate(ctx, feesCacheKey(country))
	return n > 0, nil
}

// GetTodayRate returns today's per-unit rate; ok is false when no rate was
// stored today.
func (s *PostgresStorage) GetTodayRate(ctx context.Context, currency model.Currency) (model.Rate, bool, error) {
	today := s.Today()
	cacheKey := rateCacheKey(today, currency)

	var rate model.Rate
	if s.getCached(ctx, cacheKey, &rate) {
		return rate, true, nil
	}

	const query = `SELECT to_rub, to_eur FROM rates WHERE date = $1 AND currency = $2`

	var row DailyRate
	err := s.db.GetContext(ctx, &row, query, today, currency.String())
	if errors.Is(err, sql.ErrNoRows) {
		return model.Rate{}, false, nil
	}
	if err != nil {
		return model.Rate{}, false, fmt.Errorf("failed to get rate for %s: %w", currency, err)
	}

	rate = model.Rate{ToRuble: row.ToRuble, ToEuro: row.ToEuro}
	s.setCached(ctx, cacheKey, rate)
	return rate, true, nil
}

// SetTodayRate upserts today's rate; a later write on the same day wins.
func (s *PostgresStorage) SetTodayRate(ctx context.Context, currency model.Currency, rate model.Rate) error {
	if err := rate.Validate(); err != nil {
		return err
	}

	today := s.Today()

	const query = `
        INSERT INTO rates (date, currency, to_rub, to_eur)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (date, currency)
        DO UPDATE SET to_rub = EXCLUDED.to_rub, to_eur = EXCLUDED.to_eur, updated_at = NOW()
    `
	if _, err := s.db.ExecContext(ctx, query, today, currency.String(), rate.ToRuble, rate.ToEuro); err != nil {
		return fmt.Errorf("failed to set rate for %s: %w", currency, err)
	}

	s.invalidate(ctx, rateCacheKey(today, currency))
	return nil
}

// TodayRates lists every currency rate stored today.
func (s *PostgresStorage) TodayRates(ctx context.Context) ([]DailyRate, error) {
	const query = `
        SELECT to_char(date, 'YYYY-MM-DD') AS date, currency, to_rub, to_eur
        FROM rates
        WHERE date = $1
        ORDER BY currency
    `

	var rates []DailyRate
	if err := s.db.SelectContext(ctx, &rates, query, s.Today()); err != nil {
		return nil, fmt.Errorf("failed to list today's rates: %w", err)
	}
	return rates, nil
}

func (s *PostgresStorage) SaveCalculation(ctx context.Context, c Calculation) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}

	const query = `
        INSERT INTO calculations (
            id, chat_id, country, price, transport_fee, age_bracket, engine_cc,
            rate_to_rub, rate_to_eur, duty_eur, duty_rub, fees_total, grand_total, created_at
        ) VALUES (
            :id, :chat_id, :country, :price, :transport_fee, :age_bracket, :engine_cc,
            :rate_to_rub, :rate_to_eur, :duty_eur, :duty_rub, :fees_total, :grand_total, :created_at
        )
    `
	if _, err := s.db.NamedExecContext(ctx, query, c); err != nil {
		return fmt.Errorf("failed to save calculation: %w", err)
	}
	return nil
}

func (s *PostgresStorage) ListCalculations(ctx context.Context, limit int) ([]Calculation, error) {
	const query = `SELECT * FROM calculations ORDER BY created_at DESC LIMIT $1`

	var calcs []Calculation
	if err := s.db.SelectContext(ctx, &calcs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list calculations: %w", err)
	}
	return calcs, nil
}

func (s *PostgresStorage) DB() *sql.DB {
	return s.db.DB
}

func (s *PostgresStorage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func feesCacheKey(country model.Country) string {
	return fmt.Sprintf("fees:%s", country.Currency())
}

func rateCacheKey(date string, currency model.Currency) string {
	return fmt.Sprintf("rate:%s:%s", date, currency)
}
