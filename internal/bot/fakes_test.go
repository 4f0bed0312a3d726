package bot

import (
	"autocalc-bot/internal/model"
	"autocalc-bot/internal/storage"
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type fakeAPI struct {
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	updates  chan tgbotapi.Update
	onSend   func(tgbotapi.Chattable)
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.onSend != nil {
		f.onSend(c)
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {}

// texts returns the text of every message sent so far.
func (f *fakeAPI) texts() []string {
	var out []string
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m.Text)
		}
	}
	return out
}

// textsTo returns the texts of messages sent to chatID.
func (f *fakeAPI) textsTo(chatID int64) []string {
	var out []string
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok && m.ChatID == chatID {
			out = append(out, m.Text)
		}
	}
	return out
}

func (f *fakeAPI) lastText() string {
	texts := f.texts()
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

type fakeSessions struct {
	data map[int64]Session
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{data: make(map[int64]Session)}
}

func (f *fakeSessions) Get(ctx context.Context, chatID int64) (Session, bool, error) {
	s, ok := f.data[chatID]
	return s, ok, nil
}

func (f *fakeSessions) Save(ctx context.Context, chatID int64, s Session) error {
	f.data[chatID] = s
	return nil
}

func (f *fakeSessions) Clear(ctx context.Context, chatID int64) error {
	delete(f.data, chatID)
	return nil
}

type fakeStore struct {
	fees         map[model.Country]model.FeeSet
	rates        map[model.Currency]model.Rate
	calculations []storage.Calculation
	rateWrites   int
	feeWrites    int
	saveErr      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		fees:  model.DefaultFees(),
		rates: make(map[model.Currency]model.Rate),
	}
}

func (f *fakeStore) GetFee(ctx context.Context, country model.Country, name model.FeeName) (int64, bool, error) {
	v, ok := f.fees[country].Get(name)
	return v, ok, nil
}

func (f *fakeStore) GetFeeSet(ctx context.Context, country model.Country) (model.FeeSet, error) {
	return f.fees[country].Clone(), nil
}

func (f *fakeStore) SetFee(ctx context.Context, country model.Country, name model.FeeName, value int64) (bool, error) {
	set, ok := f.fees[country]
	if !ok {
		return false, nil
	}
	if _, ok := set[name]; !ok {
		return false, nil
	}
	set[name] = value
	f.feeWrites++
	return true, nil
}

func (f *fakeStore) GetTodayRate(ctx context.Context, currency model.Currency) (model.Rate, bool, error) {
	r, ok := f.rates[currency]
	return r, ok, nil
}

func (f *fakeStore) SetTodayRate(ctx context.Context, currency model.Currency, rate model.Rate) error {
	if err := rate.Validate(); err != nil {
		return err
	}
	f.rates[currency] = rate
	f.rateWrites++
	return nil
}

func (f *fakeStore) SaveCalculation(ctx context.Context, c storage.Calculation) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.calculations = append(f.calculations, c)
	return nil
}

func (f *fakeStore) BuildReport(ctx context.Context, limit int) (storage.Report, error) {
	if len(f.calculations) > limit {
		return storage.Report{}, errors.New("limit exceeded")
	}
	return storage.Report{Calculations: f.calculations, Fees: f.fees}, nil
}

const (
	testChatID     int64 = 1001
	testAdminID    int64 = 42
	testOtherAdmin int64 = 43
)

type testBot struct {
	*Bot
	api      *fakeAPI
	sessions *fakeSessions
	store    *fakeStore
}

func newTestBot(t *testing.T) *testBot {
	t.Helper()
	api := &fakeAPI{}
	sessions := newFakeSessions()
	store := newFakeStore()
	b := newBot(api, sessions, store, Options{
		AdminIDs:   []int64{testAdminID, testOtherAdmin},
		ReportsDir: t.TempDir(),
	}, zap.NewNop())
	return &testBot{Bot: b, api: api, sessions: sessions, store: store}
}

// say delivers text from chatID the way Telegram would, marking a leading
// /command with a bot_command entity.
func (tb *testBot) say(chatID int64, text string) {
	msg := &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: chatID},
		From: &tgbotapi.User{ID: chatID},
		Text: text,
	}
	if strings.HasPrefix(text, "/") {
		cmd := strings.Fields(text)[0]
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	}
	tb.processMessage(context.Background(), msg)
}
