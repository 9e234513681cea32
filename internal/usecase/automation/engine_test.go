package automation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tg-miner-bot/internal/adapters/chain"
	"tg-miner-bot/internal/domain"
	"tg-miner-bot/internal/usecase/claims"
	"tg-miner-bot/internal/usecase/executor"
)

const testWallet = "11111111111111111111111111111111"

type fakeUsers struct {
	users []domain.User
}

func (f *fakeUsers) ListEnrolled(ctx context.Context) ([]domain.User, error) {
	return f.users, nil
}

func (f *fakeUsers) GetByPlatformID(ctx context.Context, platform domain.Platform, platformID int64) (domain.User, error) {
	for _, u := range f.users {
		if u.Platform == platform && u.PlatformID == platformID {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

type fakeSettings struct {
	byUser map[int64]domain.UserSettings
}

func (f *fakeSettings) Get(ctx context.Context, platform domain.Platform, platformID int64) (domain.UserSettings, error) {
	s, ok := f.byUser[platformID]
	if !ok {
		return domain.UserSettings{Platform: platform, PlatformID: platformID}, nil
	}
	return s, nil
}

func (f *fakeSettings) Update(ctx context.Context, s domain.UserSettings) error { return nil }

func (f *fakeSettings) Reset(ctx context.Context, platform domain.Platform, platformID int64) (domain.UserSettings, error) {
	return domain.UserSettings{Platform: platform, PlatformID: platformID}, nil
}

type fakeReader struct {
	rewardsByWallet map[string]domain.Rewards
	orbByWallet     map[string]uint64
	automation      map[string]domain.AutomationSnapshot
	failWallets     map[string]error
}

func (f *fakeReader) AutomationSnapshot(ctx context.Context, owner string) (domain.AutomationSnapshot, error) {
	s, ok := f.automation[owner]
	if !ok {
		return domain.AutomationSnapshot{}, domain.ErrAccountAbsent
	}
	return s, nil
}

func (f *fakeReader) MinerSnapshot(ctx context.Context, owner string) (domain.MinerSnapshot, error) {
	if err, ok := f.failWallets[owner]; ok {
		return domain.MinerSnapshot{}, err
	}
	r, ok := f.rewardsByWallet[owner]
	if !ok {
		return domain.MinerSnapshot{}, domain.ErrAccountAbsent
	}
	return domain.MinerSnapshot{RewardsSolLamports: r.MiningSol, RewardsOrbLamports: r.MiningOrb}, nil
}

func (f *fakeReader) StakeSnapshot(ctx context.Context, owner string) (domain.StakeSnapshot, error) {
	r, ok := f.rewardsByWallet[owner]
	if !ok {
		return domain.StakeSnapshot{}, domain.ErrAccountAbsent
	}
	return domain.StakeSnapshot{RewardsOrbLamports: r.StakingOrb}, nil
}

func (f *fakeReader) OrbBalance(ctx context.Context, owner string) (uint64, error) {
	return f.orbByWallet[owner], nil
}

type fakeOracle struct {
	price domain.Price
	err   error
}

func (f *fakeOracle) GetPrice(ctx context.Context) (domain.Price, error) {
	if f.err != nil {
		return domain.Price{}, f.err
	}
	return f.price, nil
}

type fakeSubmitter struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeSubmitter) Submit(ctx context.Context, instructions []domain.Instruction, signerHandle string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, signerHandle)
	return "sig", nil
}

type fakeJournal struct {
	mu      sync.Mutex
	results []domain.ActionResult
}

func (f *fakeJournal) Append(ctx context.Context, r domain.ActionResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, r)
	return nil
}

func (f *fakeJournal) ListRecent(ctx context.Context, platform domain.Platform, platformID int64, limit int) ([]domain.ActionResult, error) {
	return f.results, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeNotifier) Send(ctx context.Context, chatID int64, text string) (domain.MessageHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return domain.MessageHandle{ChatID: chatID, MessageID: len(f.sent)}, nil
}

func (f *fakeNotifier) Edit(ctx context.Context, handle domain.MessageHandle, text string) error {
	return nil
}

type engineFixture struct {
	engine   *Engine
	journal  *fakeJournal
	notifier *fakeNotifier
	submit   *fakeSubmitter
}

func newEngineFixture(users *fakeUsers, settings *fakeSettings, reader *fakeReader, oracle *fakeOracle) *engineFixture {
	submit := &fakeSubmitter{}
	journal := &fakeJournal{}
	notifier := &fakeNotifier{}
	exec := executor.NewService(chain.NewBuilder("prog"), submit, journal, zerolog.Nop())
	agg := claims.NewAggregator(notifier, zerolog.Nop())
	cfg := Config{
		ClaimInterval:    time.Hour,
		SwapInterval:     time.Hour,
		StakeInterval:    time.Hour,
		TransferInterval: time.Hour,
		UserPause:        time.Millisecond,
	}
	engine := NewEngine(cfg, users, settings, reader, oracle, exec, agg, notifier, zerolog.Nop())
	return &engineFixture{engine: engine, journal: journal, notifier: notifier, submit: submit}
}

func enrolledUser(id int64, wallet string) domain.User {
	return domain.User{
		Platform:     domain.PlatformTelegram,
		PlatformID:   id,
		ChatID:       id * 10,
		Wallet:       wallet,
		SignerHandle: "signer",
	}
}

func TestClaimPassExecutesDueClaimsAndAggregates(t *testing.T) {
	users := &fakeUsers{users: []domain.User{enrolledUser(1, testWallet)}}
	settings := &fakeSettings{byUser: map[int64]domain.UserSettings{
		1: {ClaimSolThreshold: 100, ClaimOrbThreshold: 100},
	}}
	reader := &fakeReader{rewardsByWallet: map[string]domain.Rewards{
		testWallet: {MiningSol: 500, MiningOrb: 50},
	}}
	fx := newEngineFixture(users, settings, reader, &fakeOracle{})

	fx.engine.runPass(context.Background(), ClassClaim)

	if len(fx.journal.results) != 1 {
		t.Fatalf("созрел только клейм SOL, записей в журнале %d", len(fx.journal.results))
	}
	if fx.journal.results[0].Kind != domain.ActionClaimSol {
		t.Fatalf("ожидали клейм SOL, получили %s", fx.journal.results[0].Kind)
	}
	if len(fx.notifier.sent) != 1 || !strings.Contains(fx.notifier.sent[0], "SOL") {
		t.Fatalf("ожидали одно агрегированное уведомление, получили %v", fx.notifier.sent)
	}
}

func TestPassContinuesAfterUserFailure(t *testing.T) {
	goodWallet := "22222222222222222222222222222222222222222222"
	users := &fakeUsers{users: []domain.User{
		enrolledUser(1, "broken"),
		enrolledUser(2, goodWallet),
	}}
	settings := &fakeSettings{byUser: map[int64]domain.UserSettings{
		1: {ClaimSolThreshold: 100},
		2: {ClaimSolThreshold: 100},
	}}
	reader := &fakeReader{
		rewardsByWallet: map[string]domain.Rewards{goodWallet: {MiningSol: 500}},
		failWallets:     map[string]error{"broken": errors.New("rpc down")},
	}
	fx := newEngineFixture(users, settings, reader, &fakeOracle{})

	fx.engine.runPass(context.Background(), ClassClaim)

	if len(fx.journal.results) != 1 || fx.journal.results[0].PlatformID != 2 {
		t.Fatalf("сбой первого пользователя не должен срывать проход: %+v", fx.journal.results)
	}
}

func TestSwapPassSuppressedWithoutPrice(t *testing.T) {
	users := &fakeUsers{users: []domain.User{enrolledUser(1, testWallet)}}
	settings := &fakeSettings{byUser: map[int64]domain.UserSettings{
		1: {SwapEnabled: true, SwapThreshold: 100, MinSwapAmount: 1, MinOrbPriceUSD: 10},
	}}
	reader := &fakeReader{orbByWallet: map[string]uint64{testWallet: 500}}
	oracle := &fakeOracle{err: domain.ErrPriceUnavailable}
	fx := newEngineFixture(users, settings, reader, oracle)

	fx.engine.runPass(context.Background(), ClassSwap)

	if len(fx.submit.calls) != 0 {
		t.Fatalf("swap без цены должен подавляться, отправок %d", len(fx.submit.calls))
	}

	oracle.err = nil
	oracle.price = domain.Price{USD: 20}
	fx.engine.runPass(context.Background(), ClassSwap)

	if len(fx.submit.calls) != 1 {
		t.Fatalf("swap с достаточной ценой должен пройти, отправок %d", len(fx.submit.calls))
	}
}

func TestTriggerUserRunsFullPipeline(t *testing.T) {
	users := &fakeUsers{users: []domain.User{enrolledUser(7, testWallet)}}
	settings := &fakeSettings{byUser: map[int64]domain.UserSettings{
		7: {
			ClaimSolThreshold: 100,
			SwapEnabled:       true,
			SwapThreshold:     100,
			MinSwapAmount:     1,
		},
	}}
	reader := &fakeReader{
		rewardsByWallet: map[string]domain.Rewards{testWallet: {MiningSol: 200}},
		orbByWallet:     map[string]uint64{testWallet: 300},
		automation: map[string]domain.AutomationSnapshot{
			testWallet: {AmountPerSquareLamports: 10_000_000, BalanceLamports: 500_000_000, SquareMask: 0b11111},
		},
	}
	fx := newEngineFixture(users, settings, reader, &fakeOracle{price: domain.Price{USD: 5}})

	if err := fx.engine.TriggerUser(context.Background(), domain.PlatformTelegram, 7); err != nil {
		t.Fatalf("ручной запуск: %v", err)
	}

	kinds := make(map[domain.ActionKind]bool)
	for _, r := range fx.journal.results {
		kinds[r.Kind] = true
	}
	if !kinds[domain.ActionClaimSol] || !kinds[domain.ActionSwap] {
		t.Fatalf("ручной запуск должен прогнать все классы, получили %+v", fx.journal.results)
	}

	var status string
	for _, msg := range fx.notifier.sent {
		if strings.Contains(msg, "Автоматизация") {
			status = msg
		}
	}
	if status == "" {
		t.Fatalf("ручной запуск должен прислать сводку автоматизации, сообщения: %v", fx.notifier.sent)
	}
	mustContain(t, status, "Клеток: 5")
	mustContain(t, status, "Стоимость раунда: 0.05 SOL")
	mustContain(t, status, "~10 раундов")
}

func TestStopFinishesCurrentUserOnly(t *testing.T) {
	goodWallet := "22222222222222222222222222222222222222222222"
	users := &fakeUsers{users: []domain.User{
		enrolledUser(1, testWallet),
		enrolledUser(2, goodWallet),
	}}
	settings := &fakeSettings{byUser: map[int64]domain.UserSettings{
		1: {ClaimSolThreshold: 100},
		2: {ClaimSolThreshold: 100},
	}}
	reader := &fakeReader{rewardsByWallet: map[string]domain.Rewards{
		testWallet: {MiningSol: 500},
		goodWallet: {MiningSol: 500},
	}}
	fx := newEngineFixture(users, settings, reader, &fakeOracle{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fx.engine.runPass(ctx, ClassClaim)

	if len(fx.journal.results) != 0 {
		t.Fatalf("отменённый контекст должен останавливать проход до первого пользователя: %+v", fx.journal.results)
	}
}

func mustContain(t *testing.T, s, substr string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Fatalf("ожидали найти подстроку %q в %q", substr, s)
	}
}
