package automation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tg-miner-bot/internal/domain"
	"tg-miner-bot/internal/infra/metrics"
	"tg-miner-bot/internal/usecase/claims"
	"tg-miner-bot/internal/usecase/executor"
)

// Class — класс автоматического действия со своим независимым циклом.
type Class string

const (
	ClassClaim    Class = "claim"
	ClassSwap     Class = "swap"
	ClassStake    Class = "stake"
	ClassTransfer Class = "transfer"
)

// classOrder — порядок классов; он же порядок ручного прогона.
var classOrder = []Class{ClassClaim, ClassSwap, ClassStake, ClassTransfer}

// Config задаёт периоды циклов и паузу между пользователями.
type Config struct {
	ClaimInterval    time.Duration
	SwapInterval     time.Duration
	StakeInterval    time.Duration
	TransferInterval time.Duration
	UserPause        time.Duration
}

// Engine владеет четырьмя циклами автоматизации. Внутри одного прохода
// пользователи обрабатываются строго последовательно с паузой — так мы
// не упираемся в лимиты RPC. Циклы разных классов работают независимо.
type Engine struct {
	cfg      Config
	users    domain.UserRepo
	settings domain.SettingsRepo
	reader   domain.SnapshotReader
	oracle   domain.PriceOracle
	exec     *executor.Service
	claims   *claims.Aggregator
	notify   domain.Notifier
	log      zerolog.Logger

	states map[Class]*loopState
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type loopState struct {
	mu        sync.Mutex
	running   bool
	lastPass  time.Time
	lastUsers int
}

func (s *loopState) begin() {
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()
}

func (s *loopState) finish(users int) {
	s.mu.Lock()
	s.running = false
	s.lastPass = time.Now().UTC()
	s.lastUsers = users
	s.mu.Unlock()
}

// NewEngine собирает движок. notify может быть nil: тогда пользовательские
// уведомления подавляются, обработка при этом идёт как обычно.
func NewEngine(
	cfg Config,
	users domain.UserRepo,
	settings domain.SettingsRepo,
	reader domain.SnapshotReader,
	oracle domain.PriceOracle,
	exec *executor.Service,
	aggregator *claims.Aggregator,
	notify domain.Notifier,
	logger zerolog.Logger,
) *Engine {
	states := make(map[Class]*loopState, len(classOrder))
	for _, class := range classOrder {
		states[class] = &loopState{}
	}
	return &Engine{
		cfg:      cfg,
		users:    users,
		settings: settings,
		reader:   reader,
		oracle:   oracle,
		exec:     exec,
		claims:   aggregator,
		notify:   notify,
		log:      logger,
		states:   states,
	}
}

// Start запускает циклы. Каждый класс стартует со своей задержкой, чтобы
// циклы не толкались на старте процесса.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	intervals := map[Class]time.Duration{
		ClassClaim:    e.cfg.ClaimInterval,
		ClassSwap:     e.cfg.SwapInterval,
		ClassStake:    e.cfg.StakeInterval,
		ClassTransfer: e.cfg.TransferInterval,
	}
	for i, class := range classOrder {
		delay := time.Duration(i+1) * 15 * time.Second
		e.wg.Add(1)
		go e.runLoop(ctx, class, intervals[class], delay)
	}
}

// Stop останавливает все циклы. Идущий проход доделывает текущего
// пользователя и выходит, не начиная следующего.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
	e.wg.Wait()
}

func (e *Engine) runLoop(ctx context.Context, class Class, interval, delay time.Duration) {
	defer e.wg.Done()

	select {
	case <-ctx.Done():
		return
	case <-time.After(delay):
	}
	e.runPass(ctx, class)

	// Тикер читается тем же горутином, что и исполняет проход: тик,
	// пришедший во время прохода, просто поглощается, очереди нет.
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.runPass(ctx, class)
		}
	}
}

func (e *Engine) runPass(ctx context.Context, class Class) {
	state := e.states[class]
	state.begin()
	start := time.Now()
	processed := 0
	defer func() {
		metrics.LoopPassSeconds.WithLabelValues(string(class)).Observe(time.Since(start).Seconds())
		state.finish(processed)
	}()

	users, err := e.users.ListEnrolled(ctx)
	if err != nil {
		e.log.Error().Err(err).Str("class", string(class)).Msg("engine: ошибка выборки пользователей")
		return
	}

	for i, user := range users {
		if ctx.Err() != nil {
			return
		}
		e.processUserSafe(ctx, class, user)
		processed++
		metrics.LoopUsersProcessed.WithLabelValues(string(class)).Inc()
		if i < len(users)-1 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(e.cfg.UserPause):
			}
		}
	}
}

// processUserSafe изолирует сбой одного пользователя: ни ошибка, ни паника
// не должны сорвать проход по остальным.
func (e *Engine) processUserSafe(ctx context.Context, class Class, user domain.User) {
	defer func() {
		if r := recover(); r != nil {
			metrics.LoopUserErrors.WithLabelValues(string(class)).Inc()
			e.log.Error().
				Str("class", string(class)).
				Int64("user", user.PlatformID).
				Interface("panic", r).
				Msg("engine: паника при обработке пользователя")
		}
	}()
	if err := e.processUser(ctx, class, user); err != nil {
		metrics.LoopUserErrors.WithLabelValues(string(class)).Inc()
		e.log.Error().Err(err).
			Str("class", string(class)).
			Int64("user", user.PlatformID).
			Msg("engine: не удалось обработать пользователя")
	}
}

func (e *Engine) processUser(ctx context.Context, class Class, user domain.User) error {
	settings, err := e.settings.Get(ctx, user.Platform, user.PlatformID)
	if err != nil {
		return fmt.Errorf("настройки: %w", err)
	}
	if class == ClassClaim {
		return e.processClaims(ctx, user, settings)
	}
	return e.processBalanceClass(ctx, class, user, settings)
}

// TriggerUser синхронно прогоняет полный пайплайн для одного пользователя.
// Используется для диагностики и не трогает состояние циклов.
func (e *Engine) TriggerUser(ctx context.Context, platform domain.Platform, platformID int64) error {
	user, err := e.users.GetByPlatformID(ctx, platform, platformID)
	if err != nil {
		return fmt.Errorf("поиск пользователя: %w", err)
	}
	var errs []error
	for _, class := range classOrder {
		if err := e.processUser(ctx, class, user); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", class, err))
		}
	}
	if err := e.sendAutomationStatus(ctx, user); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ClassStatus — диагностическое состояние одного цикла.
type ClassStatus struct {
	State         string    `json:"state"`
	LastPass      time.Time `json:"last_pass,omitzero"`
	LastPassUsers int       `json:"last_pass_users"`
}

// Status возвращает состояние всех циклов.
func (e *Engine) Status() any {
	out := make(map[string]ClassStatus, len(e.states))
	for class, state := range e.states {
		state.mu.Lock()
		st := ClassStatus{State: "idle", LastPass: state.lastPass, LastPassUsers: state.lastUsers}
		if state.running {
			st.State = "running"
		}
		state.mu.Unlock()
		out[string(class)] = st
	}
	return out
}

// RunTriggerConsumer читает задачи ручного запуска из очереди до отмены
// контекста.
func (e *Engine) RunTriggerConsumer(ctx context.Context, queue domain.TriggerQueue) {
	for {
		job, err := queue.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			e.log.Error().Err(err).Msg("engine: ошибка чтения очереди запусков")
			continue
		}
		if err := e.TriggerUser(ctx, job.Platform, job.PlatformID); err != nil {
			e.log.Error().Err(err).
				Int64("user", job.PlatformID).
				Msg("engine: ручной запуск завершился с ошибкой")
		}
	}
}
