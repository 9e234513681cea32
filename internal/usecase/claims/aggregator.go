package claims

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tg-miner-bot/internal/domain"
)

// Aggregator склеивает последовательные уведомления о клеймах в одно
// редактируемое сообщение, чтобы не заспамить пользователя микро-клеймами.
// История живёт только в памяти процесса: после рестарта следующий клейм
// просто начнёт новое сообщение, на корректность это не влияет.
type Aggregator struct {
	notify domain.Notifier
	log    zerolog.Logger
	now    func() time.Time

	mu        sync.Mutex
	histories map[string]*history
}

type history struct {
	handle  domain.MessageHandle
	entries []domain.ClaimEntry
}

// NewAggregator создаёт агрегатор. notify может быть nil — тогда
// уведомления молча подавляются.
func NewAggregator(notify domain.Notifier, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		notify:    notify,
		log:       logger,
		now:       time.Now,
		histories: make(map[string]*history),
	}
}

func historyKey(platform domain.Platform, platformID int64) string {
	return fmt.Sprintf("%s:%d", platform, platformID)
}

// Notify добавляет свежую пачку клеймов в сообщение пользователя.
// Существующее сообщение редактируется; если Telegram его уже не отдаёт,
// отправляется новое только со свежими записями — старая история при этом
// теряется, это принятая цена (чисто отображенческий уровень).
func (a *Aggregator) Notify(ctx context.Context, user domain.User, batch []domain.ClaimEntry) error {
	if a.notify == nil || len(batch) == 0 {
		return nil
	}
	fresh := newestFirst(batch)

	a.mu.Lock()
	defer a.mu.Unlock()

	key := historyKey(user.Platform, user.PlatformID)
	current, ok := a.histories[key]
	if !ok {
		handle, err := a.notify.Send(ctx, user.ChatID, render(fresh, a.now()))
		if err != nil {
			return fmt.Errorf("отправка уведомления о клеймах: %w", err)
		}
		a.histories[key] = &history{handle: handle, entries: fresh}
		return nil
	}

	merged := append(append([]domain.ClaimEntry(nil), fresh...), current.entries...)
	err := a.notify.Edit(ctx, current.handle, render(merged, a.now()))
	if errors.Is(err, domain.ErrNotEditable) {
		handle, sendErr := a.notify.Send(ctx, user.ChatID, render(fresh, a.now()))
		if sendErr != nil {
			return fmt.Errorf("повторная отправка уведомления о клеймах: %w", sendErr)
		}
		a.histories[key] = &history{handle: handle, entries: fresh}
		return nil
	}
	if err != nil {
		return fmt.Errorf("редактирование уведомления о клеймах: %w", err)
	}
	current.entries = merged
	return nil
}

func newestFirst(batch []domain.ClaimEntry) []domain.ClaimEntry {
	out := make([]domain.ClaimEntry, len(batch))
	for i, e := range batch {
		out[len(batch)-1-i] = e
	}
	return out
}
