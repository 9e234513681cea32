package domain

import (
	"context"
	"errors"
	"time"
)

// ErrAccountAbsent возвращается, когда аккаунт не создан или буфер короче
// минимальной раскладки. Это не ошибка: функция просто не активирована.
var ErrAccountAbsent = errors.New("account absent")

// ErrPriceUnavailable возвращается оракулом, когда цена недоступна.
var ErrPriceUnavailable = errors.New("price unavailable")

// ErrInvalidRecipient возвращается при некорректном адресе получателя.
var ErrInvalidRecipient = errors.New("invalid recipient address")

// ErrNotEditable возвращается, когда сообщение уже нельзя отредактировать.
var ErrNotEditable = errors.New("message not editable")

// ErrUserNotFound возвращается, когда пользователь не подключён.
var ErrUserNotFound = errors.New("user not found")

// ChainReader читает сырые аккаунты и балансы из внешнего леджера.
type ChainReader interface {
	ReadAccount(ctx context.Context, kind AccountKind, owner string) ([]byte, error)
	OrbBalance(ctx context.Context, owner string) (uint64, error)
}

// SnapshotReader отдаёт уже разобранные снимки аккаунтов. Снимок читается
// заново на каждом тике, никакой идентичности между тиками у него нет.
type SnapshotReader interface {
	AutomationSnapshot(ctx context.Context, owner string) (AutomationSnapshot, error)
	MinerSnapshot(ctx context.Context, owner string) (MinerSnapshot, error)
	StakeSnapshot(ctx context.Context, owner string) (StakeSnapshot, error)
	OrbBalance(ctx context.Context, owner string) (uint64, error)
}

// PriceOracle возвращает текущую цену ORB.
type PriceOracle interface {
	GetPrice(ctx context.Context) (Price, error)
}

// TxBuilder строит инструкции для одного действия. Кодирование инструкций —
// забота внешней программы, здесь они непрозрачны.
type TxBuilder interface {
	BuildClaimSol(owner string, amount uint64) ([]Instruction, error)
	BuildClaimOrb(owner string, amount uint64) ([]Instruction, error)
	BuildClaimStake(owner string, amount uint64) ([]Instruction, error)
	BuildSwap(owner string, amount uint64, slippageBps uint16) ([]Instruction, error)
	BuildStake(owner string, amount uint64) ([]Instruction, error)
	BuildTransfer(owner, recipient string, amount uint64) ([]Instruction, error)
}

// Submitter подписывает и отправляет транзакцию, дожидаясь подтверждения.
type Submitter interface {
	Submit(ctx context.Context, instructions []Instruction, signerHandle string) (string, error)
}

// SettingsRepo управляет настройками автоматизации.
// Get создаёт запись с настройками по умолчанию при первом обращении.
type SettingsRepo interface {
	Get(ctx context.Context, platform Platform, platformID int64) (UserSettings, error)
	Update(ctx context.Context, settings UserSettings) error
	Reset(ctx context.Context, platform Platform, platformID int64) (UserSettings, error)
}

// UserRepo управляет подключёнными пользователями.
type UserRepo interface {
	ListEnrolled(ctx context.Context) ([]User, error)
	GetByPlatformID(ctx context.Context, platform Platform, platformID int64) (User, error)
}

// ActionLog — журнал исполненных действий, только дозапись.
type ActionLog interface {
	Append(ctx context.Context, result ActionResult) error
	ListRecent(ctx context.Context, platform Platform, platformID int64, limit int) ([]ActionResult, error)
}

// Notifier отправляет и редактирует сообщения пользователю.
type Notifier interface {
	Send(ctx context.Context, chatID int64, text string) (MessageHandle, error)
	Edit(ctx context.Context, handle MessageHandle, text string) error
}

// TriggerQueue — очередь задач ручного запуска.
type TriggerQueue interface {
	Enqueue(ctx context.Context, job TriggerJob) error
	Pop(ctx context.Context) (TriggerJob, error)
}

// Cache используется для простых TTL-хранилищ и блокировок.
type Cache interface {
	Set(key string, value []byte, ttl time.Duration) error
	Get(key string) ([]byte, error)
	Lock(key string, ttl time.Duration) (bool, error)
}
