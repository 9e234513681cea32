package domain

import (
	"math/bits"
	"time"
)

// Platform обозначает чат-платформу, через которую пришёл пользователь.
type Platform string

// PlatformTelegram — единственная поддерживаемая платформа на сегодня.
const PlatformTelegram Platform = "telegram"

// User описывает подключённого к автоматизации пользователя.
type User struct {
	ID           int64
	Platform     Platform
	PlatformID   int64
	ChatID       int64
	Wallet       string
	SignerHandle string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserSettings хранит пороги и флаги автоматизации одного пользователя.
// Все суммы — в ламподах (наименьшая единица), пороги со значением 0 выключены.
type UserSettings struct {
	Platform   Platform
	PlatformID int64

	ClaimSolThreshold   uint64
	ClaimOrbThreshold   uint64
	ClaimStakeThreshold uint64

	SwapEnabled    bool
	SwapThreshold  uint64
	MinSwapAmount  uint64
	MinOrbToKeep   uint64
	MinOrbPriceUSD float64
	SlippageBps    uint16

	StakeEnabled   bool
	StakeThreshold uint64

	TransferEnabled   bool
	TransferThreshold uint64
	TransferRecipient string

	UpdatedAt time.Time
}

// AccountKind различает типы он-чейн аккаунтов, которые читает движок.
type AccountKind string

const (
	AccountAutomation AccountKind = "automation"
	AccountMiner      AccountKind = "miner"
	AccountStake      AccountKind = "stake"
)

// AutomationSnapshot — расшифрованное состояние аккаунта автоматизации.
type AutomationSnapshot struct {
	AmountPerSquareLamports uint64
	BalanceLamports         uint64
	SquareMask              uint64
}

// SelectedSquares возвращает количество занятых клеток по маске.
func (s AutomationSnapshot) SelectedSquares() int {
	return bits.OnesCount64(s.SquareMask)
}

// CostPerRoundLamports — стоимость одного раунда при текущей маске.
func (s AutomationSnapshot) CostPerRoundLamports() uint64 {
	return s.AmountPerSquareLamports * uint64(s.SelectedSquares())
}

// EstimatedRoundsRemaining — сколько раундов хватит текущего баланса.
func (s AutomationSnapshot) EstimatedRoundsRemaining() uint64 {
	cost := s.CostPerRoundLamports()
	if cost == 0 {
		return 0
	}
	return s.BalanceLamports / cost
}

// MinerSnapshot — расшифрованное состояние майнерского аккаунта.
type MinerSnapshot struct {
	RewardsSolLamports        uint64
	RewardsOrbLamports        uint64
	DeployedPerSquareLamports []uint64
}

// StakeSnapshot — расшифрованное состояние стейкинг-аккаунта.
type StakeSnapshot struct {
	StakedLamports     uint64
	RewardsSolLamports uint64
	RewardsOrbLamports uint64
}

// Rewards агрегирует накопленные награды пользователя для оценки порогов.
type Rewards struct {
	MiningSol  uint64
	MiningOrb  uint64
	StakingOrb uint64
}

// Balances — балансы кошелька, против которых оцениваются swap/stake/transfer.
type Balances struct {
	Orb uint64
}

// Price — ответ ценового оракула.
type Price struct {
	USD         float64
	NativeRatio float64
}

// ActionKind различает классы автоматических действий.
type ActionKind string

const (
	ActionClaimSol   ActionKind = "claim_sol"
	ActionClaimOrb   ActionKind = "claim_orb"
	ActionClaimStake ActionKind = "claim_stake"
	ActionSwap       ActionKind = "swap"
	ActionStake      ActionKind = "stake"
	ActionTransfer   ActionKind = "transfer"
)

// DueAction — действие, признанное готовым к исполнению. Живёт только
// внутри одного прохода планировщика, никогда не сохраняется.
type DueAction struct {
	Kind        ActionKind
	Amount      uint64
	SlippageBps uint16
	Recipient   string
}

// Instruction — непрозрачная инструкция для внешнего подписанта.
type Instruction []byte

// ActionResult — запись журнала об одном исполненном действии.
// После записи не изменяется.
type ActionResult struct {
	ID         string
	Platform   Platform
	PlatformID int64
	Kind       ActionKind
	Amount     uint64
	Success    bool
	Signature  string
	Error      string
	ExecutedAt time.Time
}

// ClaimEntry — одна строка в агрегированном сообщении о клеймах.
type ClaimEntry struct {
	Description string
	ClaimedAt   time.Time
}

// MessageHandle идентифицирует отправленное сообщение для последующего edit.
type MessageHandle struct {
	ChatID    int64
	MessageID int
}

// TriggerJob — задача ручного запуска пайплайна для одного пользователя.
type TriggerJob struct {
	Platform   Platform `json:"platform"`
	PlatformID int64    `json:"platform_id"`
}
