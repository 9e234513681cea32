package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tg-miner-bot/internal/domain"
	"tg-miner-bot/internal/infra/metrics"
)

// Service исполняет одно готовое действие: собирает инструкции, отправляет
// одну транзакцию через внешнего подписанта и пишет одну запись в журнал.
// Несвязанные действия никогда не объединяются в одну транзакцию.
type Service struct {
	builder   domain.TxBuilder
	submitter domain.Submitter
	journal   domain.ActionLog
	log       zerolog.Logger
	now       func() time.Time
}

// NewService создаёт исполнителя.
func NewService(builder domain.TxBuilder, submitter domain.Submitter, journal domain.ActionLog, logger zerolog.Logger) *Service {
	return &Service{
		builder:   builder,
		submitter: submitter,
		journal:   journal,
		log:       logger,
		now:       time.Now,
	}
}

// Execute исполняет действие и возвращает его результат. Неуспешная отправка
// не ошибка вызова: результат с Success=false тоже попадает в журнал, а
// повторная попытка случится только на следующем тике, от свежего состояния.
func (s *Service) Execute(ctx context.Context, user domain.User, action domain.DueAction) (domain.ActionResult, error) {
	instructions, err := s.buildInstructions(user, action)
	if err != nil {
		return domain.ActionResult{}, fmt.Errorf("сборка инструкций %s: %w", action.Kind, err)
	}

	result := domain.ActionResult{
		ID:         uuid.NewString(),
		Platform:   user.Platform,
		PlatformID: user.PlatformID,
		Kind:       action.Kind,
		Amount:     action.Amount,
		ExecutedAt: s.now().UTC(),
	}

	signature, err := s.submitter.Submit(ctx, instructions, user.SignerHandle)
	if err != nil {
		result.Success = false
		result.Error = err.Error()
		s.log.Warn().Err(err).
			Int64("user", user.PlatformID).
			Str("kind", string(action.Kind)).
			Msg("executor: транзакция не прошла")
	} else {
		result.Success = true
		result.Signature = signature
	}
	metrics.ObserveAction(string(action.Kind), result.Success)

	if err := s.journal.Append(ctx, result); err != nil {
		s.log.Error().Err(err).
			Int64("user", user.PlatformID).
			Str("kind", string(action.Kind)).
			Msg("executor: не удалось записать результат в журнал")
	}
	return result, nil
}

func (s *Service) buildInstructions(user domain.User, action domain.DueAction) ([]domain.Instruction, error) {
	switch action.Kind {
	case domain.ActionClaimSol:
		return s.builder.BuildClaimSol(user.Wallet, action.Amount)
	case domain.ActionClaimOrb:
		return s.builder.BuildClaimOrb(user.Wallet, action.Amount)
	case domain.ActionClaimStake:
		return s.builder.BuildClaimStake(user.Wallet, action.Amount)
	case domain.ActionSwap:
		return s.builder.BuildSwap(user.Wallet, action.Amount, action.SlippageBps)
	case domain.ActionStake:
		return s.builder.BuildStake(user.Wallet, action.Amount)
	case domain.ActionTransfer:
		if !domain.ValidRecipient(action.Recipient) {
			return nil, domain.ErrInvalidRecipient
		}
		return s.builder.BuildTransfer(user.Wallet, action.Recipient, action.Amount)
	default:
		return nil, fmt.Errorf("неизвестный тип действия %q", action.Kind)
	}
}
