package automation

import (
	"context"
	"errors"
	"fmt"

	"tg-miner-bot/internal/domain"
	"tg-miner-bot/internal/usecase/claims"
	"tg-miner-bot/internal/usecase/threshold"
)

// processClaims собирает награды пользователя, исполняет созревшие клеймы
// и скармливает успехи агрегатору уведомлений.
func (e *Engine) processClaims(ctx context.Context, user domain.User, settings domain.UserSettings) error {
	rewards, err := e.readRewards(ctx, user)
	if err != nil {
		return err
	}
	if rewards == (domain.Rewards{}) {
		return nil
	}

	due := threshold.Evaluate(settings, rewards, domain.Balances{}, nil)
	var entries []domain.ClaimEntry
	for _, action := range due {
		if !isClaim(action.Kind) {
			continue
		}
		result, err := e.exec.Execute(ctx, user, action)
		if err != nil {
			return fmt.Errorf("исполнение %s: %w", action.Kind, err)
		}
		if !result.Success {
			e.notifyFailure(ctx, user, action.Kind, result.Error)
			continue
		}
		entries = append(entries, domain.ClaimEntry{
			Description: claimDescription(action),
			ClaimedAt:   result.ExecutedAt,
		})
	}
	if len(entries) == 0 {
		return nil
	}
	if err := e.claims.Notify(ctx, user, entries); err != nil {
		e.log.Warn().Err(err).Int64("user", user.PlatformID).Msg("engine: уведомление о клеймах не доставлено")
	}
	return nil
}

// processBalanceClass обслуживает классы, оцениваемые против баланса
// кошелька: swap, stake и transfer.
func (e *Engine) processBalanceClass(ctx context.Context, class Class, user domain.User, settings domain.UserSettings) error {
	if !classEnabled(class, settings) {
		return nil
	}

	orb, err := e.reader.OrbBalance(ctx, user.Wallet)
	if err != nil {
		return fmt.Errorf("баланс ORB: %w", err)
	}

	var price *domain.Price
	if class == ClassSwap && settings.MinOrbPriceUSD > 0 {
		got, err := e.oracle.GetPrice(ctx)
		switch {
		case err == nil:
			price = &got
		case errors.Is(err, domain.ErrPriceUnavailable):
			// Оцениваем без цены: защита сама подавит обмен.
			e.log.Debug().Int64("user", user.PlatformID).Msg("engine: цена недоступна, swap будет подавлен")
		default:
			return fmt.Errorf("цена ORB: %w", err)
		}
	}

	due := threshold.Evaluate(settings, domain.Rewards{}, domain.Balances{Orb: orb}, price)
	for _, action := range due {
		if action.Kind != classKind(class) {
			continue
		}
		result, err := e.exec.Execute(ctx, user, action)
		if err != nil {
			return fmt.Errorf("исполнение %s: %w", action.Kind, err)
		}
		if result.Success {
			e.notifySuccess(ctx, user, action)
		} else {
			e.notifyFailure(ctx, user, action.Kind, result.Error)
		}
		return nil
	}
	return nil
}

// readRewards читает майнерский и стейкинг-аккаунты. Отсутствующий аккаунт
// не ошибка: функция просто не активирована, награды нулевые.
func (e *Engine) readRewards(ctx context.Context, user domain.User) (domain.Rewards, error) {
	var rewards domain.Rewards

	miner, err := e.reader.MinerSnapshot(ctx, user.Wallet)
	if err != nil && !errors.Is(err, domain.ErrAccountAbsent) {
		return domain.Rewards{}, fmt.Errorf("майнерский аккаунт: %w", err)
	}
	if err == nil {
		rewards.MiningSol = miner.RewardsSolLamports
		rewards.MiningOrb = miner.RewardsOrbLamports
	}

	stake, err := e.reader.StakeSnapshot(ctx, user.Wallet)
	if err != nil && !errors.Is(err, domain.ErrAccountAbsent) {
		return domain.Rewards{}, fmt.Errorf("стейкинг-аккаунт: %w", err)
	}
	if err == nil {
		rewards.StakingOrb = stake.RewardsOrbLamports
	}

	return rewards, nil
}

// sendAutomationStatus шлёт сводку по аккаунту автоматизации при ручном
// запуске: клетки, стоимость раунда, оценка оставшихся раундов.
func (e *Engine) sendAutomationStatus(ctx context.Context, user domain.User) error {
	if e.notify == nil {
		return nil
	}
	snapshot, err := e.reader.AutomationSnapshot(ctx, user.Wallet)
	if errors.Is(err, domain.ErrAccountAbsent) {
		_, err = e.notify.Send(ctx, user.ChatID, "🤖 Автоматизация не активирована")
		return err
	}
	if err != nil {
		return fmt.Errorf("аккаунт автоматизации: %w", err)
	}
	text := fmt.Sprintf(
		"🤖 <b>Автоматизация</b>\nКлеток: %d\nСтавка на клетку: %s SOL\nСтоимость раунда: %s SOL\nБаланс: %s SOL (~%d раундов)",
		snapshot.SelectedSquares(),
		claims.FormatLamports(snapshot.AmountPerSquareLamports),
		claims.FormatLamports(snapshot.CostPerRoundLamports()),
		claims.FormatLamports(snapshot.BalanceLamports),
		snapshot.EstimatedRoundsRemaining(),
	)
	_, err = e.notify.Send(ctx, user.ChatID, text)
	return err
}

func (e *Engine) notifySuccess(ctx context.Context, user domain.User, action domain.DueAction) {
	if e.notify == nil {
		return
	}
	var text string
	switch action.Kind {
	case domain.ActionSwap:
		text = fmt.Sprintf("🔁 Обменяли %s ORB", claims.FormatLamports(action.Amount))
	case domain.ActionStake:
		text = fmt.Sprintf("📥 Застейкали %s ORB", claims.FormatLamports(action.Amount))
	case domain.ActionTransfer:
		text = fmt.Sprintf("📤 Перевели %s ORB на %s", claims.FormatLamports(action.Amount), action.Recipient)
	default:
		return
	}
	if _, err := e.notify.Send(ctx, user.ChatID, text); err != nil {
		e.log.Warn().Err(err).Int64("user", user.PlatformID).Msg("engine: уведомление не доставлено")
	}
}

// notifyFailure — best-effort: отсутствие бота подавляет только сообщение,
// не обработку.
func (e *Engine) notifyFailure(ctx context.Context, user domain.User, kind domain.ActionKind, rawError string) {
	if e.notify == nil {
		return
	}
	text := fmt.Sprintf("⚠️ Действие %s не прошло: %s", actionTitle(kind), rawError)
	if _, err := e.notify.Send(ctx, user.ChatID, text); err != nil {
		e.log.Warn().Err(err).Int64("user", user.PlatformID).Msg("engine: уведомление об ошибке не доставлено")
	}
}

func isClaim(kind domain.ActionKind) bool {
	switch kind {
	case domain.ActionClaimSol, domain.ActionClaimOrb, domain.ActionClaimStake:
		return true
	}
	return false
}

func classEnabled(class Class, settings domain.UserSettings) bool {
	switch class {
	case ClassSwap:
		return settings.SwapEnabled
	case ClassStake:
		return settings.StakeEnabled
	case ClassTransfer:
		return settings.TransferEnabled
	}
	return false
}

func classKind(class Class) domain.ActionKind {
	switch class {
	case ClassSwap:
		return domain.ActionSwap
	case ClassStake:
		return domain.ActionStake
	case ClassTransfer:
		return domain.ActionTransfer
	}
	return ""
}

func claimDescription(action domain.DueAction) string {
	switch action.Kind {
	case domain.ActionClaimSol:
		return fmt.Sprintf("+%s SOL (майнинг)", claims.FormatLamports(action.Amount))
	case domain.ActionClaimOrb:
		return fmt.Sprintf("+%s ORB (майнинг)", claims.FormatLamports(action.Amount))
	case domain.ActionClaimStake:
		return fmt.Sprintf("+%s ORB (стейкинг)", claims.FormatLamports(action.Amount))
	}
	return string(action.Kind)
}

func actionTitle(kind domain.ActionKind) string {
	switch kind {
	case domain.ActionClaimSol:
		return "клейм SOL"
	case domain.ActionClaimOrb:
		return "клейм ORB"
	case domain.ActionClaimStake:
		return "клейм стейкинг-наград"
	case domain.ActionSwap:
		return "обмен"
	case domain.ActionStake:
		return "стейк"
	case domain.ActionTransfer:
		return "перевод"
	}
	return string(kind)
}
