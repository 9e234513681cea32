package threshold

import (
	"tg-miner-bot/internal/domain"
)

// minStakeLamports — минимальная сумма стейка, принимаемая программой.
const minStakeLamports = 100_000_000

// Evaluate — чистая функция: по настройкам, наградам, балансам и цене
// возвращает упорядоченный список готовых действий. Повторный вызов с теми
// же аргументами возвращает тот же список — на этом держится идемпотентность
// всего движка. price == nil означает, что цена недоступна.
func Evaluate(settings domain.UserSettings, rewards domain.Rewards, balances domain.Balances, price *domain.Price) []domain.DueAction {
	var due []domain.DueAction

	var claimedOrb uint64
	if settings.ClaimSolThreshold > 0 && rewards.MiningSol >= settings.ClaimSolThreshold {
		due = append(due, domain.DueAction{Kind: domain.ActionClaimSol, Amount: rewards.MiningSol})
	}
	if settings.ClaimOrbThreshold > 0 && rewards.MiningOrb >= settings.ClaimOrbThreshold {
		due = append(due, domain.DueAction{Kind: domain.ActionClaimOrb, Amount: rewards.MiningOrb})
		claimedOrb += rewards.MiningOrb
	}
	if settings.ClaimStakeThreshold > 0 && rewards.StakingOrb >= settings.ClaimStakeThreshold {
		due = append(due, domain.DueAction{Kind: domain.ActionClaimStake, Amount: rewards.StakingOrb})
		claimedOrb += rewards.StakingOrb
	}

	// Клеймы исполняются первыми, поэтому swap/stake/transfer оцениваются
	// против баланса, каким он станет после них.
	orb := balances.Orb + claimedOrb
	remaining := orb

	if settings.SwapEnabled && orb >= settings.SwapThreshold {
		if amount, ok := swapAmount(settings, orb, price); ok {
			due = append(due, domain.DueAction{
				Kind:        domain.ActionSwap,
				Amount:      amount,
				SlippageBps: settings.SlippageBps,
			})
			remaining -= amount
		}
	}

	if settings.StakeEnabled && orb >= settings.StakeThreshold && orb > settings.MinOrbToKeep {
		amount := orb - settings.MinOrbToKeep
		if amount >= minStakeLamports {
			due = append(due, domain.DueAction{Kind: domain.ActionStake, Amount: amount})
			if amount >= remaining {
				remaining = 0
			} else {
				remaining -= amount
			}
		}
	}

	// Перевод оценивается последним, против остатка, и выметает его целиком.
	if settings.TransferEnabled &&
		domain.ValidRecipient(settings.TransferRecipient) &&
		remaining > 0 && remaining >= settings.TransferThreshold {
		due = append(due, domain.DueAction{
			Kind:      domain.ActionTransfer,
			Amount:    remaining,
			Recipient: settings.TransferRecipient,
		})
	}

	return due
}

// swapAmount решает, сколько ORB менять. При включённой ценовой защите и
// неизвестной либо низкой цене обмен подавляется: лучше не менять вовсе,
// чем менять вслепую.
func swapAmount(settings domain.UserSettings, orb uint64, price *domain.Price) (uint64, bool) {
	if settings.MinOrbPriceUSD > 0 {
		if price == nil || price.USD < settings.MinOrbPriceUSD {
			return 0, false
		}
	}
	if orb <= settings.MinOrbToKeep {
		return 0, false
	}
	amount := orb - settings.MinOrbToKeep
	if amount < settings.MinSwapAmount {
		return 0, false
	}
	return amount, true
}
