package chain

import (
	"context"

	"tg-miner-bot/internal/domain"
)

// AutomationSnapshot читает и разбирает аккаунт автоматизации владельца.
func (c *Client) AutomationSnapshot(ctx context.Context, owner string) (domain.AutomationSnapshot, error) {
	raw, err := c.ReadAccount(ctx, domain.AccountAutomation, owner)
	if err != nil {
		return domain.AutomationSnapshot{}, err
	}
	return DecodeAutomation(raw)
}

// MinerSnapshot читает и разбирает майнерский аккаунт владельца.
func (c *Client) MinerSnapshot(ctx context.Context, owner string) (domain.MinerSnapshot, error) {
	raw, err := c.ReadAccount(ctx, domain.AccountMiner, owner)
	if err != nil {
		return domain.MinerSnapshot{}, err
	}
	return DecodeMiner(raw)
}

// StakeSnapshot читает и разбирает стейкинг-аккаунт владельца.
func (c *Client) StakeSnapshot(ctx context.Context, owner string) (domain.StakeSnapshot, error) {
	raw, err := c.ReadAccount(ctx, domain.AccountStake, owner)
	if err != nil {
		return domain.StakeSnapshot{}, err
	}
	return DecodeStake(raw)
}
