package chain

import (
	"encoding/binary"
	"errors"
	"testing"

	"tg-miner-bot/internal/domain"
)

func automationBuffer(amountPerSquare, balance, mask uint64) []byte {
	buf := make([]byte, automationMinLen)
	binary.LittleEndian.PutUint64(buf[8:16], amountPerSquare)
	binary.LittleEndian.PutUint64(buf[48:56], balance)
	binary.LittleEndian.PutUint64(buf[104:112], mask)
	return buf
}

func TestDecodeAutomation(t *testing.T) {
	buf := automationBuffer(10_000_000, 500_000_000, 0b11111)

	snapshot, err := DecodeAutomation(buf)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if snapshot.AmountPerSquareLamports != 10_000_000 {
		t.Fatalf("amountPerSquare = %d", snapshot.AmountPerSquareLamports)
	}
	if snapshot.BalanceLamports != 500_000_000 {
		t.Fatalf("balance = %d", snapshot.BalanceLamports)
	}
	if snapshot.SquareMask != 0b11111 {
		t.Fatalf("mask = %b", snapshot.SquareMask)
	}
}

func TestDecodeAutomationShortBufferIsAbsent(t *testing.T) {
	_, err := DecodeAutomation(make([]byte, 100))
	if !errors.Is(err, domain.ErrAccountAbsent) {
		t.Fatalf("короткий буфер должен давать ErrAccountAbsent, получили %v", err)
	}
}

func TestAutomationDerivedQuantities(t *testing.T) {
	snapshot := domain.AutomationSnapshot{
		AmountPerSquareLamports: 10_000_000,
		BalanceLamports:         500_000_000,
		SquareMask:              0b11111,
	}
	if got := snapshot.SelectedSquares(); got != 5 {
		t.Fatalf("SelectedSquares = %d, ожидали 5", got)
	}
	if got := snapshot.CostPerRoundLamports(); got != 50_000_000 {
		t.Fatalf("CostPerRound = %d, ожидали 50000000", got)
	}
	if got := snapshot.EstimatedRoundsRemaining(); got != 10 {
		t.Fatalf("EstimatedRounds = %d, ожидали 10", got)
	}
}

func TestAutomationEmptyMaskHasNoRounds(t *testing.T) {
	snapshot := domain.AutomationSnapshot{BalanceLamports: 500_000_000}
	if got := snapshot.EstimatedRoundsRemaining(); got != 0 {
		t.Fatalf("при пустой маске раундов быть не должно, получили %d", got)
	}
}

func TestDecodeMiner(t *testing.T) {
	buf := make([]byte, minerMinLen)
	binary.LittleEndian.PutUint64(buf[8:16], 111)
	binary.LittleEndian.PutUint64(buf[16:24], 222)
	binary.LittleEndian.PutUint64(buf[24:32], 7)
	binary.LittleEndian.PutUint64(buf[24+24*8:], 9)

	snapshot, err := DecodeMiner(buf)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if snapshot.RewardsSolLamports != 111 || snapshot.RewardsOrbLamports != 222 {
		t.Fatalf("награды разобраны неверно: %+v", snapshot)
	}
	if len(snapshot.DeployedPerSquareLamports) != minerSquares {
		t.Fatalf("ожидали %d клеток, получили %d", minerSquares, len(snapshot.DeployedPerSquareLamports))
	}
	if snapshot.DeployedPerSquareLamports[0] != 7 || snapshot.DeployedPerSquareLamports[24] != 9 {
		t.Fatalf("значения по клеткам разобраны неверно: %v", snapshot.DeployedPerSquareLamports)
	}
}

func TestDecodeStake(t *testing.T) {
	buf := make([]byte, stakeMinLen)
	binary.LittleEndian.PutUint64(buf[8:16], 10)
	binary.LittleEndian.PutUint64(buf[16:24], 20)
	binary.LittleEndian.PutUint64(buf[24:32], 30)

	snapshot, err := DecodeStake(buf)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if snapshot.StakedLamports != 10 || snapshot.RewardsSolLamports != 20 || snapshot.RewardsOrbLamports != 30 {
		t.Fatalf("стейкинг-аккаунт разобран неверно: %+v", snapshot)
	}

	if _, err := DecodeStake(make([]byte, stakeMinLen-1)); !errors.Is(err, domain.ErrAccountAbsent) {
		t.Fatalf("короткий буфер должен давать ErrAccountAbsent, получили %v", err)
	}
}
