package chain

import (
	"encoding/binary"

	"tg-miner-bot/internal/domain"
)

// Минимальные размеры раскладок аккаунтов. Смещения полей — часть внешнего
// формата программы, менять их можно только синхронно с ней.
const (
	automationMinLen = 112
	minerMinLen      = 224
	stakeMinLen      = 32

	minerSquares = 25
)

// DecodeAutomation разбирает аккаунт автоматизации.
// Поля u64 little-endian: amountPerSquare@8, balance@48, squareMask@104.
func DecodeAutomation(buf []byte) (domain.AutomationSnapshot, error) {
	if len(buf) < automationMinLen {
		return domain.AutomationSnapshot{}, domain.ErrAccountAbsent
	}
	return domain.AutomationSnapshot{
		AmountPerSquareLamports: binary.LittleEndian.Uint64(buf[8:16]),
		BalanceLamports:         binary.LittleEndian.Uint64(buf[48:56]),
		SquareMask:              binary.LittleEndian.Uint64(buf[104:112]),
	}, nil
}

// DecodeMiner разбирает майнерский аккаунт: rewardsSol@8, rewardsOrb@16,
// затем 25 значений u64 по клеткам начиная с 24.
func DecodeMiner(buf []byte) (domain.MinerSnapshot, error) {
	if len(buf) < minerMinLen {
		return domain.MinerSnapshot{}, domain.ErrAccountAbsent
	}
	deployed := make([]uint64, minerSquares)
	for i := range deployed {
		offset := 24 + i*8
		deployed[i] = binary.LittleEndian.Uint64(buf[offset : offset+8])
	}
	return domain.MinerSnapshot{
		RewardsSolLamports:        binary.LittleEndian.Uint64(buf[8:16]),
		RewardsOrbLamports:        binary.LittleEndian.Uint64(buf[16:24]),
		DeployedPerSquareLamports: deployed,
	}, nil
}

// DecodeStake разбирает стейкинг-аккаунт: staked@8, rewardsSol@16, rewardsOrb@24.
func DecodeStake(buf []byte) (domain.StakeSnapshot, error) {
	if len(buf) < stakeMinLen {
		return domain.StakeSnapshot{}, domain.ErrAccountAbsent
	}
	return domain.StakeSnapshot{
		StakedLamports:     binary.LittleEndian.Uint64(buf[8:16]),
		RewardsSolLamports: binary.LittleEndian.Uint64(buf[16:24]),
		RewardsOrbLamports: binary.LittleEndian.Uint64(buf[24:32]),
	}, nil
}
