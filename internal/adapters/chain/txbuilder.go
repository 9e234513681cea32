package chain

import (
	"encoding/json"
	"fmt"

	"tg-miner-bot/internal/domain"
)

var _ domain.TxBuilder = (*Builder)(nil)

// Builder строит непрозрачные дескрипторы инструкций, которые понимает
// подписывающий сайдкар. Кодирование в байты программы — его забота.
type Builder struct {
	programID string
}

// NewBuilder создаёт билдер инструкций.
func NewBuilder(programID string) *Builder {
	return &Builder{programID: programID}
}

type instructionPayload struct {
	Program     string `json:"program"`
	Op          string `json:"op"`
	Owner       string `json:"owner"`
	Recipient   string `json:"recipient,omitempty"`
	Amount      uint64 `json:"amount"`
	SlippageBps uint16 `json:"slippage_bps,omitempty"`
}

func (b *Builder) instruction(p instructionPayload) ([]domain.Instruction, error) {
	p.Program = b.programID
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal instruction %s: %w", p.Op, err)
	}
	return []domain.Instruction{raw}, nil
}

// BuildClaimSol строит инструкцию вывода SOL-наград майнинга.
func (b *Builder) BuildClaimSol(owner string, amount uint64) ([]domain.Instruction, error) {
	return b.instruction(instructionPayload{Op: "claim_sol", Owner: owner, Amount: amount})
}

// BuildClaimOrb строит инструкцию вывода ORB-наград майнинга.
func (b *Builder) BuildClaimOrb(owner string, amount uint64) ([]domain.Instruction, error) {
	return b.instruction(instructionPayload{Op: "claim_orb", Owner: owner, Amount: amount})
}

// BuildClaimStake строит инструкцию вывода стейкинг-наград.
func (b *Builder) BuildClaimStake(owner string, amount uint64) ([]domain.Instruction, error) {
	return b.instruction(instructionPayload{Op: "claim_stake", Owner: owner, Amount: amount})
}

// BuildSwap строит инструкцию обмена ORB на SOL.
func (b *Builder) BuildSwap(owner string, amount uint64, slippageBps uint16) ([]domain.Instruction, error) {
	return b.instruction(instructionPayload{Op: "swap", Owner: owner, Amount: amount, SlippageBps: slippageBps})
}

// BuildStake строит инструкцию стейкинга ORB.
func (b *Builder) BuildStake(owner string, amount uint64) ([]domain.Instruction, error) {
	return b.instruction(instructionPayload{Op: "stake", Owner: owner, Amount: amount})
}

// BuildTransfer строит инструкцию перевода ORB на адрес получателя.
func (b *Builder) BuildTransfer(owner, recipient string, amount uint64) ([]domain.Instruction, error) {
	return b.instruction(instructionPayload{Op: "transfer", Owner: owner, Recipient: recipient, Amount: amount})
}
