// internal/types/priority.go
package types

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
)

type PriorityLevel string

const (
	PriorityNone   PriorityLevel = "none"
	PriorityLow    PriorityLevel = "low"
	PriorityMedium PriorityLevel = "medium"
	PriorityHigh   PriorityLevel = "high"
)

type PriorityConfig struct {
	ComputeUnits uint32 // лимит compute units
	PriorityFee  uint64 // цена в micro-lamports за unit
}

// priorityProfiles рассчитаны на execute_sale с несколькими создателями,
// самую тяжелую инструкцию программы.
var priorityProfiles = map[PriorityLevel]PriorityConfig{
	PriorityLow:    {ComputeUnits: 200_000, PriorityFee: 1_000},
	PriorityMedium: {ComputeUnits: 300_000, PriorityFee: 5_000},
	PriorityHigh:   {ComputeUnits: 400_000, PriorityFee: 25_000},
}

// ParsePriorityLevel принимает none, low, medium или high. Пустая строка – none.
func ParsePriorityLevel(s string) (PriorityLevel, error) {
	level := PriorityLevel(strings.ToLower(strings.TrimSpace(s)))
	if level == "" || level == PriorityNone {
		return PriorityNone, nil
	}
	if _, ok := priorityProfiles[level]; !ok {
		return "", fmt.Errorf("unknown priority level: %s", s)
	}
	return level, nil
}

// PriorityInstructions возвращает инструкции compute budget для уровня level.
// Для none и пустого уровня инструкций нет.
func PriorityInstructions(level PriorityLevel) ([]solana.Instruction, error) {
	if level == "" || level == PriorityNone {
		return nil, nil
	}
	config, ok := priorityProfiles[level]
	if !ok {
		return nil, fmt.Errorf("unknown priority level: %s", level)
	}
	return createInstructions(config), nil
}

func createInstructions(config PriorityConfig) []solana.Instruction {
	var instructions []solana.Instruction
	if config.ComputeUnits > 0 {
		instructions = append(instructions,
			computebudget.NewSetComputeUnitLimitInstruction(config.ComputeUnits).Build())
	}
	if config.PriorityFee > 0 {
		instructions = append(instructions,
			computebudget.NewSetComputeUnitPriceInstruction(config.PriorityFee).Build())
	}
	return instructions
}
