package solbc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"go.uber.org/zap"
)

// AnchorError represents an error from Anchor framework
type AnchorError struct {
	Code int    `json:"code"`
	Name string `json:"name"`
	Msg  string `json:"msg"`
}

// Analysis is the decoded view of a failed submission. It is used for logging
// only; the error itself is returned unchanged.
type Analysis struct {
	RPCCode          int
	Message          string
	SimulationFailed bool
	Logs             []string
	Anchor           *AnchorError
	InstructionError interface{}
}

// ErrorAnalyzer provides methods to analyze Solana transaction errors
type ErrorAnalyzer struct {
	logger *zap.Logger
}

// NewErrorAnalyzer creates a new ErrorAnalyzer instance
func NewErrorAnalyzer(logger *zap.Logger) *ErrorAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorAnalyzer{
		logger: logger.Named("error-analyzer"),
	}
}

// Analyze extracts simulation logs and the anchor error, if any, from err.
func (ea *ErrorAnalyzer) Analyze(err error) *Analysis {
	if err == nil {
		return nil
	}

	var rpcErr *jsonrpc.RPCError
	if !errors.As(err, &rpcErr) {
		return &Analysis{Message: err.Error()}
	}

	result := &Analysis{
		RPCCode: rpcErr.Code,
		Message: rpcErr.Message,
	}
	if !strings.Contains(rpcErr.Message, "Transaction simulation failed") {
		return result
	}
	result.SimulationFailed = true

	dataMap, ok := rpcErr.Data.(map[string]interface{})
	if !ok {
		return result
	}
	if logs, ok := dataMap["logs"].([]interface{}); ok {
		for _, entry := range logs {
			line, ok := entry.(string)
			if !ok {
				continue
			}
			result.Logs = append(result.Logs, line)
			if strings.Contains(line, "AnchorError") {
				anchorErr := parseAnchorErrorLog(line)
				result.Anchor = &anchorErr
			}
		}
	}
	if instrErr, ok := dataMap["err"]; ok {
		result.InstructionError = instrErr
	}
	return result
}

// LogFields превращает результат анализа в поля zap.
func (a *Analysis) LogFields() []zap.Field {
	if a == nil {
		return nil
	}
	fields := []zap.Field{
		zap.String("rpc_message", a.Message),
		zap.Bool("simulation_failed", a.SimulationFailed),
	}
	if a.RPCCode != 0 {
		fields = append(fields, zap.Int("rpc_code", a.RPCCode))
	}
	if a.Anchor != nil {
		fields = append(fields,
			zap.Int("anchor_code", a.Anchor.Code),
			zap.String("anchor_name", a.Anchor.Name),
			zap.String("anchor_msg", a.Anchor.Msg))
	}
	if a.InstructionError != nil {
		fields = append(fields, zap.String("instruction_error", fmt.Sprintf("%v", a.InstructionError)))
	}
	if len(a.Logs) > 0 {
		fields = append(fields, zap.Strings("logs", a.Logs))
	}
	return fields
}

// parseAnchorErrorLog parses an Anchor error log string
// Example: "Program log: AnchorError occurred. Error Code: InstructionFallbackNotFound. Error Number: 101. Error Message: Fallback functions are not supported."
func parseAnchorErrorLog(logStr string) AnchorError {
	result := AnchorError{}

	if parts := strings.SplitN(logStr, "Error Number:", 2); len(parts) == 2 {
		numPart := strings.SplitN(parts[1], ".", 2)[0]
		fmt.Sscanf(strings.TrimSpace(numPart), "%d", &result.Code)
	}
	if parts := strings.SplitN(logStr, "Error Code:", 2); len(parts) == 2 {
		result.Name = strings.TrimSpace(strings.SplitN(parts[1], ".", 2)[0])
	}
	if parts := strings.SplitN(logStr, "Error Message:", 2); len(parts) == 2 {
		result.Msg = strings.TrimSuffix(strings.TrimSpace(parts[1]), ".")
	}

	return result
}
