// internal/types/amount.go
package types

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount переводит десятичную сумму ("1.5") в минимальные единицы минта
// с decimals знаками. Дробная часть длиннее decimals – ошибка.
func ParseAmount(s string, decimals uint8) (uint64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: negative amount %s", ErrInvalidAmount, s)
	}
	units := d.Shift(int32(decimals))
	if !units.Equal(units.Truncate(0)) {
		return 0, fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidAmount, s, decimals)
	}
	if units.BigInt().BitLen() > 64 {
		return 0, fmt.Errorf("%w: %s overflows u64", ErrInvalidAmount, s)
	}
	return units.BigInt().Uint64(), nil
}

// FormatAmount – обратное преобразование для вывода.
func FormatAmount(units uint64, decimals uint8) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(units), -int32(decimals)).String()
}
