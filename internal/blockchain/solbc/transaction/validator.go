// internal/blockchain/solbc/transaction/validator.go
package transaction

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

type Validator struct {
	logger *zap.Logger
}

func NewValidator(logger *zap.Logger) *Validator {
	return &Validator{
		logger: logger.Named("tx-validator"),
	}
}

// ValidateSigners проверяет, что для каждой требуемой подписи есть приватный ключ.
// Вызывается до подписания, чтобы ошибка называла конкретный ключ.
func (v *Validator) ValidateSigners(tx *solana.Transaction, signers []solana.PrivateKey) error {
	required := int(tx.Message.Header.NumRequiredSignatures)
	if required > len(tx.Message.AccountKeys) {
		return fmt.Errorf("%w: header requires %d signatures, message has %d keys",
			ErrMissingSigner, required, len(tx.Message.AccountKeys))
	}
	for _, key := range tx.Message.AccountKeys[:required] {
		if findSigner(signers, key) == nil {
			v.logger.Debug("Signer not provided", zap.String("pubkey", key.String()))
			return fmt.Errorf("%w: %s", ErrMissingSigner, key)
		}
	}
	return nil
}

// ValidateTransaction проверяет подписанную транзакцию перед отправкой.
func (v *Validator) ValidateTransaction(tx *solana.Transaction) error {
	if err := v.ValidateSignatures(tx); err != nil {
		return err
	}
	if err := v.ValidateBlockhash(tx); err != nil {
		return err
	}
	return v.ValidateInstructions(tx.Message.Instructions)
}

func (v *Validator) ValidateSignatures(tx *solana.Transaction) error {
	if len(tx.Signatures) == 0 || len(tx.Signatures) != int(tx.Message.Header.NumRequiredSignatures) {
		return ErrInvalidSignature
	}
	for _, sig := range tx.Signatures {
		if sig == (solana.Signature{}) {
			return ErrInvalidSignature
		}
	}
	return nil
}

func (v *Validator) ValidateBlockhash(tx *solana.Transaction) error {
	if tx.Message.RecentBlockhash == (solana.Hash{}) {
		return ErrInvalidBlockhash
	}
	return nil
}

func (v *Validator) ValidateInstructions(instructions []solana.CompiledInstruction) error {
	if len(instructions) == 0 {
		return ErrNoInstructions
	}
	return nil
}

func findSigner(signers []solana.PrivateKey, key solana.PublicKey) *solana.PrivateKey {
	for i := range signers {
		if signers[i].PublicKey().Equals(key) {
			return &signers[i]
		}
	}
	return nil
}
