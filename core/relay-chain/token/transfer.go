package token

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

func (t *Token) Transfer(from, to common.Address, amount *big.Int) error {
	t.logger.Debugf("Transferring %s %s from %s to %s", amount, t.Symbol, from.Hex(), to.Hex())

	if !validateAddress(from) || !validateAddress(to) {
		return t.fail("Transfer", ErrInvalidAddress)
	}
	if !validAmount(amount) {
		return t.fail("Transfer", ErrInvalidAmount)
	}
	if from == to {
		return t.fail("Transfer", ErrSelfTransfer)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.paused {
		return t.fail("Transfer", ErrPaused)
	}
	if t.balance(from).Cmp(amount) < 0 {
		t.logger.Warnf("Transfer failed: %v (balance: %s, requested: %s)", ErrInsufficientBalance, t.balances[from], amount)
		return ErrInsufficientBalance
	}

	t.move(from, to, amount, nil)
	return nil
}

// TransferBatch pays amount to every recipient from a single sender. Either
// every payment is applied or none is.
func (t *Token) TransferBatch(from common.Address, recipients []common.Address, amount *big.Int) error {
	if len(recipients) == 0 {
		return nil
	}
	if !validateAddress(from) {
		return t.fail("TransferBatch", ErrInvalidAddress)
	}
	if !validAmount(amount) {
		return t.fail("TransferBatch", ErrInvalidAmount)
	}
	for _, to := range recipients {
		if !validateAddress(to) {
			return t.fail("TransferBatch", ErrInvalidAddress)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.paused {
		return t.fail("TransferBatch", ErrPaused)
	}

	// Payments to the sender itself are no-ops on the balance.
	payable := 0
	for _, to := range recipients {
		if to != from {
			payable++
		}
	}
	total := new(big.Int).Mul(amount, big.NewInt(int64(payable)))
	if t.balance(from).Cmp(total) < 0 {
		err := fmt.Errorf("%w: need %s for %d recipients, have %s", ErrInsufficientBalance, total, payable, t.balances[from])
		t.logger.Warnf("TransferBatch failed: %v", err)
		return err
	}

	for _, to := range recipients {
		if to == from {
			continue
		}
		t.move(from, to, amount, map[string]interface{}{"batch_size": len(recipients)})
	}
	t.logger.Infof("TransferBatch successful: %s paid %s %s to %d recipients", from.Hex(), amount, t.Symbol, payable)
	return nil
}

// move executes a validated transfer. Callers hold t.mu.
func (t *Token) move(from, to common.Address, amount *big.Int, extra map[string]interface{}) {
	fromBalance := t.balance(from)
	toBalance := t.balance(to)
	oldFrom := new(big.Int).Set(fromBalance)
	oldTo := new(big.Int).Set(toBalance)

	fromBalance.Sub(fromBalance, amount)
	toBalance.Add(toBalance, amount)

	metadata := map[string]interface{}{
		"from_old_balance": oldFrom.String(),
		"from_new_balance": fromBalance.String(),
		"to_old_balance":   oldTo.String(),
		"to_new_balance":   toBalance.String(),
	}
	for k, v := range extra {
		metadata[k] = v
	}
	t.emitEvent(Event{
		Type:      EventTransfer,
		From:      from,
		To:        to,
		Amount:    new(big.Int).Set(amount),
		Timestamp: time.Now(),
		Metadata:  metadata,
	})

	t.logger.Debugf("Transfer successful: %s[%s→%s], %s[%s→%s]",
		from.Hex(), oldFrom, fromBalance, to.Hex(), oldTo, toBalance)
}

func (t *Token) fail(op string, err error) error {
	t.logger.Warnf("%s failed: %v", op, err)
	return err
}
