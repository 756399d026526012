package token

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

func (t *Token) Burn(from common.Address, amount *big.Int) error {
	t.logger.Debugf("Burning %s tokens from %s", amount, from.Hex())

	if !validateAddress(from) {
		return t.fail("Burn", ErrInvalidAddress)
	}
	if !validAmount(amount) {
		return t.fail("Burn", ErrInvalidAmount)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.paused {
		return t.fail("Burn", ErrPaused)
	}
	balance := t.balance(from)
	if balance.Cmp(amount) < 0 {
		t.logger.Warnf("Burn failed: %v (balance: %s, requested: %s)", ErrInsufficientBalance, balance, amount)
		return ErrInsufficientBalance
	}

	oldBalance := new(big.Int).Set(balance)
	oldTotalSupply := new(big.Int).Set(t.totalSupply)

	balance.Sub(balance, amount)
	t.totalSupply.Sub(t.totalSupply, amount)

	t.emitEvent(Event{
		Type:      EventBurn,
		From:      from,
		Amount:    new(big.Int).Set(amount),
		Timestamp: time.Now(),
		Metadata: map[string]interface{}{
			"old_balance":      oldBalance.String(),
			"new_balance":      balance.String(),
			"old_total_supply": oldTotalSupply.String(),
			"new_total_supply": t.totalSupply.String(),
		},
	})

	t.logger.Infof("Burn successful: Balances[%s]=%s, TotalSupply=%s", from.Hex(), balance, t.totalSupply)
	return nil
}
