package token

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Mint creates new tokens. Only the owner may mint.
func (t *Token) Mint(caller, to common.Address, amount *big.Int) error {
	t.logger.Debugf("Minting %s tokens to %s", amount, to.Hex())

	if !validateAddress(to) {
		return t.fail("Mint", ErrInvalidAddress)
	}
	if !validAmount(amount) {
		return t.fail("Mint", ErrInvalidAmount)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if caller != t.owner {
		return t.fail("Mint", ErrUnauthorized)
	}
	if t.paused {
		return t.fail("Mint", ErrPaused)
	}

	t.mint(to, amount)
	return nil
}

// mint credits a validated amount. Callers hold t.mu.
func (t *Token) mint(to common.Address, amount *big.Int) {
	balance := t.balance(to)
	balance.Add(balance, amount)
	t.totalSupply.Add(t.totalSupply, amount)

	t.emitEvent(Event{
		Type:      EventMint,
		To:        to,
		Amount:    new(big.Int).Set(amount),
		Timestamp: time.Now(),
		Metadata: map[string]interface{}{
			"new_balance":  balance.String(),
			"total_supply": t.totalSupply.String(),
		},
	})

	t.logger.Infof("Mint successful: Balances[%s]=%s, TotalSupply=%s", to.Hex(), balance, t.totalSupply)
}
