package token

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

func (t *Token) Approve(owner, spender common.Address, amount *big.Int) error {
	t.logger.Debugf("Approving %s tokens from %s to %s", amount, owner.Hex(), spender.Hex())

	if !validateAddress(owner) || !validateAddress(spender) {
		return t.fail("Approval", ErrInvalidAddress)
	}
	if owner == spender {
		return t.fail("Approval", ErrSelfApproval)
	}
	if amount == nil || amount.Sign() < 0 {
		return t.fail("Approval", ErrInvalidAmount)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.allowances[owner] == nil {
		t.allowances[owner] = make(map[common.Address]*big.Int)
	}
	oldAllowance := t.allowanceOf(owner, spender)
	t.allowances[owner][spender] = new(big.Int).Set(amount)

	t.emitEvent(Event{
		Type:      EventApproval,
		From:      owner,
		To:        spender,
		Amount:    new(big.Int).Set(amount),
		Timestamp: time.Now(),
		Metadata: map[string]interface{}{
			"old_allowance": oldAllowance.String(),
			"new_allowance": amount.String(),
		},
	})

	t.logger.Infof("Approval successful: %s→%s allowance: %s→%s", owner.Hex(), spender.Hex(), oldAllowance, amount)
	return nil
}

func (t *Token) Allowance(owner, spender common.Address) (*big.Int, error) {
	if !validateAddress(owner) || !validateAddress(spender) {
		return nil, ErrInvalidAddress
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	return new(big.Int).Set(t.allowanceOf(owner, spender)), nil
}

// allowanceOf never returns nil. Callers hold t.mu.
func (t *Token) allowanceOf(owner, spender common.Address) *big.Int {
	if a, ok := t.allowances[owner][spender]; ok {
		return a
	}
	return new(big.Int)
}

// TransferFrom moves amount from owner to to on behalf of spender.
func (t *Token) TransferFrom(spender, owner, to common.Address, amount *big.Int) error {
	t.logger.Debugf("TransferFrom: %s tokens from %s to %s (spender: %s)", amount, owner.Hex(), to.Hex(), spender.Hex())

	if !validateAddress(owner) || !validateAddress(spender) || !validateAddress(to) {
		return t.fail("TransferFrom", ErrInvalidAddress)
	}
	if !validAmount(amount) {
		return t.fail("TransferFrom", ErrInvalidAmount)
	}
	if owner == to {
		return t.fail("TransferFrom", ErrSelfTransfer)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.paused {
		return t.fail("TransferFrom", ErrPaused)
	}
	allowance := t.allowanceOf(owner, spender)
	if allowance.Cmp(amount) < 0 {
		t.logger.Warnf("TransferFrom failed: %v (allowance: %s, requested: %s)", ErrAllowanceExceeded, allowance, amount)
		return ErrAllowanceExceeded
	}
	if t.balance(owner).Cmp(amount) < 0 {
		t.logger.Warnf("TransferFrom failed: %v (balance: %s, requested: %s)", ErrInsufficientBalance, t.balances[owner], amount)
		return ErrInsufficientBalance
	}

	oldAllowance := new(big.Int).Set(allowance)
	allowance.Sub(allowance, amount)
	t.move(owner, to, amount, map[string]interface{}{
		"spender":       spender.Hex(),
		"old_allowance": oldAllowance.String(),
		"new_allowance": allowance.String(),
		"transfer_type": "delegated",
	})
	return nil
}
