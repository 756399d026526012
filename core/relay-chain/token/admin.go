package token

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Pause halts transfers, mints and burns. Owner only.
func (t *Token) Pause(caller common.Address) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if caller != t.owner {
		return t.fail("Pause", ErrUnauthorized)
	}
	if t.paused {
		return t.fail("Pause", ErrAlreadyPaused)
	}

	t.paused = true
	t.emitEvent(Event{Type: EventPaused, From: caller, Timestamp: time.Now()})
	t.logger.Infof("Token paused (owner: %s)", caller.Hex())
	return nil
}

// Unpause resumes token operations. Owner only.
func (t *Token) Unpause(caller common.Address) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if caller != t.owner {
		return t.fail("Unpause", ErrUnauthorized)
	}
	if !t.paused {
		return t.fail("Unpause", ErrNotPaused)
	}

	t.paused = false
	t.emitEvent(Event{Type: EventUnpaused, From: caller, Timestamp: time.Now()})
	t.logger.Infof("Token unpaused (owner: %s)", caller.Hex())
	return nil
}

// IsPaused returns whether token operations are paused
func (t *Token) IsPaused() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.paused
}

// GetTokenStatus returns comprehensive token status
func (t *Token) GetTokenStatus() map[string]interface{} {
	t.mu.RLock()
	defer t.mu.RUnlock()

	holders := 0
	for _, b := range t.balances {
		if b.Sign() > 0 {
			holders++
		}
	}
	return map[string]interface{}{
		"name":         t.Name,
		"symbol":       t.Symbol,
		"decimals":     t.Decimals,
		"address":      t.Address.Hex(),
		"owner":        t.owner.Hex(),
		"total_supply": t.totalSupply.String(),
		"paused":       t.paused,
		"holders":      holders,
	}
}
