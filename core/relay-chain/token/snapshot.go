package token

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// State is the persisted form of a token ledger.
type State struct {
	Name        string                                         `json:"name"`
	Symbol      string                                         `json:"symbol"`
	Decimals    uint8                                          `json:"decimals"`
	Address     common.Address                                 `json:"address"`
	Owner       common.Address                                 `json:"owner"`
	TotalSupply *big.Int                                       `json:"total_supply"`
	Balances    map[common.Address]*big.Int                    `json:"balances"`
	Allowances  map[common.Address]map[common.Address]*big.Int `json:"allowances,omitempty"`
	Paused      bool                                           `json:"paused"`
}

// Snapshot returns a deep copy of the ledger.
func (t *Token) Snapshot() State {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := State{
		Name:        t.Name,
		Symbol:      t.Symbol,
		Decimals:    t.Decimals,
		Address:     t.Address,
		Owner:       t.owner,
		TotalSupply: new(big.Int).Set(t.totalSupply),
		Balances:    make(map[common.Address]*big.Int, len(t.balances)),
		Allowances:  make(map[common.Address]map[common.Address]*big.Int),
		Paused:      t.paused,
	}
	for addr, b := range t.balances {
		if b.Sign() > 0 {
			s.Balances[addr] = new(big.Int).Set(b)
		}
	}
	for owner, spenders := range t.allowances {
		for spender, a := range spenders {
			if a.Sign() == 0 {
				continue
			}
			if s.Allowances[owner] == nil {
				s.Allowances[owner] = make(map[common.Address]*big.Int)
			}
			s.Allowances[owner][spender] = new(big.Int).Set(a)
		}
	}
	return s
}

// Restore replaces the ledger with s. Registered handlers are kept; the
// event history is not part of the persisted state.
func (t *Token) Restore(s State) error {
	if !validateAddress(s.Address) || !validateAddress(s.Owner) {
		return ErrInvalidAddress
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.Name, t.Symbol, t.Decimals = s.Name, s.Symbol, s.Decimals
	t.Address = s.Address
	t.owner = s.Owner
	t.paused = s.Paused
	t.totalSupply = new(big.Int)
	if s.TotalSupply != nil {
		t.totalSupply.Set(s.TotalSupply)
	}
	t.balances = make(map[common.Address]*big.Int, len(s.Balances))
	for addr, b := range s.Balances {
		t.balances[addr] = new(big.Int).Set(b)
	}
	t.allowances = make(map[common.Address]map[common.Address]*big.Int, len(s.Allowances))
	for owner, spenders := range s.Allowances {
		t.allowances[owner] = make(map[common.Address]*big.Int, len(spenders))
		for spender, a := range spenders {
			t.allowances[owner][spender] = new(big.Int).Set(a)
		}
	}
	t.events = nil
	return nil
}
