package token

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

func (t *Token) TotalSupply() *big.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return new(big.Int).Set(t.totalSupply)
}

// CirculatingSupply sums every balance. It equals TotalSupply unless the ledger is corrupt.
func (t *Token) CirculatingSupply() *big.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.calculateCirculatingSupply()
}

func (t *Token) calculateCirculatingSupply() *big.Int {
	supply := new(big.Int)
	for _, balance := range t.balances {
		supply.Add(supply, balance)
	}
	return supply
}

func (t *Token) BalanceOf(address common.Address) (*big.Int, error) {
	if !validateAddress(address) {
		return nil, ErrInvalidAddress
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	if b, ok := t.balances[address]; ok {
		return new(big.Int).Set(b), nil
	}
	return new(big.Int), nil
}

// GetAllBalances returns a copy of all non-zero balances.
func (t *Token) GetAllBalances() map[common.Address]*big.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	balances := make(map[common.Address]*big.Int, len(t.balances))
	for addr, balance := range t.balances {
		if balance.Sign() > 0 {
			balances[addr] = new(big.Int).Set(balance)
		}
	}
	return balances
}

// Holders returns all addresses with a non-zero balance.
func (t *Token) Holders() []common.Address {
	t.mu.RLock()
	defer t.mu.RUnlock()

	addresses := make([]common.Address, 0, len(t.balances))
	for addr, balance := range t.balances {
		if balance.Sign() > 0 {
			addresses = append(addresses, addr)
		}
	}
	return addresses
}
