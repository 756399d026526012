package token

import (
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidAddress      = errors.New("invalid address")
	ErrInvalidAmount       = errors.New("amount must be > 0")
	ErrSelfTransfer        = errors.New("cannot transfer to same address")
	ErrSelfApproval        = errors.New("cannot approve to same address")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAllowanceExceeded   = errors.New("allowance exceeded")
	ErrPaused              = errors.New("token operations are paused")
	ErrAlreadyPaused       = errors.New("token is already paused")
	ErrNotPaused           = errors.New("token is not paused")
	ErrUnauthorized        = errors.New("unauthorized: owner access required")
)

// Token is an ERC20-style fungible token held entirely in memory.
type Token struct {
	Name     string
	Symbol   string
	Decimals uint8
	Address  common.Address

	owner       common.Address
	totalSupply *big.Int
	balances    map[common.Address]*big.Int
	allowances  map[common.Address]map[common.Address]*big.Int
	paused      bool

	events   []Event
	handlers []EventHandler
	logger   *logrus.Logger
	mu       sync.RWMutex
}

// NewToken deploys a token at address and mints initialSupply to owner.
func NewToken(name, symbol string, decimals uint8, address, owner common.Address, initialSupply *big.Int, logger *logrus.Logger) (*Token, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if !validateAddress(address) || !validateAddress(owner) {
		return nil, ErrInvalidAddress
	}
	t := &Token{
		Name:        name,
		Symbol:      symbol,
		Decimals:    decimals,
		Address:     address,
		owner:       owner,
		totalSupply: new(big.Int),
		balances:    make(map[common.Address]*big.Int),
		allowances:  make(map[common.Address]map[common.Address]*big.Int),
		logger:      logger,
	}
	if initialSupply != nil && initialSupply.Sign() > 0 {
		t.mu.Lock()
		t.mint(owner, initialSupply)
		t.mu.Unlock()
	}
	return t, nil
}

// NewWormies deploys the Wormies reward token.
func NewWormies(address, owner common.Address, initialSupply *big.Int, logger *logrus.Logger) (*Token, error) {
	return NewToken("Wormies", "WORM", 18, address, owner, initialSupply, logger)
}

// Owner returns the deployer of the token.
func (t *Token) Owner() common.Address {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.owner
}

// ToWei converts whole tokens to base units (18 decimals).
func ToWei(whole uint64) *big.Int {
	return new(big.Int).Mul(new(big.Int).SetUint64(whole), big.NewInt(params.Ether))
}

func validateAddress(address common.Address) bool {
	return address != (common.Address{})
}

func validAmount(amount *big.Int) bool {
	return amount != nil && amount.Sign() > 0
}

// balance returns the live balance entry, creating it when absent. Callers hold t.mu.
func (t *Token) balance(address common.Address) *big.Int {
	b, ok := t.balances[address]
	if !ok {
		b = new(big.Int)
		t.balances[address] = b
	}
	return b
}
