package earlybirds

import (
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidAddress    = errors.New("invalid address")
	ErrInvalidTitle      = errors.New("campaign title must not be empty")
	ErrInvalidCapacity   = errors.New("campaign capacity must be at least 1")
	ErrCampaignNotFound  = errors.New("campaign not found")
	ErrNoCampaigns       = errors.New("no campaigns yet")
	ErrCampaignFull      = errors.New("campaign is full")
	ErrCampaignNotOpen   = errors.New("campaign is not open for registration")
	ErrAlreadyRegistered = errors.New("already registered for this campaign")
	ErrAlreadyClosed     = errors.New("campaign is already closed")
	ErrAlreadyAirdropped = errors.New("campaign has already been airdropped")
	ErrNotHost           = errors.New("only the campaign host can do this")
	ErrNotOwner          = errors.New("only the contract owner can do this")
	ErrAirdropForbidden  = errors.New("only the owner, the admin, or the host in demo mode can airdrop")
	ErrAirdropFailed     = errors.New("airdrop transfer failed")
)

// Token is the slice of the reward token the contract needs.
type Token interface {
	BalanceOf(address common.Address) (*big.Int, error)
	TransferBatch(from common.Address, recipients []common.Address, amount *big.Int) error
}

// Msg is the call context of a contract invocation.
type Msg struct {
	Sender      common.Address
	BlockNumber uint64
	Time        time.Time
	TxHash      common.Hash
}

// EarlyBirds runs sign-up campaigns and airdrops reward tokens to their
// registrants. The contract pays rewards out of its own token balance.
type EarlyBirds struct {
	address common.Address
	token   Token
	reward  *big.Int

	owner common.Address
	admin common.Address
	demo  bool

	campaignCount uint64
	campaigns     map[uint64]*Campaign
	codes         map[string]uint64

	events   []Event
	handlers []EventHandler
	logger   *logrus.Logger
	mu       sync.RWMutex
}

// New deploys the contract at address. Demo mode starts enabled so hosts can
// airdrop their own campaigns.
func New(address, owner common.Address, token Token, reward *big.Int, logger *logrus.Logger) (*EarlyBirds, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if address == (common.Address{}) || owner == (common.Address{}) {
		return nil, ErrInvalidAddress
	}
	if reward == nil || reward.Sign() <= 0 {
		return nil, errors.New("airdrop reward must be > 0")
	}
	return &EarlyBirds{
		address:   address,
		token:     token,
		reward:    new(big.Int).Set(reward),
		owner:     owner,
		demo:      true,
		campaigns: make(map[uint64]*Campaign),
		codes:     make(map[string]uint64),
		logger:    logger,
	}, nil
}

func (c *EarlyBirds) Address() common.Address {
	return c.address
}

func (c *EarlyBirds) Owner() common.Address {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.owner
}

// Admin returns the zero address when no admin is set.
func (c *EarlyBirds) Admin() common.Address {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.admin
}

func (c *EarlyBirds) Demo() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.demo
}

func (c *EarlyBirds) CampaignCount() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.campaignCount
}

// Reward is the amount each registrant receives on airdrop.
func (c *EarlyBirds) Reward() *big.Int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return new(big.Int).Set(c.reward)
}

// Balance is the contract's own reward token balance.
func (c *EarlyBirds) Balance() (*big.Int, error) {
	return c.token.BalanceOf(c.address)
}

func (c *EarlyBirds) campaign(id uint64) (*Campaign, error) {
	camp, ok := c.campaigns[id]
	if !ok {
		return nil, ErrCampaignNotFound
	}
	return camp, nil
}

func (c *EarlyBirds) requireOwner(sender common.Address) error {
	if sender != c.owner {
		return ErrNotOwner
	}
	return nil
}

// canAirdrop reports whether sender may airdrop camp. Callers hold c.mu.
func (c *EarlyBirds) canAirdrop(sender common.Address, camp *Campaign) bool {
	switch {
	case sender == c.owner:
		return true
	case c.admin != (common.Address{}) && sender == c.admin:
		return true
	case c.demo && sender == camp.Host:
		return true
	}
	return false
}
