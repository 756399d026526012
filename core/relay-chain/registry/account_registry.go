package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Shivam-Patel-G/earlybirds/core/relay-chain/chain"
	"github.com/Shivam-Patel-G/earlybirds/core/relay-chain/earlybirds"
	"github.com/Shivam-Patel-G/earlybirds/core/relay-chain/token"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

// Sources describe how an account was first seen.
const (
	SourceGenesis   = "genesis"
	SourceSender    = "sender"
	SourceRecipient = "recipient"
)

// AccountInfo is the activity summary of one address.
type AccountInfo struct {
	Address          common.Address `json:"address"`
	FirstSeen        time.Time      `json:"first_seen"`
	LastActive       time.Time      `json:"last_active"`
	IsContract       bool           `json:"is_contract"`
	Source           string         `json:"source"`
	TxCount          int64          `json:"tx_count"`
	RevertedCount    int64          `json:"reverted_count"`
	FirstTxHash      common.Hash    `json:"first_tx_hash,omitempty"`
	CampaignsHosted  []uint64       `json:"campaigns_hosted"`
	CampaignsJoined  []uint64       `json:"campaigns_joined"`
	AirdropsReceived int64          `json:"airdrops_received"`
}

func (a *AccountInfo) clone() AccountInfo {
	cp := *a
	cp.CampaignsHosted = append([]uint64{}, a.CampaignsHosted...)
	cp.CampaignsJoined = append([]uint64{}, a.CampaignsJoined...)
	return cp
}

// Source is the receipt feed the registry indexes.
type Source interface {
	Subscribe(buffer int) (<-chan *chain.Receipt, func())
	Receipts(limit int) ([]*chain.Receipt, error)
}

// AccountRegistry indexes every address that appears in a receipt.
type AccountRegistry struct {
	accounts  map[common.Address]*AccountInfo
	contract  common.Address
	lastBlock uint64
	mutex     sync.RWMutex
	logger    *logrus.Logger
}

// NewAccountRegistry creates a registry for the contract at contract.
func NewAccountRegistry(contract common.Address, logger *logrus.Logger) *AccountRegistry {
	if logger == nil {
		logger = logrus.New()
	}
	return &AccountRegistry{
		accounts: make(map[common.Address]*AccountInfo),
		contract: contract,
		logger:   logger,
	}
}

// RegisterAccount adds address unless it is already known.
func (ar *AccountRegistry) RegisterAccount(address common.Address, source string, isContract bool, at time.Time) {
	ar.mutex.Lock()
	defer ar.mutex.Unlock()
	ar.ensure(address, source, isContract, at)
}

func (ar *AccountRegistry) ensure(address common.Address, source string, isContract bool, at time.Time) *AccountInfo {
	if existing, ok := ar.accounts[address]; ok {
		return existing
	}
	account := &AccountInfo{
		Address:         address,
		FirstSeen:       at,
		LastActive:      at,
		IsContract:      isContract,
		Source:          source,
		CampaignsHosted: []uint64{},
		CampaignsJoined: []uint64{},
	}
	ar.accounts[address] = account
	return account
}

// Record applies one receipt. Receipts at or below the last indexed block are
// ignored, so replaying history is safe.
func (ar *AccountRegistry) Record(r *chain.Receipt) {
	ar.mutex.Lock()
	defer ar.mutex.Unlock()

	if r.BlockNumber <= ar.lastBlock {
		return
	}
	ar.lastBlock = r.BlockNumber

	sender := ar.ensure(r.From, SourceSender, false, r.Timestamp)
	sender.TxCount++
	sender.LastActive = r.Timestamp
	if sender.FirstTxHash == (common.Hash{}) {
		sender.FirstTxHash = r.TxHash
	}
	if !r.Succeeded() {
		sender.RevertedCount++
		return
	}

	for _, l := range r.Logs {
		switch l.Event {
		case string(earlybirds.EventCampaignOpened):
			if id, ok := toUint64(l.Data["campaign_id"]); ok {
				sender.CampaignsHosted = append(sender.CampaignsHosted, id)
			}
		case string(earlybirds.EventRegistration):
			if id, ok := toUint64(l.Data["campaign_id"]); ok {
				sender.CampaignsJoined = append(sender.CampaignsJoined, id)
			}
		case string(token.EventTransfer):
			to, ok := l.Data["to"].(string)
			if !ok || !common.IsHexAddress(to) {
				continue
			}
			recipient := ar.ensure(common.HexToAddress(to), SourceRecipient, false, r.Timestamp)
			from, _ := l.Data["from"].(string)
			if common.IsHexAddress(from) && common.HexToAddress(from) == ar.contract {
				recipient.AirdropsReceived++
			}
		}
	}
}

// toUint64 accepts the native value or its JSON-decoded float form.
func toUint64(v interface{}) (uint64, bool) {
	switch n := v.(type) {
	case uint64:
		return n, true
	case float64:
		return uint64(n), n >= 0
	case int:
		return uint64(n), n >= 0
	}
	return 0, false
}

// Run indexes stored history, then follows src until ctx is done. A live
// receipt that skips blocks triggers another pass over history, so a receipt
// dropped by a full subscription is still indexed.
func (ar *AccountRegistry) Run(ctx context.Context, src Source) error {
	live, cancel := src.Subscribe(64)
	defer cancel()

	if err := ar.replay(src); err != nil {
		return err
	}
	ar.logger.WithField("accounts", ar.Count()).Info("Account registry synced")

	for {
		select {
		case <-ctx.Done():
			return nil
		case r, ok := <-live:
			if !ok {
				return nil
			}
			if last := ar.LastBlock(); r.BlockNumber > last+1 {
				ar.logger.WithFields(logrus.Fields{
					"last":     last,
					"received": r.BlockNumber,
				}).Warn("Receipt gap, replaying history")
				if err := ar.replay(src); err != nil {
					ar.logger.WithError(err).Error("Failed to replay receipt history")
				}
			}
			ar.Record(r)
		}
	}
}

// replay records every stored receipt, oldest first.
func (ar *AccountRegistry) replay(src Source) error {
	history, err := src.Receipts(0)
	if err != nil {
		return fmt.Errorf("load receipt history: %w", err)
	}
	for i := len(history) - 1; i >= 0; i-- {
		ar.Record(history[i])
	}
	return nil
}

// GetAccount retrieves account information
func (ar *AccountRegistry) GetAccount(address common.Address) (AccountInfo, bool) {
	ar.mutex.RLock()
	defer ar.mutex.RUnlock()

	account, exists := ar.accounts[address]
	if !exists {
		return AccountInfo{}, false
	}
	return account.clone(), true
}

// GetAllAccounts returns every account ordered by first appearance.
func (ar *AccountRegistry) GetAllAccounts() []AccountInfo {
	ar.mutex.RLock()
	defer ar.mutex.RUnlock()

	result := make([]AccountInfo, 0, len(ar.accounts))
	for _, account := range ar.accounts {
		result = append(result, account.clone())
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].FirstSeen.Equal(result[j].FirstSeen) {
			return result[i].FirstSeen.Before(result[j].FirstSeen)
		}
		return result[i].Address.Hex() < result[j].Address.Hex()
	})
	return result
}

// GetActiveAccounts returns accounts active within the specified duration
func (ar *AccountRegistry) GetActiveAccounts(since time.Duration, now time.Time) []AccountInfo {
	cutoff := now.Add(-since)
	var active []AccountInfo
	for _, account := range ar.GetAllAccounts() {
		if account.LastActive.After(cutoff) {
			active = append(active, account)
		}
	}
	return active
}

func (ar *AccountRegistry) Count() int {
	ar.mutex.RLock()
	defer ar.mutex.RUnlock()
	return len(ar.accounts)
}

// LastBlock is the highest block indexed so far.
func (ar *AccountRegistry) LastBlock() uint64 {
	ar.mutex.RLock()
	defer ar.mutex.RUnlock()
	return ar.lastBlock
}

// GetStats returns registry statistics
func (ar *AccountRegistry) GetStats() map[string]interface{} {
	ar.mutex.RLock()
	defer ar.mutex.RUnlock()

	var contracts, hosts, registrants int
	for _, account := range ar.accounts {
		if account.IsContract {
			contracts++
		}
		if len(account.CampaignsHosted) > 0 {
			hosts++
		}
		if len(account.CampaignsJoined) > 0 {
			registrants++
		}
	}
	return map[string]interface{}{
		"total_accounts":    len(ar.accounts),
		"contract_accounts": contracts,
		"hosts":             hosts,
		"registrants":       registrants,
		"last_block":        ar.lastBlock,
	}
}
