// Package chain executes transactions against the Wormies token and the
// EarlyBirds contract and keeps the resulting receipts.
package chain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/Shivam-Patel-G/earlybirds/core/relay-chain/earlybirds"
	"github.com/Shivam-Patel-G/earlybirds/core/relay-chain/storage"
	"github.com/Shivam-Patel-G/earlybirds/core/relay-chain/token"
	"github.com/Shivam-Patel-G/earlybirds/core/relay-chain/txlog"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidSender   = errors.New("sender address is required")
	ErrReceiptNotFound = errors.New("receipt not found")
)

// DefaultRewardWORM is the per-registrant airdrop in whole tokens.
const DefaultRewardWORM = 100

// Options configure a chain. Supply, Funding and Reward only apply at genesis.
type Options struct {
	Owner   common.Address
	Supply  *big.Int
	Funding *big.Int
	Reward  *big.Int

	Store   storage.Store
	Journal *txlog.Journal
	Logger  *logrus.Logger
	Now     func() time.Time
}

// State is the persisted snapshot of the whole chain.
type State struct {
	Owner    common.Address            `json:"owner"`
	Block    uint64                    `json:"block"`
	Nonces   map[common.Address]uint64 `json:"nonces"`
	Token    token.State               `json:"token"`
	Contract earlybirds.ContractState  `json:"contract"`
	SavedAt  time.Time                 `json:"saved_at"`
}

// Blockchain serializes every state change into its own block.
type Blockchain struct {
	owner    common.Address
	token    *token.Token
	contract *earlybirds.EarlyBirds

	store   storage.Store
	journal *txlog.Journal
	logger  *logrus.Logger
	now     func() time.Time

	block     uint64
	nonces    map[common.Address]uint64
	committed State
	current   *Transaction
	pending   []Log
	mu        sync.Mutex

	subscribers map[uint64]chan *Receipt
	nextSub     uint64
	subMu       sync.Mutex

	startedAt time.Time
}

// New restores the chain from opts.Store, or runs genesis when the store is
// empty: the token and the contract are deployed by the owner and the
// contract is funded with opts.Funding.
func New(opts Options) (*Blockchain, error) {
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	if opts.Store == nil {
		opts.Store = storage.NewMemory()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Reward == nil {
		opts.Reward = token.ToWei(DefaultRewardWORM)
	}

	b := &Blockchain{
		owner:       opts.Owner,
		store:       opts.Store,
		journal:     opts.Journal,
		logger:      opts.Logger,
		now:         opts.Now,
		nonces:      make(map[common.Address]uint64),
		subscribers: make(map[uint64]chan *Receipt),
		startedAt:   time.Now(),
	}

	data, err := b.store.LoadState()
	switch {
	case err == nil:
		if err := b.restore(data); err != nil {
			return nil, err
		}
		if opts.Owner != (common.Address{}) && opts.Owner != b.owner {
			b.logger.WithFields(logrus.Fields{
				"configured": opts.Owner.Hex(),
				"stored":     b.owner.Hex(),
			}).Warn("Configured owner differs from the deployed chain; keeping the stored owner")
		}
	case errors.Is(err, storage.ErrNotFound):
		if err := b.genesis(opts); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("failed to load chain state: %w", err)
	}

	b.logger.WithFields(logrus.Fields{
		"owner":    b.owner.Hex(),
		"token":    b.token.Address.Hex(),
		"contract": b.contract.Address().Hex(),
		"block":    b.block,
		"store":    b.store.Backend(),
	}).Info("Chain ready")
	return b, nil
}

func (b *Blockchain) genesis(opts Options) error {
	if opts.Owner == (common.Address{}) {
		return fmt.Errorf("genesis: %w", ErrInvalidSender)
	}
	if opts.Supply == nil || opts.Supply.Sign() <= 0 {
		return errors.New("genesis: initial supply must be > 0")
	}

	// deployments consume the owner's first two nonces
	tokenAddr := crypto.CreateAddress(opts.Owner, 0)
	contractAddr := crypto.CreateAddress(opts.Owner, 1)

	wormies, err := token.NewWormies(tokenAddr, opts.Owner, opts.Supply, b.logger)
	if err != nil {
		return fmt.Errorf("genesis: deploy token: %w", err)
	}
	contract, err := earlybirds.New(contractAddr, opts.Owner, wormies, opts.Reward, b.logger)
	if err != nil {
		return fmt.Errorf("genesis: deploy contract: %w", err)
	}

	b.token = wormies
	b.contract = contract
	b.nonces[opts.Owner] = 2
	b.attach()

	b.logger.WithFields(logrus.Fields{
		"token":    tokenAddr.Hex(),
		"contract": contractAddr.Hex(),
		"supply":   opts.Supply.String(),
	}).Info("Genesis deployed")

	// Nothing reaches the store until the contract is funded, so a failed
	// funding leaves an empty store and the next start runs genesis again.
	b.mu.Lock()
	b.committed = b.snapshot()
	b.mu.Unlock()

	if opts.Funding != nil && opts.Funding.Sign() > 0 {
		if _, err := b.Transfer(opts.Owner, contractAddr, opts.Funding); err != nil {
			return fmt.Errorf("genesis: fund contract: %w", err)
		}
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	data, err := json.Marshal(b.committed)
	if err != nil {
		return fmt.Errorf("failed to encode chain state: %w", err)
	}
	if err := b.store.SaveState(data); err != nil {
		return fmt.Errorf("genesis: %w", err)
	}
	return nil
}

func (b *Blockchain) restore(data []byte) error {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("failed to decode chain state: %w", err)
	}

	wormies, err := token.NewWormies(s.Token.Address, s.Owner, nil, b.logger)
	if err != nil {
		return fmt.Errorf("restore token: %w", err)
	}
	if err := wormies.Restore(s.Token); err != nil {
		return fmt.Errorf("restore token: %w", err)
	}
	contract, err := earlybirds.New(s.Contract.Address, s.Contract.Owner, wormies, s.Contract.Reward, b.logger)
	if err != nil {
		return fmt.Errorf("restore contract: %w", err)
	}
	if err := contract.Restore(s.Contract); err != nil {
		return err
	}

	b.owner = s.Owner
	b.token = wormies
	b.contract = contract
	b.block = s.Block
	for addr, n := range s.Nonces {
		b.nonces[addr] = n
	}
	b.committed = s
	b.attach()

	b.logger.WithFields(logrus.Fields{
		"block":     s.Block,
		"campaigns": s.Contract.CampaignCount,
		"saved_at":  s.SavedAt,
	}).Info("Chain restored from store")
	return nil
}

// attach turns token and contract events into receipt logs. The handlers run
// inside execute with b.mu held.
func (b *Blockchain) attach() {
	b.token.RegisterEventHandler(func(e token.Event) {
		data := map[string]interface{}{
			"from": e.From.Hex(),
			"to":   e.To.Hex(),
		}
		if e.Amount != nil {
			data["value"] = e.Amount.String()
		}
		b.collect(b.token.Address, string(e.Type), data)
	})
	b.contract.RegisterEventHandler(func(e earlybirds.Event) {
		data := map[string]interface{}{
			"account": e.Account.Hex(),
		}
		if e.CampaignID != 0 {
			data["campaign_id"] = e.CampaignID
			data["state"] = e.State.String()
		}
		for k, v := range e.Data {
			data[k] = v
		}
		b.collect(b.contract.Address(), string(e.Type), data)
	})
}

func (b *Blockchain) collect(address common.Address, event string, data map[string]interface{}) {
	if b.current == nil {
		return
	}
	b.pending = append(b.pending, Log{
		Index:       uint(len(b.pending)),
		Address:     address,
		Event:       event,
		Data:        data,
		BlockNumber: b.block + 1,
		TxHash:      b.current.Hash,
	})
}

// execute runs fn as one transaction in a fresh block. The returned error is
// the revert reason, or the commit failure that discarded the block.
// Receipts are journaled and delivered under b.mu, so observers see blocks
// in commit order.
func (b *Blockchain) execute(from, to common.Address, method string, args map[string]interface{}, fn func(msg earlybirds.Msg) (map[string]interface{}, error)) (*Receipt, error) {
	if from == (common.Address{}) {
		return nil, ErrInvalidSender
	}
	started := time.Now()

	b.mu.Lock()
	defer b.mu.Unlock()

	at := b.now()
	tx := NewTransaction(from, to, method, args, b.nonces[from], at)
	block := b.block + 1

	b.current, b.pending = tx, nil
	ret, callErr := fn(earlybirds.Msg{
		Sender:      from,
		BlockNumber: block,
		Time:        at,
		TxHash:      tx.Hash,
	})
	logs := b.pending
	b.current, b.pending = nil, nil

	receipt := &Receipt{
		TxHash:      tx.Hash,
		BlockNumber: block,
		From:        from,
		To:          to,
		Method:      method,
		Nonce:       tx.Nonce,
		Status:      ReceiptStatusSuccessful,
		Logs:        logs,
		Return:      ret,
		Timestamp:   at,
	}
	if callErr != nil {
		receipt.Status = ReceiptStatusFailed
		receipt.Error = callErr.Error()
		receipt.Logs = nil
		receipt.Return = nil
	}
	if receipt.Logs == nil {
		receipt.Logs = []Log{}
	}
	receipt.GasUsed = gasUsed(len(receipt.Logs))

	b.block = block
	b.nonces[from]++
	if err := b.commit(receipt); err != nil {
		b.rollback()
		b.logger.WithFields(logrus.Fields{
			"tx":     tx.Hash.Hex(),
			"block":  block,
			"method": method,
		}).WithError(err).Error("Block discarded: commit failed")
		return nil, fmt.Errorf("commit block %d: %w", block, err)
	}

	b.record(tx, receipt, time.Since(started))
	b.notify(receipt)
	return receipt, callErr
}

// commit writes the snapshot and the receipt atomically. Callers hold b.mu.
func (b *Blockchain) commit(receipt *Receipt) error {
	state := b.snapshot()
	stateData, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode chain state: %w", err)
	}
	receiptData, err := json.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("failed to encode receipt: %w", err)
	}
	if err := b.store.Commit(stateData, receipt.TxHash, receipt.BlockNumber, receiptData); err != nil {
		return err
	}
	b.committed = state
	return nil
}

// rollback puts the token, the contract and the counters back to the last
// committed snapshot. Callers hold b.mu.
func (b *Blockchain) rollback() {
	s := b.committed
	if err := b.token.Restore(s.Token); err != nil {
		b.logger.WithError(err).Error("Failed to roll back token state")
	}
	if err := b.contract.Restore(s.Contract); err != nil {
		b.logger.WithError(err).Error("Failed to roll back contract state")
	}
	b.block = s.Block
	b.nonces = make(map[common.Address]uint64, len(s.Nonces))
	for addr, n := range s.Nonces {
		b.nonces[addr] = n
	}
}

// snapshot captures the chain. Callers hold b.mu.
func (b *Blockchain) snapshot() State {
	nonces := make(map[common.Address]uint64, len(b.nonces))
	for addr, n := range b.nonces {
		nonces[addr] = n
	}
	return State{
		Owner:    b.owner,
		Block:    b.block,
		Nonces:   nonces,
		Token:    b.token.Snapshot(),
		Contract: b.contract.Snapshot(),
		SavedAt:  b.now(),
	}
}

func (b *Blockchain) record(tx *Transaction, receipt *Receipt, elapsed time.Duration) {
	fields := logrus.Fields{
		"tx":     tx.Hash.Hex(),
		"block":  receipt.BlockNumber,
		"method": tx.Method,
		"from":   tx.From.Hex(),
		"logs":   len(receipt.Logs),
	}
	if receipt.Succeeded() {
		b.logger.WithFields(fields).Info("Transaction applied")
	} else {
		b.logger.WithFields(fields).WithField("reason", receipt.Error).Warn("Transaction reverted")
	}

	if b.journal == nil {
		return
	}
	status := txlog.StatusSuccess
	if !receipt.Succeeded() {
		status = txlog.StatusReverted
	}
	b.journal.Record(txlog.Entry{
		TxHash:           tx.Hash.Hex(),
		BlockHeight:      receipt.BlockNumber,
		Timestamp:        receipt.Timestamp,
		Operation:        tx.Method,
		From:             tx.From.Hex(),
		To:               tx.To.Hex(),
		Nonce:            tx.Nonce,
		Status:           status,
		ErrorMessage:     receipt.Error,
		GasUsed:          receipt.GasUsed,
		LogCount:         len(receipt.Logs),
		Events:           receipt.EventNames(),
		Metadata:         tx.Args,
		ProcessingTimeMs: elapsed.Milliseconds(),
	})
}

// Subscribe delivers every receipt committed after the call. Slow
// subscribers miss receipts once their buffer is full. The returned func
// cancels the subscription and closes the channel.
func (b *Blockchain) Subscribe(buffer int) (<-chan *Receipt, func()) {
	ch := make(chan *Receipt, buffer)

	b.subMu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subscribers[id] = ch
	b.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.subMu.Lock()
			delete(b.subscribers, id)
			b.subMu.Unlock()
			close(ch)
		})
	}
}

func (b *Blockchain) notify(receipt *Receipt) {
	b.subMu.Lock()
	defer b.subMu.Unlock()

	for id, ch := range b.subscribers {
		select {
		case ch <- receipt:
		default:
			b.logger.WithField("subscriber", id).Debug("Receipt dropped for slow subscriber")
		}
	}
}

// Close releases the store and the journal.
func (b *Blockchain) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var firstErr error
	if b.journal != nil {
		firstErr = b.journal.Close()
	}
	if err := b.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
