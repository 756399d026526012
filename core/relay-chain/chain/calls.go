package chain

import (
	"encoding/json"
	"errors"
	"math/big"
	"time"

	"github.com/Shivam-Patel-G/earlybirds/core/relay-chain/earlybirds"
	"github.com/Shivam-Patel-G/earlybirds/core/relay-chain/storage"
	"github.com/Shivam-Patel-G/earlybirds/core/relay-chain/token"
	"github.com/ethereum/go-ethereum/common"
)

// Transfer moves Wormies between accounts.
func (b *Blockchain) Transfer(from, to common.Address, amount *big.Int) (*Receipt, error) {
	args := map[string]interface{}{"to": to.Hex(), "amount": amount.String()}
	return b.execute(from, b.token.Address, MethodTransfer, args, func(msg earlybirds.Msg) (map[string]interface{}, error) {
		return nil, b.token.Transfer(msg.Sender, to, amount)
	})
}

// AddCampaign returns the new campaign id and code in the receipt.
func (b *Blockchain) AddCampaign(from common.Address, title string, capacity uint64) (*Receipt, error) {
	args := map[string]interface{}{"title": title, "capacity": capacity}
	return b.execute(from, b.contract.Address(), MethodAddCampaign, args, func(msg earlybirds.Msg) (map[string]interface{}, error) {
		id, err := b.contract.AddCampaign(msg, title, capacity)
		if err != nil {
			return nil, err
		}
		details, err := b.contract.GetCampaignDetails(id)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"id": id, "code": details.Code}, nil
	})
}

func (b *Blockchain) Register(from common.Address, code string) (*Receipt, error) {
	args := map[string]interface{}{"code": code}
	return b.execute(from, b.contract.Address(), MethodRegister, args, func(msg earlybirds.Msg) (map[string]interface{}, error) {
		id, err := b.contract.Register(msg, code)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"id": id}, nil
	})
}

func (b *Blockchain) CloseCampaign(from common.Address, id uint64) (*Receipt, error) {
	args := map[string]interface{}{"id": id}
	return b.execute(from, b.contract.Address(), MethodClose, args, func(msg earlybirds.Msg) (map[string]interface{}, error) {
		if err := b.contract.Close(msg, id); err != nil {
			return nil, err
		}
		return map[string]interface{}{"id": id}, nil
	})
}

func (b *Blockchain) CloseLatestCampaign(from common.Address) (*Receipt, error) {
	return b.execute(from, b.contract.Address(), MethodCloseLatest, nil, func(msg earlybirds.Msg) (map[string]interface{}, error) {
		id, err := b.contract.CloseLatest(msg)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"id": id}, nil
	})
}

func (b *Blockchain) Airdrop(from common.Address, id uint64) (*Receipt, error) {
	args := map[string]interface{}{"id": id}
	return b.execute(from, b.contract.Address(), MethodAirdrop, args, func(msg earlybirds.Msg) (map[string]interface{}, error) {
		if err := b.contract.Airdrop(msg, id); err != nil {
			return nil, err
		}
		return map[string]interface{}{"id": id}, nil
	})
}

func (b *Blockchain) AirdropLatestCampaign(from common.Address) (*Receipt, error) {
	return b.execute(from, b.contract.Address(), MethodAirdropLatest, nil, func(msg earlybirds.Msg) (map[string]interface{}, error) {
		id, err := b.contract.AirdropLatest(msg)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"id": id}, nil
	})
}

func (b *Blockchain) SetDemo(from common.Address, demo bool) (*Receipt, error) {
	args := map[string]interface{}{"demo": demo}
	return b.execute(from, b.contract.Address(), MethodSetDemo, args, func(msg earlybirds.Msg) (map[string]interface{}, error) {
		return nil, b.contract.SetDemo(msg, demo)
	})
}

func (b *Blockchain) SetAdmin(from, admin common.Address) (*Receipt, error) {
	args := map[string]interface{}{"admin": admin.Hex()}
	return b.execute(from, b.contract.Address(), MethodSetAdmin, args, func(msg earlybirds.Msg) (map[string]interface{}, error) {
		return nil, b.contract.SetAdmin(msg, admin)
	})
}

func (b *Blockchain) TransferOwnership(from, newOwner common.Address) (*Receipt, error) {
	args := map[string]interface{}{"owner": newOwner.Hex()}
	return b.execute(from, b.contract.Address(), MethodTransferOwnership, args, func(msg earlybirds.Msg) (map[string]interface{}, error) {
		return nil, b.contract.TransferOwnership(msg, newOwner)
	})
}

func (b *Blockchain) Token() *token.Token {
	return b.token
}

func (b *Blockchain) Contract() *earlybirds.EarlyBirds {
	return b.contract
}

// Owner is the deployer of the token and the contract.
func (b *Blockchain) Owner() common.Address {
	return b.owner
}

func (b *Blockchain) BlockNumber() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.block
}

// Nonce is the number of transactions sent by addr, deployments included.
func (b *Blockchain) Nonce(addr common.Address) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nonces[addr]
}

func (b *Blockchain) StoreBackend() string {
	return b.store.Backend()
}

func (b *Blockchain) Uptime() time.Duration {
	return time.Since(b.startedAt)
}

func (b *Blockchain) Receipt(hash common.Hash) (*Receipt, error) {
	data, err := b.store.GetReceipt(hash)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrReceiptNotFound
	}
	if err != nil {
		return nil, err
	}
	var r Receipt
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Receipts lists up to limit receipts, newest first.
func (b *Blockchain) Receipts(limit int) ([]*Receipt, error) {
	raw, err := b.store.Receipts(limit)
	if err != nil {
		return nil, err
	}
	out := make([]*Receipt, 0, len(raw))
	for _, data := range raw {
		var r Receipt
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, nil
}
