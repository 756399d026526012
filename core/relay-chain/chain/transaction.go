package chain

import (
	"encoding/json"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Methods accepted by the chain. Names follow the contract ABI.
const (
	MethodTransfer          = "transfer"
	MethodAddCampaign       = "addCampaign"
	MethodRegister          = "register"
	MethodClose             = "closeCampaign"
	MethodCloseLatest       = "closeLatestCampaign"
	MethodAirdrop           = "airdrop"
	MethodAirdropLatest     = "airdropLatestCampaign"
	MethodSetDemo           = "setDemo"
	MethodSetAdmin          = "setAdmin"
	MethodTransferOwnership = "transferOwnership"
)

// Transaction is a state-changing call against the token or the contract.
type Transaction struct {
	Hash      common.Hash            `json:"hash"`
	From      common.Address         `json:"from"`
	To        common.Address         `json:"to"`
	Method    string                 `json:"method"`
	Args      map[string]interface{} `json:"args,omitempty"`
	Nonce     uint64                 `json:"nonce"`
	Timestamp int64                  `json:"timestamp"`
}

func NewTransaction(from, to common.Address, method string, args map[string]interface{}, nonce uint64, at time.Time) *Transaction {
	tx := &Transaction{
		From:      from,
		To:        to,
		Method:    method,
		Args:      args,
		Nonce:     nonce,
		Timestamp: at.UnixNano(),
	}
	tx.Hash = tx.CalculateHash()
	return tx
}

// CalculateHash is Keccak256 over the JSON encoding of every field but the hash.
func (tx *Transaction) CalculateHash() common.Hash {
	data, _ := json.Marshal(struct {
		From      common.Address         `json:"from"`
		To        common.Address         `json:"to"`
		Method    string                 `json:"method"`
		Args      map[string]interface{} `json:"args"`
		Nonce     uint64                 `json:"nonce"`
		Timestamp int64                  `json:"timestamp"`
	}{
		tx.From,
		tx.To,
		tx.Method,
		tx.Args,
		tx.Nonce,
		tx.Timestamp,
	})
	return crypto.Keccak256Hash(data)
}
