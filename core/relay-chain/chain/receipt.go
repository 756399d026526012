package chain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
)

const (
	ReceiptStatusFailed     = uint64(0)
	ReceiptStatusSuccessful = uint64(1)
)

// Log is an event emitted by the token or the contract during a transaction.
type Log struct {
	Index       uint                   `json:"log_index"`
	Address     common.Address         `json:"address"`
	Event       string                 `json:"event"`
	Data        map[string]interface{} `json:"data,omitempty"`
	BlockNumber uint64                 `json:"block_number"`
	TxHash      common.Hash            `json:"tx_hash"`
}

// Receipt is the outcome of a transaction. A reverted transaction has status
// 0, an error message and no logs.
type Receipt struct {
	TxHash      common.Hash            `json:"tx_hash"`
	BlockNumber uint64                 `json:"block_number"`
	From        common.Address         `json:"from"`
	To          common.Address         `json:"to"`
	Method      string                 `json:"method"`
	Nonce       uint64                 `json:"nonce"`
	Status      uint64                 `json:"status"`
	Error       string                 `json:"error,omitempty"`
	Logs        []Log                  `json:"logs"`
	Return      map[string]interface{} `json:"return,omitempty"`
	GasUsed     uint64                 `json:"gas_used"`
	Timestamp   time.Time              `json:"timestamp"`
}

func (r *Receipt) Succeeded() bool {
	return r.Status == ReceiptStatusSuccessful
}

// EventNames lists the log event names in emission order.
func (r *Receipt) EventNames() []string {
	names := make([]string, 0, len(r.Logs))
	for _, l := range r.Logs {
		names = append(names, l.Event)
	}
	return names
}

// gasUsed charges the intrinsic transaction cost plus a flat fee per log.
func gasUsed(logs int) uint64 {
	return params.TxGas + uint64(logs)*params.LogGas
}
