package api

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Shivam-Patel-G/earlybirds/core/relay-chain/chain"
	"github.com/Shivam-Patel-G/earlybirds/core/relay-chain/earlybirds"
	"github.com/Shivam-Patel-G/earlybirds/core/relay-chain/registry"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/mux"
)

const (
	defaultReceiptLimit = 50
	maxReceiptLimit     = 500
)

// txRequest is the body of every write. From plays the role of the signer.
type txRequest struct {
	From     string `json:"from"`
	Title    string `json:"title,omitempty"`
	Capacity uint64 `json:"capacity,omitempty"`
	Code     string `json:"code,omitempty"`
	Demo     *bool  `json:"demo,omitempty"`
	Admin    string `json:"admin,omitempty"`
	Owner    string `json:"owner,omitempty"`
	To       string `json:"to,omitempty"`
	Amount   string `json:"amount,omitempty"`
}

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
	Block      uint64            `json:"block"`
	Uptime     string            `json:"uptime"`
	Version    string            `json:"version"`
	Healthy    bool              `json:"healthy"`
}

func parseAddress(field, value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%w: %s %q is not an address", errBadRequest, field, value)
	}
	return common.HexToAddress(value), nil
}

func decodeTx(r *http.Request) (txRequest, common.Address, error) {
	var req txRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, common.Address{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	from, err := parseAddress("from", req.From)
	return req, from, err
}

func campaignID(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: campaign id: %v", errBadRequest, err)
	}
	return id, nil
}

// respondTx writes a receipt, or the revert with its receipt.
func (s *Server) respondTx(w http.ResponseWriter, r *http.Request, receipt *chain.Receipt, err error) {
	if err != nil {
		s.writeError(w, r, err, receipt)
		return
	}
	body := map[string]interface{}{"receipt": receipt}
	for k, v := range receipt.Return {
		body[k] = v
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Components: map[string]string{
			"store":     s.chain.StoreBackend(),
			"contract":  s.chain.Contract().Address().Hex(),
			"websocket": fmt.Sprintf("%d clients", s.hub.Clients()),
		},
		Block:   s.chain.BlockNumber(),
		Uptime:  s.chain.Uptime().Round(time.Second).String(),
		Version: Version,
		Healthy: true,
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleContract(w http.ResponseWriter, r *http.Request) {
	c := s.chain.Contract()
	balance, err := c.Balance()
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"address":        c.Address().Hex(),
		"token":          s.chain.Token().Address.Hex(),
		"owner":          c.Owner().Hex(),
		"admin":          c.Admin().Hex(),
		"demo":           c.Demo(),
		"campaign_count": c.CampaignCount(),
		"reward":         c.Reward().String(),
		"balance":        balance.String(),
		"balance_human":  s.chain.Token().Format(balance),
	})
}

func (s *Server) handleAddCampaign(w http.ResponseWriter, r *http.Request) {
	req, from, err := decodeTx(r)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	receipt, err := s.chain.AddCampaign(from, req.Title, req.Capacity)
	s.respondTx(w, r, receipt, err)
}

func (s *Server) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns := s.chain.Contract().Campaigns()
	if state := r.URL.Query().Get("state"); state != "" {
		want, err := earlybirds.ParseState(state)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err), nil)
			return
		}
		filtered := campaigns[:0]
		for _, c := range campaigns {
			if c.State == want {
				filtered = append(filtered, c)
			}
		}
		campaigns = filtered
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"campaigns": campaigns,
		"count":     len(campaigns),
	})
}

func (s *Server) handleLatestCampaign(w http.ResponseWriter, r *http.Request) {
	details, err := s.chain.Contract().GetLastCampaignDetails()
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (s *Server) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := campaignID(r)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	details, err := s.chain.Contract().GetCampaignDetails(id)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (s *Server) handleRegistrants(w http.ResponseWriter, r *http.Request) {
	id, err := campaignID(r)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	registrants, err := s.chain.Contract().Registrants(id)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":          id,
		"registrants": registrants,
	})
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	id, err := campaignID(r)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	_, from, err := decodeTx(r)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	receipt, err := s.chain.CloseCampaign(from, id)
	s.respondTx(w, r, receipt, err)
}

func (s *Server) handleCloseLatest(w http.ResponseWriter, r *http.Request) {
	_, from, err := decodeTx(r)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	receipt, err := s.chain.CloseLatestCampaign(from)
	s.respondTx(w, r, receipt, err)
}

func (s *Server) handleAirdrop(w http.ResponseWriter, r *http.Request) {
	id, err := campaignID(r)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	_, from, err := decodeTx(r)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	receipt, err := s.chain.Airdrop(from, id)
	s.respondTx(w, r, receipt, err)
}

func (s *Server) handleAirdropLatest(w http.ResponseWriter, r *http.Request) {
	_, from, err := decodeTx(r)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	receipt, err := s.chain.AirdropLatestCampaign(from)
	s.respondTx(w, r, receipt, err)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	req, from, err := decodeTx(r)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		s.writeError(w, r, fmt.Errorf("%w: code is required", errBadRequest), nil)
		return
	}
	receipt, err := s.chain.Register(from, req.Code)
	s.respondTx(w, r, receipt, err)
}

func (s *Server) handleSetDemo(w http.ResponseWriter, r *http.Request) {
	req, from, err := decodeTx(r)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	if req.Demo == nil {
		s.writeError(w, r, fmt.Errorf("%w: demo is required", errBadRequest), nil)
		return
	}
	receipt, err := s.chain.SetDemo(from, *req.Demo)
	s.respondTx(w, r, receipt, err)
}

func (s *Server) handleSetAdmin(w http.ResponseWriter, r *http.Request) {
	req, from, err := decodeTx(r)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	admin, err := parseAddress("admin", req.Admin)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	receipt, err := s.chain.SetAdmin(from, admin)
	s.respondTx(w, r, receipt, err)
}

func (s *Server) handleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	req, from, err := decodeTx(r)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	newOwner, err := parseAddress("owner", req.Owner)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	receipt, err := s.chain.TransferOwnership(from, newOwner)
	s.respondTx(w, r, receipt, err)
}

func (s *Server) handleTokenInfo(w http.ResponseWriter, r *http.Request) {
	t := s.chain.Token()
	status := t.GetTokenStatus()
	status["supply_human"] = t.Format(t.TotalSupply())
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress("address", mux.Vars(r)["address"])
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	t := s.chain.Token()
	balance, err := t.BalanceOf(addr)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"address":       addr.Hex(),
		"balance":       balance.String(),
		"balance_human": t.Format(balance),
	})
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	req, from, err := decodeTx(r)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	to, err := parseAddress("to", req.To)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok {
		s.writeError(w, r, fmt.Errorf("%w: amount %q is not a base-10 integer", errBadRequest, req.Amount), nil)
		return
	}
	receipt, err := s.chain.Transfer(from, to, amount)
	s.respondTx(w, r, receipt, err)
}

func (s *Server) handleReceipts(w http.ResponseWriter, r *http.Request) {
	limit := defaultReceiptLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, r, fmt.Errorf("%w: limit must be a non-negative integer", errBadRequest), nil)
			return
		}
		if n > 0 {
			limit = n
		}
	}
	if limit > maxReceiptLimit {
		limit = maxReceiptLimit
	}
	receipts, err := s.chain.Receipts(limit)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"receipts": receipts,
		"count":    len(receipts),
	})
}

func (s *Server) handleReceipt(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["hash"]
	b, err := hexutil.Decode(raw)
	if err != nil || len(b) != common.HashLength {
		s.writeError(w, r, fmt.Errorf("%w: %q is not a transaction hash", errBadRequest, raw), nil)
		return
	}
	receipt, err := s.chain.Receipt(common.BytesToHash(b))
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// handleAccounts lists the account index. ?active=<duration> keeps only
// accounts active within that window.
func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	var accounts []registry.AccountInfo
	if v := r.URL.Query().Get("active"); v != "" {
		since, err := time.ParseDuration(v)
		if err != nil || since <= 0 {
			s.writeError(w, r, fmt.Errorf("%w: active must be a positive duration such as 1h", errBadRequest), nil)
			return
		}
		accounts = s.accounts.GetActiveAccounts(since, time.Now())
	} else {
		accounts = s.accounts.GetAllAccounts()
	}
	if accounts == nil {
		accounts = []registry.AccountInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"accounts": accounts,
		"stats":    s.accounts.GetStats(),
	})
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress("address", mux.Vars(r)["address"])
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	account, ok := s.accounts.GetAccount(addr)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "account has no activity"})
		return
	}
	writeJSON(w, http.StatusOK, account)
}
