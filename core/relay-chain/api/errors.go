package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Shivam-Patel-G/earlybirds/core/relay-chain/chain"
	"github.com/Shivam-Patel-G/earlybirds/core/relay-chain/earlybirds"
	"github.com/Shivam-Patel-G/earlybirds/core/relay-chain/token"
)

var errBadRequest = errors.New("bad request")

var (
	notFoundErrors = []error{
		earlybirds.ErrCampaignNotFound,
		earlybirds.ErrNoCampaigns,
		chain.ErrReceiptNotFound,
	}
	forbiddenErrors = []error{
		earlybirds.ErrNotHost,
		earlybirds.ErrNotOwner,
		earlybirds.ErrAirdropForbidden,
		token.ErrUnauthorized,
	}
	conflictErrors = []error{
		earlybirds.ErrCampaignFull,
		earlybirds.ErrCampaignNotOpen,
		earlybirds.ErrAlreadyRegistered,
		earlybirds.ErrAlreadyClosed,
		earlybirds.ErrAlreadyAirdropped,
		earlybirds.ErrAirdropFailed,
		token.ErrInsufficientBalance,
		token.ErrAllowanceExceeded,
		token.ErrPaused,
	}
	badRequestErrors = []error{
		errBadRequest,
		chain.ErrInvalidSender,
		earlybirds.ErrInvalidAddress,
		earlybirds.ErrInvalidTitle,
		earlybirds.ErrInvalidCapacity,
		token.ErrInvalidAddress,
		token.ErrInvalidAmount,
		token.ErrSelfTransfer,
	}
)

func statusFor(err error) int {
	for _, group := range []struct {
		errs   []error
		status int
	}{
		{notFoundErrors, http.StatusNotFound},
		{forbiddenErrors, http.StatusForbidden},
		{conflictErrors, http.StatusConflict},
		{badRequestErrors, http.StatusBadRequest},
	} {
		for _, target := range group.errs {
			if errors.Is(err, target) {
				return group.status
			}
		}
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError reports err with its mapped status. A reverted transaction's
// receipt is included when there is one.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, receipt *chain.Receipt) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.WithField("request_id", requestID(r)).WithError(err).Error("Internal error")
	}
	body := map[string]interface{}{"error": err.Error()}
	if receipt != nil {
		body["receipt"] = receipt
	}
	writeJSON(w, status, body)
}
