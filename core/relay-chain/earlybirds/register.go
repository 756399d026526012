package earlybirds

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

// Register signs the sender up for the campaign behind code and returns the
// campaign id. Filling the last seat moves the campaign to Full; the full
// notice is logged before the registration itself.
func (c *EarlyBirds) Register(msg Msg, code string) (uint64, error) {
	if msg.Sender == (common.Address{}) {
		return 0, ErrInvalidAddress
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// the contract pays the rewards and cannot be one of the payees
	if msg.Sender == c.address {
		return 0, ErrInvalidAddress
	}

	id, ok := c.codes[NormalizeCode(code)]
	if !ok {
		return 0, ErrCampaignNotFound
	}
	camp := c.campaigns[id]

	switch camp.State {
	case Open:
	case Full:
		return 0, ErrCampaignFull
	default:
		return 0, ErrCampaignNotOpen
	}
	if camp.isRegistered(msg.Sender) {
		return 0, ErrAlreadyRegistered
	}

	camp.Registrants = append(camp.Registrants, msg.Sender)
	camp.registered[msg.Sender] = struct{}{}

	if camp.seats() == 0 {
		camp.State = Full
		c.emit(msg, EventCampaignFull, camp, msg.Sender, map[string]interface{}{
			"capacity": camp.Capacity,
		})
		c.logger.WithField("campaign", id).Info("Campaign is full")
	}
	c.emit(msg, EventRegistration, camp, msg.Sender, map[string]interface{}{
		"registered": len(camp.Registrants),
		"capacity":   camp.Capacity,
	})

	c.logger.WithFields(logrus.Fields{
		"campaign":   id,
		"registrant": msg.Sender.Hex(),
		"seats_left": camp.seats(),
	}).Info("Registration recorded")
	return id, nil
}
