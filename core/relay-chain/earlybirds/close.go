package earlybirds

import "github.com/sirupsen/logrus"

// Close stops registration. Only the host may close, from Open or Full.
func (c *EarlyBirds) Close(msg Msg, id uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.close(msg, id)
}

// CloseLatest closes the most recently added campaign.
func (c *EarlyBirds) CloseLatest(msg Msg) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.campaignCount == 0 {
		return 0, ErrNoCampaigns
	}
	id := c.campaignCount
	return id, c.close(msg, id)
}

func (c *EarlyBirds) close(msg Msg, id uint64) error {
	camp, err := c.campaign(id)
	if err != nil {
		return err
	}
	if msg.Sender != camp.Host {
		c.logger.WithFields(logrus.Fields{
			"campaign": id,
			"sender":   msg.Sender.Hex(),
		}).Warn("Close rejected: sender is not the host")
		return ErrNotHost
	}
	switch camp.State {
	case Closed:
		return ErrAlreadyClosed
	case Airdropped:
		return ErrAlreadyAirdropped
	}

	previous := camp.State
	camp.State = Closed
	closedAt := msg.Time
	camp.ClosedAt = &closedAt

	c.emit(msg, EventCampaignClosed, camp, msg.Sender, map[string]interface{}{
		"previous_state": previous.String(),
		"registered":     len(camp.Registrants),
	})
	c.logger.WithFields(logrus.Fields{
		"campaign":   id,
		"registered": len(camp.Registrants),
	}).Info("Campaign closed")
	return nil
}
