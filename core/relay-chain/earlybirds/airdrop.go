package earlybirds

import (
	"fmt"
	"math/big"

	"github.com/sirupsen/logrus"
)

// Airdrop pays the reward to every registrant out of the contract balance.
// The owner and the admin may airdrop any campaign; the host may airdrop its
// own campaign while demo mode is on. Each campaign is airdropped once.
func (c *EarlyBirds) Airdrop(msg Msg, id uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.airdrop(msg, id)
}

// AirdropLatest airdrops the most recently added campaign.
func (c *EarlyBirds) AirdropLatest(msg Msg) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.campaignCount == 0 {
		return 0, ErrNoCampaigns
	}
	id := c.campaignCount
	return id, c.airdrop(msg, id)
}

func (c *EarlyBirds) airdrop(msg Msg, id uint64) error {
	camp, err := c.campaign(id)
	if err != nil {
		return err
	}
	if !c.canAirdrop(msg.Sender, camp) {
		c.logger.WithFields(logrus.Fields{
			"campaign": id,
			"sender":   msg.Sender.Hex(),
			"demo":     c.demo,
		}).Warn("Airdrop rejected: sender not authorized")
		return ErrAirdropForbidden
	}
	if camp.State == Airdropped {
		return ErrAlreadyAirdropped
	}

	recipients := camp.Registrants
	if err := c.token.TransferBatch(c.address, recipients, c.reward); err != nil {
		return fmt.Errorf("%w: %w", ErrAirdropFailed, err)
	}

	previous := camp.State
	camp.State = Airdropped
	airdroppedAt := msg.Time
	camp.AirdroppedAt = &airdroppedAt

	total := new(big.Int).Mul(c.reward, big.NewInt(int64(len(recipients))))
	c.emit(msg, EventAirdrop, camp, msg.Sender, map[string]interface{}{
		"previous_state": previous.String(),
		"recipients":     len(recipients),
		"reward":         c.reward.String(),
		"total":          total.String(),
	})
	c.logger.WithFields(logrus.Fields{
		"campaign":   id,
		"recipients": len(recipients),
		"total":      total.String(),
		"by":         msg.Sender.Hex(),
	}).Info("Airdrop complete")
	return nil
}
