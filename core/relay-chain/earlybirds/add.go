package earlybirds

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

// AddCampaign opens a new campaign hosted by the sender and returns its id.
func (c *EarlyBirds) AddCampaign(msg Msg, title string, capacity uint64) (uint64, error) {
	title = strings.TrimSpace(title)
	if msg.Sender == (common.Address{}) {
		return 0, ErrInvalidAddress
	}
	if title == "" {
		return 0, ErrInvalidTitle
	}
	if capacity == 0 {
		return 0, ErrInvalidCapacity
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.campaignCount + 1
	camp := &Campaign{
		ID:           id,
		Title:        title,
		Code:         c.generateCode(msg, id, title),
		State:        Open,
		Capacity:     capacity,
		Host:         msg.Sender,
		Registrants:  []common.Address{},
		CreatedAt:    msg.Time,
		CreatedBlock: msg.BlockNumber,
		registered:   make(map[common.Address]struct{}),
	}
	c.campaignCount = id
	c.campaigns[id] = camp
	c.codes[camp.Code] = id

	c.emit(msg, EventCampaignOpened, camp, msg.Sender, map[string]interface{}{
		"title":    title,
		"code":     camp.Code,
		"capacity": capacity,
	})

	c.logger.WithFields(logrus.Fields{
		"campaign": id,
		"host":     msg.Sender.Hex(),
		"capacity": capacity,
		"code":     camp.Code,
	}).Info("Campaign opened")
	return id, nil
}

// GetCampaignID returns the id of the most recently added campaign, 0 if none.
func (c *EarlyBirds) GetCampaignID() uint64 {
	return c.CampaignCount()
}

func (c *EarlyBirds) GetCampaignDetails(id uint64) (Details, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	camp, err := c.campaign(id)
	if err != nil {
		return Details{}, err
	}
	return camp.details(), nil
}

func (c *EarlyBirds) GetLastCampaignDetails() (Details, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.campaignCount == 0 {
		return Details{}, ErrNoCampaigns
	}
	return c.campaigns[c.campaignCount].details(), nil
}

// GetCampaign returns a full copy of the campaign including registrants.
func (c *EarlyBirds) GetCampaign(id uint64) (Campaign, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	camp, err := c.campaign(id)
	if err != nil {
		return Campaign{}, err
	}
	return camp.clone(), nil
}

// CampaignByCode resolves a registration code.
func (c *EarlyBirds) CampaignByCode(code string) (Details, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	id, ok := c.codes[NormalizeCode(code)]
	if !ok {
		return Details{}, ErrCampaignNotFound
	}
	return c.campaigns[id].details(), nil
}

// Campaigns lists every campaign in ascending id order.
func (c *EarlyBirds) Campaigns() []Details {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Details, 0, c.campaignCount)
	for id := uint64(1); id <= c.campaignCount; id++ {
		out = append(out, c.campaigns[id].details())
	}
	return out
}

// Registrants returns the campaign's registrants in registration order.
func (c *EarlyBirds) Registrants(id uint64) ([]common.Address, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	camp, err := c.campaign(id)
	if err != nil {
		return nil, err
	}
	return append([]common.Address(nil), camp.Registrants...), nil
}

func (c *EarlyBirds) IsRegistered(id uint64, addr common.Address) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	camp, err := c.campaign(id)
	if err != nil {
		return false, err
	}
	return camp.isRegistered(addr), nil
}
