package earlybirds

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ContractState is the persisted form of the contract.
type ContractState struct {
	Address       common.Address `json:"address"`
	Owner         common.Address `json:"owner"`
	Admin         common.Address `json:"admin"`
	Demo          bool           `json:"demo"`
	Reward        *big.Int       `json:"reward"`
	CampaignCount uint64         `json:"campaign_count"`
	Campaigns     []Campaign     `json:"campaigns"`
}

func (c *EarlyBirds) Snapshot() ContractState {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := ContractState{
		Address:       c.address,
		Owner:         c.owner,
		Admin:         c.admin,
		Demo:          c.demo,
		Reward:        new(big.Int).Set(c.reward),
		CampaignCount: c.campaignCount,
		Campaigns:     make([]Campaign, 0, c.campaignCount),
	}
	for id := uint64(1); id <= c.campaignCount; id++ {
		s.Campaigns = append(s.Campaigns, c.campaigns[id].clone())
	}
	return s
}

// Restore replaces the contract state with s after checking it is coherent.
func (c *EarlyBirds) Restore(s ContractState) error {
	if uint64(len(s.Campaigns)) != s.CampaignCount {
		return fmt.Errorf("restore: %d campaigns recorded, count says %d", len(s.Campaigns), s.CampaignCount)
	}
	if s.Reward == nil || s.Reward.Sign() <= 0 {
		return fmt.Errorf("restore: invalid reward %v", s.Reward)
	}

	campaigns := make(map[uint64]*Campaign, len(s.Campaigns))
	codes := make(map[string]uint64, len(s.Campaigns))
	for i := range s.Campaigns {
		camp := s.Campaigns[i].clone()
		if camp.ID != uint64(i+1) {
			return fmt.Errorf("restore: campaign at position %d has id %d", i, camp.ID)
		}
		if _, dup := codes[camp.Code]; dup {
			return fmt.Errorf("restore: duplicate code %s", camp.Code)
		}
		if uint64(len(camp.Registrants)) > camp.Capacity {
			return fmt.Errorf("restore: campaign %d over capacity", camp.ID)
		}
		camp.registered = make(map[common.Address]struct{}, len(camp.Registrants))
		for _, r := range camp.Registrants {
			if _, dup := camp.registered[r]; dup {
				return fmt.Errorf("restore: campaign %d lists %s twice", camp.ID, r.Hex())
			}
			camp.registered[r] = struct{}{}
		}
		campaigns[camp.ID] = &camp
		codes[camp.Code] = camp.ID
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.address = s.Address
	c.owner = s.Owner
	c.admin = s.Admin
	c.demo = s.Demo
	c.reward = new(big.Int).Set(s.Reward)
	c.campaignCount = s.CampaignCount
	c.campaigns = campaigns
	c.codes = codes
	c.events = nil
	return nil
}
