package earlybirds

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// State is the lifecycle position of a campaign. States only move forward.
type State uint8

const (
	Open State = iota
	Full
	Closed
	Airdropped
)

var stateNames = [...]string{"Open", "Full", "Closed", "Airdropped"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

func (s State) MarshalText() ([]byte, error) {
	if int(s) >= len(stateNames) {
		return nil, fmt.Errorf("unknown campaign state %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	st, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// ParseState accepts a state name, case-insensitive.
func ParseState(name string) (State, error) {
	for i, n := range stateNames {
		if strings.EqualFold(n, name) {
			return State(i), nil
		}
	}
	return 0, fmt.Errorf("unknown campaign state %q", name)
}

// Campaign is a capacity-limited sign-up list owned by its host.
type Campaign struct {
	ID           uint64           `json:"id"`
	Title        string           `json:"title"`
	Code         string           `json:"code"`
	State        State            `json:"state"`
	Capacity     uint64           `json:"capacity"`
	Host         common.Address   `json:"host"`
	Registrants  []common.Address `json:"registrants"`
	CreatedAt    time.Time        `json:"created_at"`
	CreatedBlock uint64           `json:"created_block"`
	ClosedAt     *time.Time       `json:"closed_at,omitempty"`
	AirdroppedAt *time.Time       `json:"airdropped_at,omitempty"`

	registered map[common.Address]struct{}
}

// Details mirrors the getCampaignDetails tuple plus the registrant count.
type Details struct {
	ID         uint64         `json:"id"`
	Title      string         `json:"title"`
	Code       string         `json:"code"`
	State      State          `json:"state"`
	Capacity   uint64         `json:"capacity"`
	Host       common.Address `json:"host"`
	Registered uint64         `json:"registered"`
}

func (c *Campaign) details() Details {
	return Details{
		ID:         c.ID,
		Title:      c.Title,
		Code:       c.Code,
		State:      c.State,
		Capacity:   c.Capacity,
		Host:       c.Host,
		Registered: uint64(len(c.Registrants)),
	}
}

func (c *Campaign) clone() Campaign {
	cp := *c
	cp.Registrants = make([]common.Address, len(c.Registrants))
	copy(cp.Registrants, c.Registrants)
	cp.registered = nil
	return cp
}

func (c *Campaign) isRegistered(addr common.Address) bool {
	_, ok := c.registered[addr]
	return ok
}

func (c *Campaign) seats() uint64 {
	return c.Capacity - uint64(len(c.Registrants))
}
