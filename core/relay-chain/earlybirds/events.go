package earlybirds

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type EventType string

const (
	EventCampaignOpened       EventType = "LogCampaignOpened"
	EventCampaignFull         EventType = "LogCampaignFull"
	EventRegistration         EventType = "LogRegistration"
	EventCampaignClosed       EventType = "LogCampaignClosed"
	EventAirdrop              EventType = "LogAirdrop"
	EventDemoChanged          EventType = "LogDemoChanged"
	EventAdminChanged         EventType = "LogAdminChanged"
	EventOwnershipTransferred EventType = "LogOwnershipTransferred"
)

// Event is a contract log entry.
type Event struct {
	Type        EventType              `json:"type"`
	CampaignID  uint64                 `json:"campaign_id,omitempty"`
	Account     common.Address         `json:"account"`
	State       State                  `json:"state"`
	BlockNumber uint64                 `json:"block_number"`
	TxHash      common.Hash            `json:"tx_hash"`
	Timestamp   time.Time              `json:"timestamp"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// EventHandler observes contract events. Handlers run synchronously with the
// contract lock held and must not call back into the contract.
type EventHandler func(event Event)

func (c *EarlyBirds) RegisterEventHandler(handler EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, handler)
}

// emit records and dispatches an event. Callers hold c.mu.
func (c *EarlyBirds) emit(msg Msg, typ EventType, camp *Campaign, account common.Address, data map[string]interface{}) {
	event := Event{
		Type:        typ,
		Account:     account,
		BlockNumber: msg.BlockNumber,
		TxHash:      msg.TxHash,
		Timestamp:   msg.Time,
		Data:        data,
	}
	if camp != nil {
		event.CampaignID = camp.ID
		event.State = camp.State
	}
	c.events = appendEvent(c.events, event)
	for _, handler := range c.handlers {
		handler(event)
	}
}

// GetEvents returns a copy of the most recent contract events.
func (c *EarlyBirds) GetEvents() []Event {
	c.mu.RLock()
	defer c.mu.RUnlock()

	recent := recentEvents(c.events)
	events := make([]Event, len(recent))
	copy(events, recent)
	return events
}

// GetEventsByType returns events filtered by type
func (c *EarlyBirds) GetEventsByType(eventType EventType) []Event {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var filtered []Event
	for _, event := range recentEvents(c.events) {
		if event.Type == eventType {
			filtered = append(filtered, event)
		}
	}
	return filtered
}

// eventHistoryLimit bounds the in-memory event log. The full history lives in
// the chain receipts.
var eventHistoryLimit = 1024

// appendEvent adds e and drops the oldest entries once the log runs a quarter
// past the limit.
func appendEvent(events []Event, e Event) []Event {
	events = append(events, e)
	if len(events) > eventHistoryLimit+eventHistoryLimit/4 {
		events = append([]Event(nil), events[len(events)-eventHistoryLimit:]...)
	}
	return events
}

func recentEvents(events []Event) []Event {
	if len(events) > eventHistoryLimit {
		return events[len(events)-eventHistoryLimit:]
	}
	return events
}
