package token

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type EventType string

const (
	EventTransfer EventType = "Transfer"
	EventMint     EventType = "Mint"
	EventBurn     EventType = "Burn"
	EventApproval EventType = "Approval"
	EventPaused   EventType = "Paused"
	EventUnpaused EventType = "Unpaused"
)

type Event struct {
	Type      EventType              `json:"type"`
	From      common.Address         `json:"from"`
	To        common.Address         `json:"to"`
	Amount    *big.Int               `json:"amount,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// EventHandler observes token events. Handlers run synchronously with the
// token lock held, so they must not call back into the token.
type EventHandler func(event Event)

// RegisterEventHandler adds a handler invoked for every emitted event.
func (t *Token) RegisterEventHandler(handler EventHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers = append(t.handlers, handler)
}

// emitEvent records the event and fans it out in emission order. Callers hold t.mu.
func (t *Token) emitEvent(event Event) {
	t.events = appendEvent(t.events, event)
	for _, handler := range t.handlers {
		handler(event)
	}
}

// GetEvents returns a copy of the most recent events.
func (t *Token) GetEvents() []Event {
	t.mu.RLock()
	defer t.mu.RUnlock()

	recent := recentEvents(t.events)
	events := make([]Event, len(recent))
	copy(events, recent)
	return events
}

// GetEventsByType returns events filtered by type
func (t *Token) GetEventsByType(eventType EventType) []Event {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var filtered []Event
	for _, event := range recentEvents(t.events) {
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
