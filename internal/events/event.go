// Package events carries auction state changes to live observers.
package events

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Type names an auction event.
type Type string

// Event types.
const (
	ItemActivated Type = "item.activated"
	BidAccepted   Type = "bid.accepted"
	ItemSold      Type = "item.sold"
	ItemUnsold    Type = "item.unsold"
	RTMOpened     Type = "rtm.opened"
	RTMCancelled  Type = "rtm.cancelled"
	ItemReset     Type = "item.reset"
	AuctionReset  Type = "auction.reset"
	RefundIssued  Type = "refund.issued"
)

// Event is a committed auction state change.
type Event struct {
	ID            string    `json:"id"`
	Type          Type      `json:"type"`
	ItemID        int64     `json:"item_id,omitempty"`
	TeamID        int64     `json:"team_id,omitempty"`
	Amount        int64     `json:"amount,omitempty"`
	IsRTM         bool      `json:"is_rtm,omitempty"`
	NegotiationID string    `json:"negotiation_id,omitempty"`
	At            time.Time `json:"at"`
}

// Publisher delivers events. Delivery is best effort; a failed publish never
// undoes the state change it describes.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop discards every event.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, Event) error { return nil }

// Multi fans an event out to several publishers.
type Multi []Publisher

// Publish implements Publisher. Every publisher is tried; the errors are joined.
func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps every published event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish implements Publisher.
func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types returns the recorded event types in order.
func (r *Recorder) Types() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]Type, len(r.events))
	for i, e := range r.events {
		types[i] = e.Type
	}
	return types
}

// Reset forgets the recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
