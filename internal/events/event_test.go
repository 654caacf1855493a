package events

import (
	"context"
	"errors"
	"testing"
)

type failing struct{}

func (failing) Publish(context.Context, Event) error { return errors.New("boom") }

func TestMultiPublishesToAll(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	m := Multi{a, failing{}, b}

	err := m.Publish(context.Background(), Event{Type: BidAccepted, ItemID: 1})
	if err == nil {
		t.Error("expected joined error from failing publisher")
	}
	if len(a.Events()) != 1 || len(b.Events()) != 1 {
		t.Errorf("expected every publisher to receive the event, got %d and %d", len(a.Events()), len(b.Events()))
	}
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	ctx := context.Background()
	r.Publish(ctx, Event{Type: ItemActivated})
	r.Publish(ctx, Event{Type: ItemSold})

	types := r.Types()
	if len(types) != 2 || types[0] != ItemActivated || types[1] != ItemSold {
		t.Errorf("unexpected types %v", types)
	}

	r.Reset()
	if len(r.Events()) != 0 {
		t.Error("expected no events after reset")
	}
}

func TestSubject(t *testing.T) {
	tests := []struct {
		prefix string
		typ    Type
		want   string
	}{
		{"auction.events", BidAccepted, "auction.events.bid.accepted"},
		{"", ItemSold, "item.sold"},
	}
	for _, tt := range tests {
		if got := Subject(tt.prefix, tt.typ); got != tt.want {
			t.Errorf("Subject(%q, %q) = %q, want %q", tt.prefix, tt.typ, got, tt.want)
		}
	}
}

func TestNop(t *testing.T) {
	if err := (Nop{}).Publish(context.Background(), Event{}); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}
