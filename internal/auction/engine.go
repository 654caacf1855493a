// Package auction is the auction floor: bid admission, the item lifecycle,
// right-to-match negotiation and settlement.
//
// Every operation runs in one database transaction against a fresh rules
// snapshot. Events are published only after the transaction commits.
package auction

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/drazba/internal/events"
	"github.com/erazemk/drazba/internal/model"
	"github.com/erazemk/drazba/internal/store"
)

// Engine runs the auction floor on top of the store.
type Engine struct {
	db    *sql.DB
	clock Clock
	log   *slog.Logger
	pub   events.Publisher
	newID func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the engine's time source.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithPublisher sets where committed events go.
func WithPublisher(p events.Publisher) Option {
	return func(e *Engine) { e.pub = p }
}

// New creates an engine. The database must allow only one open connection
// so that transactions serialize.
func New(db *sql.DB, opts ...Option) *Engine {
	e := &Engine{
		db:    db,
		clock: SystemClock,
		log:   slog.Default(),
		pub:   events.Nop{},
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rules returns the current rules snapshot.
func (e *Engine) Rules(ctx context.Context) (model.Rules, error) {
	return store.LoadRules(ctx, e.db)
}

// txn is one engine operation in flight. It embeds the transaction so it can
// be handed to store functions, and collects the events to publish on commit.
type txn struct {
	*sql.Tx
	now    time.Time
	events []events.Event
}

func (t *txn) emit(ev events.Event) {
	ev.At = t.now
	t.events = append(t.events, ev)
}

func (e *Engine) run(ctx context.Context, op string, fn func(t *txn) error) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: beginning transaction: %w", op, err)
	}
	defer tx.Rollback()

	t := &txn{Tx: tx, now: e.clock.Now().UTC()}
	if err := fn(t); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: committing: %w", op, err)
	}

	for _, ev := range t.events {
		ev.ID = e.newID()
		if err := e.pub.Publish(ctx, ev); err != nil {
			e.log.Warn("publishing event failed", "type", ev.Type, "item", ev.ItemID, "error", err)
		}
	}
	return nil
}

// RefundNotice tells the operator that a team got money back.
type RefundNotice struct {
	TeamID   int64  `json:"team_id"`
	TeamName string `json:"team_name"`
	ItemID   int64  `json:"item_id"`
	Amount   int64  `json:"amount"`
}

// loadItem returns the item or ErrNotFound.
func loadItem(ctx context.Context, db store.DBTX, id int64) (*model.Item, error) {
	item, err := store.GetItem(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	return item, nil
}

// unwindSale refunds and removes an item's sale record, if it has one.
func (e *Engine) unwindSale(ctx context.Context, t *txn, itemID int64) (*RefundNotice, error) {
	sale, err := store.GetSale(ctx, t, itemID)
	if err != nil || sale == nil {
		return nil, err
	}

	if _, err := store.Refund(ctx, t, sale.TeamID, &itemID, sale.Amount, t.now); err != nil {
		return nil, err
	}
	if err := store.DeleteSale(ctx, t, itemID); err != nil {
		return nil, err
	}

	t.emit(events.Event{Type: events.RefundIssued, ItemID: itemID, TeamID: sale.TeamID, Amount: sale.Amount})
	e.log.Info("sale refunded", "item", itemID, "team", sale.TeamName, "amount", sale.Amount)

	return &RefundNotice{
		TeamID:   sale.TeamID,
		TeamName: sale.TeamName,
		ItemID:   itemID,
		Amount:   sale.Amount,
	}, nil
}

// cancelNegotiations drops every pending right-to-match round.
func (e *Engine) cancelNegotiations(ctx context.Context, t *txn) error {
	cancelled, err := store.CancelNegotiations(ctx, t)
	if err != nil {
		return err
	}
	for _, n := range cancelled {
		t.emit(events.Event{Type: events.RTMCancelled, ItemID: n.ItemID, TeamID: n.OwnerTeamID, NegotiationID: n.ID})
		e.log.Info("rtm cancelled", "item", n.ItemID, "negotiation", n.ID)
	}
	return nil
}

// cancelItemNegotiation drops the pending round on one item, if any.
func (e *Engine) cancelItemNegotiation(ctx context.Context, t *txn, itemID int64) error {
	n, err := store.GetNegotiation(ctx, t, itemID)
	if err != nil || n == nil {
		return err
	}
	if _, err := store.ClaimNegotiation(ctx, t, n.ID); err != nil {
		return err
	}
	t.emit(events.Event{Type: events.RTMCancelled, ItemID: itemID, TeamID: n.OwnerTeamID, NegotiationID: n.ID})
	e.log.Info("rtm cancelled", "item", itemID, "negotiation", n.ID)
	return nil
}

func expired(item *model.Item, rules model.Rules, now time.Time) bool {
	return item.LastActivityAt != nil && now.Sub(*item.LastActivityAt) >= rules.BidDuration()
}
