package costbasis

import (
	"fmt"
	"strings"

	"github.com/etnz/costbasis/date"
)

// Lot is the still open quantity of a single purchase.
type Lot struct {
	TransactionID string
	Date          date.Date
	Quantity      Quantity // remaining quantity
	UnitCost      Money    // purchase price in the target currency, as of Date
}

// Cost returns the cost of the remaining quantity.
func (l Lot) Cost() Money { return l.UnitCost.Mul(l.Quantity) }

// lotQueue is a FIFO of lots, oldest first. Consumed lots are dropped by
// moving head, they are never shared with the caller.
type lotQueue struct {
	lots []Lot
	head int
}

func (q *lotQueue) len() int    { return len(q.lots) - q.head }
func (q *lotQueue) push(l Lot)  { q.lots = append(q.lots, l) }
func (q *lotQueue) front() *Lot { return &q.lots[q.head] }
func (q *lotQueue) open() []Lot { return append([]Lot(nil), q.lots[q.head:]...) }

func (q *lotQueue) pop() {
	q.lots[q.head] = Lot{}
	q.head++
}

// TrackerState is the state of a Tracker.
type TrackerState int

const (
	Idle TrackerState = iota
	Replaying
	Done
)

func (s TrackerState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Replaying:
		return "replaying"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Replay is the outcome of a Tracker replay.
type Replay struct {
	Lots        []Lot // remaining lots, oldest first
	RealizedPnL Money
	Oversold    []Oversold
}

// Tracker matches sells against the oldest open buys (FIFO).
//
// A Tracker replays one asset once: Begin, Apply every transaction in
// chronological order with its price already normalized, then Finish.
type Tracker struct {
	state    TrackerState
	currency string
	queue    lotQueue
	realized Money
	oversold []Oversold
}

// NewTracker returns an idle tracker accumulating amounts in currency.
func NewTracker(currency string) *Tracker {
	currency = strings.ToUpper(currency)
	return &Tracker{currency: currency, realized: M(0, currency)}
}

// State returns the current state of the tracker.
func (t *Tracker) State() TrackerState { return t.state }

// Begin starts the replay.
func (t *Tracker) Begin() error {
	if t.state != Idle {
		return fmt.Errorf("%w: cannot begin while %s", ErrTrackerState, t.state)
	}
	t.state = Replaying
	return nil
}

// Apply processes tx whose unit price, normalized into the tracker currency, is
// price. A buy opens a lot, a sell consumes lots from the oldest and realizes
// the difference between proceeds and cost.
//
// Selling more than is held is not an error: matching stops when no lot is
// left and the excess is reported as Oversold.
func (t *Tracker) Apply(tx Transaction, price Money) error {
	if t.state != Replaying {
		return fmt.Errorf("%w: cannot apply %q while %s", ErrTrackerState, tx.ID, t.state)
	}
	if err := tx.Validate(); err != nil {
		return err
	}
	if price.Currency() != t.currency {
		return fmt.Errorf("%w: %q price in %s, tracker in %s", ErrCurrencyMismatch, tx.ID, price.Currency(), t.currency)
	}
	if price.IsNegative() {
		return &MalformedTransactionError{ID: tx.ID, Field: "price", Reason: "normalizes to a negative value"}
	}

	switch tx.Kind {
	case Buy:
		t.queue.push(Lot{
			TransactionID: tx.ID,
			Date:          tx.Date,
			Quantity:      tx.Quantity,
			UnitCost:      price,
		})
	case Sell:
		toSell := tx.Quantity
		for toSell.IsPositive() && t.queue.len() > 0 {
			lot := t.queue.front()
			matched := minQuantity(toSell, lot.Quantity)
			cost := lot.UnitCost.Mul(matched)
			proceeds := price.Mul(matched)
			t.realized = t.realized.Add(proceeds.Sub(cost))

			lot.Quantity = lot.Quantity.Sub(matched)
			toSell = toSell.Sub(matched)
			if !lot.Quantity.IsPositive() {
				t.queue.pop()
			}
		}
		if toSell.IsPositive() {
			t.oversold = append(t.oversold, Oversold{Asset: tx.Asset, TransactionID: tx.ID, Excess: toSell})
		}
	}
	return nil
}

// Finish ends the replay and hands over the remaining lots.
func (t *Tracker) Finish() (Replay, error) {
	if t.state != Replaying {
		return Replay{}, fmt.Errorf("%w: cannot finish while %s", ErrTrackerState, t.state)
	}
	t.state = Done
	r := Replay{
		Lots:        t.queue.open(),
		RealizedPnL: t.realized,
		Oversold:    t.oversold,
	}
	t.queue = lotQueue{}
	t.oversold = nil
	return r, nil
}
