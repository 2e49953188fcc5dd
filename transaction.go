package costbasis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/etnz/costbasis/date"
)

// Kind is the direction of a transaction.
type Kind int

const (
	// Buy acquires quantity and opens a lot.
	Buy Kind = iota + 1
	// Sell disposes quantity, consuming the oldest open lots first.
	Sell
)

func (k Kind) String() string {
	switch k {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

// ParseKind parses a string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "buy":
		return Buy, nil
	case "sell":
		return Sell, nil
	default:
		return 0, fmt.Errorf("unknown transaction kind: %q", s)
	}
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(text []byte) error {
	v, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Transaction is an immutable buy or sell of an asset.
//
// Price is the price of one unit of the asset, expressed in the currency the
// transaction was made in.
type Transaction struct {
	ID       string
	Date     date.Date
	Asset    string
	Kind     Kind
	Quantity Quantity
	Price    Money
}

// NewBuy returns a buy transaction.
func NewBuy(id string, on date.Date, asset string, quantity Quantity, price Money) Transaction {
	return Transaction{ID: id, Date: on, Asset: asset, Kind: Buy, Quantity: quantity, Price: price}
}

// NewSell returns a sell transaction.
func NewSell(id string, on date.Date, asset string, quantity Quantity, price Money) Transaction {
	return Transaction{ID: id, Date: on, Asset: asset, Kind: Sell, Quantity: quantity, Price: price}
}

// NewTransaction builds a transaction from untrusted float values and validates
// it. The currency code is uppercased.
func NewTransaction(id string, on date.Date, asset string, kind Kind, quantity, price float64, currency string) (Transaction, error) {
	if !finite(quantity) {
		return Transaction{}, &MalformedTransactionError{ID: id, Field: "quantity", Reason: fmt.Sprintf("is not finite: %v", quantity)}
	}
	if !finite(price) {
		return Transaction{}, &MalformedTransactionError{ID: id, Field: "price", Reason: fmt.Sprintf("is not finite: %v", price)}
	}
	tx := Transaction{ID: id, Date: on, Asset: asset, Kind: kind, Quantity: Q(quantity), Price: M(price, currency)}
	if err := tx.Validate(); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

// Currency returns the currency the transaction price is expressed in.
func (t Transaction) Currency() string { return t.Price.Currency() }

// Validate checks the transaction fields. It returns a *MalformedTransactionError
// naming the first invalid field.
func (t Transaction) Validate() error {
	malformed := func(field, reason string) error {
		return &MalformedTransactionError{ID: t.ID, Field: field, Reason: reason}
	}
	switch t.Kind {
	case Buy, Sell:
	default:
		return malformed("kind", fmt.Sprintf("is unknown: %d", int(t.Kind)))
	}
	if t.Date.IsZero() {
		return malformed("date", "is missing")
	}
	if !t.Quantity.IsPositive() {
		return malformed("quantity", fmt.Sprintf("must be positive: %s", t.Quantity))
	}
	if t.Price.IsNegative() {
		return malformed("price", fmt.Sprintf("must not be negative: %s", t.Price.Decimal()))
	}
	if err := ValidateCurrency(t.Price.Currency()); err != nil {
		return malformed("currency", err.Error())
	}
	return nil
}

// jsonTransaction is the persisted form of a Transaction.
type jsonTransaction struct {
	ID       string    `json:"id,omitempty"`
	Date     date.Date `json:"date"`
	Asset    string    `json:"asset,omitempty"`
	Kind     Kind      `json:"kind"`
	Quantity Quantity  `json:"quantity"`
	Price    Quantity  `json:"price"`
	Currency string    `json:"currency"`
}

func (t Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonTransaction{
		ID:       t.ID,
		Date:     t.Date,
		Asset:    t.Asset,
		Kind:     t.Kind,
		Quantity: t.Quantity,
		Price:    Quantity{value: t.Price.value},
		Currency: t.Price.cur,
	})
}

func (t *Transaction) UnmarshalJSON(data []byte) error {
	var j jsonTransaction
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	*t = Transaction{
		ID:       j.ID,
		Date:     j.Date,
		Asset:    j.Asset,
		Kind:     j.Kind,
		Quantity: j.Quantity,
		Price:    Money{value: j.Price.value, cur: strings.ToUpper(j.Currency)},
	}
	return nil
}
