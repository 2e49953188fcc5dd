package costbasis

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/etnz/costbasis/date"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransaction_Validate(t *testing.T) {
	on := day("2025-01-10")
	testCases := []struct {
		name      string
		tx        Transaction
		wantField string
	}{
		{name: "valid buy", tx: NewBuy("1", on, "X", Q(1), USD(1))},
		{name: "free buy", tx: NewBuy("1", on, "X", Q(1), USD(0))},
		{name: "zero quantity", tx: NewBuy("1", on, "X", Q(0), USD(1)), wantField: "quantity"},
		{name: "negative quantity", tx: NewSell("1", on, "X", Q(-2), USD(1)), wantField: "quantity"},
		{name: "negative price", tx: NewBuy("1", on, "X", Q(1), USD(-1)), wantField: "price"},
		{name: "unknown currency", tx: NewBuy("1", on, "X", Q(1), M(1, "ABCD")), wantField: "currency"},
		{name: "missing date", tx: NewBuy("1", date.Date{}, "X", Q(1), USD(1)), wantField: "date"},
		{name: "missing kind", tx: Transaction{ID: "1", Date: on, Quantity: Q(1), Price: USD(1)}, wantField: "kind"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.tx.Validate()
			if tc.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var mte *MalformedTransactionError
			require.ErrorAs(t, err, &mte)
			assert.Equal(t, tc.wantField, mte.Field)
			assert.Equal(t, "1", mte.ID)
		})
	}
}

func TestNewTransaction_NonFinite(t *testing.T) {
	on := day("2025-01-10")
	_, err := NewTransaction("nan", on, "X", Buy, math.NaN(), 1, "USD")
	assert.ErrorIs(t, err, ErrMalformedTransaction)
	_, err = NewTransaction("inf", on, "X", Buy, 1, math.Inf(1), "USD")
	assert.ErrorIs(t, err, ErrMalformedTransaction)

	tx, err := NewTransaction("ok", on, "X", Sell, 2, 3.5, "EUR")
	require.NoError(t, err)
	assert.Equal(t, Sell, tx.Kind)
	assertMoney(t, EUR(3.5), tx.Price)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("BUY")
	require.NoError(t, err)
	assert.Equal(t, Buy, k)
	_, err = ParseKind("dividend")
	assert.Error(t, err)
}

func TestDecodeLedger(t *testing.T) {
	input := `{"id":"a","date":"2025-01-10","asset":"AAPL","kind":"buy","quantity":10,"price":"150.25","currency":"usd"}

{"date":"2025-01-11","asset":"AAPL","kind":"sell","quantity":"2.5","price":160,"currency":"USD"}
`
	txs, err := DecodeLedger(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, "a", txs[0].ID)
	assert.Equal(t, Buy, txs[0].Kind)
	assertQuantity(t, Q(10), txs[0].Quantity)
	assertMoney(t, USD(150.25), txs[0].Price)

	assert.NotEmpty(t, txs[1].ID, "missing id is generated")
	assert.Equal(t, Sell, txs[1].Kind)
	assertQuantity(t, Q(2.5), txs[1].Quantity)
}

func TestDecodeLedger_Errors(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "bad json", input: `{"id":`, want: "line 1"},
		{name: "bad kind", input: `{"date":"2025-01-10","kind":"gift","quantity":1,"price":1,"currency":"USD"}`, want: "line 1"},
		{name: "malformed", input: "\n" + `{"id":"x","date":"2025-01-10","kind":"buy","quantity":-1,"price":1,"currency":"USD"}`, want: "line 2"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeLedger(strings.NewReader(tc.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestEncodeLedger_RoundTrip(t *testing.T) {
	txs := []Transaction{
		NewBuy("a", day("2025-01-10"), "AAPL", Q(10), USD(150.25)),
		NewSell("b", day("2025-01-11"), "AAPL", Q(2.5), USD(160)),
	}
	var buf bytes.Buffer
	require.NoError(t, EncodeLedger(&buf, txs))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"id":"a","date":"2025-01-10","asset":"AAPL","kind":"buy","quantity":10,"price":150.25,"currency":"USD"}`, lines[0])

	got, err := DecodeLedger(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i := range txs {
		assert.Equal(t, txs[i].ID, got[i].ID)
		assert.Equal(t, txs[i].Date, got[i].Date)
		assertQuantity(t, txs[i].Quantity, got[i].Quantity)
		assertMoney(t, txs[i].Price, got[i].Price)
	}
}

func TestKind_JSON(t *testing.T) {
	b, err := json.Marshal(Sell)
	require.NoError(t, err)
	assert.Equal(t, `"sell"`, string(b))
}
