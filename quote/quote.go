// Package quote reads the current price of an asset from any JSON endpoint.
//
// The price is located in the response with a jsonpath expression, e.g.
//
//	$.series.intraday.data[-1:][1]
package quote

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/costbasis/httpjson"
)

// ErrNoPrice is returned when the endpoint answered but carries no usable price.
var ErrNoPrice = errors.New("no price")

// Quoter fetches one price from URL at Path.
type Quoter struct {
	Client *http.Client // nil means http.DefaultClient
	URL    string
	Path   string
}

// Price returns the latest price published by the endpoint.
func (q Quoter) Price(ctx context.Context) (float64, error) {
	var jobj any
	if err := httpjson.Get(ctx, q.Client, q.URL, &jobj); err != nil {
		return math.NaN(), fmt.Errorf("error retrieving %q: %w", q.URL, err)
	}
	jval, err := jsonpath.Get(q.Path, jobj)
	if err != nil {
		return math.NaN(), fmt.Errorf("error evaluating %q: %w", q.Path, err)
	}
	// jsonpath is never clear whether it returns a list of one answer or a
	// single answer: keep the first one if any.
	if jlist, ok := jval.([]any); ok {
		if len(jlist) == 0 {
			return math.NaN(), fmt.Errorf("%q matches nothing: %w", q.Path, ErrNoPrice)
		}
		jval = jlist[0]
	}
	val, err := toFloat(jval)
	if err != nil {
		return math.NaN(), fmt.Errorf("cannot read %q: %w", q.Path, err)
	}
	if val <= 0 || math.IsInf(val, 0) || math.IsNaN(val) {
		return math.NaN(), fmt.Errorf("%q is %v: %w", q.Path, val, ErrNoPrice)
	}
	return val, nil
}

// toFloat accepts a json number or a numeric string. Some endpoints return
// values as strings, sometimes with a decimal comma.
func toFloat(jval any) (float64, error) {
	switch v := jval.(type) {
	case float64:
		return v, nil
	case string:
		s := strings.ReplaceAll(v, ",", ".")
		s = strings.ReplaceAll(s, " ", "")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid numeric string %q: %w", v, ErrNoPrice)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("neither a number nor a string: %v: %w", jval, ErrNoPrice)
	}
}
