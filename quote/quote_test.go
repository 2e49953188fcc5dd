package quote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, status int, body string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestPrice(t *testing.T) {
	testCases := []struct {
		name string
		body string
		path string
		want float64
	}{
		{name: "number", body: `{"last":195.5}`, path: "$.last", want: 195.5},
		{name: "numeric string", body: `{"last":"1 234,5"}`, path: "$.last", want: 1234.5},
		{name: "last of a series", body: `{"series":{"intraday":{"data":[[1,1.04],[2,1.05]]}}}`, path: "$.series.intraday.data[-1:][1]", want: 1.05},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q := Quoter{URL: serve(t, http.StatusOK, tc.body), Path: tc.path}
			got, err := q.Price(context.Background())
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestPrice_Errors(t *testing.T) {
	testCases := []struct {
		name   string
		status int
		body   string
		path   string
	}{
		{name: "http error", status: http.StatusNotFound, body: `{}`, path: "$.last"},
		{name: "unknown key", status: http.StatusOK, body: `{"bid":1}`, path: "$.last"},
		{name: "empty marker", status: http.StatusOK, body: `{"last":"./."}`, path: "$.last"},
		{name: "zero", status: http.StatusOK, body: `{"last":0}`, path: "$.last"},
		{name: "object", status: http.StatusOK, body: `{"last":{"v":1}}`, path: "$.last"},
		{name: "empty list", status: http.StatusOK, body: `{"data":[]}`, path: "$.data[*]"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q := Quoter{URL: serve(t, tc.status, tc.body), Path: tc.path}
			_, err := q.Price(context.Background())
			assert.Error(t, err)
		})
	}
}
