package httpjson

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Write([]byte(`{"close":1.25}`))
		case "/garbage":
			w.Write([]byte(`<html>`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	var v struct{ Close float64 }
	require.NoError(t, Get(context.Background(), nil, srv.URL+"/ok", &v))
	assert.Equal(t, 1.25, v.Close)

	err := Get(context.Background(), srv.Client(), srv.URL+"/missing", &v)
	assert.ErrorContains(t, err, "404")

	assert.Error(t, Get(context.Background(), srv.Client(), srv.URL+"/garbage", &v))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Get(ctx, srv.Client(), srv.URL+"/ok", &v), context.Canceled)
}
