package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSign(t *testing.T) {
	// Known vector from the exchange API docs style: HMAC-SHA256 is
	// deterministic for a fixed secret and query.
	got := sign("secret", "a=1&b=2")
	assert.Len(t, got, 64)
	assert.Equal(t, got, sign("secret", "a=1&b=2"))
	assert.NotEqual(t, got, sign("other", "a=1&b=2"))
}

func TestClientFetchTrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sapi/v1/c2c/orderMatch/listUserOrderHistory", r.URL.Path)
		assert.Equal(t, "key-1", r.Header.Get("X-MBX-APIKEY"))

		q := r.URL.Query()
		assert.Equal(t, "SELL", q.Get("tradeType"))
		assert.Equal(t, "1000", q.Get("startTimestamp"))
		assert.Equal(t, "2000", q.Get("endTimestamp"))
		assert.Equal(t, "1", q.Get("page"))
		assert.Equal(t, "50", q.Get("rows"))
		assert.NotEmpty(t, q.Get("signature"))

		w.Write([]byte(`{"code":"000000","data":[{"orderNumber":"22540","tradeType":"SELL","asset":"USDT","fiat":"VES","totalPrice":"1800.00","createTime":1500}],"total":1,"success":true}`))
	}))
	defer srv.Close()

	client := NewClient("key-1", "secret-1", "SELL")
	client.baseURL = srv.URL

	page, err := client.FetchTrades(context.Background(), 1000, 2000, 1, 50)
	require.NoError(t, err)
	assert.True(t, page.Success)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "22540", page.Data[0].OrderNumber)
}

func TestClientFetchTradesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "teapot", http.StatusTeapot)
	}))
	defer srv.Close()

	client := NewClient("key-1", "secret-1", "SELL")
	client.baseURL = srv.URL

	_, err := client.FetchTrades(context.Background(), 0, 1, 1, 50)
	require.Error(t, err)
	var fetchErr *FetchError
	assert.ErrorAs(t, err, &fetchErr)
}
