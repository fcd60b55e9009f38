package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultBaseURL = "https://api.binance.com"

// Client fetches P2P trade history from the exchange REST API. Requests are
// signed with HMAC-SHA256 over the query string, per the exchange's SAPI
// contract.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	apiSecret  string
	tradeType  string
}

// NewClient creates an exchange API client. tradeType selects which side of
// the trade history to pull ("SELL" or "BUY").
func NewClient(apiKey, apiSecret, tradeType string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		tradeType:  tradeType,
	}
}

// FetchTrades implements TradeFetcher.
func (c *Client) FetchTrades(ctx context.Context, startMillis, endMillis int64, page, rows int) (*TradePage, error) {
	params := url.Values{}
	params.Set("tradeType", c.tradeType)
	params.Set("startTimestamp", strconv.FormatInt(startMillis, 10))
	params.Set("endTimestamp", strconv.FormatInt(endMillis, 10))
	params.Set("page", strconv.Itoa(page))
	params.Set("rows", strconv.Itoa(rows))
	params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))

	query := params.Encode()
	query += "&signature=" + sign(c.apiSecret, query)

	endpoint := c.baseURL + "/sapi/v1/c2c/orderMatch/listUserOrderHistory?" + query
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{Op: "trade history", Err: err}
	}
	req.Header.Set("X-MBX-APIKEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Op: "trade history", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Op: "trade history", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Op: "trade history", Err: fmt.Errorf("status %d: %s", resp.StatusCode, body)}
	}

	var tradePage TradePage
	if err := json.Unmarshal(body, &tradePage); err != nil {
		return nil, &FetchError{Op: "trade history", Err: fmt.Errorf("decoding response: %w", err)}
	}
	return &tradePage, nil
}

// sign computes the hex HMAC-SHA256 signature of the query string.
func sign(secret, query string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}

var _ TradeFetcher = (*Client)(nil)
