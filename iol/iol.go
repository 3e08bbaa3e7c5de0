// Package iol fetches option market data from the InvertirOnline (IOL) API.
// It authenticates with username/password to obtain a bearer token, and
// parses the bCBA option chain into domain contracts and price observations.
package iol

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	log "github.com/sirupsen/logrus"

	operar "github.com/nahuelrabey/operar-marketdata-fetch"
	"github.com/nahuelrabey/operar-marketdata-fetch/date"
)

const (
	// DefaultBaseURL is the production API root.
	DefaultBaseURL = "https://api.invertironline.com/api/v2"
	// DefaultTokenURL is the production OAuth token endpoint.
	DefaultTokenURL = "https://api.invertironline.com/token"
)

// Client talks to the IOL API. Construct one with New and authenticate (or
// set Token directly from a cached value) before fetching.
type Client struct {
	BaseURL  string
	TokenURL string
	Token    string
	HTTP     *http.Client

	// DataDir, when set, receives a raw JSON snapshot of every option chain
	// response, for offline inspection and reprocessing.
	DataDir string

	historyHTTP *http.Client
}

// New returns a client for the production API with the given bearer token.
// An empty token is fine as long as Authenticate is called before fetching.
func New(token string) *Client {
	return &Client{
		BaseURL:  DefaultBaseURL,
		TokenURL: DefaultTokenURL,
		Token:    token,
		HTTP:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Authenticate exchanges credentials for an access token. The token is kept
// on the client and returned so callers can cache it.
func (c *Client) Authenticate(ctx context.Context, username, password string) (string, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	form.Set("grant_type", "password")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("authenticate: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("authenticate: request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("authenticate: invalid status: %s", res.Status)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("authenticate: failed to decode response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("authenticate: token not found in response")
	}

	log.Debugf("authenticated against %s, token expires in %ds", c.TokenURL, payload.ExpiresIn)
	c.Token = payload.AccessToken
	return payload.AccessToken, nil
}

// FetchOptionChain retrieves the full option chain for an underlying ticker
// and returns the parsed contracts and their current price observations.
// All observations share one system timestamp: the chain is a point-in-time
// snapshot.
func (c *Client) FetchOptionChain(ctx context.Context, underlying string) ([]operar.Contract, []operar.PriceObservation, error) {
	addr := fmt.Sprintf("%s/bCBA/Titulos/%s/Opciones", c.BaseURL, underlying)
	body, err := c.get(ctx, addr)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch option chain %s: %w", underlying, err)
	}

	if c.DataDir != "" {
		if err := saveSnapshot(c.DataDir, underlying, body); err != nil {
			log.Warnf("could not save raw chain snapshot: %v", err)
		}
	}

	var items []chainItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, nil, fmt.Errorf("fetch option chain %s: failed to decode response: %w", underlying, err)
	}

	now := time.Now()
	contracts := make([]operar.Contract, 0, len(items))
	prices := make([]operar.PriceObservation, 0, len(items))
	for _, item := range items {
		contracts = append(contracts, item.contract())
		prices = append(prices, item.price(now))
	}
	log.Debugf("fetched %d contracts for %s", len(contracts), underlying)
	return contracts, prices, nil
}

// FetchQuote returns the current price observation of a single contract.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (operar.PriceObservation, error) {
	addr := fmt.Sprintf("%s/bCBA/Titulos/%s/Cotizacion", c.BaseURL, symbol)
	body, err := c.get(ctx, addr)
	if err != nil {
		return operar.PriceObservation{}, fmt.Errorf("fetch quote %s: %w", symbol, err)
	}
	var quote quoteItem
	if err := json.Unmarshal(body, &quote); err != nil {
		return operar.PriceObservation{}, fmt.Errorf("fetch quote %s: failed to decode response: %w", symbol, err)
	}
	return quote.observation(symbol, time.Now()), nil
}

// FetchHistory returns the historical price series of a symbol over the date
// range, both ends included. Requests go through a disk cache whose entries
// expire daily: a finished day's series never changes, so a bulk fetch over
// many contracts only hits the API once per symbol and day.
func (c *Client) FetchHistory(ctx context.Context, symbol string, from, to date.Date) ([]operar.PriceObservation, error) {
	addr := fmt.Sprintf("%s/bCBA/Titulos/%s/Cotizacion/seriehistorica/%s/%s/ajustada", c.BaseURL, symbol, from, to)
	var items []quoteItem
	if err := jwget(ctx, c.history(), c.Token, addr, &items); err != nil {
		return nil, fmt.Errorf("fetch history %s: %w", symbol, err)
	}

	now := time.Now()
	prices := make([]operar.PriceObservation, 0, len(items))
	for _, item := range items {
		prices = append(prices, item.observation(symbol, now))
	}
	log.Debugf("fetched %d historical prices for %s", len(prices), symbol)
	return prices, nil
}

// history returns the client used for historical series, built lazily
// around the daily disk cache.
func (c *Client) history() *http.Client {
	if c.historyHTTP == nil {
		c.historyHTTP = newDailyCachingClient()
	}
	return c.historyHTTP
}

// FetchUnderlyingQuote returns the last traded price of the underlying
// itself, used to center the expiration curve simulation.
func (c *Client) FetchUnderlyingQuote(ctx context.Context, underlying string) (float64, error) {
	addr := fmt.Sprintf("%s/bCBA/Titulos/%s/Cotizacion", c.BaseURL, underlying)
	body, err := c.get(ctx, addr)
	if err != nil {
		return 0, fmt.Errorf("fetch quote %s: %w", underlying, err)
	}

	var jobj any
	if err := json.Unmarshal(body, &jobj); err != nil {
		return 0, fmt.Errorf("fetch quote %s: failed to decode response: %w", underlying, err)
	}
	jval, err := jsonpath.Get("$.ultimoPrecio", jobj)
	if err != nil {
		return 0, fmt.Errorf("fetch quote %s: no last price in response: %w", underlying, err)
	}
	// jsonpath is never clear about whether it returns a list of one answer
	// or a single answer; keep the first one if any.
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	price, ok := jval.(float64)
	if !ok {
		return 0, fmt.Errorf("fetch quote %s: last price is not a number: %v", underlying, jval)
	}
	return price, nil
}

// get performs an authenticated GET and returns the response body.
func (c *Client) get(ctx context.Context, addr string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.Token))

	log.Tracef("GET %s", addr)
	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("invalid status: %s: %s", res.Status, truncate(body, 200))
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "…"
}
