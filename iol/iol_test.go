package iol

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	operar "github.com/nahuelrabey/operar-marketdata-fetch"
	"github.com/nahuelrabey/operar-marketdata-fetch/date"
)

func TestStrikeFromDescription(t *testing.T) {
	cases := []struct {
		description string
		want        string
	}{
		{"Call GGAL 2,654.90 Vencimiento 17/10/2025", "2654.9"},
		{"Put GGAL 2300 Vencimiento 17/10/2025", "2300"},
		{"Call YPFD 45,000 Vencimiento 20/02/2026", "45000"},
		{"sin strike en la descripcion", "0"},
		{"", "0"},
	}
	for _, c := range cases {
		got := strikeFromDescription(c.description)
		want, _ := decimal.NewFromString(c.want)
		if !got.Equal(want) {
			t.Errorf("strikeFromDescription(%q) = %s, want %s", c.description, got, want)
		}
	}
}

func TestParseBrokerTime(t *testing.T) {
	if got := parseBrokerTime("0001-01-01T00:00:00"); got != nil {
		t.Errorf("parseBrokerTime(zero timestamp) = %v, want nil", got)
	}
	if got := parseBrokerTime(""); got != nil {
		t.Errorf("parseBrokerTime(\"\") = %v, want nil", got)
	}
	got := parseBrokerTime("2025-06-02T11:30:00")
	if got == nil {
		t.Fatal("parseBrokerTime(valid) = nil, want a time")
	}
	if got.Hour() != 11 || got.Minute() != 30 {
		t.Errorf("parseBrokerTime() = %v, want 11:30", got)
	}
}

const chainResponse = `[
  {
    "simbolo": "GFGC2654OC",
    "simboloSubyacente": "GGAL",
    "tipoOpcion": "Call",
    "fechaVencimiento": "2025-10-17T00:00:00",
    "descripcion": "Call GGAL 2,654.90 Vencimiento 17/10/2025",
    "cotizacion": {"ultimoPrecio": 120.5, "fechaHora": "2025-06-02T11:30:00", "volumenNominal": 12}
  },
  {
    "simbolo": "GFGV2300OC",
    "simboloSubyacente": "GGAL",
    "tipoOpcion": "Put",
    "fechaVencimiento": "2025-10-17T00:00:00",
    "descripcion": "Put GGAL 2,300.00 Vencimiento 17/10/2025",
    "cotizacion": {"ultimoPrecio": 80, "fechaHora": "0001-01-01T00:00:00", "volumenNominal": 0}
  }
]`

func TestFetchOptionChain(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/bCBA/Titulos/GGAL/Opciones" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(chainResponse))
	}))
	defer server.Close()

	client := New("tok-123")
	client.BaseURL = server.URL

	contracts, prices, err := client.FetchOptionChain(context.Background(), "GGAL")
	if err != nil {
		t.Fatalf("FetchOptionChain() unexpected error: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization header = %q, want %q", gotAuth, "Bearer tok-123")
	}
	if len(contracts) != 2 || len(prices) != 2 {
		t.Fatalf("got %d contracts and %d prices, want 2 and 2", len(contracts), len(prices))
	}

	call := contracts[0]
	if call.Symbol != "GFGC2654OC" || call.Type != operar.Call || call.Underlying != "GGAL" {
		t.Errorf("contract[0] = %+v", call)
	}
	if !call.Strike.Equal(decimal.NewFromFloat(2654.90)) {
		t.Errorf("contract[0].Strike = %s, want 2654.9", call.Strike)
	}
	if call.Expiration != date.MustParse("2025-10-17") {
		t.Errorf("contract[0].Expiration = %s, want 2025-10-17", call.Expiration)
	}

	if !prices[0].Price.Equal(decimal.NewFromFloat(120.5)) {
		t.Errorf("price[0] = %s, want 120.5", prices[0].Price)
	}
	if prices[0].BrokerTime == nil {
		t.Error("price[0].BrokerTime = nil, want the broker timestamp")
	}
	if prices[1].BrokerTime != nil {
		t.Errorf("price[1].BrokerTime = %v, want nil for the zero timestamp", prices[1].BrokerTime)
	}
	if !prices[0].SystemTime.Equal(prices[1].SystemTime) {
		t.Error("observations of one snapshot must share the system timestamp")
	}
}

func TestAuthenticate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("grant_type") != "password" || r.PostForm.Get("username") != "user" {
			http.Error(w, "bad credentials", http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"access_token": "tok-456", "expires_in": 900}`))
	}))
	defer server.Close()

	client := New("")
	client.TokenURL = server.URL

	token, err := client.Authenticate(context.Background(), "user", "secret")
	if err != nil {
		t.Fatalf("Authenticate() unexpected error: %v", err)
	}
	if token != "tok-456" || client.Token != "tok-456" {
		t.Errorf("Authenticate() = %q, client.Token = %q, want tok-456", token, client.Token)
	}
}

func TestAuthenticateRejectsEmptyToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"expires_in": 900}`))
	}))
	defer server.Close()

	client := New("")
	client.TokenURL = server.URL
	if _, err := client.Authenticate(context.Background(), "user", "secret"); err == nil {
		t.Error("Authenticate() expected an error when the response has no token")
	}
}

func TestFetchUnderlyingQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bCBA/Titulos/GGAL/Cotizacion" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"ultimoPrecio": 2712.25, "variacion": -1.2}`))
	}))
	defer server.Close()

	client := New("tok")
	client.BaseURL = server.URL

	price, err := client.FetchUnderlyingQuote(context.Background(), "GGAL")
	if err != nil {
		t.Fatalf("FetchUnderlyingQuote() unexpected error: %v", err)
	}
	if price != 2712.25 {
		t.Errorf("FetchUnderlyingQuote() = %g, want 2712.25", price)
	}
}

func TestFetchQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bCBA/Titulos/GFGC2654OC/Cotizacion" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"ultimoPrecio": 120.5, "fechaHora": "2025-06-02T11:30:00", "volumenNominal": 12}`))
	}))
	defer server.Close()

	client := New("tok")
	client.BaseURL = server.URL

	p, err := client.FetchQuote(context.Background(), "GFGC2654OC")
	if err != nil {
		t.Fatalf("FetchQuote() unexpected error: %v", err)
	}
	if p.ContractSymbol != "GFGC2654OC" {
		t.Errorf("ContractSymbol = %q, want GFGC2654OC", p.ContractSymbol)
	}
	if !p.Price.Equal(decimal.NewFromFloat(120.5)) {
		t.Errorf("Price = %s, want 120.5", p.Price)
	}
	if p.BrokerTime == nil {
		t.Error("BrokerTime = nil, want the broker timestamp")
	}
	if p.Volume != 12 {
		t.Errorf("Volume = %d, want 12", p.Volume)
	}
	if p.SystemTime.IsZero() {
		t.Error("SystemTime is zero, want the fetch time")
	}
}

const historyResponse = `[
  {"ultimoPrecio": 98.0, "fechaHora": "2025-06-02T17:00:00", "volumenNominal": 40},
  {"ultimoPrecio": 101.5, "fechaHora": "2025-06-03T17:00:00", "volumenNominal": 55}
]`

func TestFetchHistory(t *testing.T) {
	var gotAuth, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Write([]byte(historyResponse))
	}))
	defer server.Close()

	client := New("tok-h")
	client.BaseURL = server.URL

	prices, err := client.FetchHistory(context.Background(), "GFGC2654OC",
		date.MustParse("2025-01-01"), date.MustParse("2025-06-30"))
	if err != nil {
		t.Fatalf("FetchHistory() unexpected error: %v", err)
	}
	if gotAuth != "Bearer tok-h" {
		t.Errorf("Authorization header = %q, want %q", gotAuth, "Bearer tok-h")
	}
	wantPath := "/bCBA/Titulos/GFGC2654OC/Cotizacion/seriehistorica/2025-01-01/2025-06-30/ajustada"
	if gotPath != wantPath {
		t.Errorf("path = %q, want %q", gotPath, wantPath)
	}
	if len(prices) != 2 {
		t.Fatalf("got %d prices, want 2", len(prices))
	}
	if !prices[1].Price.Equal(decimal.NewFromFloat(101.5)) {
		t.Errorf("prices[1].Price = %s, want 101.5", prices[1].Price)
	}
	if prices[0].ContractSymbol != "GFGC2654OC" {
		t.Errorf("prices[0].ContractSymbol = %q, want GFGC2654OC", prices[0].ContractSymbol)
	}
	if prices[0].BrokerTime == nil {
		t.Error("prices[0].BrokerTime = nil, want the series timestamp")
	}
}

// Historical series are immutable once the day is over, so a repeated fetch
// within the same day must be served from the disk cache.
func TestFetchHistoryCachesDaily(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(historyResponse))
	}))
	defer server.Close()

	client := New("tok")
	client.BaseURL = server.URL

	from, to := date.MustParse("2025-01-01"), date.MustParse("2025-06-30")
	first, err := client.FetchHistory(context.Background(), "GFGC2654OC", from, to)
	if err != nil {
		t.Fatalf("first FetchHistory() unexpected error: %v", err)
	}
	second, err := client.FetchHistory(context.Background(), "GFGC2654OC", from, to)
	if err != nil {
		t.Fatalf("second FetchHistory() unexpected error: %v", err)
	}
	if hits != 1 {
		t.Errorf("server hits = %d, want 1 (second fetch must come from cache)", hits)
	}
	if len(first) != len(second) {
		t.Errorf("cached fetch returned %d prices, want %d", len(second), len(first))
	}
}
