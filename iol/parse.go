package iol

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	operar "github.com/nahuelrabey/operar-marketdata-fetch"
	"github.com/nahuelrabey/operar-marketdata-fetch/date"
)

// chainItem is one entry of the /Opciones response.
type chainItem struct {
	Symbol      string    `json:"simbolo"`
	Underlying  string    `json:"simboloSubyacente"`
	Type        string    `json:"tipoOpcion"` // "Call" or "Put"
	Expiration  string    `json:"fechaVencimiento"`
	Description string    `json:"descripcion"`
	Quote       quoteItem `json:"cotizacion"`
}

type quoteItem struct {
	LastPrice decimal.Decimal `json:"ultimoPrecio"`
	Time      string          `json:"fechaHora"`
	Volume    int64           `json:"volumenNominal"`
}

func (i chainItem) contract() operar.Contract {
	typ, err := operar.ParseOptionType(i.Type)
	if err != nil {
		// keep the broker's raw label: the engine skips unknown types
		typ = operar.OptionType(i.Type)
	}
	expiration, _ := date.Parse(i.Expiration)
	return operar.Contract{
		Symbol:      i.Symbol,
		Underlying:  i.Underlying,
		Type:        typ,
		Strike:      strikeFromDescription(i.Description),
		Expiration:  expiration,
		Description: i.Description,
	}
}

func (i chainItem) price(systemTime time.Time) operar.PriceObservation {
	return i.Quote.observation(i.Symbol, systemTime)
}

func (q quoteItem) observation(symbol string, systemTime time.Time) operar.PriceObservation {
	return operar.PriceObservation{
		ContractSymbol: symbol,
		Price:          q.LastPrice,
		BrokerTime:     parseBrokerTime(q.Time),
		SystemTime:     systemTime,
		Volume:         q.Volume,
	}
}

// numberPattern matches amounts like "2,654.90", "2654.9" or "150".
var numberPattern = regexp.MustCompile(`^(\d{1,3}(,\d{3})*|\d+)(\.\d+)?$`)

// strikeFromDescription extracts the strike price from a contract
// description such as "Call GGAL 2,654.90 Vencimiento 17/10/2025". The API
// does not expose the strike as its own field, so the first token that looks
// like an amount is taken. Returns zero when no amount is found.
func strikeFromDescription(description string) decimal.Decimal {
	for _, part := range strings.Fields(description) {
		if !numberPattern.MatchString(part) {
			continue
		}
		clean := strings.ReplaceAll(part, ",", "")
		if strike, err := decimal.NewFromString(clean); err == nil {
			return strike
		}
	}
	return decimal.Zero
}

var brokerTimeLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// parseBrokerTime parses the broker's quote timestamp. The API reports
// "0001-01-01…" when it has no timestamp; that and anything unparsable map
// to nil.
func parseBrokerTime(s string) *time.Time {
	if s == "" || strings.HasPrefix(s, "0001-01-01") {
		return nil
	}
	for _, layout := range brokerTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// saveSnapshot writes the raw chain response under dir, named after the
// underlying and the fetch time.
func saveSnapshot(dir, underlying string, body []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	name := fmt.Sprintf("%s_option_chain_%s.json", underlying, time.Now().Format("20060102_150405"))
	return os.WriteFile(filepath.Join(dir, name), body, 0o644)
}
