package marketdata

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Price is one quote update for a symbol.
type Price struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Ask       float64 `json:"ask"`
	Bid       float64 `json:"bid"`
	Timestamp int64   `json:"timestamp"`
}

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type command struct {
	Action string `json:"action"`
	Asset  string `json:"asset"`
	Type   string `json:"type,omitempty"`
}

type priceFrame struct {
	Symbol    string    `json:"symbol"`
	Asset     string    `json:"asset"`
	Price     flexFloat `json:"price"`
	Value     flexFloat `json:"value"`
	Ask       flexFloat `json:"ask"`
	Bid       flexFloat `json:"bid"`
	Timestamp int64     `json:"timestamp"`
}

type assetQuote struct {
	Value flexFloat `json:"value"`
	Price flexFloat `json:"price"`
	Ask   flexFloat `json:"ask"`
	Bid   flexFloat `json:"bid"`
}

type assetFrame struct {
	Prices map[string]assetQuote `json:"prices"`
}

// flexFloat accepts a JSON number or a numeric string. Anything else reads as zero.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	raw := string(b)
	if b[0] == '"' {
		s, err := strconv.Unquote(raw)
		if err != nil {
			*f = 0
			return nil
		}
		raw = strings.TrimSpace(s)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(v)
	return nil
}

func firstNonZero(values ...flexFloat) float64 {
	for _, v := range values {
		if v != 0 {
			return float64(v)
		}
	}
	return 0
}

// decodeFrame turns one socket message into zero or more quotes.
func decodeFrame(msg []byte, nowMillis int64) ([]Price, error) {
	var env envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		return nil, err
	}

	switch env.Event {
	case "price":
		var p priceFrame
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, err
		}
		symbol := p.Symbol
		if symbol == "" {
			symbol = p.Asset
		}
		if symbol == "" {
			return nil, nil
		}
		price := firstNonZero(p.Price, p.Value)
		ts := p.Timestamp
		if ts == 0 {
			ts = nowMillis
		}
		return []Price{{
			Symbol:    symbol,
			Price:     price,
			Ask:       firstNonZero(p.Ask, p.Price),
			Bid:       firstNonZero(p.Bid, p.Price),
			Timestamp: ts,
		}}, nil

	case "asset":
		var a assetFrame
		if err := json.Unmarshal(env.Data, &a); err != nil {
			return nil, err
		}
		out := make([]Price, 0, len(a.Prices))
		for symbol, q := range a.Prices {
			out = append(out, Price{
				Symbol:    symbol,
				Price:     firstNonZero(q.Value, q.Price),
				Ask:       firstNonZero(q.Ask, q.Price),
				Bid:       firstNonZero(q.Bid, q.Price),
				Timestamp: nowMillis,
			})
		}
		return out, nil
	}
	return nil, nil
}
