package data

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Provider names, also used as the snapshot Source.
const (
	SourceBinance = "Binance"
	SourceOKX     = "OKX"
	SourceGateIO  = "Gate.io"
	SourceKuCoin  = "KuCoin"
	SourceCoinCap = "CoinCap"
)

// DefaultProviderOrder is the priority order used when config does not
// override it.
var DefaultProviderOrder = []string{"binance", "okx", "gateio", "kucoin", "coincap"}

// pairProvider fetches two tickers from one exchange concurrently. The
// exchange-specific parts are the URLs and the decode function.
type pairProvider struct {
	name   string
	client *http.Client
	ethURL string
	tiaURL string
	decode func(ctx context.Context, client *http.Client, source, url string) (float64, error)
}

func (p *pairProvider) Name() string { return p.name }

// FetchQuotes requests both tickers at once; either failure fails the pair.
func (p *pairProvider) FetchQuotes(ctx context.Context) (Quotes, error) {
	var q Quotes
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := p.decode(gctx, p.client, p.name, p.ethURL)
		if err != nil {
			return fmt.Errorf("ETH quote: %w", err)
		}
		q.ETH = v
		return nil
	})
	g.Go(func() error {
		v, err := p.decode(gctx, p.client, p.name, p.tiaURL)
		if err != nil {
			return fmt.Errorf("TIA quote: %w", err)
		}
		q.TIA = v
		return nil
	})
	if err := g.Wait(); err != nil {
		return Quotes{}, err
	}
	return q, nil
}

// NewProvider builds a provider by config name. baseURL overrides the
// exchange's public endpoint when non-empty.
func NewProvider(name, baseURL string, client *http.Client) (QuoteProvider, error) {
	switch strings.ToLower(name) {
	case "binance":
		return NewBinanceProvider(baseURL, client), nil
	case "okx":
		return NewOKXProvider(baseURL, client), nil
	case "gateio", "gate.io", "gate":
		return NewGateIOProvider(baseURL, client), nil
	case "kucoin":
		return NewKuCoinProvider(baseURL, client), nil
	case "coincap":
		return NewCoinCapProvider(baseURL, client), nil
	default:
		return nil, fmt.Errorf("unknown price provider: %q", name)
	}
}

// NewProviders builds providers in the given order.
func NewProviders(names []string, baseURLs map[string]string, client *http.Client) ([]QuoteProvider, error) {
	out := make([]QuoteProvider, 0, len(names))
	for _, n := range names {
		p, err := NewProvider(n, baseURLs[strings.ToLower(n)], client)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// NewBinanceProvider reads /api/v3/ticker/price: {"symbol":"ETHUSDT","price":"3500.1"}.
func NewBinanceProvider(baseURL string, client *http.Client) QuoteProvider {
	baseURL = orDefault(baseURL, "https://api.binance.com")
	ticker := func(symbol string) string {
		return baseURL + "/api/v3/ticker/price?symbol=" + url.QueryEscape(symbol)
	}
	return &pairProvider{
		name:   SourceBinance,
		client: client,
		ethURL: ticker("ETHUSDT"),
		tiaURL: ticker("TIAUSDT"),
		decode: decodeBinance,
	}
}

func decodeBinance(ctx context.Context, client *http.Client, source, u string) (float64, error) {
	var body struct {
		Price json.Number `json:"price"`
	}
	if err := getJSON(ctx, client, source, u, &body); err != nil {
		return 0, err
	}
	return parsePrice(body.Price, "price")
}

// NewOKXProvider reads /api/v5/market/ticker: {"data":[{"last":"3500.1"}]}.
func NewOKXProvider(baseURL string, client *http.Client) QuoteProvider {
	baseURL = orDefault(baseURL, "https://www.okx.com")
	ticker := func(inst string) string {
		return baseURL + "/api/v5/market/ticker?instId=" + url.QueryEscape(inst)
	}
	return &pairProvider{
		name:   SourceOKX,
		client: client,
		ethURL: ticker("ETH-USDT"),
		tiaURL: ticker("TIA-USDT"),
		decode: decodeOKX,
	}
}

func decodeOKX(ctx context.Context, client *http.Client, source, u string) (float64, error) {
	var body struct {
		Data []struct {
			Last json.Number `json:"last"`
		} `json:"data"`
	}
	if err := getJSON(ctx, client, source, u, &body); err != nil {
		return 0, err
	}
	if len(body.Data) == 0 {
		return 0, fmt.Errorf("data: %w", ErrEmptyPayload)
	}
	return parsePrice(body.Data[0].Last, "data[0].last")
}

// NewGateIOProvider reads /api/v4/spot/tickers: [{"currency_pair":"ETH_USDT","last":"3500.1"}].
func NewGateIOProvider(baseURL string, client *http.Client) QuoteProvider {
	baseURL = orDefault(baseURL, "https://api.gateio.ws")
	ticker := func(pair string) string {
		return baseURL + "/api/v4/spot/tickers?currency_pair=" + url.QueryEscape(pair)
	}
	return &pairProvider{
		name:   SourceGateIO,
		client: client,
		ethURL: ticker("ETH_USDT"),
		tiaURL: ticker("TIA_USDT"),
		decode: decodeGateIO,
	}
}

func decodeGateIO(ctx context.Context, client *http.Client, source, u string) (float64, error) {
	var body []struct {
		Last json.Number `json:"last"`
	}
	if err := getJSON(ctx, client, source, u, &body); err != nil {
		return 0, err
	}
	if len(body) == 0 {
		return 0, fmt.Errorf("tickers: %w", ErrEmptyPayload)
	}
	return parsePrice(body[0].Last, "[0].last")
}

// NewKuCoinProvider reads /api/v1/market/orderbook/level1: {"data":{"price":"3500.1"}}.
func NewKuCoinProvider(baseURL string, client *http.Client) QuoteProvider {
	baseURL = orDefault(baseURL, "https://api.kucoin.com")
	ticker := func(symbol string) string {
		return baseURL + "/api/v1/market/orderbook/level1?symbol=" + url.QueryEscape(symbol)
	}
	return &pairProvider{
		name:   SourceKuCoin,
		client: client,
		ethURL: ticker("ETH-USDT"),
		tiaURL: ticker("TIA-USDT"),
		decode: decodeKuCoin,
	}
}

func decodeKuCoin(ctx context.Context, client *http.Client, source, u string) (float64, error) {
	var body struct {
		Data *struct {
			Price json.Number `json:"price"`
		} `json:"data"`
	}
	if err := getJSON(ctx, client, source, u, &body); err != nil {
		return 0, err
	}
	if body.Data == nil {
		return 0, fmt.Errorf("data: %w", ErrEmptyPayload)
	}
	return parsePrice(body.Data.Price, "data.price")
}

// NewCoinCapProvider reads /v2/assets/{id}: {"data":{"priceUsd":"3500.1"}}.
func NewCoinCapProvider(baseURL string, client *http.Client) QuoteProvider {
	baseURL = orDefault(baseURL, "https://api.coincap.io")
	return &pairProvider{
		name:   SourceCoinCap,
		client: client,
		ethURL: baseURL + "/v2/assets/ethereum",
		tiaURL: baseURL + "/v2/assets/celestia",
		decode: decodeCoinCap,
	}
}

func decodeCoinCap(ctx context.Context, client *http.Client, source, u string) (float64, error) {
	var body struct {
		Data *struct {
			PriceUSD json.Number `json:"priceUsd"`
		} `json:"data"`
	}
	if err := getJSON(ctx, client, source, u, &body); err != nil {
		return 0, err
	}
	if body.Data == nil {
		return 0, fmt.Errorf("data: %w", ErrEmptyPayload)
	}
	return parsePrice(body.Data.PriceUSD, "data.priceUsd")
}

// parsePrice rejects empty, non-numeric and non-positive quotes.
func parsePrice(n json.Number, field string) (float64, error) {
	if n == "" {
		return 0, fmt.Errorf("%s: %w", field, ErrMissingField)
	}
	v, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, fmt.Errorf("%s: invalid price %v", field, v)
	}
	return v, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return strings.TrimRight(s, "/")
}
