package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"appchain-calc/internal/metrics"
	"appchain-calc/internal/model"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Default endpoints and deadline for the fee oracle.
const (
	DefaultEthRPCURL       = "https://eth.llamarpc.com"
	DefaultCelestiaGasURL  = "https://api-mainnet.celenium.io/v1/gas/price"
	DefaultFeeQueryTimeout = 3 * time.Second
)

// Fee query names used in logs and metrics.
const (
	queryBaseFee     = "base_fee"
	queryBlobFee     = "blob_fee"
	queryCelestiaGas = "celestia_gas"
)

// FeeData holds the fee half of a market snapshot.
type FeeData struct {
	EthBaseFee      uint64  `json:"ethBaseFee"`
	BlobMarketPrice uint64  `json:"blobMarketPrice"`
	TiaGasPrice     float64 `json:"tiaGasPrice"`
}

// DefaultFeeData returns the static fee defaults.
func DefaultFeeData() FeeData {
	return FeeData{
		EthBaseFee:      model.DefaultEthBaseFee,
		BlobMarketPrice: model.DefaultBlobMarketPrice,
		TiaGasPrice:     model.DefaultTiaGasPrice,
	}
}

// FeeOracle reads the execution base fee and blob base fee from an Ethereum
// JSON-RPC node and the gas price from a Celestia indexer.
type FeeOracle struct {
	rpc     *rpc.Client
	http    *http.Client
	gasURL  string
	timeout time.Duration
	log     *zap.Logger
}

// NewFeeOracle dials rpcURL lazily (HTTP transports connect per call).
func NewFeeOracle(rpcURL, gasURL string, client *http.Client, timeout time.Duration, logger *zap.Logger) (*FeeOracle, error) {
	if rpcURL == "" {
		rpcURL = DefaultEthRPCURL
	}
	if gasURL == "" {
		gasURL = DefaultCelestiaGasURL
	}
	if timeout <= 0 {
		timeout = DefaultFeeQueryTimeout
	}
	if client == nil {
		client = NewHTTPClient(timeout)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c, err := rpc.DialOptions(context.Background(), rpcURL, rpc.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("dial eth rpc %s: %w", rpcURL, err)
	}
	return &FeeOracle{
		rpc:     c,
		http:    client,
		gasURL:  gasURL,
		timeout: timeout,
		log:     logger,
	}, nil
}

// Close releases the RPC client.
func (o *FeeOracle) Close() {
	o.rpc.Close()
}

// Fetch runs the three fee queries concurrently. Each falls back to its own
// default independently, so Fetch never fails.
func (o *FeeOracle) Fetch(ctx context.Context) FeeData {
	var fd FeeData
	var g errgroup.Group
	g.Go(func() error {
		fd.EthBaseFee = o.BaseFee(ctx)
		return nil
	})
	g.Go(func() error {
		fd.BlobMarketPrice = o.BlobBaseFee(ctx)
		return nil
	})
	g.Go(func() error {
		fd.TiaGasPrice = o.CelestiaGasPrice(ctx)
		return nil
	})
	_ = g.Wait()
	return fd
}

// blockHeader is the subset of eth_getBlockByNumber we read.
type blockHeader struct {
	BaseFeePerGas *hexutil.Big    `json:"baseFeePerGas"`
	ExcessBlobGas *hexutil.Uint64 `json:"excessBlobGas"`
}

// BaseFee returns the latest block's base fee in wei, or 15 gwei.
func (o *FeeOracle) BaseFee(ctx context.Context) uint64 {
	head, err := o.latestHeader(ctx)
	if err == nil && head.BaseFeePerGas == nil {
		err = fmt.Errorf("baseFeePerGas: %w", ErrMissingField)
	}
	var fee uint64
	if err == nil {
		fee, err = toWei(head.BaseFeePerGas)
	}
	if err != nil {
		o.fail(queryBaseFee, err)
		return model.DefaultEthBaseFee
	}
	o.succeed(queryBaseFee, zap.Uint64("wei", fee))
	return fee
}

// BlobBaseFee asks the node for eth_blobBaseFee. Nodes without the method
// are handled by rebuilding the fee from the latest header's excessBlobGas.
// If both paths fail the 1 gwei default is returned.
func (o *FeeOracle) BlobBaseFee(ctx context.Context) uint64 {
	fee, err := o.directBlobBaseFee(ctx)
	if err == nil {
		o.succeed(queryBlobFee, zap.Uint64("wei", fee), zap.String("method", "eth_blobBaseFee"))
		return fee
	}
	o.log.Debug("[FeeOracle] eth_blobBaseFee unavailable, rebuilding from header", zap.Error(err))

	head, err := o.latestHeader(ctx)
	if err == nil && head.ExcessBlobGas == nil {
		err = fmt.Errorf("excessBlobGas: %w", ErrMissingField)
	}
	if err == nil {
		excess := uint64(*head.ExcessBlobGas)
		var ok bool
		if fee, ok = BlobBaseFeeFromExcess(excess); ok {
			o.succeed(queryBlobFee, zap.Uint64("wei", fee), zap.Uint64("excessBlobGas", excess))
			return fee
		}
		err = fmt.Errorf("blob fee for excessBlobGas %d out of range", excess)
	}
	o.fail(queryBlobFee, err)
	return model.DefaultBlobMarketPrice
}

// BlobBaseFeeFromExcess evaluates MIN_BLOB_BASE_FEE * e^(excess / UPDATE_FRACTION)
// floored to wei. ok is false when the result does not fit in a uint64.
func BlobBaseFeeFromExcess(excessBlobGas uint64) (fee uint64, ok bool) {
	f := math.Floor(model.MinBlobBaseFee * math.Exp(float64(excessBlobGas)/model.BlobBaseFeeUpdateFraction))
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f >= math.MaxUint64 {
		return 0, false
	}
	return uint64(f), true
}

func (o *FeeOracle) directBlobBaseFee(ctx context.Context) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	var fee *hexutil.Big
	if err := o.rpc.CallContext(ctx, &fee, "eth_blobBaseFee"); err != nil {
		return 0, err
	}
	if fee == nil {
		return 0, fmt.Errorf("eth_blobBaseFee result: %w", ErrMissingField)
	}
	return toWei(fee)
}

func (o *FeeOracle) latestHeader(ctx context.Context) (*blockHeader, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	var head *blockHeader
	if err := o.rpc.CallContext(ctx, &head, "eth_getBlockByNumber", "latest", false); err != nil {
		return nil, err
	}
	if head == nil {
		return nil, fmt.Errorf("latest block: %w", ErrEmptyPayload)
	}
	return head, nil
}

// celestiaGasResponse mirrors Celenium's /v1/gas/price. Values arrive as
// strings but numbers are tolerated.
type celestiaGasResponse struct {
	Slow   json.RawMessage `json:"slow"`
	Median json.RawMessage `json:"median"`
	Fast   json.RawMessage `json:"fast"`
}

// CelestiaGasPrice returns the indexer's "slow" gas price in utia/gas,
// falling back to "median" and then to 0.004. A NaN never escapes.
func (o *FeeOracle) CelestiaGasPrice(ctx context.Context) float64 {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	var body celestiaGasResponse
	if err := getJSON(ctx, o.http, "Celenium", o.gasURL, &body); err != nil {
		o.fail(queryCelestiaGas, err)
		return model.DefaultTiaGasPrice
	}

	raw, ok := gasField(body.Slow)
	if !ok {
		raw, ok = gasField(body.Median)
	}
	if !ok {
		raw = strconv.FormatFloat(model.DefaultTiaGasPrice, 'f', -1, 64)
	}
	price := parseLeadingFloat(raw)
	if math.IsNaN(price) {
		o.fail(queryCelestiaGas, fmt.Errorf("unparseable gas price %q", raw))
		return model.DefaultTiaGasPrice
	}
	o.succeed(queryCelestiaGas, zap.Float64("utia", price))
	return price
}

// gasField returns a usable textual value: a non-empty string or a non-zero
// number. Anything else counts as absent.
func gasField(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, s != ""
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		v, err := n.Float64()
		return n.String(), err == nil && v != 0
	}
	// Objects, arrays and booleans still go through the parser and come out NaN.
	return string(raw), true
}

var leadingFloat = regexp.MustCompile(`^[+-]?(Infinity|(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?)`)

// parseLeadingFloat parses the longest numeric prefix of s, like a lenient
// browser-side parse: "0.002utia" is 0.002, "abc" is NaN.
func parseLeadingFloat(s string) float64 {
	m := leadingFloat.FindString(strings.TrimSpace(s))
	if m == "" {
		return math.NaN()
	}
	m = strings.Replace(m, "Infinity", "Inf", 1)
	v, err := strconv.ParseFloat(m, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return math.NaN()
	}
	return v
}

func toWei(v *hexutil.Big) (uint64, error) {
	b := v.ToInt()
	if b.Sign() < 0 || !b.IsUint64() {
		return 0, fmt.Errorf("fee %s out of range", b)
	}
	return b.Uint64(), nil
}

func (o *FeeOracle) fail(query string, err error) {
	o.log.Warn("[FeeOracle] query failed, using default", zap.String("query", query), zap.Error(err))
	metrics.FeeQueries.WithLabelValues(query, metrics.OutcomeDefault).Inc()
}

func (o *FeeOracle) succeed(query string, fields ...zap.Field) {
	o.log.Info("[FeeOracle] query succeeded", append([]zap.Field{zap.String("query", query)}, fields...)...)
	metrics.FeeQueries.WithLabelValues(query, metrics.OutcomeSuccess).Inc()
}
