package model

// Settlement-layer blob parameters.
const (
	BlobSizeBytes       = 128 * 1024
	GasPerBlob          = 131072
	BlobBaseCost        = 8192
	BlobUtilizationRate = 0.9 // blobs are rarely packed full

	// BlobCommitmentCalldataGas is the calldata gas spent per blob when the
	// batch poster publishes its commitment.
	BlobCommitmentCalldataGas = 2000

	// MinBlobBaseFee and BlobBaseFeeUpdateFraction are the EIP-4844
	// constants used to rebuild the blob base fee from excessBlobGas.
	MinBlobBaseFee            = 1
	BlobBaseFeeUpdateFraction = 3338477
)

// Settlement (batch posting) parameters.
const (
	L1GasPerBatch = 50000 // state root update + proof verification
	TxPerBatch    = 100

	// L1ExecutionGasPerTx is kept for reference: 21000 intrinsic plus state
	// root overhead. Neither settlement model charges it per tx.
	L1ExecutionGasPerTx = 50000

	// RevenueShareSettlementRate is the fraction of gas revenue charged as
	// settlement cost under SettlementRevenueShare.
	RevenueShareSettlementRate = 0.2
)

// Celestia DA parameters.
const (
	CelestiaShareSize   = 500 // payload bytes per share after namespace headers
	CelestiaGasPerShare = 80
	CelestiaFixedGas    = 65000
)

// Unit conversions.
const (
	WeiPerEth   = 1e18
	UtiaPerTia  = 1e6
	WeiPerGwei  = 1_000_000_000
	DaysPerYear = 365
	BytesPerKB  = 1024
)
