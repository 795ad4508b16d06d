package bitcoin_rpc

import "github.com/OLProtocol/go-bitcoind"

type BitcoinRPC interface {
	TestTx(signedTxHex string) (*bitcoind.TransactionTestResult, error)
	SendTx(signedTxHex string) (string, error)
	SubmitTx(signedTxHex string) (string, error)

	GetTx(txid string) (*bitcoind.RawTransaction, error)
	GetBlockCount() (uint64, error)

	EstimateSmartFeeWithMode(minconf int, mode string) (*bitcoind.EstimateSmartFeeResult, error)
}
