package bitcoin_rpc

import (
	"fmt"

	"github.com/OLProtocol/go-bitcoind"
	"github.com/ordmarket-labs/ordmarket/common"
)

func NewBitcoindRPC(host string, port int, user, passwd string, useSSL bool) (*BitcoindRPC, error) {
	rpc, err := bitcoind.New(
		host,
		port,
		user,
		passwd,
		useSSL,
		120,
	)
	if err != nil {
		return nil, err
	}
	return &BitcoindRPC{bitcoind: rpc}, nil
}

type BitcoindRPC struct {
	bitcoind *bitcoind.Bitcoind
}

func (p *BitcoindRPC) TestTx(signedTxHex string) (*bitcoind.TransactionTestResult, error) {
	resp, err := p.bitcoind.TestMempoolAccept([]string{signedTxHex})
	if err != nil {
		return nil, err
	}
	if len(resp) == 0 {
		return nil, fmt.Errorf("invalid TransactionTestResult type")
	}
	ret := resp[0]
	return &ret, nil
}

func (p *BitcoindRPC) SendTx(signedTxHex string) (string, error) {
	return p.bitcoind.SendRawTransaction(signedTxHex, 0)
}

// SubmitTx runs the mempool preflight before broadcasting, so a doomed
// transaction (double spend, bad script) comes back with the node's reject
// reason instead of a bare send failure.
func (p *BitcoindRPC) SubmitTx(signedTxHex string) (string, error) {
	result, err := p.TestTx(signedTxHex)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrExternalUnavailable, err)
	}
	if !result.Allowed {
		return "", fmt.Errorf("%w: %s", common.ErrBroadcastRejected, result.RejectReason)
	}
	txid, err := p.SendTx(signedTxHex)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrBroadcastRejected, err)
	}
	return txid, nil
}

func (p *BitcoindRPC) GetTx(txid string) (*bitcoind.RawTransaction, error) {
	resp, err := p.bitcoind.GetRawTransaction(txid, true)
	if err != nil {
		return nil, err
	}
	ret, ok := resp.(bitcoind.RawTransaction)
	if !ok {
		return nil, fmt.Errorf("invalid RawTransaction type")
	}
	return &ret, nil
}

func (p *BitcoindRPC) GetBlockCount() (uint64, error) {
	return p.bitcoind.GetBlockCount()
}

func (p *BitcoindRPC) EstimateSmartFeeWithMode(minconf int, mode string) (*bitcoind.EstimateSmartFeeResult, error) {
	ret, err := p.bitcoind.EstimateSmartFeeWithMode(minconf, mode)
	if err != nil {
		return nil, err
	}
	return &ret, nil
}
