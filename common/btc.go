package common

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

const (
	ChainTestnet  = "testnet"
	ChainTestnet4 = "testnet4"
	ChainMainnet  = "mainnet"
)

func ChainParams(chain string) *chaincfg.Params {
	switch chain {
	case ChainTestnet:
		return &chaincfg.TestNet3Params
	case ChainTestnet4:
		return &chaincfg.TestNet3Params
	case ChainMainnet:
		return &chaincfg.MainNetParams
	}
	return &chaincfg.MainNetParams
}

func PkScriptToAddr(pkScript []byte, chain string) (string, error) {
	_, addrs, _, err := txscript.ExtractPkScriptAddrs(pkScript, ChainParams(chain))
	if err != nil {
		return "", err
	}

	if len(addrs) == 0 {
		return "", fmt.Errorf("no address")
	}
	return addrs[0].EncodeAddress(), nil
}

func IsValidAddr(addr string, chain string) bool {
	_, err := btcutil.DecodeAddress(addr, ChainParams(chain))
	return err == nil
}

func AddrToPkScript(addr string, chain string) ([]byte, error) {
	address, err := btcutil.DecodeAddress(addr, ChainParams(chain))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, addr)
	}
	return txscript.PayToAddrScript(address)
}
