package main

import (
	"time"

	"github.com/ordmarket-labs/ordmarket/common"
	"github.com/ordmarket-labs/ordmarket/config"
	"github.com/ordmarket-labs/ordmarket/db"
	"github.com/ordmarket-labs/ordmarket/market"
	"github.com/ordmarket-labs/ordmarket/ordinals"
	"github.com/ordmarket-labs/ordmarket/server"
	"github.com/ordmarket-labs/ordmarket/share/bitcoin_rpc"
)

func init() {
	config.InitSigInt()
}

func main() {
	yamlcfg := config.InitConfig("")
	config.InitLog(yamlcfg)

	common.Log.Info("Starting...")
	defer func() {
		common.Log.Info("shut down")
	}()

	if yamlcfg == nil {
		common.Log.Error("no config loaded")
		return
	}

	kvdb := db.NewKVDB(yamlcfg.DB.Path + "market")
	if kvdb == nil {
		common.Log.Errorf("failed to open db at %s", yamlcfg.DB.Path)
		return
	}

	rpc, err := InitBitcoinRpc(yamlcfg)
	if err != nil {
		common.Log.Error(err)
		return
	}

	client := ordinals.NewClient(
		yamlcfg.Indexer.BaseUrl,
		yamlcfg.Indexer.MaxConcurrent,
		time.Duration(yamlcfg.Indexer.TimeoutSecond)*time.Second,
	)
	ordSvc := ordinals.NewService(client,
		yamlcfg.Market.OwnershipTtl(),
		yamlcfg.Market.MetadataTtl(),
		yamlcfg.Market.ContentTtl(),
	)

	store := market.NewStore(kvdb)
	assembler := market.NewAssembler(yamlcfg.Chain, yamlcfg.Market.FeeAddress)
	settlement := market.NewSettlement(store, assembler, ordSvc, rpc, yamlcfg.Chain)

	rpcService := server.NewRpc(store, settlement, ordSvc, rpc, yamlcfg.Chain)
	err = rpcService.Start(yamlcfg.RPCService.Addr, yamlcfg.RPCService.Proxy, yamlcfg.RPCService.LogPath)
	if err != nil {
		common.Log.Error(err)
		return
	}
	common.Log.Info("rpc started")

	stopChan := make(chan bool)
	cb := func() {
		common.Log.Info("handle SIGINT for close db")
		stopChan <- true
	}
	config.RegistSigIntFunc(cb)

	<-stopChan
	if err := kvdb.Close(); err != nil {
		common.Log.Error(err)
	}
	common.Log.Info("prepare to release resource...")
}

func InitBitcoinRpc(conf *config.YamlConf) (bitcoin_rpc.BitcoinRPC, error) {
	return bitcoin_rpc.NewBitcoindRPC(
		conf.ShareRPC.Bitcoin.Host,
		conf.ShareRPC.Bitcoin.Port,
		conf.ShareRPC.Bitcoin.User,
		conf.ShareRPC.Bitcoin.Password,
		false,
	)
}
