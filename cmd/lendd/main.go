package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"lendbook/config"
	lendcrypto "lendbook/crypto"
	"lendbook/native/bank"
	"lendbook/native/lend"
	"lendbook/observability/logging"
	"lendbook/rpc"
	"lendbook/storage"
	"lendbook/storage/lendstate"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("LENDBOOK_ENV"))
	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	if env == "" {
		env = cfg.Env
	}
	logger := logging.Setup("lendd", env)

	var db storage.Database
	if cfg.DataDir == "" {
		db = storage.NewMemDB()
	} else {
		leveldb, err := storage.NewLevelDB(cfg.DataDir)
		if err != nil {
			logger.Error("failed to open database", "path", cfg.DataDir, "err", err)
			os.Exit(1)
		}
		db = leveldb
	}
	defer db.Close()

	escrow := common.HexToAddress(cfg.EscrowAddress)
	feeRecipient := common.HexToAddress(cfg.FeeRecipient)

	token := bank.NewToken(db, escrow)
	positions := bank.NewPositions(db, escrow)

	engine := lend.NewEngine(escrow, feeRecipient)
	engine.SetState(lendstate.New(db))
	engine.SetTokenLedger(token)
	engine.SetPositionLedger(positions)
	positions.RegisterReceiver(escrow, engine)

	if cfg.ProxyFactory != "" {
		factory := common.HexToAddress(cfg.ProxyFactory)
		initCodeHash := common.HexToHash(cfg.ProxyInitCodeHash)
		engine.SetWalletDeriver(lendcrypto.NewDeriver(factory, initCodeHash))
	}

	server := rpc.NewServer(engine, logger)
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("rpc server stopped", "err", err)
		os.Exit(1)
	}
}
