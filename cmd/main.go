package main

import (
	"github.com/spf13/viper"

	"github.com/beyondbrewing/bookstore/bookstore"
	"github.com/beyondbrewing/bookstore/config"
	"github.com/beyondbrewing/bookstore/pkg/logger"
	"github.com/beyondbrewing/bookstore/utils"
)

func main() {
	v := viper.New()
	if err := utils.ImportEnv(v); err != nil {
		logger.Fatal("failed to read environment", "error", err)
	}
	config.Load(v)

	log, err := logger.NewProduction(config.BOOKSTORE_LOG_LEVEL)
	if err != nil {
		logger.Fatal("invalid log level", "level", config.BOOKSTORE_LOG_LEVEL, "error", err)
	}
	logger.SetDefault(log.With("app", config.APP_NAME, "version", config.APP_VERSION))
	defer logger.SyncDefault()

	engine, err := bookstore.New(
		bookstore.WithRoot(config.BOOKSTORE_ROOT),
		bookstore.WithSyncWrites(config.BOOKSTORE_SYNC_WRITES),
		bookstore.WithBlockCacheSize(config.BOOKSTORE_BLOCK_CACHE_SIZE),
		bookstore.WithCacheCapacity(config.BOOKSTORE_CACHE_CAPACITY),
		bookstore.WithBcryptCost(config.BOOKSTORE_BCRYPT_COST),
		bookstore.WithLockout(config.BOOKSTORE_MAX_LOGIN_ATTEMPTS, config.BOOKSTORE_LOGIN_WINDOW, config.BOOKSTORE_LOCKOUT),
		bookstore.WithBootstrapAdmin(config.BOOKSTORE_ADMIN_USER, config.BOOKSTORE_ADMIN_PASSWORD),
		bookstore.WithLogger(logger.Default()),
	)
	if err != nil {
		logger.Fatal("failed to create engine", "error", err)
	}
	defer func() {
		if err := engine.Shutdown(); err != nil {
			logger.Default().Error("shutdown", "error", err)
		}
	}()

	if st := engine.Initialize(config.BOOKSTORE_FORCE_RESET); !st.OK() {
		logger.Fatal("failed to initialize store", "root", config.BOOKSTORE_ROOT, "status", st.String())
	}

	st, admin := engine.Login(config.BOOKSTORE_ADMIN_USER, config.BOOKSTORE_ADMIN_PASSWORD)
	if !st.OK() {
		logger.Fatal("admin login failed", "user", config.BOOKSTORE_ADMIN_USER, "status", st.String())
	}
	defer engine.Logout(admin)

	st, stats := engine.Stats(admin)
	if !st.OK() {
		logger.Fatal("failed to read stats", "status", st.String())
	}
	logger.Default().Info("store opened",
		"root", config.BOOKSTORE_ROOT,
		"books", stats.Books,
		"users", stats.Users,
		"ledger_entries", stats.Entries,
		"income", stats.Finance.Income,
		"expenditure", stats.Finance.Expenditure,
	)

	if st := engine.VerifyLedger(admin); !st.OK() {
		logger.Default().Error("ledger verification failed", "status", st.String())
		return
	}
	logger.Default().Info("ledger verified", "entries", stats.Entries)
}
