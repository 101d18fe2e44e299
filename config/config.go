package config

import (
	"time"

	"github.com/spf13/viper"
)

// injected configurations
var (
	APP_NAME    string = "bookstore"
	APP_VERSION string = "0.1.0"
)

// value changed by paramaters from config
var (
	BOOKSTORE_ROOT        string = "bookstore-data"
	BOOKSTORE_FORCE_RESET bool   = false
	BOOKSTORE_SYNC_WRITES bool   = true
	BOOKSTORE_LOG_LEVEL   string = "info"

	BOOKSTORE_BLOCK_CACHE_SIZE int64 = 8 << 20
	BOOKSTORE_CACHE_CAPACITY   int64 = 4096 // books held in the read cache, 0 disables

	BOOKSTORE_BCRYPT_COST        int           = 10
	BOOKSTORE_MAX_LOGIN_ATTEMPTS int           = 5
	BOOKSTORE_LOGIN_WINDOW       time.Duration = time.Minute
	BOOKSTORE_LOCKOUT            time.Duration = 5 * time.Minute

	BOOKSTORE_ADMIN_USER     string = "root"
	BOOKSTORE_ADMIN_PASSWORD string = "sjtu"
)

// Load overrides the package variables with whatever v holds. Keys are the
// variable names; anything unset keeps its current value.
func Load(v *viper.Viper) {
	v.SetDefault("BOOKSTORE_ROOT", BOOKSTORE_ROOT)
	v.SetDefault("BOOKSTORE_FORCE_RESET", BOOKSTORE_FORCE_RESET)
	v.SetDefault("BOOKSTORE_SYNC_WRITES", BOOKSTORE_SYNC_WRITES)
	v.SetDefault("BOOKSTORE_LOG_LEVEL", BOOKSTORE_LOG_LEVEL)
	v.SetDefault("BOOKSTORE_BLOCK_CACHE_SIZE", BOOKSTORE_BLOCK_CACHE_SIZE)
	v.SetDefault("BOOKSTORE_CACHE_CAPACITY", BOOKSTORE_CACHE_CAPACITY)
	v.SetDefault("BOOKSTORE_BCRYPT_COST", BOOKSTORE_BCRYPT_COST)
	v.SetDefault("BOOKSTORE_MAX_LOGIN_ATTEMPTS", BOOKSTORE_MAX_LOGIN_ATTEMPTS)
	v.SetDefault("BOOKSTORE_LOGIN_WINDOW", BOOKSTORE_LOGIN_WINDOW)
	v.SetDefault("BOOKSTORE_LOCKOUT", BOOKSTORE_LOCKOUT)
	v.SetDefault("BOOKSTORE_ADMIN_USER", BOOKSTORE_ADMIN_USER)
	v.SetDefault("BOOKSTORE_ADMIN_PASSWORD", BOOKSTORE_ADMIN_PASSWORD)

	BOOKSTORE_ROOT = v.GetString("BOOKSTORE_ROOT")
	BOOKSTORE_FORCE_RESET = v.GetBool("BOOKSTORE_FORCE_RESET")
	BOOKSTORE_SYNC_WRITES = v.GetBool("BOOKSTORE_SYNC_WRITES")
	BOOKSTORE_LOG_LEVEL = v.GetString("BOOKSTORE_LOG_LEVEL")
	BOOKSTORE_BLOCK_CACHE_SIZE = v.GetInt64("BOOKSTORE_BLOCK_CACHE_SIZE")
	BOOKSTORE_CACHE_CAPACITY = v.GetInt64("BOOKSTORE_CACHE_CAPACITY")
	BOOKSTORE_BCRYPT_COST = v.GetInt("BOOKSTORE_BCRYPT_COST")
	BOOKSTORE_MAX_LOGIN_ATTEMPTS = v.GetInt("BOOKSTORE_MAX_LOGIN_ATTEMPTS")
	BOOKSTORE_LOGIN_WINDOW = v.GetDuration("BOOKSTORE_LOGIN_WINDOW")
	BOOKSTORE_LOCKOUT = v.GetDuration("BOOKSTORE_LOCKOUT")
	BOOKSTORE_ADMIN_USER = v.GetString("BOOKSTORE_ADMIN_USER")
	BOOKSTORE_ADMIN_PASSWORD = v.GetString("BOOKSTORE_ADMIN_PASSWORD")
}
