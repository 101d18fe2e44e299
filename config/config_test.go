package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	root, lockout, cost := BOOKSTORE_ROOT, BOOKSTORE_LOCKOUT, BOOKSTORE_BCRYPT_COST
	t.Cleanup(func() {
		BOOKSTORE_ROOT, BOOKSTORE_LOCKOUT, BOOKSTORE_BCRYPT_COST = root, lockout, cost
	})

	t.Setenv("BOOKSTORE_ROOT", "/var/lib/bookstore")
	t.Setenv("BOOKSTORE_LOCKOUT", "90s")

	v := viper.New()
	v.AutomaticEnv()
	Load(v)

	assert.Equal(t, "/var/lib/bookstore", BOOKSTORE_ROOT)
	assert.Equal(t, 90*time.Second, BOOKSTORE_LOCKOUT)
	assert.Equal(t, cost, BOOKSTORE_BCRYPT_COST, "unset keys keep their value")
}
