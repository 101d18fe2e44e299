package utils

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// ImportEnv reads a .env file from the first of dirs that has one (the
// working directory if none are given) and layers the process environment
// on top. A missing file is not an error.
func ImportEnv(v *viper.Viper, dirs ...string) error {
	if len(dirs) == 0 {
		dirs = []string{"."}
	}
	v.SetConfigName(".env")
	v.SetConfigType("env")
	for _, d := range dirs {
		v.AddConfigPath(d)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("fatal error config file: %w", err)
		}
	}
	return nil
}
