package utils

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// LoadConfig loads <path>/.env into the process environment (existing variables win)
// and prepares viper to resolve the same keys, lower-cased, from the environment.
func LoadConfig(path string) {
	envFile := filepath.Join(path, ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			logrus.Warnf("[CONFIG] Failed to load %s: %v", envFile, err)
		}
	}

	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
}
