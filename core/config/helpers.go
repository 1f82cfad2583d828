package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// GetAllSettings returns the non-secret settings currently loaded in memory.
func GetAllSettings() map[string]any {
	if Global == nil {
		return map[string]any{}
	}
	return map[string]any{
		"app_debug":          Global.App.Debug,
		"app_version":        Global.App.Version,
		"db_driver":          Global.Database.Driver,
		"valkey_enabled":     Global.Database.ValkeyEnabled,
		"ai_provider":        Global.AI.Provider,
		"ai_model":           Global.AI.Model,
		"ai_timeout_seconds": int(Global.AI.Timeout / time.Second),
		"ai_embedding":       Global.AI.EmbeddingProvider,
		"smtp_enabled":       Global.Mail.Enabled,
		"amqp_enabled":       Global.Queue.Enabled,
	}
}

// Helpers
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvSeconds(key string, fallback int) time.Duration {
	return time.Duration(getEnvInt(key, fallback)) * time.Second
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		vLower := strings.ToLower(v)
		return vLower == "1" || vLower == "true" || vLower == "yes" || vLower == "on"
	}
	return fallback
}
