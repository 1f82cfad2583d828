package utils

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
)

// GetPersistentServerID returns a stable identifier for this process, used to tag
// realtime events fanned out through Valkey so an instance can skip its own echoes.
// Resolution order: explicit override, storages/.server_id, hostname, random (persisted).
func GetPersistentServerID(override, storagePath string) string {
	if override != "" {
		return override
	}

	idFile := filepath.Join(storagePath, ".server_id")
	if data, err := os.ReadFile(idFile); err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id
		}
	}

	if hostname, err := os.Hostname(); err == nil && hostname != "" && hostname != "localhost" {
		cleanHost := strings.Map(func(r rune) rune {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
				return r
			}
			return -1
		}, hostname)
		if cleanHost != "" {
			return "azagent-" + cleanHost
		}
	}

	randomPart := make([]byte, 4)
	_, _ = rand.Read(randomPart)
	newID := "azagent-" + hex.EncodeToString(randomPart)

	_ = os.MkdirAll(storagePath, 0755)
	_ = os.WriteFile(idFile, []byte(newID), 0644)

	return newID
}

// CreateFolder creates every given directory (and parents) if missing.
func CreateFolder(folderPath ...string) error {
	for _, folder := range folderPath {
		if err := os.MkdirAll(folder, 0755); err != nil {
			return err
		}
	}
	return nil
}
