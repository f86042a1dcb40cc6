package config

import (
	"fmt"
	"os"
	"strings"
)

// secretsDir is the Docker Secrets mount point; tests override it.
var secretsDir = "/run/secrets"

// ReadSecret читает секрет из файла в стандартном пути Docker Secrets.
func ReadSecret(secretName string) (string, error) {
	filePath := fmt.Sprintf("%s/%s", secretsDir, secretName)
	secretBytes, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file %s: %w", filePath, err)
	}
	secret := strings.TrimSpace(string(secretBytes))
	if secret == "" {
		return "", fmt.Errorf("secret file %s is empty", filePath)
	}
	return secret, nil
}

// ReadOptionalSecret returns "" when the secret is absent.
func ReadOptionalSecret(secretName string) string {
	s, err := ReadSecret(secretName)
	if err != nil {
		return ""
	}
	return s
}
