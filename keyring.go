package main

import (
	"fmt"

	gokeyring "github.com/zalando/go-keyring"
)

const (
	keyringService  = "dev.peakflames.mogzi"
	apiKeyKeyPrefix = "apikey_"
)

// GetAPIKeyFromKeyring retrieves a provider API key from the OS keyring.
// Keys are stored there by external tooling; this process only reads.
func GetAPIKeyFromKeyring(provider string) (string, error) {
	key, err := gokeyring.Get(keyringService, apiKeyKeyPrefix+provider)
	if err != nil {
		return "", fmt.Errorf("reading API key from keyring: %w", err)
	}
	return key, nil
}
