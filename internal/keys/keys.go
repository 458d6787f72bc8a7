package keys

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const keyName = "openai"

// Store handles API key storage and retrieval
type Store struct {
	configDir string
}

// KeyEntry represents a stored API key
type KeyEntry struct {
	Key string `json:"key"`
}

type keyFile map[string]KeyEntry

// NewStore creates a new key store
func NewStore() (*Store, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return nil, err
	}
	return &Store{configDir: configDir}, nil
}

// getConfigDir returns the platform-specific config directory
func getConfigDir() (string, error) {
	// Allow override for testing
	if testDir := os.Getenv("THUMBCHAT_CONFIG_DIR"); testDir != "" {
		return testDir, nil
	}

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", "thumbchat"), nil
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, "thumbchat"), nil
	default: // linux and others
		// Follow XDG Base Directory Specification
		configHome := os.Getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configHome = filepath.Join(home, ".config")
		}
		return filepath.Join(configHome, "thumbchat"), nil
	}
}

// Path returns the path to the keys.json file
func (s *Store) Path() string {
	return filepath.Join(s.configDir, "keys.json")
}

func (s *Store) load() (keyFile, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return make(keyFile), nil
		}
		return nil, err
	}

	var keys keyFile
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("failed to parse keys.json: %w", err)
	}
	return keys, nil
}

func (s *Store) save(keys keyFile) error {
	if err := os.MkdirAll(s.configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(keys, "", "  ")
	if err != nil {
		return err
	}

	// Write with restricted permissions (owner read/write only)
	if err := os.WriteFile(s.Path(), data, 0600); err != nil {
		return fmt.Errorf("failed to write keys.json: %w", err)
	}
	return nil
}

// Set stores the API key
func (s *Store) Set(key string) error {
	keys, err := s.load()
	if err != nil {
		return err
	}

	keys[keyName] = KeyEntry{Key: key}
	return s.save(keys)
}

// Get retrieves the stored API key; an absent key is not an error.
func (s *Store) Get() (string, error) {
	keys, err := s.load()
	if err != nil {
		return "", err
	}

	entry, ok := keys[keyName]
	if !ok {
		return "", nil
	}
	return entry.Key, nil
}

// Delete removes the stored API key
func (s *Store) Delete() error {
	keys, err := s.load()
	if err != nil {
		return err
	}

	if _, ok := keys[keyName]; !ok {
		return fmt.Errorf("no stored key")
	}

	delete(keys, keyName)
	return s.save(keys)
}

// Exists checks whether a key is stored
func (s *Store) Exists() (bool, error) {
	keys, err := s.load()
	if err != nil {
		return false, err
	}
	_, ok := keys[keyName]
	return ok, nil
}

// MaskKey returns a masked version of the key for display
func MaskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

// Resolve returns the API key using the priority order:
// 1. Explicit key passed as argument (if non-empty)
// 2. Stored key in keys.json
// 3. OPENAI_API_KEY environment variable
// An empty result is not an error here; callers decide how to surface it.
func Resolve(explicitKey string) (string, string) {
	if explicitKey != "" {
		return explicitKey, "command-line flag"
	}

	store, err := NewStore()
	if err == nil {
		storedKey, err := store.Get()
		if err == nil && storedKey != "" {
			return storedKey, "stored key (keys.json)"
		}
	}

	if envKey := os.Getenv("OPENAI_API_KEY"); envKey != "" {
		return envKey, "environment variable (OPENAI_API_KEY)"
	}

	return "", ""
}
