package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// Prefs holds the CLI's saved defaults so repeat invocations don't need the
// same flags every time.
type Prefs struct {
	APIBaseURL      string `json:"api_base_url,omitempty"`
	DefaultCategory string `json:"default_category,omitempty"`
}

func baseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".gig")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

func prefsPath() (string, error) {
	dir, err := baseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "prefs.json"), nil
}

func SavePrefs(p Prefs) error {
	path, err := prefsPath()
	if err != nil {
		return err
	}
	body, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, body, 0o600)
}

// LoadPrefs returns zero prefs when none have been saved yet.
func LoadPrefs() (Prefs, error) {
	path, err := prefsPath()
	if err != nil {
		return Prefs{}, err
	}
	body, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Prefs{}, nil
	}
	if err != nil {
		return Prefs{}, err
	}
	var p Prefs
	if err := json.Unmarshal(body, &p); err != nil {
		return Prefs{}, err
	}
	p.APIBaseURL = strings.TrimSpace(p.APIBaseURL)
	p.DefaultCategory = strings.TrimSpace(p.DefaultCategory)
	return p, nil
}

func ClearPrefs() error {
	path, err := prefsPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return os.Remove(path)
}
