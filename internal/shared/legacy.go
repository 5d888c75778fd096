// Import of the flat JSON settings file written by earlier releases.
package shared

import (
	"encoding/json"
	"fmt"
	"os"
)

// LegacyConfigFile is the file name earlier releases stored settings under.
const LegacyConfigFile = "photo_sync_config.json"

// LegacyConfig mirrors the flat JSON layout of [LegacyConfigFile].
type LegacyConfig struct {
	PhotoPrismURL  string `json:"photoprism_url"`
	PhotoPrismUser string `json:"photoprism_user"`
	PhotoPrismPass string `json:"photoprism_pass"`
	LycheeURL      string `json:"lychee_url"`
	LycheeUser     string `json:"lychee_user"`
	LycheePass     string `json:"lychee_pass"`
}

// LoadLegacyConfig reads a legacy JSON settings file. Unknown keys are ignored.
func LoadLegacyConfig(path string) (*LegacyConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read legacy config: %w", ErrMissingConfig, err)
	}

	return ParseLegacyConfig(data)
}

// ParseLegacyConfig decodes legacy JSON settings.
func ParseLegacyConfig(data []byte) (*LegacyConfig, error) {
	var legacy LegacyConfig
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, fmt.Errorf("%w: failed to parse legacy config: %w", ErrInvalidConfig, err)
	}
	return &legacy, nil
}

// Apply copies non-empty legacy values onto config.
func (l *LegacyConfig) Apply(config *Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	set(&config.PhotoPrism.URL, l.PhotoPrismURL)
	set(&config.PhotoPrism.Username, l.PhotoPrismUser)
	set(&config.PhotoPrism.Password, l.PhotoPrismPass)
	set(&config.Lychee.URL, l.LycheeURL)
	set(&config.Lychee.Username, l.LycheeUser)
	set(&config.Lychee.Password, l.LycheePass)
}
