package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// TomlKeywords holds keyword configurations
type TomlKeywords map[string][]string

// TomlFilter represents a filter configuration
type TomlFilter struct {
	Type      string        `toml:"type"`
	Column    string        `toml:"column,omitempty"`
	Value     interface{}   `toml:"value,omitempty"`
	Values    []interface{} `toml:"values,omitempty"`
	Languages []string      `toml:"languages,omitempty"`
	Include   []string      `toml:"include,omitempty"` // References to keyword lists
	Exclude   []string      `toml:"exclude,omitempty"` // References to keyword lists
}

// TomlSource is one tagged source of a feed
type TomlSource struct {
	Tag     string       `toml:"tag"`
	Type    string       `toml:"type"` // Registered type name or alias
	Filters []TomlFilter `toml:"filters"`
	OrderBy []string     `toml:"order_by,omitempty"`
	Limit   *int         `toml:"limit,omitempty"`
}

// TomlFeed represents feed configuration
type TomlFeed struct {
	Id               string       `toml:"id"`
	DisplayName      string       `toml:"display_name"`
	Description      string       `toml:"description"`
	RemoveDuplicates bool         `toml:"remove_duplicates"`
	Sources          []TomlSource `toml:"sources"`
}

// TomlColumns names the synthetic tag and type columns
type TomlColumns struct {
	Tag  string `toml:"tag"`
	Type string `toml:"type"`
}

// TomlConfig represents the top-level configuration
type TomlConfig struct {
	Keywords TomlKeywords `toml:"keywords"`
	Columns  TomlColumns  `toml:"columns"`
	Feeds    []TomlFeed   `toml:"feeds"`
}

func LoadConfig(path string) (*TomlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	return ParseConfig(data)
}

func ParseConfig(data []byte) (*TomlConfig, error) {
	var config TomlConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	seen := make(map[string]bool, len(config.Feeds))
	for _, feed := range config.Feeds {
		if feed.Id == "" {
			return nil, fmt.Errorf("feed without id")
		}
		if seen[feed.Id] {
			return nil, fmt.Errorf("duplicate feed id %q", feed.Id)
		}
		seen[feed.Id] = true
	}

	return &config, nil
}
