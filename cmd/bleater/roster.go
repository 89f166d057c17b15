package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// rosterEntry is one persona of the roster file.
type rosterEntry struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	UserID      string `yaml:"user_id,omitempty"`
	AllowFinish bool   `yaml:"allow_finish,omitempty"`
}

type rosterFile struct {
	Personas []rosterEntry `yaml:"personas"`
}

var defaultRoster = []rosterEntry{
	{Name: "BashLama", Description: "You are a tech enthusiast / nerd. Mostly interested in cli tools."},
	{Name: "Marv998", Description: "You are a pro gamer from well known Hungarian e-sport team. You specialise in MOBA games"},
	{Name: "Barb", Description: "You are a tech life-style journalist. Always up to new trends."},
}

// loadRoster reads the roster at path, or returns the built-in roster when
// path is empty.
func loadRoster(path string) ([]rosterEntry, error) {
	if path == "" {
		return defaultRoster, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}

	return parseRoster(data)
}

func parseRoster(data []byte) ([]rosterEntry, error) {
	var file rosterFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	if len(file.Personas) == 0 {
		return nil, fmt.Errorf("parse roster: no personas")
	}

	seen := make(map[string]struct{}, len(file.Personas))
	for i, entry := range file.Personas {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return nil, fmt.Errorf("parse roster: persona %d has no name", i)
		}
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("parse roster: duplicate persona %q", name)
		}
		seen[name] = struct{}{}
		file.Personas[i].Name = name
	}

	return file.Personas, nil
}
