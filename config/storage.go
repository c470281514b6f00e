package config

import "fmt"

// DevicesConfig locates the device directory.
type DevicesConfig struct {
	// Path is a JSON or YAML directory file.
	Path string `json:"path"`
}

func (c *DevicesConfig) SetDefaults() {
	if c.Path == "" {
		c.Path = "devices.json"
	}
}

func (c DevicesConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}

// CheckpointConfig defines where sweep checkpoints are persisted.
type CheckpointConfig struct {
	// Path is the JSON file holding the latest checkpoint.
	Path string `json:"path"`
	// HistoryDB optionally appends every sweep to a SQLite database.
	HistoryDB string `json:"history_db"`
}

func (c *CheckpointConfig) SetDefaults() {
	if c.Path == "" {
		c.Path = "checkpoint.json"
	}
}

func (c CheckpointConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("path is required")
	}
	if c.HistoryDB != "" && c.HistoryDB == c.Path {
		return fmt.Errorf("history_db must differ from path")
	}
	return nil
}
