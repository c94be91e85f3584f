package config

import (
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/csvmap/internal/core"
)

// Settings converts the reader section into core.Settings.
func (c *ReaderConfig) Settings() (core.Settings, error) {
	s := core.DefaultSettings()

	var err error
	if s.Delimiter, err = singleRune("CSV_DELIMITER", c.Delimiter); err != nil {
		return s, err
	}
	if s.Quote, err = singleRune("CSV_QUOTE", c.Quote); err != nil {
		return s, err
	}
	if s.HeaderComparison, err = core.ParseHeaderComparison(c.HeaderComparison); err != nil {
		return s, fmt.Errorf("CSV_HEADER_COMPARISON: %w", err)
	}
	if s.ErrorPolicy, err = core.ParseErrorPolicy(c.ErrorPolicy); err != nil {
		return s, fmt.Errorf("CSV_ERROR_POLICY: %w", err)
	}
	return s, nil
}

func singleRune(name, s string) (rune, error) {
	r, err := core.ParseRune(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return r, nil
}

// ServiceOptions builds the core service options from the upload and
// reader sections. Call it on a validated Config.
func (c *Config) ServiceOptions(logger *slog.Logger) (core.ServiceOptions, error) {
	settings, err := c.Reader.Settings()
	if err != nil {
		return core.ServiceOptions{}, err
	}
	mode, err := core.ParseHeaderMode(c.Reader.HeaderMode)
	if err != nil {
		return core.ServiceOptions{}, fmt.Errorf("CSV_HEADER_MODE: %w", err)
	}
	return core.ServiceOptions{
		Settings:      settings,
		HeaderMode:    mode,
		BatchSize:     c.Upload.BatchSize,
		MaxConcurrent: c.Upload.MaxConcurrent,
		MaxWait:       c.Upload.MaxWaitTime,
		ImportTimeout: c.Upload.Timeout,
		Logger:        logger,
	}, nil
}
