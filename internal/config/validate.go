package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateScan(); err != nil {
		return err
	}
	if err := c.validateReview(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.Root) == "" {
		return errors.New("paths.root must be set")
	}
	name := c.Paths.TrashDirName
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("paths.trash_dir_name %q must be a single path segment", name)
	}
	if name == "." || name == ".." {
		return fmt.Errorf("paths.trash_dir_name %q is not a usable directory name", name)
	}
	if c.Paths.APIBind == "" {
		return errors.New("paths.api_bind must be set")
	}
	return nil
}

func (c *Config) validateScan() error {
	if len(c.Scan.Extensions) == 0 {
		return errors.New("scan.extensions must list at least one extension")
	}
	if strings.ContainsAny(c.Scan.Subfolder, `/\`) {
		return fmt.Errorf("scan.subfolder %q must be an immediate child of the root", c.Scan.Subfolder)
	}
	return nil
}

func (c *Config) validateReview() error {
	if c.Review.PageSize < 1 || c.Review.PageSize > 200 {
		return fmt.Errorf("review.page_size must be between 1 and 200, got %d", c.Review.PageSize)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
