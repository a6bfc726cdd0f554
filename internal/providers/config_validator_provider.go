package providers

import (
	"fmt"

	"github.com/gookit/validate"

	"memoriesbot/internal/structures"
)

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

func (c *CnfValidator) Validate() error {
	v := validate.Struct(c.conf)
	if !v.Validate() {
		return fmt.Errorf("invalid config: %w", v.Errors)
	}
	if c.conf.Backup.Enabled && c.conf.Backup.FilePath == "" {
		return fmt.Errorf("invalid config: backup.filePath is required when backup is enabled")
	}
	if c.conf.Backup.Enabled && c.conf.Backup.Interval <= 0 {
		return fmt.Errorf("invalid config: backup.interval must be positive when backup is enabled")
	}
	return nil
}
