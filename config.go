package pagequery

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pagequery/pagequery/internal/engine"
	"github.com/pagequery/pagequery/internal/storage/pager"
)

// Config controls the page size, buffer pool capacity, B+Tree fanout,
// and background maintenance behavior of an opened Database (§4.1,
// §4.2, §9.5).
type Config struct {
	// PageSize is the fixed page size in bytes. Defaults to
	// pager.DefaultPageSize (4096).
	PageSize int `yaml:"page_size"`
	// BufferPoolPages is the buffer pool's frame capacity.
	BufferPoolPages int `yaml:"buffer_pool_pages"`
	// IndexOrder is the B+Tree order used for newly created indexes.
	IndexOrder int `yaml:"index_order"`
	// Maintenance configures the periodic buffer-pool flush scheduler.
	// A zero value (empty CronExpr) disables it.
	Maintenance engine.MaintenanceSpec `yaml:"maintenance"`
}

// Default returns the specification's default configuration: 4096-byte
// pages, a 1024-frame buffer pool, and an order-64 B+Tree, with
// maintenance disabled.
func Default() Config {
	return Config{
		PageSize:        pager.DefaultPageSize,
		BufferPoolPages: 1024,
		IndexOrder:      64,
	}
}

// LoadConfig reads a YAML configuration file at path, starting from
// Default() and overlaying whatever fields the file sets.
func LoadConfig(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) withDefaults() Config {
	if c.PageSize <= 0 {
		c.PageSize = pager.DefaultPageSize
	}
	if c.BufferPoolPages <= 0 {
		c.BufferPoolPages = 1024
	}
	if c.IndexOrder < 3 {
		c.IndexOrder = 64
	}
	return c
}
