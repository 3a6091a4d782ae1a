// internal/workers/catalog/translate-dynamic-filters/config.go
package translatedynamicfilters

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
