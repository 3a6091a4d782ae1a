// internal/workers/tradein/fetch-trade-in-hierarchy/config.go
package fetchtradeinhierarchy

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 15 * time.Second,
	}
}
