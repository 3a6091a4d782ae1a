// internal/workers/tradein/advance-trade-in-wizard/config.go
package advancetradeinwizard

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}
