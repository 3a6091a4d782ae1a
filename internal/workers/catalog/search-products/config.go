// internal/workers/catalog/search-products/config.go
package searchproducts

import "time"

type Config struct {
	Timeout      time.Duration
	DefaultIndex string
	DefaultSize  int
	MaxSize      int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      30 * time.Second,
		DefaultIndex: "products",
		DefaultSize:  20,
		MaxSize:      100,
	}
}
