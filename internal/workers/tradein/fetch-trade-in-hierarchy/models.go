// internal/workers/tradein/fetch-trade-in-hierarchy/models.go
package fetchtradeinhierarchy

import (
	"time"

	"storefront-workers/internal/tradein"
)

type Input struct {
	// CategoryID narrows the result to one category when set.
	CategoryID string `json:"categoryId,omitempty"`
}

type Output struct {
	Categories []tradein.Category `json:"categories"`
	LoadedAt   time.Time          `json:"loadedAt"`
}
