// pkg/registry/schema.go
package registry

import "storefront-workers/internal/catalog/filters"

// CatalogRegistry is the build-time filter catalog: which filters each
// category section offers and how they translate to query parameters.
type CatalogRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Categories  []Category `json:"categories"`
}

type Category struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Sections []Section `json:"sections"`
}

type Section struct {
	ID      string                 `json:"id"`
	Name    string                 `json:"name"`
	Filters []filters.FilterConfig `json:"filters"`
}

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one finding of CatalogRegistry.Validate.
type Issue struct {
	Severity Severity `json:"severity"`
	Path     string   `json:"path"`
	Message  string   `json:"message"`
}
