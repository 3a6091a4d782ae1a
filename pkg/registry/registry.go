// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"storefront-workers/internal/catalog/filters"
)

func LoadRegistry(path string) (*CatalogRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseRegistry(data)
}

func ParseRegistry(data []byte) (*CatalogRegistry, error) {
	var reg CatalogRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse catalog registry: %w", err)
	}
	return &reg, nil
}

// Lookup returns a copy of the filters of a category section. An empty
// sectionID selects the category's first section.
func (r *CatalogRegistry) Lookup(categoryID, sectionID string) ([]filters.FilterConfig, bool) {
	for _, c := range r.Categories {
		if !strings.EqualFold(c.ID, categoryID) {
			continue
		}
		if len(c.Sections) == 0 {
			return nil, false
		}
		if sectionID == "" {
			return copyFilters(c.Sections[0].Filters), true
		}
		for _, s := range c.Sections {
			if strings.EqualFold(s.ID, sectionID) {
				return copyFilters(s.Filters), true
			}
		}
		return nil, false
	}
	return nil, false
}

// Validate reports structural errors and operators the translator would
// drop. A registry with only warnings is usable.
func (r *CatalogRegistry) Validate() []Issue {
	var issues []Issue
	add := func(sev Severity, path, format string, args ...interface{}) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	categories := map[string]bool{}
	for ci, c := range r.Categories {
		cpath := fmt.Sprintf("categories[%d]", ci)
		if c.ID == "" {
			add(SeverityError, cpath, "category id is required")
		} else if categories[c.ID] {
			add(SeverityError, cpath, "duplicate category id %q", c.ID)
		}
		categories[c.ID] = true
		if len(c.Sections) == 0 {
			add(SeverityWarning, cpath, "category %q has no sections", c.ID)
		}

		sections := map[string]bool{}
		for si, s := range c.Sections {
			spath := fmt.Sprintf("%s.sections[%d]", cpath, si)
			if s.ID == "" {
				add(SeverityError, spath, "section id is required")
			} else if sections[s.ID] {
				add(SeverityError, spath, "duplicate section id %q", s.ID)
			}
			sections[s.ID] = true

			ids := map[string]bool{}
			for fi, f := range s.Filters {
				fpath := fmt.Sprintf("%s.filters[%d]", spath, fi)
				if err := f.Validate(); err != nil {
					add(SeverityError, fpath, "%v", err)
				}
				if f.ID != "" && ids[f.ID] {
					add(SeverityError, fpath, "duplicate filter id %q", f.ID)
				}
				ids[f.ID] = true
				for _, op := range f.UnknownOperators() {
					add(SeverityWarning, fpath, "operator %q is not supported; selections will be dropped", op)
				}
			}
		}
	}
	return issues
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

func copyFilters(in []filters.FilterConfig) []filters.FilterConfig {
	out := make([]filters.FilterConfig, len(in))
	for i, f := range in {
		vc := f.ValueConfig
		vc.ManualValues = append([]filters.ManualValue(nil), vc.ManualValues...)
		vc.DynamicValues = append([]filters.DynamicValue(nil), vc.DynamicValues...)
		vc.Ranges = make([]filters.RangeDefinition, len(f.ValueConfig.Ranges))
		for j, rd := range f.ValueConfig.Ranges {
			if rd.Min != nil {
				rd.Min = filters.Float(*rd.Min)
			}
			if rd.Max != nil {
				rd.Max = filters.Float(*rd.Max)
			}
			vc.Ranges[j] = rd
		}
		f.ValueConfig = vc
		out[i] = f
	}
	return out
}
