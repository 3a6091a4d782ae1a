// internal/tradein/hierarchy.go
package tradein

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"time"

	"storefront-workers/internal/common/database"
	"storefront-workers/internal/common/errors"
	"storefront-workers/internal/common/logger"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	HierarchyCacheKey = "tradein:hierarchy"
	hierarchyLoadTTL  = 10 * time.Second
)

const (
	queryCategories = `SELECT id, name FROM trade_in_categories WHERE active = true ORDER BY sort_order, name`
	queryBrands     = `SELECT id, category_id, code, name FROM trade_in_brands WHERE active = true ORDER BY name`
	queryModels     = `SELECT id, brand_id, name FROM trade_in_models WHERE active = true ORDER BY name`
	queryCapacities = `SELECT id, model_id, code, label, max_price FROM trade_in_capacities WHERE active = true ORDER BY max_price`
)

type Capacity struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Label    string `json:"label"`
	MaxPrice int64  `json:"maxPrice"`
}

type Model struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	MaxPrice   int64      `json:"maxPrice"`
	Capacities []Capacity `json:"capacities"`
}

type Brand struct {
	ID       string  `json:"id"`
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	MaxPrice int64   `json:"maxPrice"`
	Models   []Model `json:"models"`
}

type Category struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	MaxPrice int64   `json:"maxPrice"`
	Brands   []Brand `json:"brands"`
}

type Hierarchy struct {
	Categories []Category `json:"categories"`
	LoadedAt   time.Time  `json:"loadedAt"`
}

// Category returns the category with id, if present.
func (h *Hierarchy) Category(id string) (Category, bool) {
	for _, c := range h.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// Repository serves the device hierarchy from Redis and rebuilds it from
// PostgreSQL on a miss.
type Repository struct {
	db     database.Querier
	cache  redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
	group  singleflight.Group
	now    func() time.Time
}

func NewRepository(db database.Querier, cache redis.Cmdable, ttl time.Duration, log logger.Logger) *Repository {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Repository{db: db, cache: cache, ttl: ttl, logger: log, now: time.Now}
}

func (r *Repository) Hierarchy(ctx context.Context) (*Hierarchy, error) {
	if h, ok := r.cached(ctx); ok {
		return h, nil
	}

	// Concurrent misses share one load. The load is detached from the first
	// caller so its cancellation does not fail the others.
	v, err, _ := r.group.Do(HierarchyCacheKey, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), hierarchyLoadTTL)
		defer cancel()

		h, err := r.load(loadCtx)
		if err != nil {
			return nil, err
		}
		r.store(loadCtx, h)
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Hierarchy), nil
}

func (r *Repository) Category(ctx context.Context, id string) (*Category, error) {
	h, err := r.Hierarchy(ctx)
	if err != nil {
		return nil, err
	}
	c, ok := h.Category(id)
	if !ok {
		return nil, errors.NewTradeInCategoryNotFoundError(id)
	}
	return &c, nil
}

// Invalidate drops the cached hierarchy.
func (r *Repository) Invalidate(ctx context.Context) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Del(ctx, HierarchyCacheKey).Err()
}

func (r *Repository) cached(ctx context.Context) (*Hierarchy, bool) {
	if r.cache == nil {
		return nil, false
	}
	data, err := r.cache.Get(ctx, HierarchyCacheKey).Bytes()
	if err != nil {
		if !stderrors.Is(err, redis.Nil) {
			r.logger.Warn("hierarchy cache read failed", map[string]interface{}{"error": err.Error()})
		}
		return nil, false
	}
	var h Hierarchy
	if err := json.Unmarshal(data, &h); err != nil {
		r.logger.Warn("hierarchy cache entry is corrupt", map[string]interface{}{"error": err.Error()})
		return nil, false
	}
	return &h, true
}

func (r *Repository) store(ctx context.Context, h *Hierarchy) {
	if r.cache == nil {
		return
	}
	data, err := json.Marshal(h)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, HierarchyCacheKey, data, r.ttl).Err(); err != nil {
		r.logger.Warn("hierarchy cache write failed", map[string]interface{}{"error": err.Error()})
	}
}

type brandRow struct {
	Brand
	categoryID string
}

type modelRow struct {
	Model
	brandID string
}

type capacityRow struct {
	Capacity
	modelID string
}

// load runs the four level queries concurrently and assembles the tree.
func (r *Repository) load(ctx context.Context) (*Hierarchy, error) {
	var (
		categories []Category
		brands     []brandRow
		models     []modelRow
		capacities []capacityRow
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.query(ctx, "categories", queryCategories, func(rows *sql.Rows) error {
			var c Category
			if err := rows.Scan(&c.ID, &c.Name); err != nil {
				return err
			}
			categories = append(categories, c)
			return nil
		})
	})
	g.Go(func() error {
		return r.query(ctx, "brands", queryBrands, func(rows *sql.Rows) error {
			var b brandRow
			if err := rows.Scan(&b.ID, &b.categoryID, &b.Code, &b.Name); err != nil {
				return err
			}
			brands = append(brands, b)
			return nil
		})
	})
	g.Go(func() error {
		return r.query(ctx, "models", queryModels, func(rows *sql.Rows) error {
			var m modelRow
			if err := rows.Scan(&m.ID, &m.brandID, &m.Name); err != nil {
				return err
			}
			models = append(models, m)
			return nil
		})
	})
	g.Go(func() error {
		return r.query(ctx, "capacities", queryCapacities, func(rows *sql.Rows) error {
			var c capacityRow
			if err := rows.Scan(&c.ID, &c.modelID, &c.Code, &c.Label, &c.MaxPrice); err != nil {
				return err
			}
			capacities = append(capacities, c)
			return nil
		})
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	h := assemble(categories, brands, models, capacities)
	h.LoadedAt = r.now().UTC()
	return h, nil
}

func (r *Repository) query(ctx context.Context, level, query string, scan func(*sql.Rows) error) error {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return errors.NewHierarchyQueryFailedError(level, err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return errors.NewHierarchyQueryFailedError(level, err)
		}
	}
	if err := rows.Err(); err != nil {
		return errors.NewHierarchyQueryFailedError(level, err)
	}
	return nil
}

// assemble links the levels bottom up and fills maxPrice on the way. Rows
// whose parent is missing or inactive are left out.
func assemble(categories []Category, brands []brandRow, models []modelRow, capacities []capacityRow) *Hierarchy {
	capsByModel := make(map[string][]Capacity)
	for _, c := range capacities {
		capsByModel[c.modelID] = append(capsByModel[c.modelID], c.Capacity)
	}

	modelsByBrand := make(map[string][]Model)
	for _, m := range models {
		model := m.Model
		model.Capacities = nonNil(capsByModel[m.ID])
		for _, c := range model.Capacities {
			model.MaxPrice = max(model.MaxPrice, c.MaxPrice)
		}
		modelsByBrand[m.brandID] = append(modelsByBrand[m.brandID], model)
	}

	brandsByCategory := make(map[string][]Brand)
	for _, b := range brands {
		brand := b.Brand
		brand.Models = nonNil(modelsByBrand[b.ID])
		for _, m := range brand.Models {
			brand.MaxPrice = max(brand.MaxPrice, m.MaxPrice)
		}
		brandsByCategory[b.categoryID] = append(brandsByCategory[b.categoryID], brand)
	}

	h := &Hierarchy{Categories: make([]Category, 0, len(categories))}
	for _, c := range categories {
		c.Brands = nonNil(brandsByCategory[c.ID])
		for _, b := range c.Brands {
			c.MaxPrice = max(c.MaxPrice, b.MaxPrice)
		}
		h.Categories = append(h.Categories, c)
	}
	return h
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
