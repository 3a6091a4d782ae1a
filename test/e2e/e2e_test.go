// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-workers/internal/catalog/filters"
	"storefront-workers/internal/catalog/requestguard"
	"storefront-workers/internal/checkout"
	"storefront-workers/internal/common/config"
	"storefront-workers/internal/common/database"
	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/models"
	"storefront-workers/internal/tradein"
	"storefront-workers/pkg/registry"

	sp "storefront-workers/internal/workers/catalog/search-products"
	tdf "storefront-workers/internal/workers/catalog/translate-dynamic-filters"
	rcs "storefront-workers/internal/workers/checkout/resolve-checkout-step"
	rti "storefront-workers/internal/workers/checkout/revalidate-trade-in"
	ucs "storefront-workers/internal/workers/checkout/update-checkout-session"
	fth "storefront-workers/internal/workers/tradein/fetch-trade-in-hierarchy"
)

// services holds whatever the local stack (docker compose) provides. A nil
// entry skips the tests that need it.
var services struct {
	cfg *config.Config
	pg  *sql.DB
	es  *elasticsearch.Client
	rdb *redis.Client
}

func TestMain(m *testing.M) {
	if os.Getenv("E2E") == "" {
		fmt.Println("E2E not set; skipping end-to-end tests")
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("config load failed: %v", err))
	}
	services.cfg = cfg

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if rdb, err := database.NewRedis(cfg.Database.Redis); err == nil && rdb.Ping(ctx) == nil {
		services.rdb = rdb.Client
	}
	if pg, err := database.NewPostgres(cfg.Database.Postgres); err == nil && pg.Ping(ctx) == nil {
		services.pg = pg.GetDB()
	}
	if es, err := database.NewElasticsearch(cfg.Database.Elasticsearch); err == nil && es.Ping(ctx) == nil {
		services.es = es.Client
	}

	code := m.Run()

	if services.rdb != nil {
		_ = services.rdb.Close()
	}
	if services.pg != nil {
		_ = services.pg.Close()
	}
	os.Exit(code)
}

func needRedis(t *testing.T) *redis.Client {
	t.Helper()
	if services.rdb == nil {
		t.Skip("redis unavailable")
	}
	return services.rdb
}

func needPostgres(t *testing.T) *sql.DB {
	t.Helper()
	if services.pg == nil {
		t.Skip("postgres unavailable")
	}
	return services.pg
}

func needElasticsearch(t *testing.T) *elasticsearch.Client {
	t.Helper()
	if services.es == nil {
		t.Skip("elasticsearch unavailable")
	}
	return services.es
}

func ptr[T any](v T) *T { return &v }

// ==========================
// 1. Catalog: translate then search
// ==========================
func TestCatalogListing(t *testing.T) {
	rdb := needRedis(t)
	es := needElasticsearch(t)
	ctx := context.Background()
	log := logger.NewTestLogger(t)

	index := fmt.Sprintf("products-e2e-%d", time.Now().UnixNano())
	res, err := es.Indices.Create(index, es.Indices.Create.WithContext(ctx))
	require.NoError(t, err)
	require.False(t, res.IsError(), res.String())
	res.Body.Close()
	t.Cleanup(func() {
		if res, err := es.Indices.Delete([]string{index}); err == nil {
			res.Body.Close()
		}
	})

	res, err = es.Index(index,
		strings.NewReader(`{"id":"p-1","name":"Galaxy A55","marca":"Samsung","precio":450000}`),
		es.Index.WithRefresh("true"))
	require.NoError(t, err)
	require.False(t, res.IsError(), res.String())
	res.Body.Close()

	reg, err := registry.LoadRegistry("../../configs/catalog-registry.json")
	require.NoError(t, err)

	guard := requestguard.New(rdb, "e2e:catalog:token:", time.Minute)
	translate := tdf.NewHandler(tdf.LoadConfig(), reg, guard, log)
	search := sp.NewHandler(sp.LoadConfig(), es, guard, log)

	sessionID := fmt.Sprintf("e2e-%d", time.Now().UnixNano())
	state := filters.State{
		"marca":  {Values: []string{"Samsung"}},
		"precio": {Ranges: []string{"Menos de $500.000"}},
	}

	first, err := translate.Execute(ctx, &tdf.Input{CategoryID: "celulares", State: state, SessionID: sessionID})
	require.NoError(t, err)
	second, err := translate.Execute(ctx, &tdf.Input{CategoryID: "celulares", State: state, SessionID: sessionID})
	require.NoError(t, err)
	assert.Greater(t, second.RequestToken, first.RequestToken)
	assert.Equal(t, float64(500000), second.QueryParams["precio_range_max"])

	stale, err := search.Execute(ctx, &sp.Input{
		IndexName:    index,
		QueryParams:  first.QueryParams,
		Pagination:   sp.Pagination{Page: 1, Size: 10},
		SessionID:    sessionID,
		ListingKey:   first.ListingKey,
		RequestToken: first.RequestToken,
	})
	require.NoError(t, err)
	assert.True(t, stale.Stale)

	current, err := search.Execute(ctx, &sp.Input{
		IndexName:    index,
		QueryParams:  second.QueryParams,
		Pagination:   sp.Pagination{Page: 1, Size: 10},
		SessionID:    sessionID,
		ListingKey:   second.ListingKey,
		RequestToken: second.RequestToken,
	})
	require.NoError(t, err)
	assert.False(t, current.Stale)
	assert.NotNil(t, current.Products)
}

// ==========================
// 2. Checkout: session, steps and trade-in revalidation
// ==========================
func TestCheckoutFlow(t *testing.T) {
	rdb := needRedis(t)
	ctx := context.Background()
	log := logger.NewTestLogger(t)

	store := checkout.NewStore(rdb, checkout.StoreOptions{
		KeyPrefix: "e2e:checkout:session:",
		TTL:       time.Minute,
		Logger:    log,
	})

	update, err := ucs.NewHandler(ucs.HandlerOptions{CustomConfig: ucs.DefaultConfig(), Store: store, Logger: log})
	require.NoError(t, err)
	resolve, err := rcs.NewHandler(rcs.HandlerOptions{CustomConfig: rcs.DefaultConfig(), Store: store, Logger: log})
	require.NoError(t, err)
	revalidate, err := rti.NewHandler(rti.HandlerOptions{CustomConfig: rti.DefaultConfig(), Store: store, Logger: log})
	require.NoError(t, err)

	phone := models.CartItem{ProductID: "p-1", Name: "Galaxy A55", Quantity: 1, Price: 1899900, TradeInEligible: models.Bool(true)}

	created, err := update.Execute(ctx, &ucs.Input{Changes: ucs.Changes{
		Cart:            []models.CartItem{phone},
		ShippingAddress: &models.Address{Line1: "Calle 10 # 5-20", City: "Bogotá"},
		DeliveryMethod:  ptr("standard"),
		TradeIn: &models.TradeIn{
			BrandCode: "APL", ModelCode: "IP13256", Grade: "A",
			Value: 1200000, Currency: "COP", AppliedAt: time.Now().UTC().Format(time.RFC3339),
		},
	}})
	require.NoError(t, err)
	require.True(t, created.Created)
	t.Cleanup(func() { _ = store.Delete(context.Background(), created.SessionID) })
	assert.Equal(t, checkout.Step4, created.NextStep)

	paid, err := update.Execute(ctx, &ucs.Input{
		SessionID:       created.SessionID,
		ExpectedVersion: ptr(created.Version),
		Changes: ucs.Changes{
			PaymentMethod: ptr("card"),
			Card:          &ucs.CardSelection{ID: "card-1", Type: "credit"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, checkout.Step5, paid.NextStep)

	step, err := resolve.Execute(ctx, &rcs.Input{SessionID: created.SessionID, CurrentStep: "step4", Action: rcs.ActionNext})
	require.NoError(t, err)
	assert.Equal(t, checkout.Step5, step.Step)
	assert.True(t, step.InstallmentsRequired)

	phone.Quantity = 2
	check, err := revalidate.Execute(ctx, &rti.Input{SessionID: created.SessionID, Cart: []models.CartItem{phone}})
	require.NoError(t, err)
	assert.True(t, check.Removed)
	assert.Equal(t, checkout.ReasonMultipleItems, check.Reason)

	stored, err := store.Load(ctx, created.SessionID)
	require.NoError(t, err)
	assert.Nil(t, stored.TradeIn)
	assert.Equal(t, check.SessionVersion, stored.Version)
}

// ==========================
// 3. Trade-in hierarchy from Postgres through the Redis cache
// ==========================
const hierarchySchema = `
CREATE TABLE IF NOT EXISTS trade_in_categories (
	id TEXT PRIMARY KEY, name TEXT NOT NULL, sort_order INT NOT NULL DEFAULT 0, active BOOLEAN NOT NULL DEFAULT true);
CREATE TABLE IF NOT EXISTS trade_in_brands (
	id TEXT PRIMARY KEY, category_id TEXT NOT NULL REFERENCES trade_in_categories(id) ON DELETE CASCADE,
	code TEXT NOT NULL, name TEXT NOT NULL, active BOOLEAN NOT NULL DEFAULT true);
CREATE TABLE IF NOT EXISTS trade_in_models (
	id TEXT PRIMARY KEY, brand_id TEXT NOT NULL REFERENCES trade_in_brands(id) ON DELETE CASCADE,
	name TEXT NOT NULL, active BOOLEAN NOT NULL DEFAULT true);
CREATE TABLE IF NOT EXISTS trade_in_capacities (
	id TEXT PRIMARY KEY, model_id TEXT NOT NULL REFERENCES trade_in_models(id) ON DELETE CASCADE,
	code TEXT NOT NULL, label TEXT NOT NULL, max_price BIGINT NOT NULL, active BOOLEAN NOT NULL DEFAULT true);`

func TestTradeInHierarchy(t *testing.T) {
	db := needPostgres(t)
	rdb := needRedis(t)
	ctx := context.Background()
	log := logger.NewTestLogger(t)

	_, err := db.ExecContext(ctx, hierarchySchema)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `
INSERT INTO trade_in_categories (id, name, sort_order) VALUES ('e2e-celulares', 'Celulares E2E', 99);
INSERT INTO trade_in_brands (id, category_id, code, name) VALUES ('e2e-apple', 'e2e-celulares', 'APL', 'Apple');
INSERT INTO trade_in_models (id, brand_id, name) VALUES ('e2e-iphone-13', 'e2e-apple', 'iPhone 13');
INSERT INTO trade_in_capacities (id, model_id, code, label, max_price) VALUES
	('e2e-ip13-128', 'e2e-iphone-13', 'IP13128', '128 GB', 1100000),
	('e2e-ip13-256', 'e2e-iphone-13', 'IP13256', '256 GB', 1300000);`)
	require.NoError(t, err)

	repo := tradein.NewRepository(db, rdb, time.Minute, log)
	require.NoError(t, repo.Invalidate(ctx))
	t.Cleanup(func() {
		_, _ = db.ExecContext(context.Background(), `DELETE FROM trade_in_categories WHERE id = 'e2e-celulares'`)
		_ = repo.Invalidate(context.Background())
	})

	handler := fth.NewHandler(fth.LoadConfig(), repo, log)
	out, err := handler.Execute(ctx, &fth.Input{CategoryID: "e2e-celulares"})
	require.NoError(t, err)
	require.Len(t, out.Categories, 1)

	category := out.Categories[0]
	assert.Equal(t, int64(1300000), category.MaxPrice)
	require.Len(t, category.Brands, 1)
	assert.Equal(t, "APL", category.Brands[0].Code)

	cached, err := rdb.Exists(ctx, tradein.HierarchyCacheKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), cached)
}
