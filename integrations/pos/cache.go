package pos

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"glowdesk/models"

	"github.com/go-redis/redis/v8"
)

const catalogKeyPrefix = "pos:catalog:"

// Catalog is the read-only availability surface consumed by the
// scheduling validator and the conversation machine.
type Catalog interface {
	ListLocations(ctx context.Context) ([]models.Location, error)
	ListServices(ctx context.Context, locationID string) ([]models.Service, error)
	ListStaffForService(ctx context.Context, serviceID, locationID, date string) ([]models.Staff, error)
	ListSlotsForStaff(ctx context.Context, staffID, date string) ([]models.Slot, error)
	ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error)
}

// CachedCatalog memoizes Catalog reads in Redis for one validation pass.
// The TTL is short: slot availability goes stale the moment another
// customer books, so this only absorbs the repeated reads a single
// conversation turn makes.
type CachedCatalog struct {
	inner  Catalog
	client *redis.Client
	ttl    time.Duration
}

// NewCachedCatalog wraps a Catalog with a Redis read-through cache.
func NewCachedCatalog(inner Catalog, client *redis.Client, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{inner: inner, client: client, ttl: ttl}
}

func (c *CachedCatalog) ListLocations(ctx context.Context) ([]models.Location, error) {
	var out []models.Location
	err := c.through(ctx, key("locations"), &out, func() (interface{}, error) {
		return c.inner.ListLocations(ctx)
	})
	return out, err
}

func (c *CachedCatalog) ListServices(ctx context.Context, locationID string) ([]models.Service, error) {
	var out []models.Service
	err := c.through(ctx, key("services", locationID), &out, func() (interface{}, error) {
		return c.inner.ListServices(ctx, locationID)
	})
	return out, err
}

func (c *CachedCatalog) ListStaffForService(ctx context.Context, serviceID, locationID, date string) ([]models.Staff, error) {
	var out []models.Staff
	err := c.through(ctx, key("staff", serviceID, locationID, date), &out, func() (interface{}, error) {
		return c.inner.ListStaffForService(ctx, serviceID, locationID, date)
	})
	return out, err
}

func (c *CachedCatalog) ListSlotsForStaff(ctx context.Context, staffID, date string) ([]models.Slot, error) {
	var out []models.Slot
	err := c.through(ctx, key("slots", staffID, date), &out, func() (interface{}, error) {
		return c.inner.ListSlotsForStaff(ctx, staffID, date)
	})
	return out, err
}

func (c *CachedCatalog) ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	var out []models.PaymentMethod
	err := c.through(ctx, key("payment-methods"), &out, func() (interface{}, error) {
		return c.inner.ListPaymentMethods(ctx)
	})
	return out, err
}

func key(parts ...string) string {
	return catalogKeyPrefix + strings.Join(parts, ":")
}

// through reads the cached value into out, falling back to fetch and
// repopulating on a miss. Cache failures degrade to direct reads.
func (c *CachedCatalog) through(ctx context.Context, key string, out interface{}, fetch func() (interface{}, error)) error {
	if data, err := c.client.Get(ctx, key).Result(); err == nil {
		if json.Unmarshal([]byte(data), out) == nil {
			return nil
		}
	}

	fresh, err := fetch()
	if err != nil {
		return err
	}
	data, err := json.Marshal(fresh)
	if err != nil {
		return err
	}
	// Best effort: a failed cache write must not fail the read.
	c.client.Set(ctx, key, data, c.ttl)
	return json.Unmarshal(data, out)
}
