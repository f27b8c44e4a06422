package domain

import (
	"context"
	"time"
)

type EntitySource interface {
	ListActiveHotels(ctx context.Context) ([]Hotel, error)
	GetHotelByUUID(ctx context.Context, uuid string) (Hotel, error)
}

type AttributeStore interface {
	// FindByUUID returns nil, nil when the hotel has no record yet.
	FindByUUID(ctx context.Context, uuid string) (AttributeRecord, error)
	// FindIDByUUID returns 0, nil when the hotel has no record yet.
	FindIDByUUID(ctx context.Context, uuid string) (int64, error)
	Insert(ctx context.Context, rec AttributeRecord) (int64, error)
	Update(ctx context.Context, id int64, fields AttributeRecord) (int64, error)
}

type FAQStore interface {
	ReplaceFAQs(ctx context.Context, uuid string, qas []QA) error
	ListFAQs(ctx context.Context, uuid string) ([]QA, error)
}

type ExternalFetcher interface {
	FetchFields(ctx context.Context, hotelName string, fields []string) (FetchResult, error)
}

type SupplementaryFetcher interface {
	FetchSupplementary(ctx context.Context, hotelName string) ([]QA, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Locker guards a run against overlapping invocations in other processes.
type Locker interface {
	TryLock(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key, owner string) error
}

// AttributesView is the read model served by the API.
type AttributesView struct {
	UUID       string            `json:"uuid"`
	Attributes map[string]string `json:"attributes"`
	Missing    []string          `json:"missing"`
}
