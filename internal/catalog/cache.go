package catalog

import (
	"context"
	"time"

	"github.com/bookhive/lending-service/internal/model"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "catalog:book:"

// cachedStore decorates a Store with a read-through redis cache for single
// document lookups. Every write path invalidates the cached entry; listing
// always hits the store.
type cachedStore struct {
	Store
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

func NewCachedStore(inner Store, rdb *redis.Client, ttl time.Duration, log *zap.Logger) *cachedStore {
	return &cachedStore{
		Store: inner,
		rdb:   rdb,
		ttl:   ttl,
		log:   log.Named("catalog-cache"),
	}
}

func (s *cachedStore) Get(ctx context.Context, bookUid string) (model.Book, error) {
	key := cacheKeyPrefix + bookUid
	if data, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
		if book, err := unmarshalBook(data); err == nil {
			return book, nil
		}
	}

	book, err := s.Store.Get(ctx, bookUid)
	if err != nil {
		return model.Book{}, err
	}

	if doc, err := json.Marshal(book); err == nil {
		if err := s.rdb.Set(ctx, key, doc, s.ttl).Err(); err != nil {
			s.log.Warn("cache set", zap.String("bookUid", bookUid), zap.Error(err))
		}
	}
	return book, nil
}

func (s *cachedStore) Replace(ctx context.Context, book model.Book) error {
	if err := s.Store.Replace(ctx, book); err != nil {
		return err
	}
	s.invalidate(ctx, book.BookUid)
	return nil
}

func (s *cachedStore) BorrowCAS(ctx context.Context, bookUid string) (model.Book, error) {
	book, err := s.Store.BorrowCAS(ctx, bookUid)
	s.invalidate(ctx, bookUid)
	return book, err
}

func (s *cachedStore) SetStatus(ctx context.Context, bookUid string, status model.BookStatus) error {
	if err := s.Store.SetStatus(ctx, bookUid, status); err != nil {
		return err
	}
	s.invalidate(ctx, bookUid)
	return nil
}

func (s *cachedStore) Delete(ctx context.Context, bookUid string) error {
	if err := s.Store.Delete(ctx, bookUid); err != nil {
		return err
	}
	s.invalidate(ctx, bookUid)
	return nil
}

func (s *cachedStore) invalidate(ctx context.Context, bookUid string) {
	if err := s.rdb.Del(ctx, cacheKeyPrefix+bookUid).Err(); err != nil {
		s.log.Warn("cache invalidate", zap.String("bookUid", bookUid), zap.Error(err))
	}
}
