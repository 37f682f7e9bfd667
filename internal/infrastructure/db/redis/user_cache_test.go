package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/99minutos/user-management/internal/core/domain"
	"github.com/99minutos/user-management/internal/core/ports"
	"github.com/99minutos/user-management/internal/pkg/metrics"
)

var stamp = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// stubRepo counts calls and serves a single fixed user.
type stubRepo struct {
	user      *domain.User
	findCalls int
	err       error
}

func (s *stubRepo) Insert(_ context.Context, u *domain.User) (*domain.User, error) { return u, nil }

func (s *stubRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	s.findCalls++
	if s.err != nil {
		return nil, s.err
	}
	if s.user == nil || s.user.ID != id {
		return nil, domain.ErrUserNotFound
	}
	return s.user, nil
}

func (s *stubRepo) FindOne(context.Context, ports.UserFilter) (*domain.User, error) {
	return s.user, nil
}

func (s *stubRepo) FindAll(context.Context) ([]*domain.User, error) {
	return []*domain.User{s.user}, nil
}

func (s *stubRepo) UpdateByID(context.Context, string, domain.UserPatch) (*domain.User, error) {
	return s.user, s.err
}

func (s *stubRepo) UpdateOne(context.Context, ports.UserFilter, domain.UserPatch) (*domain.User, error) {
	return s.user, s.err
}

func (s *stubRepo) DeleteByID(context.Context, string) (*domain.User, error) {
	return s.user, s.err
}

func (s *stubRepo) DeleteOne(context.Context, ports.UserFilter) (*domain.User, error) {
	return s.user, s.err
}

func alice() *domain.User {
	return &domain.User{
		ID:        "65f1c0ffee0000000000000a",
		FirstName: "Alice",
		LastName:  "June",
		Email:     "alicejune@gmail.com",
		Stack:     "Backend",
		CreatedAt: stamp,
		UpdatedAt: stamp,
	}
}

func encoded(t *testing.T, u *domain.User) []byte {
	t.Helper()
	b, err := json.Marshal(cachedUser{
		ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email,
		Stack: u.Stack, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt,
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

// racingRepo runs during inside the first FindByID, after the cache miss.
type racingRepo struct {
	stubRepo
	during func()
}

func (r *racingRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if r.during != nil {
		f := r.during
		r.during = nil
		f()
	}
	return r.stubRepo.FindByID(ctx, id)
}

func expectStore(mock redismock.ClientMock, t *testing.T, u *domain.User, rev string) *redismock.ExpectedCmd {
	keys := []string{cacheKey(u.ID), revisionKey(u.ID)}
	return mock.ExpectEvalSha(storeIfCurrent.Hash(), keys, encoded(t, u), rev, time.Minute.Milliseconds())
}

func expectInvalidate(mock redismock.ClientMock, id string) *redismock.ExpectedCmd {
	keys := []string{cacheKey(id), revisionKey(id)}
	return mock.ExpectEvalSha(invalidate.Hash(), keys, revisionTTL.Milliseconds())
}

func TestCachingUserRepository_MissPopulatesCache(t *testing.T) {
	db, mock := redismock.NewClientMock()
	u := alice()
	inner := &stubRepo{user: u}
	repo := NewCachingUserRepository(inner, db, time.Minute, zerolog.Nop())

	misses := testutil.ToFloat64(metrics.CacheLookupsTotal.WithLabelValues("miss"))

	mock.ExpectGet(cacheKey(u.ID)).RedisNil()
	mock.ExpectGet(revisionKey(u.ID)).RedisNil()
	expectStore(mock, t, u, "0").SetVal(int64(1))

	got, err := repo.FindByID(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Email != u.Email {
		t.Errorf("unexpected user: %+v", got)
	}
	if inner.findCalls != 1 {
		t.Errorf("expected one store lookup, got %d", inner.findCalls)
	}
	if d := testutil.ToFloat64(metrics.CacheLookupsTotal.WithLabelValues("miss")) - misses; d != 1 {
		t.Errorf("expected miss counter to grow by 1, got %v", d)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCachingUserRepository_HitSkipsStore(t *testing.T) {
	db, mock := redismock.NewClientMock()
	u := alice()
	inner := &stubRepo{user: u}
	repo := NewCachingUserRepository(inner, db, time.Minute, zerolog.Nop())

	mock.ExpectGet(cacheKey(u.ID)).SetVal(string(encoded(t, u)))

	got, err := repo.FindByID(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if inner.findCalls != 0 {
		t.Errorf("store must not be queried on a hit, got %d calls", inner.findCalls)
	}
	if !got.CreatedAt.Equal(stamp) || got.FirstName != "Alice" {
		t.Errorf("decoded user mismatch: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCachingUserRepository_NotFoundIsNotCached(t *testing.T) {
	db, mock := redismock.NewClientMock()
	repo := NewCachingUserRepository(&stubRepo{}, db, time.Minute, zerolog.Nop())

	mock.ExpectGet(cacheKey("missing")).RedisNil()
	mock.ExpectGet(revisionKey("missing")).RedisNil()

	if _, err := repo.FindByID(context.Background(), "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCachingUserRepository_RedisErrorFallsBackToStore(t *testing.T) {
	db, mock := redismock.NewClientMock()
	u := alice()
	inner := &stubRepo{user: u}
	repo := NewCachingUserRepository(inner, db, time.Minute, zerolog.Nop())

	mock.ExpectGet(cacheKey(u.ID)).SetErr(errors.New("connection refused"))
	mock.ExpectGet(revisionKey(u.ID)).SetErr(errors.New("connection refused"))

	if _, err := repo.FindByID(context.Background(), u.ID); err != nil {
		t.Fatalf("cache failures must not surface, got %v", err)
	}
	if inner.findCalls != 1 {
		t.Errorf("expected store fallback, got %d calls", inner.findCalls)
	}
	// Without a known revision nothing is written back.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCachingUserRepository_WriteBackCarriesSeenRevision(t *testing.T) {
	db, mock := redismock.NewClientMock()
	u := alice()
	repo := NewCachingUserRepository(&stubRepo{user: u}, db, time.Minute, zerolog.Nop())

	mock.ExpectGet(cacheKey(u.ID)).RedisNil()
	mock.ExpectGet(revisionKey(u.ID)).SetVal("7")
	expectStore(mock, t, u, "7").SetVal(int64(1))

	if _, err := repo.FindByID(context.Background(), u.ID); err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

// A mutation landing between the revision read and the write-back makes the
// guarded write a no-op; the lookup still returns what the store gave it.
func TestCachingUserRepository_RacingMutationSkipsWriteBack(t *testing.T) {
	db, mock := redismock.NewClientMock()
	u := alice()
	inner := &racingRepo{stubRepo: stubRepo{user: u}}
	repo := NewCachingUserRepository(inner, db, time.Minute, zerolog.Nop())
	inner.during = func() {
		if _, err := repo.DeleteByID(context.Background(), u.ID); err != nil {
			t.Fatalf("DeleteByID: %v", err)
		}
	}

	mock.ExpectGet(cacheKey(u.ID)).RedisNil()
	mock.ExpectGet(revisionKey(u.ID)).SetVal("2")
	expectInvalidate(mock, u.ID).SetVal(int64(1))
	// The script sees revision 3 and refuses the write.
	expectStore(mock, t, u, "2").SetVal(int64(0))

	if _, err := repo.FindByID(context.Background(), u.ID); err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCachingUserRepository_MutationsEvict(t *testing.T) {
	u := alice()
	ctx := context.Background()

	cases := []struct {
		name string
		call func(r *CachingUserRepository) error
	}{
		{"update by id", func(r *CachingUserRepository) error {
			_, err := r.UpdateByID(ctx, u.ID, domain.UserPatch{})
			return err
		}},
		{"update by name", func(r *CachingUserRepository) error {
			_, err := r.UpdateOne(ctx, ports.UserFilter{FirstName: "Alice"}, domain.UserPatch{})
			return err
		}},
		{"delete by id", func(r *CachingUserRepository) error {
			_, err := r.DeleteByID(ctx, u.ID)
			return err
		}},
		{"delete by name", func(r *CachingUserRepository) error {
			_, err := r.DeleteOne(ctx, ports.UserFilter{FirstName: "Alice"})
			return err
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := redismock.NewClientMock()
			repo := NewCachingUserRepository(&stubRepo{user: u}, db, time.Minute, zerolog.Nop())

			expectInvalidate(mock, u.ID).SetVal(int64(1))

			if err := tc.call(repo); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestCachingUserRepository_FailedMutationKeepsCache(t *testing.T) {
	db, mock := redismock.NewClientMock()
	repo := NewCachingUserRepository(&stubRepo{err: domain.ErrUserNotFound}, db, time.Minute, zerolog.Nop())

	if _, err := repo.DeleteByID(context.Background(), "x"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCachingUserRepository_NilClientBypasses(t *testing.T) {
	u := alice()
	inner := &stubRepo{user: u}
	repo := NewCachingUserRepository(inner, nil, 0, zerolog.Nop())

	for i := 0; i < 2; i++ {
		if _, err := repo.FindByID(context.Background(), u.ID); err != nil {
			t.Fatalf("FindByID: %v", err)
		}
	}
	if _, err := repo.DeleteByID(context.Background(), u.ID); err != nil {
		t.Fatalf("DeleteByID: %v", err)
	}
	if inner.findCalls != 2 {
		t.Errorf("expected every lookup to reach the store, got %d", inner.findCalls)
	}
	if repo.ttl != defaultCacheTTL {
		t.Errorf("expected default ttl, got %v", repo.ttl)
	}
}
