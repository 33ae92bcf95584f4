package history_test

//go:generate mockgen -source=store.go -destination=mocks/mocks.go -package=mocks Store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"pdpnode/internal/pip/history"
	"pdpnode/internal/pip/history/mocks"
)

// Justification for unit tests: the cache must never hide failures or serve
// entries past their ttl, which is awkward to observe through a live Redis.
type CachedStoreSuite struct {
	suite.Suite
	ctrl   *gomock.Controller
	inner  *mocks.MockStore
	mr     *miniredis.Miniredis
	client *redis.Client
	store  *history.CachedStore
	ctx    context.Context
	query  history.CountQuery
}

func TestCachedStoreSuite(t *testing.T) {
	suite.Run(t, new(CachedStoreSuite))
}

func (s *CachedStoreSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.inner = mocks.NewMockStore(s.ctrl)
	s.mr = miniredis.RunT(s.T())
	s.client = redis.NewClient(&redis.Options{Addr: s.mr.Addr()})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.store = history.NewCached(s.inner, s.client, 10*time.Second, history.WithCacheLogger(logger))
	s.ctx = context.Background()

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.query = history.CountQuery{Actor: "SO", Operation: "VF Module Create", Target: "vnf-1", Since: now.Add(-time.Hour), Until: now}
}

func (s *CachedStoreSuite) TearDownTest() {
	_ = s.client.Close()
	s.ctrl.Finish()
}

func (s *CachedStoreSuite) TestCountIsCached() {
	s.inner.EXPECT().CountOperations(gomock.Any(), s.query).Return(history.CountFound(4)).Times(1)

	first := s.store.CountOperations(s.ctx, s.query)
	second := s.store.CountOperations(s.ctx, s.query)

	s.Equal(history.CountFound(4), first)
	s.Equal(history.CountFound(4), second)
}

func (s *CachedStoreSuite) TestCountKeysDoNotCollideOnSeparators() {
	first := history.CountQuery{Actor: "SO:x", Operation: "y", Target: "t", Since: s.query.Since, Until: s.query.Until}
	second := history.CountQuery{Actor: "SO", Operation: "x:y", Target: "t", Since: s.query.Since, Until: s.query.Until}
	s.inner.EXPECT().CountOperations(gomock.Any(), first).Return(history.CountFound(7)).Times(1)
	s.inner.EXPECT().CountOperations(gomock.Any(), second).Return(history.CountFound(0)).Times(1)

	s.Equal(history.CountFound(7), s.store.CountOperations(s.ctx, first))
	s.Equal(history.CountFound(0), s.store.CountOperations(s.ctx, second))
	s.Equal(history.CountFound(7), s.store.CountOperations(s.ctx, first))
}

func (s *CachedStoreSuite) TestCountExpires() {
	s.inner.EXPECT().CountOperations(gomock.Any(), s.query).Return(history.CountFound(1)).Times(2)

	s.store.CountOperations(s.ctx, s.query)
	s.mr.FastForward(11 * time.Second)
	s.store.CountOperations(s.ctx, s.query)
}

func (s *CachedStoreSuite) TestFailuresAreNotCached() {
	boom := errors.New("db down")
	s.inner.EXPECT().CountOperations(gomock.Any(), s.query).Return(history.CountFailed(boom)).Times(2)

	s.Equal(history.QueryFailed, s.store.CountOperations(s.ctx, s.query).Status)
	s.Equal(history.QueryFailed, s.store.CountOperations(s.ctx, s.query).Status)
}

func (s *CachedStoreSuite) TestOutcomeCachesAbsence() {
	s.inner.EXPECT().LatestOutcome(gomock.Any(), "loop-a").Return(history.OutcomeNotFound()).Times(1)
	s.inner.EXPECT().LatestOutcome(gomock.Any(), "loop-b").Return(history.OutcomeFound("Started")).Times(1)

	s.Equal(history.NotFound, s.store.LatestOutcome(s.ctx, "loop-a").Status)
	s.Equal(history.NotFound, s.store.LatestOutcome(s.ctx, "loop-a").Status)
	s.Equal(history.OutcomeFound("Started"), s.store.LatestOutcome(s.ctx, "loop-b"))
	s.Equal(history.OutcomeFound("Started"), s.store.LatestOutcome(s.ctx, "loop-b"))
}

func (s *CachedStoreSuite) TestOutcomeKeysAreDistinct() {
	s.inner.EXPECT().LatestOutcome(gomock.Any(), "loop:a").Return(history.OutcomeFound("Success")).Times(1)
	s.inner.EXPECT().LatestOutcome(gomock.Any(), "loop").Return(history.OutcomeNotFound()).Times(1)

	s.Equal(history.OutcomeFound("Success"), s.store.LatestOutcome(s.ctx, "loop:a"))
	s.Equal(history.NotFound, s.store.LatestOutcome(s.ctx, "loop").Status)
}

func (s *CachedStoreSuite) TestRedisOutageFallsThrough() {
	down := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	defer down.Close()
	store := history.NewCached(s.inner, down, time.Second, history.WithCacheLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.inner.EXPECT().LatestOutcome(gomock.Any(), "loop-a").Return(history.OutcomeFound("Success"))

	s.Equal(history.OutcomeFound("Success"), store.LatestOutcome(s.ctx, "loop-a"))
}
