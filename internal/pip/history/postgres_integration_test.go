//go:build integration

package history_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"pdpnode/internal/pip/history"
	"pdpnode/pkg/platform/circuit"
	"pdpnode/pkg/testutil/containers"
)

const schema = `
CREATE TABLE operations_history (
	id               BIGSERIAL PRIMARY KEY,
	closed_loop_name TEXT NOT NULL,
	request_id       TEXT,
	actor            TEXT NOT NULL,
	operation        TEXT NOT NULL,
	target           TEXT NOT NULL,
	start_time       TIMESTAMPTZ NOT NULL,
	end_time         TIMESTAMPTZ,
	outcome          TEXT NOT NULL,
	message          TEXT
)`

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *history.PostgresStore
	now   time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	_, err := s.pg.DB.Exec(schema)
	s.Require().NoError(err)
	s.store = history.NewPostgres(s.pg.DB, 5*time.Second)
	s.now = time.Now().UTC().Truncate(time.Second)
}

func (s *PostgresStoreSuite) SetupTest() {
	_, err := s.pg.DB.Exec(`TRUNCATE operations_history`)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) insert(loop, actor, op, target, outcome string, start, end time.Time) {
	_, err := s.pg.DB.Exec(`
		INSERT INTO operations_history (closed_loop_name, actor, operation, target, start_time, end_time, outcome)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		loop, actor, op, target, start, end, outcome)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestCountOperations() {
	ctx := context.Background()
	s.insert("loop", "SO", "Restart", "vnf-1", "Success", s.now.Add(-20*time.Minute), s.now.Add(-19*time.Minute))
	s.insert("loop", "SO", "Restart", "vnf-1", "Failure", s.now.Add(-5*time.Minute), s.now.Add(-4*time.Minute))
	s.insert("loop", "SO", "Restart", "vnf-1", history.GuardFailureOutcome, s.now.Add(-3*time.Minute), s.now.Add(-2*time.Minute))
	s.insert("loop", "SO", "Restart", "vnf-2", "Success", s.now.Add(-3*time.Minute), s.now.Add(-2*time.Minute))
	s.insert("loop", "SO", "Restart", "vnf-1", "Success", s.now.Add(-3*time.Hour), s.now.Add(-2*time.Hour))

	res := s.store.CountOperations(ctx, history.CountQuery{
		Actor: "SO", Operation: "Restart", Target: "vnf-1",
		Since: s.now.Add(-30 * time.Minute), Until: s.now,
	})

	s.Equal(history.CountFound(2), res)
}

func (s *PostgresStoreSuite) TestLatestOutcome() {
	ctx := context.Background()
	s.insert("loop-a", "SO", "Restart", "vnf-1", "Success", s.now.Add(-time.Hour), s.now.Add(-time.Hour))
	s.insert("loop-a", "SO", "Restart", "vnf-1", "Started", s.now.Add(-time.Minute), s.now)

	s.Equal(history.OutcomeFound("Started"), s.store.LatestOutcome(ctx, "loop-a"))
	s.Equal(history.NotFound, s.store.LatestOutcome(ctx, "loop-b").Status)
}

func (s *PostgresStoreSuite) TestCancelledContextFails() {
	store := history.NewPostgres(s.pg.DB, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s.Equal(history.QueryFailed, store.LatestOutcome(ctx, "loop-a").Status)
}

func (s *PostgresStoreSuite) TestChainThroughRedis() {
	rc := containers.NewRedisContainer(s.T())
	ctx := context.Background()
	breaker := circuit.New("history", circuit.WithFailureThreshold(2))
	store := history.NewCached(history.NewBreaker(s.store, breaker), rc.Client, time.Minute)

	s.insert("loop-a", "SO", "VF Module Create", "vnf-1", "In_Progress", s.now.Add(-time.Minute), s.now)
	s.Equal(history.OutcomeFound("In_Progress"), store.LatestOutcome(ctx, "loop-a"))

	// served from Redis after the row changes
	_, err := s.pg.DB.Exec(`UPDATE operations_history SET outcome = 'Success'`)
	s.Require().NoError(err)
	s.Equal(history.OutcomeFound("In_Progress"), store.LatestOutcome(ctx, "loop-a"))

	s.Require().NoError(rc.Client.FlushAll(ctx).Err())
	s.Equal(history.OutcomeFound("Success"), store.LatestOutcome(ctx, "loop-a"))
	s.False(breaker.IsOpen())
}
