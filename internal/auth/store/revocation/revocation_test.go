package revocation

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type InMemoryLedgerSuite struct {
	suite.Suite
	now    time.Time
	ledger *InMemoryLedger
}

func TestInMemoryLedgerSuite(t *testing.T) {
	suite.Run(t, new(InMemoryLedgerSuite))
}

func (s *InMemoryLedgerSuite) SetupTest() {
	s.now = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.ledger = NewInMemoryLedger(WithClock(func() time.Time { return s.now }))
}

func (s *InMemoryLedgerSuite) TestConsumeOnce() {
	ctx := context.Background()

	first, err := s.ledger.Consume(ctx, "jti-1", time.Hour)
	require.NoError(s.T(), err)
	assert.True(s.T(), first)

	again, err := s.ledger.Consume(ctx, "jti-1", time.Hour)
	require.NoError(s.T(), err)
	assert.False(s.T(), again)

	consumed, err := s.ledger.IsConsumed(ctx, "jti-1")
	require.NoError(s.T(), err)
	assert.True(s.T(), consumed)
}

func (s *InMemoryLedgerSuite) TestUnknownIsNotConsumed() {
	consumed, err := s.ledger.IsConsumed(context.Background(), "missing")
	require.NoError(s.T(), err)
	assert.False(s.T(), consumed)
}

func (s *InMemoryLedgerSuite) TestEntriesExpireWithTTL() {
	ctx := context.Background()
	_, err := s.ledger.Consume(ctx, "jti-1", time.Minute)
	require.NoError(s.T(), err)

	s.now = s.now.Add(time.Minute)

	consumed, err := s.ledger.IsConsumed(ctx, "jti-1")
	require.NoError(s.T(), err)
	assert.False(s.T(), consumed)

	removed, err := s.ledger.Sweep(ctx, s.now)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, removed)
}

func (s *InMemoryLedgerSuite) TestConcurrentConsumeHasOneWinner() {
	ctx := context.Background()
	ledger := NewInMemoryLedger()

	var winners atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if first, err := ledger.Consume(ctx, "jti-race", time.Hour); err == nil && first {
				winners.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(s.T(), int32(1), winners.Load())
}
