//go:build integration

package lock_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"intake/internal/submission/lock"
	dErrors "intake/pkg/domain-errors"
	"intake/pkg/testutil/containers"
)

type RedisLockerSuite struct {
	suite.Suite
	redis  *containers.RedisContainer
	locker *lock.RedisLocker
}

func TestRedisLockerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisLockerSuite))
}

func (s *RedisLockerSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.locker = lock.NewRedis(s.redis.Client, lock.WithRetryPeriod(10*time.Millisecond))
}

func (s *RedisLockerSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisLockerSuite) TestExclusiveUntilReleased() {
	release, err := s.locker.Lock(context.Background(), "r1")
	s.Require().NoError(err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = s.locker.Lock(ctx, "r1")
	s.True(dErrors.HasCode(err, dErrors.CodeTimeout))

	keys, err := s.redis.Keys(context.Background(), "intake:lock:*")
	s.Require().NoError(err)
	s.Equal([]string{"intake:lock:r1"}, keys)

	release()

	again, err := s.locker.Lock(context.Background(), "r1")
	s.Require().NoError(err)
	again()
}

// TestExpiredLockIsNotStolenBack verifies a holder whose TTL lapsed cannot
// delete a lock re-acquired by someone else.
func (s *RedisLockerSuite) TestExpiredLockIsNotStolenBack() {
	short := lock.NewRedis(s.redis.Client, lock.WithTTL(50*time.Millisecond), lock.WithRetryPeriod(10*time.Millisecond))
	staleRelease, err := short.Lock(context.Background(), "r2")
	s.Require().NoError(err)

	time.Sleep(100 * time.Millisecond)

	release, err := s.locker.Lock(context.Background(), "r2")
	s.Require().NoError(err)
	defer release()

	staleRelease()

	exists, err := s.redis.Client.Exists(context.Background(), "intake:lock:r2").Result()
	s.Require().NoError(err)
	s.Equal(int64(1), exists)
}
