package otp_test

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authcore/pkg/clock"
	"github.com/dmitrymomot/authcore/pkg/otp"
)

var epoch = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func newStorage(t *testing.T, driver string, clk clock.Clock) otp.Storage {
	t.Helper()

	if driver == otp.DriverMemory {
		return otp.NewMemoryStorage()
	}

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return otp.NewRedisStorage(client, "test:", clk)
}

func TestGenerateCode(t *testing.T) {
	t.Parallel()

	re := regexp.MustCompile(`^\d{6}$`)
	for range 200 {
		code, err := otp.GenerateCode()
		require.NoError(t, err)
		assert.Regexp(t, re, code)
	}
}

func TestEngine(t *testing.T) {
	t.Parallel()

	for _, driver := range []string{otp.DriverMemory, otp.DriverRedis} {
		t.Run(driver, func(t *testing.T) {
			t.Parallel()

			setup := func(t *testing.T, opts ...otp.Option) (*otp.Engine, *clock.Mock) {
				clk := clock.NewMock(epoch)
				opts = append([]otp.Option{otp.WithClock(clk)}, opts...)
				return otp.NewEngine(newStorage(t, driver, clk), opts...), clk
			}

			t.Run("issued code verifies without being consumed", func(t *testing.T) {
				t.Parallel()
				e, _ := setup(t)
				ctx := context.Background()

				code, err := e.Issue(ctx, "a@x.com", otp.PurposeEmailVerification)
				require.NoError(t, err)

				for range 2 {
					ok, err := e.Verify(ctx, "a@x.com", otp.PurposeEmailVerification, code)
					require.NoError(t, err)
					assert.True(t, ok)
				}
			})

			t.Run("reissue invalidates the previous code", func(t *testing.T) {
				t.Parallel()
				codes := []string{"111111", "222222"}
				i := 0
				e, _ := setup(t, otp.WithGenerator(func() (string, error) {
					c := codes[i]
					i++
					return c, nil
				}))
				ctx := context.Background()

				first, err := e.Issue(ctx, "a@x.com", otp.PurposeEmailVerification)
				require.NoError(t, err)
				second, err := e.Issue(ctx, "a@x.com", otp.PurposeEmailVerification)
				require.NoError(t, err)

				ok, err := e.Verify(ctx, "a@x.com", otp.PurposeEmailVerification, first)
				require.NoError(t, err)
				assert.False(t, ok)

				ok, err = e.Verify(ctx, "a@x.com", otp.PurposeEmailVerification, second)
				require.NoError(t, err)
				assert.True(t, ok)
			})

			t.Run("code expires at the deadline", func(t *testing.T) {
				t.Parallel()
				e, clk := setup(t)
				ctx := context.Background()

				code, err := e.Issue(ctx, "a@x.com", otp.PurposePasswordReset)
				require.NoError(t, err)

				clk.Advance(otp.DefaultTTL - time.Second)
				ok, err := e.Verify(ctx, "a@x.com", otp.PurposePasswordReset, code)
				require.NoError(t, err)
				assert.True(t, ok)

				clk.Advance(time.Second)
				ok, err = e.Verify(ctx, "a@x.com", otp.PurposePasswordReset, code)
				require.NoError(t, err)
				assert.False(t, ok)
			})

			t.Run("purposes do not collide", func(t *testing.T) {
				t.Parallel()
				e, _ := setup(t)
				ctx := context.Background()

				code, err := e.Issue(ctx, "a@x.com", otp.PurposeEmailVerification)
				require.NoError(t, err)

				ok, err := e.Verify(ctx, "a@x.com", otp.PurposePasswordReset, code)
				require.NoError(t, err)
				assert.False(t, ok)
			})

			t.Run("clear is idempotent", func(t *testing.T) {
				t.Parallel()
				e, _ := setup(t)
				ctx := context.Background()

				code, err := e.Issue(ctx, "a@x.com", otp.PurposeEmailVerification)
				require.NoError(t, err)

				require.NoError(t, e.Clear(ctx, "a@x.com", otp.PurposeEmailVerification))
				require.NoError(t, e.Clear(ctx, "a@x.com", otp.PurposeEmailVerification))

				ok, err := e.Verify(ctx, "a@x.com", otp.PurposeEmailVerification, code)
				require.NoError(t, err)
				assert.False(t, ok)
			})

			t.Run("concurrent issue leaves one live code", func(t *testing.T) {
				t.Parallel()
				e, _ := setup(t)
				ctx := context.Background()

				var mu sync.Mutex
				var codes []string
				var wg sync.WaitGroup
				for range 20 {
					wg.Add(1)
					go func() {
						defer wg.Done()
						code, err := e.Issue(ctx, "race@x.com", otp.PurposeEmailVerification)
						if err == nil {
							mu.Lock()
							codes = append(codes, code)
							mu.Unlock()
						}
					}()
				}
				wg.Wait()
				require.Len(t, codes, 20)

				live := map[string]bool{}
				for _, c := range codes {
					ok, err := e.Verify(ctx, "race@x.com", otp.PurposeEmailVerification, c)
					require.NoError(t, err)
					if ok {
						live[c] = true
					}
				}
				assert.Len(t, live, 1)
			})
		})
	}
}

func TestEngine_Validation(t *testing.T) {
	t.Parallel()

	e := otp.NewEngine(otp.NewMemoryStorage())
	ctx := context.Background()

	_, err := e.Issue(ctx, "", otp.PurposeEmailVerification)
	assert.ErrorIs(t, err, otp.ErrEmailRequired)

	_, err = e.Issue(ctx, "a@x.com", otp.Purpose("login"))
	assert.ErrorIs(t, err, otp.ErrInvalidPurpose)

	_, err = e.Verify(ctx, "a@x.com", otp.Purpose(""), "123456")
	assert.ErrorIs(t, err, otp.ErrInvalidPurpose)

	assert.ErrorIs(t, e.Clear(ctx, "", otp.PurposePasswordReset), otp.ErrEmailRequired)
}

func TestEngine_MissingRecord(t *testing.T) {
	t.Parallel()

	e := otp.NewEngine(otp.NewMemoryStorage())
	ok, err := e.Verify(context.Background(), "nobody@x.com", otp.PurposeEmailVerification, "000000")
	require.NoError(t, err)
	assert.False(t, ok)
}

type brokenStorage struct{}

func (brokenStorage) Save(context.Context, otp.Record) error { return errors.New("db down") }
func (brokenStorage) Find(context.Context, string, otp.Purpose) (otp.Record, error) {
	return otp.Record{}, errors.New("db down")
}
func (brokenStorage) Delete(context.Context, string, otp.Purpose) error { return errors.New("db down") }

func TestEngine_StorageFailures(t *testing.T) {
	t.Parallel()

	e := otp.NewEngine(brokenStorage{})
	ctx := context.Background()

	_, err := e.Issue(ctx, "a@x.com", otp.PurposeEmailVerification)
	assert.Error(t, err)

	ok, err := e.Verify(ctx, "a@x.com", otp.PurposeEmailVerification, "123456")
	assert.Error(t, err)
	assert.False(t, ok)

	assert.Error(t, e.Clear(ctx, "a@x.com", otp.PurposeEmailVerification))
}

func TestEngine_GeneratorFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("entropy exhausted")
	e := otp.NewEngine(otp.NewMemoryStorage(), otp.WithGenerator(func() (string, error) { return "", boom }))

	_, err := e.Issue(context.Background(), "a@x.com", otp.PurposeEmailVerification)
	assert.ErrorIs(t, err, boom)
}

func TestNewEngineFromConfig(t *testing.T) {
	t.Parallel()

	clk := clock.NewMock(epoch)
	e := otp.NewEngineFromConfig(otp.Config{TTL: time.Minute}, otp.NewMemoryStorage(), otp.WithClock(clk))
	ctx := context.Background()

	code, err := e.Issue(ctx, "a@x.com", otp.PurposeEmailVerification)
	require.NoError(t, err)

	clk.Advance(time.Minute)
	ok, err := e.Verify(ctx, "a@x.com", otp.PurposeEmailVerification, code)
	require.NoError(t, err)
	assert.False(t, ok)
}
