package otp

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu    sync.Mutex
	sent  map[string]string
	fails bool
}

func (n *recordingNotifier) SendCode(_ context.Context, phone, code string, _ time.Time) error {
	if n.fails {
		return assert.AnError
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sent == nil {
		n.sent = map[string]string{}
	}
	n.sent[phone] = code
	return nil
}

func fixedCode(code string) Option {
	return WithGenerator(func() (string, error) { return code, nil })
}

func stores(t *testing.T) map[string]Store {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return map[string]Store{
		"redis":  NewRedisStore(rdb, "test:otp"),
		"memory": NewMemoryStore(),
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  error
	}{
		{"919876543210", "+919876543210", nil},
		{"+91 98765-43210", "+919876543210", nil},
		{" (415) 555-0100 ", "+4155550100", nil},
		{"+123456789", "+123456789", nil},
		{"123456789", "", ErrInvalidPhone},
		{"12345", "", ErrInvalidPhone},
		{"----------", "", ErrInvalidPhone},
		{"1234567890123456", "", ErrInvalidPhone},
		{"+1 555 abc 0100", "", ErrInvalidPhone},
		{"12+3456789012", "", ErrInvalidPhone},
	}
	for _, tt := range tests {
		got, err := NormalizePhone(tt.in)
		if tt.err != nil {
			assert.ErrorIs(t, err, tt.err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestSendAndVerify(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			n := &recordingNotifier{}
			svc := NewService(store, n, time.Minute, 3, nil, fixedCode("123456"))

			phone, exp, err := svc.Send(ctx, "919876543210")
			require.NoError(t, err)
			assert.Equal(t, "+919876543210", phone)
			assert.WithinDuration(t, time.Now().Add(time.Minute), exp, 5*time.Second)
			assert.Equal(t, "123456", n.sent[phone])

			_, err = svc.Verify(ctx, "919876543210", "12345")
			assert.ErrorIs(t, err, ErrInvalidCode)

			_, err = svc.Verify(ctx, "919876543210", "654321")
			assert.ErrorIs(t, err, ErrCodeMismatch)

			got, err := svc.Verify(ctx, "+91 9876543210", "123456")
			require.NoError(t, err)
			assert.Equal(t, phone, got)

			// consumed
			_, err = svc.Verify(ctx, phone, "123456")
			assert.ErrorIs(t, err, ErrCodeExpired)
		})
	}
}

func TestVerifyBurnsChallengeAfterMaxAttempts(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			svc := NewService(store, nil, time.Minute, 2, nil, fixedCode("111111"))
			_, _, err := svc.Send(ctx, "4155550100")
			require.NoError(t, err)

			_, err = svc.Verify(ctx, "4155550100", "000000")
			assert.ErrorIs(t, err, ErrCodeMismatch)
			_, err = svc.Verify(ctx, "4155550100", "000000")
			assert.ErrorIs(t, err, ErrTooManyAttempts)

			// even the right code is refused now
			_, err = svc.Verify(ctx, "4155550100", "111111")
			assert.ErrorIs(t, err, ErrCodeExpired)
		})
	}
}

func TestResendResetsAttempts(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	svc := NewService(store, nil, time.Minute, 2, nil, fixedCode("222222"))
	_, _, err := svc.Send(ctx, "4155550100")
	require.NoError(t, err)
	_, err = svc.Verify(ctx, "4155550100", "000000")
	require.ErrorIs(t, err, ErrCodeMismatch)

	_, _, err = svc.Send(ctx, "4155550100")
	require.NoError(t, err)
	ch, err := store.Get(ctx, "+4155550100")
	require.NoError(t, err)
	assert.Zero(t, ch.Attempts)
}

func TestSendRollsBackWhenDeliveryFails(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, &recordingNotifier{fails: true}, time.Minute, 3, nil, fixedCode("333333"))

	_, _, err := svc.Send(context.Background(), "4155550100")
	require.ErrorIs(t, err, assert.AnError)

	_, err = store.Get(context.Background(), "+4155550100")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "+1", "h", time.Second))
	_, err := store.Get(ctx, "+1")
	require.NoError(t, err)

	now = now.Add(time.Second)
	_, err = store.Get(ctx, "+1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.IncrAttempts(ctx, "+1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	store := NewRedisStore(rdb, "")
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "+1", "h", time.Minute))
	assert.True(t, mr.Exists("voltride:otp:+1"))

	mr.FastForward(time.Minute + time.Second)
	_, err := store.Get(ctx, "+1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.IncrAttempts(ctx, "+1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRandomCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		c, err := randomCode()
		require.NoError(t, err)
		assert.True(t, validCode(c), c)
	}
}

// expiringStore lets Get succeed and then loses the key, as when the TTL
// runs out between the two calls.
type expiringStore struct{ *MemoryStore }

func (s expiringStore) IncrAttempts(ctx context.Context, phone string) (int, error) {
	_ = s.MemoryStore.Delete(ctx, phone)
	return s.MemoryStore.IncrAttempts(ctx, phone)
}

func TestVerifyWrongCodeOnExpiringChallenge(t *testing.T) {
	ctx := context.Background()
	svc := NewService(expiringStore{NewMemoryStore()}, nil, time.Minute, 3, nil, fixedCode("444444"))
	_, _, err := svc.Send(ctx, "4155550100")
	require.NoError(t, err)

	_, err = svc.Verify(ctx, "4155550100", "000000")
	assert.ErrorIs(t, err, ErrCodeExpired)
}
