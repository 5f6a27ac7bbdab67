package flow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestOnce_CachesFirstSuccess(t *testing.T) {
	calls := 0
	supplier := Once(func(context.Context) (interface{}, error) {
		calls++
		return calls, nil
	})

	for i := 0; i < 3; i++ {
		value, err := supplier(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if value != 1 {
			t.Errorf("value = %v, want the first result", value)
		}
	}
	if calls != 1 {
		t.Errorf("delegate called %d times, want 1", calls)
	}
}

func TestOnce_ErrorsAreNotCached(t *testing.T) {
	calls := 0
	supplier := Once(func(context.Context) (interface{}, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("transient")
		}
		return "ok", nil
	})

	if _, err := supplier(context.Background()); err == nil {
		t.Fatal("first call should fail")
	}
	value, err := supplier(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "ok" {
		t.Errorf("value = %v, want ok", value)
	}
	if calls != 2 {
		t.Errorf("delegate called %d times, want 2", calls)
	}
}

func signedJWT(t *testing.T, expiresIn time.Duration) string {
	t.Helper()

	claims := jwt.MapClaims{"sub": "test"}
	if expiresIn != 0 {
		claims["exp"] = time.Now().Add(expiresIn).Unix()
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return raw
}

func TestCachedJWT_CachesUntilExpiry(t *testing.T) {
	fresh := signedJWT(t, time.Hour)
	calls := 0
	cache := NewCachedJWT(func(context.Context) (interface{}, error) {
		calls++
		return fresh, nil
	}, 30*time.Second)

	for i := 0; i < 3; i++ {
		value, err := cache.Supply(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if value != fresh {
			t.Error("expected the cached token")
		}
	}
	if calls != 1 {
		t.Errorf("delegate called %d times, want 1", calls)
	}
}

func TestCachedJWT_RefreshesExpiredToken(t *testing.T) {
	expired := signedJWT(t, -time.Minute)
	fresh := signedJWT(t, time.Hour)

	calls := 0
	cache := NewCachedJWT(func(context.Context) (interface{}, error) {
		calls++
		if calls == 1 {
			return expired, nil
		}
		return fresh, nil
	}, 30*time.Second)

	first, err := cache.Supply(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != expired {
		t.Error("first supply should return the delegate's token even if short-lived")
	}

	second, err := cache.Supply(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second != fresh {
		t.Error("expired cached token must be refreshed")
	}
	if calls != 2 {
		t.Errorf("delegate called %d times, want 2", calls)
	}
}

func TestCachedJWT_TokenWithoutExpIsCached(t *testing.T) {
	eternal := signedJWT(t, 0)
	calls := 0
	cache := NewCachedJWT(func(context.Context) (interface{}, error) {
		calls++
		return eternal, nil
	}, 30*time.Second)

	for i := 0; i < 2; i++ {
		if _, err := cache.Supply(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if calls != 1 {
		t.Errorf("delegate called %d times, want 1", calls)
	}
}

func TestCachedJWT_Invalidate(t *testing.T) {
	fresh := signedJWT(t, time.Hour)
	calls := 0
	cache := NewCachedJWT(func(context.Context) (interface{}, error) {
		calls++
		return fresh, nil
	}, 30*time.Second)

	if _, err := cache.Supply(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cache.Invalidate()
	if _, err := cache.Supply(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("delegate called %d times, want 2", calls)
	}
}

func TestCachedJWT_NonStringValueFails(t *testing.T) {
	cache := NewCachedJWT(StaticSupplier(42), time.Second)
	if _, err := cache.Supply(context.Background()); err == nil {
		t.Fatal("expected error for non-string supplier value")
	}
}

func TestCachedJWT_DelegateErrorPropagates(t *testing.T) {
	boom := errors.New("metadata unreachable")
	cache := NewCachedJWT(func(context.Context) (interface{}, error) {
		return nil, boom
	}, time.Second)

	_, err := cache.Supply(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("expected delegate error, got %v", err)
	}
}
