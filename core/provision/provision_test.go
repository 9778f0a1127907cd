package provision_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"asset-exporter/core/provision"
)

type failingProvider struct {
	calls atomic.Int32
}

func (p *failingProvider) Name() string { return "failing" }

func (p *failingProvider) Keys(context.Context) (*provision.Keys, error) {
	p.calls.Add(1)
	return nil, errors.New("down")
}

type flakyProvider struct {
	calls atomic.Int32
}

func (p *flakyProvider) Name() string { return "flaky" }

func (p *flakyProvider) Keys(context.Context) (*provision.Keys, error) {
	if p.calls.Add(1) == 1 {
		return nil, errors.New("first call fails")
	}
	return &provision.Keys{MainKey: "0xABC"}, nil
}

func TestService_Acquire(t *testing.T) {
	t.Run("FailsTwiceIsUnavailable", func(t *testing.T) {
		p := &failingProvider{}
		svc := provision.NewService(zap.NewNop(), provision.Options{
			KeyProviders: []provision.KeyProvider{p},
			RetryDelay:   time.Millisecond,
		})

		_, err := svc.Acquire(context.Background())
		assert.ErrorIs(t, err, provision.ErrUnavailable)
		assert.Equal(t, int32(2), p.calls.Load())
	})

	t.Run("RetrySucceeds", func(t *testing.T) {
		p := &flakyProvider{}
		svc := provision.NewService(zap.NewNop(), provision.Options{
			KeyProviders: []provision.KeyProvider{p},
			RetryDelay:   time.Millisecond,
		})

		b, err := svc.Acquire(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "0xABC", b.Keys.MainKey)
	})

	t.Run("FallsBackToNextProviderAndCaches", func(t *testing.T) {
		dir := t.TempDir()
		keyFile := filepath.Join(dir, "keys.yaml")
		require.NoError(t, os.WriteFile(keyFile, []byte("mainKey: \"0x01\"\ndynamicKeys:\n  - pakFilename: a.pak\n    pakGuid: ABCD\n    key: \"0x02\"\n"), 0o600))
		cacheFile := filepath.Join(dir, "cache", "keys.yaml")

		svc := provision.NewService(zap.NewNop(), provision.Options{
			KeyProviders: []provision.KeyProvider{&failingProvider{}, provision.NewFileKeyProvider(keyFile)},
			Cache:        provision.NewFileKeyCache(cacheFile),
			RetryDelay:   time.Millisecond,
		})

		b, err := svc.Acquire(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "0x02", b.Keys.ByGUID()["abcd"])

		cached, err := provision.NewFileKeyProvider(cacheFile).Keys(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "0x01", cached.MainKey)
	})

	t.Run("EmptyMappingsAreUnavailable", func(t *testing.T) {
		dir := t.TempDir()
		mapFile := filepath.Join(dir, "mappings.yaml")
		require.NoError(t, os.WriteFile(mapFile, []byte("types: {}\nenums: {}\n"), 0o600))

		p := &flakyProvider{}
		svc := provision.NewService(zap.NewNop(), provision.Options{
			KeyProviders: []provision.KeyProvider{p},
			Mappings:     provision.NewFileMappingsProvider(mapFile),
			RetryDelay:   time.Millisecond,
		})

		_, err := svc.Acquire(context.Background())
		assert.ErrorIs(t, err, provision.ErrUnavailable)
	})

	t.Run("CancelledDuringBackoff", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		svc := provision.NewService(zap.NewNop(), provision.Options{
			KeyProviders: []provision.KeyProvider{&failingProvider{}},
			RetryDelay:   time.Hour,
		})

		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()
		_, err := svc.Acquire(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestHTTPKeyProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":200,"data":{"build":"++Fortnite+Release-30.00","mainKey":"0xMAIN","dynamicKeys":[{"pakFilename":"p.pak","pakGuid":"{AB-CD}","key":"0xDYN"}]}}`))
	}))
	defer srv.Close()

	keys, err := provision.NewHTTPKeyProvider(srv.URL, time.Second).Keys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0xMAIN", keys.MainKey)
	assert.Equal(t, "0xMAIN", keys.ByGUID()[provision.ZeroGUID])
	assert.Equal(t, "0xDYN", keys.ByGUID()["abcd"])
}

func TestHTTPKeyProvider_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := provision.NewHTTPKeyProvider(srv.URL, time.Second).Keys(context.Background())
	assert.Error(t, err)
}
