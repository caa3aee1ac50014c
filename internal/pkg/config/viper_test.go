package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/atomic"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
app:
  name: otpbite
  debug: true
  timeout: 3
modules:
  authenticator:
    period: 30
    digits: 6
    origins: "http://a.test,http://b.test"
    hosts:
      - one
      - two
    accounts:
      - id: github
        name: GitHub
        secret: JBSWY3DPEHPK3PXP
`

func TestNewViperFromBytes(t *testing.T) {
	t.Run("empty type", func(t *testing.T) {
		_, err := NewViperFromBytes(" ", []byte(sampleYAML))
		require.Error(t, err)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := NewViperFromBytes("yaml", []byte("app: [unclosed"))
		require.Error(t, err)
	})

	t.Run("getters", func(t *testing.T) {
		cfg, err := NewViperFromBytes("yaml", []byte(sampleYAML))
		require.NoError(t, err)

		assert.Equal(t, "otpbite", cfg.GetString("app.name"))
		assert.True(t, cfg.GetBool("app.debug"))
		assert.Equal(t, 3*time.Second, cfg.GetSecond("app.timeout"))
		assert.Equal(t, 3*time.Minute, cfg.GetMinute("app.timeout"))
		assert.Equal(t, uint32(30), cfg.GetUint32("modules.authenticator.period"))
		assert.Equal(t, 6, cfg.GetInt("modules.authenticator.digits"))
		assert.Equal(t, int64(6), cfg.GetInt64("modules.authenticator.digits"))
		assert.Equal(t, uint(6), cfg.GetUint("modules.authenticator.digits"))
		assert.InDelta(t, 6.0, cfg.GetFloat64("modules.authenticator.digits"), 0.0001)
		assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.GetArray("modules.authenticator.origins"))
		assert.Equal(t, []string{"one", "two"}, cfg.GetArray("modules.authenticator.hosts"))
		assert.Nil(t, cfg.GetArray("modules.authenticator.missing"))
		assert.NoError(t, cfg.Close())
	})

	t.Run("default", func(t *testing.T) {
		cfg, err := NewViperFromBytes("yaml", []byte(sampleYAML))
		require.NoError(t, err)

		cfg.SetDefault("modules.authenticator.skew", 1)
		assert.Equal(t, uint(1), cfg.GetUint("modules.authenticator.skew"))
	})
}

func TestViper_Unmarshal(t *testing.T) {
	cfg, err := NewViperFromBytes("yaml", []byte(sampleYAML))
	require.NoError(t, err)

	var accounts []struct {
		ID     string `mapstructure:"id"`
		Name   string `mapstructure:"name"`
		Secret string `mapstructure:"secret"`
	}
	require.NoError(t, cfg.Unmarshal("modules.authenticator.accounts", &accounts))

	require.Len(t, accounts, 1)
	assert.Equal(t, "github", accounts[0].ID)
	assert.Equal(t, "GitHub", accounts[0].Name)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", accounts[0].Secret)
}

func TestViper_OnChange(t *testing.T) {
	cfg, err := NewViperFromBytes("yaml", []byte(sampleYAML))
	require.NoError(t, err)

	calls := 0
	cfg.OnChange(func() { calls++ })
	cfg.OnChange(func() { calls += 10 })

	cfg.notify()

	assert.Equal(t, 11, calls)
}

func TestNewViper(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := NewViper(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})

	t.Run("reads file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

		cfg, err := NewViper(path)
		require.NoError(t, err)
		defer cfg.Close()

		assert.Equal(t, "otpbite", cfg.GetString("app.name"))
	})
}

func TestNewViper_ReloadWhileReading(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app:\n  maintenance:\n    enabled: false\n  rev: 0\n"), 0o600))

	cfg, err := NewViper(path)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, cfg.Close()) })

	reloads := atomic.NewInt64(0)
	cfg.OnChange(func() {
		reloads.Inc()
		_ = cfg.GetInt("app.rev")
	})

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				_ = cfg.GetBool("app.maintenance.enabled")
				_ = cfg.GetArray("app.rev")
				var out map[string]any
				_ = cfg.Unmarshal("app", &out)
			}
		}
	}()

	for i := 1; i <= 20; i++ {
		data := fmt.Sprintf("app:\n  maintenance:\n    enabled: %t\n  rev: %d\n", i%2 == 0, i)
		require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
		time.Sleep(5 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return cfg.GetInt("app.rev") == 20 }, 2*time.Second, 10*time.Millisecond)
	close(stop)
	wg.Wait()

	assert.Positive(t, reloads.Load())
}

func TestViper_Close(t *testing.T) {
	mem, err := NewViperFromBytes("yaml", []byte(sampleYAML))
	require.NoError(t, err)
	assert.NoError(t, mem.Close())

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	cfg, err := NewViper(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Close())

	require.NoError(t, os.WriteFile(path, []byte("app:\n  name: changed\n"), 0o600))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, "otpbite", cfg.GetString("app.name"))
}
