package config

import (
	"bytes"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Viper is a Config implementation backed by github.com/spf13/viper.
//
// viper.Viper is not safe for concurrent reads and writes, so every access
// goes through mu and file reloads are driven by Viper's own watcher instead
// of viper.WatchConfig.
type Viper struct {
	v *viper.Viper

	mu sync.RWMutex

	lmu       sync.Mutex
	listeners []func()

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewViper loads configuration from the given file path and returns a Viper-backed Config.
//
// The config file type is inferred by Viper from the filename extension. The file is
// watched and re-read on change; registered OnChange listeners run after each reload.
func NewViper(pathFile string) (*Viper, error) {
	v := viper.New()
	v.SetConfigFile(pathFile)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(filepath.Dir(pathFile)); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	vc := &Viper{v: v, watcher: watcher, done: make(chan struct{})}
	go vc.watch(filepath.Clean(pathFile))

	return vc, nil
}

func (vc *Viper) watch(file string) {
	defer close(vc.done)

	for {
		select {
		case ev, ok := <-vc.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != file || (!ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create)) {
				continue
			}
			vc.reload(file)
		case err, ok := <-vc.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("config watch failed", "path", file, "err", err)
		}
	}
}

func (vc *Viper) reload(file string) {
	vc.mu.Lock()
	err := vc.v.ReadInConfig()
	vc.mu.Unlock()

	if err != nil {
		slog.Error("config reload failed", "path", file, "err", err)
		return
	}

	slog.Info("config success reloaded", "path", file)
	vc.notify()
}

// NewViperFromBytes loads configuration from memory and returns a Viper-backed Config.
// configType should be a format supported by Viper (e.g. "yaml", "json", "toml").
func NewViperFromBytes(configType string, data []byte) (*Viper, error) {
	if strings.TrimSpace(configType) == "" {
		return nil, errors.New("config type is required")
	}

	v := viper.New()
	v.SetConfigType(configType)

	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	return &Viper{v: v}, nil
}

// SetDefault sets the value used when key is absent from the loaded configuration.
func (vc *Viper) SetDefault(key string, value any) {
	vc.mu.Lock()
	defer vc.mu.Unlock()

	vc.v.SetDefault(key, value)
}

// GetInt returns the value for key as int.
func (vc *Viper) GetInt(key string) int {
	vc.mu.RLock()
	defer vc.mu.RUnlock()

	return vc.v.GetInt(key)
}

// GetInt64 returns the value for key as int64.
func (vc *Viper) GetInt64(key string) int64 {
	vc.mu.RLock()
	defer vc.mu.RUnlock()

	return vc.v.GetInt64(key)
}

// GetUint returns the value for key as uint.
func (vc *Viper) GetUint(key string) uint {
	vc.mu.RLock()
	defer vc.mu.RUnlock()

	return vc.v.GetUint(key)
}

// GetUint32 returns the value for key as uint32.
func (vc *Viper) GetUint32(key string) uint32 {
	vc.mu.RLock()
	defer vc.mu.RUnlock()

	return vc.v.GetUint32(key)
}

// IsSet reports whether key has a value, from the file or a default.
func (vc *Viper) IsSet(key string) bool {
	vc.mu.RLock()
	defer vc.mu.RUnlock()

	return vc.v.IsSet(key)
}

// GetBool returns the value for key as bool.
func (vc *Viper) GetBool(key string) bool {
	vc.mu.RLock()
	defer vc.mu.RUnlock()

	return vc.v.GetBool(key)
}

// GetFloat64 returns the value for key as float64.
func (vc *Viper) GetFloat64(key string) float64 {
	vc.mu.RLock()
	defer vc.mu.RUnlock()

	return vc.v.GetFloat64(key)
}

// GetSecond returns the value for key as seconds.
func (vc *Viper) GetSecond(key string) time.Duration {
	vc.mu.RLock()
	defer vc.mu.RUnlock()

	return time.Duration(vc.v.GetInt64(key)) * time.Second
}

// GetMinute returns the value for key as minutes.
func (vc *Viper) GetMinute(key string) time.Duration {
	vc.mu.RLock()
	defer vc.mu.RUnlock()

	return time.Duration(vc.v.GetInt64(key)) * time.Minute
}

// GetString returns the value for key as string.
func (vc *Viper) GetString(key string) string {
	vc.mu.RLock()
	defer vc.mu.RUnlock()

	return vc.v.GetString(key)
}

// GetArray returns the value for key as a slice; scalar strings are split by commas.
func (vc *Viper) GetArray(key string) []string {
	vc.mu.RLock()
	defer vc.mu.RUnlock()

	if _, ok := vc.v.Get(key).([]any); ok {
		return vc.v.GetStringSlice(key)
	}

	raw := vc.v.GetString(key)
	if raw == "" {
		return nil
	}

	return strings.Split(raw, ",")
}

// Unmarshal decodes the subtree at key into out.
func (vc *Viper) Unmarshal(key string, out any) error {
	vc.mu.RLock()
	defer vc.mu.RUnlock()

	return vc.v.UnmarshalKey(key, out)
}

// OnChange registers fn to run after each successful reload.
func (vc *Viper) OnChange(fn func()) {
	vc.lmu.Lock()
	vc.listeners = append(vc.listeners, fn)
	vc.lmu.Unlock()
}

func (vc *Viper) notify() {
	vc.lmu.Lock()
	listeners := append([]func(){}, vc.listeners...)
	vc.lmu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// Close stops watching the config file. It is a no-op for in-memory configs.
func (vc *Viper) Close() error {
	if vc.watcher == nil {
		return nil
	}

	err := vc.watcher.Close()
	<-vc.done

	return err
}
