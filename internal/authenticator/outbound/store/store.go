package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/otpbite/internal/authenticator/entity"
	"github.com/shandysiswandi/otpbite/internal/pkg/base32"
	"github.com/shandysiswandi/otpbite/internal/pkg/goerror"
	"github.com/shandysiswandi/otpbite/internal/pkg/validator"
)

// KeyAccounts is the configuration key holding the account list.
const KeyAccounts = "modules.authenticator.accounts"

// Source is the configuration the store reads accounts from.
type Source interface {
	Unmarshal(key string, out any) error
	OnChange(fn func())
}

// Store keeps the enrolled accounts in memory. Readers see either the old or
// the new list during a reload, never a mix.
type Store struct {
	src       Source
	validator validator.Validator
	backoff   func() retry.Backoff

	mu       sync.RWMutex
	accounts []entity.Account
	index    map[string]entity.Account
}

// New returns an empty store; call Reload to load the configured accounts.
func New(src Source, v validator.Validator) *Store {
	return &Store{
		src:       src,
		validator: v,
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(3, retry.NewConstant(200*time.Millisecond))
		},
		index: map[string]entity.Account{},
	}
}

// List returns a copy of the accounts in configuration order.
func (s *Store) List(context.Context) ([]entity.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]entity.Account(nil), s.accounts...), nil
}

// Get returns the account with id, or goerror.ErrNotFound.
func (s *Store) Get(_ context.Context, id string) (*entity.Account, error) {
	s.mu.RLock()
	acc, ok := s.index[id]
	s.mu.RUnlock()

	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &acc, nil
}

// Replace validates accounts and swaps them in. Invalid entries and repeated
// ids are skipped with a warning; the first occurrence of an id wins. It
// returns the number of accounts kept.
func (s *Store) Replace(ctx context.Context, accounts []entity.Account) int {
	accounts = lo.Map(accounts, func(a entity.Account, _ int) entity.Account {
		a.Secret = base32.Normalize(a.Secret)
		return a
	})

	valid := lo.Filter(accounts, func(a entity.Account, i int) bool {
		if err := s.validator.Validate(a); err != nil {
			slog.WarnContext(ctx, "skipping invalid account", "position", i, "account", a, "error", err)
			return false
		}
		return true
	})

	for _, dup := range lo.FindDuplicatesBy(valid, func(a entity.Account) string { return a.ID }) {
		slog.WarnContext(ctx, "skipping duplicate account id, keeping the first", "account_id", dup.ID)
	}
	valid = lo.UniqBy(valid, func(a entity.Account) string { return a.ID })

	index := lo.KeyBy(valid, func(a entity.Account) string { return a.ID })

	s.mu.Lock()
	s.accounts = valid
	s.index = index
	s.mu.Unlock()

	return len(valid)
}

// Reload reads the account list from configuration, retrying briefly because
// editors may leave the file half written. On failure the previous accounts stay.
func (s *Store) Reload(ctx context.Context) error {
	var accounts []entity.Account

	err := retry.Do(ctx, s.backoff(), func(context.Context) error {
		accounts = nil
		if err := s.src.Unmarshal(KeyAccounts, &accounts); err != nil {
			slog.WarnContext(ctx, "failed to read accounts from config, retrying", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}

	kept := s.Replace(ctx, accounts)
	if kept == 0 {
		slog.WarnContext(ctx, "no usable accounts configured", "key", KeyAccounts)
	}
	slog.InfoContext(ctx, "accounts loaded", "configured", len(accounts), "kept", kept)

	return nil
}

// Watch reloads the accounts each time the configuration changes, until ctx ends.
func (s *Store) Watch(ctx context.Context) {
	s.src.OnChange(func() {
		if ctx.Err() != nil {
			return
		}
		if err := s.Reload(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.ErrorContext(ctx, "failed to reload accounts", "error", err)
		}
	})
}
