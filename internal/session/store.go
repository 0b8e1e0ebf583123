// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/tenantx/internal/kv"
	"github.com/taibuivan/tenantx/internal/platform/constants"
	"github.com/taibuivan/tenantx/internal/platform/sec"
)

// IdentityVerifier resolves the identity behind an access token by asking the
// backend (GET /auth/me). A 401 answer must surface as an error for which
// apperr.IsUnauthorized reports true.
type IdentityVerifier interface {
	VerifyIdentity(ctx context.Context, accessToken string) (Identity, error)
}

// Store is the single source of truth for session state. It is safe for
// concurrent use.
type Store struct {
	backend kv.Store
	log     *slog.Logger

	mu        sync.Mutex
	state     Session
	verifying int
	verifier  IdentityVerifier

	// epoch changes when the signed-in principal changes (logout, sign-out on
	// load, another user signing in). Token rotation keeps it.
	epoch uint64

	loopMu    sync.Mutex
	loop      *verifyLoop
	interval  time.Duration
	newTicker TickerFactory
}

// # Options

// Option configures a [Store].
type Option func(*Store)

// WithLogger sets the logger for session events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.log = logger }
}

// WithVerifyInterval sets the period of background verification.
func WithVerifyInterval(interval time.Duration) Option {
	return func(s *Store) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithTickerFactory replaces the ticker used by periodic verification.
func WithTickerFactory(factory TickerFactory) Option {
	return func(s *Store) { s.newTicker = factory }
}

// WithVerifier attaches the identity verifier at construction.
func WithVerifier(verifier IdentityVerifier) Option {
	return func(s *Store) { s.verifier = verifier }
}

// NewStore creates an empty, unhydrated store over backend.
func NewStore(backend kv.Store, opts ...Option) *Store {
	store := &Store{
		backend:   backend,
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		interval:  constants.DefaultVerifyInterval,
		newTicker: newTimeTicker,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// UseVerifier attaches the identity verifier after construction. The verifier
// usually depends on the gateway, which depends on this store.
func (s *Store) UseVerifier(verifier IdentityVerifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verifier = verifier
}

// # Readers

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// AccessToken returns the current access token, or "" when signed out.
func (s *Store) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.AccessToken
}

// RefreshToken returns the current refresh token, or "" when signed out.
func (s *Store) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.RefreshToken
}

// SelectedOrganizationID returns the cached tenant choice, or "".
func (s *Store) SelectedOrganizationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.SelectedOrganization == nil {
		return ""
	}
	return s.state.SelectedOrganization.ID
}

// Epoch identifies the current sign-in. Callers that start a long operation
// record it and hand it back to [Store.SetTokensIf].
func (s *Store) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

func (s *Store) snapshotLocked() Session {
	snapshot := s.state.clone()
	snapshot.IsVerifying = s.verifying > 0
	return snapshot
}

// # Mutators

// SetTokens installs a new token pair and the identity decoded from access.
//
// A malformed access token yields an error wrapping [sec.ErrMalformedToken]
// and leaves memory and storage untouched.
func (s *Store) SetTokens(ctx context.Context, access, refresh string) error {
	claims, err := decodePair(s.log, access, refresh)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.setTokensLocked(ctx, claims, access, refresh)
}

/*
SetTokensIf installs a token pair obtained by an operation that started at
epoch, typically a silent refresh.

When the session was signed out (or another user signed in) since then, the
pair is dropped and memory and storage stay as they are.

Returns:
  - bool: true if the pair was applied
  - error: malformed input or storage failure
*/
func (s *Store) SetTokensIf(ctx context.Context, epoch uint64, access, refresh string) (bool, error) {
	claims, err := decodePair(s.log, access, refresh)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		s.log.Info("session_tokens_discarded", slog.String("user_id", claims.UserID()))
		return false, nil
	}

	if err := s.setTokensLocked(ctx, claims, access, refresh); err != nil {
		return false, err
	}
	return true, nil
}

func decodePair(log *slog.Logger, access, refresh string) (*sec.Claims, error) {
	claims, err := sec.DecodeClaims(access)
	if err != nil {
		log.Warn("session_tokens_rejected", slog.Any("error", err))
		return nil, fmt.Errorf("session: set tokens: %w", err)
	}
	if strings.TrimSpace(refresh) == "" {
		return nil, fmt.Errorf("session: set tokens: %w", ErrEmptyRefreshToken)
	}
	return claims, nil
}

func (s *Store) setTokensLocked(ctx context.Context, claims *sec.Claims, access, refresh string) error {
	if err := s.persistLocked(ctx,
		entry{constants.KeyAccessToken, access},
		entry{constants.KeyRefreshToken, refresh},
		entry{constants.KeyUserID, claims.UserID()},
		entry{constants.KeyRole, claims.Role},
		entry{constants.KeyOrganizationID, claims.Org},
	); err != nil {
		return fmt.Errorf("session: set tokens: %w", err)
	}

	identity := Identity{
		UserID:         claims.UserID(),
		Role:           claims.Role,
		OrganizationID: claims.Org,
	}

	// Profile fields stay valid while the user is the same
	switch previous := s.state.Identity.UserID; {
	case previous == identity.UserID:
		identity.Email = s.state.Identity.Email
		identity.Name = s.state.Identity.Name
		identity.LoginMethod = s.state.Identity.LoginMethod
	case previous != "":
		s.epoch++
	}

	s.state.AccessToken = access
	s.state.RefreshToken = refresh
	s.state.Identity = identity
	s.state.IsAuthenticated = true
	s.state.IsHydrated = true

	s.log.Info("session_tokens_set",
		slog.String("user_id", identity.UserID),
		slog.String("organization_id", identity.OrganizationID),
	)

	return nil
}

// SetOrg records the organization and role the session is scoped to, typically
// right after an organization switch. Empty values remove the entries.
func (s *Store) SetOrg(ctx context.Context, orgID, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persistLocked(ctx,
		entry{constants.KeyOrganizationID, orgID},
		entry{constants.KeyRole, role},
	); err != nil {
		return fmt.Errorf("session: set org: %w", err)
	}

	s.state.Identity.OrganizationID = orgID
	s.state.Identity.Role = role

	return nil
}

// SetSelectedOrganization updates the tenant cache. Empty values remove the
// corresponding entries; an empty id clears the selection.
func (s *Store) SetSelectedOrganization(ctx context.Context, orgID, orgName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persistLocked(ctx,
		entry{constants.KeySelectedOrganizationID, orgID},
		entry{constants.KeySelectedOrganizationName, orgName},
	); err != nil {
		return fmt.Errorf("session: set selected organization: %w", err)
	}

	if orgID == "" {
		s.state.SelectedOrganization = nil
	} else {
		s.state.SelectedOrganization = &Organization{ID: orgID, Name: orgName}
	}

	return nil
}

// Logout stops periodic verification and clears every session field in memory
// and storage. It is safe on an already signed-out store.
//
// Memory is always reset; a storage failure is returned after the reset.
func (s *Store) Logout(ctx context.Context) error {
	s.StopPeriodicVerification()

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.logoutLocked(ctx)
}

func (s *Store) logoutLocked(ctx context.Context) error {
	wasAuthenticated := s.state.IsAuthenticated

	err := s.backend.Delete(ctx, constants.SessionKeys...)

	s.state = Session{IsHydrated: true}
	s.epoch++

	if err != nil {
		s.log.Error("session_logout_storage_failed", slog.Any("error", err))
		return fmt.Errorf("session: logout: %w", err)
	}

	if wasAuthenticated {
		s.log.Info("session_logged_out")
	}

	return nil
}

// Load reads every persisted entry. With both tokens present the session is
// restored as authenticated; otherwise the store takes the explicit
// signed-out shape. IsHydrated is true afterwards on every path. Calling Load
// repeatedly without intervening writes yields the same state.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.readAll(ctx)
	if err != nil {
		s.state.IsHydrated = true
		return fmt.Errorf("session: load: %w", err)
	}

	access := values[constants.KeyAccessToken]
	refresh := values[constants.KeyRefreshToken]

	if access == "" || refresh == "" {
		if s.state.AccessToken != "" {
			s.epoch++
		}
		s.state = Session{IsHydrated: true}
		return nil
	}

	restored := Session{
		AccessToken:  access,
		RefreshToken: refresh,
		Identity: Identity{
			UserID:         values[constants.KeyUserID],
			Role:           values[constants.KeyRole],
			OrganizationID: values[constants.KeyOrganizationID],
		},
		IsAuthenticated: true,
		IsHydrated:      true,
	}

	if orgID := values[constants.KeySelectedOrganizationID]; orgID != "" {
		restored.SelectedOrganization = &Organization{
			ID:   orgID,
			Name: values[constants.KeySelectedOrganizationName],
		}
	}

	// Keep profile fields learned from a previous verification of the same token
	if s.state.AccessToken == access {
		restored.Identity.Email = s.state.Identity.Email
		restored.Identity.Name = s.state.Identity.Name
		restored.Identity.LoginMethod = s.state.Identity.LoginMethod
	}
	if previous := s.state.Identity.UserID; previous != "" && previous != restored.Identity.UserID {
		s.epoch++
	}

	s.state = restored
	return nil
}

// # Persistence

// readAll reads every session key, in one read when the backend supports it.
func (s *Store) readAll(ctx context.Context) (map[string]string, error) {
	if bulk, ok := s.backend.(kv.BulkReader); ok {
		return bulk.GetMany(ctx, constants.SessionKeys...)
	}

	values := make(map[string]string, len(constants.SessionKeys))
	for _, key := range constants.SessionKeys {
		value, ok, err := s.backend.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			values[key] = value
		}
	}
	return values, nil
}

type entry struct {
	key   string
	value string
}

// persistLocked writes each entry in order; an empty value deletes the key.
func (s *Store) persistLocked(ctx context.Context, entries ...entry) error {
	var deletions []string
	for _, e := range entries {
		if e.value == "" {
			deletions = append(deletions, e.key)
			continue
		}
		if err := s.backend.Set(ctx, e.key, e.value); err != nil {
			return err
		}
	}

	if len(deletions) > 0 {
		if err := s.backend.Delete(ctx, deletions...); err != nil {
			return err
		}
	}

	return nil
}

// IsSuperseded reports whether err is [ErrSuperseded].
func IsSuperseded(err error) bool {
	return errors.Is(err, ErrSuperseded)
}
