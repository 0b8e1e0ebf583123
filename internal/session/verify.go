// Copyright (c) 2026 TenantX. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/tenantx/internal/platform/apperr"
	"github.com/taibuivan/tenantx/internal/platform/constants"
)

// # Identity Verification

// VerifyAuth checks the current access token against the backend.
//
//   - No access token: the store logs out and VerifyAuth returns false, nil.
//   - Success: identity fields are merged and VerifyAuth returns true, nil.
//   - 401: the store logs out and the error is returned.
//   - Any other failure: the session is untouched and the error is returned.
//
// IsVerifying is true for the duration of the call. When the sign-in ends
// while the call is in flight nothing is applied: a positive answer becomes
// [ErrSuperseded], a negative one is returned as is. When only the token
// pair was rotated (the gateway refreshed it to answer this very call) a
// positive answer still counts; profile fields are merged and the claims of
// the new token are kept.
func (s *Store) VerifyAuth(ctx context.Context) (bool, error) {
	s.mu.Lock()
	s.verifying++
	token := s.state.AccessToken
	epoch := s.epoch
	verifier := s.verifier

	defer func() {
		s.mu.Lock()
		s.verifying--
		s.mu.Unlock()
	}()

	if token == "" {
		err := s.logoutLocked(ctx)
		s.mu.Unlock()
		s.StopPeriodicVerification()
		return false, err
	}
	s.mu.Unlock()

	if verifier == nil {
		return false, ErrNoVerifier
	}

	identity, err := verifier.VerifyIdentity(ctx, token)

	if err != nil && !apperr.IsUnauthorized(err) {
		s.log.Warn("session_verification_failed", slog.Any("error", err))
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.epoch != epoch:
		s.log.Debug("session_verification_discarded", slog.Bool("rejected", err != nil))
		if err != nil {
			return false, err
		}
		return false, ErrSuperseded

	case s.state.AccessToken != token:
		// A 401 for the old token says nothing about the new one.
		if err != nil || (identity.UserID != "" && identity.UserID != s.state.Identity.UserID) {
			s.log.Debug("session_verification_discarded", slog.Bool("rejected", err != nil))
			return false, ErrSuperseded
		}
		s.mergeProfileLocked(identity)
		s.log.Debug("session_verified_after_rotation", slog.String("user_id", s.state.Identity.UserID))
		return true, nil
	}

	if err != nil {
		s.log.Info("session_verification_rejected")
		s.StopPeriodicVerification()
		if logoutErr := s.logoutLocked(ctx); logoutErr != nil {
			s.log.Error("session_logout_failed", slog.Any("error", logoutErr))
		}
		return false, err
	}

	if err := s.mergeIdentityLocked(ctx, identity); err != nil {
		return false, err
	}

	return true, nil
}

// mergeIdentityLocked applies a verified identity. Token-scoped fields are
// written through; profile fields live in memory only.
func (s *Store) mergeIdentityLocked(ctx context.Context, identity Identity) error {
	current := s.state.Identity

	merged := current
	merged.Email = identity.Email
	merged.Name = identity.Name
	merged.LoginMethod = identity.LoginMethod
	if identity.UserID != "" {
		merged.UserID = identity.UserID
	}
	if identity.Role != "" {
		merged.Role = identity.Role
	}
	if identity.OrganizationID != "" {
		merged.OrganizationID = identity.OrganizationID
	}

	if err := s.persistChangedLocked(ctx, map[string][2]string{
		constants.KeyUserID:         {current.UserID, merged.UserID},
		constants.KeyRole:           {current.Role, merged.Role},
		constants.KeyOrganizationID: {current.OrganizationID, merged.OrganizationID},
	}); err != nil {
		return fmt.Errorf("session: verify: %w", err)
	}

	s.state.Identity = merged
	s.state.IsAuthenticated = s.state.AccessToken != "" && s.state.RefreshToken != ""

	s.log.Debug("session_verified", slog.String("user_id", merged.UserID))
	return nil
}

// mergeProfileLocked applies the profile fields of identity, in memory only.
func (s *Store) mergeProfileLocked(identity Identity) {
	s.state.Identity.Email = identity.Email
	s.state.Identity.Name = identity.Name
	s.state.Identity.LoginMethod = identity.LoginMethod
}

// persistChangedLocked writes only the keys whose value changed.
func (s *Store) persistChangedLocked(ctx context.Context, changes map[string][2]string) error {
	var entries []entry
	for _, key := range constants.SessionKeys {
		change, ok := changes[key]
		if !ok || change[0] == change[1] {
			continue
		}
		entries = append(entries, entry{key, change[1]})
	}
	return s.persistLocked(ctx, entries...)
}

// # Periodic Verification

// Ticker is the subset of [time.Ticker] used by periodic verification.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates a [Ticker] firing every interval.
type TickerFactory func(interval time.Duration) Ticker

type timeTicker struct{ ticker *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.ticker.C }
func (t timeTicker) Stop()               { t.ticker.Stop() }

func newTimeTicker(interval time.Duration) Ticker {
	return timeTicker{ticker: time.NewTicker(interval)}
}

// verifyLoop is the handle of one running verification goroutine.
type verifyLoop struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// StartPeriodicVerification runs VerifyAuth on every tick until stopped or
// until ctx is cancelled. Any loop already running is stopped first, so at
// most one loop exists per store.
func (s *Store) StartPeriodicVerification(ctx context.Context) {
	s.loopMu.Lock()
	defer s.loopMu.Unlock()

	s.stopLoopLocked()

	loopCtx, cancel := context.WithCancel(ctx)
	loop := &verifyLoop{cancel: cancel, done: make(chan struct{})}
	s.loop = loop

	ticker := s.newTicker(s.interval)
	go s.runLoop(loopCtx, ticker, loop.done)

	s.log.Debug("session_verification_started", slog.Duration("interval", s.interval))
}

// StopPeriodicVerification cancels the running loop, if any. It does not wait
// for an in-flight verification; that result is discarded if it is stale.
func (s *Store) StopPeriodicVerification() {
	s.loopMu.Lock()
	defer s.loopMu.Unlock()

	s.stopLoopLocked()
}

// Verifying reports whether a periodic loop is active. Exposed for tests and
// status output.
func (s *Store) Verifying() bool {
	s.loopMu.Lock()
	defer s.loopMu.Unlock()

	if s.loop == nil {
		return false
	}
	select {
	case <-s.loop.done:
		return false
	default:
		return true
	}
}

func (s *Store) stopLoopLocked() {
	if s.loop == nil {
		return
	}
	s.loop.cancel()
	s.loop = nil
}

func (s *Store) runLoop(ctx context.Context, ticker Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			if ctx.Err() != nil {
				return
			}
			if _, err := s.VerifyAuth(ctx); err != nil && !IsSuperseded(err) {
				s.log.Debug("session_periodic_verification_failed", slog.Any("error", err))
			}
		}
	}
}
