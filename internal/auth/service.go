package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// loginChanSize is the buffer size for the async last-login channel.
// Entries beyond this are dropped (best-effort) so a persistence hiccup on
// a non-critical write can never slow down or fail a login.
const loginChanSize = 64

// reapInterval is how often expired refresh token rows are deleted.
const reapInterval = time.Hour

// Config holds the token settings the service needs. The signing secret is
// process-wide configuration loaded once at startup; it is never logged.
type Config struct {
	Secret            string
	AccessTTLMinutes  int
	RefreshTTLMinutes int
}

// loginRecord is a queued best-effort last-login write.
type loginRecord struct {
	userID string
	at     time.Time
}

// Service orchestrates credential verification, token issuance, and refresh
// rotation. It is safe for concurrent use: all cryptographic operations are
// stateless, and the only shared state is the injected repositories.
type Service struct {
	users   UserRepository
	tokens  TokenRepository
	cfg     Config
	logger  *slog.Logger
	loginCh chan loginRecord
}

// NewService creates an authentication service. Call Start to launch the
// background last-login writer and token reaper.
func NewService(users UserRepository, tokens TokenRepository, cfg Config, logger *slog.Logger) *Service {
	return &Service{
		users:   users,
		tokens:  tokens,
		cfg:     cfg,
		logger:  logger,
		loginCh: make(chan loginRecord, loginChanSize),
	}
}

// Start launches the background goroutines: the last-login drain and the
// periodic expired-token reaper. Both stop when ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	go s.drainLogins(ctx)
	go s.reapLoop(ctx)
}

// Authenticate verifies credentials and issues a token pair.
//
// Unknown email, wrong password, inactive account, and store failure all
// return ErrInvalidCredentials — the paths are indistinguishable to the
// caller so account existence cannot be probed. Store failures are logged
// internally and treated as authentication failure (fail closed).
func (s *Service) Authenticate(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			s.logger.Error("user lookup failed during login", "error", err)
		}
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	ok, err := VerifyPassword(password, user.PasswordHash)
	if err != nil {
		s.logger.Error("password verification failed", "user_id", user.ID, "error", err)
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	s.recordLogin(user.ID)

	result, err := s.issuePair(ctx, user, "")
	if err != nil {
		s.logger.Error("token issuance failed", "user_id", user.ID, "error", err)
		return nil, ErrInvalidCredentials
	}
	return result, nil
}

// Refresh validates a refresh token and issues a new access/refresh pair.
//
// The consumed token is rotated single-use within its family. Presenting an
// already-consumed token is treated as theft: the whole family is revoked
// and the request fails. The user is re-fetched so a role change since the
// original issuance takes effect on the new pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := ParseRefreshToken(refreshToken, s.cfg.Secret)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	stored, err := s.tokens.GetByTokenHash(ctx, HashToken(refreshToken))
	if err != nil {
		if !errors.Is(err, ErrTokenInvalid) {
			s.logger.Error("refresh token lookup failed", "error", err)
		}
		return nil, ErrTokenInvalid
	}

	if stored.Revoked {
		s.logger.Warn("refresh token reuse detected — revoking family",
			"user_id", stored.UserID,
			"family_id", stored.FamilyID,
		)
		if err := s.tokens.RevokeFamily(ctx, stored.FamilyID); err != nil {
			s.logger.Error("family revocation failed", "family_id", stored.FamilyID, "error", err)
		}
		return nil, ErrTokenInvalid
	}

	if time.Now().After(stored.ExpiresAt) {
		return nil, ErrTokenInvalid
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			s.logger.Error("user lookup failed during refresh", "error", err)
		}
		return nil, ErrTokenInvalid
	}
	if !user.IsActive {
		if err := s.tokens.RevokeFamily(ctx, stored.FamilyID); err != nil {
			s.logger.Error("family revocation failed", "family_id", stored.FamilyID, "error", err)
		}
		return nil, ErrTokenInvalid
	}

	result, err := s.rotatePair(ctx, user, stored)
	if err != nil {
		s.logger.Error("token rotation failed", "user_id", user.ID, "error", err)
		return nil, ErrTokenInvalid
	}
	return result, nil
}

// Logout revokes the refresh token family identified by the presented
// token. Best-effort: an invalid token is not an error — the session is
// gone either way.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if _, err := ParseRefreshToken(refreshToken, s.cfg.Secret); err != nil {
		return nil
	}

	stored, err := s.tokens.GetByTokenHash(ctx, HashToken(refreshToken))
	if err != nil {
		return nil
	}

	if err := s.tokens.RevokeFamily(ctx, stored.FamilyID); err != nil {
		return fmt.Errorf("revoking session: %w", err)
	}
	return nil
}

// issuePair signs a new access/refresh pair and stores the refresh token
// hash. An empty familyID starts a new session family.
func (s *Service) issuePair(ctx context.Context, user *User, familyID string) (*AuthResult, error) {
	access, err := GenerateAccessToken(user, s.cfg.Secret, s.cfg.AccessTTLMinutes)
	if err != nil {
		return nil, err
	}

	refresh, _, err := GenerateRefreshToken(user.ID, s.cfg.Secret, s.cfg.RefreshTTLMinutes)
	if err != nil {
		return nil, err
	}

	record := &RefreshToken{
		UserID:    user.ID,
		FamilyID:  familyID,
		TokenHash: HashToken(refresh),
		ExpiresAt: time.Now().Add(s.refreshTTL()),
	}
	if err := s.tokens.Create(ctx, record); err != nil {
		return nil, err
	}

	return &AuthResult{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

// rotatePair signs a new pair and atomically replaces the consumed refresh
// token within its family.
func (s *Service) rotatePair(ctx context.Context, user *User, consumed *RefreshToken) (*AuthResult, error) {
	access, err := GenerateAccessToken(user, s.cfg.Secret, s.cfg.AccessTTLMinutes)
	if err != nil {
		return nil, err
	}

	refresh, _, err := GenerateRefreshToken(user.ID, s.cfg.Secret, s.cfg.RefreshTTLMinutes)
	if err != nil {
		return nil, err
	}

	successor := &RefreshToken{
		UserID:    user.ID,
		FamilyID:  consumed.FamilyID,
		TokenHash: HashToken(refresh),
		ExpiresAt: time.Now().Add(s.refreshTTL()),
	}
	if err := s.tokens.Rotate(ctx, consumed.ID, successor); err != nil {
		return nil, err
	}

	return &AuthResult{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) refreshTTL() time.Duration {
	ttl := s.cfg.RefreshTTLMinutes
	if ttl <= 0 {
		ttl = defaultRefreshTTLMinutes
	}
	return time.Duration(ttl) * time.Minute
}

// recordLogin enqueues a best-effort last-login write. If the channel is
// full the entry is dropped and a warning is logged; the login proceeds.
func (s *Service) recordLogin(userID string) {
	select {
	case s.loginCh <- loginRecord{userID: userID, at: time.Now()}:
	default:
		s.logger.Warn("last-login channel full — dropping entry", "user_id", userID)
	}
}

// drainLogins reads queued last-login records and writes them serially.
// Serial writes are kinder to SQLite's single-writer model. It runs until
// the context is cancelled, then drains remaining entries.
func (s *Service) drainLogins(ctx context.Context) {
	for {
		select {
		case rec := <-s.loginCh:
			if err := s.users.RecordLogin(context.Background(), rec.userID, rec.at); err != nil {
				s.logger.Error("last-login write failed", "user_id", rec.userID, "error", err)
			}
		case <-ctx.Done():
			for {
				select {
				case rec := <-s.loginCh:
					if err := s.users.RecordLogin(context.Background(), rec.userID, rec.at); err != nil {
						s.logger.Error("last-login write failed during shutdown", "user_id", rec.userID, "error", err)
					}
				default:
					return
				}
			}
		}
	}
}

// reapLoop deletes expired refresh token rows periodically until the
// context is cancelled.
func (s *Service) reapLoop(ctx context.Context) {
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.tokens.DeleteExpired(ctx)
			if err != nil {
				s.logger.Error("expired token reap failed", "error", err)
				continue
			}
			if n > 0 {
				s.logger.Debug("expired refresh tokens reaped", "count", n)
			}
		}
	}
}
