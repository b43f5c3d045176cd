package service

import (
	"context"
	"time"

	"github.com/aussiebroadwan/codegrant/internal/auth/domain"
	"github.com/aussiebroadwan/codegrant/internal/auth/store"
	"github.com/aussiebroadwan/codegrant/internal/auth/telemetry"
	"github.com/aussiebroadwan/codegrant/pkg/cryptox"
	"github.com/aussiebroadwan/codegrant/pkg/slogx"
)

const (
	// DefaultCodeTTL is how long an issued code stays redeemable.
	DefaultCodeTTL = time.Hour

	// Redeemed codes have their expiry moved this far into the past.
	invalidationBackdate = time.Hour
)

// CodeStore mints and redeems single-use authorization codes. Codes are
// persisted by fingerprint only.
type CodeStore struct {
	Store   store.Store
	TTL     time.Duration
	Metrics *telemetry.Metrics

	// Now and Generate default to time.Now and 128-bit random tokens.
	Now      func() time.Time
	Generate func() (string, error)
}

func (s *CodeStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *CodeStore) generate() (string, error) {
	if s.Generate != nil {
		return s.Generate()
	}
	return cryptox.GenerateToken(cryptox.TokenSize128)
}

func (s *CodeStore) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultCodeTTL
}

// IssueCode binds tokenSet to a fresh code for clientID and redirectURI. A
// generated code that collides with an existing one is discarded and a new
// one is drawn until the insert succeeds or ctx is done.
func (s *CodeStore) IssueCode(ctx context.Context, clientID, redirectURI string, tokenSet []byte) (string, error) {
	const op = "codes.issue"
	log := slogx.FromContext(ctx)
	subject := subjectFromTokenSet(tokenSet)

	for {
		if err := ctx.Err(); err != nil {
			return "", fail(op, KindStoreError, err)
		}

		code, err := s.generate()
		if err != nil {
			log.Error("failed to generate authorization code", "error", err)
			return "", fail(op, KindStoreError, err)
		}

		now := s.now()
		record := domain.AuthorizationCode{
			CodeHash:    cryptox.FingerprintToken(code),
			ClientID:    clientID,
			RedirectURI: redirectURI,
			TokenSet:    tokenSet,
			Subject:     subject,
			ExpiresAt:   now.Add(s.ttl()),
			CreatedAt:   now,
		}

		err = s.Store.AuthorizationCodes().CreateAuthorizationCode(ctx, record)
		switch store.KindOf(err) {
		case store.KindUnknown:
			if err == nil {
				s.Metrics.CodeIssued()
				log.Info("authorization code issued",
					"client_id", clientID,
					"subject", subject,
					"code_fp", record.CodeHash[:8],
				)
				return code, nil
			}
		case store.KindAlreadyExists:
			s.Metrics.CodeCollision()
			log.Warn("authorization code collision, regenerating", "code_fp", record.CodeHash[:8])
			continue
		}

		log.Error("failed to store authorization code", "error", err)
		return "", fail(op, KindStoreError, err)
	}
}

// RedeemCode returns the token set bound to code and invalidates the code in
// the same store operation. Only one concurrent caller can succeed; the rest
// see KindCodeExpired.
func (s *CodeStore) RedeemCode(ctx context.Context, code string) ([]byte, error) {
	record, err := s.consume(ctx, "codes.redeem", code)
	s.observe(err)
	if err != nil {
		return nil, err
	}
	return record.TokenSet, nil
}

// RedeemCodeFor is RedeemCode for a caller that must match the client and
// redirect URI the code was issued to. The code is spent even when they do
// not match.
func (s *CodeStore) RedeemCodeFor(ctx context.Context, code, clientID, redirectURI string) ([]byte, error) {
	const op = "codes.redeem_for"

	record, err := s.consume(ctx, op, code)
	if err == nil && (record.ClientID != clientID || record.RedirectURI != redirectURI) {
		slogx.FromContext(ctx).Warn("authorization code presented by wrong client",
			"client_id", clientID,
			"issued_to", record.ClientID,
			"code_fp", record.CodeHash[:8],
		)
		err = fail(op, KindCodeBindingMismatch, nil)
	}
	s.observe(err)
	if err != nil {
		return nil, err
	}
	return record.TokenSet, nil
}

func (s *CodeStore) consume(ctx context.Context, op, code string) (domain.AuthorizationCode, error) {
	log := slogx.FromContext(ctx)
	if code == "" {
		return domain.AuthorizationCode{}, fail(op, KindCodeNotFound, nil)
	}

	hash := cryptox.FingerprintToken(code)
	now := s.now()

	record, err := s.Store.AuthorizationCodes().ConsumeAuthorizationCode(ctx, hash, now, now.Add(-invalidationBackdate))
	switch store.KindOf(err) {
	case store.KindUnknown:
		if err == nil {
			log.Info("authorization code redeemed",
				"client_id", record.ClientID,
				"subject", record.Subject,
				"code_fp", hash[:8],
			)
			return record, nil
		}
	case store.KindNotFound:
		log.Info("authorization code not found", "code_fp", hash[:8])
		return domain.AuthorizationCode{}, fail(op, KindCodeNotFound, nil)
	case store.KindConditionFailed:
		log.Info("authorization code expired or already used", "code_fp", hash[:8])
		return domain.AuthorizationCode{}, fail(op, KindCodeExpired, nil)
	}

	log.Error("failed to redeem authorization code", "code_fp", hash[:8], "error", err)
	return domain.AuthorizationCode{}, fail(op, KindStoreError, err)
}

func (s *CodeStore) observe(err error) {
	if err == nil {
		s.Metrics.CodeRedeemed(telemetry.OutcomeSuccess)
		return
	}
	s.Metrics.CodeRedeemed(KindOf(err).Code())
}
