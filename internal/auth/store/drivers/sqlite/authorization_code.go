package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/aussiebroadwan/codegrant/internal/auth/domain"
	"github.com/aussiebroadwan/codegrant/internal/auth/store"
)

type authorizationCodesRepo struct {
	db *sql.DB
}

const codeColumns = `code_hash, client_id, redirect_uri, token_set, subject, expires_at, created_at`

func (r *authorizationCodesRepo) CreateAuthorizationCode(ctx context.Context, code domain.AuthorizationCode) error {
	tokenSet := code.TokenSet
	if tokenSet == nil {
		tokenSet = []byte{}
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO authorization_codes (`+codeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (code_hash) DO NOTHING`,
		code.CodeHash,
		code.ClientID,
		code.RedirectURI,
		tokenSet,
		code.Subject,
		code.ExpiresAt.Unix(),
		code.CreatedAt.Unix(),
	)
	if err != nil {
		return mapErr("authorization_codes.insert", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return mapErr("authorization_codes.insert", err)
	}
	if n == 0 {
		return store.E("authorization_codes.insert", store.KindAlreadyExists, nil)
	}
	return nil
}

func (r *authorizationCodesRepo) GetAuthorizationCodeByHash(ctx context.Context, hash string) (domain.AuthorizationCode, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+codeColumns+` FROM authorization_codes WHERE code_hash = ?`, hash)
	code, err := scanAuthorizationCode(row)
	if err != nil {
		return domain.AuthorizationCode{}, mapErr("authorization_codes.get", err)
	}
	return code, nil
}

func (r *authorizationCodesRepo) ConsumeAuthorizationCode(
	ctx context.Context,
	hash string,
	now, invalidatedAt time.Time,
) (domain.AuthorizationCode, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE authorization_codes
		SET expires_at = ?
		WHERE code_hash = ? AND expires_at > ?
		RETURNING `+codeColumns,
		invalidatedAt.Unix(), hash, now.Unix(),
	)

	code, err := scanAuthorizationCode(row)
	if err == nil {
		return code, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.AuthorizationCode{}, mapErr("authorization_codes.consume", err)
	}

	// Nothing was updated: tell a missing code apart from a spent one.
	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM authorization_codes WHERE code_hash = ?`, hash).Scan(&exists)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return domain.AuthorizationCode{}, store.E("authorization_codes.consume", store.KindNotFound, nil)
	case err != nil:
		return domain.AuthorizationCode{}, mapErr("authorization_codes.consume", err)
	default:
		return domain.AuthorizationCode{}, store.E("authorization_codes.consume", store.KindConditionFailed, nil)
	}
}

func (r *authorizationCodesRepo) DeleteExpiredAuthorizationCodes(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM authorization_codes WHERE expires_at <= ?`, before.Unix())
	if err != nil {
		return 0, mapErr("authorization_codes.delete_expired", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, mapErr("authorization_codes.delete_expired", err)
	}
	return n, nil
}

func scanAuthorizationCode(s scanner) (domain.AuthorizationCode, error) {
	var (
		c                    domain.AuthorizationCode
		expiresAt, createdAt int64
	)
	err := s.Scan(&c.CodeHash, &c.ClientID, &c.RedirectURI, &c.TokenSet, &c.Subject, &expiresAt, &createdAt)
	if err != nil {
		return domain.AuthorizationCode{}, err
	}
	c.ExpiresAt = unixTime(expiresAt)
	c.CreatedAt = unixTime(createdAt)
	return c, nil
}
