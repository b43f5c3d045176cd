package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/aussiebroadwan/codegrant/internal/auth/domain"
	"github.com/aussiebroadwan/codegrant/internal/auth/store"
)

type clientsRepo struct {
	db *sql.DB
}

const clientColumns = `id, name, secret, redirect_uris, created_at, updated_at`

func (r *clientsRepo) GetClientByID(ctx context.Context, id string) (domain.Client, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, id)
	c, err := scanClient(row)
	if err != nil {
		return domain.Client{}, mapErr("clients.get", err)
	}
	return c, nil
}

func (r *clientsRepo) ListClients(ctx context.Context) ([]domain.Client, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY id`)
	if err != nil {
		return nil, mapErr("clients.list", err)
	}
	defer rows.Close()

	var clients []domain.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, mapErr("clients.list", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("clients.list", err)
	}
	return clients, nil
}

func (r *clientsRepo) UpsertClient(ctx context.Context, c domain.Client) error {
	redirects, err := json.Marshal(c.RedirectURIs)
	if err != nil {
		return store.E("clients.upsert", store.KindUnknown, err)
	}

	now := time.Now().Unix()
	createdAt := now
	if !c.CreatedAt.IsZero() {
		createdAt = c.CreatedAt.Unix()
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO clients (id, name, secret, redirect_uris, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			secret = excluded.secret,
			redirect_uris = excluded.redirect_uris,
			updated_at = excluded.updated_at`,
		c.ID, c.Name, mapStringNull(c.Secret), string(redirects), createdAt, now,
	)
	return mapErr("clients.upsert", err)
}

func (r *clientsRepo) DeleteClient(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return mapErr("clients.delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapErr("clients.delete", err)
	}
	if n == 0 {
		return store.E("clients.delete", store.KindNotFound, nil)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClient(s scanner) (domain.Client, error) {
	var (
		c                    domain.Client
		secret               sql.NullString
		redirects            string
		createdAt, updatedAt int64
	)
	if err := s.Scan(&c.ID, &c.Name, &secret, &redirects, &createdAt, &updatedAt); err != nil {
		return domain.Client{}, err
	}
	if err := json.Unmarshal([]byte(redirects), &c.RedirectURIs); err != nil {
		return domain.Client{}, err
	}
	c.Secret = mapNullString(secret)
	c.CreatedAt = unixTime(createdAt)
	c.UpdatedAt = unixTime(updatedAt)
	return c, nil
}
