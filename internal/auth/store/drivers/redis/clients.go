package redis

import (
	"context"
	"encoding/json"
	"slices"
	"strconv"
	"time"

	"github.com/aussiebroadwan/codegrant/internal/auth/domain"
	"github.com/aussiebroadwan/codegrant/internal/auth/store"
	goredis "github.com/redis/go-redis/v9"
)

const (
	keyTypeClient = "client"
	clientsSetKey = "clients"
)

type clientsRepo struct {
	client    goredis.UniversalClient
	keyPrefix string
}

func (r *clientsRepo) GetClientByID(ctx context.Context, id string) (domain.Client, error) {
	fields, err := r.client.HGetAll(ctx, redisKey(r.keyPrefix, keyTypeClient, id)).Result()
	if err != nil {
		return domain.Client{}, mapErr("clients.get", err)
	}
	if len(fields) == 0 {
		return domain.Client{}, store.E("clients.get", store.KindNotFound, nil)
	}

	c := domain.Client{
		ID:     id,
		Name:   fields["name"],
		Secret: fields["secret"],
	}
	if err := json.Unmarshal([]byte(fields["redirect_uris"]), &c.RedirectURIs); err != nil {
		return domain.Client{}, store.E("clients.get", store.KindUnknown, err)
	}
	c.CreatedAt = parseUnix(fields["created_at"])
	c.UpdatedAt = parseUnix(fields["updated_at"])
	return c, nil
}

func (r *clientsRepo) ListClients(ctx context.Context) ([]domain.Client, error) {
	ids, err := r.client.SMembers(ctx, r.keyPrefix+clientsSetKey).Result()
	if err != nil {
		return nil, mapErr("clients.list", err)
	}
	slices.Sort(ids)

	clients := make([]domain.Client, 0, len(ids))
	for _, id := range ids {
		c, err := r.GetClientByID(ctx, id)
		if store.KindOf(err) == store.KindNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
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

	key := redisKey(r.keyPrefix, keyTypeClient, c.ID)
	_, err = r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HSetNX(ctx, key, "created_at", createdAt)
		pipe.HSet(ctx, key,
			"name", c.Name,
			"secret", c.Secret,
			"redirect_uris", string(redirects),
			"updated_at", now,
		)
		pipe.SAdd(ctx, r.keyPrefix+clientsSetKey, c.ID)
		return nil
	})
	return mapErr("clients.upsert", err)
}

func (r *clientsRepo) DeleteClient(ctx context.Context, id string) error {
	var deleted *goredis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		deleted = pipe.Del(ctx, redisKey(r.keyPrefix, keyTypeClient, id))
		pipe.SRem(ctx, r.keyPrefix+clientsSetKey, id)
		return nil
	})
	if err != nil {
		return mapErr("clients.delete", err)
	}
	if deleted.Val() == 0 {
		return store.E("clients.delete", store.KindNotFound, nil)
	}
	return nil
}

func parseUnix(s string) time.Time {
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
