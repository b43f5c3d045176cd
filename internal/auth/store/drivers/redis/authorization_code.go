package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/codegrant/internal/auth/domain"
	"github.com/aussiebroadwan/codegrant/internal/auth/store"
	goredis "github.com/redis/go-redis/v9"
)

const keyTypeCode = "code"

// Status values returned by the Lua scripts.
const (
	scriptNotFound int64 = iota
	scriptConditionFailed
	scriptOK
)

// insertCodeScript writes the code hash only if the key is absent, then sets
// the key lifetime in milliseconds.
var insertCodeScript = goredis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 1
end
redis.call('HSET', KEYS[1],
	'client_id', ARGV[1],
	'redirect_uri', ARGV[2],
	'token_set', ARGV[3],
	'subject', ARGV[4],
	'expires_at', ARGV[5],
	'created_at', ARGV[6])
redis.call('PEXPIRE', KEYS[1], ARGV[7])
return 2
`)

// consumeCodeScript backdates expires_at to ARGV[2] if the code is still
// valid at ARGV[1], and returns the status followed by the record fields.
var consumeCodeScript = goredis.NewScript(`
local exp = redis.call('HGET', KEYS[1], 'expires_at')
if not exp then
	return {0}
end
if tonumber(exp) <= tonumber(ARGV[1]) then
	return {1}
end
redis.call('HSET', KEYS[1], 'expires_at', ARGV[2])
local out = {2}
local fields = redis.call('HGETALL', KEYS[1])
for i = 1, #fields do
	out[#out + 1] = fields[i]
end
return out
`)

type authorizationCodesRepo struct {
	client    goredis.UniversalClient
	keyPrefix string
	retention time.Duration
}

func (r *authorizationCodesRepo) key(hash string) string {
	return redisKey(r.keyPrefix, keyTypeCode, hash)
}

func (r *authorizationCodesRepo) CreateAuthorizationCode(ctx context.Context, code domain.AuthorizationCode) error {
	lifetime := code.ExpiresAt.Sub(code.CreatedAt) + r.retention
	if lifetime < time.Second {
		lifetime = time.Second
	}

	status, err := insertCodeScript.Run(ctx, r.client, []string{r.key(code.CodeHash)},
		code.ClientID,
		code.RedirectURI,
		code.TokenSet,
		code.Subject,
		code.ExpiresAt.Unix(),
		code.CreatedAt.Unix(),
		lifetime.Milliseconds(),
	).Int64()
	if err != nil {
		return mapErr("authorization_codes.insert", err)
	}
	if status != scriptOK {
		return store.E("authorization_codes.insert", store.KindAlreadyExists, nil)
	}
	return nil
}

func (r *authorizationCodesRepo) GetAuthorizationCodeByHash(ctx context.Context, hash string) (domain.AuthorizationCode, error) {
	fields, err := r.client.HGetAll(ctx, r.key(hash)).Result()
	if err != nil {
		return domain.AuthorizationCode{}, mapErr("authorization_codes.get", err)
	}
	if len(fields) == 0 {
		return domain.AuthorizationCode{}, store.E("authorization_codes.get", store.KindNotFound, nil)
	}
	return codeFromFields(hash, fields), nil
}

func (r *authorizationCodesRepo) ConsumeAuthorizationCode(
	ctx context.Context,
	hash string,
	now, invalidatedAt time.Time,
) (domain.AuthorizationCode, error) {
	const op = "authorization_codes.consume"

	res, err := consumeCodeScript.Run(ctx, r.client, []string{r.key(hash)},
		now.Unix(),
		invalidatedAt.Unix(),
	).Slice()
	if err != nil {
		return domain.AuthorizationCode{}, mapErr(op, err)
	}
	if len(res) == 0 {
		return domain.AuthorizationCode{}, store.E(op, store.KindUnknown, fmt.Errorf("empty script reply"))
	}

	status, ok := res[0].(int64)
	if !ok {
		return domain.AuthorizationCode{}, store.E(op, store.KindUnknown, fmt.Errorf("unexpected script status %T", res[0]))
	}

	switch status {
	case scriptNotFound:
		return domain.AuthorizationCode{}, store.E(op, store.KindNotFound, nil)
	case scriptConditionFailed:
		return domain.AuthorizationCode{}, store.E(op, store.KindConditionFailed, nil)
	}

	fields := make(map[string]string, (len(res)-1)/2)
	for i := 1; i+1 < len(res); i += 2 {
		k, _ := res[i].(string)
		v, _ := res[i+1].(string)
		fields[k] = v
	}
	return codeFromFields(hash, fields), nil
}

// DeleteExpiredAuthorizationCodes is a no-op: code keys carry a TTL of their
// validity window plus the retention period and Redis evicts them itself.
func (r *authorizationCodesRepo) DeleteExpiredAuthorizationCodes(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func codeFromFields(hash string, fields map[string]string) domain.AuthorizationCode {
	return domain.AuthorizationCode{
		CodeHash:    hash,
		ClientID:    fields["client_id"],
		RedirectURI: fields["redirect_uri"],
		TokenSet:    []byte(fields["token_set"]),
		Subject:     fields["subject"],
		ExpiresAt:   parseUnix(fields["expires_at"]),
		CreatedAt:   parseUnix(fields["created_at"]),
	}
}
