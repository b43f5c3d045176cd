package httpx_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aussiebroadwan/codegrant/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), mark("outer"), mark("inner"))

	serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestRequireBearerToken(t *testing.T) {
	h := httpx.RequireBearerToken("issuer-token")(okHandler)

	withAuth := func(v string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if v != "" {
			req.Header.Set("Authorization", v)
		}
		return req
	}

	require.Equal(t, http.StatusOK, serve(h, withAuth("Bearer issuer-token")).Code)
	require.Equal(t, http.StatusOK, serve(h, withAuth("bearer issuer-token")).Code)

	for _, v := range []string{"", "Bearer", "Bearer wrong", "Basic aXNzdWVyLXRva2Vu"} {
		rec := serve(h, withAuth(v))
		require.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", v)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), `error="invalid_token"`)
	}

	t.Run("empty configured token rejects all", func(t *testing.T) {
		h := httpx.RequireBearerToken("")(okHandler)
		require.Equal(t, http.StatusUnauthorized, serve(h, withAuth("Bearer ")).Code)
		require.Equal(t, http.StatusUnauthorized, serve(h, withAuth("Bearer anything")).Code)
	})
}

func TestLimitBody(t *testing.T) {
	h := httpx.LimitBody(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	require.Equal(t, http.StatusOK, serve(h, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("abcd"))).Code)
	require.Equal(t, http.StatusRequestEntityTooLarge, serve(h, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("abcde"))).Code)
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		ClientID string `json:"client_id"`
	}

	decode := func(ct, payload string) (body, error) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
		if ct != "" {
			req.Header.Set("Content-Type", ct)
		}
		var b body
		err := httpx.DecodeJSON(req, &b)
		return b, err
	}

	b, err := decode("application/json; charset=utf-8", `{"client_id":"web"}`)
	require.NoError(t, err)
	require.Equal(t, "web", b.ClientID)

	_, err = decode("", `{"client_id":"web"}`)
	require.NoError(t, err)

	_, err = decode("text/plain", `{"client_id":"web"}`)
	require.Error(t, err)

	_, err = decode("application/json", `{"client_id":"web","extra":1}`)
	require.Error(t, err)

	_, err = decode("application/json", `{"client_id":"web"}{}`)
	require.Error(t, err)
}
