package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/codegrant/pkg/cryptox"
	"github.com/aussiebroadwan/codegrant/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestHousekeepingSweep(t *testing.T) {
	ctx := context.Background()
	s := seededSQLiteStore(t)
	clk := newClock()
	codes := &CodeStore{Store: s, Now: clk.Now}

	redeemed, err := codes.IssueCode(ctx, webClientID, webRedirect, []byte(testTokenSet))
	require.NoError(t, err)
	_, err = codes.RedeemCode(ctx, redeemed)
	require.NoError(t, err)

	live, err := codes.IssueCode(ctx, webClientID, webRedirect, []byte(testTokenSet))
	require.NoError(t, err)

	hk := NewHousekeepingService(s, slogx.Discard(), time.Hour, 2*time.Hour)
	hk.Now = clk.Now

	// The redeemed code expired an hour ago, inside the retention window.
	n, err := hk.Sweep(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	clk.Advance(90 * time.Minute)
	n, err = hk.Sweep(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, err = s.AuthorizationCodes().GetAuthorizationCodeByHash(ctx, cryptox.FingerprintToken(redeemed))
	require.Error(t, err)
	_, err = s.AuthorizationCodes().GetAuthorizationCodeByHash(ctx, cryptox.FingerprintToken(live))
	require.NoError(t, err)
}

func TestHousekeepingStartStop(t *testing.T) {
	hk := NewHousekeepingService(seededStore(t), slogx.Discard(), 0, 0)
	require.Equal(t, time.Hour, hk.Interval)
	require.Equal(t, DefaultCodeRetention, hk.Retention)

	hk.Start()
	hk.Stop()
}
