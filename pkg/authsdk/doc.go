/*
Package authsdk provides a client for the codegrant service.

# Overview

codegrant sits between an upstream identity provider and client
applications. It hands out short-lived, single-use authorization codes that
a client later redeems for the token set bound to them.

	client := authsdk.NewSDKClient("https://codegrant.example.com")

	// Authenticate the user upstream and receive a code.
	res, err := client.Authorize(ctx, authsdk.AuthorizeRequest{
		ClientID:     "web",
		RedirectURI:  "https://app.example.com/callback",
		ResponseType: "code",
		Username:     username,
		Password:     password,
		State:        state,
	})

	// Later, from the client's backend.
	tokens, err := client.ExchangeCode(ctx, authsdk.ExchangeCodeRequest{
		ClientID:     "web",
		ClientSecret: secret,
		Code:         res.Code,
		RedirectURI:  "https://app.example.com/callback",
		UseBasicAuth: true,
	})

Trusted services that already hold a token set can mint a code directly with
IssueCode, authenticating with the server's issuer token.

# Errors

Failed requests return an *OAuth2Error. Code carries the RFC 6749 error
family and Kind the service's finer-grained reason:

	var oerr *authsdk.OAuth2Error
	if errors.As(err, &oerr) && oerr.Kind == "code_expired" {
		// restart the flow
	}

errors.Is matches against the package's predefined errors by code, so
errors.Is(err, authsdk.ErrInvalidGrant) holds for every redemption failure.
*/
package authsdk
