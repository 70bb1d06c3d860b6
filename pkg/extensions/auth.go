// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package extensions defines the pluggable identity surface of Mission
// Control. The open source build ships Nop implementations that admit a
// single local user; hosted deployments swap in real providers that
// validate JWTs against an identity provider's JWKS endpoint.
package extensions

import (
	"context"
	"errors"
)

// ErrUnauthorized is returned when authentication or authorization fails.
// Implementations should wrap this error with additional context.
//
// Example:
//
//	if !validToken {
//	    return nil, fmt.Errorf("invalid token format: %w", extensions.ErrUnauthorized)
//	}
var ErrUnauthorized = errors.New("unauthorized")

// Identity contains the claims resolved from a validated credential.
//
// Required fields (always populated):
//   - Subject: the identity provider's stable subject claim
//
// Optional fields (may be empty):
//   - Email, Name: profile claims when the provider supplies them
type Identity struct {
	// Subject is the identity provider's stable subject claim. This is
	// the only required field and must never be empty; user rows are
	// keyed on it.
	Subject string

	// Email is the user's email address, when the provider supplies it.
	Email string

	// Name is the user's display name, when the provider supplies it.
	Name string
}

// IdentityProvider validates bearer credentials and returns the caller's
// identity.
//
// Implementations must be safe for concurrent use by multiple
// goroutines.
//
// # Open Source Behavior
//
// The default NopIdentityProvider admits every request as a fixed local
// subject, so a single-operator deployment needs no identity
// infrastructure.
//
// # Hosted Implementation
//
// Hosted deployments validate JWTs against the provider's JWKS keys:
//
//	type JWKSProvider struct {
//	    keys *keyfunc.JWKS
//	}
//
//	func (p *JWKSProvider) Validate(ctx context.Context, token string) (*Identity, error) {
//	    claims, err := p.verify(ctx, token)
//	    if err != nil {
//	        return nil, fmt.Errorf("jwt validation failed: %w", ErrUnauthorized)
//	    }
//	    return &Identity{Subject: claims.Subject, Email: claims.Email, Name: claims.Name}, nil
//	}
type IdentityProvider interface {
	// Validate checks the credential and returns the caller's identity.
	// Returns ErrUnauthorized (or a wrap of it) when the credential is
	// invalid.
	Validate(ctx context.Context, token string) (*Identity, error)
}

// NopIdentityProvider is the default provider for open source builds.
// Any credential, including none, resolves to the same local subject.
//
// Thread-safe: this implementation has no mutable state.
type NopIdentityProvider struct{}

// Validate always returns the fixed local identity.
func (p *NopIdentityProvider) Validate(_ context.Context, _ string) (*Identity, error) {
	return &Identity{
		Subject: "local|operator",
		Email:   "operator@localhost",
		Name:    "Local Operator",
	}, nil
}

// Compile-time interface compliance check.
var _ IdentityProvider = (*NopIdentityProvider)(nil)
