// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package extensions

// ServiceOptions groups all extension points for service configuration.
//
// Pass this to service constructors to enable hosted features.
// All fields are optional; nil values are replaced with no-op defaults
// when DefaultOptions() is called.
//
// Example:
//
//	// Open source: use defaults
//	opts := extensions.DefaultOptions()
//
//	// Hosted: inject implementations
//	opts := extensions.ServiceOptions{
//	    IdentityProvider: jwksProvider,
//	}
type ServiceOptions struct {
	// IdentityProvider validates bearer credentials.
	// Default: NopIdentityProvider (always returns the local operator)
	IdentityProvider IdentityProvider
}

// DefaultOptions returns ServiceOptions with no-op defaults.
//
// This is the configuration used by the open source version: every
// request resolves to a single local operator identity.
func DefaultOptions() ServiceOptions {
	return ServiceOptions{
		IdentityProvider: &NopIdentityProvider{},
	}
}
