// Copyright (C) 2026 StoryKid
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation provides input validation utilities for security-critical operations.
//
// This package contains validators for user-provided inputs that end up in
// on-chain calls or database queries. Using these validators prevents
// malformed recipients from reaching the minting relay and injection via
// token-id path parameters.
package validation

import (
	"fmt"
	"regexp"
	"strconv"
)

// addressPattern matches a 20-byte hex Ethereum address with 0x prefix.
var addressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// ValidateAddress validates an Ethereum recipient address.
//
// Valid addresses are exactly "0x" followed by 40 hex characters.
// Checksum casing is not enforced; the relay accepts either form.
//
// Returns an error if the address is invalid.
//
// Example:
//
//	if err := validation.ValidateAddress(req.To); err != nil {
//	    return err
//	}
func ValidateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("address is empty")
	}
	if !addressPattern.MatchString(address) {
		return fmt.Errorf("invalid Ethereum address format: %q", address)
	}
	return nil
}

// ValidateTokenID validates a token id path parameter.
//
// Token ids are non-negative integers rendered as decimal strings.
// Returns the parsed id, or an error if the input is not a valid id.
func ValidateTokenID(raw string) (uint64, error) {
	if raw == "" {
		return 0, fmt.Errorf("token id is empty")
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid token id %q: %w", raw, err)
	}
	return id, nil
}
