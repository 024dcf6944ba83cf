package core

import (
	"fmt"
	"strings"
)

// AssetID names one asset. It is opaque to the registry and immutable once
// registered. Only the empty id is malformed.
type AssetID string

func (id AssetID) String() string { return string(id) }

// Principal is an opaque, comparable identity value. Two principals are the
// same owner only when they are exactly equal, whitespace included. A
// principal made only of whitespace is treated as absent.
type Principal string

func (p Principal) String() string { return string(p) }

func (p Principal) IsZero() bool { return strings.TrimSpace(string(p)) == "" }

// Asset is the registry record. Callers always receive a copy.
type Asset struct {
	ID    AssetID
	Owner Principal
}

func (a Asset) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("%w: asset id is required", ErrInvalidInput)
	}
	if a.Owner.IsZero() {
		return fmt.Errorf("%w: asset owner is required", ErrInvalidInput)
	}
	return nil
}

// OwnedBy reports whether principal is the recorded owner.
func (a Asset) OwnedBy(principal Principal) bool {
	return a.Owner == principal
}

func (a Asset) withOwner(owner Principal) Asset {
	a.Owner = owner
	return a
}

// validateAssetID returns id unchanged. maxLength 0 means unlimited.
func validateAssetID(id AssetID, maxLength int) (AssetID, error) {
	if id == "" {
		return "", fmt.Errorf("%w: asset id is required", ErrInvalidInput)
	}
	if maxLength > 0 && len(id) > maxLength {
		return "", fmt.Errorf("%w: asset id exceeds %d bytes", ErrInvalidInput, maxLength)
	}
	return id, nil
}

func validatePrincipal(field string, principal Principal) (Principal, error) {
	if principal.IsZero() {
		return "", fmt.Errorf("%w: %s principal is required", ErrInvalidInput, field)
	}
	return principal, nil
}
