package core

import (
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorAlreadyRegistered = "OWNERSHIP_ALREADY_REGISTERED"
	ErrorNotFound          = "OWNERSHIP_NOT_FOUND"
	ErrorNotAuthorized     = "OWNERSHIP_NOT_AUTHORIZED"
	ErrorStoreUnavailable  = "OWNERSHIP_STORE_UNAVAILABLE"
	ErrorLockUnavailable   = "OWNERSHIP_LOCK_UNAVAILABLE"
	ErrorUnauthenticated   = "OWNERSHIP_UNAUTHENTICATED"
	ErrorBadInput          = "OWNERSHIP_BAD_INPUT"
	ErrorIDSpaceExhausted  = "OWNERSHIP_ID_SPACE_EXHAUSTED"
	ErrorListUnsupported   = "OWNERSHIP_LIST_UNSUPPORTED"
	ErrorInternal          = "OWNERSHIP_INTERNAL_ERROR"
)

var (
	ErrAlreadyRegistered = errors.New("core: asset already registered")
	ErrNotFound          = errors.New("core: asset not registered")
	ErrNotAuthorized     = errors.New("core: caller is not the asset owner")
	ErrStoreUnavailable  = errors.New("core: asset store unavailable")
	ErrLockUnavailable   = errors.New("core: asset lock not acquired")
	ErrUnauthenticated   = errors.New("core: caller identity not verified")
	ErrInvalidInput      = errors.New("core: invalid input")
	ErrIDSpaceExhausted  = errors.New("core: no free asset id found")
	ErrListUnsupported   = errors.New("core: asset store cannot list by owner")
)

type AlreadyRegisteredError struct {
	AssetID AssetID
}

func (e *AlreadyRegisteredError) Error() string {
	return ErrAlreadyRegistered.Error() + ": " + string(e.assetID())
}

func (e *AlreadyRegisteredError) Unwrap() error { return ErrAlreadyRegistered }

func (e *AlreadyRegisteredError) ToServiceError() *goerrors.Error {
	return newOwnershipError(e.Error(), goerrors.CategoryConflict, ErrorAlreadyRegistered).
		WithMetadata(map[string]any{"asset_id": string(e.assetID())})
}

func (e *AlreadyRegisteredError) assetID() AssetID {
	if e == nil {
		return ""
	}
	return e.AssetID
}

type NotFoundError struct {
	AssetID AssetID
}

func (e *NotFoundError) Error() string {
	return ErrNotFound.Error() + ": " + string(e.assetID())
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func (e *NotFoundError) ToServiceError() *goerrors.Error {
	return newOwnershipError(e.Error(), goerrors.CategoryNotFound, ErrorNotFound).
		WithMetadata(map[string]any{"asset_id": string(e.assetID())})
}

func (e *NotFoundError) assetID() AssetID {
	if e == nil {
		return ""
	}
	return e.AssetID
}

// NotAuthorizedError rejects a transfer whose from principal is not the
// recorded owner. The owner itself is not echoed back to the caller.
type NotAuthorizedError struct {
	AssetID AssetID
	Caller  Principal
}

func (e *NotAuthorizedError) Error() string {
	if e == nil {
		return ErrNotAuthorized.Error()
	}
	return ErrNotAuthorized.Error() + ": " + string(e.AssetID)
}

func (e *NotAuthorizedError) Unwrap() error { return ErrNotAuthorized }

func (e *NotAuthorizedError) ToServiceError() *goerrors.Error {
	metadata := map[string]any{}
	if e != nil {
		metadata["asset_id"] = string(e.AssetID)
		metadata["caller"] = string(e.Caller)
	}
	return newOwnershipError(e.Error(), goerrors.CategoryAuthz, ErrorNotAuthorized).
		WithMetadata(metadata)
}

// StoreUnavailableError carries a store-layer failure. Callers may retry.
type StoreUnavailableError struct {
	Operation string
	AssetID   AssetID
	Cause     error
}

func (e *StoreUnavailableError) Error() string {
	if e == nil {
		return ErrStoreUnavailable.Error()
	}
	msg := ErrStoreUnavailable.Error()
	if e.Operation != "" {
		msg += " during " + e.Operation
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *StoreUnavailableError) Unwrap() error {
	if e == nil || e.Cause == nil {
		return ErrStoreUnavailable
	}
	return errors.Join(ErrStoreUnavailable, e.Cause)
}

func (e *StoreUnavailableError) ToServiceError() *goerrors.Error {
	metadata := map[string]any{}
	if e != nil {
		metadata["operation"] = e.Operation
		metadata["asset_id"] = string(e.AssetID)
	}
	return newOwnershipError(e.Error(), goerrors.CategoryExternal, ErrorStoreUnavailable).
		WithCode(http.StatusServiceUnavailable).
		WithMetadata(metadata)
}

// LockUnavailableError reports that the per-id lock was not acquired, usually
// because ctx ended while another operation held it. Nothing was written.
type LockUnavailableError struct {
	AssetID AssetID
	Cause   error
}

func (e *LockUnavailableError) Error() string {
	if e == nil || e.Cause == nil {
		return ErrLockUnavailable.Error()
	}
	return ErrLockUnavailable.Error() + ": " + e.Cause.Error()
}

func (e *LockUnavailableError) Unwrap() error {
	if e == nil || e.Cause == nil {
		return ErrLockUnavailable
	}
	return errors.Join(ErrLockUnavailable, e.Cause)
}

func (e *LockUnavailableError) ToServiceError() *goerrors.Error {
	metadata := map[string]any{}
	if e != nil {
		metadata["asset_id"] = string(e.AssetID)
	}
	return newOwnershipError(e.Error(), goerrors.CategoryExternal, ErrorLockUnavailable).
		WithCode(http.StatusServiceUnavailable).
		WithMetadata(metadata)
}

type UnauthenticatedError struct {
	Claimed Principal
	Cause   error
}

func (e *UnauthenticatedError) Error() string {
	if e == nil || e.Cause == nil {
		return ErrUnauthenticated.Error()
	}
	return ErrUnauthenticated.Error() + ": " + e.Cause.Error()
}

func (e *UnauthenticatedError) Unwrap() error {
	if e == nil || e.Cause == nil {
		return ErrUnauthenticated
	}
	return errors.Join(ErrUnauthenticated, e.Cause)
}

func (e *UnauthenticatedError) ToServiceError() *goerrors.Error {
	return newOwnershipError(e.Error(), goerrors.CategoryAuth, ErrorUnauthenticated)
}

func storeUnavailable(operation string, id AssetID, cause error) error {
	return &StoreUnavailableError{Operation: operation, AssetID: id, Cause: cause}
}

func IsAlreadyRegistered(err error) bool { return errors.Is(err, ErrAlreadyRegistered) }

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func IsNotAuthorized(err error) bool { return errors.Is(err, ErrNotAuthorized) }

func IsStoreUnavailable(err error) bool { return errors.Is(err, ErrStoreUnavailable) }

func IsLockUnavailable(err error) bool { return errors.Is(err, ErrLockUnavailable) }

type serviceErrorConverter interface {
	ToServiceError() *goerrors.Error
}

// MapError converts any registry error into a go-errors envelope with a
// stable text code and HTTP status.
func MapError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var converter serviceErrorConverter
	if errors.As(err, &converter) {
		return converter.ToServiceError()
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureOwnershipErrorEnvelope(richErr)
	}

	switch {
	case errors.Is(err, ErrInvalidInput):
		return newOwnershipError(err.Error(), goerrors.CategoryBadInput, ErrorBadInput)
	case errors.Is(err, ErrIDSpaceExhausted):
		return newOwnershipError(err.Error(), goerrors.CategoryConflict, ErrorIDSpaceExhausted)
	case errors.Is(err, ErrListUnsupported):
		return newOwnershipError(err.Error(), goerrors.CategoryOperation, ErrorListUnsupported).
			WithCode(http.StatusNotImplemented)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	if strings.Contains(msg, "required") || strings.Contains(msg, "invalid") {
		return newOwnershipError(err.Error(), goerrors.CategoryBadInput, ErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureOwnershipErrorEnvelope(mapped)
}

func newOwnershipError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureOwnershipErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureOwnershipErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = ownershipHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultOwnershipTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultOwnershipTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ErrorBadInput
	case goerrors.CategoryNotFound:
		return ErrorNotFound
	case goerrors.CategoryAuth:
		return ErrorUnauthenticated
	case goerrors.CategoryAuthz:
		return ErrorNotAuthorized
	case goerrors.CategoryConflict:
		return ErrorAlreadyRegistered
	case goerrors.CategoryExternal:
		return ErrorStoreUnavailable
	default:
		return ErrorInternal
	}
}

func ownershipHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryExternal:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
