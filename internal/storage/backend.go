package storage

import (
	"errors"
	"fmt"

	"github.com/iammorganparry/feel/internal/apperr"
)

// Backend is a key/value record store with a bounded capacity.
type Backend interface {
	// Get returns the value under key. ok is false when nothing is stored.
	Get(key string) (value string, ok bool, err error)
	// Set writes value under key. It returns an error satisfying
	// errors.Is(err, ErrQuotaExceeded) when the write would exceed capacity.
	Set(key, value string) error
	Delete(key string) error
}

// ErrQuotaExceeded marks writes rejected for capacity.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

func quotaError(need, limit int) error {
	return apperr.Wrap(apperr.StorageQuota, ErrQuotaExceeded,
		fmt.Sprintf("write of %d bytes exceeds quota of %d bytes", need, limit), "")
}

// IsQuotaExceeded reports whether err is a capacity failure.
func IsQuotaExceeded(err error) bool {
	return errors.Is(err, ErrQuotaExceeded) || apperr.Is(err, apperr.StorageQuota)
}
