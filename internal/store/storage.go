// Package store persists the stock collection and implements add and
// bulk refresh on top of a pluggable Storage backend.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/seenimoa/stocker/pkg/models"
)

// Collection is the persisted list of records in document order.
type Collection []models.StockRecord

// ErrNotFound is returned by Storage.Read when nothing has been stored yet.
var ErrNotFound = errors.New("collection not found")

// Storage reads and writes the whole collection.
type Storage interface {
	Read(ctx context.Context) (Collection, error)
	Write(ctx context.Context, c Collection) error
}

// StorageReadError reports stored contents that could not be parsed.
type StorageReadError struct {
	Path string
	Err  error
}

func (e *StorageReadError) Error() string {
	return fmt.Sprintf("read collection %s: %v", e.Path, e.Err)
}

func (e *StorageReadError) Unwrap() error { return e.Err }

// StorageWriteError reports a failed write.
type StorageWriteError struct {
	Path string
	Err  error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("write collection %s: %v", e.Path, e.Err)
}

func (e *StorageWriteError) Unwrap() error { return e.Err }
