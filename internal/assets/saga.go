// Package assets coordinates writes that span external object storage and
// the primary record store. The two cannot be made atomic, so every
// operation runs as a forward sequence of phases that accumulates undo
// actions, executed in reverse when a later phase fails.
package assets

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
)

var (
	// ErrUploadFailed indicates phase 1 failed; no primary-store call was
	// made and any objects uploaded within the call were deleted again.
	ErrUploadFailed = errors.New("asset upload failed")
	// ErrPersistenceFailed indicates phase 2 failed; every object uploaded
	// within the call was deleted again.
	ErrPersistenceFailed = errors.New("record persistence failed")
)

// ObjectStore is the gateway to external binary storage.
type ObjectStore interface {
	Upload(ctx context.Context, localPath, folder string) (models.AssetRef, error)
	Delete(ctx context.Context, key string) error
}

// Upload describes one binary payload within a saga call. Slot names the
// field on the owning record the result will be stored under. Previous, when
// set, marks this as a replace: the superseded object is deleted after the
// record commit succeeds.
type Upload struct {
	Slot      string
	LocalPath string
	Folder    string
	Previous  models.AssetRef
}

// Executor runs the upload-then-persist saga.
type Executor struct {
	store ObjectStore
}

// NewExecutor constructs a saga executor over the given object store.
func NewExecutor(store ObjectStore) *Executor {
	if store == nil {
		panic("assets: object store must not be nil")
	}
	return &Executor{store: store}
}

// Run executes the saga:
//
//	phase 1: upload every payload; on failure delete the ones already
//	         uploaded in this call and fail with ErrUploadFailed.
//	phase 2: call persist with the uploaded references; on failure delete
//	         every object uploaded in this call and fail with
//	         ErrPersistenceFailed.
//	phase 3: for replaces, delete the superseded objects. Failures here are
//	         logged and swallowed: the record already points at the new
//	         objects, and an unreferenced stale object is acceptable debt.
//
// Staged local files are removed on every exit path, success or failure.
// The invariant preserved throughout: a committed record never references a
// missing object, and no object uploaded here outlives a failed call.
func (e *Executor) Run(ctx context.Context, uploads []Upload, persist func(ctx context.Context, refs map[string]models.AssetRef) error) (map[string]models.AssetRef, error) {
	ctx, span := logging.StartSpan(ctx, "assets.run")
	defer span.End()

	logger := logging.FromContext(ctx)

	defer func() {
		for _, u := range uploads {
			if u.LocalPath == "" {
				continue
			}
			if err := os.Remove(u.LocalPath); err != nil && !errors.Is(err, os.ErrNotExist) {
				logger.Warn("remove staged file", "path", u.LocalPath, "error", err)
			}
		}
	}()

	for i, u := range uploads {
		if u.Slot == "" || u.LocalPath == "" {
			return nil, fmt.Errorf("upload %d: slot and local path are required", i)
		}
	}

	refs := make(map[string]models.AssetRef, len(uploads))
	var undo []func(context.Context)

	compensate := func() {
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i](ctx)
		}
	}

	for _, u := range uploads {
		ref, err := e.store.Upload(ctx, u.LocalPath, u.Folder)
		if err != nil {
			logger.Error("asset upload failed", "slot", u.Slot, "error", err)
			compensate()
			return nil, fmt.Errorf("%w: %s: %v", ErrUploadFailed, u.Slot, err)
		}

		refs[u.Slot] = ref
		key := ref.Key
		undo = append(undo, func(ctx context.Context) {
			if err := e.store.Delete(ctx, key); err != nil {
				logger.Error("compensating delete failed, object orphaned", "key", key, "error", err)
			}
		})
	}

	if err := persist(ctx, refs); err != nil {
		logger.Error("record persistence failed, rolling back uploads", "error", err)
		compensate()
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	// The record is committed; superseded objects are no longer referenced
	// by anything and may be deleted without risk.
	for _, u := range uploads {
		if u.Previous.IsZero() {
			continue
		}
		if err := e.store.Delete(ctx, u.Previous.Key); err != nil {
			logger.Warn("delete superseded object", "key", u.Previous.Key, "error", err)
		}
	}

	return refs, nil
}
