// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package store

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/atomic"

	"github.com/tochemey/catalogsync/catalog"
	gerrors "github.com/tochemey/catalogsync/errors"
	"github.com/tochemey/catalogsync/internal/codec"
)

const (
	boltFileMode       os.FileMode = 0o600
	boltDefaultsBucket             = "defaults"
	defaultWorkspaceID             = "workspace"
	defaultNamespaceID             = "namespace"
	defaultStorePrefix             = "datastore/"
)

var boltTimeout = 5 * time.Second

// Bolt is a durable Store backed by go.etcd.io/bbolt.
//
// Each kind lives in its own bucket keyed by entity id. Default references
// live in a dedicated bucket as encoded identities. bbolt provides
// single-writer/multi-reader semantics, so the store only guards its close state.
type Bolt struct {
	db     *bbolt.DB
	path   string
	codec  *codec.Codec
	closed *atomic.Bool
}

var _ Store = (*Bolt)(nil)

// OpenBolt opens (or creates) the store at the given path
func OpenBolt(path string) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store: unable to create directory: %w", err)
	}

	db, err := bbolt.Open(path, boltFileMode, &bbolt.Options{Timeout: boltTimeout})
	if err != nil {
		return nil, fmt.Errorf("store: opening boltdb: %w", err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(boltDefaultsBucket)); err != nil {
			return err
		}
		for _, kind := range catalog.Kinds() {
			if _, err := tx.CreateBucketIfNotExists([]byte(kind.String())); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: initializing boltdb buckets: %w", err)
	}

	return &Bolt{
		db:     db,
		path:   path,
		codec:  codec.New(),
		closed: atomic.NewBool(false),
	}, nil
}

// Path returns the database file path
func (s *Bolt) Path() string {
	return s.path
}

// Get returns the entity of the given kind and id
func (s *Bolt) Get(ctx context.Context, kind catalog.Kind, id string) (*catalog.Info, error) {
	if err := s.ensureOpen(ctx); err != nil {
		return nil, err
	}

	var info *catalog.Info
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		info, err = s.get(tx, catalog.Identity{Kind: kind, ID: id})
		return err
	})
	return info, err
}

// ByName returns the first entity of the given kind with the given name
func (s *Bolt) ByName(ctx context.Context, kind catalog.Kind, name string) (*catalog.Info, error) {
	infos, err := s.List(ctx, kind)
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		if info.Name() == name {
			return info, nil
		}
	}
	return nil, fmt.Errorf("%w: %s named %q", gerrors.ErrEntityNotFound, kind, name)
}

// List returns the entities of the given kind ordered by id
func (s *Bolt) List(ctx context.Context, kind catalog.Kind) ([]*catalog.Info, error) {
	if err := s.ensureOpen(ctx); err != nil {
		return nil, err
	}

	var infos []*catalog.Info
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket, err := kindBucket(tx, kind)
		if err != nil {
			return err
		}
		// bbolt iterates keys in byte order
		return bucket.ForEach(func(key, _ []byte) error {
			info, err := s.get(tx, catalog.Identity{Kind: kind, ID: string(key)})
			if err != nil {
				return err
			}
			infos = append(infos, info)
			return nil
		})
	})
	return infos, err
}

// Add stores the entity, overwriting an existing one
func (s *Bolt) Add(ctx context.Context, info *catalog.Info) error {
	if err := s.ensureOpen(ctx); err != nil {
		return err
	}
	if err := validate(info); err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := checkRefs(info, func(identity catalog.Identity) bool { return exists(tx, identity) }); err != nil {
			return err
		}
		return s.put(tx, info)
	})
}

// Remove deletes the entity and returns it
func (s *Bolt) Remove(ctx context.Context, kind catalog.Kind, id string) (*catalog.Info, error) {
	if err := s.ensureOpen(ctx); err != nil {
		return nil, err
	}

	var info *catalog.Info
	err := s.db.Update(func(tx *bbolt.Tx) error {
		var err error
		if info, err = s.get(tx, catalog.Identity{Kind: kind, ID: id}); err != nil {
			return err
		}
		bucket, err := kindBucket(tx, kind)
		if err != nil {
			return err
		}
		return bucket.Delete([]byte(id))
	})
	return info, err
}

// ApplyPatch applies the patch to the stored entity
func (s *Bolt) ApplyPatch(ctx context.Context, kind catalog.Kind, id string, patch *catalog.Patch) (*catalog.Info, error) {
	if err := s.ensureOpen(ctx); err != nil {
		return nil, err
	}

	var info *catalog.Info
	err := s.db.Update(func(tx *bbolt.Tx) error {
		stored, err := s.raw(tx, catalog.Identity{Kind: kind, ID: id})
		if err != nil {
			return err
		}
		if err := patch.Apply(stored); err != nil {
			return err
		}
		if err := checkRefs(stored, func(identity catalog.Identity) bool { return exists(tx, identity) }); err != nil {
			return err
		}
		if err := s.put(tx, stored); err != nil {
			return err
		}
		info, err = s.get(tx, stored.Identity())
		return err
	})
	return info, err
}

// DefaultWorkspace returns the default workspace
func (s *Bolt) DefaultWorkspace(ctx context.Context) (*catalog.Info, error) {
	return s.getDefault(ctx, defaultWorkspaceID)
}

// DefaultNamespace returns the default namespace
func (s *Bolt) DefaultNamespace(ctx context.Context) (*catalog.Info, error) {
	return s.getDefault(ctx, defaultNamespaceID)
}

// DefaultDataStore returns the default store of the workspace
func (s *Bolt) DefaultDataStore(ctx context.Context, workspaceID string) (*catalog.Info, error) {
	return s.getDefault(ctx, defaultStorePrefix+workspaceID)
}

// SetDefaultWorkspace sets the default workspace
func (s *Bolt) SetDefaultWorkspace(ctx context.Context, workspace *catalog.Info) error {
	return s.setDefault(ctx, defaultWorkspaceID, workspace, nil)
}

// SetDefaultNamespace sets the default namespace
func (s *Bolt) SetDefaultNamespace(ctx context.Context, namespace *catalog.Info) error {
	return s.setDefault(ctx, defaultNamespaceID, namespace, nil)
}

// SetDefaultDataStore sets the default store of the workspace
func (s *Bolt) SetDefaultDataStore(ctx context.Context, workspaceID string, store *catalog.Info) error {
	owner := &catalog.Identity{Kind: catalog.Workspace, ID: workspaceID}
	return s.setDefault(ctx, defaultStorePrefix+workspaceID, store, owner)
}

// Close releases the underlying BoltDB handle. The file is kept.
func (s *Bolt) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

func (s *Bolt) getDefault(ctx context.Context, key string) (*catalog.Info, error) {
	if err := s.ensureOpen(ctx); err != nil {
		return nil, err
	}

	var info *catalog.Info
	err := s.db.View(func(tx *bbolt.Tx) error {
		value := tx.Bucket([]byte(boltDefaultsBucket)).Get([]byte(key))
		if value == nil {
			return fmt.Errorf("%w: no default %s", gerrors.ErrEntityNotFound, key)
		}
		identity, err := s.codec.DecodeIdentity(value)
		if err != nil {
			return err
		}
		info, err = s.get(tx, identity)
		return err
	})
	return info, err
}

func (s *Bolt) setDefault(ctx context.Context, key string, info *catalog.Info, owner *catalog.Identity) error {
	if err := s.ensureOpen(ctx); err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		if owner != nil && !exists(tx, *owner) {
			return notFound(owner.Kind, owner.ID)
		}
		bucket := tx.Bucket([]byte(boltDefaultsBucket))
		if info == nil {
			return bucket.Delete([]byte(key))
		}
		if !exists(tx, info.Identity()) {
			return notFound(info.Kind(), info.ID())
		}
		value, err := s.codec.EncodeIdentity(info.Identity())
		if err != nil {
			return err
		}
		return bucket.Put([]byte(key), value)
	})
}

// raw returns the stored entity with its placeholders
func (s *Bolt) raw(tx *bbolt.Tx, identity catalog.Identity) (*catalog.Info, error) {
	bucket, err := kindBucket(tx, identity.Kind)
	if err != nil {
		return nil, err
	}
	value := bucket.Get([]byte(identity.ID))
	if value == nil {
		return nil, notFound(identity.Kind, identity.ID)
	}
	// bbolt values are only valid for the life of the transaction
	return s.codec.DecodeInfo(bytes.Clone(value))
}

func (s *Bolt) get(tx *bbolt.Tx, identity catalog.Identity) (*catalog.Info, error) {
	info, err := s.raw(tx, identity)
	if err != nil {
		return nil, err
	}
	return resolve(info, func(target catalog.Identity) (*catalog.Info, bool) {
		entity, err := s.raw(tx, target)
		return entity, err == nil
	}), nil
}

func (s *Bolt) put(tx *bbolt.Tx, info *catalog.Info) error {
	bucket, err := kindBucket(tx, info.Kind())
	if err != nil {
		return err
	}
	value, err := s.codec.EncodeInfo(info)
	if err != nil {
		return err
	}
	return bucket.Put([]byte(info.ID()), value)
}

func (s *Bolt) ensureOpen(ctx context.Context) error {
	if s.closed.Load() {
		return gerrors.ErrStoreClosed
	}
	return contextErr(ctx)
}

func kindBucket(tx *bbolt.Tx, kind catalog.Kind) (*bbolt.Bucket, error) {
	bucket := tx.Bucket([]byte(kind.String()))
	if bucket == nil {
		return nil, fmt.Errorf("%w: %s", gerrors.ErrInvalidKind, kind)
	}
	return bucket, nil
}

func exists(tx *bbolt.Tx, identity catalog.Identity) bool {
	bucket := tx.Bucket([]byte(identity.Kind.String()))
	return bucket != nil && bucket.Get([]byte(identity.ID)) != nil
}
