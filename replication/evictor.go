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

package replication

import (
	"context"

	"github.com/tochemey/catalogsync/cache"
	"github.com/tochemey/catalogsync/catalog"
	"github.com/tochemey/catalogsync/events"
	"github.com/tochemey/catalogsync/log"
	"github.com/tochemey/catalogsync/telemetry"
)

const evictorName = "evictor"

// cache scopes
const (
	catalogScope = "catalog"
	configScope  = "config"
)

// Evictor invalidates the local cache entries a remote event makes stale.
// Catalog kinds live in the catalog cache and configuration kinds in the
// config cache. It holds no state of its own.
type Evictor struct {
	consumer
	catalogCache cache.Facade
	configCache  cache.Facade
}

var _ RemoteListener = (*Evictor)(nil)

// NewEvictor creates an instance of Evictor
func NewEvictor(serviceID string, catalogCache, configCache cache.Facade, logger log.Logger, metrics *telemetry.Metrics) *Evictor {
	return &Evictor{
		consumer: consumer{
			name:      evictorName,
			serviceID: serviceID,
			logger:    logger,
			metrics:   metrics,
		},
		catalogCache: catalogCache,
		configCache:  configCache,
	}
}

// OnRemote evicts the entries matching the event
func (x *Evictor) OnRemote(ctx context.Context, event *events.Remote) error {
	if x.skipSelf(ctx, event) {
		return nil
	}

	switch event.Variant {
	case events.Add:
		// nothing can be cached yet for a new entity
	case events.Remove:
		id := event.ObjectID
		if id == "" && event.Object != nil {
			id = event.Object.ID()
		}
		if id == "" {
			x.logger.Errorf("%s carries no entity id, skipping", event)
			x.metrics.Skipped(ctx, x.name, telemetry.ReasonMalformed)
			return nil
		}
		x.evict(ctx, event.Kind, cache.KeyOf(event.Kind, id))
	case events.Modify, events.PostModify:
		if event.Patch == nil {
			x.logger.Errorf("%s carries no patch, skipping", event)
			x.metrics.Skipped(ctx, x.name, telemetry.ReasonMalformed)
			return nil
		}
		if event.Patch.IsEmpty() {
			return nil
		}
		x.evict(ctx, event.Kind, cache.KeyOf(event.Kind, event.ObjectID))
	case events.DefaultWorkspaceSet:
		x.evict(ctx, catalog.Workspace, cache.DefaultWorkspaceKey)
	case events.DefaultNamespaceSet:
		x.evict(ctx, catalog.Namespace, cache.DefaultNamespaceKey)
	case events.DefaultDataStoreSet:
		if event.Workspace == nil {
			x.logger.Errorf("%s carries no workspace, skipping", event)
			x.metrics.Skipped(ctx, x.name, telemetry.ReasonMalformed)
			return nil
		}
		// the key only needs (kind, id), so the reference may still be a placeholder
		x.evict(ctx, catalog.DataStore, cache.DefaultDataStoreKey(*event.Workspace))
	case events.UpdateSequenceChanged:
		x.compareSequence(event)
	default:
		x.logger.Errorf("unknown variant in %s, skipping", event)
		x.metrics.Skipped(ctx, x.name, telemetry.ReasonMalformed)
	}
	return nil
}

// compareSequence logs how far the cached global configuration is behind.
// The entry is never evicted: it is corrected by its next natural refresh.
func (x *Evictor) compareSequence(event *events.Remote) {
	global, ok := x.configCache.Get(cache.KeyOf(catalog.Global, catalog.GlobalID))
	if !ok {
		x.logger.Tracef("no cached global configuration, update sequence %d", event.Sequence)
		return
	}

	value, _ := global.Get(catalog.PropUpdateSequence)
	cached, _ := value.(int64)
	switch {
	case cached < event.Sequence:
		x.logger.Debugf("cached update sequence %d is behind remote %d from %s", cached, event.Sequence, event.Origin)
	case cached > event.Sequence:
		x.logger.Debugf("ignoring stale remote update sequence %d from %s, cached %d", event.Sequence, event.Origin, cached)
	default:
		x.logger.Tracef("cached update sequence %d is current", cached)
	}
}

func (x *Evictor) evict(ctx context.Context, kind catalog.Kind, key cache.Key) {
	target, scope := x.catalogCache, catalogScope
	if kind.IsConfig() {
		target, scope = x.configCache, configScope
	}

	hit := target.Evict(key)
	if hit {
		x.logger.Debugf("evicted %s from the %s cache", key, scope)
	} else {
		x.logger.Tracef("%s not in the %s cache", key, scope)
	}
	x.metrics.Evicted(ctx, scope, hit)
}
