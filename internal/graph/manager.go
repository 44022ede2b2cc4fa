// Package graph implements the per-(tenant, collection) Graph Instance
// Manager (§4.6), backed by Neo4j with the same Cypher/APOC patterns the
// teacher's neo4j retriever repository uses (node/relationship merge via
// apoc.merge, bulk delete via apoc.periodic.iterate).
package graph

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/neo4j/neo4j-go-driver/v6/neo4j"
	"golang.org/x/sync/singleflight"

	"github.com/raghavpatnecha/ragserve/internal/config"
	"github.com/raghavpatnecha/ragserve/internal/logger"
	"github.com/raghavpatnecha/ragserve/internal/types/interfaces"
)

// NameSpace scopes every graph node/relationship to one tenant+collection,
// mirroring the teacher's types.NameSpace label-building scheme.
type NameSpace struct {
	Tenant     string
	Collection string
}

func (n NameSpace) key() string {
	return n.Tenant + "/" + n.Collection
}

func (n NameSpace) Labels() []string {
	return []string{"T_" + sanitizeLabel(n.Tenant), "C_" + sanitizeLabel(n.Collection)}
}

func sanitizeLabel(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '-' {
			out = append(out, '_')
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

type cacheEntry struct {
	instance   *Instance
	generation uint64
}

// Manager caches one Instance per (tenant, collection), evicting and
// rebuilding it — without awaiting the discarded instance's Finalize — when
// the manager's worker generation has moved on since the instance was built.
// This stands in for the spec's "scheduler affinity": Go has a single
// process-wide goroutine scheduler, so `generation` is the only staleness
// signal, and it advances only when BumpGeneration is called; nothing in
// this package or the container calls it.
type Manager struct {
	driver     neo4j.Driver
	cfg        *config.GraphConfig
	mu         sync.Mutex
	instances  map[string]*cacheEntry
	group      singleflight.Group
	generation atomic.Uint64
}

func NewManager(driver neo4j.Driver, cfg *config.GraphConfig) *Manager {
	return &Manager{driver: driver, cfg: cfg, instances: make(map[string]*cacheEntry)}
}

// BumpGeneration invalidates every cached instance on the next Get.
func (m *Manager) BumpGeneration() {
	m.generation.Add(1)
}

func (m *Manager) Get(ctx context.Context, tenantID, collectionID string) (interfaces.GraphInstance, error) {
	ns := NameSpace{Tenant: tenantID, Collection: collectionID}
	key := ns.key()
	currentGen := m.generation.Load()

	m.mu.Lock()
	if entry, ok := m.instances[key]; ok && entry.generation == currentGen {
		m.mu.Unlock()
		return entry.instance, nil
	}
	m.mu.Unlock()

	result, err, _ := m.group.Do(key, func() (interface{}, error) {
		m.mu.Lock()
		if entry, ok := m.instances[key]; ok && entry.generation == currentGen {
			m.mu.Unlock()
			return entry.instance, nil
		}
		stale, hadStale := m.instances[key]
		m.mu.Unlock()

		if hadStale {
			logger.Warnf(ctx, "graph instance generation mismatch for %s, rebuilding without awaiting old finalizer", key)
		}

		instance := NewInstance(m.driver, ns, m.cfg)

		m.mu.Lock()
		m.instances[key] = &cacheEntry{instance: instance, generation: currentGen}
		m.mu.Unlock()

		if hadStale {
			go func() {
				_ = stale.instance.Finalize(context.Background())
			}()
		}
		return instance, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Instance), nil
}

func (m *Manager) DeleteCollection(ctx context.Context, tenantID, collectionID string) error {
	ns := NameSpace{Tenant: tenantID, Collection: collectionID}
	m.mu.Lock()
	entry, ok := m.instances[ns.key()]
	delete(m.instances, ns.key())
	m.mu.Unlock()

	if ok {
		_ = entry.instance.Finalize(ctx)
	}
	if err := purgeWorkDir(collectionWorkDir(m.cfg, ns)); err != nil {
		logger.Warnf(ctx, "failed to purge graph working directory for %s: %v", ns.key(), err)
	}
	return deleteNamespace(ctx, m.driver, ns)
}

func (m *Manager) DeleteTenant(ctx context.Context, tenantID string) error {
	m.mu.Lock()
	var toDelete []NameSpace
	for key, entry := range m.instances {
		if entry.instance.ns.Tenant == tenantID {
			toDelete = append(toDelete, entry.instance.ns)
			delete(m.instances, key)
		}
	}
	m.mu.Unlock()

	if err := purgeWorkDir(tenantWorkDir(m.cfg, tenantID)); err != nil {
		logger.Warnf(ctx, "failed to purge graph working directory for tenant %s: %v", tenantID, err)
	}

	var firstErr error
	for _, ns := range toDelete {
		if err := deleteNamespace(ctx, m.driver, ns); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("delete tenant namespace %s: %w", ns.key(), err)
		}
	}
	return firstErr
}

// tenantWorkDir returns the root directory that owns every collection's
// working directory for a tenant — deleting it purges all of them in one
// pass, matching the layout instance.go's NewInstance builds paths under.
func tenantWorkDir(cfg *config.GraphConfig, tenantID string) string {
	if cfg == nil || cfg.WorkDir == "" {
		return ""
	}
	return filepath.Join(cfg.WorkDir, "users", tenantID)
}

func collectionWorkDir(cfg *config.GraphConfig, ns NameSpace) string {
	if cfg == nil || cfg.WorkDir == "" {
		return ""
	}
	return filepath.Join(cfg.WorkDir, "users", ns.Tenant, "collections", ns.Collection)
}

// purgeWorkDir removes a graph instance's on-disk working directory (§4.6:
// "the unit of deletion"). An empty dir means no working-dir root is
// configured, so there's nothing to purge.
func purgeWorkDir(dir string) error {
	if dir == "" {
		return nil
	}
	return os.RemoveAll(dir)
}

func (m *Manager) Cleanup(ctx context.Context) error {
	m.mu.Lock()
	entries := make([]*cacheEntry, 0, len(m.instances))
	for key, entry := range m.instances {
		entries = append(entries, entry)
		delete(m.instances, key)
	}
	m.mu.Unlock()

	var firstErr error
	for _, entry := range entries {
		if err := entry.instance.Finalize(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
