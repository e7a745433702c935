// Copyright 2025 Alexander Alten (novatechflow), NovaTechflow (novatechflow.com).
// This project is supported and financed by Scalytics, Inc. (www.scalytics.io).
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package provision

import (
	"context"
	"fmt"
	"sync"

	"github.com/novatechflow/kafkaenv/pkg/spec"
)

// ClusterName is the fixed name the provisioned cluster is published under.
// Exactly one handle is reachable by it per registry.
const ClusterName = "kafkaenv.cluster"

// Registry deduplicates provisioning across test contexts. Two requests
// with deeply equal specs resolve to the same started handle; a request
// that would rebind an existing name to a different spec is refused. The
// registry is the only shared state between concurrently preparing
// contexts, so it carries the lock.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*Handle
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Handle)}
}

// Provision returns the handle registered under ClusterName, starting a
// cluster on first use. Repeat calls with an equal spec get the cached
// handle without any broker work; an unequal spec under the same name is an
// error because downstream code resolves the name blind.
func (r *Registry) Provision(ctx context.Context, p *Provisioner, s spec.BrokerSpec) (*Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[ClusterName]; ok {
		if existing.Spec().Equal(s) {
			return existing, nil
		}
		return nil, fmt.Errorf("cluster %q already registered with a different spec (hash %x vs %x)",
			ClusterName, existing.Spec().Hash(), s.Hash())
	}

	handle, err := p.Provision(ctx, s)
	if err != nil {
		return nil, err
	}
	r.entries[ClusterName] = handle
	return handle, nil
}

// Resolve returns the handle registered under name, if any.
func (r *Registry) Resolve(name string) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.entries[name]
	return h, ok
}

// Close stops every registered cluster and empties the registry. The first
// stop error is returned; teardown continues regardless.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var firstErr error
	for name, h := range r.entries {
		if err := h.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(r.entries, name)
	}
	return firstErr
}
