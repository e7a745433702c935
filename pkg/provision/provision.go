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

// Package provision turns a BrokerSpec into a started, registered embedded
// cluster: expand the port plan, select the coordination variant, layer the
// broker properties, start eagerly, publish the bootstrap address.
package provision

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/novatechflow/kafkaenv/pkg/cluster"
	"github.com/novatechflow/kafkaenv/pkg/ports"
	"github.com/novatechflow/kafkaenv/pkg/properties"
	"github.com/novatechflow/kafkaenv/pkg/spec"
)

// ProvisioningError reports a cluster that failed to start. Configuration
// problems surface as *properties.ConfigurationError instead; by the time
// this error appears the spec itself was sound.
type ProvisioningError struct {
	Err error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("provision embedded cluster: %v", e.Err)
}

func (e *ProvisioningError) Unwrap() error { return e.Err }

// Provisioner builds clusters. The zero value uses the environment
// placeholder resolver, the filesystem resource loader, and the default
// logger; tests inject their own collaborators.
type Provisioner struct {
	// Resolver expands placeholders in topics, inline properties, and the
	// properties location. Nil means properties.EnvResolver.
	Resolver properties.Resolver
	// Loader opens the external properties resource. Nil means
	// properties.FileLoader.
	Loader properties.Loader
	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Handle is the started cluster a test context receives. Ownership moves to
// whoever registers it; the handle is never mutated after provisioning.
type Handle struct {
	spec    spec.BrokerSpec
	cluster cluster.Cluster
}

// Spec returns the originating specification.
func (h *Handle) Spec() spec.BrokerSpec { return h.spec }

// BootstrapServers returns the comma-separated client address list.
func (h *Handle) BootstrapServers() string { return h.cluster.BootstrapServers() }

// Ports returns the bound listener ports, one per node.
func (h *Handle) Ports() []int { return h.cluster.Ports() }

// Properties returns the applied property view.
func (h *Handle) Properties() map[string]string { return h.cluster.Properties() }

// Metrics exposes the cluster's Prometheus registry.
func (h *Handle) Metrics() *prometheus.Registry { return h.cluster.Metrics() }

// Stop tears the cluster down. Idempotent.
func (h *Handle) Stop() error { return h.cluster.Stop() }

// Provision builds and starts a cluster for s. The returned handle is fully
// operational: the call blocks until every node serves, and no readiness
// polling is needed afterwards. There is no internal retry; a failed start
// comes back as *ProvisioningError and nothing stays running.
func (p *Provisioner) Provision(ctx context.Context, s spec.BrokerSpec) (*Handle, error) {
	resolve := p.Resolver
	if resolve == nil {
		resolve = properties.EnvResolver
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := s.Validate(); err != nil {
		return nil, &properties.ConfigurationError{Source: "broker spec", Err: err}
	}

	topics := make([]string, 0, len(s.Topics))
	for _, t := range s.Topics {
		topics = append(topics, resolve(t))
	}
	plan := ports.Plan(s.Ports, s.Count)

	merged, err := properties.Merge(s.BrokerProperties, s.BrokerPropertiesLocation, s.Count, resolve, p.Loader)
	if err != nil {
		return nil, err
	}

	cl := cluster.New(s, topics, plan)
	cl.ApplyProperties(merged.Map())
	if s.BootstrapServersProperty != "" {
		cl.SetBootstrapServersProperty(s.BootstrapServersProperty)
	}

	if err := cl.Start(ctx); err != nil {
		return nil, &ProvisioningError{Err: err}
	}

	if s.BootstrapServersProperty != "" {
		if err := os.Setenv(s.BootstrapServersProperty, cl.BootstrapServers()); err != nil {
			_ = cl.Stop()
			return nil, &ProvisioningError{Err: err}
		}
	}

	logger.Info("embedded cluster provisioned",
		"nodes", s.Count,
		"kraft", s.KRaft,
		"topics", topics,
		"bootstrap", cl.BootstrapServers())
	return &Handle{spec: s, cluster: cl}, nil
}
