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

// Package cluster runs the embedded broker nodes behind one startable
// contract. Two coordination variants exist: KRaft (self-coordinated) and
// classic (an embedded etcd acts as the external coordinator). Callers pick
// a variant at construction and never distinguish them afterwards.
package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/novatechflow/kafkaenv/pkg/protocol"
	"github.com/novatechflow/kafkaenv/pkg/spec"
)

// Cluster is the startable broker contract the provisioner works against.
// Construction is passive; Start binds listeners and blocks until every
// node is serving. A started cluster is never reconfigured.
type Cluster interface {
	// ApplyProperties sets the broker property view exposed by the started
	// cluster. Calls after Start are ignored.
	ApplyProperties(props map[string]string)
	// SetBootstrapServersProperty records the property name under which the
	// bootstrap address is published once the cluster is up.
	SetBootstrapServersProperty(name string)
	// Start brings every node (and, for the classic variant, the
	// coordinator) up synchronously.
	Start(ctx context.Context) error
	// Stop tears the cluster down. Idempotent.
	Stop() error
	// Ports returns the bound listener ports, one per node.
	Ports() []int
	// BootstrapServers returns the comma-separated client address list.
	BootstrapServers() string
	// Properties returns the applied property view, including the published
	// bootstrap entry when a property name was set.
	Properties() map[string]string
	// Metrics exposes the cluster's private Prometheus registry.
	Metrics() *prometheus.Registry
}

// New selects the variant a resolved spec asks for. Topics arrive already
// placeholder-resolved; plan is the expanded port plan. Coordinator fields
// on a KRaft spec are accepted and ignored.
func New(s spec.BrokerSpec, topics []string, plan []int) Cluster {
	if s.KRaft {
		return NewKRaft(s.Count, s.Partitions, topics, plan)
	}
	return NewClassic(ClassicConfig{
		Count:              s.Count,
		ControlledShutdown: s.ControlledShutdown,
		Partitions:         s.Partitions,
		Topics:             topics,
		Ports:              plan,
		CoordinatorPort:    s.CoordinatorPort,
		ConnectTimeout:     s.CoordinatorConnectTimeout,
		SessionTimeout:     s.CoordinatorSessionTimeout,
	})
}

const bindHost = "127.0.0.1"

// core carries everything both variants share: the node set, the applied
// property view, and lifecycle bookkeeping.
type core struct {
	count      int
	partitions int
	topics     []string
	plan       []int

	mu            sync.Mutex
	started       bool
	props         map[string]string
	bootstrapProp string
	servers       []*server
	boundPorts    []int
	metrics       *metrics
	logger        *slog.Logger
}

func newCore(count, partitions int, topics []string, plan []int) core {
	return core{
		count:      count,
		partitions: partitions,
		topics:     append([]string(nil), topics...),
		plan:       append([]int(nil), plan...),
		props:      make(map[string]string),
		metrics:    newMetrics(),
		logger:     slog.Default(),
	}
}

func (c *core) ApplyProperties(props map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return
	}
	for k, v := range props {
		c.props[k] = v
	}
}

func (c *core) SetBootstrapServersProperty(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return
	}
	c.bootstrapProp = name
}

func (c *core) Ports() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return append([]int(nil), c.boundPorts...)
	}
	return append([]int(nil), c.plan...)
}

func (c *core) BootstrapServers() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	addrs := make([]string, 0, len(c.boundPorts))
	for _, p := range c.boundPorts {
		addrs = append(addrs, net.JoinHostPort(bindHost, strconv.Itoa(p)))
	}
	return strings.Join(addrs, ",")
}

func (c *core) Properties() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.props)+1)
	for k, v := range c.props {
		out[k] = v
	}
	if c.started && c.bootstrapProp != "" {
		out[c.bootstrapProp] = c.bootstrapServersLocked()
	}
	return out
}

func (c *core) Metrics() *prometheus.Registry { return c.metrics.registry }

func (c *core) bootstrapServersLocked() string {
	addrs := make([]string, 0, len(c.boundPorts))
	for _, p := range c.boundPorts {
		addrs = append(addrs, net.JoinHostPort(bindHost, strconv.Itoa(p)))
	}
	return strings.Join(addrs, ",")
}

// startNodes binds one listener per planned port and begins serving. On any
// bind failure the already-bound listeners are closed and the error
// returned; the cluster stays unstarted. Callers hold c.mu.
func (c *core) startNodes() error {
	if len(c.plan) != c.count {
		return fmt.Errorf("port plan has %d entries for %d brokers", len(c.plan), c.count)
	}

	listeners := make([]net.Listener, 0, c.count)
	nodes := make([]protocol.Node, 0, c.count)
	bound := make([]int, 0, c.count)
	for i, port := range c.plan {
		ln, err := net.Listen("tcp", net.JoinHostPort(bindHost, strconv.Itoa(port)))
		if err != nil {
			for _, prev := range listeners {
				_ = prev.Close()
			}
			return fmt.Errorf("bind node %d on port %d: %w", i, port, err)
		}
		actual := ln.Addr().(*net.TCPAddr).Port
		listeners = append(listeners, ln)
		bound = append(bound, actual)
		nodes = append(nodes, protocol.Node{ID: int32(i), Host: bindHost, Port: int32(actual)})
	}

	st := newState(nodes, c.topics, c.partitions)
	for i, ln := range listeners {
		srv := newServer(ln, nodes[i], st, c.metrics, c.logger)
		c.servers = append(c.servers, srv)
		go srv.serve()
		c.logger.Debug("node serving", "node", i, "addr", ln.Addr())
	}
	c.boundPorts = bound
	return nil
}

// stopNodes closes every listener and waits for connection goroutines.
// Callers hold c.mu.
func (c *core) stopNodes() {
	for _, srv := range c.servers {
		srv.close()
	}
	c.servers = nil
}
