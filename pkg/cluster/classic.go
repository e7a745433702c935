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

package cluster

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/server/v3/embed"

	"github.com/novatechflow/kafkaenv/pkg/ports"
)

const nodeRegistrationPrefix = "/kafkaenv/nodes/"

// ClassicConfig carries the classic variant's construction inputs. All
// coordinator fields are required in this mode.
type ClassicConfig struct {
	Count              int
	ControlledShutdown bool
	Partitions         int
	Topics             []string
	Ports              []int
	CoordinatorPort    int
	ConnectTimeout     time.Duration
	SessionTimeout     time.Duration
}

// ClassicCluster coordinates through an external service: an embedded etcd
// started on the coordinator port. Every node dials it and registers under
// a session lease; with controlled shutdown enabled, Stop deregisters the
// nodes before their listeners close.
type ClassicCluster struct {
	core
	controlledShutdown bool
	coordinatorPort    int
	connectTimeout     time.Duration
	sessionTimeout     time.Duration

	etcd            *embed.Etcd
	dataDir         string
	client          *clientv3.Client
	leaseID         clientv3.LeaseID
	keepAliveCancel context.CancelFunc
}

// NewClassic constructs an unstarted externally-coordinated cluster.
func NewClassic(cfg ClassicConfig) *ClassicCluster {
	return &ClassicCluster{
		core:               newCore(cfg.Count, cfg.Partitions, cfg.Topics, cfg.Ports),
		controlledShutdown: cfg.ControlledShutdown,
		coordinatorPort:    cfg.CoordinatorPort,
		connectTimeout:     cfg.ConnectTimeout,
		sessionTimeout:     cfg.SessionTimeout,
	}
}

// Start implements Cluster: coordinator first, then the broker nodes, then
// node registration. Any failure unwinds what already came up.
func (c *ClassicCluster) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := c.startCoordinator(ctx); err != nil {
		return fmt.Errorf("start coordinator: %w", err)
	}
	if err := c.startNodes(); err != nil {
		c.teardownCoordinator()
		return err
	}
	if err := c.registerNodes(ctx); err != nil {
		c.stopNodes()
		c.teardownCoordinator()
		return fmt.Errorf("register nodes: %w", err)
	}
	c.started = true
	c.logger.Info("classic cluster started",
		"nodes", c.count,
		"coordinator", c.coordinatorClientURL(),
		"bootstrap", c.bootstrapServersLocked())
	return nil
}

// Stop implements Cluster. Controlled shutdown deregisters the nodes from
// the coordinator before closing listeners; otherwise the session lease is
// simply abandoned and expires on its own timeout.
func (c *ClassicCluster) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.controlledShutdown {
		c.deregisterNodes()
		c.stopNodes()
	} else {
		c.stopNodes()
	}
	c.teardownCoordinator()
	return nil
}

func (c *ClassicCluster) startCoordinator(ctx context.Context) error {
	clientPort := c.coordinatorPort
	if clientPort == ports.AutoAssign {
		p, err := ports.Free()
		if err != nil {
			return err
		}
		clientPort = p
	}
	peerPort, err := ports.Free()
	if err != nil {
		return err
	}
	dir, err := os.MkdirTemp("", "kafkaenv-coordinator-*")
	if err != nil {
		return err
	}

	cfg := embed.NewConfig()
	cfg.Name = "coordinator"
	cfg.Dir = dir
	cfg.Logger = "zap"
	cfg.LogLevel = "error"
	clientURL := url.URL{Scheme: "http", Host: net.JoinHostPort(bindHost, strconv.Itoa(clientPort))}
	peerURL := url.URL{Scheme: "http", Host: net.JoinHostPort(bindHost, strconv.Itoa(peerPort))}
	cfg.ListenClientUrls = []url.URL{clientURL}
	cfg.AdvertiseClientUrls = []url.URL{clientURL}
	cfg.ListenPeerUrls = []url.URL{peerURL}
	cfg.AdvertisePeerUrls = []url.URL{peerURL}
	cfg.InitialCluster = cfg.InitialClusterFromName(cfg.Name)

	e, err := embed.StartEtcd(cfg)
	if err != nil {
		os.RemoveAll(dir)
		return err
	}
	select {
	case <-e.Server.ReadyNotify():
	case err := <-e.Err():
		e.Close()
		os.RemoveAll(dir)
		return err
	case <-ctx.Done():
		e.Server.Stop()
		e.Close()
		os.RemoveAll(dir)
		return ctx.Err()
	}
	c.etcd = e
	c.dataDir = dir
	c.coordinatorPort = clientPort

	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   []string{c.coordinatorClientURL()},
		DialTimeout: c.connectTimeout,
	})
	if err != nil {
		c.teardownCoordinator()
		return err
	}
	c.client = cli
	return nil
}

// registerNodes writes each node's advertised address under a lease whose
// TTL is the coordinator session timeout, then keeps the session alive for
// the cluster's lifetime.
func (c *ClassicCluster) registerNodes(ctx context.Context) error {
	ttl := int64(c.sessionTimeout / time.Second)
	if ttl < 1 {
		ttl = 1
	}
	grantCtx, cancel := context.WithTimeout(ctx, c.connectTimeout)
	defer cancel()
	lease, err := c.client.Grant(grantCtx, ttl)
	if err != nil {
		return err
	}
	c.leaseID = lease.ID
	for i, port := range c.boundPorts {
		key := nodeRegistrationPrefix + strconv.Itoa(i)
		addr := net.JoinHostPort(bindHost, strconv.Itoa(port))
		if _, err := c.client.Put(grantCtx, key, addr, clientv3.WithLease(lease.ID)); err != nil {
			return err
		}
	}

	kaCtx, kaCancel := context.WithCancel(context.Background())
	ch, err := c.client.KeepAlive(kaCtx, lease.ID)
	if err != nil {
		kaCancel()
		return err
	}
	c.keepAliveCancel = kaCancel
	go func() {
		for range ch {
		}
	}()
	return nil
}

func (c *ClassicCluster) deregisterNodes() {
	if c.client == nil || c.leaseID == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.connectTimeout)
	defer cancel()
	if _, err := c.client.Revoke(ctx, c.leaseID); err != nil {
		c.logger.Warn("coordinator deregistration failed", "error", err)
	}
	c.leaseID = 0
}

func (c *ClassicCluster) teardownCoordinator() {
	if c.keepAliveCancel != nil {
		c.keepAliveCancel()
		c.keepAliveCancel = nil
	}
	if c.client != nil {
		_ = c.client.Close()
		c.client = nil
	}
	if c.etcd != nil {
		c.etcd.Close()
		c.etcd = nil
	}
	if c.dataDir != "" {
		os.RemoveAll(c.dataDir)
		c.dataDir = ""
	}
}

func (c *ClassicCluster) coordinatorClientURL() string {
	return fmt.Sprintf("http://%s", net.JoinHostPort(bindHost, strconv.Itoa(c.coordinatorPort)))
}
