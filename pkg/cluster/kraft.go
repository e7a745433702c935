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

import "context"

// KRaftCluster coordinates itself: the first node acts as controller and
// no external coordination service is started.
type KRaftCluster struct {
	core
}

// NewKRaft constructs an unstarted self-coordinated cluster.
func NewKRaft(count, partitions int, topics []string, plan []int) *KRaftCluster {
	return &KRaftCluster{core: newCore(count, partitions, topics, plan)}
}

// Start implements Cluster.
func (c *KRaftCluster) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.startNodes(); err != nil {
		return err
	}
	c.started = true
	c.logger.Info("kraft cluster started", "nodes", c.count, "bootstrap", c.bootstrapServersLocked())
	return nil
}

// Stop implements Cluster.
func (c *KRaftCluster) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopNodes()
	return nil
}
