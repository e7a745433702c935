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

//go:build e2e

package e2e

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/kversion"

	"github.com/novatechflow/kafkaenv/pkg/provision"
	"github.com/novatechflow/kafkaenv/pkg/spec"
)

// TestRealClientNegotiation points a real Kafka client at a provisioned
// cluster and lets it negotiate API versions against every node.
func TestRealClientNegotiation(t *testing.T) {
	s := spec.Default()
	s.Count = 2
	s.Topics = []string{"orders"}

	h, err := (&provision.Provisioner{}).Provision(context.Background(), s)
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	defer h.Stop()

	seeds := strings.Split(h.BootstrapServers(), ",")
	// Cap the client at the wire versions an embedded node serves.
	client, err := kgo.NewClient(
		kgo.SeedBrokers(seeds...),
		kgo.MaxVersions(kversion.V0_10_0()),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		t.Fatalf("ping cluster: %v", err)
	}
}
