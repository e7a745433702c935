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

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadSpecMinimalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spec.yaml")
	if err := os.WriteFile(path, []byte("topics: [orders]\n"), 0o644); err != nil {
		t.Fatalf("write spec: %v", err)
	}
	s, err := loadSpec(path)
	if err != nil {
		t.Fatalf("load spec: %v", err)
	}
	if s.Count != 1 || !s.KRaft || len(s.Ports) != 1 || s.Ports[0] != 0 {
		t.Fatalf("defaults not applied: %+v", s)
	}
	if len(s.Topics) != 1 || s.Topics[0] != "orders" {
		t.Fatalf("topics %v", s.Topics)
	}
}

func TestLoadSpecFullFile(t *testing.T) {
	content := `
count: 3
partitions: 5
topics: [orders, payments]
kraft: false
ports: [9092, 9093, 9094]
controlledShutdown: true
coordinatorPort: 2181
coordinatorConnectTimeout: 10s
coordinatorSessionTimeout: 30s
brokerProperties:
  - log.retention.ms=60000
brokerPropertiesLocation: /etc/kafkaenv/broker.properties
bootstrapServersProperty: kafka.bootstrap
`
	path := filepath.Join(t.TempDir(), "spec.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write spec: %v", err)
	}
	s, err := loadSpec(path)
	if err != nil {
		t.Fatalf("load spec: %v", err)
	}
	if s.Count != 3 || s.Partitions != 5 || s.KRaft {
		t.Fatalf("scalar fields: %+v", s)
	}
	if s.CoordinatorConnectTimeout != 10*time.Second || s.CoordinatorSessionTimeout != 30*time.Second {
		t.Fatalf("timeouts: %+v", s)
	}
	if !s.ControlledShutdown || s.CoordinatorPort != 2181 {
		t.Fatalf("coordinator fields: %+v", s)
	}
	if s.BootstrapServersProperty != "kafka.bootstrap" {
		t.Fatalf("bootstrap property: %q", s.BootstrapServersProperty)
	}
}

func TestLoadSpecBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spec.yaml")
	if err := os.WriteFile(path, []byte("coordinatorConnectTimeout: soon\n"), 0o644); err != nil {
		t.Fatalf("write spec: %v", err)
	}
	if _, err := loadSpec(path); err == nil {
		t.Fatalf("expected duration parse error")
	}
}
