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

package spec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() BrokerSpec {
	s := Default()
	s.Count = 2
	s.Topics = []string{"orders", "payments"}
	s.Ports = []int{0}
	s.BrokerProperties = []string{"log.dir=/tmp/k"}
	return s
}

func TestEqualIdenticalSpecs(t *testing.T) {
	a, b := sample(), sample()
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Hash(), b.Hash())
}

func TestTopicOrderIsSignificant(t *testing.T) {
	a, b := sample(), sample()
	b.Topics = []string{"payments", "orders"}
	assert.False(t, a.Equal(b))
}

func TestEqualCoversEveryField(t *testing.T) {
	mutations := map[string]func(*BrokerSpec){
		"count":              func(s *BrokerSpec) { s.Count = 3 },
		"partitions":         func(s *BrokerSpec) { s.Partitions = 7 },
		"topics":             func(s *BrokerSpec) { s.Topics = append(s.Topics, "extra") },
		"kraft":              func(s *BrokerSpec) { s.KRaft = !s.KRaft },
		"ports":              func(s *BrokerSpec) { s.Ports = []int{9092, 9093} },
		"controlledShutdown": func(s *BrokerSpec) { s.ControlledShutdown = true },
		"coordinatorPort":    func(s *BrokerSpec) { s.CoordinatorPort = 2181 },
		"connectTimeout":     func(s *BrokerSpec) { s.CoordinatorConnectTimeout = time.Minute },
		"sessionTimeout":     func(s *BrokerSpec) { s.CoordinatorSessionTimeout = time.Minute },
		"properties":         func(s *BrokerSpec) { s.BrokerProperties = []string{"x=y"} },
		"location":           func(s *BrokerSpec) { s.BrokerPropertiesLocation = "file:///b.properties" },
		"bootstrapProperty":  func(s *BrokerSpec) { s.BootstrapServersProperty = "kafka.addrs" },
	}
	for field, mutate := range mutations {
		a, b := sample(), sample()
		mutate(&b)
		assert.False(t, a.Equal(b), "mutating %s should break equality", field)
		assert.NotEqual(t, a.Hash(), b.Hash(), "mutating %s should change the hash", field)
	}
}

func TestHashSeparatesSlices(t *testing.T) {
	// Shifting an entry between topics and properties must not collide.
	a, b := sample(), sample()
	a.Topics = []string{"orders", "x=y"}
	a.BrokerProperties = nil
	b.Topics = []string{"orders"}
	b.BrokerProperties = []string{"x=y"}
	assert.NotEqual(t, a.Hash(), b.Hash())
}

func TestValidate(t *testing.T) {
	s := Default()
	require.NoError(t, s.Validate())

	s.Count = 0
	require.Error(t, s.Validate())

	s = Default()
	s.Partitions = 0
	require.Error(t, s.Validate())
}

func TestDefault(t *testing.T) {
	s := Default()
	assert.Equal(t, 1, s.Count)
	assert.Equal(t, 2, s.Partitions)
	assert.True(t, s.KRaft)
	assert.Equal(t, []int{0}, s.Ports)
}
