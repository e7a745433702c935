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
	"fmt"
	"hash/fnv"
	"strconv"
	"time"
)

// BrokerSpec declares the embedded cluster a test context wants. It is built
// once, never mutated, and compared structurally so identical declarations
// across test suites resolve to the same provisioned cluster.
type BrokerSpec struct {
	// Count is the number of broker nodes, at least 1.
	Count int
	// Partitions is the partition count applied to every declared topic.
	Partitions int
	// Topics are created before the cluster is handed out. Entries may carry
	// unresolved ${...} placeholders; order is significant for identity.
	Topics []string
	// KRaft selects self-coordination. When false the classic external
	// coordinator is started alongside the brokers.
	KRaft bool
	// Ports lists desired listener ports. A single 0 with Count > 1 means
	// every node picks its own free port.
	Ports []int

	// Classic-mode coordination settings. Ignored when KRaft is true.
	ControlledShutdown        bool
	CoordinatorPort           int
	CoordinatorConnectTimeout time.Duration
	CoordinatorSessionTimeout time.Duration

	// BrokerProperties are inline key=value lines, resolved and loaded in
	// order with later entries overriding earlier ones.
	BrokerProperties []string
	// BrokerPropertiesLocation optionally points at a Java-properties file
	// whose entries fill the gaps the inline lines left. Empty means unused.
	BrokerPropertiesLocation string
	// BootstrapServersProperty names the property under which the resolved
	// bootstrap address is published. Empty means unused.
	BootstrapServersProperty string
}

const (
	defaultPartitions                = 2
	defaultCoordinatorConnectTimeout = 6 * time.Second
	defaultCoordinatorSessionTimeout = 6 * time.Second
)

// Default returns the spec a bare declaration expands to: a single KRaft
// node on an auto-assigned port with two partitions per topic.
func Default() BrokerSpec {
	return BrokerSpec{
		Count:                     1,
		Partitions:                defaultPartitions,
		KRaft:                     true,
		Ports:                     []int{0},
		CoordinatorConnectTimeout: defaultCoordinatorConnectTimeout,
		CoordinatorSessionTimeout: defaultCoordinatorSessionTimeout,
	}
}

// Validate rejects specs no cluster can be built from.
func (s BrokerSpec) Validate() error {
	if s.Count < 1 {
		return fmt.Errorf("broker count must be at least 1, got %d", s.Count)
	}
	if s.Partitions < 1 {
		return fmt.Errorf("partition count must be at least 1, got %d", s.Partitions)
	}
	return nil
}

// Equal reports structural equality over every field. Topic and port order
// is significant; two specs differing only in topic order are distinct.
func (s BrokerSpec) Equal(o BrokerSpec) bool {
	if s.Count != o.Count ||
		s.Partitions != o.Partitions ||
		s.KRaft != o.KRaft ||
		s.ControlledShutdown != o.ControlledShutdown ||
		s.CoordinatorPort != o.CoordinatorPort ||
		s.CoordinatorConnectTimeout != o.CoordinatorConnectTimeout ||
		s.CoordinatorSessionTimeout != o.CoordinatorSessionTimeout ||
		s.BrokerPropertiesLocation != o.BrokerPropertiesLocation ||
		s.BootstrapServersProperty != o.BootstrapServersProperty {
		return false
	}
	if !equalStrings(s.Topics, o.Topics) || !equalStrings(s.BrokerProperties, o.BrokerProperties) {
		return false
	}
	if len(s.Ports) != len(o.Ports) {
		return false
	}
	for i := range s.Ports {
		if s.Ports[i] != o.Ports[i] {
			return false
		}
	}
	return true
}

// Hash returns a digest consistent with Equal: equal specs hash equally.
func (s BrokerSpec) Hash() uint64 {
	h := fnv.New64a()
	field := func(v string) {
		h.Write([]byte(v))
		h.Write([]byte{0})
	}
	field(strconv.Itoa(s.Count))
	field(strconv.Itoa(s.Partitions))
	field(strconv.FormatBool(s.KRaft))
	field(strconv.FormatBool(s.ControlledShutdown))
	field(strconv.Itoa(s.CoordinatorPort))
	field(s.CoordinatorConnectTimeout.String())
	field(s.CoordinatorSessionTimeout.String())
	field(s.BrokerPropertiesLocation)
	field(s.BootstrapServersProperty)
	for _, t := range s.Topics {
		field(t)
	}
	h.Write([]byte{0xff})
	for _, p := range s.Ports {
		field(strconv.Itoa(p))
	}
	h.Write([]byte{0xff})
	for _, l := range s.BrokerProperties {
		field(l)
	}
	return h.Sum64()
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
