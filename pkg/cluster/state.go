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
	"sync"

	"github.com/novatechflow/kafkaenv/pkg/protocol"
)

// state is the in-process cluster snapshot every node answers Metadata
// from. It is built once when the cluster starts; nodes share one instance.
type state struct {
	mu           sync.RWMutex
	nodes        []protocol.Node
	controllerID int32
	topics       []protocol.TopicMetadata
}

// newState places partitions for the declared topics across the started
// nodes. Leadership rotates round-robin; an embedded node keeps a single
// replica per partition since nothing is durable anyway.
func newState(nodes []protocol.Node, topics []string, partitions int) *state {
	st := &state{nodes: nodes}
	if len(nodes) > 0 {
		st.controllerID = nodes[0].ID
	}
	for _, name := range topics {
		topic := protocol.TopicMetadata{Name: name}
		for p := 0; p < partitions; p++ {
			leader := nodes[p%len(nodes)].ID
			topic.Partitions = append(topic.Partitions, protocol.PartitionMetadata{
				Index:    int32(p),
				Leader:   leader,
				Replicas: []int32{leader},
				ISR:      []int32{leader},
			})
		}
		st.topics = append(st.topics, topic)
	}
	return st
}

// metadata answers a Metadata request. Requested topics that do not exist
// come back with an UnknownTopicOrPartition entry, matching broker behavior
// when auto-creation is off.
func (st *state) metadata(requested []string, all bool) *protocol.MetadataResponse {
	st.mu.RLock()
	defer st.mu.RUnlock()

	resp := &protocol.MetadataResponse{
		Nodes:        append([]protocol.Node(nil), st.nodes...),
		ControllerID: st.controllerID,
	}
	if all {
		resp.Topics = append(resp.Topics, st.topics...)
		return resp
	}
	for _, name := range requested {
		found := false
		for _, t := range st.topics {
			if t.Name == name {
				resp.Topics = append(resp.Topics, t)
				found = true
				break
			}
		}
		if !found {
			resp.Topics = append(resp.Topics, protocol.TopicMetadata{
				ErrorCode: protocol.UnknownTopicOrPartition,
				Name:      name,
			})
		}
	}
	return resp
}
