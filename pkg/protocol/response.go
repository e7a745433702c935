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

package protocol

import "fmt"

// ApiVersion advertises the served version range for one API.
type ApiVersion struct {
	APIKey     int16
	MinVersion int16
	MaxVersion int16
}

// ApiVersionsResponse answers ApiVersions. Always encoded as v0, which every
// client can read when negotiating.
type ApiVersionsResponse struct {
	CorrelationID int32
	ErrorCode     int16
	Versions      []ApiVersion
}

// EncodeApiVersionsResponse renders the v0 wire form.
func EncodeApiVersionsResponse(resp *ApiVersionsResponse) []byte {
	w := &writer{}
	w.int32(resp.CorrelationID)
	w.int16(resp.ErrorCode)
	w.int32(int32(len(resp.Versions)))
	for _, v := range resp.Versions {
		w.int16(v.APIKey)
		w.int16(v.MinVersion)
		w.int16(v.MaxVersion)
	}
	return w.buf
}

// Node identifies one broker listener in metadata responses.
type Node struct {
	ID   int32
	Host string
	Port int32
}

// PartitionMetadata describes one partition's placement.
type PartitionMetadata struct {
	ErrorCode int16
	Index     int32
	Leader    int32
	Replicas  []int32
	ISR       []int32
}

// TopicMetadata describes one topic.
type TopicMetadata struct {
	ErrorCode  int16
	Name       string
	Internal   bool
	Partitions []PartitionMetadata
}

// MetadataResponse answers Metadata v0 and v1.
type MetadataResponse struct {
	CorrelationID int32
	Nodes         []Node
	ControllerID  int32
	Topics        []TopicMetadata
}

// EncodeMetadataResponse renders the requested version. v1 adds broker
// racks (always null here), the controller id, and the internal-topic flag.
func EncodeMetadataResponse(resp *MetadataResponse, version int16) ([]byte, error) {
	if version != 0 && version != 1 {
		return nil, fmt.Errorf("unsupported metadata response version %d", version)
	}
	w := &writer{}
	w.int32(resp.CorrelationID)
	w.int32(int32(len(resp.Nodes)))
	for _, n := range resp.Nodes {
		w.int32(n.ID)
		w.string(n.Host)
		w.int32(n.Port)
		if version >= 1 {
			w.nullString()
		}
	}
	if version >= 1 {
		w.int32(resp.ControllerID)
	}
	w.int32(int32(len(resp.Topics)))
	for _, t := range resp.Topics {
		w.int16(t.ErrorCode)
		w.string(t.Name)
		if version >= 1 {
			w.bool(t.Internal)
		}
		w.int32(int32(len(t.Partitions)))
		for _, p := range t.Partitions {
			w.int16(p.ErrorCode)
			w.int32(p.Index)
			w.int32(p.Leader)
			w.int32s(p.Replicas)
			w.int32s(p.ISR)
		}
	}
	return w.buf, nil
}
