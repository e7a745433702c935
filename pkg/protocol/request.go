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

// API keys an embedded node answers.
const (
	APIKeyMetadata    int16 = 3
	APIKeyApiVersions int16 = 18
)

// Error codes used in responses.
const (
	None                    int16 = 0
	UnknownTopicOrPartition int16 = 3
	UnsupportedVersion      int16 = 35
)

// RequestHeader is the common prefix of every Kafka request.
type RequestHeader struct {
	APIKey        int16
	APIVersion    int16
	CorrelationID int32
	ClientID      *string
}

// Request is implemented by the parsed request bodies.
type Request interface {
	APIKey() int16
}

// ApiVersionsRequest asks which API versions the node serves. The body is
// not inspected; modern clients append software name/version we ignore.
type ApiVersionsRequest struct{}

func (ApiVersionsRequest) APIKey() int16 { return APIKeyApiVersions }

// MetadataRequest asks for cluster metadata. AllTopics is set when the
// request names no topics (v0 empty array, v1+ null array).
type MetadataRequest struct {
	Topics    []string
	AllTopics bool
}

func (MetadataRequest) APIKey() int16 { return APIKeyMetadata }

// flexibleHeader reports whether the request carries a v2 header with
// tagged fields. ApiVersions goes flexible at v3, Metadata at v9; anything
// past our served range still needs its header walked so we can answer with
// an UnsupportedVersion error on the right correlation id.
func flexibleHeader(apiKey, version int16) bool {
	switch apiKey {
	case APIKeyApiVersions:
		return version >= 3
	case APIKeyMetadata:
		return version >= 9
	default:
		return false
	}
}

// ParseRequest decodes a request frame payload into its header and body.
func ParseRequest(payload []byte) (*RequestHeader, Request, error) {
	r := &reader{buf: payload}
	apiKey, err := r.int16()
	if err != nil {
		return nil, nil, fmt.Errorf("read api key: %w", err)
	}
	version, err := r.int16()
	if err != nil {
		return nil, nil, fmt.Errorf("read api version: %w", err)
	}
	correlationID, err := r.int32()
	if err != nil {
		return nil, nil, fmt.Errorf("read correlation id: %w", err)
	}
	clientID, err := r.nullableString()
	if err != nil {
		return nil, nil, fmt.Errorf("read client id: %w", err)
	}
	if flexibleHeader(apiKey, version) {
		if err := r.skipTaggedFields(); err != nil {
			return nil, nil, fmt.Errorf("skip header tags: %w", err)
		}
	}
	header := &RequestHeader{
		APIKey:        apiKey,
		APIVersion:    version,
		CorrelationID: correlationID,
		ClientID:      clientID,
	}

	switch apiKey {
	case APIKeyApiVersions:
		return header, &ApiVersionsRequest{}, nil
	case APIKeyMetadata:
		req, err := parseMetadataRequest(r, version)
		if err != nil {
			return nil, nil, err
		}
		return header, req, nil
	default:
		return nil, nil, fmt.Errorf("unsupported api key %d", apiKey)
	}
}

func parseMetadataRequest(r *reader, version int16) (*MetadataRequest, error) {
	if version > 1 {
		// Newer than we serve; the caller answers UnsupportedVersion and
		// never looks at the body.
		return &MetadataRequest{AllTopics: true}, nil
	}
	count, err := r.int32()
	if err != nil {
		return nil, fmt.Errorf("read metadata topic count: %w", err)
	}
	if count < 0 {
		return &MetadataRequest{AllTopics: true}, nil
	}
	if count == 0 {
		// v0 empty array means all topics; v1 means none, but an embedded
		// node has nothing to hide either way.
		return &MetadataRequest{AllTopics: version == 0}, nil
	}
	topics := make([]string, 0, count)
	for i := int32(0); i < count; i++ {
		name, err := r.string()
		if err != nil {
			return nil, fmt.Errorf("read metadata topic %d: %w", i, err)
		}
		topics = append(topics, name)
	}
	return &MetadataRequest{Topics: topics}, nil
}
