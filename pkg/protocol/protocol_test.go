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

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func writeInt16(buf *bytes.Buffer, v int16) {
	_ = binary.Write(buf, binary.BigEndian, v)
}

func writeInt32(buf *bytes.Buffer, v int32) {
	_ = binary.Write(buf, binary.BigEndian, v)
}

func writeTestString(buf *bytes.Buffer, s string) {
	writeInt16(buf, int16(len(s)))
	buf.WriteString(s)
}

func buildRequest(apiKey, version int16, correlation int32, clientID string, body func(*bytes.Buffer)) []byte {
	var buf bytes.Buffer
	writeInt16(&buf, apiKey)
	writeInt16(&buf, version)
	writeInt32(&buf, correlation)
	writeTestString(&buf, clientID)
	if body != nil {
		body(&buf)
	}
	return buf.Bytes()
}

func TestFrameRoundTrip(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5}
	var buf bytes.Buffer
	if err := WriteFrame(&buf, payload); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	got, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mismatch: got %v want %v", got, payload)
	}
}

func TestReadFrameShortPayload(t *testing.T) {
	var buf bytes.Buffer
	writeInt32(&buf, 10)
	buf.Write([]byte{1, 2})
	if _, err := ReadFrame(&buf); err == nil {
		t.Fatalf("expected error on truncated frame")
	}
}

func TestParseApiVersionsRequest(t *testing.T) {
	payload := buildRequest(APIKeyApiVersions, 0, 42, "tester", nil)
	header, req, err := ParseRequest(payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, ok := req.(*ApiVersionsRequest); !ok {
		t.Fatalf("expected ApiVersionsRequest, got %T", req)
	}
	if header.CorrelationID != 42 {
		t.Fatalf("correlation id %d, want 42", header.CorrelationID)
	}
	if header.ClientID == nil || *header.ClientID != "tester" {
		t.Fatalf("client id %v, want tester", header.ClientID)
	}
}

func TestParseApiVersionsRequestFlexibleHeader(t *testing.T) {
	payload := buildRequest(APIKeyApiVersions, 3, 7, "kgo", func(buf *bytes.Buffer) {
		buf.WriteByte(0) // empty header tag buffer
		// compact client software name/version, ignored by the parser
		buf.WriteByte(4)
		buf.WriteString("kgo")
		buf.WriteByte(2)
		buf.WriteString("1")
		buf.WriteByte(0)
	})
	header, req, err := ParseRequest(payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, ok := req.(*ApiVersionsRequest); !ok {
		t.Fatalf("expected ApiVersionsRequest, got %T", req)
	}
	if header.APIVersion != 3 || header.CorrelationID != 7 {
		t.Fatalf("unexpected header %+v", header)
	}
}

func TestParseMetadataRequest(t *testing.T) {
	payload := buildRequest(APIKeyMetadata, 0, 5, "tester", func(buf *bytes.Buffer) {
		writeInt32(buf, 2)
		writeTestString(buf, "orders")
		writeTestString(buf, "payments")
	})
	_, req, err := ParseRequest(payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	metaReq, ok := req.(*MetadataRequest)
	if !ok {
		t.Fatalf("expected MetadataRequest, got %T", req)
	}
	if metaReq.AllTopics {
		t.Fatalf("AllTopics should be false when topics are named")
	}
	if len(metaReq.Topics) != 2 || metaReq.Topics[0] != "orders" || metaReq.Topics[1] != "payments" {
		t.Fatalf("topics %v", metaReq.Topics)
	}
}

func TestParseMetadataRequestAllTopics(t *testing.T) {
	v0 := buildRequest(APIKeyMetadata, 0, 1, "t", func(buf *bytes.Buffer) {
		writeInt32(buf, 0)
	})
	_, req, err := ParseRequest(v0)
	if err != nil {
		t.Fatalf("parse v0: %v", err)
	}
	if !req.(*MetadataRequest).AllTopics {
		t.Fatalf("v0 empty array should mean all topics")
	}

	v1 := buildRequest(APIKeyMetadata, 1, 2, "t", func(buf *bytes.Buffer) {
		writeInt32(buf, -1)
	})
	_, req, err = ParseRequest(v1)
	if err != nil {
		t.Fatalf("parse v1: %v", err)
	}
	if !req.(*MetadataRequest).AllTopics {
		t.Fatalf("v1 null array should mean all topics")
	}
}

func TestParseRequestUnknownAPIKey(t *testing.T) {
	payload := buildRequest(99, 0, 1, "t", nil)
	if _, _, err := ParseRequest(payload); err == nil {
		t.Fatalf("expected error for unknown api key")
	}
}

func TestEncodeApiVersionsResponse(t *testing.T) {
	raw := EncodeApiVersionsResponse(&ApiVersionsResponse{
		CorrelationID: 42,
		ErrorCode:     None,
		Versions: []ApiVersion{
			{APIKey: APIKeyMetadata, MinVersion: 0, MaxVersion: 1},
		},
	})
	want := []byte{
		0, 0, 0, 42, // correlation id
		0, 0, // error code
		0, 0, 0, 1, // array length
		0, 3, 0, 0, 0, 1, // metadata 0..1
	}
	if !bytes.Equal(raw, want) {
		t.Fatalf("encoded bytes %v, want %v", raw, want)
	}
}

func TestEncodeMetadataResponseVersions(t *testing.T) {
	resp := &MetadataResponse{
		CorrelationID: 9,
		Nodes:         []Node{{ID: 0, Host: "127.0.0.1", Port: 9092}},
		ControllerID:  0,
		Topics: []TopicMetadata{{
			Name: "orders",
			Partitions: []PartitionMetadata{{
				Index: 0, Leader: 0, Replicas: []int32{0}, ISR: []int32{0},
			}},
		}},
	}

	v0, err := EncodeMetadataResponse(resp, 0)
	if err != nil {
		t.Fatalf("encode v0: %v", err)
	}
	v1, err := EncodeMetadataResponse(resp, 1)
	if err != nil {
		t.Fatalf("encode v1: %v", err)
	}
	// v1 adds a null rack (2 bytes), the controller id (4), and the
	// internal flag (1).
	if len(v1) != len(v0)+7 {
		t.Fatalf("v1 length %d, v0 length %d, want +7", len(v1), len(v0))
	}

	if _, err := EncodeMetadataResponse(resp, 5); err == nil {
		t.Fatalf("expected error for unsupported version")
	}
}
