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
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/novatechflow/kafkaenv/pkg/protocol"
)

// servedVersions is what every node advertises. ApiVersions itself is v0
// only; clients probing with a newer version get an UnsupportedVersion v0
// response and renegotiate down.
var servedVersions = []protocol.ApiVersion{
	{APIKey: protocol.APIKeyMetadata, MinVersion: 0, MaxVersion: 1},
	{APIKey: protocol.APIKeyApiVersions, MinVersion: 0, MaxVersion: 0},
}

// server is one broker node's listener plus its accept loop.
type server struct {
	node    protocol.Node
	ln      net.Listener
	state   *state
	metrics *metrics
	logger  *slog.Logger

	closeOnce sync.Once
	closed    chan struct{}
	wg        sync.WaitGroup
}

func newServer(ln net.Listener, node protocol.Node, st *state, m *metrics, logger *slog.Logger) *server {
	return &server{
		node:    node,
		ln:      ln,
		state:   st,
		metrics: m,
		logger:  logger,
		closed:  make(chan struct{}),
	}
}

// serve accepts connections until the server is closed. Run on its own
// goroutine.
func (s *server) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.closed:
				return
			default:
			}
			s.logger.Warn("accept failed", "node", s.node.ID, "error", err)
			return
		}
		s.metrics.connections.Inc()
		s.wg.Add(1)
		go func(c net.Conn) {
			defer s.wg.Done()
			s.handleConn(c)
		}(conn)
	}
}

// close stops accepting and waits for in-flight connections.
func (s *server) close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		_ = s.ln.Close()
	})
	s.wg.Wait()
}

func (s *server) handleConn(conn net.Conn) {
	defer conn.Close()
	for {
		payload, err := protocol.ReadFrame(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.logger.Debug("read frame", "node", s.node.ID, "error", err)
			}
			return
		}
		header, req, err := protocol.ParseRequest(payload)
		if err != nil {
			s.logger.Debug("parse request", "node", s.node.ID, "error", err)
			return
		}
		s.metrics.requests.WithLabelValues(apiName(header.APIKey)).Inc()
		resp, err := s.respond(header, req)
		if err != nil {
			s.logger.Debug("handle request", "node", s.node.ID, "error", err)
			return
		}
		if err := protocol.WriteFrame(conn, resp); err != nil {
			s.logger.Debug("write frame", "node", s.node.ID, "error", err)
			return
		}
	}
}

func (s *server) respond(header *protocol.RequestHeader, req protocol.Request) ([]byte, error) {
	switch req.(type) {
	case *protocol.ApiVersionsRequest:
		errorCode := protocol.None
		if header.APIVersion != 0 {
			errorCode = protocol.UnsupportedVersion
		}
		return protocol.EncodeApiVersionsResponse(&protocol.ApiVersionsResponse{
			CorrelationID: header.CorrelationID,
			ErrorCode:     errorCode,
			Versions:      servedVersions,
		}), nil
	case *protocol.MetadataRequest:
		metaReq := req.(*protocol.MetadataRequest)
		if header.APIVersion > 1 {
			return nil, errors.New("metadata version beyond served range")
		}
		resp := s.state.metadata(metaReq.Topics, metaReq.AllTopics)
		resp.CorrelationID = header.CorrelationID
		return protocol.EncodeMetadataResponse(resp, header.APIVersion)
	default:
		return nil, errors.New("unsupported api")
	}
}
