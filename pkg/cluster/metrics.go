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
	"github.com/prometheus/client_golang/prometheus"

	"github.com/novatechflow/kafkaenv/pkg/protocol"
)

// metrics lives on a per-cluster registry so concurrently provisioned
// clusters in one process never fight over collector registration.
type metrics struct {
	registry    *prometheus.Registry
	connections prometheus.Counter
	requests    *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		connections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kafkaenv_connections_total",
			Help: "Client connections accepted across all nodes.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kafkaenv_requests_total",
			Help: "Requests served, by API.",
		}, []string{"api"}),
	}
	m.registry.MustRegister(m.connections, m.requests)
	return m
}

func apiName(key int16) string {
	switch key {
	case protocol.APIKeyApiVersions:
		return "api_versions"
	case protocol.APIKeyMetadata:
		return "metadata"
	default:
		return "unknown"
	}
}
