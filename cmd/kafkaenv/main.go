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

// kafkaenv starts an embedded broker cluster from a YAML spec and keeps it
// up until interrupted. Meant for poking at a cluster outside a test run.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/yaml.v3"

	"github.com/novatechflow/kafkaenv/pkg/provision"
	"github.com/novatechflow/kafkaenv/pkg/spec"
)

type specFile struct {
	Count                     int      `yaml:"count"`
	Partitions                int      `yaml:"partitions"`
	Topics                    []string `yaml:"topics"`
	KRaft                     *bool    `yaml:"kraft"`
	Ports                     []int    `yaml:"ports"`
	ControlledShutdown        bool     `yaml:"controlledShutdown"`
	CoordinatorPort           int      `yaml:"coordinatorPort"`
	CoordinatorConnectTimeout string   `yaml:"coordinatorConnectTimeout"`
	CoordinatorSessionTimeout string   `yaml:"coordinatorSessionTimeout"`
	BrokerProperties          []string `yaml:"brokerProperties"`
	BrokerPropertiesLocation  string   `yaml:"brokerPropertiesLocation"`
	BootstrapServersProperty  string   `yaml:"bootstrapServersProperty"`
}

// toSpec overlays the file onto the defaults, so a minimal file like
// "topics: [orders]" still yields a runnable single-node spec.
func (f specFile) toSpec() (spec.BrokerSpec, error) {
	s := spec.Default()
	if f.Count > 0 {
		s.Count = f.Count
	}
	if f.Partitions > 0 {
		s.Partitions = f.Partitions
	}
	if f.KRaft != nil {
		s.KRaft = *f.KRaft
	}
	if len(f.Ports) > 0 {
		s.Ports = f.Ports
	}
	s.Topics = f.Topics
	s.ControlledShutdown = f.ControlledShutdown
	s.CoordinatorPort = f.CoordinatorPort
	s.BrokerProperties = f.BrokerProperties
	s.BrokerPropertiesLocation = f.BrokerPropertiesLocation
	s.BootstrapServersProperty = f.BootstrapServersProperty
	if f.CoordinatorConnectTimeout != "" {
		d, err := time.ParseDuration(f.CoordinatorConnectTimeout)
		if err != nil {
			return spec.BrokerSpec{}, fmt.Errorf("coordinatorConnectTimeout: %w", err)
		}
		s.CoordinatorConnectTimeout = d
	}
	if f.CoordinatorSessionTimeout != "" {
		d, err := time.ParseDuration(f.CoordinatorSessionTimeout)
		if err != nil {
			return spec.BrokerSpec{}, fmt.Errorf("coordinatorSessionTimeout: %w", err)
		}
		s.CoordinatorSessionTimeout = d
	}
	return s, nil
}

func loadSpec(path string) (spec.BrokerSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return spec.BrokerSpec{}, err
	}
	var f specFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return spec.BrokerSpec{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return f.toSpec()
}

func run() error {
	specPath := flag.String("spec", "", "path to the YAML cluster spec")
	metricsAddr := flag.String("metrics-addr", "127.0.0.1:19093", "address for the Prometheus /metrics endpoint")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	// Local overrides for ${...} placeholders in the spec, if present.
	_ = godotenv.Load()

	if *specPath == "" {
		return fmt.Errorf("-spec is required")
	}
	s, err := loadSpec(*specPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := provision.NewRegistry()
	handle, err := registry.Provision(ctx, &provision.Provisioner{Logger: logger}, s)
	if err != nil {
		return err
	}
	defer registry.Close()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(handle.Metrics(), promhttp.HandlerOpts{}))
	metricsSrv := &http.Server{Addr: *metricsAddr, Handler: mux}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics server stopped", "error", err)
		}
	}()
	defer metricsSrv.Close()

	fmt.Println(handle.BootstrapServers())
	logger.Info("cluster up", "bootstrap", handle.BootstrapServers(), "metrics", *metricsAddr)

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

func main() {
	if err := run(); err != nil {
		slog.Error("kafkaenv failed", "error", err)
		os.Exit(1)
	}
}
