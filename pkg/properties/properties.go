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

// Package properties merges broker configuration from three layered sources:
// inline key=value lines, an optional external properties file, and computed
// defaults. Inline entries win over the file, the file wins over defaults.
package properties

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	props "github.com/magiconair/properties"
)

// TransactionStateLogReplicationFactor is defaulted to min(3, broker count)
// when neither the inline lines nor the external file set it.
const TransactionStateLogReplicationFactor = "transaction.state.log.replication.factor"

// Resolver expands placeholders in configuration text. It must be idempotent
// and side-effect free; the merge engine calls it on inline lines, the
// external file location, and external value strings.
type Resolver func(string) string

// ConfigurationError reports a malformed or unloadable configuration source.
type ConfigurationError struct {
	Source string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("broker configuration from [%s]: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("broker configuration from [%s]", e.Source)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Merged is the ordered result of the three layering passes.
type Merged struct {
	p *props.Properties
}

// Get returns the merged value for key.
func (m *Merged) Get(key string) (string, bool) { return m.p.Get(key) }

// Keys returns every merged key in insertion order.
func (m *Merged) Keys() []string { return m.p.Keys() }

// Map returns the merged entries as a plain map.
func (m *Merged) Map() map[string]string { return m.p.Map() }

// Len returns the number of merged entries.
func (m *Merged) Len() int { return m.p.Len() }

// Merge layers the three property sources for a cluster of brokerCount
// nodes. Inline lines are resolved and loaded in order, later lines
// overriding earlier ones; blank lines are skipped. The external file, when
// located, only fills keys the inline layer left unset, with its values
// resolved individually. Finally the transaction-log replication factor is
// defaulted to min(3, brokerCount) if still absent.
func Merge(inline []string, location string, brokerCount int, resolve Resolver, loader Loader) (*Merged, error) {
	if resolve == nil {
		resolve = func(s string) string { return s }
	}

	merged := newOrdered()

	for _, line := range inline {
		if strings.TrimSpace(line) == "" {
			continue
		}
		parsed, err := parse(resolve(line))
		if err != nil {
			return nil, &ConfigurationError{Source: line, Err: err}
		}
		fill(merged, parsed, true, nil)
	}

	if location != "" {
		resolved := resolve(location)
		if loader == nil {
			loader = FileLoader{}
		}
		rc, err := loader.Open(resolved)
		if err != nil {
			return nil, &ConfigurationError{Source: resolved, Err: err}
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, &ConfigurationError{Source: resolved, Err: err}
		}
		parsed, err := parse(string(data))
		if err != nil {
			return nil, &ConfigurationError{Source: resolved, Err: err}
		}
		fill(merged, parsed, false, resolve)
	}

	if _, ok := merged.Get(TransactionStateLogReplicationFactor); !ok {
		merged.Set(TransactionStateLogReplicationFactor, strconv.Itoa(min(3, brokerCount)))
	}

	return &Merged{p: merged}, nil
}

func newOrdered() *props.Properties {
	p := props.NewProperties()
	p.DisableExpansion = true
	return p
}

// parse loads Java-properties text: key=value or key: value pairs, with #
// and ! comment lines. Placeholder expansion stays with the Resolver, so
// magiconair's own ${ref} expansion is disabled.
func parse(text string) (*props.Properties, error) {
	loader := &props.Loader{Encoding: props.UTF8, DisableExpansion: true}
	return loader.LoadBytes([]byte(text))
}

// fill copies src into dst in key order. With overwrite set, src wins over
// existing entries (inline layering); otherwise existing entries are kept
// and src only supplies the gaps (external file layering). A non-nil
// resolve is applied to values as they are copied.
func fill(dst, src *props.Properties, overwrite bool, resolve Resolver) {
	for _, key := range src.Keys() {
		if !overwrite {
			if _, exists := dst.Get(key); exists {
				continue
			}
		}
		value, _ := src.Get(key)
		if resolve != nil {
			value = resolve(value)
		}
		dst.Set(key, value)
	}
}
