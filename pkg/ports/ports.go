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

// Package ports turns a sparse port declaration into a concrete per-node plan.
package ports

import (
	"net"
	"strconv"
)

// AutoAssign is the sentinel meaning "let the OS pick a port at bind time".
const AutoAssign = 0

// Plan expands a declared port list to one entry per broker node. A lone
// AutoAssign entry with count > 1 becomes count independent auto-assign
// slots; any other declaration passes through unchanged.
func Plan(declared []int, count int) []int {
	if count > 1 && len(declared) == 1 && declared[0] == AutoAssign {
		return make([]int, count)
	}
	return declared
}

// Free asks the OS for a currently unused TCP port on the loopback
// interface. The port is released before returning, so a racing process can
// still grab it; callers needing a guaranteed bind should listen on
// AutoAssign instead.
func Free() (int, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer ln.Close()
	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(portStr)
}
