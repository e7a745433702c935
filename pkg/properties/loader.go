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

package properties

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Loader opens an external property resource by location. Implementations
// must fail with a wrapped os.ErrNotExist when the resource is absent so the
// merge engine can report it as a configuration error.
type Loader interface {
	Open(location string) (io.ReadCloser, error)
}

// FileLoader resolves locations against the local filesystem. Plain paths
// and file:// URIs are accepted.
type FileLoader struct{}

// Open implements Loader.
func (FileLoader) Open(location string) (io.ReadCloser, error) {
	path := strings.TrimPrefix(location, "file://")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open properties resource: %w", err)
	}
	return f, nil
}
