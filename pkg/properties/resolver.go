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
	"os"
	"strings"
)

// EnvResolver expands ${NAME} and ${NAME:default} placeholders from the
// process environment. Placeholders without a value or default are left
// untouched, so unresolved text survives verbatim rather than vanishing.
func EnvResolver(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	var b strings.Builder
	for {
		start := strings.Index(s, "${")
		if start < 0 {
			b.WriteString(s)
			return b.String()
		}
		end := strings.Index(s[start:], "}")
		if end < 0 {
			b.WriteString(s)
			return b.String()
		}
		end += start
		b.WriteString(s[:start])
		b.WriteString(expandVar(s[start+2 : end]))
		s = s[end+1:]
	}
}

func expandVar(ref string) string {
	name, fallback, hasFallback := strings.Cut(ref, ":")
	if value, ok := os.LookupEnv(name); ok {
		return value
	}
	if hasFallback {
		return fallback
	}
	return "${" + ref + "}"
}
