// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
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

package registry

// Record is one registry entry: a mapping from property name to a typed
// value. Records are read-only once returned by an Adapter.
type Record map[string]Value

// FromMap builds a Record from a decoded plist dictionary.
func FromMap(m map[string]any) Record {
	r := make(Record, len(m))
	for k, v := range m {
		r[k] = ToValue(v)
	}
	return r
}

// Has reports whether the property exists.
func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Str returns the property as a string. Only string-typed properties
// qualify; byte buffers are deliberately not coerced here (callers that
// want text-from-bytes decode explicitly).
func (r Record) Str(key string) (string, bool) {
	v, ok := r[key]
	if !ok {
		return "", false
	}
	s, ok := v.Any().(string)
	return s, ok
}

// Bytes returns the property as a raw byte buffer.
func (r Record) Bytes(key string) ([]byte, bool) {
	v, ok := r[key]
	if !ok {
		return nil, false
	}
	b, ok := v.Any().([]byte)
	return b, ok
}

// Uint returns the property as an unsigned 64-bit integer, coercing any
// numeric kind the registry may have used. Negative and fractional values
// do not qualify.
func (r Record) Uint(key string) (uint64, bool) {
	v, ok := r[key]
	if !ok {
		return 0, false
	}
	switch n := v.Any().(type) {
	case uint64:
		return n, true
	case int:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case int64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case float64:
		if n < 0 || n != float64(uint64(n)) {
			return 0, false
		}
		return uint64(n), true
	default:
		return 0, false
	}
}

// Dict returns the property as a nested record.
func (r Record) Dict(key string) (Record, bool) {
	v, ok := r[key]
	if !ok {
		return nil, false
	}
	d, ok := v.Any().(Record)
	return d, ok
}
