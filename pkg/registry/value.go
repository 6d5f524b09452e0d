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

import "fmt"

// AllowedScalar is a constraint (compile-time) for the scalar property
// kinds the hardware registry can carry.
type AllowedScalar interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64 |
		~bool |
		~string
}

// Value is a *runtime* interface (so it can be stored in a record with
// mixed property types).
type Value interface {
	isValue()
	Any() any
	String() string
}

// Scalar wraps an allowed scalar type.
// This is how we keep compile-time constraints while still using a runtime
// interface.
type Scalar[T AllowedScalar] struct {
	V T
}

func (Scalar[T]) isValue() {}

func (s Scalar[T]) Any() any { return s.V }

// String returns the string representation of the underlying scalar value.
func (s Scalar[T]) String() string {
	return fmt.Sprintf("%v", s.V)
}

// Bytes is an opaque byte-buffer property (a CFData in the registry).
type Bytes []byte

func (Bytes) isValue() {}

func (b Bytes) Any() any { return []byte(b) }

// String returns the hex representation of the buffer.
func (b Bytes) String() string {
	return fmt.Sprintf("%x", []byte(b))
}

// Dict is a nested property mapping (a CFDictionary in the registry).
type Dict map[string]Value

func (Dict) isValue() {}

func (d Dict) Any() any { return Record(d) }

// String returns a diagnostic representation of the nested mapping.
func (d Dict) String() string {
	return fmt.Sprintf("%v", map[string]Value(d))
}

// Convenience constructors for each value kind.
func Int(v int) Value         { return &Scalar[int]{V: v} }
func Int64(v int64) Value     { return &Scalar[int64]{V: v} }
func Uint64(v uint64) Value   { return &Scalar[uint64]{V: v} }
func Float64(v float64) Value { return &Scalar[float64]{V: v} }
func Bool(v bool) Value       { return &Scalar[bool]{V: v} }
func Str(v string) Value      { return &Scalar[string]{V: v} }

// ToValue converts a decoded plist value into a Value. Byte buffers and
// nested dictionaries keep their structure; scalar kinds map to Scalar
// wrappers. Any other kind degrades to its string representation so a
// single unexpected property never fails a whole record.
func ToValue(v any) Value {
	switch val := v.(type) {
	case []byte:
		return Bytes(val)
	case map[string]any:
		return Dict(FromMap(val))
	case string:
		return Str(val)
	case int:
		return Int(val)
	case int64:
		return Int64(val)
	case uint64:
		return Uint64(val)
	case float64:
		return Float64(val)
	case bool:
		return Bool(val)
	default:
		return Str(fmt.Sprintf("%v", val))
	}
}
