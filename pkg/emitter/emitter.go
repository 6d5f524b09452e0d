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

// Package emitter serializes frames to the output stream, one
// self-contained line per tick.
package emitter

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/NVIDIA/gpumon/pkg/telemetry"
)

// Emitter serializes one frame per tick to the output sink.
//
// The context parameter is kept for consistency with the rest of the
// pipeline; stdout/file writes are fast and blocking.
type Emitter interface {
	Emit(ctx context.Context, frame *telemetry.Frame) error
}

// Closer is an optional interface Emitters implement when they hold
// resources such as file handles.
type Closer interface {
	Close() error
}

// LineWriter writes each frame as one compact JSON line and flushes
// after every write, so consumers following the stream observe records
// without buffering delay. At most the final line can be incomplete, and
// only if the process dies mid-write.
type LineWriter struct {
	buf    *bufio.Writer
	closer io.Closer
}

// NewLineWriter creates a LineWriter over the given sink. A nil sink
// means stdout.
func NewLineWriter(w io.Writer) *LineWriter {
	if w == nil {
		w = os.Stdout
	}
	return &LineWriter{buf: bufio.NewWriter(w)}
}

// NewFileWriterOrStdout creates a LineWriter on the given file path. An
// empty path, or a path that cannot be created, falls back to stdout.
// Remember to call Close to flush and release the file handle.
func NewFileWriterOrStdout(path string) *LineWriter {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return NewLineWriter(os.Stdout)
	}

	file, err := os.Create(trimmed)
	if err != nil {
		slog.Error("failed to create output file, falling back to stdout",
			slog.String("error", err.Error()), slog.String("path", trimmed))
		return NewLineWriter(os.Stdout)
	}

	w := NewLineWriter(file)
	w.closer = file
	return w
}

// Emit serializes the frame and appends it to the stream. A failed
// serialization leaves the stream untouched so a partial record is never
// observed.
func (w *LineWriter) Emit(ctx context.Context, frame *telemetry.Frame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("failed to serialize frame: %w", err)
	}
	if _, err := w.buf.Write(data); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	if err := w.buf.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush frame: %w", err)
	}
	return nil
}

// Close flushes buffered output and releases the file handle if one is
// held. Safe to call on stdout-backed writers.
func (w *LineWriter) Close() error {
	if err := w.buf.Flush(); err != nil {
		return err
	}
	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}
