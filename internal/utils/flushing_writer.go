package utils

import (
	"io"
	"sync"
)

// FlushingWriter flushes buffered writers after every write so console
// messages interleave correctly with progress output.
type FlushingWriter struct {
	writer io.Writer
	mutex  sync.Mutex
}

type flusher interface {
	Flush() error
}

// NewFlushingWriter wraps writer. Writers already wrapped are returned unchanged.
func NewFlushingWriter(writer io.Writer) io.Writer {
	switch typedWriter := writer.(type) {
	case nil:
		return io.Discard
	case *FlushingWriter:
		return typedWriter
	default:
		return &FlushingWriter{writer: writer}
	}
}

// Write delegates to the underlying writer and flushes it when supported.
func (flushingWriter *FlushingWriter) Write(data []byte) (int, error) {
	flushingWriter.mutex.Lock()
	defer flushingWriter.mutex.Unlock()

	bytesWritten, writeError := flushingWriter.writer.Write(data)
	if writeError != nil {
		return bytesWritten, writeError
	}
	if flushableWriter, supportsFlush := flushingWriter.writer.(flusher); supportsFlush {
		return bytesWritten, flushableWriter.Flush()
	}
	return bytesWritten, nil
}
