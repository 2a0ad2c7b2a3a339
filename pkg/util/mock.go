package util

import "github.com/influxdata/influxdb-client-go/api/write"

// MockWriteAPI satisfies the InfluxDB write API without a server behind it.
// Used when no InfluxDB host is configured and in tests.
type MockWriteAPI struct{}

func (m *MockWriteAPI) WriteRecord(line string) {}

func (m *MockWriteAPI) WritePoint(point *write.Point) {}

func (m *MockWriteAPI) Flush() {}

func (m *MockWriteAPI) Close() {}

// Errors returns a channel for reading errors which occurs during async writes.
// Must be called before performing any writes for errors to be collected.
// The chan is unbuffered and must be drained or the writer will block.
func (m *MockWriteAPI) Errors() <-chan error { return nil }
