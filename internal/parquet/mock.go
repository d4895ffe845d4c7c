package parquet

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/huangsam/hazardtable/internal/contract"
	"github.com/huangsam/hazardtable/schema"
)

// MockDatasetReader is a mock implementation of DatasetReader for testing.
type MockDatasetReader struct {
	mock.Mock
}

var _ contract.DatasetReader = &MockDatasetReader{} // Compile-time check

var _ contract.DatasetReader = &Reader{}

// ReadDataset implements the DatasetReader interface.
func (m *MockDatasetReader) ReadDataset(ctx context.Context, path string) (*schema.HazardDataset, error) {
	args := m.Called(ctx, path)
	ds, _ := args.Get(0).(*schema.HazardDataset)
	return ds, args.Error(1)
}

// DatasetHash implements the DatasetReader interface.
func (m *MockDatasetReader) DatasetHash(path string) (string, error) {
	args := m.Called(path)
	return args.String(0), args.Error(1)
}
