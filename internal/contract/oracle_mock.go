package contract

import (
	"context"

	"github.com/huangsam/tdacrash/schema"
	"github.com/stretchr/testify/mock"
)

// MockDiagramOracle is a mock implementation of DiagramOracle for testing.
type MockDiagramOracle struct {
	mock.Mock
}

var _ DiagramOracle = &MockDiagramOracle{} // Compile-time check

// ID implements the DiagramOracle interface.
func (m *MockDiagramOracle) ID() string {
	args := m.Called()
	return args.String(0)
}

// Diagram implements the DiagramOracle interface.
func (m *MockDiagramOracle) Diagram(ctx context.Context, cloud [][]float64, dims []int) (schema.Diagram, error) {
	args := m.Called(ctx, cloud, dims)
	return args.Get(0).(schema.Diagram), args.Error(1)
}
