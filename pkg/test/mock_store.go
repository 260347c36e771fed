package test

import (
	"github.com/inbucket/inbound/pkg/tempstore"
	"github.com/stretchr/testify/mock"
)

// MockStore is a shared tempstore mock for unit testing
type MockStore struct {
	mock.Mock
}

var _ tempstore.Store = &MockStore{}

// Create mock function
func (m *MockStore) Create(name string) (tempstore.File, error) {
	args := m.Called(name)
	f, _ := args.Get(0).(tempstore.File)
	return f, args.Error(1)
}

// Remove mock function
func (m *MockStore) Remove(f tempstore.File) error {
	args := m.Called(f)
	return args.Error(0)
}
