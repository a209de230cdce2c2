// Package mocks provides test doubles for the serpapi client.
package mocks

import (
	"context"

	serpapi "github.com/sells-group/leadgen-cli/pkg/serpapi"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// MapsSearch provides a mock function with given fields: ctx, query, offset
func (_m *MockClient) MapsSearch(ctx context.Context, query string, offset int) (*serpapi.MapsResponse, error) {
	ret := _m.Called(ctx, query, offset)

	if len(ret) == 0 {
		panic("no return value specified for MapsSearch")
	}

	var r0 *serpapi.MapsResponse
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, int) (*serpapi.MapsResponse, error)); ok {
		return rf(ctx, query, offset)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string, int) *serpapi.MapsResponse); ok {
		r0 = rf(ctx, query, offset)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*serpapi.MapsResponse)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string, int) error); ok {
		r1 = rf(ctx, query, offset)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockClient creates a new instance of MockClient. It also registers a
// testing interface on the mock and a cleanup function to assert the mocks
// expectations.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
