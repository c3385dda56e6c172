package libemit

import (
	"github.com/stretchr/testify/mock"
)

type mockListener struct {
	mock.Mock

	tap func(args ...any)
}

func (m *mockListener) Listen(args ...any) {
	if m.tap != nil {
		m.tap(args...)
	}
	m.Called(args...)
}
