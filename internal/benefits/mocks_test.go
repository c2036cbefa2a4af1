package benefits

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/osse101/MallLoyalty_Go/internal/domain"
)

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Lookup(ctx context.Context, userID string) (domain.MembershipLookup, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(domain.MembershipLookup), args.Error(1)
}
