package bootstrap

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/MallLoyalty_Go/internal/database/postgres"
	"github.com/osse101/MallLoyalty_Go/internal/repository"
)

// Repositories holds the PostgreSQL repository implementations
type Repositories struct {
	Points     repository.Points
	Membership repository.Membership
	Orders     repository.Orders
}

// InitializeRepositories creates all repository implementations on one pool
func InitializeRepositories(dbPool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Points:     postgres.NewPointsRepository(dbPool),
		Membership: postgres.NewMembershipRepository(dbPool),
		Orders:     postgres.NewOrderRepository(dbPool),
	}
}
