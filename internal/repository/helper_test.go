package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/nimasrn/property-marketplace/internal/model"
	"github.com/nimasrn/property-marketplace/pkg/pg"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *pg.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), pg.GormConfig(false))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(Entities()...))
	return pg.New(db, db)
}

func seedUser(t *testing.T, db *pg.DB, role model.Role) *model.User {
	t.Helper()
	id := uuid.New()
	u, err := NewUserRepository(db).Create(context.Background(), &model.User{
		ID:    id,
		Name:  string(role) + "-" + id.String()[:8],
		Email: id.String() + "@example.com",
		Role:  role,
	})
	require.NoError(t, err)
	return u
}

func seedProperty(t *testing.T, db *pg.DB, sellerID uuid.UUID, agentID *uuid.UUID) *model.Property {
	t.Helper()
	p, err := NewPropertyRepository(db).Create(context.Background(), &model.Property{
		UserID:  sellerID,
		AgentID: agentID,
		Title:   "Μονοκατοικία στη Γλυφάδα",
		Price:   350000,
		Status:  model.PropertyStatusApproved,
		Features: model.PropertyFeatures{
			Bedrooms: 3,
			Area:     120,
			Images:   []string{"a.jpg"},
		},
	})
	require.NoError(t, err)
	return p
}
