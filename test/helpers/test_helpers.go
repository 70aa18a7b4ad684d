package helpers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/nimasrn/property-marketplace/internal/model"
	"github.com/nimasrn/property-marketplace/internal/repository"
	"github.com/nimasrn/property-marketplace/pkg/pg"
	"github.com/nimasrn/property-marketplace/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SetupTestDB returns a migrated in-memory sqlite database wrapped as a
// read/write pair. A single connection keeps the memory database shared.
func SetupTestDB(t *testing.T) *pg.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), pg.GormConfig(false))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(repository.Entities()...))
	return pg.New(db, db)
}

// SetupTestRedis starts a miniredis server and an adapter registered under a
// name unique to the test.
func SetupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	t.Helper()
	mr := miniredis.RunT(t)

	adapter, err := redis.NewRedisAdapter(fmt.Sprintf("test-%s-%d", t.Name(), time.Now().UnixNano()), "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)
	return mr, adapter
}

func CreateTestUser(t *testing.T, db *pg.DB, role model.Role, name string) *model.User {
	t.Helper()
	id := uuid.New()
	u, err := repository.NewUserRepository(db).Create(context.Background(), &model.User{
		ID:    id,
		Name:  name,
		Email: id.String() + "@example.com",
		Role:  role,
	})
	require.NoError(t, err)
	return u
}

func CreateTestProperty(t *testing.T, db *pg.DB, seller uuid.UUID, agent *uuid.UUID, title string) *model.Property {
	t.Helper()
	p, err := repository.NewPropertyRepository(db).Create(context.Background(), &model.Property{
		UserID:   seller,
		AgentID:  agent,
		Title:    title,
		Price:    185000,
		Location: "Αθήνα",
		Status:   model.PropertyStatusApproved,
	})
	require.NoError(t, err)
	return p
}
