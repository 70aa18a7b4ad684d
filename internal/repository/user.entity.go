package repository

import (
	"github.com/nimasrn/property-marketplace/internal/model"
	"github.com/nimasrn/property-marketplace/pkg/pg"
)

type UserEntity struct {
	pg.Model
	Name  string `gorm:"column:name;not null"`
	Email string `gorm:"column:email;not null;uniqueIndex"`
	Role  string `gorm:"column:role;not null;index"`
}

func (UserEntity) TableName() string {
	return "users"
}

func toUserEntity(m *model.User) *UserEntity {
	if m == nil {
		return nil
	}
	return &UserEntity{
		Model: pg.Model{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		Name:  m.Name,
		Email: m.Email,
		Role:  string(m.Role),
	}
}

func toUserModel(e *UserEntity) *model.User {
	if e == nil {
		return nil
	}
	return &model.User{
		ID:        e.ID,
		Name:      e.Name,
		Email:     e.Email,
		Role:      model.Role(e.Role),
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}
