package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/property-marketplace/internal/model"
	"github.com/nimasrn/property-marketplace/pkg/pg"
	"gorm.io/gorm"
)

type TransactionEntity struct {
	pg.Model
	PropertyID         uuid.UUID  `gorm:"column:property_id;type:uuid;not null;index:idx_transactions_pair"`
	BuyerID            uuid.UUID  `gorm:"column:buyer_id;type:uuid;not null;index:idx_transactions_pair"`
	SellerID           uuid.UUID  `gorm:"column:seller_id;type:uuid;not null;index"`
	AgentID            *uuid.UUID `gorm:"column:agent_id;type:uuid;index"`
	Status             string     `gorm:"column:status;not null"`
	Stage              string     `gorm:"column:stage;not null"`
	InterestCancelled  bool       `gorm:"column:interest_cancelled;not null;default:false"`
	OriginLeadID       *uuid.UUID `gorm:"column:origin_lead_id;type:uuid;index"`
	OriginConnectionID *uuid.UUID `gorm:"column:origin_connection_id;type:uuid;index"`
}

func (TransactionEntity) TableName() string {
	return "transactions"
}

func toTransactionEntity(m *model.Transaction) *TransactionEntity {
	if m == nil {
		return nil
	}
	return &TransactionEntity{
		Model:              pg.Model{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		PropertyID:         m.PropertyID,
		BuyerID:            m.BuyerID,
		SellerID:           m.SellerID,
		AgentID:            m.AgentID,
		Status:             string(m.Status),
		Stage:              string(m.Stage),
		InterestCancelled:  m.InterestCancelled,
		OriginLeadID:       m.OriginLeadID,
		OriginConnectionID: m.OriginConnectionID,
	}
}

func toTransactionModel(e *TransactionEntity) *model.Transaction {
	if e == nil {
		return nil
	}
	return &model.Transaction{
		ID:                 e.ID,
		PropertyID:         e.PropertyID,
		BuyerID:            e.BuyerID,
		SellerID:           e.SellerID,
		AgentID:            e.AgentID,
		Status:             model.TransactionStatus(e.Status),
		Stage:              model.Stage(e.Stage),
		InterestCancelled:  e.InterestCancelled,
		OriginLeadID:       e.OriginLeadID,
		OriginConnectionID: e.OriginConnectionID,
		CreatedAt:          e.CreatedAt,
		UpdatedAt:          e.UpdatedAt,
	}
}

func toTransactionModels(entities []*TransactionEntity) []*model.Transaction {
	out := make([]*model.Transaction, 0, len(entities))
	for _, e := range entities {
		out = append(out, toTransactionModel(e))
	}
	return out
}

// TransactionProgressEntity rows are only ever inserted.
type TransactionProgressEntity struct {
	ID            uuid.UUID `gorm:"primaryKey;type:uuid"`
	TransactionID uuid.UUID `gorm:"column:transaction_id;type:uuid;not null;index"`
	Stage         string    `gorm:"column:stage;not null"`
	Note          string    `gorm:"column:note"`
	CreatedBy     uuid.UUID `gorm:"column:created_by;type:uuid"`
	CreatedAt     time.Time `gorm:"column:created_at;index"`
}

func (TransactionProgressEntity) TableName() string {
	return "transaction_progress"
}

func (e *TransactionProgressEntity) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

func toProgressEntity(m *model.TransactionProgress) *TransactionProgressEntity {
	return &TransactionProgressEntity{
		ID:            m.ID,
		TransactionID: m.TransactionID,
		Stage:         string(m.Stage),
		Note:          m.Note,
		CreatedBy:     m.CreatedBy,
		CreatedAt:     m.CreatedAt,
	}
}

func toProgressModel(e *TransactionProgressEntity) *model.TransactionProgress {
	return &model.TransactionProgress{
		ID:            e.ID,
		TransactionID: e.TransactionID,
		Stage:         model.Stage(e.Stage),
		Note:          e.Note,
		CreatedBy:     e.CreatedBy,
		CreatedAt:     e.CreatedAt,
	}
}
