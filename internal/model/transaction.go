package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Transaction struct {
	ID                 uuid.UUID         `json:"id"`
	PropertyID         uuid.UUID         `json:"propertyId"`
	BuyerID            uuid.UUID         `json:"buyerId"`
	SellerID           uuid.UUID         `json:"sellerId"`
	AgentID            *uuid.UUID        `json:"agentId,omitempty"`
	Status             TransactionStatus `json:"status"`
	Stage              Stage             `json:"stage"`
	InterestCancelled  bool              `json:"interestCancelled"`
	OriginLeadID       *uuid.UUID        `json:"originLeadId,omitempty"`
	OriginConnectionID *uuid.UUID        `json:"originConnectionId,omitempty"`
	CreatedAt          time.Time         `json:"createdAt"`
	UpdatedAt          time.Time         `json:"updatedAt"`
}

// TransactionProgress is one append-only audit entry.
type TransactionProgress struct {
	ID            uuid.UUID `json:"id"`
	TransactionID uuid.UUID `json:"transactionId"`
	Stage         Stage     `json:"stage"`
	Note          string    `json:"note"`
	CreatedBy     uuid.UUID `json:"createdBy"`
	CreatedAt     time.Time `json:"createdAt"`
}

type TransactionWithProgress struct {
	*Transaction
	Progress       []*TransactionProgress `json:"progress"`
	EffectiveStage Stage                  `json:"effectiveStage"`
}

// Origin tells which kind of identifier a TransactionRef carries.
type Origin string

const (
	OriginTransaction Origin = "transaction"
	OriginLead        Origin = "lead"
	OriginConnection  Origin = "connection"
)

func ParseOrigin(s string) (Origin, bool) {
	o := Origin(strings.ToLower(strings.TrimSpace(s)))
	switch o {
	case "":
		return OriginTransaction, true
	case OriginTransaction, OriginLead, OriginConnection:
		return o, true
	}
	return "", false
}

// TransactionRef addresses a transaction either directly or through the lead
// or connection it originated from.
type TransactionRef struct {
	Origin Origin
	ID     uuid.UUID
}

// EffectiveStage is the stage shown to users. A transaction still in the
// INTERESTED status always reads as PENDING, whatever its stored stage.
// progress must be ordered newest first; lead may be nil.
func EffectiveStage(tx *Transaction, progress []*TransactionProgress, lead *PropertyLead) Stage {
	if tx != nil {
		if tx.Status == TransactionStatusInterested {
			return StagePending
		}
		if tx.Stage != "" {
			return tx.Stage
		}
		for _, p := range progress {
			if p.Stage != "" && p.Stage != StageCancelled {
				return p.Stage
			}
		}
	}
	if lead != nil && lead.Status != "" {
		return lead.Status
	}
	return StagePending
}

type TransactionFilter struct {
	UserID   *uuid.UUID
	Statuses []TransactionStatus
	Limit    int
	Offset   int
}

// AdminListItemKind separates real transactions from leads that have not
// produced one yet.
type AdminListItemKind string

const (
	AdminItemTransaction AdminListItemKind = "transaction"
	AdminItemLead        AdminListItemKind = "lead"
)

type AdminListItem struct {
	Kind           AdminListItemKind `json:"kind"`
	ID             uuid.UUID         `json:"id"`
	PropertyID     uuid.UUID         `json:"propertyId"`
	BuyerID        uuid.UUID         `json:"buyerId"`
	AgentID        *uuid.UUID        `json:"agentId,omitempty"`
	Status         string            `json:"status"`
	EffectiveStage Stage             `json:"effectiveStage"`
	CreatedAt      time.Time         `json:"createdAt"`
}
