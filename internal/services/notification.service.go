package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nimasrn/property-marketplace/internal/apperr"
	"github.com/nimasrn/property-marketplace/internal/model"
	"github.com/nimasrn/property-marketplace/internal/repository"
	"github.com/nimasrn/property-marketplace/pkg/prom"
)

// NotificationService writes notification rows. Every Notify* method uses the
// transaction carried by ctx, so rows commit or roll back with the change
// that caused them.
type NotificationService struct {
	repo       NotificationRepository
	users      UserRepository
	properties PropertyRepository
}

func NewNotificationService(repo NotificationRepository, users UserRepository, properties PropertyRepository) *NotificationService {
	return &NotificationService{
		repo:       repo,
		users:      users,
		properties: properties,
	}
}

// NotifyNewInterest writes the buyer's confirmation and tells the property
// contact (agent, else seller) about the new lead.
func (s *NotificationService) NotifyNewInterest(ctx context.Context, lead *model.PropertyLead, property *model.Property, tx *model.Transaction, buyer *model.User) ([]*model.Notification, error) {
	propertyID := property.ID
	items := []*model.Notification{{
		RecipientID: lead.BuyerID,
		Type:        model.NotificationInterested,
		Title:       titleInterestBuyer,
		Message:     msgInterestRegistered,
		PropertyID:  &propertyID,
		Metadata: map[string]any{
			"leadId":          lead.ID.String(),
			"shouldOpenModal": false,
		},
	}}

	if contact := property.Contact(); contact != lead.BuyerID {
		meta := map[string]any{
			"leadId":          lead.ID.String(),
			"shouldOpenModal": false,
		}
		if tx != nil {
			meta["transactionId"] = tx.ID.String()
		}
		items = append(items, &model.Notification{
			RecipientID: contact,
			Type:        model.NotificationInterested,
			Title:       titleInterestContact,
			Message:     newInterestMessage(buyerNameOf(buyer), titleOf(property)),
			PropertyID:  &propertyID,
			Metadata:    meta,
		})
	}
	return s.create(ctx, items)
}

// NotifyStageChange writes one STAGE_UPDATE row for the buyer and, when the
// transaction has an agent, one AGENT_STAGE_UPDATE row for the agent.
func (s *NotificationService) NotifyStageChange(ctx context.Context, tx *model.Transaction, stage model.Stage) ([]*model.Notification, error) {
	buyer, err := s.users.GetByID(ctx, tx.BuyerID)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("load buyer: %w", err)
	}
	property, err := s.properties.GetByID(ctx, tx.PropertyID)
	if err != nil && !errors.Is(err, repository.ErrPropertyNotFound) {
		return nil, fmt.Errorf("load property: %w", err)
	}

	propertyID := tx.PropertyID
	text, category := StageBuyerMessage(stage)
	buyerMeta := map[string]any{
		"transactionId":   tx.ID.String(),
		"stage":           string(stage),
		"category":        category,
		"shouldOpenModal": true,
	}
	if tx.OriginLeadID != nil {
		buyerMeta["leadId"] = tx.OriginLeadID.String()
	}
	items := []*model.Notification{{
		RecipientID: tx.BuyerID,
		Type:        model.NotificationStageUpdate,
		Title:       titleStageUpdate,
		Message:     text,
		PropertyID:  &propertyID,
		Metadata:    buyerMeta,
	}}

	if tx.AgentID != nil {
		buyerName, title := buyerNameOf(buyer), titleOf(property)
		agentMeta := map[string]any{
			"transactionId":   tx.ID.String(),
			"stage":           string(stage),
			"stageInGreek":    StageInGreek(stage),
			"buyerId":         tx.BuyerID.String(),
			"buyerName":       buyerName,
			"propertyTitle":   title,
			"recipient":       "agent",
			"shouldOpenModal": true,
		}
		if tx.OriginLeadID != nil {
			agentMeta["leadId"] = tx.OriginLeadID.String()
		}
		items = append(items, &model.Notification{
			RecipientID: *tx.AgentID,
			Type:        model.NotificationAgentStageUpdate,
			Title:       titleStageUpdate,
			Message:     agentStageMessage(buyerName, title, stage),
			PropertyID:  &propertyID,
			Metadata:    agentMeta,
		})
	}
	return s.create(ctx, items)
}

// NotifyInterestCancelled tells the property contact the buyer walked away and
// confirms it to the buyer.
func (s *NotificationService) NotifyInterestCancelled(ctx context.Context, lead *model.PropertyLead, property *model.Property, tx *model.Transaction, buyer *model.User) ([]*model.Notification, error) {
	propertyID := property.ID
	meta := map[string]any{"leadId": lead.ID.String()}
	if tx != nil {
		meta["transactionId"] = tx.ID.String()
	}
	items := []*model.Notification{{
		RecipientID: lead.BuyerID,
		Type:        model.NotificationCancelled,
		Title:       titleInterestCancel,
		Message:     interestCancelledBuyerMessage(titleOf(property)),
		PropertyID:  &propertyID,
		Metadata:    meta,
	}}
	if contact := property.Contact(); contact != lead.BuyerID {
		items = append(items, &model.Notification{
			RecipientID: contact,
			Type:        model.NotificationCancelled,
			Title:       titleInterestCancel,
			Message:     interestCancelledContactMessage(buyerNameOf(buyer), titleOf(property)),
			PropertyID:  &propertyID,
			Metadata:    meta,
		})
	}
	return s.create(ctx, items)
}

func (s *NotificationService) NotifyAppointmentRequest(ctx context.Context, property *model.Property, appt *model.Appointment) ([]*model.Notification, error) {
	propertyID := property.ID
	return s.create(ctx, []*model.Notification{{
		RecipientID: property.UserID,
		Type:        model.NotificationAppointmentRequest,
		Title:       titleAppointmentReq,
		Message:     appointmentRequestMessage(titleOf(property)),
		PropertyID:  &propertyID,
		Metadata: map[string]any{
			"appointmentId": appt.ID,
			"buyerId":       appt.BuyerID.String(),
			"date":          appt.Date,
			"time":          appt.Time,
		},
	}})
}

func (s *NotificationService) NotifyAppointmentStatus(ctx context.Context, property *model.Property, appt *model.Appointment) ([]*model.Notification, error) {
	propertyID := property.ID
	return s.create(ctx, []*model.Notification{{
		RecipientID: appt.BuyerID,
		Type:        model.NotificationAppointmentStatusChange,
		Title:       titleAppointmentSet,
		Message:     appointmentStatusMessage(titleOf(property), appt.Status),
		PropertyID:  &propertyID,
		Metadata: map[string]any{
			"appointmentId": appt.ID,
			"status":        string(appt.Status),
		},
	}})
}

func (s *NotificationService) create(ctx context.Context, items []*model.Notification) ([]*model.Notification, error) {
	created, err := s.repo.CreateMany(ctx, items)
	if err != nil {
		return nil, fmt.Errorf("create notifications: %w", err)
	}
	for _, n := range created {
		prom.AddNotifications(string(n.Type), 1)
	}
	return created, nil
}

type NotificationPage struct {
	Items  []*model.Notification `json:"items"`
	Total  int64                 `json:"total"`
	Unread int64                 `json:"unread"`
}

func (s *NotificationService) List(ctx context.Context, f model.NotificationFilter) (*NotificationPage, error) {
	if f.RecipientID == uuid.Nil {
		return nil, apperr.Unauthorized("missing recipient")
	}
	items, total, unread, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &NotificationPage{Items: items, Total: total, Unread: unread}, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id, recipientID uuid.UUID) error {
	if err := s.repo.MarkRead(ctx, id, recipientID); err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			return apperr.NotFound("notification not found")
		}
		return apperr.Internal(err)
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, recipientID)
	if err != nil {
		return 0, apperr.Internal(err)
	}
	return n, nil
}

func (s *NotificationService) DeleteAll(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	n, err := s.repo.DeleteAll(ctx, recipientID)
	if err != nil {
		return 0, apperr.Internal(err)
	}
	return n, nil
}
