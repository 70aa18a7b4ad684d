package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/nimasrn/property-marketplace/internal/model"
	"github.com/nimasrn/property-marketplace/internal/services"
	"github.com/stretchr/testify/mock"
)

type MockLeadService struct {
	mock.Mock
}

func (m *MockLeadService) ExpressInterest(ctx context.Context, propertyID, buyerID uuid.UUID) (*services.InterestResult, error) {
	args := m.Called(ctx, propertyID, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.InterestResult), args.Error(1)
}

func (m *MockLeadService) WithdrawInterest(ctx context.Context, propertyID, buyerID uuid.UUID) error {
	return m.Called(ctx, propertyID, buyerID).Error(0)
}

func (m *MockLeadService) ListBuyerInterests(ctx context.Context, buyerID uuid.UUID, limit, offset int) (*services.LeadPage, error) {
	args := m.Called(ctx, buyerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.LeadPage), args.Error(1)
}

func (m *MockLeadService) ListSellerLeads(ctx context.Context, sellerID uuid.UUID, includeCancelled bool, limit, offset int) (*services.LeadPage, error) {
	args := m.Called(ctx, sellerID, includeCancelled, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.LeadPage), args.Error(1)
}

func (m *MockLeadService) UpdateLead(ctx context.Context, leadID, actorID uuid.UUID, rawStatus string, notes *string) (*model.PropertyLead, error) {
	args := m.Called(ctx, leadID, actorID, rawStatus, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PropertyLead), args.Error(1)
}

func (m *MockLeadService) CancelInterest(ctx context.Context, leadID, actorID uuid.UUID, cancelled bool) (*model.PropertyLead, error) {
	args := m.Called(ctx, leadID, actorID, cancelled)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PropertyLead), args.Error(1)
}

func (m *MockLeadService) DeleteLead(ctx context.Context, leadID, actorID uuid.UUID) error {
	return m.Called(ctx, leadID, actorID).Error(0)
}

func (m *MockLeadService) CreateConnection(ctx context.Context, agentID, buyerID, propertyID uuid.UUID) (*model.BuyerAgentConnection, error) {
	args := m.Called(ctx, agentID, buyerID, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BuyerAgentConnection), args.Error(1)
}

type MockTransactionService struct {
	mock.Mock
}

func (m *MockTransactionService) AdvanceStage(ctx context.Context, ref model.TransactionRef, rawStage string, actorID uuid.UUID) (*model.TransactionWithProgress, error) {
	args := m.Called(ctx, ref, rawStage, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TransactionWithProgress), args.Error(1)
}

func (m *MockTransactionService) Get(ctx context.Context, id uuid.UUID) (*model.TransactionWithProgress, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TransactionWithProgress), args.Error(1)
}

func (m *MockTransactionService) ListAdmin(ctx context.Context, f services.AdminListFilter) (*services.AdminListPage, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AdminListPage), args.Error(1)
}

func (m *MockTransactionService) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*model.Transaction, int64, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Transaction), args.Get(1).(int64), args.Error(2)
}

type MockAppointmentService struct {
	mock.Mock
}

func (m *MockAppointmentService) GetVisitSettings(ctx context.Context, propertyID uuid.UUID) (*model.VisitSettings, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VisitSettings), args.Error(1)
}

func (m *MockAppointmentService) SetVisitSettings(ctx context.Context, propertyID, sellerID uuid.UUID, v model.VisitSettings) (*model.VisitSettings, error) {
	args := m.Called(ctx, propertyID, sellerID, v)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VisitSettings), args.Error(1)
}

func (m *MockAppointmentService) ProposeAppointment(ctx context.Context, propertyID, buyerID uuid.UUID, date, at string) (*model.Appointment, error) {
	args := m.Called(ctx, propertyID, buyerID, date, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appointment), args.Error(1)
}

func (m *MockAppointmentService) SetAppointmentStatus(ctx context.Context, appointmentID, rawStatus string, actorID uuid.UUID) (*model.Appointment, error) {
	args := m.Called(ctx, appointmentID, rawStatus, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appointment), args.Error(1)
}

func (m *MockAppointmentService) ListSellerAppointments(ctx context.Context, sellerID uuid.UUID) ([]*model.Appointment, error) {
	args := m.Called(ctx, sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Appointment), args.Error(1)
}

func (m *MockAppointmentService) ListBuyerAppointments(ctx context.Context, buyerID uuid.UUID) ([]*model.Appointment, error) {
	args := m.Called(ctx, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Appointment), args.Error(1)
}

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) List(ctx context.Context, f model.NotificationFilter) (*services.NotificationPage, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.NotificationPage), args.Error(1)
}

func (m *MockNotificationService) MarkRead(ctx context.Context, id, recipientID uuid.UUID) error {
	return m.Called(ctx, id, recipientID).Error(0)
}

func (m *MockNotificationService) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	args := m.Called(ctx, recipientID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationService) DeleteAll(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	args := m.Called(ctx, recipientID)
	return args.Get(0).(int64), args.Error(1)
}

type MockPropertyService struct {
	mock.Mock
}

func (m *MockPropertyService) Create(ctx context.Context, sellerID uuid.UUID, in services.PropertyInput) (*model.Property, error) {
	args := m.Called(ctx, sellerID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Property), args.Error(1)
}

func (m *MockPropertyService) Update(ctx context.Context, id, actorID uuid.UUID, in services.PropertyInput) (*model.Property, error) {
	args := m.Called(ctx, id, actorID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Property), args.Error(1)
}

func (m *MockPropertyService) SetStatus(ctx context.Context, id uuid.UUID, rawStatus string) (*model.Property, error) {
	args := m.Called(ctx, id, rawStatus)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Property), args.Error(1)
}

func (m *MockPropertyService) ListSellerProperties(ctx context.Context, sellerID uuid.UUID, limit, offset int) (*services.PropertyPage, error) {
	args := m.Called(ctx, sellerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PropertyPage), args.Error(1)
}

func (m *MockPropertyService) ListAdmin(ctx context.Context, rawStatus string, limit, offset int) (*services.PropertyPage, error) {
	args := m.Called(ctx, rawStatus, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PropertyPage), args.Error(1)
}
