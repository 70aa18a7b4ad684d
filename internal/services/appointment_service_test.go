package services

import (
	"context"
	"testing"

	"github.com/nimasrn/property-marketplace/internal/apperr"
	"github.com/nimasrn/property-marketplace/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppointmentService_VisitSettings(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	seller := e.user(t, model.RoleSeller, "seller")
	buyer := e.user(t, model.RoleBuyer, "buyer")
	p := e.property(t, seller.ID, nil)

	_, err := e.appointments.GetVisitSettings(ctx, p.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = e.appointments.SetVisitSettings(ctx, p.ID, buyer.ID, model.VisitSettings{
		PresenceType: "platform_only", SchedulingType: "buyer_proposal",
	})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = e.appointments.SetVisitSettings(ctx, p.ID, seller.ID, model.VisitSettings{
		PresenceType: "in_person", SchedulingType: "buyer_proposal",
	})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	saved, err := e.appointments.SetVisitSettings(ctx, p.ID, seller.ID, model.VisitSettings{
		PresenceType:   "PLATFORM_ONLY",
		SchedulingType: "buyer_proposal",
		Availability:   map[string][]model.TimeSlot{"monday": {{Start: "10:00", End: "11:00"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, model.PresencePlatformOnly, saved.PresenceType)
	assert.Nil(t, saved.Availability)

	got, err := e.appointments.GetVisitSettings(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.PropertyID)
}

func TestAppointmentService_Propose(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	seller := e.user(t, model.RoleSeller, "seller")
	buyer := e.user(t, model.RoleBuyer, "buyer")
	p := e.property(t, seller.ID, nil)

	_, err := e.appointments.ProposeAppointment(ctx, p.ID, buyer.ID, "2026-11-02", "10:30")
	assert.Equal(t, apperr.KindNoVisitSettings, apperr.KindOf(err))

	_, err = e.appointments.ProposeAppointment(ctx, p.ID, buyer.ID, "02/11/2026", "10:30")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	t.Run("platform only is accepted at once", func(t *testing.T) {
		_, err := e.appointments.SetVisitSettings(ctx, p.ID, seller.ID, model.VisitSettings{
			PresenceType: model.PresencePlatformOnly, SchedulingType: model.SchedulingBuyerProposal,
		})
		require.NoError(t, err)

		appt, err := e.appointments.ProposeAppointment(ctx, p.ID, buyer.ID, "2026-11-02", "10:30")
		require.NoError(t, err)
		assert.Equal(t, model.AppointmentAccepted, appt.Status)
		assert.True(t, appt.SubmittedByBuyer)
		assert.Empty(t, e.notificationsFor(t, seller.ID))
	})

	t.Run("seller presence waits for the seller", func(t *testing.T) {
		_, err := e.appointments.SetVisitSettings(ctx, p.ID, seller.ID, model.VisitSettings{
			PresenceType: model.PresenceSellerAndPlatform, SchedulingType: model.SchedulingBuyerProposal,
		})
		require.NoError(t, err)

		appt, err := e.appointments.ProposeAppointment(ctx, p.ID, buyer.ID, "2026-11-03", "18:00")
		require.NoError(t, err)
		assert.Equal(t, model.AppointmentPending, appt.Status)

		notes := e.notificationsFor(t, seller.ID)
		require.Len(t, notes, 1)
		assert.Equal(t, model.NotificationAppointmentRequest, notes[0].Type)
		assert.Equal(t, "Νέα αίτηση ραντεβού για το ακίνητο "+p.Title, notes[0].Message)
	})
}

func TestAppointmentService_SetStatus(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	seller := e.user(t, model.RoleSeller, "seller")
	buyer := e.user(t, model.RoleBuyer, "buyer")
	p := e.property(t, seller.ID, nil)
	_, err := e.appointments.SetVisitSettings(ctx, p.ID, seller.ID, model.VisitSettings{
		PresenceType: model.PresenceSellerAndPlatform, SchedulingType: model.SchedulingBuyerProposal,
	})
	require.NoError(t, err)
	appt, err := e.appointments.ProposeAppointment(ctx, p.ID, buyer.ID, "2026-11-03", "18:00")
	require.NoError(t, err)

	_, err = e.appointments.SetAppointmentStatus(ctx, appt.ID, "pending", seller.ID)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = e.appointments.SetAppointmentStatus(ctx, appt.ID, "accepted", buyer.ID)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = e.appointments.SetAppointmentStatus(ctx, "missing", "accepted", seller.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	updated, err := e.appointments.SetAppointmentStatus(ctx, appt.ID, "Rejected", seller.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentRejected, updated.Status)

	notes := e.notificationsFor(t, buyer.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, model.NotificationAppointmentStatusChange, notes[0].Type)
	assert.Equal(t, "Το ραντεβού σας για το ακίνητο "+p.Title+" έχει απορριφθεί", notes[0].Message)

	sellerList, err := e.appointments.ListSellerAppointments(ctx, seller.ID)
	require.NoError(t, err)
	assert.Len(t, sellerList, 1)
	buyerList, err := e.appointments.ListBuyerAppointments(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Len(t, buyerList, 1)

	assert.Contains(t, e.emitter.types(), model.EventAppointmentUpdated)
}
