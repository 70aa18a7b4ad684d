package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestParseStage(t *testing.T) {
	tests := []struct {
		in    string
		want  Stage
		valid bool
	}{
		{"PENDING", StagePending, true},
		{"meeting_scheduled", StageMeetingScheduled, true},
		{"  Deposit_Paid ", StageDepositPaid, true},
		{"final_signing", StageFinalSigning, true},
		{"completed", StageCompleted, true},
		{"Cancelled", StageCancelled, true},
		{"SHIPPED", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseStage(tt.in)
			assert.Equal(t, tt.valid, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEffectiveStage_InterestedAlwaysPending(t *testing.T) {
	tx := &Transaction{Status: TransactionStatusInterested, Stage: StageDepositPaid}
	progress := []*TransactionProgress{{Stage: StageFinalSigning}}

	assert.Equal(t, StagePending, EffectiveStage(tx, progress, nil))
}

func TestEffectiveStage_Fallbacks(t *testing.T) {
	lead := &PropertyLead{Status: StageMeetingScheduled}

	t.Run("stored stage wins", func(t *testing.T) {
		tx := &Transaction{Status: TransactionStatusPending, Stage: StageDepositPaid}
		assert.Equal(t, StageDepositPaid, EffectiveStage(tx, nil, lead))
	})

	t.Run("latest non-cancelled progress", func(t *testing.T) {
		tx := &Transaction{Status: TransactionStatusPending}
		progress := []*TransactionProgress{
			{Stage: StageCancelled, CreatedAt: time.Now()},
			{Stage: StageFinalSigning, CreatedAt: time.Now().Add(-time.Hour)},
		}
		assert.Equal(t, StageFinalSigning, EffectiveStage(tx, progress, lead))
	})

	t.Run("lead status", func(t *testing.T) {
		tx := &Transaction{Status: TransactionStatusPending}
		assert.Equal(t, StageMeetingScheduled, EffectiveStage(tx, nil, lead))
	})

	t.Run("nothing known", func(t *testing.T) {
		assert.Equal(t, StagePending, EffectiveStage(nil, nil, nil))
	})
}

func TestParseOrigin(t *testing.T) {
	o, ok := ParseOrigin("")
	assert.True(t, ok)
	assert.Equal(t, OriginTransaction, o)

	o, ok = ParseOrigin("Lead")
	assert.True(t, ok)
	assert.Equal(t, OriginLead, o)

	_, ok = ParseOrigin("cuid")
	assert.False(t, ok)
}

func TestVisitSettings_Normalize(t *testing.T) {
	v := VisitSettings{
		PresenceType:   "PLATFORM_ONLY",
		SchedulingType: "buyer_proposal",
		Availability:   map[string][]TimeSlot{"monday": {{Start: "10:00", End: "12:00"}}},
	}
	assert.True(t, v.Normalize())
	assert.Equal(t, PresencePlatformOnly, v.PresenceType)
	assert.Nil(t, v.Availability)

	v = VisitSettings{PresenceType: "seller_and_platform", SchedulingType: "seller_availability",
		Availability: map[string][]TimeSlot{"friday": {{Start: "09:00", End: "10:00"}}}}
	assert.True(t, v.Normalize())
	assert.Len(t, v.Availability, 1)

	v = VisitSettings{PresenceType: "remote", SchedulingType: "buyer_proposal"}
	assert.False(t, v.Normalize())
}

func TestNewTransactionEvent_DedupesRecipients(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	ev := NewTransactionEvent(EventStageAdvanced, uuid.New(), a, b, a, uuid.Nil)
	assert.Equal(t, []uuid.UUID{a, b}, ev.Recipients)
	assert.NotEqual(t, uuid.Nil, ev.ID)
}

func TestProperty_Contact(t *testing.T) {
	seller, agent := uuid.New(), uuid.New()
	p := &Property{UserID: seller}
	assert.Equal(t, seller, p.Contact())
	p.AgentID = &agent
	assert.Equal(t, agent, p.Contact())
}
