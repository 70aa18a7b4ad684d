package services

import (
	"fmt"

	"github.com/nimasrn/property-marketplace/internal/model"
)

const (
	unknownBuyerName     = "Άγνωστος ενδιαφερόμενος"
	unknownPropertyTitle = "Άγνωστο ακίνητο"

	titleInterestBuyer   = "Εκδήλωση Ενδιαφέροντος"
	titleInterestContact = "Νέο Ενδιαφέρον"
	titleStageUpdate     = "Ενημέρωση Στάδιου Συναλλαγής"
	titleInterestCancel  = "Ακύρωση Ενδιαφέροντος"
	titleAppointmentReq  = "Νέα Αίτηση Ραντεβού"
	titleAppointmentSet  = "Ενημέρωση Ραντεβού"

	msgInterestRegistered = "✅ Η εκδήλωση ενδιαφέροντος καταχωρήθηκε με επιτυχία!"

	noteTransactionRestored  = "Η συναλλαγή επαναφέρθηκε από τον αγοραστή"
	noteTransactionCancelled = "Η συναλλαγή ακυρώθηκε από τον αγοραστή"
)

var stageInGreek = map[model.Stage]string{
	model.StagePending:          "Αναμονή για ραντεβού",
	model.StageMeetingScheduled: "Έγινε ραντεβού",
	model.StageDepositPaid:      "Έγινε προκαταβολή",
	model.StageFinalSigning:     "Τελική υπογραφή",
	model.StageCompleted:        "Ολοκληρώθηκε",
	model.StageCancelled:        "Ακυρώθηκε",
}

type stageMessage struct {
	text     string
	category string
}

// buyerStageMessages has no PENDING entry; StageBuyerMessage builds that one.
var buyerStageMessages = map[model.Stage]stageMessage{
	model.StageMeetingScheduled: {"Το ραντεβού επιβεβαιώθηκε για την προβολή του ακινήτου.", "appointment"},
	model.StageDepositPaid:      {"Η προκαταβολή έχει καταχωρηθεί επιτυχώς.", "payment"},
	model.StageFinalSigning:     {"Όλα είναι έτοιμα για την τελική υπογραφή.", "contract"},
	model.StageCompleted:        {"Η συναλλαγή ολοκληρώθηκε με επιτυχία!", "completion"},
	model.StageCancelled:        {"Η διαδικασία έχει ακυρωθεί.", "general"},
}

func StageInGreek(stage model.Stage) string {
	if s, ok := stageInGreek[stage]; ok {
		return s
	}
	return string(stage)
}

// StageBuyerMessage returns the buyer facing text and its category.
func StageBuyerMessage(stage model.Stage) (string, string) {
	if m, ok := buyerStageMessages[stage]; ok {
		return m.text, m.category
	}
	return fmt.Sprintf("Η συναλλαγή ενημερώθηκε σε: %s", StageInGreek(stage)), "general"
}

func agentStageMessage(buyerName, propertyTitle string, stage model.Stage) string {
	return fmt.Sprintf("Η συναλλαγή με τον %s για το ακίνητο \"%s\" ενημερώθηκε σε: %s", buyerName, propertyTitle, StageInGreek(stage))
}

func newInterestMessage(buyerName, propertyTitle string) string {
	return fmt.Sprintf("Ο χρήστης %s εκδήλωσε ενδιαφέρον για το ακίνητο \"%s\"", buyerName, propertyTitle)
}

func interestCancelledContactMessage(buyerName, propertyTitle string) string {
	return fmt.Sprintf("Ο χρήστης %s ακύρωσε το ενδιαφέρον του για το ακίνητο \"%s\"", buyerName, propertyTitle)
}

func interestCancelledBuyerMessage(propertyTitle string) string {
	return fmt.Sprintf("Το ενδιαφέρον σας για το ακίνητο \"%s\" ακυρώθηκε επιτυχώς.", propertyTitle)
}

func appointmentRequestMessage(propertyTitle string) string {
	return fmt.Sprintf("Νέα αίτηση ραντεβού για το ακίνητο %s", propertyTitle)
}

func appointmentStatusMessage(propertyTitle string, status model.AppointmentStatus) string {
	verdict := "έχει απορριφθεί"
	if status == model.AppointmentAccepted {
		verdict = "έχει εγκριθεί"
	}
	return fmt.Sprintf("Το ραντεβού σας για το ακίνητο %s %s", propertyTitle, verdict)
}

func buyerNameOf(u *model.User) string {
	if name := u.DisplayName(); name != "" {
		return name
	}
	return unknownBuyerName
}

func titleOf(p *model.Property) string {
	if p != nil && p.Title != "" {
		return p.Title
	}
	return unknownPropertyTitle
}
