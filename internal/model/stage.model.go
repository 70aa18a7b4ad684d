package model

import (
	"strings"
)

// Stage is the step a transaction is at. Any stage may follow any other;
// CANCELLED is reachable from everywhere.
type Stage string

const (
	StagePending          Stage = "PENDING"
	StageMeetingScheduled Stage = "MEETING_SCHEDULED"
	StageDepositPaid      Stage = "DEPOSIT_PAID"
	StageFinalSigning     Stage = "FINAL_SIGNING"
	StageCompleted        Stage = "COMPLETED"
	StageCancelled        Stage = "CANCELLED"
)

var Stages = []Stage{
	StagePending,
	StageMeetingScheduled,
	StageDepositPaid,
	StageFinalSigning,
	StageCompleted,
	StageCancelled,
}

// ParseStage accepts legacy spellings ("meeting_scheduled", " Pending ") and
// returns false for anything outside the closed set.
func ParseStage(s string) (Stage, bool) {
	st := Stage(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Stages {
		if st == known {
			return st, true
		}
	}
	return "", false
}

func (s Stage) Valid() bool {
	_, ok := ParseStage(string(s))
	return ok
}

type TransactionStatus string

const (
	TransactionStatusInterested TransactionStatus = "INTERESTED"
	TransactionStatusPending    TransactionStatus = "PENDING"
	TransactionStatusCompleted  TransactionStatus = "COMPLETED"
	TransactionStatusCancelled  TransactionStatus = "CANCELLED"
)

func ParseTransactionStatus(s string) (TransactionStatus, bool) {
	st := TransactionStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case TransactionStatusInterested, TransactionStatusPending, TransactionStatusCompleted, TransactionStatusCancelled:
		return st, true
	}
	return "", false
}

// LeadStatus shares its value set with Stage; sellers move leads along the
// same steps the admin uses for transactions.
type LeadStatus = Stage

func ParseLeadStatus(s string) (LeadStatus, bool) {
	return ParseStage(s)
}
