// Package review owns the submission status state machine: which statuses
// exist, which transitions are legal, and what data a transition requires.
package review

import (
	"errors"
	"fmt"

	"tunedrop/model"
)

var (
	// ErrInvalidStatus is returned for a status outside the known set.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrIllegalTransition is returned when the transition table forbids a move.
	ErrIllegalTransition = errors.New("illegal status transition")
	// ErrScoreRequired is returned when a decision is missing its rating.
	ErrScoreRequired = errors.New("rating is required for approval or rejection")
	// ErrScoreOutOfRange is returned for a rating outside 1..10.
	ErrScoreOutOfRange = errors.New("review score must be between 1 and 10")
)

// transitions is the single source of truth for legal status moves. The
// platform currently allows an admin to move a submission between any two
// statuses, including reopening an approved or rejected one; restricting
// that policy is an edit to this table, not a code change.
var transitions = map[string]map[string]bool{
	model.StatusPending: {
		model.StatusInReview: true,
		model.StatusApproved: true,
		model.StatusRejected: true,
	},
	model.StatusInReview: {
		model.StatusPending:  true,
		model.StatusApproved: true,
		model.StatusRejected: true,
	},
	model.StatusApproved: {
		model.StatusPending:  true,
		model.StatusInReview: true,
		model.StatusRejected: true,
	},
	model.StatusRejected: {
		model.StatusPending:  true,
		model.StatusInReview: true,
		model.StatusApproved: true,
	},
}

// IsValidStatus reports whether s names a known submission status.
func IsValidStatus(s string) bool {
	_, ok := transitions[s]
	return ok
}

// IsDecision reports whether s is a terminal review decision.
func IsDecision(s string) bool {
	return s == model.StatusApproved || s == model.StatusRejected
}

// CanTransition reports whether the table permits from→to. Staying in the
// same status is always allowed so an admin can amend notes or score.
func CanTransition(from, to string) bool {
	if !IsValidStatus(from) || !IsValidStatus(to) {
		return false
	}
	if from == to {
		return true
	}
	return transitions[from][to]
}

// Validate checks a requested transition and its accompanying data. It is
// the full precondition set for Submission.SetStatus: a known target status,
// a legal move from the current status, and a score in [1,10] whenever the
// target is a decision.
func Validate(current, target string, score *int) error {
	if !IsValidStatus(target) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, target)
	}
	if !CanTransition(current, target) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, current, target)
	}
	if score != nil && (*score < 1 || *score > 10) {
		return ErrScoreOutOfRange
	}
	if IsDecision(target) && score == nil {
		return ErrScoreRequired
	}
	return nil
}
