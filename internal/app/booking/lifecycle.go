// Package booking holds the appointment lifecycle rules shared by every
// dashboard. The three surfaces (client, receptionist, main admin) must
// never disagree about which action is legal, so both the rendered controls
// and the pre-request guards go through Allowed.
package booking

import "github.com/alimponya/clinic-portal/internal/app/models"

// Status of an appointment as reported by the backend.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Action a surface can request against a booking.
type Action string

const (
	ActionCreate   Action = "create"
	ActionApprove  Action = "approve"
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
	ActionDelete   Action = "delete"
	// ActionRevert puts a booking back to pending. Main-admin override only;
	// it breaks the terminal-state rule on purpose.
	ActionRevert Action = "revert"
)

// Statuses in display order, used by the receptionist filter bar.
var Statuses = []Status{StatusPending, StatusApproved, StatusCompleted, StatusCancelled}

// KnownStatus reports whether s is one of the four lifecycle states.
func KnownStatus(s Status) bool {
	switch s {
	case StatusPending, StatusApproved, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no regular transition leaves s. Revert is the one
// admin-only exception and is handled by Allowed, not here.
func Terminal(s Status) bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Target returns the status an action moves a booking to. Create and revert
// both land on pending; delete removes the record and has no target.
func Target(a Action) (Status, bool) {
	switch a {
	case ActionCreate, ActionRevert:
		return StatusPending, true
	case ActionApprove:
		return StatusApproved, true
	case ActionComplete:
		return StatusCompleted, true
	case ActionCancel:
		return StatusCancelled, true
	}
	return "", false
}

// Allowed is the single transition predicate. It answers whether role may
// perform action on a booking currently in status from. Ownership of client
// bookings is enforced by the backend scoping GET /bookings to the caller;
// the client surface never sees anyone else's records.
func Allowed(role models.Role, from Status, action Action) bool {
	switch action {
	case ActionCreate:
		return role == models.RoleClient
	case ActionApprove:
		return from == StatusPending &&
			(role == models.RoleReceptionist || role == models.RoleMainAdmin)
	case ActionComplete:
		return from == StatusApproved &&
			(role == models.RoleReceptionist || role == models.RoleMainAdmin)
	case ActionCancel:
		return (from == StatusPending || from == StatusApproved) && role.Valid()
	case ActionDelete:
		return role == models.RoleMainAdmin
	case ActionRevert:
		return role == models.RoleMainAdmin && from != StatusPending
	}
	return false
}

// ActionsFor lists the status-changing controls a surface should render for
// a booking in the given state, in a stable order. Delete is listed last for
// main admin since it removes the record outright.
func ActionsFor(role models.Role, from Status) []Action {
	all := []Action{ActionApprove, ActionComplete, ActionCancel, ActionRevert, ActionDelete}
	var out []Action
	for _, a := range all {
		if Allowed(role, from, a) {
			out = append(out, a)
		}
	}
	return out
}
