package entity

import (
	"encoding/json"
	"fmt"
)

// Action is a manager's decision for a single bookable unit. The set is
// closed: unmarshalling anything but the two known values fails instead of
// passing an unrecognized string through.
type Action string

const (
	ActionConfirmed Action = "confirmed"
	ActionCancelled Action = "cancelled"
)

func (a Action) Validate() error {
	switch a {
	case ActionConfirmed, ActionCancelled:
		return nil
	default:
		return fmt.Errorf("unknown action %q", string(a))
	}
}

func (a *Action) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	action := Action(s)
	if err := action.Validate(); err != nil {
		return err
	}

	*a = action
	return nil
}

// StorageAction overrides the decision for one storage rental on the booking.
type StorageAction struct {
	StorageBookingID int64  `json:"storageBookingId"`
	Action           Action `json:"action"`
}

// ApprovalDecision is the manager's decision payload for a kitchen booking.
// Storage items without an entry in StorageActions follow Status.
type ApprovalDecision struct {
	BookingID      int64
	Status         Action
	StorageActions []StorageAction
}
