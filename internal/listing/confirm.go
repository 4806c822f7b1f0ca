package listing

// ConfirmPhase is the state of a confirmation modal.
type ConfirmPhase string

const (
	ConfirmClosed     ConfirmPhase = "closed"
	ConfirmOpen       ConfirmPhase = "open"
	ConfirmSubmitting ConfirmPhase = "submitting"
)

// Confirm guards a destructive action behind an explicit confirmation.
// closed -> open -> submitting -> closed on success, back to open with Err
// on failure. Cancel only works from open.
type Confirm struct {
	Phase    ConfirmPhase `json:"phase"`
	TargetID int          `json:"target_id,omitempty"`
	Err      string       `json:"error,omitempty"`
}

// Open shows the modal for id. It is refused while submitting.
func (c *Confirm) Open(id int) bool {
	if c.Phase == ConfirmSubmitting {
		return false
	}
	*c = Confirm{Phase: ConfirmOpen, TargetID: id}
	return true
}

// IsOpen reports whether the modal is shown.
func (c Confirm) IsOpen() bool {
	return c.Phase == ConfirmOpen || c.Phase == ConfirmSubmitting
}

// Submit moves an open modal to submitting.
func (c *Confirm) Submit() bool {
	if c.Phase != ConfirmOpen {
		return false
	}
	c.Phase = ConfirmSubmitting
	c.Err = ""
	return true
}

// Succeed closes the modal after the action completed.
func (c *Confirm) Succeed() {
	if c.Phase != ConfirmSubmitting {
		return
	}
	*c = Confirm{Phase: ConfirmClosed}
}

// Fail reopens the modal showing msg.
func (c *Confirm) Fail(msg string) {
	if c.Phase != ConfirmSubmitting {
		return
	}
	c.Phase = ConfirmOpen
	c.Err = msg
}

// Cancel closes an open modal.
func (c *Confirm) Cancel() bool {
	if c.Phase != ConfirmOpen {
		return false
	}
	*c = Confirm{Phase: ConfirmClosed}
	return true
}
