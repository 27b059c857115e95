package pricing

import (
	"fmt"
	"time"
)

// SaveMode selects how an edited snapshot is persisted.
type SaveMode string

const (
	// SaveCurrent overwrites the addressed version in place.
	SaveCurrent SaveMode = "current"
	// SaveNew appends a version numbered one above the highest existing one.
	SaveNew SaveMode = "new"
)

// ParseSaveMode validates a save mode string.
func ParseSaveMode(s string) (SaveMode, error) {
	switch SaveMode(s) {
	case SaveCurrent, SaveNew:
		return SaveMode(s), nil
	}
	return "", fmt.Errorf("unknown save mode %q", s)
}

// NextVersion returns max(existing)+1, or 1 for an empty history.
func NextVersion(existing []int) int {
	highest := 0
	for _, v := range existing {
		if v > highest {
			highest = v
		}
	}
	return highest + 1
}

// StatusChange is one entry of a document's status history.
type StatusChange struct {
	PreviousStatus Status    `json:"previous_status"`
	NewStatus      Status    `json:"new_status"`
	Version        int       `json:"version"`
	ChangedBy      string    `json:"changed_by"`
	ChangeDate     time.Time `json:"change_date"`
}

// Created reports whether the entry marks the creation of a version.
func (c StatusChange) Created() bool {
	return c.PreviousStatus == c.NewStatus
}

// Describe renders the entry as shown in the document history.
func (c StatusChange) Describe() string {
	if c.Created() {
		return fmt.Sprintf("%s created version %d", c.ChangedBy, c.Version)
	}
	return fmt.Sprintf("%s changed the status from %s to %s in version %d",
		c.ChangedBy, c.PreviousStatus.Label(), c.NewStatus.Label(), c.Version)
}

// InitialStatusChange is the entry recorded when a document is created.
func InitialStatusChange(status Status, version int, by string, at time.Time) StatusChange {
	return StatusChange{PreviousStatus: status, NewStatus: status, Version: version, ChangedBy: by, ChangeDate: at}
}

// StatusChangeFor decides whether a save produces a history entry. SaveNew
// always records one; SaveCurrent records one only when the status changed.
func StatusChangeFor(mode SaveMode, previous, next Status, version int, by string, at time.Time) (StatusChange, bool) {
	entry := StatusChange{PreviousStatus: previous, NewStatus: next, Version: version, ChangedBy: by, ChangeDate: at}
	switch mode {
	case SaveNew:
		return entry, true
	case SaveCurrent:
		return entry, previous != next
	}
	return StatusChange{}, false
}
