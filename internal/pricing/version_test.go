package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextVersion(t *testing.T) {
	assert.Equal(t, 1, NextVersion(nil))
	assert.Equal(t, 4, NextVersion([]int{1, 3, 2}))
	assert.Equal(t, 8, NextVersion([]int{7}))
}

func TestStatusChangeFor(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	entry, ok := StatusChangeFor(SaveNew, StatusPending, StatusPending, 3, "Ana", at)
	require.True(t, ok)
	assert.Equal(t, "Ana created version 3", entry.Describe())

	entry, ok = StatusChangeFor(SaveNew, StatusPending, StatusPaid, 3, "Ana", at)
	require.True(t, ok)
	assert.Equal(t, "Ana changed the status from Pending to Paid in version 3", entry.Describe())

	_, ok = StatusChangeFor(SaveCurrent, StatusPending, StatusPending, 2, "Ana", at)
	assert.False(t, ok)

	entry, ok = StatusChangeFor(SaveCurrent, StatusPaid, StatusPartialPaid, 2, "Ana", at)
	require.True(t, ok)
	assert.Equal(t, 2, entry.Version)
	assert.Equal(t, "Ana changed the status from Paid to Partial Paid in version 2", entry.Describe())

	initial := InitialStatusChange(StatusPending, 1, "Ana", at)
	assert.True(t, initial.Created())
}

func TestValidateStatusPerKind(t *testing.T) {
	require.NoError(t, ValidateStatus(KindQuotation, StatusConfirmed))
	require.ErrorIs(t, ValidateStatus(KindQuotation, StatusPaid), ErrInvalidStatus)
	require.NoError(t, ValidateStatus(KindInvoice, StatusPartialPaid))
	require.ErrorIs(t, ValidateStatus(KindInvoice, StatusConfirmed), ErrInvalidStatus)
	require.ErrorIs(t, ValidateStatus(KindInvoice, ""), ErrValidation)
}

func TestParseSaveModeAndKind(t *testing.T) {
	mode, err := ParseSaveMode("new")
	require.NoError(t, err)
	assert.Equal(t, SaveNew, mode)
	_, err = ParseSaveMode("later")
	require.Error(t, err)

	kind, err := ParseKind(" Invoice ")
	require.NoError(t, err)
	assert.Equal(t, KindInvoice, kind)
	_, err = ParseKind("receipt")
	require.Error(t, err)
}
