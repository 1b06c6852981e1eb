package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name       string
		isAdmin    bool
		ownerMatch bool
		from, to   int
		allowed    bool
	}{
		{name: "admin may set anything", isAdmin: true, from: StatusCompleted, to: StatusPendingPayment, allowed: true},
		{name: "admin may cancel", isAdmin: true, from: StatusPreparing, to: StatusCancelled, allowed: true},
		{name: "owner cancels pending", ownerMatch: true, from: StatusPendingPayment, to: StatusCancelled, allowed: true},
		{name: "owner cancels preparing", ownerMatch: true, from: StatusPreparing, to: StatusCancelled, allowed: true},
		{name: "owner cancels with legacy code", ownerMatch: true, from: StatusReady, to: 5, allowed: true},
		{name: "owner may not complete", ownerMatch: true, from: StatusReady, to: StatusCompleted, allowed: false},
		{name: "owner may not reopen cancelled", ownerMatch: true, from: StatusCancelled, to: StatusCancelled, allowed: false},
		{name: "owner may not cancel completed", ownerMatch: true, from: StatusCompleted, to: StatusCancelled, allowed: false},
		{name: "stranger may not touch", ownerMatch: false, from: StatusPendingPayment, to: StatusCancelled, allowed: false},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			got := CanTransition(testCase.isAdmin, testCase.ownerMatch, testCase.from, testCase.to)
			assert.Equal(t, testCase.allowed, got)
		})
	}
}

func TestCanDelete(t *testing.T) {
	assert.True(t, CanDelete(false, true, StatusCancelled))
	assert.True(t, CanDelete(false, true, 5), "legacy cancel code counts as cancelled")
	assert.False(t, CanDelete(false, true, StatusPreparing))
	assert.False(t, CanDelete(false, false, StatusCancelled))
	assert.False(t, CanDelete(true, true, StatusCancelled), "deletion is customer-side cleanup only")
}

func TestNormalizeStatus(t *testing.T) {
	assert.Equal(t, StatusCancelled, NormalizeStatus(5))
	assert.Equal(t, StatusReady, NormalizeStatus(StatusReady))
	assert.True(t, ValidStatus(5))
	assert.False(t, ValidStatus(7))
	assert.False(t, ValidStatus(-1))
}
