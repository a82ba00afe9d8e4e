package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := [][2]SuggestedEmailStatus{
		{StatusDraft, StatusApproved},
		{StatusDraft, StatusSkipped},
		{StatusApproved, StatusSent},
		{StatusApproved, StatusSkipped},
	}
	for _, tr := range allowed {
		assert.True(t, CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}

	denied := [][2]SuggestedEmailStatus{
		{StatusDraft, StatusSent},
		{StatusApproved, StatusApproved},
		{StatusApproved, StatusDraft},
		{StatusSent, StatusApproved},
		{StatusSent, StatusSkipped},
		{StatusSkipped, StatusApproved},
		{StatusSkipped, StatusDraft},
	}
	for _, tr := range denied {
		assert.False(t, CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}
}

func TestStringArray_ScanEmpty(t *testing.T) {
	var a StringArray
	assert.NoError(t, a.Scan(nil))
	assert.Empty(t, a)

	assert.NoError(t, a.Scan([]byte(`["l1","l2"]`)))
	assert.Equal(t, StringArray{"l1", "l2"}, a)
}
