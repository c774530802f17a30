package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to TaskStatus
		ok       bool
	}{
		{TaskPending, TaskAssigned, true},
		{TaskAssigned, TaskInProgress, true},
		{TaskInProgress, TaskCompleted, true},
		{TaskAssigned, TaskCompleted, true},
		{TaskPending, TaskCancelled, true},
		{TaskAssigned, TaskCancelled, true},
		{TaskInProgress, TaskCancelled, true},
		{TaskCompleted, TaskCancelled, false},
		{TaskCancelled, TaskPending, false},
		{TaskCompleted, TaskPending, false},
		{TaskCompleted, TaskCompleted, true}, // rewrite of same status
		{TaskInProgress, TaskAssigned, false},
		{TaskAssigned, TaskPending, false},
		{TaskPending, "bogus", false},
	}
	for _, c := range cases {
		assert.Equalf(t, c.ok, c.from.CanTransition(c.to), "%s -> %s", c.from, c.to)
	}
}

func TestTaskStatusTerminal(t *testing.T) {
	assert.True(t, TaskCompleted.Terminal())
	assert.True(t, TaskCancelled.Terminal())
	assert.False(t, TaskPending.Terminal())
	assert.False(t, TaskAssigned.Terminal())
	assert.False(t, TaskInProgress.Terminal())
}

func TestReviewOutcome(t *testing.T) {
	s, ok := ReviewOutcome("approve")
	assert.True(t, ok)
	assert.Equal(t, PanoramaPublished, s)

	s, ok = ReviewOutcome("reject")
	assert.True(t, ok)
	assert.Equal(t, PanoramaRejected, s)

	_, ok = ReviewOutcome("publish")
	assert.False(t, ok)
}
