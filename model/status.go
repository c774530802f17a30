package model

type PanoramaStatus string

const (
	PanoramaPending   PanoramaStatus = "pending"
	PanoramaPublished PanoramaStatus = "published"
	PanoramaRejected  PanoramaStatus = "rejected"
)

func (s PanoramaStatus) Valid() bool {
	switch s {
	case PanoramaPending, PanoramaPublished, PanoramaRejected:
		return true
	}
	return false
}

//ReviewOutcome maps a review action to the resulting status.
//Re-reviewing an already reviewed panorama rewrites the same status.
func ReviewOutcome(action string) (PanoramaStatus, bool) {
	switch action {
	case "approve":
		return PanoramaPublished, true
	case "reject":
		return PanoramaRejected, true
	}
	return "", false
}

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskAssigned   TaskStatus = "assigned"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskCancelled  TaskStatus = "cancelled"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskAssigned, TaskInProgress, TaskCompleted, TaskCancelled:
		return true
	}
	return false
}

//Terminal task states admit no further status changes.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskCancelled
}

//CanTransition reports whether a status edit from s to next is allowed.
//The chain is pending -> assigned -> in_progress -> completed, with
//cancelled reachable from any non-terminal state. Writing the current
//status again is allowed and is a no-op transition.
func (s TaskStatus) CanTransition(next TaskStatus) bool {
	if !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	if s.Terminal() {
		return false
	}
	if next == TaskCancelled {
		return true
	}
	switch s {
	case TaskPending:
		return next == TaskAssigned || next == TaskInProgress || next == TaskCompleted
	case TaskAssigned:
		return next == TaskInProgress || next == TaskCompleted
	case TaskInProgress:
		return next == TaskCompleted
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}
