package store

import "time"

// TaskStatus is one of the five states in the task lifecycle.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusFailed     TaskStatus = "failed"
	StatusCancelled  TaskStatus = "cancelled"
)

// Terminal reports whether status accepts no further transitions (failed is
// excluded: failed -> pending is the retry path).
func (s TaskStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Priority is a task's advisory priority.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// DependencyType classifies a TaskDependency edge.
type DependencyType string

const (
	DepBlocks  DependencyType = "blocks"
	DepRelated DependencyType = "related"
	DepSubtask DependencyType = "subtask"
)

// AssignmentRole classifies an Assignment row.
type AssignmentRole string

const (
	RolePrimary      AssignmentRole = "primary"
	RoleReviewer     AssignmentRole = "reviewer"
	RoleCollaborator AssignmentRole = "collaborator"
)

// AgentStatus is one of the five liveness/activity states for a bee.
type AgentStatus string

const (
	AgentIdle    AgentStatus = "idle"
	AgentBusy    AgentStatus = "busy"
	AgentWaiting AgentStatus = "waiting"
	AgentOffline AgentStatus = "offline"
	AgentError   AgentStatus = "error"
)

// MessagePriority is a Message's delivery priority.
type MessagePriority string

const (
	MsgLow    MessagePriority = "low"
	MsgNormal MessagePriority = "normal"
	MsgHigh   MessagePriority = "high"
	MsgUrgent MessagePriority = "urgent"
)

// Task is the durable representation of a unit of work.
type Task struct {
	TaskID        string
	Title         string
	Description   string
	Status        TaskStatus
	Priority      Priority
	AssignedTo    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	StartedAt     *time.Time
	CompletedAt   *time.Time
	CreatedBy     string
	ParentTaskID  string
	Metadata      string
}

// TaskDependency is a directed (task_id, depends_on_task_id) edge.
type TaskDependency struct {
	TaskID           string
	DependsOnTaskID  string
	Type             DependencyType
	CreatedAt        time.Time
}

// Assignment is an auxiliary record of a bee's relationship to a task.
type Assignment struct {
	ID          int64
	TaskID      string
	Assignee    string
	Assigner    string
	Role        AssignmentRole
	Status      string
	AssignedAt  time.Time
	AcceptedAt  *time.Time
	CompletedAt *time.Time
}

// Message is one inter-bee (or beekeeper/system) exchange.
type Message struct {
	MessageID      int64
	FromBee        string
	ToBee          string
	Type           string
	Subject        string
	Content        string
	TaskID         string
	Priority       MessagePriority
	Processed      bool
	ProcessedAt    *time.Time
	CreatedAt      time.Time
	ExpiresAt      *time.Time
	ReplyTo        int64
	SenderCLIUsed  bool
	ConversationID string
}

// AgentState is the one-row-per-bee liveness and workload record.
type AgentState struct {
	BeeName          string
	Status           AgentStatus
	CurrentTaskID    string
	LastActivity     time.Time
	LastHeartbeat    time.Time
	WorkloadScore    float64
	PerformanceScore float64
	Capabilities     []string
}

// ActivityEntry is an append-only audit row describing a task change.
type ActivityEntry struct {
	ID           int64
	TaskID       string
	BeeName      string
	ActivityType string
	Description  string
	OldValue     string
	NewValue     string
	CreatedAt    time.Time
}

// ActiveTaskRow is one row of the active_tasks view.
type ActiveTaskRow struct {
	TaskID          string
	Title           string
	Status          TaskStatus
	Priority        Priority
	AssignedTo      string
	DependencyCount int
	ChildCount      int
}

// AgentWorkloadRow is one row of the agent_workload view.
type AgentWorkloadRow struct {
	BeeName               string
	OpenTaskCount         int
	ActiveAssignmentCount int
}
