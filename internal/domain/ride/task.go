package ride

import (
	"errors"
	"fmt"
	"time"
)

// TaskState is the state of a single errand task. Tasks progress strictly
// forward along the chain; CANCELLED is reachable from every non-terminal
// task state; COMPLETED and CANCELLED are terminal.
type TaskState string

const (
	TaskNotStarted    TaskState = "NOT_STARTED"
	TaskActivated     TaskState = "ACTIVATED"
	TaskDriverOnWay   TaskState = "DRIVER_ON_WAY"
	TaskDriverArrived TaskState = "DRIVER_ARRIVED"
	TaskStarted       TaskState = "STARTED"
	TaskCompleted     TaskState = "COMPLETED"
	TaskCancelled     TaskState = "CANCELLED"
)

var (
	ErrTaskIndexOutOfRange = errors.New("task index out of range")
	ErrTaskNotActive       = errors.New("task is not the active task")
	ErrTaskTerminal        = errors.New("task is in a terminal state")
	ErrNoTasks             = errors.New("ride has no errand tasks")
)

// taskChain is the forward progression; no link is skippable.
var taskChain = map[TaskState]TaskState{
	TaskNotStarted:    TaskActivated,
	TaskActivated:     TaskDriverOnWay,
	TaskDriverOnWay:   TaskDriverArrived,
	TaskDriverArrived: TaskStarted,
	TaskStarted:       TaskCompleted,
}

// Next returns the successor state in the chain, or false when terminal.
func (ts TaskState) Next() (TaskState, bool) {
	next, ok := taskChain[ts]
	return next, ok
}

// Terminal indicates whether the task state admits no further advance.
func (ts TaskState) Terminal() bool {
	return ts == TaskCompleted || ts == TaskCancelled
}

// String returns the string representation of the TaskState.
func (ts TaskState) String() string {
	return string(ts)
}

// TaskHistoryEntry is one append-only log record on an errand task.
type TaskHistoryEntry struct {
	Action    string    `json:"action"`
	ActorID   string    `json:"actor_id"`
	ActorType ActorType `json:"actor_type"`
	At        time.Time `json:"at"`
}

// ErrandTask is one unit of work within an errand ride. Its identity is its
// stable ordinal position in the ride's task list.
type ErrandTask struct {
	Index   int                `json:"index"`
	Title   string             `json:"title"`
	State   TaskState          `json:"state"`
	History []TaskHistoryEntry `json:"history"`
}

// TaskSummary is recomputed after every advance. CompletedCount counts only
// tasks that finished; cancelled tasks are tallied separately.
type TaskSummary struct {
	CompletedCount  int `json:"completed_count"`
	CancelledCount  int `json:"cancelled_count"`
	RemainingCount  int `json:"remaining_count"`
	TotalCount      int `json:"total_count"`
	ActiveTaskIndex int `json:"active_task_index"` // -1 when no task remains
}

// NewErrandTasks builds a fresh task list from titles, all NOT_STARTED.
func NewErrandTasks(titles []string) []ErrandTask {
	tasks := make([]ErrandTask, len(titles))
	for i, title := range titles {
		tasks[i] = ErrandTask{Index: i, Title: title, State: TaskNotStarted}
	}
	return tasks
}

// ActiveTaskIndex returns the index of the lowest-indexed task that is not
// yet COMPLETED or CANCELLED, or -1 when every task is terminal. The active
// task is computed, never stored, so there is a single source of truth.
func ActiveTaskIndex(tasks []ErrandTask) int {
	for i := range tasks {
		if !tasks[i].State.Terminal() {
			return i
		}
	}
	return -1
}

// SummarizeTasks recomputes the task summary for a task list.
func SummarizeTasks(tasks []ErrandTask) TaskSummary {
	summary := TaskSummary{
		TotalCount:      len(tasks),
		ActiveTaskIndex: ActiveTaskIndex(tasks),
	}
	for i := range tasks {
		switch tasks[i].State {
		case TaskCompleted:
			summary.CompletedCount++
		case TaskCancelled:
			summary.CancelledCount++
		}
	}
	summary.RemainingCount = summary.TotalCount - summary.CompletedCount - summary.CancelledCount
	return summary
}

// AdvanceTask moves the task at index one step forward along the chain and
// appends a history entry. Only the active task may advance; tasks are worked
// strictly in index order.
func AdvanceTask(tasks []ErrandTask, index int, actorID string, actorType ActorType, now time.Time) (TaskSummary, error) {
	if len(tasks) == 0 {
		return TaskSummary{}, ErrNoTasks
	}
	if index < 0 || index >= len(tasks) {
		return TaskSummary{}, ErrTaskIndexOutOfRange
	}
	if active := ActiveTaskIndex(tasks); active != index {
		return TaskSummary{}, fmt.Errorf("%w: active task is %d", ErrTaskNotActive, active)
	}

	task := &tasks[index]
	next, ok := task.State.Next()
	if !ok {
		return TaskSummary{}, ErrTaskTerminal
	}

	task.State = next
	task.History = append(task.History, TaskHistoryEntry{
		Action:    "advance_to_" + next.String(),
		ActorID:   actorID,
		ActorType: actorType,
		At:        now.UTC(),
	})

	return SummarizeTasks(tasks), nil
}

// CancelOpenTasks marks every non-terminal task CANCELLED, appending a
// history entry per task. Called when the parent ride is cancelled so the
// task list never outlives its ride.
func CancelOpenTasks(tasks []ErrandTask, actorID string, actorType ActorType, now time.Time) int {
	cancelled := 0
	for i := range tasks {
		if tasks[i].State.Terminal() {
			continue
		}
		tasks[i].State = TaskCancelled
		tasks[i].History = append(tasks[i].History, TaskHistoryEntry{
			Action:    "cancel",
			ActorID:   actorID,
			ActorType: actorType,
			At:        now.UTC(),
		})
		cancelled++
	}
	return cancelled
}
