package database

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streetlens/panorama/api/model"
)

func taskRow(id int64, status model.TaskStatus, completionTime interface{}) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows([]string{"id", "task_code", "title", "description", "task_type",
		"priority", "status", "longitude", "latitude", "address", "assigned_to", "assigned_by",
		"deadline", "completion_time", "attachments", "remarks", "created_by", "created_at", "updated_at"}).
		AddRow(id, "TASK-20260828-001", "overflowing bins", "", "sanitation", "medium", string(status),
			114.4, 23.5, "", nil, nil, nil, completionTime, []byte("[]"), "", int64(1), now, now)
}

func TestNextTaskCode(t *testing.T) {

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT count").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(4))

	tc := NewTaskController(mock)
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	code, err := tc.NextTaskCode(context.Background(), now)

	assert.NoError(t, err)
	assert.Equal(t, "TASK-20260828-005", code)
}

//Completing a task stamps completion_time and appends a history row in the
//same transaction as the update.
func TestUpdateTaskCompletion(t *testing.T) {

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("FROM law_enforcement_tasks WHERE id").
		WillReturnRows(taskRow(3, model.TaskInProgress, nil))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE law_enforcement_tasks SET").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO task_history").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	tc := NewTaskController(mock)
	completed := model.TaskCompleted
	task, err := tc.UpdateTask(context.Background(), 3, TaskUpdate{Status: &completed}, 2)

	require.NoError(t, err)
	assert.Equal(t, model.TaskCompleted, task.Status)
	require.NotNil(t, task.CompletionTime)
	assert.WithinDuration(t, time.Now(), *task.CompletionTime, time.Minute)
	assert.NoError(t, mock.ExpectationsWereMet())
}

//A same-status rewrite of a terminal task must not move completion_time.
func TestUpdateTaskKeepsCompletionTime(t *testing.T) {

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	finished := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM law_enforcement_tasks WHERE id").
		WillReturnRows(taskRow(3, model.TaskCompleted, &finished))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE law_enforcement_tasks SET").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO task_history").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	tc := NewTaskController(mock)
	remarks := "verified on site"
	completed := model.TaskCompleted
	task, err := tc.UpdateTask(context.Background(), 3,
		TaskUpdate{Status: &completed, Remarks: &remarks}, 2)

	require.NoError(t, err)
	require.NotNil(t, task.CompletionTime)
	assert.True(t, task.CompletionTime.Equal(finished))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTaskBadTransition(t *testing.T) {

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	finished := time.Now()
	mock.ExpectQuery("FROM law_enforcement_tasks WHERE id").
		WillReturnRows(taskRow(3, model.TaskCompleted, &finished))

	tc := NewTaskController(mock)
	pending := model.TaskPending
	_, err = tc.UpdateTask(context.Background(), 3, TaskUpdate{Status: &pending}, 2)

	assert.Equal(t, ErrBadTransition, err)
	//rejected before any write
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTaskAssignmentRecordsActor(t *testing.T) {

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("FROM law_enforcement_tasks WHERE id").
		WillReturnRows(taskRow(3, model.TaskPending, nil))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE law_enforcement_tasks SET").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO task_history").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	tc := NewTaskController(mock)
	assignee := int64(4)
	task, err := tc.UpdateTask(context.Background(), 3, TaskUpdate{AssignedTo: &assignee}, 2)

	require.NoError(t, err)
	require.NotNil(t, task.AssignedBy)
	assert.Equal(t, int64(2), *task.AssignedBy)
	//status does not move just because an assignee was set
	assert.Equal(t, model.TaskPending, task.Status)
}

func TestStatistics(t *testing.T) {

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT status, count").
		WillReturnRows(pgxmock.NewRows([]string{"status", "count"}).
			AddRow("pending", 2).
			AddRow("completed", 3))
	mock.ExpectQuery("SELECT task_type, count").
		WillReturnRows(pgxmock.NewRows([]string{"task_type", "count"}).
			AddRow("sanitation", 4).
			AddRow("signage", 1))
	mock.ExpectQuery("SELECT priority, count").
		WillReturnRows(pgxmock.NewRows([]string{"priority", "count"}).
			AddRow("medium", 5))

	tc := NewTaskController(mock)
	stats, err := tc.Statistics(context.Background(), time.Now().AddDate(0, 0, -7))

	require.NoError(t, err)
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 2, stats.Pending)
	assert.Equal(t, 3, stats.Completed)
	assert.Equal(t, 0, stats.Cancelled)
	assert.Equal(t, map[string]int{"sanitation": 4, "signage": 1}, stats.ByType)
	assert.Equal(t, map[string]int{"medium": 5}, stats.ByPriority)
}

//Long comment content is shortened for the history description on rune
//boundaries, so multi-byte text never persists as broken UTF-8.
func TestAddCommentTruncatesSummaryOnRunes(t *testing.T) {

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	content := strings.Repeat("拆", 60)
	wantDescription := "added note: " + strings.Repeat("拆", 50) + "..."

	mock.ExpectQuery("FROM law_enforcement_tasks WHERE id").
		WillReturnRows(taskRow(3, model.TaskInProgress, nil))
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO task_comments").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(12), time.Now()))
	mock.ExpectExec("INSERT INTO task_history").
		WithArgs(int64(3), "comment", wantDescription, int64(2)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	tc := NewTaskController(mock)
	err = tc.AddComment(context.Background(), &model.TaskComment{
		TaskId:    3,
		Content:   content,
		Type:      "note",
		CreatedBy: 2,
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddTaskWritesCreateHistory(t *testing.T) {

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO law_enforcement_tasks").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(9), now, now))
	mock.ExpectExec("INSERT INTO task_history").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	tc := NewTaskController(mock)
	task := &model.EnforcementTask{
		Code:      fmt.Sprintf("TASK-%s-001", now.Format("20060102")),
		Title:     "overflowing bins",
		Type:      "sanitation",
		Priority:  model.PriorityMedium,
		Status:    model.TaskPending,
		CreatedBy: 1,
	}
	err = tc.AddTask(context.Background(), task)

	assert.NoError(t, err)
	assert.Equal(t, int64(9), task.Id)
	assert.NoError(t, mock.ExpectationsWereMet())
}
