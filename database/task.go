package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"github.com/streetlens/panorama/api/model"
	"go.uber.org/zap"
)

var ErrBadTransition = errors.New("invalid task status transition")

type TaskController struct {
	db DB
}

func NewTaskController(db DB) *TaskController {
	return &TaskController{db: db}
}

//TaskFilter narrows List queries. Zero values mean "no filter".
type TaskFilter struct {
	Status     string
	Type       string
	Priority   string
	AssignedTo int64
	StartDate  *time.Time
	EndDate    *time.Time
	Keyword    string
}

//TaskUpdate carries the mutable task fields; nil means "leave unchanged".
type TaskUpdate struct {
	Title       *string
	Description *string
	Priority    *model.TaskPriority
	Status      *model.TaskStatus
	AssignedTo  *int64
	Deadline    *time.Time
	Remarks     *string
}

const taskColumns = `id, task_code, title, description, task_type, priority, status,
	longitude, latitude, address, assigned_to, assigned_by, deadline, completion_time,
	attachments, remarks, coalesce(created_by, 0), created_at, updated_at`

func scanTask(row pgx.Row) (*model.EnforcementTask, error) {
	var t model.EnforcementTask
	var lon, lat float64
	var priority, status string
	var attachments []byte
	err := row.Scan(&t.Id, &t.Code, &t.Title, &t.Description, &t.Type, &priority, &status,
		&lon, &lat, &t.Address, &t.AssignedTo, &t.AssignedBy, &t.Deadline, &t.CompletionTime,
		&attachments, &t.Remarks, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Position = orb.Point{lon, lat}
	t.Priority = model.TaskPriority(priority)
	t.Status = model.TaskStatus(status)
	if len(attachments) > 0 {
		if err := json.Unmarshal(attachments, &t.Attachments); err != nil {
			zap.S().Warnf("error decoding attachments for task %d: %s", t.Id, err.Error())
		}
	}
	return &t, nil
}

func scanTasks(rows pgx.Rows) ([]*model.EnforcementTask, error) {
	var tasks []*model.EnforcementTask
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			zap.S().Warnf("error scanning task row: %s", err.Error())
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

//NextTaskCode builds TASK-YYYYMMDD-NNN where NNN counts today's tasks.
func (tc *TaskController) NextTaskCode(ctx context.Context, now time.Time) (string, error) {
	var count int
	err := tc.db.QueryRow(ctx,
		"SELECT count(id) FROM law_enforcement_tasks WHERE created_at::date = $1::date", now).Scan(&count)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("TASK-%s-%03d", now.Format("20060102"), count+1), nil
}

//AddTask creates the task and its initial history row in one transaction.
func (tc *TaskController) AddTask(ctx context.Context, t *model.EnforcementTask) error {

	attachments, err := json.Marshal(attachmentsOrEmpty(t.Attachments))
	if err != nil {
		return err
	}

	tx, err := tc.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	sql := `INSERT INTO law_enforcement_tasks(task_code, title, description, task_type, priority, status,
		longitude, latitude, address, assigned_to, assigned_by, deadline, attachments, remarks, created_by)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15) RETURNING id, created_at, updated_at`
	err = tx.QueryRow(ctx, sql, t.Code, t.Title, t.Description, t.Type, string(t.Priority), string(t.Status),
		t.Position.X(), t.Position.Y(), t.Address, t.AssignedTo, t.AssignedBy, t.Deadline,
		attachments, t.Remarks, t.CreatedBy).Scan(&t.Id, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		zap.S().Errorf("error adding task %s: %s", t.Code, err.Error())
		return err
	}

	history := `INSERT INTO task_history(task_id, action, description, performed_by, old_status, new_status)
		VALUES($1,$2,$3,$4,$5,$6)`
	if _, err := tx.Exec(ctx, history, t.Id, "create", "created task: "+t.Title,
		t.CreatedBy, "", string(model.TaskPending)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (tc *TaskController) FindTaskById(ctx context.Context, id int64) (*model.EnforcementTask, error) {
	row := tc.db.QueryRow(ctx, "SELECT "+taskColumns+" FROM law_enforcement_tasks WHERE id = $1", id)
	return scanTask(row)
}

//FindTasks applies the filter and returns one page plus the total count.
func (tc *TaskController) FindTasks(ctx context.Context, filter TaskFilter, page, pageSize int) ([]*model.EnforcementTask, int, error) {

	where := " WHERE 1=1"
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Status != "" {
		where += " AND status = " + arg(filter.Status)
	}
	if filter.Type != "" {
		where += " AND task_type = " + arg(filter.Type)
	}
	if filter.Priority != "" {
		where += " AND priority = " + arg(filter.Priority)
	}
	if filter.AssignedTo != 0 {
		where += " AND assigned_to = " + arg(filter.AssignedTo)
	}
	if filter.StartDate != nil {
		where += " AND created_at >= " + arg(*filter.StartDate)
	}
	if filter.EndDate != nil {
		where += " AND created_at < " + arg(filter.EndDate.AddDate(0, 0, 1))
	}
	if filter.Keyword != "" {
		kw := arg("%" + filter.Keyword + "%")
		where += " AND (title LIKE " + kw + " OR description LIKE " + kw + " OR task_code LIKE " + kw + ")"
	}

	var total int
	if err := tc.db.QueryRow(ctx, "SELECT count(id) FROM law_enforcement_tasks"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sql := "SELECT " + taskColumns + " FROM law_enforcement_tasks" + where +
		" ORDER BY created_at DESC LIMIT " + arg(pageSize) + " OFFSET " + arg((page-1)*pageSize)
	rows, err := tc.db.Query(ctx, sql, args...)
	if err != nil {
		zap.L().Error(err.Error())
		return nil, 0, err
	}
	defer rows.Close()

	tasks, err := scanTasks(rows)
	return tasks, total, err
}

//FindTasksInBound returns tasks inside the bounding box for map display.
func (tc *TaskController) FindTasksInBound(ctx context.Context, bound *orb.Bound, status, taskType string) ([]*model.EnforcementTask, error) {

	where := " WHERE longitude BETWEEN $1 AND $2 AND latitude BETWEEN $3 AND $4"
	args := []interface{}{bound.Min.X(), bound.Max.X(), bound.Min.Y(), bound.Max.Y()}
	if status != "" {
		args = append(args, status)
		where += " AND status = $" + strconv.Itoa(len(args))
	}
	if taskType != "" {
		args = append(args, taskType)
		where += " AND task_type = $" + strconv.Itoa(len(args))
	}

	rows, err := tc.db.Query(ctx, "SELECT "+taskColumns+" FROM law_enforcement_tasks"+where, args...)
	if err != nil {
		zap.L().Error(err.Error())
		return nil, err
	}
	defer rows.Close()
	return scanTasks(rows)
}

//UpdateTask applies the changes, validates any status transition, stamps the
//completion time on entry into a terminal state and appends a history row.
//assigned_to and status remain independently settable fields.
func (tc *TaskController) UpdateTask(ctx context.Context, id int64, update TaskUpdate, actor int64) (*model.EnforcementTask, error) {

	task, err := tc.FindTaskById(ctx, id)
	if err != nil {
		return nil, err
	}
	oldStatus := task.Status

	if update.Title != nil {
		task.Title = *update.Title
	}
	if update.Description != nil {
		task.Description = *update.Description
	}
	if update.Priority != nil {
		task.Priority = *update.Priority
	}
	if update.Status != nil {
		if !oldStatus.CanTransition(*update.Status) {
			return nil, ErrBadTransition
		}
		task.Status = *update.Status
	}
	if update.AssignedTo != nil {
		if task.AssignedTo == nil || *task.AssignedTo != *update.AssignedTo {
			task.AssignedBy = &actor
		}
		task.AssignedTo = update.AssignedTo
	}
	if update.Deadline != nil {
		task.Deadline = update.Deadline
	}
	if update.Remarks != nil {
		task.Remarks = *update.Remarks
	}

	//completion time is written once per entry into a terminal state and
	//never cleared afterwards
	if task.Status.Terminal() && !oldStatus.Terminal() {
		now := time.Now()
		task.CompletionTime = &now
	}

	tx, err := tc.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	sql := `UPDATE law_enforcement_tasks SET title=$1, description=$2, priority=$3, status=$4,
		assigned_to=$5, assigned_by=$6, deadline=$7, completion_time=$8, remarks=$9, updated_at=now()
		WHERE id=$10`
	if _, err := tx.Exec(ctx, sql, task.Title, task.Description, string(task.Priority), string(task.Status),
		task.AssignedTo, task.AssignedBy, task.Deadline, task.CompletionTime, task.Remarks, id); err != nil {
		return nil, err
	}

	history := `INSERT INTO task_history(task_id, action, description, performed_by, old_status, new_status)
		VALUES($1,$2,$3,$4,$5,$6)`
	if _, err := tx.Exec(ctx, history, id, "update", "updated task fields",
		actor, string(oldStatus), string(task.Status)); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return task, nil
}

//AddComment appends a comment and its history row.
func (tc *TaskController) AddComment(ctx context.Context, c *model.TaskComment) error {

	if _, err := tc.FindTaskById(ctx, c.TaskId); err != nil {
		return err
	}
	attachments, err := json.Marshal(attachmentsOrEmpty(c.Attachments))
	if err != nil {
		return err
	}

	tx, err := tc.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	sql := `INSERT INTO task_comments(task_id, content, comment_type, created_by, attachments)
		VALUES($1,$2,$3,$4,$5) RETURNING id, created_at`
	if err := tx.QueryRow(ctx, sql, c.TaskId, c.Content, c.Type, c.CreatedBy, attachments).
		Scan(&c.Id, &c.CreatedAt); err != nil {
		return err
	}

	//truncate on runes, multi-byte content must not be split mid-character
	summary := c.Content
	if r := []rune(summary); len(r) > 50 {
		summary = string(r[:50]) + "..."
	}
	history := `INSERT INTO task_history(task_id, action, description, performed_by, old_status, new_status)
		VALUES($1,$2,$3,$4,'','')`
	if _, err := tx.Exec(ctx, history, c.TaskId, "comment", "added "+c.Type+": "+summary, c.CreatedBy); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

//FindHistory returns the append-only trail, oldest first.
func (tc *TaskController) FindHistory(ctx context.Context, taskId int64) ([]*model.TaskHistoryEntry, error) {
	sql := `SELECT id, task_id, action, description, performed_by, performed_at, old_status, new_status
		FROM task_history WHERE task_id = $1 ORDER BY performed_at, id`
	rows, err := tc.db.Query(ctx, sql, taskId)
	if err != nil {
		zap.L().Error(err.Error())
		return nil, err
	}
	defer rows.Close()

	var entries []*model.TaskHistoryEntry
	for rows.Next() {
		var h model.TaskHistoryEntry
		if err := rows.Scan(&h.Id, &h.TaskId, &h.Action, &h.Description, &h.PerformedBy,
			&h.PerformedAt, &h.OldStatus, &h.NewStatus); err != nil {
			zap.S().Warnf("error scanning history row: %s", err.Error())
			continue
		}
		entries = append(entries, &h)
	}
	return entries, rows.Err()
}

//FindComments returns the task's comments, oldest first.
func (tc *TaskController) FindComments(ctx context.Context, taskId int64) ([]*model.TaskComment, error) {
	sql := `SELECT id, task_id, content, comment_type, created_by, created_at, attachments
		FROM task_comments WHERE task_id = $1 ORDER BY created_at, id`
	rows, err := tc.db.Query(ctx, sql, taskId)
	if err != nil {
		zap.L().Error(err.Error())
		return nil, err
	}
	defer rows.Close()

	var comments []*model.TaskComment
	for rows.Next() {
		var c model.TaskComment
		var attachments []byte
		if err := rows.Scan(&c.Id, &c.TaskId, &c.Content, &c.Type, &c.CreatedBy, &c.CreatedAt, &attachments); err != nil {
			zap.S().Warnf("error scanning comment row: %s", err.Error())
			continue
		}
		if len(attachments) > 0 {
			json.Unmarshal(attachments, &c.Attachments)
		}
		comments = append(comments, &c)
	}
	return comments, rows.Err()
}

//TaskStatistics aggregates task counts created since a start date.
type TaskStatistics struct {
	Total      int
	Pending    int
	Assigned   int
	InProgress int
	Completed  int
	Cancelled  int
	ByType     map[string]int
	ByPriority map[string]int
}

func (tc *TaskController) Statistics(ctx context.Context, since time.Time) (*TaskStatistics, error) {

	stats := &TaskStatistics{
		ByType:     make(map[string]int),
		ByPriority: make(map[string]int),
	}

	rows, err := tc.db.Query(ctx,
		"SELECT status, count(id) FROM law_enforcement_tasks WHERE created_at >= $1 GROUP BY status", since)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			continue
		}
		stats.Total += n
		switch model.TaskStatus(status) {
		case model.TaskPending:
			stats.Pending = n
		case model.TaskAssigned:
			stats.Assigned = n
		case model.TaskInProgress:
			stats.InProgress = n
		case model.TaskCompleted:
			stats.Completed = n
		case model.TaskCancelled:
			stats.Cancelled = n
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tc.countGroups(ctx, "task_type", since, stats.ByType); err != nil {
		return nil, err
	}
	if err := tc.countGroups(ctx, "priority", since, stats.ByPriority); err != nil {
		return nil, err
	}
	return stats, nil
}

func (tc *TaskController) countGroups(ctx context.Context, column string, since time.Time, into map[string]int) error {
	rows, err := tc.db.Query(ctx,
		"SELECT "+column+", count(id) FROM law_enforcement_tasks WHERE created_at >= $1 GROUP BY "+column, since)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			continue
		}
		into[key] = n
	}
	return rows.Err()
}

//CountByStatus powers the task statistics endpoint.
func (tc *TaskController) CountByStatus(ctx context.Context) (map[model.TaskStatus]int, error) {
	rows, err := tc.db.Query(ctx, "SELECT status, count(id) FROM law_enforcement_tasks GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.TaskStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			continue
		}
		counts[model.TaskStatus(status)] = n
	}
	return counts, rows.Err()
}

func attachmentsOrEmpty(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
