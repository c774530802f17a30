package handler

import (
	"time"

	"github.com/kataras/iris/v12"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"github.com/streetlens/panorama/api/database"
	"github.com/streetlens/panorama/api/encoding"
	"github.com/streetlens/panorama/api/model"
)

type TaskHandler struct {
	Tasks *database.TaskController
	Users *database.UserController
}

type taskCreateRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	TaskType    string  `json:"task_type"`
	Priority    string  `json:"priority"`
	Longitude   float64 `json:"longitude"`
	Latitude    float64 `json:"latitude"`
	Address     string  `json:"address"`
	AssignedTo  *int64  `json:"assigned_to"`
	Deadline    string  `json:"deadline"`
	Attachments []int64 `json:"attachments"`
	Remarks     string  `json:"remarks"`
}

//parseDeadline accepts RFC3339 and the two date formats clients send.
func parseDeadline(raw string) (*time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return &t, nil
		}
	}
	return nil, errors.New("unrecognized deadline format")
}

func (th *TaskHandler) Create(ctx iris.Context) {

	var req taskCreateRequest
	if err := ctx.ReadJSON(&req); err != nil {
		fail(ctx, encoding.CodeBadRequest, "invalid request body")
		return
	}
	if req.Title == "" || req.TaskType == "" {
		fail(ctx, encoding.CodeBadRequest, "title and task_type are required")
		return
	}
	if req.Priority == "" {
		req.Priority = string(model.PriorityMedium)
	}
	if !model.TaskPriority(req.Priority).Valid() {
		fail(ctx, encoding.CodeBadRequest, "unknown priority")
		return
	}

	var deadline *time.Time
	if req.Deadline != "" {
		d, err := parseDeadline(req.Deadline)
		if err != nil {
			fail(ctx, encoding.CodeBadRequest, "unable to parse deadline")
			return
		}
		deadline = d
	}

	actor := CurrentPrincipal(ctx).UserId
	code, err := th.Tasks.NextTaskCode(ctx.Request().Context(), time.Now())
	if err != nil {
		dbFail(ctx, err, "")
		return
	}

	task := &model.EnforcementTask{
		Code:        code,
		Title:       req.Title,
		Description: req.Description,
		Type:        req.TaskType,
		Priority:    model.TaskPriority(req.Priority),
		Status:      model.TaskPending,
		Position:    orb.Point{req.Longitude, req.Latitude},
		Address:     req.Address,
		AssignedTo:  req.AssignedTo,
		Deadline:    deadline,
		Attachments: req.Attachments,
		Remarks:     req.Remarks,
		CreatedBy:   actor,
	}
	if req.AssignedTo != nil {
		task.AssignedBy = &actor
	}

	if err := th.Tasks.AddTask(ctx.Request().Context(), task); err != nil {
		dbFail(ctx, err, "")
		return
	}
	okMsg(ctx, "task created", map[string]interface{}{
		"task_id":   task.Id,
		"task_code": task.Code,
		"title":     task.Title,
	})
}

func (th *TaskHandler) List(ctx iris.Context) {

	filter := database.TaskFilter{
		Status:     ctx.URLParam("status"),
		Type:       ctx.URLParam("task_type"),
		Priority:   ctx.URLParam("priority"),
		AssignedTo: ctx.URLParamInt64Default("assigned_to", 0),
		Keyword:    ctx.URLParam("keyword"),
	}
	if raw := ctx.URLParam("start_date"); raw != "" {
		if t, err := time.ParseInLocation("2006-01-02", raw, time.Local); err == nil {
			filter.StartDate = &t
		}
	}
	if raw := ctx.URLParam("end_date"); raw != "" {
		if t, err := time.ParseInLocation("2006-01-02", raw, time.Local); err == nil {
			filter.EndDate = &t
		}
	}
	page, pageSize := pageParams(ctx)

	tasks, total, err := th.Tasks.FindTasks(ctx.Request().Context(), filter, page, pageSize)
	if err != nil {
		dbFail(ctx, err, "")
		return
	}

	views := make([]*encoding.TaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, th.taskView(ctx, t))
	}
	ok(ctx, &encoding.Page{List: views, Total: total, Page: page, PageSize: pageSize})
}

//Map returns the compact task points inside a bounding box.
func (th *TaskHandler) Map(ctx iris.Context) {

	bound, err := encoding.ParseBbox(ctx.URLParam("bbox"))
	if err != nil {
		fail(ctx, encoding.CodeBadRequest, err.Error())
		return
	}
	tasks, err := th.Tasks.FindTasksInBound(ctx.Request().Context(), bound,
		ctx.URLParam("status"), ctx.URLParam("task_type"))
	if err != nil {
		dbFail(ctx, err, "")
		return
	}

	points := make([]*encoding.TaskPoint, 0, len(tasks))
	for _, t := range tasks {
		assignee := ""
		if t.AssignedTo != nil {
			if u, err := th.Users.FindGovUserById(ctx.Request().Context(), *t.AssignedTo); err == nil {
				assignee = u.Username
			}
		}
		points = append(points, encoding.TaskToPoint(t, assignee))
	}
	ok(ctx, points)
}

//Statistics aggregates task counts for the requested period.
func (th *TaskHandler) Statistics(ctx iris.Context) {

	period := ctx.URLParamDefault("period", "month")
	end := time.Now()
	var start time.Time
	switch period {
	case "day":
		start = end.AddDate(0, 0, -1)
	case "week":
		start = end.AddDate(0, 0, -7)
	case "year":
		start = end.AddDate(-1, 0, 0)
	default:
		period = "month"
		start = end.AddDate(0, 0, -30)
	}

	stats, err := th.Tasks.Statistics(ctx.Request().Context(), start)
	if err != nil {
		dbFail(ctx, err, "")
		return
	}

	completionRate := 0.0
	if stats.Total > 0 {
		completionRate = float64(stats.Completed) / float64(stats.Total) * 100
	}
	ok(ctx, map[string]interface{}{
		"period":          period,
		"start_date":      start.Format("2006-01-02"),
		"end_date":        end.Format("2006-01-02"),
		"total":           stats.Total,
		"pending":         stats.Pending,
		"assigned":        stats.Assigned,
		"in_progress":     stats.InProgress,
		"completed":       stats.Completed,
		"cancelled":       stats.Cancelled,
		"completion_rate": completionRate,
		"by_type":         stats.ByType,
		"by_priority":     stats.ByPriority,
	})
}

//Get returns the task detail with its history trail and comments.
func (th *TaskHandler) Get(ctx iris.Context) {

	id, err := ctx.Params().GetInt64("task_id")
	if err != nil {
		fail(ctx, encoding.CodeBadRequest, "invalid task id")
		return
	}
	task, err := th.Tasks.FindTaskById(ctx.Request().Context(), id)
	if err != nil {
		dbFail(ctx, err, "task not found")
		return
	}

	detail := &encoding.TaskDetail{TaskView: *th.taskView(ctx, task)}

	history, err := th.Tasks.FindHistory(ctx.Request().Context(), id)
	if err != nil {
		dbFail(ctx, err, "")
		return
	}
	detail.History = make([]*encoding.HistoryView, 0, len(history))
	for _, h := range history {
		detail.History = append(detail.History, encoding.HistoryToView(h, th.officerName(ctx, h.PerformedBy)))
	}

	comments, err := th.Tasks.FindComments(ctx.Request().Context(), id)
	if err != nil {
		dbFail(ctx, err, "")
		return
	}
	detail.Comments = make([]*encoding.CommentView, 0, len(comments))
	for _, c := range comments {
		detail.Comments = append(detail.Comments, encoding.CommentToView(c, th.officerName(ctx, c.CreatedBy)))
	}

	ok(ctx, detail)
}

type taskUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
	AssignedTo  *int64  `json:"assigned_to"`
	Deadline    *string `json:"deadline"`
	Remarks     *string `json:"remarks"`
}

func (th *TaskHandler) Update(ctx iris.Context) {

	id, err := ctx.Params().GetInt64("task_id")
	if err != nil {
		fail(ctx, encoding.CodeBadRequest, "invalid task id")
		return
	}
	var req taskUpdateRequest
	if err := ctx.ReadJSON(&req); err != nil {
		fail(ctx, encoding.CodeBadRequest, "invalid request body")
		return
	}

	update := database.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
		Remarks:     req.Remarks,
	}
	if req.Priority != nil {
		p := model.TaskPriority(*req.Priority)
		if !p.Valid() {
			fail(ctx, encoding.CodeBadRequest, "unknown priority")
			return
		}
		update.Priority = &p
	}
	if req.Status != nil {
		s := model.TaskStatus(*req.Status)
		if !s.Valid() {
			fail(ctx, encoding.CodeBadRequest, "unknown status")
			return
		}
		update.Status = &s
	}
	if req.Deadline != nil && *req.Deadline != "" {
		d, err := parseDeadline(*req.Deadline)
		if err != nil {
			fail(ctx, encoding.CodeBadRequest, "unable to parse deadline")
			return
		}
		update.Deadline = d
	}

	task, err := th.Tasks.UpdateTask(ctx.Request().Context(), id, update, CurrentPrincipal(ctx).UserId)
	if err != nil {
		if err == database.ErrBadTransition {
			fail(ctx, encoding.CodeBadRequest, err.Error())
			return
		}
		dbFail(ctx, err, "task not found")
		return
	}
	okMsg(ctx, "task updated", map[string]interface{}{"id": task.Id, "status": string(task.Status)})
}

type commentRequest struct {
	Content     string  `json:"content"`
	CommentType string  `json:"comment_type"`
	Attachments []int64 `json:"attachments"`
}

func (th *TaskHandler) AddComment(ctx iris.Context) {

	id, err := ctx.Params().GetInt64("task_id")
	if err != nil {
		fail(ctx, encoding.CodeBadRequest, "invalid task id")
		return
	}
	var req commentRequest
	if err := ctx.ReadJSON(&req); err != nil || req.Content == "" {
		fail(ctx, encoding.CodeBadRequest, "content is required")
		return
	}
	if req.CommentType == "" {
		req.CommentType = "comment"
	}

	comment := &model.TaskComment{
		TaskId:      id,
		Content:     req.Content,
		Type:        req.CommentType,
		CreatedBy:   CurrentPrincipal(ctx).UserId,
		Attachments: req.Attachments,
	}
	if err := th.Tasks.AddComment(ctx.Request().Context(), comment); err != nil {
		dbFail(ctx, err, "task not found")
		return
	}
	okMsg(ctx, "comment added", map[string]interface{}{"id": comment.Id})
}

func (th *TaskHandler) taskView(ctx iris.Context, t *model.EnforcementTask) *encoding.TaskView {
	return encoding.TaskToView(t,
		th.officer(ctx, t.AssignedTo),
		th.officer(ctx, t.AssignedBy),
		th.officer(ctx, &t.CreatedBy))
}

func (th *TaskHandler) officer(ctx iris.Context, id *int64) *model.GovernmentUser {
	if id == nil || *id == 0 {
		return nil
	}
	u, err := th.Users.FindGovUserById(ctx.Request().Context(), *id)
	if err != nil {
		return nil
	}
	return u
}

func (th *TaskHandler) officerName(ctx iris.Context, id int64) string {
	if u := th.officer(ctx, &id); u != nil {
		return u.Username
	}
	return "unknown"
}
