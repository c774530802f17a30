package encoding

import (
	"github.com/streetlens/panorama/api/model"
)

//UserRef is the nested officer block embedded in task responses.
type UserRef struct {
	Id         int64  `json:"id"`
	Username   string `json:"username"`
	Department string `json:"department,omitempty"`
	Position   string `json:"position,omitempty"`
}

//GovUserToRef is nil-safe; a missing officer renders as null.
func GovUserToRef(u *model.GovernmentUser) *UserRef {
	if u == nil {
		return nil
	}
	return &UserRef{
		Id:         u.Id,
		Username:   u.Username,
		Department: u.Department,
		Position:   u.Position,
	}
}

type TaskView struct {
	Id             int64    `json:"id"`
	TaskCode       string   `json:"task_code"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	TaskType       string   `json:"task_type"`
	Priority       string   `json:"priority"`
	Status         string   `json:"status"`
	Longitude      float64  `json:"longitude"`
	Latitude       float64  `json:"latitude"`
	Address        string   `json:"address"`
	AssignedTo     *UserRef `json:"assigned_to"`
	AssignedBy     *UserRef `json:"assigned_by,omitempty"`
	CreatedBy      *UserRef `json:"created_by"`
	Deadline       string   `json:"deadline,omitempty"`
	CompletionTime string   `json:"completion_time,omitempty"`
	Attachments    []string `json:"attachments"`
	Remarks        string   `json:"remarks"`
	CreatedAt      string   `json:"created_at"`
	UpdatedAt      string   `json:"updated_at"`
}

func TaskToView(t *model.EnforcementTask, assignedTo, assignedBy, createdBy *model.GovernmentUser) *TaskView {
	return &TaskView{
		Id:             t.Id,
		TaskCode:       t.Code,
		Title:          t.Title,
		Description:    t.Description,
		TaskType:       t.Type,
		Priority:       string(t.Priority),
		Status:         string(t.Status),
		Longitude:      t.Position.X(),
		Latitude:       t.Position.Y(),
		Address:        t.Address,
		AssignedTo:     GovUserToRef(assignedTo),
		AssignedBy:     GovUserToRef(assignedBy),
		CreatedBy:      GovUserToRef(createdBy),
		Deadline:       FormatTimePtr(t.Deadline),
		CompletionTime: FormatTimePtr(t.CompletionTime),
		Attachments:    ImageURLs(t.Attachments),
		Remarks:        t.Remarks,
		CreatedAt:      FormatTime(t.CreatedAt),
		UpdatedAt:      FormatTime(t.UpdatedAt),
	}
}

//TaskDetail is the task view plus its history trail and comments.
type TaskDetail struct {
	TaskView
	History  []*HistoryView `json:"history"`
	Comments []*CommentView `json:"comments"`
}

type HistoryView struct {
	Id          int64  `json:"id"`
	Action      string `json:"action"`
	Description string `json:"description"`
	PerformedBy string `json:"performed_by"`
	PerformedAt string `json:"performed_at"`
	OldStatus   string `json:"old_status"`
	NewStatus   string `json:"new_status"`
}

func HistoryToView(h *model.TaskHistoryEntry, performer string) *HistoryView {
	return &HistoryView{
		Id:          h.Id,
		Action:      h.Action,
		Description: h.Description,
		PerformedBy: performer,
		PerformedAt: FormatTime(h.PerformedAt),
		OldStatus:   h.OldStatus,
		NewStatus:   h.NewStatus,
	}
}

type CommentView struct {
	Id          int64    `json:"id"`
	Content     string   `json:"content"`
	CommentType string   `json:"comment_type"`
	CreatedBy   string   `json:"created_by"`
	CreatedAt   string   `json:"created_at"`
	Attachments []string `json:"attachments"`
}

func CommentToView(c *model.TaskComment, commenter string) *CommentView {
	return &CommentView{
		Id:          c.Id,
		Content:     c.Content,
		CommentType: c.Type,
		CreatedBy:   commenter,
		CreatedAt:   FormatTime(c.CreatedAt),
		Attachments: ImageURLs(c.Attachments),
	}
}

//TaskPoint is the compact shape used by the map endpoint.
type TaskPoint struct {
	Id         int64   `json:"id"`
	TaskCode   string  `json:"task_code"`
	Title      string  `json:"title"`
	TaskType   string  `json:"task_type"`
	Priority   string  `json:"priority"`
	Status     string  `json:"status"`
	Longitude  float64 `json:"longitude"`
	Latitude   float64 `json:"latitude"`
	Address    string  `json:"address"`
	AssignedTo string  `json:"assigned_to,omitempty"`
	Deadline   string  `json:"deadline,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

func TaskToPoint(t *model.EnforcementTask, assignee string) *TaskPoint {
	return &TaskPoint{
		Id:         t.Id,
		TaskCode:   t.Code,
		Title:      t.Title,
		TaskType:   t.Type,
		Priority:   string(t.Priority),
		Status:     string(t.Status),
		Longitude:  t.Position.X(),
		Latitude:   t.Position.Y(),
		Address:    t.Address,
		AssignedTo: assignee,
		Deadline:   FormatTimePtr(t.Deadline),
		CreatedAt:  FormatTime(t.CreatedAt),
	}
}

type GovUserView struct {
	Id            int64  `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Department    string `json:"department"`
	Position      string `json:"position"`
	Role          string `json:"role"`
	AssignedTasks int    `json:"assigned_tasks"`
	LastLogin     string `json:"last_login,omitempty"`
}

func GovUserToView(u *model.GovernmentUser, assignedTasks int) *GovUserView {
	return &GovUserView{
		Id:            u.Id,
		Username:      u.Username,
		Email:         u.Email,
		Phone:         u.Phone,
		Department:    u.Department,
		Position:      u.Position,
		Role:          u.Role,
		AssignedTasks: assignedTasks,
		LastLogin:     FormatTimePtr(u.LastLoginTime),
	}
}
