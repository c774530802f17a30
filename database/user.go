package database

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v4"
	"github.com/streetlens/panorama/api/model"
	"go.uber.org/zap"
)

type UserController struct {
	db DB
}

func NewUserController(db DB) *UserController {
	return &UserController{db: db}
}

const userColumns = `id, username, password, email, phone, permission, role, active, last_login_time, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.Id, &u.Username, &u.Password, &u.Email, &u.Phone, &u.Permission,
		&u.Role, &u.Active, &u.LastLoginTime, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (uc *UserController) FindUserById(ctx context.Context, id int64) (*model.User, error) {
	row := uc.db.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
	return scanUser(row)
}

//FindActiveUserByCredentials backs the login endpoint. Plaintext comparison
//is inherited behavior, not an endorsement.
func (uc *UserController) FindActiveUserByCredentials(ctx context.Context, username, password string) (*model.User, error) {
	row := uc.db.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=$1 AND password=$2 AND active=true", username, password)
	return scanUser(row)
}

func (uc *UserController) TouchLastLogin(ctx context.Context, id int64) error {
	_, err := uc.db.Exec(ctx, "UPDATE users SET last_login_time=now(), updated_at=now() WHERE id=$1", id)
	return err
}

func (uc *UserController) FindUsers(ctx context.Context, page, pageSize int) ([]*model.User, int, error) {
	var total int
	if err := uc.db.QueryRow(ctx, "SELECT count(id) FROM users").Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := uc.db.Query(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY id LIMIT $1 OFFSET $2", pageSize, (page-1)*pageSize)
	if err != nil {
		zap.L().Error(err.Error())
		return nil, 0, err
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			zap.S().Warnf("error scanning user row: %s", err.Error())
			continue
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

func (uc *UserController) UpdateUser(ctx context.Context, u *model.User) error {
	sql := `UPDATE users SET username=$1, email=$2, phone=$3, permission=$4, role=$5, active=$6, updated_at=now()
		WHERE id=$7`
	tag, err := uc.db.Exec(ctx, sql, u.Username, u.Email, u.Phone, u.Permission, u.Role, u.Active, u.Id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

const govUserColumns = `id, username, password, email, phone, department, position, permissions, role, active,
	last_login_time, created_at, updated_at`

func scanGovUser(row pgx.Row) (*model.GovernmentUser, error) {
	var u model.GovernmentUser
	var permissions []byte
	err := row.Scan(&u.Id, &u.Username, &u.Password, &u.Email, &u.Phone, &u.Department, &u.Position,
		&permissions, &u.Role, &u.Active, &u.LastLoginTime, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(permissions) > 0 {
		if err := json.Unmarshal(permissions, &u.Permissions); err != nil {
			zap.S().Warnf("error decoding permissions for officer %d: %s", u.Id, err.Error())
		}
	}
	return &u, nil
}

func (uc *UserController) FindGovUserById(ctx context.Context, id int64) (*model.GovernmentUser, error) {
	row := uc.db.QueryRow(ctx, "SELECT "+govUserColumns+" FROM government_users WHERE id = $1", id)
	return scanGovUser(row)
}

func (uc *UserController) FindActiveGovUserByCredentials(ctx context.Context, username, password string) (*model.GovernmentUser, error) {
	row := uc.db.QueryRow(ctx,
		"SELECT "+govUserColumns+" FROM government_users WHERE username=$1 AND password=$2 AND active=true",
		username, password)
	return scanGovUser(row)
}

//FindGovUsers lists active officers, optionally filtered by department and
//role, ordered for assignment pickers.
func (uc *UserController) FindGovUsers(ctx context.Context, department, role string) ([]*model.GovernmentUser, error) {
	sql := "SELECT " + govUserColumns + " FROM government_users WHERE active=true"
	args := []interface{}{}
	if department != "" {
		args = append(args, department)
		sql += " AND department = $1"
	}
	if role != "" {
		args = append(args, role)
		if len(args) == 1 {
			sql += " AND role = $1"
		} else {
			sql += " AND role = $2"
		}
	}
	sql += " ORDER BY department, username"

	rows, err := uc.db.Query(ctx, sql, args...)
	if err != nil {
		zap.L().Error(err.Error())
		return nil, err
	}
	defer rows.Close()

	var users []*model.GovernmentUser
	for rows.Next() {
		u, err := scanGovUser(rows)
		if err != nil {
			zap.S().Warnf("error scanning officer row: %s", err.Error())
			continue
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

//CountOpenTasks counts an officer's tasks that are not yet terminal.
func (uc *UserController) CountOpenTasks(ctx context.Context, govUserId int64) (int, error) {
	var n int
	err := uc.db.QueryRow(ctx,
		`SELECT count(id) FROM law_enforcement_tasks
		WHERE assigned_to = $1 AND status IN ('pending','assigned','in_progress')`, govUserId).Scan(&n)
	return n, err
}
