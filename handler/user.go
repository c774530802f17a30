package handler

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/kataras/iris/v12"
	"github.com/streetlens/panorama/api/database"
	"github.com/streetlens/panorama/api/encoding"
)

type UserHandler struct {
	Users *database.UserController
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

//Login checks credentials against active platform users and issues a token.
func (uh *UserHandler) Login(ctx iris.Context) {

	var req loginRequest
	if err := ctx.ReadJSON(&req); err != nil {
		fail(ctx, encoding.CodeBadRequest, "invalid request body")
		return
	}

	user, err := uh.Users.FindActiveUserByCredentials(ctx.Request().Context(), req.Username, req.Password)
	if err == pgx.ErrNoRows {
		fail(ctx, encoding.CodeBadRequest, "invalid username or password")
		return
	}
	if err != nil {
		dbFail(ctx, err, "")
		return
	}
	if err := uh.Users.TouchLastLogin(ctx.Request().Context(), user.Id); err != nil {
		dbFail(ctx, err, "")
		return
	}
	ok(ctx, encoding.UserToLoginInfo(user, uuid.NewString()))
}

func (uh *UserHandler) Logout(ctx iris.Context) {
	okMsg(ctx, "logout successful", nil)
}

func (uh *UserHandler) List(ctx iris.Context) {
	page, pageSize := pageParams(ctx)
	users, total, err := uh.Users.FindUsers(ctx.Request().Context(), page, pageSize)
	if err != nil {
		dbFail(ctx, err, "")
		return
	}
	views := make([]*encoding.UserView, 0, len(users))
	for _, u := range users {
		views = append(views, encoding.UserToView(u))
	}
	ok(ctx, &encoding.Page{List: views, Total: total, Page: page, PageSize: pageSize})
}

type userUpdateRequest struct {
	Username   *string `json:"username"`
	Email      *string `json:"email"`
	Phone      *string `json:"phone"`
	Permission *int    `json:"permission"`
	Role       *string `json:"role"`
	Active     *bool   `json:"active"`
}

func (uh *UserHandler) Update(ctx iris.Context) {

	id, err := ctx.Params().GetInt64("user_id")
	if err != nil {
		fail(ctx, encoding.CodeBadRequest, "invalid user id")
		return
	}
	user, err := uh.Users.FindUserById(ctx.Request().Context(), id)
	if err != nil {
		dbFail(ctx, err, "user not found")
		return
	}

	var req userUpdateRequest
	if err := ctx.ReadJSON(&req); err != nil {
		fail(ctx, encoding.CodeBadRequest, "invalid request body")
		return
	}
	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Permission != nil {
		user.Permission = *req.Permission
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.Active != nil {
		user.Active = *req.Active
	}

	if err := uh.Users.UpdateUser(ctx.Request().Context(), user); err != nil {
		dbFail(ctx, err, "user not found")
		return
	}
	okMsg(ctx, "user updated", encoding.UserToView(user))
}
