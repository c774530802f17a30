package handler

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/kataras/iris/v12"
	"github.com/streetlens/panorama/api/database"
	"github.com/streetlens/panorama/api/encoding"
)

type GovernmentHandler struct {
	Users *database.UserController
}

//Login checks credentials against active officers and issues a token.
func (gh *GovernmentHandler) Login(ctx iris.Context) {

	var req loginRequest
	if err := ctx.ReadJSON(&req); err != nil {
		fail(ctx, encoding.CodeBadRequest, "invalid request body")
		return
	}

	user, err := gh.Users.FindActiveGovUserByCredentials(ctx.Request().Context(), req.Username, req.Password)
	if err == pgx.ErrNoRows {
		fail(ctx, encoding.CodeBadRequest, "invalid username or password")
		return
	}
	if err != nil {
		dbFail(ctx, err, "")
		return
	}
	ok(ctx, encoding.GovUserToLoginInfo(user, uuid.NewString()))
}

//Officers lists active officers with their open task counts, for the
//assignment picker.
func (gh *GovernmentHandler) Officers(ctx iris.Context) {

	users, err := gh.Users.FindGovUsers(ctx.Request().Context(),
		ctx.URLParam("department"), ctx.URLParam("role"))
	if err != nil {
		dbFail(ctx, err, "")
		return
	}

	views := make([]*encoding.GovUserView, 0, len(users))
	for _, u := range users {
		open, err := gh.Users.CountOpenTasks(ctx.Request().Context(), u.Id)
		if err != nil {
			dbFail(ctx, err, "")
			return
		}
		views = append(views, encoding.GovUserToView(u, open))
	}
	ok(ctx, views)
}
