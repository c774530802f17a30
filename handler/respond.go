package handler

import (
	"github.com/jackc/pgx/v4"
	"github.com/kataras/iris/v12"
	"github.com/streetlens/panorama/api/encoding"
	"go.uber.org/zap"
)

func ok(ctx iris.Context, data interface{}) {
	ctx.JSON(encoding.OK(data))
}

func okMsg(ctx iris.Context, msg string, data interface{}) {
	ctx.JSON(encoding.OKMsg(msg, data))
}

func fail(ctx iris.Context, code, msg string) {
	ctx.JSON(encoding.Fail(code, msg))
}

//dbFail translates controller errors into the envelope: missing rows become a
//404 code, anything else a generic 500. Internals stay out of the response.
func dbFail(ctx iris.Context, err error, notFoundMsg string) {
	if err == pgx.ErrNoRows {
		fail(ctx, encoding.CodeNotFound, notFoundMsg)
		return
	}
	zap.S().Errorf("request %s failed: %s", ctx.Path(), err.Error())
	fail(ctx, encoding.CodeInternal, "internal error")
}

//pageParams reads the 1-based page and pageSize query values with sane bounds.
func pageParams(ctx iris.Context) (int, int) {
	page := ctx.URLParamIntDefault("page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := ctx.URLParamIntDefault("pageSize", 10)
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
