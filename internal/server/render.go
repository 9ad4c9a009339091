package server

import (
	"github.com/kataras/iris/v12"
	"go.uber.org/zap"

	"github.com/MainDotCpp/BlueUnion/internal/errs"
)

func httpStatus(err error) int {
	switch errs.KindOf(err) {
	case errs.KindNotFound:
		return 404
	case errs.KindValidation, errs.KindConflict:
		return 400
	case errs.KindConcurrency:
		return 409
	default:
		return 500
	}
}

// fail 按错误分类返回对应状态码；内部错误不往外透细节
func fail(ctx iris.Context, err error) {
	status := httpStatus(err)
	if status == 500 {
		zap.L().Error("request failed",
			zap.String("path", ctx.Path()),
			zap.Error(err))
		ctx.StopWithJSON(500, iris.Map{"code": 500, "msg": "服务器内部错误"})
		return
	}
	ctx.StopWithJSON(status, iris.Map{"code": status, "msg": err.Error()})
}

func ok(ctx iris.Context, data interface{}) {
	_ = ctx.JSON(iris.Map{"code": 0, "data": data})
}

func okPage(ctx iris.Context, data interface{}, total int64, page, limit int) {
	_ = ctx.JSON(iris.Map{
		"code":  0,
		"data":  data,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}
