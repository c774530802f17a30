package handler

import (
	"github.com/kataras/iris/v12"
	"github.com/streetlens/panorama/api/database"
	"github.com/streetlens/panorama/api/encoding"
	"github.com/streetlens/panorama/api/model"
)

type ShopHandler struct {
	Shops *database.ShopController
}

type shopRequest struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	Province    string `json:"province"`
	City        string `json:"city"`
	District    string `json:"district"`
	Size        string `json:"size"`
	Role        string `json:"role"`
	Active      *bool  `json:"status"`
	AuditStatus string `json:"audit_status"`
}

func (sh *ShopHandler) List(ctx iris.Context) {
	page, pageSize := pageParams(ctx)
	shops, total, err := sh.Shops.FindShops(ctx.Request().Context(), page, pageSize)
	if err != nil {
		dbFail(ctx, err, "")
		return
	}
	views := make([]*encoding.ShopView, 0, len(shops))
	for _, s := range shops {
		views = append(views, encoding.ShopToView(s))
	}
	ok(ctx, &encoding.Page{List: views, Total: total, Page: page, PageSize: pageSize})
}

func (sh *ShopHandler) Get(ctx iris.Context) {
	id, err := ctx.Params().GetInt64("shop_id")
	if err != nil {
		fail(ctx, encoding.CodeBadRequest, "invalid shop id")
		return
	}
	shop, err := sh.Shops.FindShopById(ctx.Request().Context(), id)
	if err != nil {
		dbFail(ctx, err, "shop not found")
		return
	}
	ok(ctx, encoding.ShopToView(shop))
}

func (sh *ShopHandler) Create(ctx iris.Context) {

	var req shopRequest
	if err := ctx.ReadJSON(&req); err != nil {
		fail(ctx, encoding.CodeBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		fail(ctx, encoding.CodeBadRequest, "name is required")
		return
	}
	if req.AuditStatus == "" {
		req.AuditStatus = "pending"
	}

	shop := &model.Shop{
		Name:        req.Name,
		Address:     req.Address,
		Province:    req.Province,
		City:        req.City,
		District:    req.District,
		Size:        req.Size,
		Role:        req.Role,
		Active:      req.Active == nil || *req.Active,
		AuditStatus: req.AuditStatus,
	}
	if err := sh.Shops.AddShop(ctx.Request().Context(), shop); err != nil {
		dbFail(ctx, err, "")
		return
	}
	okMsg(ctx, "shop created", encoding.ShopToView(shop))
}

func (sh *ShopHandler) Update(ctx iris.Context) {

	id, err := ctx.Params().GetInt64("shop_id")
	if err != nil {
		fail(ctx, encoding.CodeBadRequest, "invalid shop id")
		return
	}
	shop, err := sh.Shops.FindShopById(ctx.Request().Context(), id)
	if err != nil {
		dbFail(ctx, err, "shop not found")
		return
	}

	var req shopRequest
	if err := ctx.ReadJSON(&req); err != nil {
		fail(ctx, encoding.CodeBadRequest, "invalid request body")
		return
	}
	if req.Name != "" {
		shop.Name = req.Name
	}
	if req.Address != "" {
		shop.Address = req.Address
	}
	if req.Province != "" {
		shop.Province = req.Province
	}
	if req.City != "" {
		shop.City = req.City
	}
	if req.District != "" {
		shop.District = req.District
	}
	if req.Size != "" {
		shop.Size = req.Size
	}
	if req.Role != "" {
		shop.Role = req.Role
	}
	if req.Active != nil {
		shop.Active = *req.Active
	}
	if req.AuditStatus != "" {
		shop.AuditStatus = req.AuditStatus
	}

	if err := sh.Shops.UpdateShop(ctx.Request().Context(), shop); err != nil {
		dbFail(ctx, err, "shop not found")
		return
	}
	okMsg(ctx, "shop updated", encoding.ShopToView(shop))
}

type shopStatusRequest struct {
	Active bool `json:"status"`
}

func (sh *ShopHandler) SetStatus(ctx iris.Context) {

	id, err := ctx.Params().GetInt64("shop_id")
	if err != nil {
		fail(ctx, encoding.CodeBadRequest, "invalid shop id")
		return
	}
	var req shopStatusRequest
	if err := ctx.ReadJSON(&req); err != nil {
		fail(ctx, encoding.CodeBadRequest, "invalid request body")
		return
	}
	if err := sh.Shops.SetShopActive(ctx.Request().Context(), id, req.Active); err != nil {
		dbFail(ctx, err, "shop not found")
		return
	}
	okMsg(ctx, "shop status updated", map[string]interface{}{"id": id, "status": req.Active})
}

func (sh *ShopHandler) Delete(ctx iris.Context) {
	id, err := ctx.Params().GetInt64("shop_id")
	if err != nil {
		fail(ctx, encoding.CodeBadRequest, "invalid shop id")
		return
	}
	if err := sh.Shops.DeleteShop(ctx.Request().Context(), id); err != nil {
		dbFail(ctx, err, "shop not found")
		return
	}
	okMsg(ctx, "shop deleted", map[string]interface{}{"id": id})
}
