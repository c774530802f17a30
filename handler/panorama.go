package handler

import (
	"github.com/kataras/iris/v12"
	"github.com/streetlens/panorama/api/database"
	"github.com/streetlens/panorama/api/encoding"
	"github.com/streetlens/panorama/api/model"
)

type PanoramaHandler struct {
	Panoramas *database.PanoramaController
	Images    *database.ImageController
}

//List returns every panorama with its claim state and preview URLs.
func (ph *PanoramaHandler) List(ctx iris.Context) {

	panoramas, err := ph.Panoramas.FindPanoramas(ctx.Request().Context())
	if err != nil {
		dbFail(ctx, err, "")
		return
	}

	result := make([]map[string]interface{}, 0, len(panoramas))
	for _, p := range panoramas {
		view := encoding.PanoramaToView(p)

		previews, err := ph.Panoramas.FindPreviews(ctx.Request().Context(), p.Id)
		if err != nil {
			previews = nil
		}
		previewUrls := make([]string, 0, len(previews))
		for _, pa := range previews {
			previewUrls = append(previewUrls, encoding.ImageURL(pa.ImageId))
		}

		info := map[string]interface{}{
			"id":             view.Id,
			"panoramaImage":  view.PanoramaImage,
			"thumbnail":      view.Thumbnail,
			"description":    view.Description,
			"timestamp":      view.ShootTime,
			"longitude":      view.Longitude,
			"latitude":       view.Latitude,
			"status":         view.Status,
			"preview_images": previewUrls,
			"is_used":        false,
		}
		location, err := ph.Panoramas.FindOwningLocation(ctx.Request().Context(), p.Id)
		if err == nil {
			info["is_used"] = true
			info["location_id"] = location.Id
			info["location_name"] = location.Name
		}
		result = append(result, info)
	}
	ok(ctx, result)
}

//Available lists panoramas not claimed by any location.
func (ph *PanoramaHandler) Available(ctx iris.Context) {

	panoramas, err := ph.Panoramas.FindAvailablePanoramas(ctx.Request().Context())
	if err != nil {
		dbFail(ctx, err, "")
		return
	}

	result := make([]map[string]interface{}, 0, len(panoramas))
	for _, p := range panoramas {
		previews, err := ph.Panoramas.FindPreviews(ctx.Request().Context(), p.Id)
		if err != nil {
			previews = nil
		}
		result = append(result, map[string]interface{}{
			"id":             p.Id,
			"panorama_image": encoding.ImageURL(p.ImageId),
			"thumbnail":      encoding.ImageURL(p.ThumbnailId),
			"description":    p.Description,
			"shoot_time":     encoding.FormatTime(p.ShootTime),
			"status":         string(p.Status),
			"preview_count":  len(previews),
			"created_at":     encoding.FormatTime(p.CreatedAt),
		})
	}
	ok(ctx, result)
}

func (ph *PanoramaHandler) GetPreviews(ctx iris.Context) {
	id, err := ctx.Params().GetInt64("panorama_id")
	if err != nil {
		fail(ctx, encoding.CodeBadRequest, "invalid panorama id")
		return
	}
	previews, err := ph.Panoramas.FindPreviews(ctx.Request().Context(), id)
	if err != nil {
		dbFail(ctx, err, "")
		return
	}
	urls := make([]string, 0, len(previews))
	for _, pa := range previews {
		urls = append(urls, encoding.ImageURL(pa.ImageId))
	}
	ok(ctx, urls)
}

type previewIdsRequest struct {
	ImageIds []int64 `json:"image_ids"`
}

func (ph *PanoramaHandler) AddPreviews(ctx iris.Context) {

	id, err := ctx.Params().GetInt64("panorama_id")
	if err != nil {
		fail(ctx, encoding.CodeBadRequest, "invalid panorama id")
		return
	}
	var req previewIdsRequest
	if err := ctx.ReadJSON(&req); err != nil || len(req.ImageIds) == 0 {
		fail(ctx, encoding.CodeBadRequest, "image_ids is required")
		return
	}
	for _, imageId := range req.ImageIds {
		exists, err := ph.Images.ImageExists(ctx.Request().Context(), imageId)
		if err != nil {
			dbFail(ctx, err, "")
			return
		}
		if !exists {
			fail(ctx, encoding.CodeBadRequest, "image does not exist")
			return
		}
	}
	added, err := ph.Panoramas.AddPreviews(ctx.Request().Context(), id, req.ImageIds)
	if err != nil {
		dbFail(ctx, err, "panorama not found")
		return
	}
	okMsg(ctx, "previews added", map[string]interface{}{"added": added})
}

func (ph *PanoramaHandler) RemovePreviews(ctx iris.Context) {

	id, err := ctx.Params().GetInt64("panorama_id")
	if err != nil {
		fail(ctx, encoding.CodeBadRequest, "invalid panorama id")
		return
	}
	var req previewIdsRequest
	if err := ctx.ReadJSON(&req); err != nil || len(req.ImageIds) == 0 {
		fail(ctx, encoding.CodeBadRequest, "image_ids is required")
		return
	}
	removed, err := ph.Panoramas.RemovePreviews(ctx.Request().Context(), id, req.ImageIds)
	if err != nil {
		dbFail(ctx, err, "panorama not found")
		return
	}
	okMsg(ctx, "previews removed", map[string]interface{}{"removed": removed})
}

func (ph *PanoramaHandler) ReorderPreviews(ctx iris.Context) {

	id, err := ctx.Params().GetInt64("panorama_id")
	if err != nil {
		fail(ctx, encoding.CodeBadRequest, "invalid panorama id")
		return
	}
	var req previewIdsRequest
	if err := ctx.ReadJSON(&req); err != nil || len(req.ImageIds) == 0 {
		fail(ctx, encoding.CodeBadRequest, "image_ids is required")
		return
	}
	if err := ph.Panoramas.ReorderPreviews(ctx.Request().Context(), id, req.ImageIds); err != nil {
		dbFail(ctx, err, "panorama not found")
		return
	}
	okMsg(ctx, "previews reordered", map[string]interface{}{"id": id})
}

type reviewRequest struct {
	Action  string `json:"action"`
	Comment string `json:"comment"`
}

//Review applies an approve/reject action. Re-reviewing rewrites the same
//status.
func (ph *PanoramaHandler) Review(ctx iris.Context) {

	id, err := ctx.Params().GetInt64("data_id")
	if err != nil {
		fail(ctx, encoding.CodeBadRequest, "invalid panorama id")
		return
	}
	var req reviewRequest
	if err := ctx.ReadJSON(&req); err != nil {
		fail(ctx, encoding.CodeBadRequest, "invalid request body")
		return
	}
	status, known := model.ReviewOutcome(req.Action)
	if !known {
		fail(ctx, encoding.CodeBadRequest, "action must be approve or reject")
		return
	}
	if err := ph.Panoramas.Review(ctx.Request().Context(), id, status); err != nil {
		dbFail(ctx, err, "panorama not found")
		return
	}
	okMsg(ctx, "review recorded", map[string]interface{}{"id": id, "status": string(status)})
}

//Delete removes a panorama, detaching its location and deleting its preview
//associations and snapshots.
func (ph *PanoramaHandler) Delete(ctx iris.Context) {

	id, err := ctx.Params().GetInt64("data_id")
	if err != nil {
		fail(ctx, encoding.CodeBadRequest, "invalid panorama id")
		return
	}
	if err := ph.Panoramas.DeletePanorama(ctx.Request().Context(), id); err != nil {
		dbFail(ctx, err, "panorama not found")
		return
	}
	okMsg(ctx, "panorama deleted", map[string]interface{}{"id": id})
}
