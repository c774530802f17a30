package handler

import (
	"github.com/kataras/iris/v12"
	"github.com/paulmach/orb"
	"github.com/streetlens/panorama/api/database"
	"github.com/streetlens/panorama/api/encoding"
	"github.com/streetlens/panorama/api/model"
	"go.uber.org/zap"
)

type LocationHandler struct {
	Locations   *database.LocationController
	Panoramas   *database.PanoramaController
	Images      *database.ImageController
	TimeMachine *database.TimeMachineController
}

type locationRequest struct {
	Name            string  `json:"name"`
	Longitude       float64 `json:"longitude"`
	Latitude        float64 `json:"latitude"`
	Rating          float64 `json:"rating"`
	Category        string  `json:"category"`
	Description     string  `json:"description"`
	Address         string  `json:"address"`
	PanoramaId      *int64  `json:"panorama_id"`
	PreviewImageIds []int64 `json:"preview_image_ids"`
}

//validationFail maps the controller's sentinel conflicts onto 400 envelopes.
//Returns true when the error was consumed.
func validationFail(ctx iris.Context, err error) bool {
	switch err {
	case database.ErrNameTaken, database.ErrLocationClaimed,
		database.ErrPanoramaClaimed, database.ErrNothingToDetach:
		fail(ctx, encoding.CodeBadRequest, err.Error())
		return true
	}
	return false
}

//locationView assembles the location with its panorama block and preview URLs.
func (lh *LocationHandler) locationView(ctx iris.Context, l *model.Location) *encoding.LocationView {
	if l.PanoramaId == nil {
		return encoding.LocationToView(l, nil, nil)
	}
	p, err := lh.Panoramas.FindPanoramaById(ctx.Request().Context(), *l.PanoramaId)
	if err != nil {
		zap.S().Warnf("location %d references missing panorama %d", l.Id, *l.PanoramaId)
		return encoding.LocationToView(l, nil, nil)
	}
	previews, err := lh.Panoramas.FindPreviews(ctx.Request().Context(), p.Id)
	if err != nil {
		previews = nil
	}
	return encoding.LocationToView(l, p, previews)
}

func (lh *LocationHandler) List(ctx iris.Context) {
	locations, err := lh.Locations.FindLocations(ctx.Request().Context())
	if err != nil {
		dbFail(ctx, err, "")
		return
	}
	views := make([]*encoding.LocationView, 0, len(locations))
	for _, l := range locations {
		views = append(views, lh.locationView(ctx, l))
	}
	ok(ctx, views)
}

func (lh *LocationHandler) Get(ctx iris.Context) {
	id, err := ctx.Params().GetInt64("location_id")
	if err != nil {
		fail(ctx, encoding.CodeBadRequest, "invalid location id")
		return
	}
	location, err := lh.Locations.FindLocationById(ctx.Request().Context(), id)
	if err != nil {
		dbFail(ctx, err, "location not found")
		return
	}
	ok(ctx, lh.locationView(ctx, location))
}

func (lh *LocationHandler) Create(ctx iris.Context) {

	var req locationRequest
	if err := ctx.ReadJSON(&req); err != nil {
		fail(ctx, encoding.CodeBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		fail(ctx, encoding.CodeBadRequest, "name is required")
		return
	}

	location := &model.Location{
		Name:        req.Name,
		Position:    orb.Point{req.Longitude, req.Latitude},
		Rating:      req.Rating,
		Category:    req.Category,
		Description: req.Description,
		Address:     req.Address,
		PanoramaId:  req.PanoramaId,
	}
	if err := lh.Locations.AddLocation(ctx.Request().Context(), location); err != nil {
		if validationFail(ctx, err) {
			return
		}
		dbFail(ctx, err, "")
		return
	}

	if req.PanoramaId != nil && len(req.PreviewImageIds) > 0 {
		ids := lh.existingImages(ctx, req.PreviewImageIds)
		if err := lh.Panoramas.ReplacePreviews(ctx.Request().Context(), *req.PanoramaId, ids); err != nil {
			dbFail(ctx, err, "")
			return
		}
	}

	okMsg(ctx, "location created", map[string]interface{}{
		"id":          location.Id,
		"name":        location.Name,
		"panorama_id": location.PanoramaId,
	})
}

func (lh *LocationHandler) Update(ctx iris.Context) {

	id, err := ctx.Params().GetInt64("location_id")
	if err != nil {
		fail(ctx, encoding.CodeBadRequest, "invalid location id")
		return
	}
	if _, err := lh.Locations.FindLocationById(ctx.Request().Context(), id); err != nil {
		dbFail(ctx, err, "location not found")
		return
	}

	var req locationRequest
	if err := ctx.ReadJSON(&req); err != nil {
		fail(ctx, encoding.CodeBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		fail(ctx, encoding.CodeBadRequest, "name is required")
		return
	}

	location := &model.Location{
		Id:          id,
		Name:        req.Name,
		Position:    orb.Point{req.Longitude, req.Latitude},
		Rating:      req.Rating,
		Category:    req.Category,
		Description: req.Description,
		Address:     req.Address,
		PanoramaId:  req.PanoramaId,
	}

	var previewIds []int64
	if req.PreviewImageIds != nil {
		previewIds = lh.existingImages(ctx, req.PreviewImageIds)
	}
	if err := lh.Locations.UpdateLocation(ctx.Request().Context(), location, previewIds); err != nil {
		if validationFail(ctx, err) {
			return
		}
		dbFail(ctx, err, "")
		return
	}
	okMsg(ctx, "location updated", map[string]interface{}{"id": id})
}

func (lh *LocationHandler) Delete(ctx iris.Context) {
	id, err := ctx.Params().GetInt64("location_id")
	if err != nil {
		fail(ctx, encoding.CodeBadRequest, "invalid location id")
		return
	}
	location, err := lh.Locations.DeleteLocation(ctx.Request().Context(), id)
	if err != nil {
		dbFail(ctx, err, "location not found")
		return
	}
	okMsg(ctx, "location deleted", map[string]interface{}{
		"id":                   location.Id,
		"name":                 location.Name,
		"detached_panorama_id": location.PanoramaId,
	})
}

//DeleteCheck reports what deleting the location would affect.
func (lh *LocationHandler) DeleteCheck(ctx iris.Context) {
	id, err := ctx.Params().GetInt64("location_id")
	if err != nil {
		fail(ctx, encoding.CodeBadRequest, "invalid location id")
		return
	}
	location, err := lh.Locations.FindLocationById(ctx.Request().Context(), id)
	if err != nil {
		dbFail(ctx, err, "location not found")
		return
	}
	ok(ctx, map[string]interface{}{
		"location": map[string]interface{}{
			"id":         location.Id,
			"name":       location.Name,
			"created_at": encoding.FormatTime(location.CreatedAt),
		},
		"affected_data": map[string]interface{}{
			"has_panorama": location.PanoramaId != nil,
			"panorama_id":  location.PanoramaId,
		},
		"warning": location.PanoramaId != nil,
		"message": "deleting this location detaches its panorama but does not delete it",
	})
}

type attachRequest struct {
	PanoramaId      int64   `json:"panorama_id"`
	PreviewImageIds []int64 `json:"preview_image_ids"`
}

func (lh *LocationHandler) Attach(ctx iris.Context) {

	id, err := ctx.Params().GetInt64("location_id")
	if err != nil {
		fail(ctx, encoding.CodeBadRequest, "invalid location id")
		return
	}
	var req attachRequest
	if err := ctx.ReadJSON(&req); err != nil {
		fail(ctx, encoding.CodeBadRequest, "invalid request body")
		return
	}
	if _, err := lh.Panoramas.FindPanoramaById(ctx.Request().Context(), req.PanoramaId); err != nil {
		dbFail(ctx, err, "panorama not found")
		return
	}

	previewIds := lh.existingImages(ctx, req.PreviewImageIds)
	if err := lh.Locations.AttachPanorama(ctx.Request().Context(), id, req.PanoramaId, previewIds); err != nil {
		if validationFail(ctx, err) {
			return
		}
		dbFail(ctx, err, "location not found")
		return
	}
	okMsg(ctx, "panorama attached", map[string]interface{}{
		"location_id": id,
		"panorama_id": req.PanoramaId,
	})
}

func (lh *LocationHandler) Detach(ctx iris.Context) {
	id, err := ctx.Params().GetInt64("location_id")
	if err != nil {
		fail(ctx, encoding.CodeBadRequest, "invalid location id")
		return
	}
	panoramaId, err := lh.Locations.DetachPanorama(ctx.Request().Context(), id)
	if err != nil {
		if validationFail(ctx, err) {
			return
		}
		dbFail(ctx, err, "location not found")
		return
	}
	okMsg(ctx, "panorama detached", map[string]interface{}{
		"location_id": id,
		"panorama_id": panoramaId,
	})
}

//TimeMachineEntries lists a location's historical snapshots with the image
//URLs of their panoramas.
func (lh *LocationHandler) TimeMachineEntries(ctx iris.Context) {

	id, err := ctx.Params().GetInt64("location_id")
	if err != nil {
		fail(ctx, encoding.CodeBadRequest, "invalid location id")
		return
	}
	entries, err := lh.TimeMachine.FindEntriesByLocation(ctx.Request().Context(), id)
	if err != nil {
		dbFail(ctx, err, "")
		return
	}

	views := make([]*encoding.TimeMachineView, 0, len(entries))
	for _, e := range entries {
		p, err := lh.Panoramas.FindPanoramaById(ctx.Request().Context(), e.PanoramaId)
		if err != nil {
			zap.S().Warnf("snapshot %s references missing panorama %d", e.Id, e.PanoramaId)
			p = nil
		}
		views = append(views, encoding.TimeMachineToView(e, p))
	}
	ok(ctx, views)
}

//existingImages filters the id list down to images that exist.
func (lh *LocationHandler) existingImages(ctx iris.Context, ids []int64) []int64 {
	kept := make([]int64, 0, len(ids))
	for _, id := range ids {
		exists, err := lh.Images.ImageExists(ctx.Request().Context(), id)
		if err != nil || !exists {
			zap.S().Warnf("skipping missing preview image %d", id)
			continue
		}
		kept = append(kept, id)
	}
	return kept
}
