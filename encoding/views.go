package encoding

import (
	"fmt"
	"time"

	"github.com/streetlens/panorama/api/model"
)

const (
	timeLayout = "2006-01-02 15:04:05"
)

//ImageURL is the canonical fetch path for a stored image.
func ImageURL(id int64) string {
	return fmt.Sprintf("/api/images/%d", id)
}

//ImageURLs maps ids to fetch paths, never returning nil.
func ImageURLs(ids []int64) []string {
	urls := make([]string, 0, len(ids))
	for _, id := range ids {
		urls = append(urls, ImageURL(id))
	}
	return urls
}

func FormatTime(t time.Time) string {
	return t.Format(timeLayout)
}

func FormatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(timeLayout)
}

type ImageInfo struct {
	ImageId   int64  `json:"imageId"`
	Filename  string `json:"filename"`
	MimeType  string `json:"mimeType"`
	FileSize  int64  `json:"fileSize"`
	ImageType string `json:"imageType"`
	CreatedAt string `json:"createdAt"`
}

func ImageToInfo(img *model.StoredImage) *ImageInfo {
	return &ImageInfo{
		ImageId:   img.Id,
		Filename:  img.Filename,
		MimeType:  img.MimeType,
		FileSize:  img.Size,
		ImageType: string(img.Type),
		CreatedAt: FormatTime(img.CreatedAt),
	}
}

//PanoramaSummary is the panorama block nested inside a location.
type PanoramaSummary struct {
	Id            int64   `json:"id"`
	PanoramaImage string  `json:"panorama_image"`
	Thumbnail     string  `json:"thumbnail"`
	Description   string  `json:"description"`
	ShootTime     string  `json:"shoot_time"`
	Longitude     float64 `json:"longitude"`
	Latitude      float64 `json:"latitude"`
	Status        string  `json:"status"`
}

func PanoramaToSummary(p *model.Panorama) *PanoramaSummary {
	return &PanoramaSummary{
		Id:            p.Id,
		PanoramaImage: ImageURL(p.ImageId),
		Thumbnail:     ImageURL(p.ThumbnailId),
		Description:   p.Description,
		ShootTime:     FormatTime(p.ShootTime),
		Longitude:     p.Position.X(),
		Latitude:      p.Position.Y(),
		Status:        string(p.Status),
	}
}

//PanoramaView is the full panorama shape used by list and detail responses.
type PanoramaView struct {
	Id            int64             `json:"id"`
	PanoramaImage string            `json:"panorama_image"`
	Thumbnail     string            `json:"thumbnail"`
	Description   string            `json:"description"`
	ShootTime     string            `json:"shoot_time"`
	Longitude     float64           `json:"longitude"`
	Latitude      float64           `json:"latitude"`
	Status        string            `json:"status"`
	Metadata      model.CaptureMeta `json:"metadata"`
	CreatedAt     string            `json:"created_at"`
	UpdatedAt     string            `json:"updated_at"`
}

func PanoramaToView(p *model.Panorama) *PanoramaView {
	return &PanoramaView{
		Id:            p.Id,
		PanoramaImage: ImageURL(p.ImageId),
		Thumbnail:     ImageURL(p.ThumbnailId),
		Description:   p.Description,
		ShootTime:     FormatTime(p.ShootTime),
		Longitude:     p.Position.X(),
		Latitude:      p.Position.Y(),
		Status:        string(p.Status),
		Metadata:      p.Meta,
		CreatedAt:     FormatTime(p.CreatedAt),
		UpdatedAt:     FormatTime(p.UpdatedAt),
	}
}

type LocationView struct {
	Id            int64            `json:"id"`
	Name          string           `json:"name"`
	Longitude     float64          `json:"longitude"`
	Latitude      float64          `json:"latitude"`
	Rating        float64          `json:"rating"`
	Category      string           `json:"category"`
	Description   string           `json:"description"`
	Address       string           `json:"address"`
	Panorama      *PanoramaSummary `json:"panorama,omitempty"`
	PreviewImages []string         `json:"preview_images,omitempty"`
}

//LocationToView renders a location; panorama and previews may be nil when the
//location is unclaimed.
func LocationToView(l *model.Location, p *model.Panorama, previews []*model.PreviewAssociation) *LocationView {
	view := &LocationView{
		Id:          l.Id,
		Name:        l.Name,
		Longitude:   l.Position.X(),
		Latitude:    l.Position.Y(),
		Rating:      l.Rating,
		Category:    l.Category,
		Description: l.Description,
		Address:     l.Address,
	}
	if p != nil {
		view.Panorama = PanoramaToSummary(p)
		urls := make([]string, 0, len(previews))
		for _, pa := range previews {
			urls = append(urls, ImageURL(pa.ImageId))
		}
		view.PreviewImages = urls
	}
	return view
}

type PreviewView struct {
	Id        int64  `json:"id"`
	ImageId   int64  `json:"image_id"`
	Url       string `json:"url"`
	SortOrder int    `json:"sort_order"`
}

func PreviewsToViews(previews []*model.PreviewAssociation) []*PreviewView {
	views := make([]*PreviewView, 0, len(previews))
	for _, pa := range previews {
		views = append(views, &PreviewView{
			Id:        pa.Id,
			ImageId:   pa.ImageId,
			Url:       ImageURL(pa.ImageId),
			SortOrder: pa.SortOrder,
		})
	}
	return views
}

type TimeMachineView struct {
	Id            string   `json:"id"`
	LocationId    int64    `json:"locationId"`
	Year          int      `json:"year"`
	Month         int      `json:"month"`
	Label         string   `json:"label"`
	PanoramaImage string   `json:"panoramaImage"`
	Thumbnail     string   `json:"thumbnail"`
	Description   string   `json:"description"`
	Address       string   `json:"address"`
	Images        []string `json:"images"`
	Longitude     float64  `json:"longitude"`
	Latitude      float64  `json:"latitude"`
}

//TimeMachineToView renders a snapshot; the panorama supplies the image URLs
//and coordinates.
func TimeMachineToView(e *model.TimeMachineEntry, p *model.Panorama) *TimeMachineView {
	view := &TimeMachineView{
		Id:          e.Id,
		LocationId:  e.LocationId,
		Year:        e.Year,
		Month:       e.Month,
		Label:       e.Label,
		Description: e.Description,
		Address:     e.Address,
		Images:      ImageURLs(e.ImageIds),
	}
	if p != nil {
		view.PanoramaImage = ImageURL(p.ImageId)
		view.Thumbnail = ImageURL(p.ThumbnailId)
		view.Longitude = p.Position.X()
		view.Latitude = p.Position.Y()
	}
	return view
}
