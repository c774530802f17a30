package model

import (
	"time"

	"github.com/paulmach/orb"
)

type ImageType string

const (
	ImagePanorama  ImageType = "panorama"
	ImageThumbnail ImageType = "thumbnail"
	ImagePreview   ImageType = "preview"
)

//StoredImage is a binary image row. Immutable once created.
type StoredImage struct {
	Id        int64
	Filename  string
	Data      []byte
	Size      int64
	MimeType  string
	Type      ImageType
	CreatedBy int64
	CreatedAt time.Time
}

//Location is a named geographic point owning at most one panorama.
type Location struct {
	Id          int64
	Name        string
	Position    orb.Point // X longitude, Y latitude
	Rating      float64
	Category    string
	Description string
	Address     string
	PanoramaId  *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

//CaptureMeta carries camera and GPS-derived fields extracted during import.
//Extra keeps heterogeneous keys the extractor does not model explicitly.
type CaptureMeta struct {
	Format        string            `json:"format,omitempty"`
	HasExif       bool              `json:"has_exif"`
	HasGps        bool              `json:"has_gps,omitempty"`
	ShootTimeExif string            `json:"shoot_time_exif,omitempty"`
	ExposureTime  string            `json:"exposure_time,omitempty"`
	FNumber       string            `json:"f_number,omitempty"`
	Iso           string            `json:"iso,omitempty"`
	FocalLength   string            `json:"focal_length,omitempty"`
	CameraMake    string            `json:"camera_make,omitempty"`
	CameraModel   string            `json:"camera_model,omitempty"`
	Extra         map[string]string `json:"extra,omitempty"`
}

type Panorama struct {
	Id          int64
	ImageId     int64
	ThumbnailId int64
	Description string
	ShootTime   time.Time
	Position    orb.Point
	Status      PanoramaStatus
	Meta        CaptureMeta
	CreatedBy   int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

//PreviewAssociation links a preview image to a panorama with an explicit order.
type PreviewAssociation struct {
	Id         int64
	PanoramaId int64
	ImageId    int64
	SortOrder  int
	CreatedAt  time.Time
}

//TimeMachineEntry groups a historical snapshot of a location.
type TimeMachineEntry struct {
	Id          string
	LocationId  int64
	PanoramaId  int64
	Year        int
	Month       int
	Label       string
	Description string
	Address     string
	ImageIds    []int64
	CreatedAt   time.Time
}

type EnforcementTask struct {
	Id             int64
	Code           string
	Title          string
	Description    string
	Type           string
	Priority       TaskPriority
	Status         TaskStatus
	Position       orb.Point
	Address        string
	AssignedTo     *int64
	AssignedBy     *int64
	Deadline       *time.Time
	CompletionTime *time.Time
	Attachments    []int64
	Remarks        string
	CreatedBy      int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

//TaskHistoryEntry is an append-only log row per task mutation.
type TaskHistoryEntry struct {
	Id          int64
	TaskId      int64
	Action      string
	Description string
	PerformedBy int64
	PerformedAt time.Time
	OldStatus   string
	NewStatus   string
}

type TaskComment struct {
	Id          int64
	TaskId      int64
	Content     string
	Type        string
	CreatedBy   int64
	CreatedAt   time.Time
	Attachments []int64
}

type User struct {
	Id            int64
	Username      string
	Password      string
	Email         string
	Phone         string
	Permission    int
	Role          string
	Active        bool
	LastLoginTime *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

//Permissions is the typed form of the government user permission column.
type Permissions struct {
	PanoramaView bool `json:"panorama_view"`
	TaskCreate   bool `json:"task_create"`
	TaskAssign   bool `json:"task_assign"`
	TaskManage   bool `json:"task_manage"`
	TaskExecute  bool `json:"task_execute"`
	UserManage   bool `json:"user_manage"`
}

type GovernmentUser struct {
	Id            int64
	Username      string
	Password      string
	Email         string
	Phone         string
	Department    string
	Position      string
	Permissions   Permissions
	Role          string
	Active        bool
	LastLoginTime *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Shop struct {
	Id            int64
	Name          string
	Address       string
	Province      string
	City          string
	District      string
	Size          string
	Role          string
	Active        bool
	AuditStatus   string
	LastLoginTime *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
