package importer

import (
	"context"
	"time"

	"github.com/paulmach/orb"
	"github.com/streetlens/panorama/api/model"
)

//PreviewFile is one preview image discovered in a listing's instance folder.
type PreviewFile struct {
	Filename string
	Data     []byte
	MimeType string
}

//Item is one full panorama image plus everything needed to persist it. The
//previews are shared across all full images of the listing; each item stores
//its own copies.
type Item struct {
	Listing             string
	Filename            string
	Data                []byte
	Size                int64
	MimeType            string
	Thumbnail           []byte
	ShootTime           time.Time
	Position            orb.Point
	Meta                model.CaptureMeta
	Description         string
	LocationName        string
	LocationDescription string
	LocationRating      float64
	Previews            []PreviewFile
	CreatedBy           int64
}

//Result reports what persisting one item produced.
type Result struct {
	PanoramaId      int64
	LocationId      int64
	LocationCreated bool
}

//Store persists import items. Each ImportItem call is one independent unit of
//work: implementations commit per item and roll back that item alone on error.
type Store interface {
	//HasPanoramas guards re-runs: a non-empty panoramas table skips the import.
	HasPanoramas(ctx context.Context) (bool, error)
	//ImportItem stores the images, resolves the location within tolerance,
	//creates the panorama and its preview associations.
	ImportItem(ctx context.Context, item *Item, tolerance float64) (*Result, error)
	//AddTimeMachineSamples creates snapshot entries for up to limit recently
	//imported panoramas with claimed locations, returning how many were made.
	AddTimeMachineSamples(ctx context.Context, limit int) (int, error)
}

//Report is the end-of-run summary.
type Report struct {
	Imported         int
	Skipped          int
	LocationsCreated int
	PanoramasCreated int
	Snapshots        int
}
