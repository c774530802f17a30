//Package importer populates panorama, location and preview records from a
//directory tree of listings without manual per-image data entry. It is a
//blocking, single-threaded batch: listings and images are processed strictly
//sequentially, one store transaction per full image, and a per-item failure
//never aborts the run.
package importer

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

//Options carries the import tunables resolved at preflight.
type Options struct {
	Root            string
	MaxFileBytes    int64
	CoordTolerance  float64
	DefaultPosition orb.Point
	Jitter          float64
	CreatedBy       int64
}

type Importer struct {
	store Store
	opts  Options
	rand  *rand.Rand
}

func New(store Store, opts Options) *Importer {
	return &Importer{
		store: store,
		opts:  opts,
		rand:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

//Run scans the listing tree and imports every full panorama image found.
//It is idempotent at the run level: a non-empty panoramas table skips the
//whole scan.
func (imp *Importer) Run(ctx context.Context) (*Report, error) {

	report := &Report{}

	populated, err := imp.store.HasPanoramas(ctx)
	if err != nil {
		return nil, err
	}
	if populated {
		zap.L().Info("panoramas already present, skipping import")
		return report, nil
	}

	if _, err := os.Stat(imp.opts.Root); os.IsNotExist(err) {
		zap.S().Infof("import directory %s does not exist, skipping import", imp.opts.Root)
		return report, nil
	}

	listings, err := imp.findListings()
	if err != nil {
		return nil, errors.Wrap(err, "scanning import root")
	}
	zap.S().Infof("found %d listing directories", len(listings))

	for _, listing := range listings {
		if err := imp.importListing(ctx, listing, report); err != nil {
			//listing-level problems (missing folders) are logged and skipped
			zap.S().Warnf("skipping listing %s: %s", filepath.Base(listing), err.Error())
		}
	}

	if report.Imported > 0 {
		n, err := imp.store.AddTimeMachineSamples(ctx, 3)
		if err != nil {
			zap.S().Warnf("creating time machine samples: %s", err.Error())
		}
		report.Snapshots = n
	}

	zap.S().Infof("import finished: %d imported, %d skipped, %d locations created, %d panoramas created",
		report.Imported, report.Skipped, report.LocationsCreated, report.PanoramasCreated)
	return report, nil
}

//findListings returns the list* subdirectories of the root.
func (imp *Importer) findListings() ([]string, error) {
	entries, err := os.ReadDir(imp.opts.Root)
	if err != nil {
		return nil, err
	}
	var listings []string
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), "list") {
			listings = append(listings, filepath.Join(imp.opts.Root, entry.Name()))
		}
	}
	return listings, nil
}

func (imp *Importer) importListing(ctx context.Context, listing string, report *Report) error {

	listingName := filepath.Base(listing)

	fulls, err := collectImages(filepath.Join(listing, "resized_image"))
	if err != nil {
		return errors.Wrap(err, "no resized_image folder")
	}
	if len(fulls) == 0 {
		return errors.New("no image files in resized_image")
	}

	//preview folder is optional; previews are shared by every full image
	previews, err := collectImages(filepath.Join(listing, "instance"))
	if err != nil {
		previews = nil
	}
	zap.S().Infof("listing %s: %d full images, %d previews", listingName, len(fulls), len(previews))

	previewFiles := imp.readPreviews(previews)

	for _, full := range fulls {
		if err := imp.importOne(ctx, listingName, full, previewFiles, report); err != nil {
			zap.S().Warnf("import of %s failed: %s", full, err.Error())
			report.Skipped++
		}
	}
	return nil
}

//importOne handles a single full image as an independent unit of work.
func (imp *Importer) importOne(ctx context.Context, listingName, path string, previews []PreviewFile, report *Report) error {

	filename := filepath.Base(path)

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() > imp.opts.MaxFileBytes {
		return fmt.Errorf("file too large: %d bytes", info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	position, shootTime, meta := ExtractMeta(data)
	if shootTime == nil {
		mtime := info.ModTime()
		shootTime = &mtime
	}
	if position == nil {
		p := imp.jitteredDefault()
		position = &p
	}

	item := &Item{
		Listing:        listingName,
		Filename:       filename,
		Data:           data,
		Size:           info.Size(),
		MimeType:       mimeTypeFor(filename),
		Thumbnail:      Thumbnail(data),
		ShootTime:      *shootTime,
		Position:       *position,
		Meta:           meta,
		Description:    fmt.Sprintf("panorama imported from %s: %s", listingName, filename),
		LocationName:   locationName(*position, listingName, filename),
		LocationRating: float64(int(imp.randRange(3.5, 5.0)*10+0.5)) / 10,
		Previews:       previews,
		CreatedBy:      imp.opts.CreatedBy,
	}
	item.LocationDescription = fmt.Sprintf("imported from %s (%s)", listingName, filename)
	if meta.CameraModel != "" {
		item.LocationDescription += ", camera: " + meta.CameraModel
	}

	result, err := imp.store.ImportItem(ctx, item, imp.opts.CoordTolerance)
	if err != nil {
		return err
	}

	report.Imported++
	report.PanoramasCreated++
	if result.LocationCreated {
		report.LocationsCreated++
	}
	zap.S().Infof("imported %s: panorama %d, location %d, %d previews",
		filename, result.PanoramaId, result.LocationId, len(previews))
	return nil
}

func (imp *Importer) readPreviews(paths []string) []PreviewFile {
	var files []PreviewFile
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			zap.S().Warnf("reading preview %s failed: %s", path, err.Error())
			continue
		}
		files = append(files, PreviewFile{
			Filename: filepath.Base(path),
			Data:     data,
			MimeType: mimeTypeFor(path),
		})
	}
	return files
}

func (imp *Importer) jitteredDefault() orb.Point {
	j := imp.opts.Jitter
	return orb.Point{
		imp.opts.DefaultPosition.X() + imp.randRange(-j, j),
		imp.opts.DefaultPosition.Y() + imp.randRange(-j, j),
	}
}

func (imp *Importer) randRange(lo, hi float64) float64 {
	return lo + imp.rand.Float64()*(hi-lo)
}

//collectImages lists the image files of a directory in listing order,
//skipping hidden files and deduplicating filenames case-insensitively
//(first occurrence wins).
func collectImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		lower := strings.ToLower(name)
		if !strings.HasSuffix(lower, ".jpg") && !strings.HasSuffix(lower, ".jpeg") && !strings.HasSuffix(lower, ".png") {
			continue
		}
		if seen[lower] {
			continue
		}
		seen[lower] = true
		paths = append(paths, filepath.Join(dir, name))
	}
	return paths, nil
}

func mimeTypeFor(filename string) string {
	if strings.HasSuffix(strings.ToLower(filename), ".png") {
		return "image/png"
	}
	return "image/jpeg"
}

//region boxes carried over from the deployment this feeds; anything else
//gets a coordinate-derived name
var regions = []struct {
	minLat, maxLat, minLon, maxLon float64
	name                           string
}{
	{39.9, 40.1, 116.3, 116.5, "Beijing area"},
	{31.2, 31.3, 121.4, 121.5, "Shanghai area"},
	{30.2, 30.3, 120.1, 120.2, "Hangzhou area"},
	{23.5, 23.6, 114.4, 114.5, "Huizhou area"},
	{22.5, 22.6, 113.9, 114.0, "Shenzhen area"},
	{23.1, 23.2, 113.2, 113.3, "Guangzhou area"},
}

func locationName(p orb.Point, listingName, filename string) string {
	lat, lon := p.Y(), p.X()
	for _, r := range regions {
		if lat >= r.minLat && lat <= r.maxLat && lon >= r.minLon && lon <= r.maxLon {
			return r.name
		}
	}
	if lat != 0 || lon != 0 {
		return fmt.Sprintf("Site (%.4f, %.4f)", lat, lon)
	}
	return listingName + "-" + filename
}
