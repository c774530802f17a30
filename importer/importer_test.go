package importer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//fakeStore records every imported item in memory.
type fakeStore struct {
	populated bool
	items     []*Item
	tolerance float64
	snapshots int
}

func (f *fakeStore) HasPanoramas(ctx context.Context) (bool, error) {
	return f.populated, nil
}

func (f *fakeStore) ImportItem(ctx context.Context, item *Item, tolerance float64) (*Result, error) {
	f.items = append(f.items, item)
	f.tolerance = tolerance
	return &Result{
		PanoramaId:      int64(len(f.items)),
		LocationId:      1,
		LocationCreated: len(f.items) == 1,
	}, nil
}

func (f *fakeStore) AddTimeMachineSamples(ctx context.Context, limit int) (int, error) {
	f.snapshots = limit
	if len(f.items) < limit {
		f.snapshots = len(f.items)
	}
	return f.snapshots, nil
}

func testOptions(root string) Options {
	return Options{
		Root:            root,
		MaxFileBytes:    1 << 20,
		CoordTolerance:  0.0001,
		DefaultPosition: orb.Point{114.4161, 23.5434},
		Jitter:          0.001,
		CreatedBy:       1,
	}
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func TestRunImportsListingTree(t *testing.T) {

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "list1", "resized_image", "pano_a.jpg"), []byte("full a"))
	writeFile(t, filepath.Join(root, "list1", "resized_image", "pano_b.jpg"), []byte("full b"))
	writeFile(t, filepath.Join(root, "list1", "instance", "room.jpg"), []byte("preview"))
	//directories without the list prefix are not listings
	writeFile(t, filepath.Join(root, "archive", "resized_image", "ignored.jpg"), []byte("x"))

	store := &fakeStore{}
	imp := New(store, testOptions(root))
	report, err := imp.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, report.Imported)
	assert.Equal(t, 0, report.Skipped)
	assert.Equal(t, 2, report.PanoramasCreated)
	assert.Equal(t, 1, report.LocationsCreated)
	assert.Equal(t, 2, report.Snapshots)
	require.Len(t, store.items, 2)

	for _, item := range store.items {
		assert.Equal(t, "list1", item.Listing)
		assert.Equal(t, "image/jpeg", item.MimeType)
		assert.NotEmpty(t, item.Thumbnail, "thumbnail must be generated even for undecodable input")
		assert.False(t, item.ShootTime.IsZero())
		//every item carries its own copy of the shared previews
		require.Len(t, item.Previews, 1)
		assert.Equal(t, "room.jpg", item.Previews[0].Filename)
		assert.Equal(t, []byte("preview"), item.Previews[0].Data)
	}
	assert.Equal(t, 0.0001, store.tolerance)
}

func TestRunSkipsPopulatedStore(t *testing.T) {

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "list1", "resized_image", "pano.jpg"), []byte("full"))

	store := &fakeStore{populated: true}
	imp := New(store, testOptions(root))
	report, err := imp.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, report.Imported)
	assert.Empty(t, store.items)
}

func TestRunMissingRootIsNotAnError(t *testing.T) {

	store := &fakeStore{}
	imp := New(store, testOptions(filepath.Join(t.TempDir(), "nope")))
	report, err := imp.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, report.Imported)
}

func TestRunSkipsOversizedFiles(t *testing.T) {

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "list1", "resized_image", "small.jpg"), []byte("ok"))
	writeFile(t, filepath.Join(root, "list1", "resized_image", "too_big.jpg"),
		[]byte(strings.Repeat("x", 64)))

	opts := testOptions(root)
	opts.MaxFileBytes = 16
	store := &fakeStore{}
	imp := New(store, opts)
	report, err := imp.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported)
	assert.Equal(t, 1, report.Skipped)
	require.Len(t, store.items, 1)
	assert.Equal(t, "small.jpg", store.items[0].Filename)
}

func TestCollectImagesFilters(t *testing.T) {

	dir := t.TempDir()
	for _, name := range []string{"B.JPG", "b.jpg", "a.png", "notes.txt", ".hidden.jpg"} {
		writeFile(t, filepath.Join(dir, name), []byte("x"))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))

	paths, err := collectImages(dir)

	require.NoError(t, err)
	names := make([]string, 0, len(paths))
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	//case-insensitive dedup keeps the first occurrence in listing order
	assert.Equal(t, []string{"B.JPG", "a.png"}, names)
}

func TestLocationName(t *testing.T) {

	assert.Equal(t, "Huizhou area", locationName(orb.Point{114.45, 23.55}, "list1", "a.jpg"))
	assert.Equal(t, "Site (10.0000, 50.0000)", locationName(orb.Point{50, 10}, "list1", "a.jpg"))
	assert.Equal(t, "list1-a.jpg", locationName(orb.Point{0, 0}, "list1", "a.jpg"))
}

func TestJitteredDefaultStaysWithinBounds(t *testing.T) {

	opts := testOptions(t.TempDir())
	imp := New(&fakeStore{}, opts)

	for i := 0; i < 100; i++ {
		p := imp.jitteredDefault()
		assert.InDelta(t, opts.DefaultPosition.X(), p.X(), opts.Jitter)
		assert.InDelta(t, opts.DefaultPosition.Y(), p.Y(), opts.Jitter)
	}
}
