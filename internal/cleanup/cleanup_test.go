package cleanup

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marianozunino/watchdrop/internal/chibisafe"
	"github.com/marianozunino/watchdrop/internal/config"
)

type fakeAPI struct {
	files       []chibisafe.AlbumFile
	listErr     error
	deleteErr   error
	deleted     [][]string
	deleteCalls int
}

func (f *fakeAPI) ListAlbumFiles() ([]chibisafe.AlbumFile, error) {
	return f.files, f.listErr
}

func (f *fakeAPI) DeleteFiles(uuids []string) error {
	f.deleteCalls++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, uuids)
	return nil
}

func newTestWorker(api *fakeAPI, ageDays int) *Worker {
	return NewWorker(&config.Config{CleanupAgeDays: ageDays}, api)
}

func agedStamp(days int) string {
	return time.Now().AddDate(0, 0, -days).Format(time.RFC3339)
}

func TestPerformCleanupDeletesOnlyExpired(t *testing.T) {
	api := &fakeAPI{
		files: []chibisafe.AlbumFile{
			{UUID: "old", Name: "old.png", CreatedAt: agedStamp(31)},
			{UUID: "fresh", Name: "fresh.png", CreatedAt: agedStamp(1)},
		},
	}

	deleted, err := newTestWorker(api, 30).PerformCleanup()
	require.NoError(t, err)

	assert.Equal(t, 1, deleted)
	require.Len(t, api.deleted, 1)
	assert.Equal(t, []string{"old"}, api.deleted[0])
}

func TestPerformCleanupEmptySelectionSkipsDelete(t *testing.T) {
	api := &fakeAPI{
		files: []chibisafe.AlbumFile{
			{UUID: "fresh", CreatedAt: agedStamp(1)},
		},
	}

	deleted, err := newTestWorker(api, 30).PerformCleanup()
	require.NoError(t, err)

	assert.Equal(t, 0, deleted)
	assert.Equal(t, 0, api.deleteCalls)
}

func TestPerformCleanupEmptyAlbum(t *testing.T) {
	api := &fakeAPI{}

	deleted, err := newTestWorker(api, 30).PerformCleanup()
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)
	assert.Equal(t, 0, api.deleteCalls)
}

func TestPerformCleanupListFailure(t *testing.T) {
	api := &fakeAPI{listErr: errors.New("listing unavailable")}

	deleted, err := newTestWorker(api, 30).PerformCleanup()
	require.Error(t, err)
	assert.Equal(t, 0, deleted)
	assert.Equal(t, 0, api.deleteCalls)
}

func TestPerformCleanupDeleteFailureCountsNothing(t *testing.T) {
	api := &fakeAPI{
		files: []chibisafe.AlbumFile{
			{UUID: "a", CreatedAt: agedStamp(40)},
			{UUID: "b", CreatedAt: agedStamp(50)},
		},
		deleteErr: errors.New("server rejected batch"),
	}

	deleted, err := newTestWorker(api, 30).PerformCleanup()
	require.Error(t, err)
	assert.Equal(t, 0, deleted)
}

func TestPerformCleanupDeletesWholeBatchAtOnce(t *testing.T) {
	api := &fakeAPI{
		files: []chibisafe.AlbumFile{
			{UUID: "a", CreatedAt: agedStamp(40)},
			{UUID: "b", CreatedAt: agedStamp(50)},
			{UUID: "c", CreatedAt: agedStamp(60)},
		},
	}

	deleted, err := newTestWorker(api, 30).PerformCleanup()
	require.NoError(t, err)

	assert.Equal(t, 3, deleted)
	assert.Equal(t, 1, api.deleteCalls)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, api.deleted[0])
}

func TestSelectExpired(t *testing.T) {
	cutoff := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	files := []chibisafe.AlbumFile{
		{UUID: "before", Name: "b.png", CreatedAt: "2025-05-31T23:59:59Z"},
		{UUID: "exact", Name: "e.png", CreatedAt: "2025-06-01T00:00:00Z"},
		{UUID: "after", Name: "a.png", CreatedAt: "2025-06-02T00:00:00Z"},
		{UUID: "", Name: "no-id.png", CreatedAt: "2020-01-01T00:00:00Z"},
		{UUID: "garbage-ts", Name: "g.png", CreatedAt: "not a timestamp"},
		{UUID: "empty-ts", Name: "t.png", CreatedAt: ""},
	}

	expired := SelectExpired(files, cutoff)

	require.Len(t, expired, 1)
	assert.Equal(t, "before", expired[0].UUID)
	assert.Equal(t, "b.png", expired[0].Name)
}

func TestSelectExpiredZeroDaysCatchesEverythingInThePast(t *testing.T) {
	files := []chibisafe.AlbumFile{
		{UUID: "yesterday", CreatedAt: agedStamp(1)},
		{UUID: "last-week", CreatedAt: agedStamp(7)},
	}

	expired := SelectExpired(files, time.Now())
	assert.Len(t, expired, 2)
}

func TestWorkerStartStop(t *testing.T) {
	api := &fakeAPI{}
	w := newTestWorker(api, 30)

	w.Start()
	time.Sleep(50 * time.Millisecond)
	w.Stop()

	// The startup pass runs immediately even though the album was empty.
	assert.Equal(t, 0, api.deleteCalls)
}
