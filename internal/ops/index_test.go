package ops

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/qdpx/internal/errors"
)

func TestIndex_FetchRoundTrip(t *testing.T) {
	ctx := context.Background()
	database, cfg, dir := testEnv(t)
	path := writeArchive(t, dir, "study.qdpx", studyDoc)

	out, err := Index(ctx, database, cfg, IndexInput{Path: path})
	require.NoError(t, err)
	require.False(t, out.Replaced)
	require.Len(t, out.ID, 26)
	require.Equal(t, 3, out.Summary.Codes)
	require.Equal(t, 2, out.Summary.Sources)
	require.Equal(t, 1, out.Summary.Codings)

	fetched, err := Fetch(ctx, database, FetchInput{ID: out.ID})
	require.NoError(t, err)
	require.Equal(t, "Study", fetched.Record.Name)
	require.Equal(t, "Tool 1.0", *fetched.Record.Origin)
	require.Nil(t, fetched.Record.Snapshot)
	require.Equal(t, "Study", fetched.Project.Name)
	require.Equal(t, "Trust", fetched.Project.Codebook.Codes[0].Children[0].Name)

	require.Len(t, fetched.Sources, 2)
	require.Equal(t, "TextSource", fetched.Sources[0].Kind)
	require.Equal(t, "internal://interview.txt", *fetched.Sources[0].MediaPath)
	require.Equal(t, 1, fetched.Sources[0].Codings)
	require.Equal(t, "PictureSource", fetched.Sources[1].Kind)
	require.Nil(t, fetched.Sources[1].MediaPath)
}

func TestIndex_ReindexReplaces(t *testing.T) {
	ctx := context.Background()
	database, cfg, dir := testEnv(t)
	path := writeArchive(t, dir, "study.qdpx", studyDoc)

	first, err := Index(ctx, database, cfg, IndexInput{Path: path})
	require.NoError(t, err)

	writeArchive(t, dir, "study.qdpx", strings.Replace(studyDoc, `name="Study"`, `name="Study v2"`, 1))
	second, err := Index(ctx, database, cfg, IndexInput{Path: path})
	require.NoError(t, err)
	require.True(t, second.Replaced)
	require.Equal(t, first.ID, second.ID)

	list, err := List(ctx, database, ListInput{})
	require.NoError(t, err)
	require.Equal(t, 1, list.Pagination.Total)
	require.Equal(t, "Study v2", list.Items[0].Name)
}

func TestIndex_FailedDecodeStoresNothing(t *testing.T) {
	ctx := context.Background()
	database, cfg, dir := testEnv(t)
	path := writeArchive(t, dir, "bad.qdpx", `<Project/>`)

	_, err := Index(ctx, database, cfg, IndexInput{Path: path})
	require.True(t, errors.Is(err, errors.ErrSchemaViolation), "got %v", err)

	list, err := List(ctx, database, ListInput{})
	require.NoError(t, err)
	require.Empty(t, list.Items)
}

func TestIndex_PathOutsideAllowedDirs(t *testing.T) {
	ctx := context.Background()
	database, cfg, _ := testEnv(t)
	path := writeArchive(t, t.TempDir(), "elsewhere.qdpx", studyDoc)

	_, err := Index(ctx, database, cfg, IndexInput{Path: path})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest), "got %v", err)
}

func TestFetch_Errors(t *testing.T) {
	ctx := context.Background()
	database, _, _ := testEnv(t)

	_, err := Fetch(ctx, database, FetchInput{ID: "  "})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))

	_, err = Fetch(ctx, database, FetchInput{ID: "01HZZZZZZZZZZZZZZZZZZZZZZZ"})
	require.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestDeleteAndPurge(t *testing.T) {
	ctx := context.Background()
	database, cfg, dir := testEnv(t)
	out, err := Index(ctx, database, cfg, IndexInput{Path: writeArchive(t, dir, "study.qdpx", studyDoc)})
	require.NoError(t, err)

	_, err = Delete(ctx, database, DeleteInput{ID: ""})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))

	deleted, err := Delete(ctx, database, DeleteInput{ID: out.ID})
	require.NoError(t, err)
	require.True(t, deleted.Deleted)

	_, err = Delete(ctx, database, DeleteInput{ID: out.ID})
	require.True(t, errors.Is(err, errors.ErrNotFound))

	_, err = Fetch(ctx, database, FetchInput{ID: out.ID})
	require.True(t, errors.Is(err, errors.ErrNotFound))
	fetched, err := Fetch(ctx, database, FetchInput{ID: out.ID, IncludeDeleted: true})
	require.NoError(t, err)
	require.NotNil(t, fetched.Record.DeletedAt)

	_, err = Purge(ctx, database, PurgeInput{OlderThanDays: intPtr(-1)})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))

	purged, err := Purge(ctx, database, PurgeInput{OlderThanDays: intPtr(30)})
	require.NoError(t, err)
	require.Equal(t, 0, purged.Purged)
	require.Equal(t, "No deleted projects to purge", purged.Message)

	purged, err = Purge(ctx, database, PurgeInput{})
	require.NoError(t, err)
	require.Equal(t, 1, purged.Purged)
	require.Equal(t, "Permanently deleted 1 project", purged.Message)
}

func TestFormatPurgeMessage(t *testing.T) {
	require.Equal(t, "Permanently deleted 2 projects (deleted more than 7 days ago)", formatPurgeMessage(2, intPtr(7)))
}

func TestIndex_ReadOnlyFileStillIndexes(t *testing.T) {
	ctx := context.Background()
	database, cfg, dir := testEnv(t)
	path := writeArchive(t, dir, "ro.qdpx", studyDoc)
	require.NoError(t, os.Chmod(path, 0400))

	_, err := Index(ctx, database, cfg, IndexInput{Path: path})
	require.NoError(t, err)
}
