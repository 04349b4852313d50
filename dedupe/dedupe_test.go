package dedupe_test

import (
	"context"
	"testing"
	"time"

	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"github.com/stretchr/testify/require"

	"github.com/hatarist/scrobbler/db"
	"github.com/hatarist/scrobbler/dedupe"
	"github.com/hatarist/scrobbler/strdist"
)

var playedAt = time.Unix(1600000000, 0) //nolint:gochecknoglobals

func seedScrobbles(t *testing.T, dbc *db.DB, plays map[string][]string) {
	t.Helper()
	user := dbc.GetUserFromName("admin")
	require.NotNil(t, user)
	at := playedAt
	for artist, tracks := range plays {
		for _, track := range tracks {
			at = at.Add(time.Minute)
			err := dbc.Create(&db.Scrobble{
				UserID:   user.ID,
				PlayedAt: at,
				Artist:   artist,
				Track:    track,
			}).Error
			require.NoError(t, err)
		}
	}
}

func newMockResolver(t *testing.T, plays map[string][]string) (*db.DB, *dedupe.Resolver) {
	t.Helper()
	dbc, err := db.NewMock()
	require.NoError(t, err)
	t.Cleanup(func() { dbc.Close() })
	seedScrobbles(t, dbc, plays)
	return dbc, dedupe.New(dbc)
}

func mustVariant(t *testing.T, name string) strdist.Variant {
	t.Helper()
	v, err := strdist.ParseVariant(name)
	require.NoError(t, err)
	return v
}

func TestFindSimilarArtists(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	dbc, resolver := newMockResolver(t, map[string][]string{
		"Pink Floyd": {"Time", "Breathe", "Money"},
		"Pink Flyod": {"Time"},
		"Radiohead":  {"Creep"},
	})

	run := dedupe.Run{Variant: mustVariant(t, "D1")}
	require.NoError(resolver.FindSimilarArtists(context.Background(), run))

	// one unordered pair; identical names and far away names never admitted
	var diffs []db.DiffArtist
	require.NoError(dbc.Find(&diffs).Error)
	require.Len(diffs, 1)

	diff := diffs[0]
	require.ElementsMatch(
		[]string{"Pink Floyd", "Pink Flyod"},
		[]string{diff.Artist1, diff.Artist2})
	score, ok := diff.Get(mustVariant(t, "D1"))
	require.True(ok)
	require.InDelta(0.2, score, 1e-9)
	_, ok = diff.Get(mustVariant(t, "D2"))
	require.False(ok)
}

func TestFindSimilarArtistsWriteOnceSlots(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	dbc, resolver := newMockResolver(t, map[string][]string{
		"Pink Floyd": {"Time"},
		"Pink Flyod": {"Money"},
	})

	ctx := context.Background()
	require.NoError(resolver.FindSimilarArtists(ctx, dedupe.Run{Variant: mustVariant(t, "D1")}))

	var diff db.DiffArtist
	require.NoError(dbc.First(&diff).Error)
	before, ok := diff.Get(mustVariant(t, "D1"))
	require.True(ok)

	// a re-run keeps the existing score and creates no second row
	require.NoError(resolver.FindSimilarArtists(ctx, dedupe.Run{Variant: mustVariant(t, "D1")}))
	var count int
	dbc.Model(db.DiffArtist{}).Count(&count)
	require.Equal(1, count)

	// a different variant fills its own slot on the same row
	require.NoError(resolver.FindSimilarArtists(ctx, dedupe.Run{Variant: mustVariant(t, "D2")}))
	dbc.Model(db.DiffArtist{}).Count(&count)
	require.Equal(1, count)

	require.NoError(dbc.First(&diff).Error)
	after, ok := diff.Get(mustVariant(t, "D1"))
	require.True(ok)
	require.Equal(before, after)
	_, ok = diff.Get(mustVariant(t, "D2"))
	require.True(ok)
}

func TestFindSimilarArtistsAdmissionBand(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	dbc, resolver := newMockResolver(t, map[string][]string{
		// three edits over six runes normalizes to 0.5, outside the band
		"abcdef": {"Track A"},
		"abcxyz": {"Track B"},
	})

	run := dedupe.Run{Variant: mustVariant(t, "D2")}
	require.NoError(resolver.FindSimilarArtists(context.Background(), run))

	var count int
	dbc.Model(db.DiffArtist{}).Count(&count)
	require.Equal(0, count)
}

func TestFindSimilarArtistsLowercaseVariant(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	dbc, resolver := newMockResolver(t, map[string][]string{
		"Pink Floyd": {"Time"},
		"PINK FLYOD": {"Money"},
	})

	// under the case sensitive variant the pair is more than two edits apart
	ctx := context.Background()
	require.NoError(resolver.FindSimilarArtists(ctx, dedupe.Run{Variant: mustVariant(t, "D1")}))
	var count int
	dbc.Model(db.DiffArtist{}).Count(&count)
	require.Equal(0, count)

	// the folded variant admits it, storing the original casing
	require.NoError(resolver.FindSimilarArtists(ctx, dedupe.Run{Variant: mustVariant(t, "D1L")}))
	var diff db.DiffArtist
	require.NoError(dbc.First(&diff).Error)
	require.ElementsMatch(
		[]string{"Pink Floyd", "PINK FLYOD"},
		[]string{diff.Artist1, diff.Artist2})
}

func TestFindSimilarArtistsPartitionsCoverThePool(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	plays := map[string][]string{
		"Pink Floyd":  {"Time", "Breathe", "Money"},
		"Pink Flyod":  {"Time"},
		"Boards of C": {"Roygbiv", "Olson"},
		"Boards of K": {"Roygbiv"},
		"Radiohead":   {"Creep"},
	}

	whole, wholeResolver := newMockResolver(t, plays)
	ctx := context.Background()
	require.NoError(wholeResolver.FindSimilarArtists(ctx, dedupe.Run{Variant: mustVariant(t, "D1")}))
	var wantCount int
	whole.Model(db.DiffArtist{}).Count(&wantCount)
	require.Equal(2, wantCount)

	// the union of all chunks finds the same pairs, without duplicates
	split, splitResolver := newMockResolver(t, plays)
	for index := 0; index < 3; index++ {
		run := dedupe.Run{Variant: mustVariant(t, "D1"), Chunks: 3, Index: index}
		require.NoError(splitResolver.FindSimilarArtists(ctx, run))
	}
	var gotCount int
	split.Model(db.DiffArtist{}).Count(&gotCount)
	require.Equal(wantCount, gotCount)
}

func TestRunPartitioned(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	dbc, resolver := newMockResolver(t, map[string][]string{
		"Pink Floyd": {"Time", "Breathe"},
		"Pink Flyod": {"Time"},
		"Radiohead":  {"Creep"},
	})

	run := dedupe.Run{Variant: mustVariant(t, "D1")}
	require.NoError(resolver.RunPartitioned(context.Background(), run, 4, false))

	var count int
	dbc.Model(db.DiffArtist{}).Count(&count)
	require.Equal(1, count)
}

func TestFindSimilarArtistsHonoursCancellation(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	_, resolver := newMockResolver(t, map[string][]string{
		"Pink Floyd": {"Time"},
		"Pink Flyod": {"Money"},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := resolver.FindSimilarArtists(ctx, dedupe.Run{Variant: mustVariant(t, "D1")})
	require.ErrorIs(err, context.Canceled)
}

func TestFindSimilarTracks(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	dbc, resolver := newMockResolver(t, map[string][]string{
		"Pink Floyd": {"Time", "Time", "Tyme", "Money"},
		"Radiohead":  {"Creep"},
	})

	run := dedupe.Run{Variant: mustVariant(t, "D1")}
	require.NoError(resolver.FindSimilarTracks(context.Background(), run))

	var diffs []db.DiffTrack
	require.NoError(dbc.Find(&diffs).Error)
	require.Len(diffs, 1)
	require.Equal("Pink Floyd", diffs[0].Artist)
	require.ElementsMatch(
		[]string{"Time", "Tyme"},
		[]string{diffs[0].Track1, diffs[0].Track2})
}

func TestResolveArtists(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	dbc, resolver := newMockResolver(t, map[string][]string{
		"Pink Floyd": {"Time", "Breathe"},
		"Pink Flyod": {"Money"},
	})

	require.NoError(resolver.FindSimilarArtists(context.Background(), dedupe.Run{Variant: mustVariant(t, "D1")}))

	diffs, err := resolver.ArtistDiffs(false)
	require.NoError(err)
	require.Len(diffs, 1)
	diff := diffs[0]

	// orient the merge so the typo always loses
	dir := dedupe.DirectionTwoToOne
	if diff.Artist1 == "Pink Flyod" {
		dir = dedupe.DirectionOneToTwo
	}

	replaced, err := resolver.ResolveArtists(diff.ID, dir)
	require.NoError(err)
	require.Equal(1, replaced)

	var count int
	dbc.Model(db.Scrobble{}).Where("artist=?", "Pink Flyod").Count(&count)
	require.Equal(0, count)
	dbc.Model(db.Scrobble{}).Where("artist=?", "Pink Floyd").Count(&count)
	require.Equal(3, count)

	// the pair row is consumed by the merge
	diffs, err = resolver.ArtistDiffs(false)
	require.NoError(err)
	require.Empty(diffs)
}

func TestResolveArtistsIgnoreToggle(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	dbc, resolver := newMockResolver(t, map[string][]string{
		"Pink Floyd": {"Time"},
		"Pink Flyod": {"Money"},
	})

	require.NoError(resolver.FindSimilarArtists(context.Background(), dedupe.Run{Variant: mustVariant(t, "D1")}))

	diffs, err := resolver.ArtistDiffs(false)
	require.NoError(err)
	require.Len(diffs, 1)

	_, err = resolver.ResolveArtists(diffs[0].ID, dedupe.DirectionIgnore)
	require.NoError(err)

	// ignored pairs move between the two listings, nothing is rewritten
	diffs, err = resolver.ArtistDiffs(false)
	require.NoError(err)
	require.Empty(diffs)
	diffs, err = resolver.ArtistDiffs(true)
	require.NoError(err)
	require.Len(diffs, 1)

	var count int
	dbc.Model(db.Scrobble{}).Where("artist=?", "Pink Flyod").Count(&count)
	require.Equal(1, count)

	// toggling again brings it back
	_, err = resolver.ResolveArtists(diffs[0].ID, dedupe.DirectionIgnore)
	require.NoError(err)
	diffs, err = resolver.ArtistDiffs(false)
	require.NoError(err)
	require.Len(diffs, 1)
}

func TestResolveTracks(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	dbc, resolver := newMockResolver(t, map[string][]string{
		"Pink Floyd": {"Time", "Time", "Tyme"},
		"Radiohead":  {"Tyme"},
	})

	require.NoError(resolver.FindSimilarTracks(context.Background(), dedupe.Run{Variant: mustVariant(t, "D1")}))

	diffs, err := resolver.TrackDiffs(false)
	require.NoError(err)
	require.Len(diffs, 1)
	diff := diffs[0]

	dir := dedupe.DirectionTwoToOne
	if diff.Track1 == "Tyme" {
		dir = dedupe.DirectionOneToTwo
	}

	replaced, err := resolver.ResolveTracks(diff.ID, dir)
	require.NoError(err)
	require.Equal(1, replaced)

	// the rename is scoped to the pair's artist
	var count int
	dbc.Model(db.Scrobble{}).Where("artist=? AND track=?", "Pink Floyd", "Tyme").Count(&count)
	require.Equal(0, count)
	dbc.Model(db.Scrobble{}).Where("artist=? AND track=?", "Radiohead", "Tyme").Count(&count)
	require.Equal(1, count)
}

func TestResolveArtistsNotFound(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	_, resolver := newMockResolver(t, map[string][]string{})

	_, err := resolver.ResolveArtists(42, dedupe.DirectionOneToTwo)
	require.ErrorIs(err, dedupe.ErrNotFound)
	_, err = resolver.ResolveTracks(42, dedupe.DirectionOneToTwo)
	require.ErrorIs(err, dedupe.ErrNotFound)
}
