// Package dedupe scans the scrobble history for near duplicate artist and
// track names and applies operator approved merges. discovery runs as a
// batch job over deterministic partitions of the name list; merges rewrite
// history in one transaction.
package dedupe

import (
	"context"
	"log"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/hatarist/scrobbler/db"
	"github.com/hatarist/scrobbler/strdist"
)

// ErrNotFound marks an unknown candidate pair id, an operator input error.
var ErrNotFound = errors.New("diff not found")

// only pairs scoring strictly inside this band are candidate duplicates.
// 0.0 is an exact match (not a typo) and anything at or past the upper bound
// is presumed unrelated.
const (
	admitLow  = 0.0
	admitHigh = 0.3
)

const defaultTopArtists = 50

const progressEvery = 100

type Resolver struct {
	dbc *db.DB
}

func New(dbc *db.DB) *Resolver {
	return &Resolver{dbc: dbc}
}

// Run parameterizes one discovery pass.
type Run struct {
	Variant strdist.Variant
	// Chunks and Index select the deterministic partition [Index::Chunks] of
	// the ordered name list, so concurrent runs can split the work without
	// coordinating with each other.
	Chunks int
	Index  int
	// TopArtists caps how many artists' track pools a track scan visits.
	// track pair comparison is quadratic per artist and has to be bounded.
	TopArtists int
}

func (run Run) normalized() Run {
	if run.Chunks < 1 {
		run.Chunks = 1
	}
	if run.Index < 0 || run.Index >= run.Chunks {
		run.Index = 0
	}
	if run.TopArtists < 1 {
		run.TopArtists = defaultTopArtists
	}
	return run
}

func admitted(dist float64) bool {
	return admitLow < dist && dist < admitHigh
}

// partition returns every Chunks-th name starting at Index.
func partition(names []string, chunks, index int) []string {
	var out []string
	for i := index; i < len(names); i += chunks {
		out = append(out, names[i])
	}
	return out
}

// pairKey is the in-memory "already compared" entry for one unordered pair,
// scoped to an artist for track pairs. both orientations map to the same key.
type pairKey [3]string

func newPairKey(lowercase bool, scope, a, b string) pairKey {
	if lowercase {
		scope, a, b = strings.ToLower(scope), strings.ToLower(a), strings.ToLower(b)
	}
	if b < a {
		a, b = b, a
	}
	return pairKey{scope, a, b}
}

// artistsByPlaycount returns distinct scrobbled artist names, most played
// first. popular names dominate total corrected scrobble volume, so they are
// worth scanning first.
func (r *Resolver) artistsByPlaycount(limit int) ([]string, error) {
	q := r.dbc.
		Model(db.Scrobble{}).
		Select("artist").
		Group("artist").
		Order("count(artist) DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	rows, err := q.Rows()
	if err != nil {
		return nil, errors.Wrap(err, "listing artists")
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "scanning artist name")
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *Resolver) tracksByPlaycount(artist string) ([]string, error) {
	rows, err := r.dbc.
		Model(db.Scrobble{}).
		Select("track").
		Where("artist=?", artist).
		Group("track").
		Order("count(track) DESC").
		Rows()
	if err != nil {
		return nil, errors.Wrap(err, "listing tracks")
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "scanning track name")
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// FindSimilarArtists scans this run's partition of the artist list against
// the whole pool and records candidate pairs. each name's discoveries commit
// as one unit, so the job can be interrupted between names and resumed; the
// write once slot rule makes re-runs converge.
func (r *Resolver) FindSimilarArtists(ctx context.Context, run Run) error {
	run = run.normalized()
	pool, err := r.artistsByPlaycount(0)
	if err != nil {
		return err
	}
	names := partition(pool, run.Chunks, run.Index)
	seen := map[pairKey]struct{}{}
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := r.dbc.WithTx(func(tx *gorm.DB) error {
			var scanErr error
			strdist.Scan(run.Variant, name, pool, func(dist float64, candidate string) bool {
				if !admitted(dist) {
					return true
				}
				key := newPairKey(run.Variant.Lowercase, "", name, candidate)
				if _, ok := seen[key]; ok {
					return true
				}
				seen[key] = struct{}{}
				scanErr = recordArtistPair(tx, run.Variant, name, candidate, dist)
				return scanErr == nil
			})
			return scanErr
		})
		if err != nil {
			return errors.Wrapf(err, "recording pairs for %q", name)
		}
		if (i+1)%progressEvery == 0 {
			log.Printf("compared %s of %s artists",
				humanize.Comma(int64(i+1)), humanize.Comma(int64(len(names))))
		}
	}
	return nil
}

// FindSimilarTracks scans track names within each of the top artists by play
// count, partitioned over those artists the same way FindSimilarArtists
// partitions names.
func (r *Resolver) FindSimilarTracks(ctx context.Context, run Run) error {
	run = run.normalized()
	topArtists, err := r.artistsByPlaycount(run.TopArtists)
	if err != nil {
		return err
	}
	artists := partition(topArtists, run.Chunks, run.Index)
	seen := map[pairKey]struct{}{}
	for i, artist := range artists {
		pool, err := r.tracksByPlaycount(artist)
		if err != nil {
			return err
		}
		for _, track := range pool {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := r.dbc.WithTx(func(tx *gorm.DB) error {
				var scanErr error
				strdist.Scan(run.Variant, track, pool, func(dist float64, candidate string) bool {
					if !admitted(dist) {
						return true
					}
					key := newPairKey(run.Variant.Lowercase, artist, track, candidate)
					if _, ok := seen[key]; ok {
						return true
					}
					seen[key] = struct{}{}
					scanErr = recordTrackPair(tx, run.Variant, artist, track, candidate, dist)
					return scanErr == nil
				})
				return scanErr
			})
			if err != nil {
				return errors.Wrapf(err, "recording pairs for %q by %q", track, artist)
			}
		}
		log.Printf("compared tracks for %s of %s artists",
			humanize.Comma(int64(i+1)), humanize.Comma(int64(len(artists))))
	}
	return nil
}

// recordArtistPair upserts one candidate pair. the unordered pair is stored
// at most once whichever orientation triggered its discovery, and a slot that
// already carries a score is skipped, never overwritten.
func recordArtistPair(tx *gorm.DB, v strdist.Variant, name, candidate string, dist float64) error {
	q := tx.Model(db.DiffArtist{})
	if v.Lowercase {
		name, candidate := strings.ToLower(name), strings.ToLower(candidate)
		q = q.Where("(lower(artist1)=? AND lower(artist2)=?) OR (lower(artist1)=? AND lower(artist2)=?)",
			name, candidate, candidate, name)
	} else {
		q = q.Where("(artist1=? AND artist2=?) OR (artist1=? AND artist2=?)",
			name, candidate, candidate, name)
	}
	var diff db.DiffArtist
	err := q.First(&diff).Error
	switch {
	case gorm.IsRecordNotFoundError(err):
		diff = db.DiffArtist{Artist1: name, Artist2: candidate}
	case err != nil:
		return errors.Wrap(err, "looking up artist diff")
	}
	if !diff.Fill(v, dist) {
		return nil
	}
	return errors.Wrap(tx.Save(&diff).Error, "saving artist diff")
}

func recordTrackPair(tx *gorm.DB, v strdist.Variant, artist, track, candidate string, dist float64) error {
	q := tx.Model(db.DiffTrack{})
	if v.Lowercase {
		artist, track, candidate := strings.ToLower(artist), strings.ToLower(track), strings.ToLower(candidate)
		q = q.Where("lower(artist)=? AND ((lower(track1)=? AND lower(track2)=?) OR (lower(track1)=? AND lower(track2)=?))",
			artist, track, candidate, candidate, track)
	} else {
		q = q.Where("artist=? AND ((track1=? AND track2=?) OR (track1=? AND track2=?))",
			artist, track, candidate, candidate, track)
	}
	var diff db.DiffTrack
	err := q.First(&diff).Error
	switch {
	case gorm.IsRecordNotFoundError(err):
		diff = db.DiffTrack{Artist: artist, Track1: track, Track2: candidate}
	case err != nil:
		return errors.Wrap(err, "looking up track diff")
	}
	if !diff.Fill(v, dist) {
		return nil
	}
	return errors.Wrap(tx.Save(&diff).Error, "saving track diff")
}

// RunPartitioned splits one discovery pass across workers goroutines, each
// taking its own [i::workers] slice. the partitions are disjoint, so the only
// shared state is the pair existence check at the database level.
func (r *Resolver) RunPartitioned(ctx context.Context, run Run, workers int, tracks bool) error {
	if workers < 1 {
		workers = 1
	}
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		run := run
		run.Chunks, run.Index = workers, i
		g.Go(func() error {
			if tracks {
				return r.FindSimilarTracks(ctx, run)
			}
			return r.FindSimilarArtists(ctx, run)
		})
	}
	return g.Wait()
}
