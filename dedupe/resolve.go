package dedupe

import (
	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"

	"github.com/hatarist/scrobbler/db"
)

// Direction is the operator's verdict on a candidate pair.
type Direction int

const (
	// DirectionIgnore toggles the pair's ignore flag and keeps the row
	// around for future reference.
	DirectionIgnore Direction = iota
	// DirectionOneToTwo rewrites every occurrence of name 1 to name 2.
	DirectionOneToTwo
	// DirectionTwoToOne rewrites every occurrence of name 2 to name 1.
	DirectionTwoToOne
)

// ArtistDiffs lists candidate artist pairs by ignore state, oldest first.
func (r *Resolver) ArtistDiffs(showIgnored bool) ([]*db.DiffArtist, error) {
	var diffs []*db.DiffArtist
	err := r.dbc.
		Where("\"ignore\"=?", showIgnored).
		Order("id ASC").
		Find(&diffs).
		Error
	return diffs, errors.Wrap(err, "listing artist diffs")
}

// TrackDiffs lists candidate track pairs by ignore state, oldest first.
func (r *Resolver) TrackDiffs(showIgnored bool) ([]*db.DiffTrack, error) {
	var diffs []*db.DiffTrack
	err := r.dbc.
		Where("\"ignore\"=?", showIgnored).
		Order("id ASC").
		Find(&diffs).
		Error
	return diffs, errors.Wrap(err, "listing track diffs")
}

// ResolveArtists applies the operator's verdict to an artist pair. a merge
// bulk rewrites every scrobble and now playing row bearing the "from" name,
// deletes the pair row, and reports how many scrobbles were rewritten. the
// whole rename is one transaction, all or nothing.
func (r *Resolver) ResolveArtists(id int, dir Direction) (int, error) {
	var diff db.DiffArtist
	err := r.dbc.First(&diff, id).Error
	switch {
	case gorm.IsRecordNotFoundError(err):
		return 0, ErrNotFound
	case err != nil:
		return 0, errors.Wrap(err, "looking up artist diff")
	}

	if dir == DirectionIgnore {
		err := r.dbc.
			Model(&diff).
			UpdateColumn("ignore", !diff.Ignore).
			Error
		return 0, errors.Wrap(err, "toggling ignore")
	}

	from, to := diff.Artist1, diff.Artist2
	if dir == DirectionTwoToOne {
		from, to = to, from
	}
	var affected int
	err = r.dbc.WithTx(func(tx *gorm.DB) error {
		res := tx.
			Model(db.Scrobble{}).
			Where("artist=?", from).
			UpdateColumn("artist", to)
		if res.Error != nil {
			return errors.Wrap(res.Error, "rewriting scrobbles")
		}
		affected = int(res.RowsAffected)
		err := tx.
			Model(db.NowPlaying{}).
			Where("artist=?", from).
			UpdateColumn("artist", to).
			Error
		if err != nil {
			return errors.Wrap(err, "rewriting now playing")
		}
		return errors.Wrap(tx.Delete(&diff).Error, "deleting artist diff")
	})
	return affected, err
}

// ResolveTracks is ResolveArtists for a track pair, scoped to the pair's
// artist.
func (r *Resolver) ResolveTracks(id int, dir Direction) (int, error) {
	var diff db.DiffTrack
	err := r.dbc.First(&diff, id).Error
	switch {
	case gorm.IsRecordNotFoundError(err):
		return 0, ErrNotFound
	case err != nil:
		return 0, errors.Wrap(err, "looking up track diff")
	}

	if dir == DirectionIgnore {
		err := r.dbc.
			Model(&diff).
			UpdateColumn("ignore", !diff.Ignore).
			Error
		return 0, errors.Wrap(err, "toggling ignore")
	}

	from, to := diff.Track1, diff.Track2
	if dir == DirectionTwoToOne {
		from, to = to, from
	}
	var affected int
	err = r.dbc.WithTx(func(tx *gorm.DB) error {
		res := tx.
			Model(db.Scrobble{}).
			Where("artist=? AND track=?", diff.Artist, from).
			UpdateColumn("track", to)
		if res.Error != nil {
			return errors.Wrap(res.Error, "rewriting scrobbles")
		}
		affected = int(res.RowsAffected)
		err := tx.
			Model(db.NowPlaying{}).
			Where("artist=? AND track=?", diff.Artist, from).
			UpdateColumn("track", to).
			Error
		if err != nil {
			return errors.Wrap(err, "rewriting now playing")
		}
		return errors.Wrap(tx.Delete(&diff).Error, "deleting track diff")
	})
	return affected, err
}
