// Package ingest validates and persists now playing and scrobble submissions.
// it sits between the wire parser and the store: requests that parsed but
// carry unusable data are rejected with ErrBadRequest, duplicate submissions
// are absorbed silently, and a batch always commits or rolls back as a whole.
package ingest

import (
	"time"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"

	"github.com/hatarist/scrobbler/db"
	"github.com/hatarist/scrobbler/server/ctrlproto/params"
)

// ErrBadRequest marks field data that survived parsing but can't be stored,
// eg. a track with no artist or a scrobble with no timestamp. surfaced to the
// client as a protocol rejection, never as a server error.
var ErrBadRequest = errors.New("bad request")

// RecordNowPlaying upserts the user's single now playing row, overwriting
// every field in place. a user has at most one currently playing track.
func RecordNowPlaying(dbc *db.DB, user *db.User, sub params.Submission) error {
	if sub.Artist == "" || sub.Track == "" {
		return ErrBadRequest
	}
	err := dbc.
		Where(db.NowPlaying{UserID: user.ID}).
		Assign(map[string]interface{}{
			"user_id":      user.ID,
			"played_at":    time.Now(),
			"artist":       sub.Artist,
			"track":        sub.Track,
			"album":        sub.Album,
			"track_number": sub.TrackNumber,
			"length":       int(sub.Length.Seconds()),
			"music_brainz": sub.MusicBrainz,
		}).
		FirstOrCreate(&db.NowPlaying{}).
		Error
	return errors.Wrap(err, "upserting now playing")
}

// RecordScrobbles stores a timestamp ordered batch in one transaction.
// each track gets a best effort artist correlation (a miss never blocks the
// insert), and the insert itself is an insert-or-ignore on
// (played_at, artist, track), so a client retrying the same batch is a no-op.
func RecordScrobbles(dbc *db.DB, user *db.User, subs []params.Submission) error {
	for _, sub := range subs {
		if sub.Artist == "" || sub.Track == "" || sub.PlayedAt.IsZero() {
			return ErrBadRequest
		}
	}
	return dbc.WithTx(func(tx *gorm.DB) error {
		for i := range subs {
			if err := insertScrobble(tx, user, &subs[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertScrobble(tx *gorm.DB, user *db.User, sub *params.Submission) error {
	scrobble := db.Scrobble{
		UserID:      user.ID,
		PlayedAt:    sub.PlayedAt,
		Artist:      sub.Artist,
		Track:       sub.Track,
		Album:       sub.Album,
		TrackNumber: sub.TrackNumber,
		Length:      int(sub.Length.Seconds()),
		MusicBrainz: sub.MusicBrainz,
		Source:      sub.Source,
		Rating:      sub.Rating,
	}

	var artist db.Artist
	err := tx.
		Where("name=?", sub.Artist).
		First(&artist).
		Error
	switch {
	case err == nil:
		scrobble.ArtistID = &artist.ID
		err := tx.
			Model(&artist).
			UpdateColumn("local_playcount", gorm.Expr("local_playcount+1")).
			Error
		if err != nil {
			return errors.Wrap(err, "bumping artist playcount")
		}
	case !gorm.IsRecordNotFoundError(err):
		return errors.Wrap(err, "correlating artist")
	}

	err = tx.
		Set("gorm:insert_modifier", "OR IGNORE").
		Create(&scrobble).
		Error
	return errors.Wrap(err, "inserting scrobble")
}
