//nolint:lll // struct tags get very long and can't be split
package db

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hatarist/scrobbler/strdist"
)

func splitList(in string) []string {
	if in == "" {
		return nil
	}
	return strings.Split(in, ";")
}

func joinList(in []string) string {
	return strings.Join(in, ";")
}

type User struct {
	ID        int `gorm:"primary_key"`
	CreatedAt time.Time
	Name      string `gorm:"not null; unique_index" sql:"default: null"`
	// APIPassword is the legacy fixed scheme protocol credential, stored as
	// the md5 hex of the plaintext. the handshake digest is computed over it.
	APIPassword string `gorm:"not null" sql:"default: null"`
	// WebPassword is the modern salted hash used for the web side only.
	WebPassword string `sql:"default: null"`
	IsAdmin     bool   `sql:"default: null"`
	Tokens      []*Token
}

func (u *User) SetWebPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.WebPassword = string(hash)
	return nil
}

func (u *User) CheckWebPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.WebPassword), []byte(plain)) == nil
}

// Token is an alternate long lived protocol credential. a client may
// authenticate the handshake against any of its user's token keys instead of
// the primary credential.
type Token struct {
	ID        int `gorm:"primary_key"`
	CreatedAt time.Time
	User      *User
	UserID    int    `gorm:"not null; index" sql:"default: null; type:int REFERENCES users(id) ON DELETE CASCADE"`
	Key       string `gorm:"not null; unique_index" sql:"default: null"`
}

func NewToken(userID int) *Token {
	return &Token{
		UserID: userID,
		Key:    strings.ReplaceAll(uuid.NewString(), "-", ""),
	}
}

type Session struct {
	ID        int `gorm:"primary_key"`
	CreatedAt time.Time
	User      *User
	UserID    int    `gorm:"not null; index" sql:"default: null; type:int REFERENCES users(id) ON DELETE CASCADE"`
	SessionID string `gorm:"not null; unique_index" sql:"default: null"`
}

// NowPlaying holds the track currently playing for a user. at most one row
// per user, overwritten in place on every submission.
type NowPlaying struct {
	ID          int `gorm:"primary_key"`
	User        *User
	UserID      int    `gorm:"not null; unique_index" sql:"default: null; type:int REFERENCES users(id) ON DELETE CASCADE"`
	PlayedAt    time.Time `sql:"default: null"`
	Artist      string `gorm:"not null" sql:"default: null"`
	Track       string `gorm:"not null" sql:"default: null"`
	Album       string `sql:"default: null"`
	TrackNumber string `sql:"default: null"`
	Length      int    `sql:"default: null"`
	MusicBrainz string `sql:"default: null"`
}

// Scrobble is one historical play. append only, and unique on
// (played_at, artist, track) so that client retries are absorbed silently.
type Scrobble struct {
	ID          int `gorm:"primary_key"`
	CreatedAt   time.Time
	User        *User
	UserID      int       `gorm:"not null; index" sql:"default: null; type:int REFERENCES users(id) ON DELETE CASCADE"`
	PlayedAt    time.Time `gorm:"not null; unique_index:idx_played_at_artist_track" sql:"default: null"`
	Artist      string    `gorm:"not null; unique_index:idx_played_at_artist_track" sql:"default: null"`
	Track       string    `gorm:"not null; unique_index:idx_played_at_artist_track" sql:"default: null"`
	Album       string    `sql:"default: null"`
	TrackNumber string    `sql:"default: null"`
	Length      int       `sql:"default: null"`
	MusicBrainz string    `sql:"default: null"`
	Source      string    `sql:"default: null"`
	Rating      string    `sql:"default: null"`
	// ArtistID is a best effort correlation. scrobbles keep their submitted
	// artist string either way, which is what the dedup ledger works from.
	ArtistRow *Artist `gorm:"foreignkey:ArtistID"`
	ArtistID  *int    `sql:"default: null; type:int REFERENCES artists(id) ON DELETE SET NULL"`
}

// Artist carries enrichment metadata fetched from the external provider,
// plus play counters. scrobbles reference it only opportunistically.
type Artist struct {
	ID             int    `gorm:"primary_key"`
	Name           string `gorm:"not null; unique_index" sql:"default: null"`
	Bio            string `sql:"default: null; type:text"`
	ImageURL       string `sql:"default: null"`
	MBID           string `sql:"default: null"`
	Genre          string `sql:"default: null"`
	Tags           string `sql:"default: null"`
	Playcount      int    `sql:"default: null"`
	LocalPlaycount int    `sql:"default: null"`
}

func (a *Artist) GetTags() []string     { return splitList(a.Tags) }
func (a *Artist) SetTags(tags []string) { a.Tags = joinList(tags) }

// DiffScores holds one write once slot per distance algorithm variant.
// a nil slot has never been scored; a populated slot is never overwritten.
type DiffScores struct {
	D1  *float64 `sql:"default: null"`
	D1L *float64 `sql:"default: null"`
	D2  *float64 `sql:"default: null"`
	D2L *float64 `sql:"default: null"`
	D3  *float64 `sql:"default: null"`
	D3L *float64 `sql:"default: null"`
	D4  *float64 `sql:"default: null"`
	D4L *float64 `sql:"default: null"`
}

func (s *DiffScores) slot(v strdist.Variant) **float64 {
	switch {
	case v.Algorithm == strdist.AlgoFastComp && !v.Lowercase:
		return &s.D1
	case v.Algorithm == strdist.AlgoFastComp && v.Lowercase:
		return &s.D1L
	case v.Algorithm == strdist.AlgoLevenshtein && !v.Lowercase:
		return &s.D2
	case v.Algorithm == strdist.AlgoLevenshtein && v.Lowercase:
		return &s.D2L
	case v.Algorithm == strdist.AlgoSorensen && !v.Lowercase:
		return &s.D3
	case v.Algorithm == strdist.AlgoSorensen && v.Lowercase:
		return &s.D3L
	case v.Algorithm == strdist.AlgoJaccard && !v.Lowercase:
		return &s.D4
	case v.Algorithm == strdist.AlgoJaccard && v.Lowercase:
		return &s.D4L
	}
	return nil
}

func (s *DiffScores) Get(v strdist.Variant) (float64, bool) {
	slot := s.slot(v)
	if slot == nil || *slot == nil {
		return 0, false
	}
	return **slot, true
}

// Fill populates the variant's slot and reports whether it did. an already
// populated slot is left alone so that re-runs converge instead of churning.
func (s *DiffScores) Fill(v strdist.Variant, dist float64) bool {
	slot := s.slot(v)
	if slot == nil || *slot != nil {
		return false
	}
	*slot = &dist
	return true
}

// DiffArtist is one candidate duplicate artist name pair. stored at most once
// regardless of which orientation was discovered first.
type DiffArtist struct {
	ID      int    `gorm:"primary_key"`
	Artist1 string `gorm:"not null" sql:"default: null"`
	Artist2 string `gorm:"not null" sql:"default: null"`
	Ignore  bool   `gorm:"not null" sql:"default: false"`
	DiffScores
}

// DiffTrack is one candidate duplicate track name pair within an artist.
type DiffTrack struct {
	ID     int    `gorm:"primary_key"`
	Artist string `gorm:"not null" sql:"default: null"`
	Track1 string `gorm:"not null" sql:"default: null"`
	Track2 string `gorm:"not null" sql:"default: null"`
	Ignore bool   `gorm:"not null" sql:"default: false"`
	DiffScores
}

type Setting struct {
	Key   string `gorm:"not null; primary_key; auto_increment:false" sql:"default: null"`
	Value string `sql:"default: null"`
}
