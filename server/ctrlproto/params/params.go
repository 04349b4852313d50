// Package params parses the legacy Audioscrobbler wire format: flat mappings
// of one and two character keys delivered by query string or form body, with
// scrobble batches encoded as numerically indexed keys.
//
// the short-to-long key mappings are fixed by the protocol:
//
//	a -> auth/artist (context dependent)   s -> session_id
//	u -> username                          b -> album
//	t -> timestamp/track (context dep.)    l -> length
//	n -> tracknumber                       m -> musicbrainz
//	i -> timestamp (scrobble)              o -> source
//	r -> rating
package params

import (
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrNotParseable marks a request that doesn't survive the wire grammar:
// missing required keys, an unparseable index, or a malformed numeric field.
// one bad field fails the whole request, there are no partial batches.
var ErrNotParseable = errors.New("request not parseable")

// AuthRequest is the handshake and password check payload.
type AuthRequest struct {
	Username  string
	Timestamp string
	Auth      string
}

// ParseAuth reads the fields `u`, `t` (or its long alias `time`) and `a`.
func ParseAuth(values url.Values) (*AuthRequest, error) {
	req := &AuthRequest{
		Username:  values.Get("u"),
		Timestamp: values.Get("t"),
		Auth:      values.Get("a"),
	}
	if req.Timestamp == "" {
		req.Timestamp = values.Get("time")
	}
	if req.Username == "" || req.Timestamp == "" || req.Auth == "" {
		return nil, ErrNotParseable
	}
	return req, nil
}

// Submission carries one track's fields, shared between the now playing and
// scrobble requests. PlayedAt and Source/Rating are only ever set for
// scrobbles.
type Submission struct {
	Artist      string
	Track       string
	Album       string
	TrackNumber string
	MusicBrainz string
	Source      string
	Rating      string
	Length      time.Duration
	PlayedAt    time.Time
}

// NowPlayingRequest is a single unindexed submission plus its session.
type NowPlayingRequest struct {
	SessionID string
	Submission
}

// ParseNowPlaying requires `s`, `a` and `t`; album, length, track number and
// musicbrainz id are optional.
func ParseNowPlaying(values url.Values) (*NowPlayingRequest, error) {
	req := &NowPlayingRequest{
		SessionID: values.Get("s"),
		Submission: Submission{
			Artist:      values.Get("a"),
			Track:       values.Get("t"),
			Album:       values.Get("b"),
			TrackNumber: values.Get("n"),
			MusicBrainz: values.Get("m"),
		},
	}
	if req.SessionID == "" || req.Artist == "" || req.Track == "" {
		return nil, ErrNotParseable
	}
	if raw := values.Get("l"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil {
			return nil, ErrNotParseable
		}
		req.Length = time.Duration(secs) * time.Second
	}
	return req, nil
}

// ParseScrobbles decodes a batch submission. every key except the session id
// carries a numeric index naming which of the batch's tracks the field
// belongs to, eg. `a0`/`t0`/`a1`/`t1`; some clients decorate the index with
// brackets (`a[0]`), which is stripped before parsing. the returned
// submissions are sorted ascending by their submitted timestamps, not by
// transport index, since submission order is not guaranteed to match play
// order.
func ParseScrobbles(values url.Values) (string, []Submission, error) {
	sessionID := values.Get("s")
	if sessionID == "" {
		return "", nil, ErrNotParseable
	}
	byIndex := map[int]*Submission{}
	for key, keyValues := range values {
		if key == "s" || key == "" || len(keyValues) == 0 {
			continue
		}
		field, index, err := splitKey(key)
		if err != nil {
			return "", nil, err
		}
		sub, ok := byIndex[index]
		if !ok {
			sub = &Submission{}
			byIndex[index] = sub
		}
		if err := setField(sub, field, keyValues[0]); err != nil {
			return "", nil, err
		}
	}
	subs := make([]Submission, 0, len(byIndex))
	for _, sub := range byIndex {
		subs = append(subs, *sub)
	}
	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].PlayedAt.Before(subs[j].PlayedAt)
	})
	return sessionID, subs, nil
}

// splitKey tokenizes an indexed wire key into its field letter and numeric
// index. a bare key like `a` means index 0.
func splitKey(key string) (byte, int, error) {
	field := key[0]
	digits := strings.Trim(key[1:], "[]")
	if digits == "" {
		return field, 0, nil
	}
	index, err := strconv.Atoi(digits)
	if err != nil || index < 0 {
		return 0, 0, ErrNotParseable
	}
	return field, index, nil
}

func setField(sub *Submission, field byte, value string) error {
	switch field {
	case 'a':
		sub.Artist = value
	case 't':
		sub.Track = value
	case 'b':
		sub.Album = value
	case 'n':
		sub.TrackNumber = value
	case 'm':
		sub.MusicBrainz = value
	case 'o':
		sub.Source = value
	case 'r':
		sub.Rating = value
	case 'l':
		secs, err := strconv.Atoi(value)
		if err != nil {
			return ErrNotParseable
		}
		sub.Length = time.Duration(secs) * time.Second
	case 'i':
		stamp, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return ErrNotParseable
		}
		sub.PlayedAt = time.Unix(stamp, 0)
	default:
		// clients send all sorts of extra junk. unknown fields are dropped
		// rather than failing the batch
	}
	return nil
}
