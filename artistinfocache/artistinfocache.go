// Package artistinfocache lazily fills artist rows with metadata from
// last.fm. enrichment is strictly best effort and runs off to the side of
// ingestion, one artist at a time.
package artistinfocache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/jinzhu/gorm"

	"github.com/hatarist/scrobbler/db"
	"github.com/hatarist/scrobbler/lastfm"
)

type ArtistInfoCache struct {
	db           *db.DB
	lastfmClient *lastfm.Client
}

func New(db *db.DB, lastfmClient *lastfm.Client) *ArtistInfoCache {
	return &ArtistInfoCache{db: db, lastfmClient: lastfmClient}
}

func (a *ArtistInfoCache) Lookup(ctx context.Context, artist *db.Artist) error {
	info, err := a.lastfmClient.ArtistGetInfo(artist.Name)
	if err != nil {
		return fmt.Errorf("get upstream info: %w", err)
	}

	artist.Bio = info.Bio.Summary
	artist.MBID = info.MBID
	artist.ImageURL = biggestImage(info.Image)
	artist.Playcount, _ = strconv.Atoi(info.Stats.Playcount)

	var tags []string
	for _, tag := range info.Tags.Tag {
		tags = append(tags, tag.Name)
	}
	artist.SetTags(tags)
	if len(tags) > 0 {
		artist.Genre = tags[0]
	}

	if err := a.db.Save(artist).Error; err != nil {
		return fmt.Errorf("save upstream info: %w", err)
	}
	return nil
}

// Refresh enriches one artist that has no bio yet, if there is one. called
// periodically so the whole library converges over time without hammering the
// provider.
func (a *ArtistInfoCache) Refresh() error {
	var artist db.Artist
	err := a.db.
		Where("bio IS NULL OR bio=?", "").
		Order("local_playcount DESC").
		First(&artist).
		Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("finding non enriched artist: %w", err)
	}
	if artist.ID == 0 {
		return nil
	}

	if err := a.Lookup(context.Background(), &artist); err != nil {
		return fmt.Errorf("looking up artist %s: %w", artist.Name, err)
	}

	log.Printf("cached artist info for %q", artist.Name)

	return nil
}

func biggestImage(images []lastfm.Image) string {
	sizes := map[string]int{"small": 1, "medium": 2, "large": 3, "extralarge": 4, "mega": 5}
	var best string
	var bestRank int
	for _, img := range images {
		if rank := sizes[img.Size]; img.Text != "" && rank >= bestRank {
			best, bestRank = img.Text, rank
		}
	}
	return best
}
