package db

import (
	"crypto/md5"
	"encoding/hex"
	"log"

	"github.com/jinzhu/gorm"
	"gopkg.in/gormigrate.v1"
)

func addMigrationLog(migrs ...gormigrate.Migration) []*gormigrate.Migration {
	logged := func(i int, mig gormigrate.MigrateFunc, name string) gormigrate.MigrateFunc {
		return func(tx *gorm.DB) error {
			// print that we're on the ith out of n migrations
			defer log.Printf("migration (%d/%d) '%s' finished", i+1, len(migrs), name)
			return mig(tx)
		}
	}
	ret := make([]*gormigrate.Migration, 0, len(migrs))
	for i, mig := range migrs {
		ret = append(ret, &gormigrate.Migration{
			ID:       mig.ID,
			Rollback: mig.Rollback,
			Migrate:  logged(i, mig.Migrate, mig.ID),
		})
	}
	return ret
}

//nolint:gochecknoglobals
var migrationInitSchema = gormigrate.Migration{
	ID: "202602071200",
	Migrate: func(tx *gorm.DB) error {
		return tx.AutoMigrate(
			User{},
			Token{},
			Session{},
			NowPlaying{},
			Scrobble{},
			Artist{},
			Setting{},
		).
			Error
	},
}

//nolint:gochecknoglobals
var migrationCreateInitUser = gormigrate.Migration{
	ID: "202602071201",
	Migrate: func(tx *gorm.DB) error {
		const (
			initUsername = "admin"
			initPassword = "admin"
		)
		err := tx.
			Where("name=?", initUsername).
			First(&User{}).
			Error
		if !gorm.IsRecordNotFoundError(err) {
			return err
		}
		sum := md5.Sum([]byte(initPassword))
		user := User{
			Name:        initUsername,
			APIPassword: hex.EncodeToString(sum[:]),
			IsAdmin:     true,
		}
		if err := user.SetWebPassword(initPassword); err != nil {
			return err
		}
		return tx.Create(&user).Error
	},
}

//nolint:gochecknoglobals
var migrationAddDiffLedger = gormigrate.Migration{
	ID: "202602071202",
	Migrate: func(tx *gorm.DB) error {
		return tx.AutoMigrate(
			DiffArtist{},
			DiffTrack{},
		).
			Error
	},
}
