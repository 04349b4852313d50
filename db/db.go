// Package db provides database helpers and models for the scrobbler store.
package db

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"sync/atomic"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
	"gopkg.in/gormigrate.v1"
)

//nolint:gochecknoglobals
var (
	dbMaxOpenConns = 1
	mockCounter    uint32
	dbOptions      = url.Values{
		// with this, multiple connections share a single data and schema cache.
		// see https://www.sqlite.org/sharedcache.html
		"cache": {"shared"},
		// with this, the db sleeps for a little while when locked. can prevent
		// a SQLITE_BUSY. see https://www.sqlite.org/c3ref/busy_timeout.html
		"_busy_timeout": {"30000"},
		"_journal_mode": {"WAL"},
		"_foreign_keys": {"true"},
	}
)

// settings keys.
const (
	LastFMAPIKey = "lastfm_api_key"
)

type DB struct {
	*gorm.DB
}

func New(path string) (*DB, error) {
	url := url.URL{Path: path}
	url.RawQuery = dbOptions.Encode()
	return open(url.String())
}

func open(dsn string) (*DB, error) {
	db, err := gorm.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "with gorm")
	}
	db.SetLogger(log.New(os.Stdout, "gorm ", 0))
	db.DB().SetMaxOpenConns(dbMaxOpenConns)
	migr := gormigrate.New(db, gormigrate.DefaultOptions, addMigrationLog(
		migrationInitSchema,
		migrationCreateInitUser,
		migrationAddDiffLedger,
	))
	if err = migr.Migrate(); err != nil {
		return nil, errors.Wrap(err, "migrating to latest version")
	}
	return &DB{DB: db}, nil
}

func NewMock() (*DB, error) {
	// each mock gets its own named in-memory database; a plain ":memory:"
	// path renders as an on-disk "./:memory:" file, and a shared-cache
	// memory DSN would make every mock in the process share one database.
	id := atomic.AddUint32(&mockCounter, 1)
	return open(fmt.Sprintf("file:scrobblermock%d?mode=memory&%s", id, dbOptions.Encode()))
}

func (db *DB) GetSetting(key string) string {
	setting := &Setting{}
	db.
		Where("key=?", key).
		First(setting)
	return setting.Value
}

func (db *DB) SetSetting(key, value string) {
	db.
		Where(Setting{Key: key}).
		Assign(Setting{Value: value}).
		FirstOrCreate(&Setting{})
}

func (db *DB) GetUserFromName(name string) *User {
	user := &User{}
	err := db.
		Where("name=?", name).
		First(user).
		Error
	if gorm.IsRecordNotFoundError(err) {
		return nil
	}
	return user
}

// WithTx runs cb inside one transaction, committing only if cb returns nil.
// every multi row write in the ingestion and dedup paths goes through here so
// that partial batches are never visible.
func (db *DB) WithTx(cb func(tx *gorm.DB) error) error {
	tx := db.Begin()
	if err := tx.Error; err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	if err := cb(tx); err != nil {
		tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit().Error, "commit transaction")
}
