// Package auth implements the legacy Audioscrobbler challenge-response
// handshake and the protocol sessions it hands out.
package auth

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"

	"github.com/hatarist/scrobbler/db"
)

func md5Hex(in string) string {
	sum := md5.Sum([]byte(in))
	return hex.EncodeToString(sum[:])
}

// Digest computes the handshake digest over a stored credential and the
// client supplied timestamp. the timestamp stays a string on purpose, the
// digest covers the exact bytes the client sent.
func Digest(credential, timestamp string) string {
	return md5Hex(credential + timestamp)
}

// Authenticate resolves a handshake to a user. the primary credential is
// checked first, then each of the user's long lived tokens the same way; the
// returned token is non nil when one of those matched instead. an unknown
// user or a bad digest is a normal failure, reported as a nil user.
func Authenticate(dbc *db.DB, username, timestamp, digest string) (*db.User, *db.Token) {
	user := dbc.GetUserFromName(username)
	if user == nil {
		return nil, nil
	}
	if digest == Digest(user.APIPassword, timestamp) {
		return user, nil
	}
	var tokens []*db.Token
	dbc.
		Where("user_id=?", user.ID).
		Find(&tokens)
	for _, token := range tokens {
		if digest == Digest(token.Key, timestamp) {
			return user, token
		}
	}
	return nil, nil
}

// GetOrCreateSession returns the user's existing protocol session id, minting
// and persisting a new one only if they have none. the legacy protocol has no
// expiry; an expiry policy would change only the lookup here, not the
// contract.
func GetOrCreateSession(dbc *db.DB, user *db.User) (string, error) {
	session := &db.Session{}
	err := dbc.
		Where("user_id=?", user.ID).
		First(session).
		Error
	switch {
	case err == nil:
		return session.SessionID, nil
	case !gorm.IsRecordNotFoundError(err):
		return "", errors.Wrap(err, "looking up session")
	}
	now := time.Now()
	session = &db.Session{
		UserID:    user.ID,
		SessionID: md5Hex(user.Name + user.APIPassword + strconv.FormatInt(now.Unix(), 10)),
		CreatedAt: now,
	}
	if err := dbc.Create(session).Error; err != nil {
		return "", errors.Wrap(err, "creating session")
	}
	return session.SessionID, nil
}

// ValidateSession resolves a now playing or scrobble submission's session id
// to its user, or nil for an unknown session.
func ValidateSession(dbc *db.DB, sessionID string) *db.User {
	session := &db.Session{}
	err := dbc.
		Where("session_id=?", sessionID).
		First(session).
		Error
	if gorm.IsRecordNotFoundError(err) {
		return nil
	}
	user := &db.User{}
	if dbc.First(user, session.UserID).RecordNotFound() {
		return nil
	}
	return user
}
