package auth_test

import (
	"testing"

	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"github.com/stretchr/testify/require"

	"github.com/hatarist/scrobbler/auth"
	"github.com/hatarist/scrobbler/db"
)

func TestDigest(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	// md5("secret" + "1600000000")
	require.Equal("30a0e36cbb6a09e9fd0c8946c5995124", auth.Digest("secret", "1600000000"))
	require.NotEqual(auth.Digest("secret", "1600000000"), auth.Digest("secret", "1600000001"))
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	dbc, err := db.NewMock()
	require.NoError(err)
	defer dbc.Close()

	user := dbc.GetUserFromName("admin")
	require.NotNil(user)

	const timestamp = "1600000000"
	good := auth.Digest(user.APIPassword, timestamp)

	authed, token := auth.Authenticate(dbc, "admin", timestamp, good)
	require.NotNil(authed)
	require.Nil(token)
	require.Equal(user.ID, authed.ID)

	// digest is bound to the timestamp it was computed over
	authed, _ = auth.Authenticate(dbc, "admin", "1600000001", good)
	require.Nil(authed)

	authed, _ = auth.Authenticate(dbc, "admin", timestamp, "bogus")
	require.Nil(authed)

	authed, _ = auth.Authenticate(dbc, "nobody", timestamp, good)
	require.Nil(authed)
}

func TestAuthenticateTokenFallback(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	dbc, err := db.NewMock()
	require.NoError(err)
	defer dbc.Close()

	user := dbc.GetUserFromName("admin")
	require.NotNil(user)

	token := db.NewToken(user.ID)
	require.NoError(dbc.Create(token).Error)

	const timestamp = "1600000000"
	authed, matched := auth.Authenticate(dbc, "admin", timestamp, auth.Digest(token.Key, timestamp))
	require.NotNil(authed)
	require.NotNil(matched)
	require.Equal(token.Key, matched.Key)
}

func TestGetOrCreateSessionIsStable(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	dbc, err := db.NewMock()
	require.NoError(err)
	defer dbc.Close()

	user := dbc.GetUserFromName("admin")
	require.NotNil(user)

	first, err := auth.GetOrCreateSession(dbc, user)
	require.NoError(err)
	require.Len(first, 32)

	// a second handshake reuses the session instead of minting another
	second, err := auth.GetOrCreateSession(dbc, user)
	require.NoError(err)
	require.Equal(first, second)

	var count int
	dbc.Model(db.Session{}).Where("user_id=?", user.ID).Count(&count)
	require.Equal(1, count)
}

func TestValidateSession(t *testing.T) {
	t.Parallel()
	require := require.New(t)
	dbc, err := db.NewMock()
	require.NoError(err)
	defer dbc.Close()

	user := dbc.GetUserFromName("admin")
	require.NotNil(user)

	sessionID, err := auth.GetOrCreateSession(dbc, user)
	require.NoError(err)

	resolved := auth.ValidateSession(dbc, sessionID)
	require.NotNil(resolved)
	require.Equal(user.ID, resolved.ID)

	require.Nil(auth.ValidateSession(dbc, "nonexistent"))
}
