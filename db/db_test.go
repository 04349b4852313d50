package db

import (
	"log"
	"math/rand"
	"os"
	"testing"

	_ "github.com/jinzhu/gorm/dialects/sqlite"

	"github.com/hatarist/scrobbler/strdist"
)

var testDB *DB

func randKey() string {
	letters := []rune("abcdef0123456789")
	b := make([]rune, 16)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}

func TestGetSetting(t *testing.T) {
	key := randKey()
	// new key
	expected := "hello"
	testDB.SetSetting(key, expected)
	actual := testDB.GetSetting(key)
	if actual != expected {
		t.Errorf("expected %q, got %q", expected, actual)
	}
	// existing key
	expected = "howdy"
	testDB.SetSetting(key, expected)
	actual = testDB.GetSetting(key)
	if actual != expected {
		t.Errorf("expected %q, got %q", expected, actual)
	}
}

func TestInitUser(t *testing.T) {
	user := testDB.GetUserFromName("admin")
	if user == nil {
		t.Fatal("expected initial admin user")
	}
	if !user.IsAdmin {
		t.Error("expected admin flag")
	}
	// md5("admin"), the legacy protocol credential
	if expected := "21232f297a57a5a743894a0e4a801fc3"; user.APIPassword != expected {
		t.Errorf("expected %q, got %q", expected, user.APIPassword)
	}
	if !user.CheckWebPassword("admin") {
		t.Error("expected web password to verify")
	}
	if user.CheckWebPassword("nope") {
		t.Error("expected wrong web password to fail")
	}
}

func TestDiffScoreSlots(t *testing.T) {
	var scores DiffScores
	for _, name := range []string{"D1", "D1L", "D2", "D2L", "D3", "D3L", "D4", "D4L"} {
		variant, err := strdist.ParseVariant(name)
		if err != nil {
			t.Fatalf("parsing variant %q: %v", name, err)
		}
		if _, ok := scores.Get(variant); ok {
			t.Errorf("expected empty slot for %s", name)
		}
		if !scores.Fill(variant, 0.25) {
			t.Errorf("expected to fill empty slot for %s", name)
		}
		if scores.Fill(variant, 0.5) {
			t.Errorf("expected filled slot for %s to stay put", name)
		}
		got, ok := scores.Get(variant)
		if !ok || got != 0.25 {
			t.Errorf("expected 0.25 for %s, got %v (%t)", name, got, ok)
		}
	}
}

func TestMain(m *testing.M) {
	var err error
	testDB, err = NewMock()
	if err != nil {
		log.Fatalf("error opening database: %v\n", err)
	}
	os.Exit(m.Run())
}
