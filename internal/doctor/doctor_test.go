package doctor

import (
	"context"
	"errors"
	"testing"

	"github.com/docbridge/docbridge/internal/apperr"
	"github.com/docbridge/docbridge/internal/identity"
	"github.com/docbridge/docbridge/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.DoctorProfile{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func TestUpsertProfile_Create(t *testing.T) {
	db := newTestDB(t)

	profile, err := UpsertProfile(db, "d-1", ProfileOpts{Category: "cardiology", Experience: 7, Bio: "bio"})
	if err != nil {
		t.Fatalf("UpsertProfile: %v", err)
	}
	if profile.UserID != "d-1" || profile.Category != "cardiology" || profile.Experience != 7 {
		t.Errorf("unexpected profile: %+v", profile)
	}
}

func TestUpsertProfile_Update(t *testing.T) {
	db := newTestDB(t)

	if _, err := UpsertProfile(db, "d-1", ProfileOpts{Category: "cardiology", Experience: 7, Bio: "old bio", ProfileImage: "img.png"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	profile, err := UpsertProfile(db, "d-1", ProfileOpts{Category: "neurology", Experience: 8})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if profile.Category != "neurology" || profile.Experience != 8 {
		t.Errorf("unexpected profile after update: %+v", profile)
	}
	if profile.Bio != "old bio" || profile.ProfileImage != "img.png" {
		t.Errorf("omitted bio and image should keep stored values, got %q %q", profile.Bio, profile.ProfileImage)
	}

	var count int64
	db.Model(&models.DoctorProfile{}).Count(&count)
	if count != 1 {
		t.Errorf("expected 1 profile, got %d", count)
	}
}

func TestUpsertProfile_Validation(t *testing.T) {
	db := newTestDB(t)

	for name, opts := range map[string]ProfileOpts{
		"missing category":    {Experience: 3},
		"blank category":      {Category: "   ", Experience: 3},
		"negative experience": {Category: "cardiology", Experience: -1},
	} {
		if _, err := UpsertProfile(db, "d-1", opts); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("%s: expected ErrValidation, got %v", name, err)
		}
	}

	if _, err := UpsertProfile(db, "", ProfileOpts{Category: "cardiology"}); !errors.Is(err, apperr.ErrValidation) {
		t.Error("empty user id should be rejected")
	}
}

func TestGetProfile(t *testing.T) {
	db := newTestDB(t)

	if _, err := GetProfile(db, "d-1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if _, err := UpsertProfile(db, "d-1", ProfileOpts{Category: "cardiology", Experience: 7}); err != nil {
		t.Fatalf("create: %v", err)
	}
	profile, err := GetProfile(db, "d-1")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if profile.Category != "cardiology" {
		t.Errorf("unexpected profile: %+v", profile)
	}
}

func TestListComplete(t *testing.T) {
	db := newTestDB(t)
	dir := identity.NewStaticDirectory()
	dir.Add(identity.User{ID: "d-1", Name: "Dr. Adams", Email: "adams@example.com", Role: identity.RoleDoctor})
	dir.Add(identity.User{ID: "d-2", Name: "Dr. Brown", Role: identity.RoleDoctor})

	for _, id := range []string{"d-1", "d-2", "d-gone"} {
		if _, err := UpsertProfile(db, id, ProfileOpts{Category: "general", Experience: 2}); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	listings, err := ListComplete(context.Background(), db, dir)
	if err != nil {
		t.Fatalf("ListComplete: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(listings))
	}
	for _, l := range listings {
		if l.Name == "" {
			t.Errorf("listing %s has no name", l.UserID)
		}
		if l.UserID == "d-gone" {
			t.Error("profile unknown to the directory should be filtered out")
		}
	}
}

func TestListComplete_Empty(t *testing.T) {
	db := newTestDB(t)

	listings, err := ListComplete(context.Background(), db, identity.NewStaticDirectory())
	if err != nil {
		t.Fatalf("ListComplete: %v", err)
	}
	if len(listings) != 0 {
		t.Errorf("expected no listings, got %d", len(listings))
	}
}
