package rating

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/docbridge/docbridge/internal/apperr"
	"github.com/docbridge/docbridge/internal/events"
	"github.com/docbridge/docbridge/internal/identity"
	"github.com/docbridge/docbridge/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.DoctorProfile{}, &models.Consultation{}, &models.Rating{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func seed(t *testing.T, db *gorm.DB, consultationID, patientID, doctorID, status string) {
	t.Helper()
	var count int64
	db.Model(&models.DoctorProfile{}).Where("user_id = ?", doctorID).Count(&count)
	if count == 0 {
		p := models.DoctorProfile{UserID: doctorID, Category: "general", Experience: 3}
		if err := db.Create(&p).Error; err != nil {
			t.Fatalf("seed doctor: %v", err)
		}
	}
	c := models.Consultation{ID: consultationID, PatientID: patientID, DoctorID: doctorID, ArtifactID: "a-1", Status: status}
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("seed consultation: %v", err)
	}
}

func summary(t *testing.T, db *gorm.DB, doctorID string) models.DoctorProfile {
	t.Helper()
	var p models.DoctorProfile
	if err := db.First(&p, "user_id = ?", doctorID).Error; err != nil {
		t.Fatalf("load profile: %v", err)
	}
	return p
}

func TestSubmit(t *testing.T) {
	db := newTestDB(t)
	seed(t, db, "c-1", "p-1", "d-1", models.StatusAccepted)

	bus := events.NewBus()
	var got events.Event
	bus.Subscribe(func(e events.Event) { got = e })

	r, err := Submit(db, bus, "c-1", "p-1", 4, "  very helpful  ")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if r.Score != 4 || r.Review != "very helpful" {
		t.Errorf("rating = %+v", r)
	}
	if r.DoctorID != "d-1" {
		t.Errorf("doctorID = %q, want denormalized d-1", r.DoctorID)
	}

	p := summary(t, db, "d-1")
	if p.AverageScore != 4.0 || p.RatingCount != 1 {
		t.Errorf("summary = %.1f/%d, want 4.0/1", p.AverageScore, p.RatingCount)
	}

	if got.Type != events.TypeRatingSubmitted || got.RatingCount != 1 || got.AverageScore != 4.0 {
		t.Errorf("event = %+v", got)
	}
}

func TestSubmit_ScoreBounds(t *testing.T) {
	db := newTestDB(t)
	seed(t, db, "c-1", "p-1", "d-1", models.StatusAccepted)

	for _, score := range []int{0, -1, 6, 100} {
		_, err := Submit(db, nil, "c-1", "p-1", score, "")
		if !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("score %d: err = %v, want ErrValidation", score, err)
		}
	}
}

func TestSubmit_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := Submit(db, nil, "c-missing", "p-1", 4, "")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSubmit_PatientOnly(t *testing.T) {
	db := newTestDB(t)
	seed(t, db, "c-1", "p-1", "d-1", models.StatusAccepted)

	for _, user := range []string{"d-1", "p-2", ""} {
		_, err := Submit(db, nil, "c-1", user, 4, "")
		if !errors.Is(err, apperr.ErrUnauthorized) {
			t.Errorf("user %q: err = %v, want ErrUnauthorized", user, err)
		}
	}
}

func TestSubmit_RequiresAccepted(t *testing.T) {
	db := newTestDB(t)
	for _, status := range []string{models.StatusPending, models.StatusRejected, models.StatusCompleted} {
		seed(t, db, "c-"+status, "p-1", "d-"+status, status)
		_, err := Submit(db, nil, "c-"+status, "p-1", 4, "")
		if !errors.Is(err, apperr.ErrForbiddenState) {
			t.Errorf("status %s: err = %v, want ErrForbiddenState", status, err)
		}
	}
}

func TestSubmit_DuplicateConsultation(t *testing.T) {
	db := newTestDB(t)
	seed(t, db, "c-1", "p-1", "d-1", models.StatusAccepted)

	if _, err := Submit(db, nil, "c-1", "p-1", 4, ""); err != nil {
		t.Fatalf("first Submit: %v", err)
	}

	_, err := Submit(db, nil, "c-1", "p-1", 5, "")
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}

	// Summary reflects only the first rating.
	p := summary(t, db, "d-1")
	if p.AverageScore != 4.0 || p.RatingCount != 1 {
		t.Errorf("summary = %.1f/%d, want 4.0/1", p.AverageScore, p.RatingCount)
	}
}

func TestSubmit_DuplicateDoctorPatientPair(t *testing.T) {
	db := newTestDB(t)
	seed(t, db, "c-1", "p-1", "d-1", models.StatusAccepted)
	seed(t, db, "c-2", "p-1", "d-1", models.StatusAccepted)

	if _, err := Submit(db, nil, "c-1", "p-1", 4, ""); err != nil {
		t.Fatalf("first Submit: %v", err)
	}

	// Different consultation, same (doctor, patient) pair.
	_, err := Submit(db, nil, "c-2", "p-1", 5, "")
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestSubmit_ConstraintHoldsWithoutPreCheck(t *testing.T) {
	db := newTestDB(t)
	seed(t, db, "c-1", "p-1", "d-1", models.StatusAccepted)

	// Insert directly, bypassing Submit's pre-check, to prove the unique
	// index itself rejects the duplicate (the §5-style race path).
	first := models.Rating{ID: "r-1", ConsultationID: "c-1", DoctorID: "d-1", PatientID: "p-1", Score: 3}
	if err := db.Create(&first).Error; err != nil {
		t.Fatalf("direct create: %v", err)
	}
	dup := models.Rating{ID: "r-2", ConsultationID: "c-1", DoctorID: "d-1", PatientID: "p-1", Score: 5}
	err := db.Create(&dup).Error
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Errorf("err = %v, want gorm.ErrDuplicatedKey", err)
	}
}

func TestSubmit_SummaryRecomputedFromScratch(t *testing.T) {
	db := newTestDB(t)
	seed(t, db, "c-1", "p-1", "d-1", models.StatusAccepted)
	seed(t, db, "c-2", "p-2", "d-1", models.StatusAccepted)
	seed(t, db, "c-3", "p-3", "d-1", models.StatusAccepted)

	for _, s := range []struct {
		cid     string
		patient string
		score   int
	}{
		{"c-1", "p-1", 4},
		{"c-2", "p-2", 5},
		{"c-3", "p-3", 4},
	} {
		if _, err := Submit(db, nil, s.cid, s.patient, s.score, ""); err != nil {
			t.Fatalf("Submit %s: %v", s.cid, err)
		}
	}

	// mean(4,5,4) = 4.333... → 4.3
	p := summary(t, db, "d-1")
	if p.AverageScore != 4.3 || p.RatingCount != 3 {
		t.Errorf("summary = %.1f/%d, want 4.3/3", p.AverageScore, p.RatingCount)
	}
}

func TestRoundHalfUp(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{4.25, 4.3},
		{4.24, 4.2},
		{4.3333333, 4.3},
		{4.6666666, 4.7},
		{5.0, 5.0},
		{1.0, 1.0},
		{4.45, 4.5},
	}
	for _, tc := range cases {
		if got := roundHalfUp(tc.in); got != tc.want {
			t.Errorf("roundHalfUp(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestListForDoctor_NewestFirstNoContactData(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	p := models.DoctorProfile{UserID: "d-1", Category: "general", Experience: 3}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed doctor: %v", err)
	}
	for i, r := range []models.Rating{
		{ID: "r-1", ConsultationID: "c-1", DoctorID: "d-1", PatientID: "p-1", Score: 4, CreatedAt: base},
		{ID: "r-2", ConsultationID: "c-2", DoctorID: "d-1", PatientID: "p-2", Score: 5, CreatedAt: base.Add(time.Hour)},
	} {
		rr := r
		if err := db.Create(&rr).Error; err != nil {
			t.Fatalf("seed rating %d: %v", i, err)
		}
	}

	dir := identity.NewStaticDirectory(
		identity.User{ID: "p-1", Name: "Asha Rao", Email: "asha@example.com", Role: identity.RolePatient},
		identity.User{ID: "p-2", Name: "Ben Kim", Email: "ben@example.com", Role: identity.RolePatient},
	)

	views, err := ListForDoctor(context.Background(), db, dir, "d-1")
	if err != nil {
		t.Fatalf("ListForDoctor: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("len = %d, want 2", len(views))
	}
	if views[0].ID != "r-2" || views[1].ID != "r-1" {
		t.Errorf("order = %s, %s", views[0].ID, views[1].ID)
	}
	if views[0].ReviewerName != "Ben Kim" {
		t.Errorf("reviewerName = %q", views[0].ReviewerName)
	}
}
