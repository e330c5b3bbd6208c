package chat

import (
	"context"
	"errors"
	"testing"
	"time"

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
	if err := db.AutoMigrate(&models.Consultation{}, &models.Message{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func seedConsultation(t *testing.T, db *gorm.DB, id, status string) {
	t.Helper()
	c := models.Consultation{ID: id, PatientID: "p-1", DoctorID: "d-1", ArtifactID: "a-1", Status: status}
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("seed consultation: %v", err)
	}
}

func testDirectory() identity.Directory {
	return identity.NewStaticDirectory(
		identity.User{ID: "p-1", Name: "Asha Rao", Role: identity.RolePatient},
		identity.User{ID: "d-1", Name: "Dr. Menon", Role: identity.RoleDoctor},
	)
}

func TestSend(t *testing.T) {
	db := newTestDB(t)
	seedConsultation(t, db, "c-1", models.StatusAccepted)

	view, err := Send(context.Background(), db, testDirectory(), "c-1", "p-1", "  hello  ")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if view.Text != "hello" {
		t.Errorf("text = %q, want trimmed %q", view.Text, "hello")
	}
	if view.SenderName != "Asha Rao" {
		t.Errorf("senderName = %q", view.SenderName)
	}
	if view.ID == 0 {
		t.Error("message ID not assigned")
	}
}

func TestSend_EmptyText(t *testing.T) {
	db := newTestDB(t)
	seedConsultation(t, db, "c-1", models.StatusAccepted)

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := Send(context.Background(), db, nil, "c-1", "p-1", text)
		if !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("text %q: err = %v, want ErrValidation", text, err)
		}
	}
}

func TestSend_ConsultationNotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := Send(context.Background(), db, nil, "c-missing", "p-1", "hello")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSend_NotAParty(t *testing.T) {
	db := newTestDB(t)
	seedConsultation(t, db, "c-1", models.StatusAccepted)

	_, err := Send(context.Background(), db, nil, "c-1", "p-2", "hello")
	if !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}

func TestSend_GatedOnAccepted(t *testing.T) {
	db := newTestDB(t)
	for _, status := range []string{models.StatusPending, models.StatusRejected, models.StatusCompleted} {
		seedConsultation(t, db, "c-"+status, status)
		_, err := Send(context.Background(), db, nil, "c-"+status, "p-1", "hello")
		if !errors.Is(err, apperr.ErrForbiddenState) {
			t.Errorf("status %s: err = %v, want ErrForbiddenState", status, err)
		}
	}
}

func TestList_SameGatesAsSend(t *testing.T) {
	db := newTestDB(t)
	seedConsultation(t, db, "c-1", models.StatusPending)

	// Read access pre-acceptance is deliberately not granted.
	_, err := List(context.Background(), db, nil, "c-1", "p-1")
	if !errors.Is(err, apperr.ErrForbiddenState) {
		t.Errorf("err = %v, want ErrForbiddenState", err)
	}

	_, err = List(context.Background(), db, nil, "c-missing", "p-1")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestList_EmptyChannel(t *testing.T) {
	db := newTestDB(t)
	seedConsultation(t, db, "c-1", models.StatusAccepted)

	views, err := List(context.Background(), db, testDirectory(), "c-1", "d-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(views) != 0 {
		t.Errorf("len = %d, want 0", len(views))
	}
}

func TestList_AscendingWithTieBreak(t *testing.T) {
	db := newTestDB(t)
	seedConsultation(t, db, "c-1", models.StatusAccepted)

	// Two messages share a timestamp; insertion order must hold.
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, m := range []models.Message{
		{ConsultationID: "c-1", SenderID: "p-1", Text: "first", CreatedAt: at},
		{ConsultationID: "c-1", SenderID: "d-1", Text: "second", CreatedAt: at},
		{ConsultationID: "c-1", SenderID: "p-1", Text: "third", CreatedAt: at.Add(time.Second)},
	} {
		msg := m
		if err := db.Create(&msg).Error; err != nil {
			t.Fatalf("seed message %d: %v", i, err)
		}
	}

	views, err := List(context.Background(), db, testDirectory(), "c-1", "p-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(views) != 3 {
		t.Fatalf("len = %d, want 3", len(views))
	}
	want := []string{"first", "second", "third"}
	for i, v := range views {
		if v.Text != want[i] {
			t.Errorf("views[%d].Text = %q, want %q", i, v.Text, want[i])
		}
	}
	if views[0].SenderName != "Asha Rao" || views[1].SenderName != "Dr. Menon" {
		t.Errorf("sender names = %q, %q", views[0].SenderName, views[1].SenderName)
	}
}
