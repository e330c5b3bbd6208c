// Package chat provides the per-consultation message channel.
//
// The channel unlocks only while its consultation is accepted; before
// that neither reads nor writes are granted. The log is append-only:
// no edit or delete operation exists.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/docbridge/docbridge/internal/apperr"
	"github.com/docbridge/docbridge/internal/identity"
	"github.com/docbridge/docbridge/internal/models"
	"github.com/docbridge/docbridge/internal/policy"
	"gorm.io/gorm"
)

// View is a message with its sender's display name resolved.
type View struct {
	models.Message
	SenderName string `json:"senderName,omitempty"`
}

// Send appends a message to a consultation's channel.
func Send(ctx context.Context, db *gorm.DB, dir identity.Directory, consultationID, senderID, text string) (*View, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("chat: %w: message text is required", apperr.ErrValidation)
	}

	c, err := loadGated(db, consultationID, senderID)
	if err != nil {
		return nil, err
	}

	msg := models.Message{
		ConsultationID: c.ID,
		SenderID:       senderID,
		Text:           text,
	}
	if err := db.Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("chat: send: %w", err)
	}

	view := View{Message: msg}
	if dir != nil {
		users, err := dir.Lookup(ctx, []string{senderID})
		if err != nil {
			return nil, fmt.Errorf("chat: resolve sender: %w", err)
		}
		view.SenderName = users[senderID].Name
	}
	return &view, nil
}

// List returns a consultation's messages in ascending creation order,
// ties broken by insertion order. Polling before any message exists
// yields an empty list, not an error.
func List(ctx context.Context, db *gorm.DB, dir identity.Directory, consultationID, requesterID string) ([]View, error) {
	if _, err := loadGated(db, consultationID, requesterID); err != nil {
		return nil, err
	}

	var msgs []models.Message
	if err := db.Where("consultation_id = ?", consultationID).
		Order("created_at ASC, id ASC").Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("chat: list %s: %w", consultationID, err)
	}

	views := make([]View, len(msgs))
	for i, m := range msgs {
		views[i] = View{Message: m}
	}
	if dir != nil && len(msgs) > 0 {
		senders := make([]string, 0, 2)
		seen := map[string]bool{}
		for _, m := range msgs {
			if !seen[m.SenderID] {
				seen[m.SenderID] = true
				senders = append(senders, m.SenderID)
			}
		}
		users, err := dir.Lookup(ctx, senders)
		if err != nil {
			return nil, fmt.Errorf("chat: resolve senders: %w", err)
		}
		for i := range views {
			views[i].SenderName = users[views[i].SenderID].Name
		}
	}
	return views, nil
}

// loadGated loads a consultation and applies the channel's access rules:
// the user must be a party and the consultation must be accepted.
func loadGated(db *gorm.DB, consultationID, userID string) (*models.Consultation, error) {
	var c models.Consultation
	if err := db.Where("id = ?", consultationID).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("chat: %w: consultation %s", apperr.ErrNotFound, consultationID)
		}
		return nil, fmt.Errorf("chat: get consultation %s: %w", consultationID, err)
	}
	if !policy.IsParty(&c, userID) {
		return nil, fmt.Errorf("chat: %w: not a party to %s", apperr.ErrUnauthorized, consultationID)
	}
	if !policy.IsChatEligible(&c) {
		return nil, fmt.Errorf("chat: %w: chat requires an accepted consultation", apperr.ErrForbiddenState)
	}
	return &c, nil
}
