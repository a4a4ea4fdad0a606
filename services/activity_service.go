// services/activity_service.go
package services

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"movie-club-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActivityService writes the feed and streams it. Records happen after a
// settlement commits, never inside it — a feed failure must not undo a sale.
type ActivityService struct {
	DB *gorm.DB
}

func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{DB: db}
}

// Record appends a feed event, fire-and-forget.
func (s *ActivityService) Record(userID, eventType, message string, amount int64, refID string) {
	ev := models.ActivityEvent{
		ID:      uuid.NewString(),
		UserID:  userID,
		Type:    eventType,
		Message: message,
		Amount:  amount,
		RefID:   refID,
	}
	if err := s.DB.Create(&ev).Error; err != nil {
		log.Printf("[Activity] failed to record %s for %s: %v", eventType, userID, err)
	}
}

// Recent returns a user's latest feed entries.
func (s *ActivityService) Recent(userID string, limit int) ([]models.ActivityEvent, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	var events []models.ActivityEvent
	if err := s.DB.Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to load activity: %w", err)
	}
	return events, nil
}

// StreamSSE streams new feed events for the authenticated user in real time.
func (s *ActivityService) StreamSSE(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	// SSE headers
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()

		var lastMaxCreatedAt time.Time

		// Initialize cursor at the newest existing event.
		var latest models.ActivityEvent
		if err := s.DB.
			Where("user_id = ?", userID).
			Order("created_at DESC").
			First(&latest).Error; err == nil {
			lastMaxCreatedAt = latest.CreatedAt
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("SSE init error for user %s: %v", userID, err)
		}

		// Initial keepalive (comment event)
		w.WriteString(":\n\n")
		w.Flush()

		for {
			select {
			case <-ticker.C:
				var fresh []models.ActivityEvent
				err := s.DB.
					Where("user_id = ?", userID).
					Where("created_at > ?", lastMaxCreatedAt).
					Order("created_at ASC").
					Find(&fresh).Error
				if err != nil {
					log.Printf("SSE query error for user %s: %v", userID, err)
					continue
				}
				if len(fresh) == 0 {
					continue
				}

				lastMaxCreatedAt = fresh[len(fresh)-1].CreatedAt

				for _, ev := range fresh {
					payload, _ := json.Marshal(ev)
					fmt.Fprintf(w, "event: activity\ndata: %s\n\n", payload)
				}

				if err := w.Flush(); err != nil {
					// Client disconnected
					return
				}

			case <-c.Context().Done():
				// Client closed connection
				return
			}
		}
	})

	return nil
}
