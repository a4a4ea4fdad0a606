package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"movie-club-system/models"

	"gorm.io/gorm"
)

// WebhookClient pushes activity events to the club's Discord bridge.
// Delivery is at-least-once: the cursor only advances after a 2xx response.
type WebhookClient struct {
	WebhookURL string
	Token      string
	HTTPClient *http.Client
	DB         *gorm.DB
}

// NewWebhookClient reads config from env. A missing ACTIVITY_WEBHOOK_URL
// disables the worker rather than failing startup.
func NewWebhookClient(db *gorm.DB) *WebhookClient {
	webhookURL := os.Getenv("ACTIVITY_WEBHOOK_URL")
	token := os.Getenv("CLUB_SERVICE_TOKEN")

	return &WebhookClient{
		WebhookURL: webhookURL,
		Token:      token,
		DB:         db,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// PushBatch POSTs a batch of events to the webhook.
func (c *WebhookClient) PushBatch(ctx context.Context, events []models.ActivityEvent) error {
	payload := struct {
		Events []models.ActivityEvent `json:"events"`
	}{Events: events}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode events: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Service-Token", c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// PollActivity ships undelivered activity events in order. On failure the
// batch stays undelivered and the next tick retries the same window.
func PollActivity(ctx context.Context, client *WebhookClient, pollInterval time.Duration) {
	if client.WebhookURL == "" {
		log.Println("ACTIVITY_WEBHOOK_URL not set — activity webhook worker disabled.")
		return
	}
	log.Println("Starting activity webhook worker...")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Activity webhook worker stopped.")
			return
		case <-ticker.C:
			var events []models.ActivityEvent
			err := client.DB.
				Where("delivered_at IS NULL").
				Order("created_at ASC").
				Limit(50).
				Find(&events).Error
			if err != nil {
				log.Printf("❌ Error loading undelivered activity: %v", err)
				continue
			}
			if len(events) == 0 {
				continue
			}

			if err := client.PushBatch(ctx, events); err != nil {
				log.Printf("❌ Failed to deliver %d activity event(s): %v", len(events), err)
				continue
			}

			ids := make([]string, len(events))
			for i, e := range events {
				ids[i] = e.ID
			}
			now := time.Now().UTC()
			if err := client.DB.Model(&models.ActivityEvent{}).
				Where("id IN ?", ids).
				Update("delivered_at", now).Error; err != nil {
				log.Printf("❌ Failed to mark %d event(s) delivered: %v", len(ids), err)
				continue
			}
			log.Printf("📤 Delivered %d activity event(s) to webhook.", len(events))
		}
	}
}
