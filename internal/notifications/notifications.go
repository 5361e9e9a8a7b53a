package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/filtration-controller/internal/env"
	"github.com/thatsimonsguy/filtration-controller/internal/status"
)

var client *http.Client
var topic string
var initialized bool

var baseURL = "https://ntfy.sh"

// Init initializes the notification client
func Init() {
	if env.Cfg.NtfyTopic == "" {
		log.Warn().Msg("Ntfy topic not configured - notifications disabled")
		return
	}

	client = &http.Client{
		Timeout: 10 * time.Second,
	}
	topic = env.Cfg.NtfyTopic
	initialized = true

	log.Info().
		Str("topic", topic).
		Msg("Ntfy notifications initialized")
}

func Enabled() bool {
	return initialized
}

// Send sends a notification to ntfy.sh
func Send(title, message string) error {
	if !initialized {
		return fmt.Errorf("notifications not initialized")
	}

	payload := map[string]interface{}{
		"topic":    topic,
		"title":    title,
		"message":  message,
		"priority": 5,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequest("POST", baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ntfy returned non-success status: %d", resp.StatusCode)
	}

	log.Debug().
		Str("title", title).
		Int("status", resp.StatusCode).
		Msg("Notification sent successfully")

	return nil
}

var send = Send

// BreachAlerter notifies once each time a breach latches.
type BreachAlerter struct {
	latched bool
}

func (b *BreachAlerter) Emit(snap status.Snapshot) error {
	breached := snap.Breached()
	defer func() { b.latched = breached }()

	if !breached || b.latched || !initialized {
		return nil
	}

	msg := fmt.Sprintf("Water breach detected at %s. Valves closed; clear the breach once the leak is fixed.", snap.Breach)
	if err := send("Filtration water breach", msg); err != nil {
		return fmt.Errorf("breach notification: %w", err)
	}
	return nil
}
