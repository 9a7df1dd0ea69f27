// Package notify forwards accepted alerts to an external webhook.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"sentinel/config"
	"sentinel/core"
	"sentinel/util/goroutine"
)

// Notifier posts alerts at or above a minimum severity to a configured
// webhook. Delivery is asynchronous and best-effort: a failed post is
// retried once and then logged.
type Notifier struct {
	cfg         config.NotifyConfig
	minSeverity core.Severity
	client      *http.Client
	logger      *zap.SugaredLogger
}

// NewNotifier creates a webhook notifier. Returns nil when notifications
// are disabled or no URL is configured.
func NewNotifier(cfg config.NotifyConfig, logger *zap.SugaredLogger) *Notifier {
	if !cfg.Enabled || cfg.WebhookURL == "" {
		return nil
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	minSeverity := core.Severity(cfg.MinSeverity)
	if !minSeverity.IsValid() {
		minSeverity = core.SeverityHigh
	}
	return &Notifier{
		cfg:         cfg,
		minSeverity: minSeverity,
		client:      &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

// Notify sends the alert if it meets the severity floor. It returns
// immediately; delivery happens in a goroutine.
func (n *Notifier) Notify(alert *core.Alert) {
	if alert.Severity.Rank() < n.minSeverity.Rank() {
		return
	}
	go func() {
		defer goroutine.Recover("notify-webhook", n.logger)
		if err := n.send(alert); err != nil {
			n.logger.Errorw("Webhook notification failed",
				"alert_id", alert.AlertID,
				"url", n.cfg.WebhookURL,
				"error", err)
		}
	}()
}

func (n *Notifier) send(alert *core.Alert) error {
	payload := map[string]interface{}{
		"alert_id":    alert.AlertID,
		"event_name":  alert.Kind,
		"station_id":  alert.StationID,
		"customer_id": alert.CustomerID,
		"severity":    alert.Severity,
		"confidence":  alert.Confidence,
		"timestamp":   alert.Timestamp,
		"evidence":    alert.Evidence,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if lastErr = n.post(body); lastErr == nil {
			return nil
		}
	}
	return lastErr
}

func (n *Notifier) post(body []byte) error {
	req, err := http.NewRequest(http.MethodPost, n.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range n.cfg.Headers {
		req.Header.Set(key, value)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
