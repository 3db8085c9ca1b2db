package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"chefmarket/entity"
)

// NotificationsClient delivers decision outcomes to the chef through the
// notification service. Best effort: callers log failures, they never fail
// the approval.
type NotificationsClient struct {
	addr       string
	httpClient *http.Client
}

func NewNotificationsClient(addr string) NotificationsClient {
	return NotificationsClient{
		addr: addr,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c NotificationsClient) Notify(ctx context.Context, notification entity.ChefNotification) error {
	body, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("could not marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.addr+"/notifications", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("could not build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("could not deliver notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("unexpected status code while delivering notification: %d", resp.StatusCode)
	}

	return nil
}
