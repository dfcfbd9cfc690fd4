package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	notificationdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/notification/domain"
)

type Provider struct {
	client     *http.Client
	webhookURL string
}

func NewProvider(webhookURL string) *Provider {
	return &Provider{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		webhookURL: webhookURL,
	}
}

func (p *Provider) Send(ctx context.Context, msg notificationdomain.Message) error {
	if p.webhookURL == "" {
		return notificationdomain.ErrMissingWebhook
	}

	body, err := json.Marshal(map[string]any{
		"text": fmt.Sprintf("*%s* company=%s\n%s", msg.Kind, msg.CompanyID, msg.Text),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("slack_api_error: status=%d", resp.StatusCode)
	}
	return nil
}
