package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/evalforge-dev/evalforge/internal/models"
	"github.com/evalforge-dev/evalforge/internal/types"
)

type DiscordWebhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type DiscordEmbed struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Color       int                   `json:"color"`
	Fields      []DiscordWebhookField `json:"fields"`
	Timestamp   string                `json:"timestamp"`
}

type DiscordWebhookRequest struct {
	Username string         `json:"username"`
	Embeds   []DiscordEmbed `json:"embeds"`
}

type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type SlackAttachment struct {
	Color     string       `json:"color"`
	Title     string       `json:"title"`
	Text      string       `json:"text"`
	Fields    []SlackField `json:"fields"`
	Timestamp int64        `json:"ts"`
}

type SlackWebhookRequest struct {
	Username    string            `json:"username"`
	Text        string            `json:"text"`
	Attachments []SlackAttachment `json:"attachments"`
}

const (
	ColorRed = 16711680 // #FF0000

	Username = "EvalForge Monitor"
)

// AlertNotifier delivers failed-execution alerts to the webhooks configured
// on a test. Delivery problems are logged, never surfaced to the caller.
type AlertNotifier struct {
	httpClient *http.Client
}

func NewAlertNotifier() *AlertNotifier {
	return &AlertNotifier{
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *AlertNotifier) NotifyFailure(test models.SyntheticTest, execution models.SyntheticExecution) {
	if len(test.AlertConfig) == 0 {
		return
	}

	var config types.AlertConfig

	if err := json.Unmarshal(test.AlertConfig, &config); err != nil {
		log.Printf("Test %d: invalid alert config: %v", test.ID, err)
		return
	}

	if config.DiscordWebhook != "" {
		if err := n.sendDiscord(config.DiscordWebhook, test, execution); err != nil {
			log.Printf("Test %d: discord alert failed: %v", test.ID, err)
		}
	}

	if config.SlackWebhook != "" {
		if err := n.sendSlack(config.SlackWebhook, test, execution); err != nil {
			log.Printf("Test %d: slack alert failed: %v", test.ID, err)
		}
	}
}

func alertDetail(execution models.SyntheticExecution) string {
	if execution.ErrorMessage != nil {
		return *execution.ErrorMessage
	}
	return "no details"
}

func (n *AlertNotifier) sendDiscord(webhookURL string, test models.SyntheticTest, execution models.SyntheticExecution) error {
	payload := DiscordWebhookRequest{
		Username: Username,
		Embeds: []DiscordEmbed{
			{
				Title:       fmt.Sprintf("Check failed: %s", test.Name),
				Description: alertDetail(execution),
				Color:       ColorRed,
				Fields: []DiscordWebhookField{
					{Name: "Status", Value: execution.Status, Inline: true},
					{Name: "URL", Value: test.URL, Inline: true},
					{Name: "Response time", Value: fmt.Sprintf("%dms", execution.ResponseTime), Inline: true},
				},
				Timestamp: execution.ExecutedAt.Format(time.RFC3339),
			},
		},
	}

	return n.post(webhookURL, payload)
}

func (n *AlertNotifier) sendSlack(webhookURL string, test models.SyntheticTest, execution models.SyntheticExecution) error {
	payload := SlackWebhookRequest{
		Username: Username,
		Text:     fmt.Sprintf("Check failed: %s", test.Name),
		Attachments: []SlackAttachment{
			{
				Color: "#FF0000",
				Title: test.Name,
				Text:  alertDetail(execution),
				Fields: []SlackField{
					{Title: "Status", Value: execution.Status, Short: true},
					{Title: "URL", Value: test.URL, Short: true},
					{Title: "Response time", Value: fmt.Sprintf("%dms", execution.ResponseTime), Short: true},
				},
				Timestamp: execution.ExecutedAt.Unix(),
			},
		},
	}

	return n.post(webhookURL, payload)
}

func (n *AlertNotifier) post(webhookURL string, payload interface{}) error {
	body, err := json.Marshal(payload)

	if err != nil {
		return err
	}

	resp, err := n.httpClient.Post(webhookURL, "application/json", bytes.NewBuffer(body))

	if err != nil {
		return err
	}

	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}

	return nil
}
