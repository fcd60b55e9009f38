package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/jomei/notionapi"
)

// NotionService defines the slice of the Notion API the notifier needs.
// This interface enables mocking and testing of Notion operations.
type NotionService interface {
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)
}

// NotionClient wraps the notionapi client behind NotionService.
type NotionClient struct {
	client *notionapi.Client
}

// NewNotionClient creates a Notion API client from an integration token.
func NewNotionClient(token string) *NotionClient {
	return &NotionClient{client: notionapi.NewClient(notionapi.Token(token))}
}

func (c *NotionClient) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	page, err := c.client.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: properties,
	})
	if err != nil {
		return nil, fmt.Errorf("notion create page: %w", err)
	}
	return page, nil
}

// NotionNotifier appends one summary page to a Notion database per accepted
// batch.
type NotionNotifier struct {
	service    NotionService
	databaseID string
}

// NewNotionNotifier creates a notifier writing into the given database.
func NewNotionNotifier(service NotionService, databaseID string) *NotionNotifier {
	return &NotionNotifier{service: service, databaseID: databaseID}
}

func (n *NotionNotifier) NotifyBatch(ctx context.Context, event BatchEvent) error {
	props := BatchToNotionProperties(event, time.Now())
	if _, err := n.service.CreatePage(ctx, n.databaseID, props); err != nil {
		return fmt.Errorf("notion notify run %s: %w", event.RunID, err)
	}
	return nil
}

// BatchToNotionProperties converts a batch event to Notion page properties.
func BatchToNotionProperties(event BatchEvent, now time.Time) notionapi.Properties {
	title := fmt.Sprintf("%s: %d new, %s",
		event.Source, len(event.Transactions), FormatAmount(event.TotalAmount, event.Currency))

	notifiedAt := notionapi.Date(now)
	props := notionapi.Properties{
		"Summary": notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{Content: title},
				},
			},
		},
		"Run ID": notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{Content: event.RunID},
				},
			},
		},
		"Source": notionapi.SelectProperty{
			Select: notionapi.Option{Name: event.Source},
		},
		"Accepted": notionapi.NumberProperty{
			Number: float64(len(event.Transactions)),
		},
		"Notified At": notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &notifiedAt},
		},
	}

	if event.Currency != "" {
		props["Currency"] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: event.Currency},
		}
	}

	return props
}

var _ Notifier = (*NotionNotifier)(nil)
