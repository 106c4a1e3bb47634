// Package gmailapi reads filters from a live mailbox through the Gmail API and
// maps them to the same rows as the XML export.
package gmailapi

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"google.golang.org/api/gmail/v1"

	"gmailfilter2csv/pkg/filters"
)

const (
	inboxLabel = "INBOX"
	spamLabel  = "SPAM"
	userLabel  = "user"
)

// Client reads the filters and labels of one mailbox.
type Client struct {
	srv  *gmail.Service
	user string
	log  *slog.Logger
}

// NewClient returns a Client for user, usually "me", on an authorized service.
func NewClient(srv *gmail.Service, user string, log *slog.Logger) *Client {
	return &Client{srv: srv, user: user, log: log}
}

// Rows returns one row per filter, in the order the API lists them.
func (c *Client) Rows(ctx context.Context) ([]filters.Row, error) {
	labels, err := c.labelNames(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.srv.Users.Settings.Filters.List(c.user).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to list filters: %w", err)
	}

	rows := make([]filters.Row, 0, len(resp.Filter))
	for _, f := range resp.Filter {
		rows = append(rows, filterRow(f, labels))
	}
	c.log.Debug("listed gmail filters", "user", c.user, "filters", len(rows), "labels", len(labels))
	return rows, nil
}

// labelNames maps user label IDs to display names.
func (c *Client) labelNames(ctx context.Context) (map[string]string, error) {
	resp, err := c.srv.Users.Labels.List(c.user).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to list labels: %w", err)
	}
	names := make(map[string]string, len(resp.Labels))
	for _, l := range resp.Labels {
		if l.Type == userLabel {
			names[l.Id] = l.Name
		}
	}
	return names, nil
}

func filterRow(f *gmail.Filter, labels map[string]string) filters.Row {
	row := filters.Row{
		ID:              filters.Some(f.Id),
		ShouldNeverSpam: filters.False,
		ShouldArchive:   filters.False,
	}
	if c := f.Criteria; c != nil {
		row.From = optional(c.From)
		row.Subject = optional(c.Subject)
	}
	if a := f.Action; a != nil {
		for _, id := range a.AddLabelIds {
			if name, ok := labels[id]; ok {
				row.Label = filters.Some(name)
				break
			}
		}
		if slices.Contains(a.RemoveLabelIds, inboxLabel) {
			row.ShouldArchive = "true"
		}
		if slices.Contains(a.RemoveLabelIds, spamLabel) {
			row.ShouldNeverSpam = "true"
		}
	}
	return row
}

func optional(s string) filters.Field {
	if s == "" {
		return filters.Field{}
	}
	return filters.Some(s)
}
