package googlecloud

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/datastore"

	"github.com/locvowork/task_manager/internal/logger"
)

// Client wraps the Google Cloud Datastore client and exposes the task
// manager's user and task stores.
type Client struct {
	ds *datastore.Client
}

// NewClient creates a Datastore client and waits until it answers a query.
// DATASTORE_EMULATOR_HOST is honoured by the underlying client.
func NewClient(ctx context.Context, projectID string) (*Client, error) {
	if emulatorHost := os.Getenv("DATASTORE_EMULATOR_HOST"); emulatorHost != "" {
		logger.InfoLog(ctx, "initializing datastore client against emulator at %s", emulatorHost)
	}

	ds, err := datastore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create datastore client: %w", err)
	}

	c := &Client{ds: ds}
	if err := WithRetry(ctx, DefaultRetryConfig(), func() error { return c.Ping(ctx) }); err != nil {
		ds.Close()
		return nil, fmt.Errorf("failed to reach datastore: %w", err)
	}
	return c, nil
}

// Ping issues a keys-only query limited to one entity.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.ds.GetAll(ctx, datastore.NewQuery(KindUser).KeysOnly().Limit(1), nil)
	return err
}

// Close closes the underlying datastore client.
func (c *Client) Close() error {
	return c.ds.Close()
}
