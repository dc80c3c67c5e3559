package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/pdfchat/internal/config"
	"github.com/nikhilbhutani/pdfchat/internal/models"
)

// Enqueuer is the part of *asynq.Client the queue client needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

type Client struct {
	client        Enqueuer
	ingestTimeout time.Duration
}

func NewClient(cfg config.RedisConfig, ingestTimeout time.Duration) *Client {
	return NewClientFromEnqueuer(asynq.NewClient(RedisOpt(cfg)), ingestTimeout)
}

func NewClientFromEnqueuer(e Enqueuer, ingestTimeout time.Duration) *Client {
	if ingestTimeout <= 0 {
		ingestTimeout = 10 * time.Minute
	}
	return &Client{client: e, ingestTimeout: ingestTimeout}
}

func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueFileIngest schedules a single ingestion attempt. A failed run has
// already marked the file FAILED, so the task is never retried.
func (c *Client) EnqueueFileIngest(ctx context.Context, payload FileIngestPayload) error {
	return c.enqueue(ctx, TypeFileIngest, payload,
		asynq.MaxRetry(0),
		asynq.Timeout(c.ingestTimeout),
		asynq.TaskID(payload.FileID),
	)
}

// Trigger hands a new file to the worker.
func (c *Client) Trigger(ctx context.Context, file *models.File) error {
	return c.EnqueueFileIngest(ctx, FileIngestPayload{FileID: file.ID})
}

func (c *Client) enqueue(ctx context.Context, taskType string, payload any, opts ...asynq.Option) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(taskType, data)
	if _, err := c.client.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}
