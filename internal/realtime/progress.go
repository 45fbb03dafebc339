// Package realtime fans export progress events out to browser clients over
// WebSocket, bridged across instances through Redis pub/sub.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	channelPrefix = "export:progress:"
	publishTTL    = 5 * time.Second
	writeWait     = 10 * time.Second
)

// ProgressEvent is the message pushed to clients. Percent never decreases
// for a given job.
type ProgressEvent struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Phase   string `json:"phase,omitempty"`
	Percent int    `json:"percent"`
	Label   string `json:"label,omitempty"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ProgressBus publishes and subscribes to per-job progress channels.
type ProgressBus struct {
	client *redis.Client
	logger *zap.Logger
}

// NewProgressBus creates a progress bus over Redis pub/sub.
func NewProgressBus(client *redis.Client, logger *zap.Logger) *ProgressBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressBus{client: client, logger: logger}
}

// Publish sends a progress event to the job's channel. Failures are logged
// only; progress fan-out never blocks the pipeline.
func (b *ProgressBus) Publish(jobID uuid.UUID, ev ProgressEvent) {
	body, err := json.Marshal(ev)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTTL)
	defer cancel()
	if err := b.client.Publish(ctx, channelPrefix+jobID.String(), body).Err(); err != nil {
		b.logger.Warn("progress publish failed", zap.String("job_id", jobID.String()), zap.Error(err))
	}
}

// Subscribe listens on a job's channel and calls handler for each event.
// Returns a cancel function that stops the subscription.
func (b *ProgressBus) Subscribe(jobID uuid.UUID, handler func(ProgressEvent)) (cancel func(), err error) {
	ctx, cancelCtx := context.WithCancel(context.Background())
	pubsub := b.client.Subscribe(ctx, channelPrefix+jobID.String())
	if _, err := pubsub.Receive(ctx); err != nil {
		cancelCtx()
		return nil, err
	}
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev ProgressEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					continue
				}
				handler(ev)
			}
		}
	}()
	return func() { cancelCtx() }, nil
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // CORS enforced at the HTTP layer
}

// ServeProgress handles GET /ws/exports/:id: upgrades the connection and
// forwards progress events until the job channel closes or the client leaves.
func ServeProgress(bus *ProgressBus, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("ws upgrade failed", zap.Error(err))
			return
		}
		defer conn.Close()

		events := make(chan ProgressEvent, 16)
		cancel, err := bus.Subscribe(jobID, func(ev ProgressEvent) {
			select {
			case events <- ev:
			default: // slow client; drop rather than stall the bus
			}
		})
		if err != nil {
			logger.Warn("progress subscribe failed", zap.String("job_id", jobID.String()), zap.Error(err))
			return
		}
		defer cancel()

		// Drain client messages so close frames are processed.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-done:
				return
			case ev := <-events:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(ev); err != nil {
					return
				}
				if ev.Status == "completed" || ev.Status == "failed" {
					return
				}
			}
		}
	}
}
