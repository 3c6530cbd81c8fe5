package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/kentsang666/football-ai-live/internal/feed-ingest/publisher"
	"github.com/kentsang666/football-ai-live/pkg/contracts/events"
)

// WSClient consome o WebSocket do fornecedor de dados ao vivo e roteia cada
// mensagem para o tópico Kafka correspondente: snapshots para o pipeline de
// pricing, results para o settlement.
type WSClient struct {
	URL       string
	Log       *zap.Logger
	Snapshots *publisher.KafkaPublisher
	Results   *publisher.KafkaPublisher

	OnIngested func(kind string) // métricas por tipo de mensagem
	OnError    func(string)      // métricas por fase
}

// Start inicia o loop de conexão e escuta do WebSocket.
// Em caso de desconexão, tenta reconectar automaticamente com backoff.
func (c *WSClient) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			c.Log.Info("context canceled, stopping WS client")
			return
		default:
			if err := c.connectAndListen(ctx); err != nil {
				c.Log.Warn("connection closed", zap.Error(err))
				if c.OnError != nil {
					c.OnError("connect")
				}
				time.Sleep(3 * time.Second)
			}
		}
	}
}

// connectAndListen estabelece a conexão WebSocket e processa mensagens recebidas.
func (c *WSClient) connectAndListen(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.URL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	c.Log.Info("connected to feed supplier WS", zap.String("url", c.URL))

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) || errors.Is(err, context.Canceled) {
				return nil
			}
			c.Log.Error("read message failed", zap.Error(err))
			return err
		}

		var msg events.FeedMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.Log.Warn("invalid feed message", zap.Error(err))
			if c.OnError != nil {
				c.OnError("decode")
			}
			continue
		}

		c.route(ctx, msg)
	}
}

// route publica a mensagem no tópico correto conforme o tipo.
func (c *WSClient) route(ctx context.Context, msg events.FeedMessage) {
	switch msg.Type {
	case events.FeedTypeSnapshot:
		if msg.Snapshot == nil {
			if c.OnError != nil {
				c.OnError("decode")
			}
			return
		}
		if err := c.Snapshots.Publish(ctx, msg.Snapshot.FixtureID, msg.Snapshot); err != nil {
			c.Log.Error("failed to publish snapshot", zap.Error(err))
			if c.OnError != nil {
				c.OnError("publish_snapshot")
			}
			return
		}
	case events.FeedTypeResult:
		if msg.Result == nil {
			if c.OnError != nil {
				c.OnError("decode")
			}
			return
		}
		if err := c.Results.Publish(ctx, msg.Result.FixtureID, msg.Result); err != nil {
			c.Log.Error("failed to publish result", zap.Error(err))
			if c.OnError != nil {
				c.OnError("publish_result")
			}
			return
		}
	default:
		c.Log.Warn("unknown feed message type", zap.String("type", msg.Type))
		if c.OnError != nil {
			c.OnError("decode")
		}
		return
	}

	if c.OnIngested != nil {
		c.OnIngested(msg.Type)
	}
}
