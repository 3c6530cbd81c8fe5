package engine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kentsang666/football-ai-live/pkg/contracts/events"
)

// Canal Pub/Sub consumido pelo WebSocket do dashboard-service.
const ChannelPricingBroadcast = "pricing_updates_broadcast"

// PriceCache guarda o último PricingUpdate de cada fixture no Redis.
type PriceCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewPriceCache(c *redis.Client, ttl time.Duration) *PriceCache {
	return &PriceCache{Client: c, TTL: ttl}
}

func priceKey(fixtureID string) string { return "pricing:current:" + fixtureID }

// SetCurrent armazena o update corrente com TTL definido.
func (c *PriceCache) SetCurrent(ctx context.Context, up events.PricingUpdate) error {
	b, err := json.Marshal(up)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, priceKey(up.FixtureID), b, c.TTL).Err()
}

// GetCurrent recupera o update corrente; redis.Nil quando expirado/ausente.
func (c *PriceCache) GetCurrent(ctx context.Context, fixtureID string) (events.PricingUpdate, error) {
	var up events.PricingUpdate
	b, err := c.Client.Get(ctx, priceKey(fixtureID)).Bytes()
	if err != nil {
		return up, err
	}
	err = json.Unmarshal(b, &up)
	return up, err
}

// Broadcaster publica updates no Pub/Sub para os clientes WebSocket.
type Broadcaster struct {
	r *redis.Client
}

func NewBroadcaster(r *redis.Client) *Broadcaster {
	return &Broadcaster{r: r}
}

func (b *Broadcaster) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.r.Publish(ctx, channel, payload).Err()
}

// WSUpdate é o envelope padrão do WS do dashboard-service.
type WSUpdate struct {
	FixtureID string      `json:"fixtureId"`
	Payload   interface{} `json:"payload"`
}
