package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/efreitasn/simtrade/internal/config"
	"github.com/efreitasn/simtrade/internal/domain"
	"github.com/efreitasn/simtrade/internal/engine"
	"github.com/efreitasn/simtrade/internal/metrics"
	"github.com/efreitasn/simtrade/internal/service"
)

// blockTimeout bounds each BLPOP so cancellation is noticed promptly.
const blockTimeout = time.Second

// Dispatcher runs decoded commands.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd domain.Command) (service.Reply, error)
}

// reply is what the bridge pushes to the reply queue for every command.
type reply struct {
	RequestID string `json:"request_id"`
	service.Reply
}

// Bridge moves messages between Redis and the services.
//
// Direction: producers RPUSH commands on CommandQueue, the bridge BLPOPs
// them and RPUSHes a reply on ReplyQueue. Quotes are PUBLISHed on channels
// matching QuotePattern. Results are PUBLISHed on ResultPrefix+<account>.
type Bridge struct {
	rdb        Client
	cfg        config.RedisConfig
	dispatcher Dispatcher
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// New creates a Bridge.
func New(rdb Client, cfg config.RedisConfig, d Dispatcher, m *metrics.Metrics, logger *slog.Logger) *Bridge {
	return &Bridge{
		rdb:        rdb,
		cfg:        cfg,
		dispatcher: d,
		metrics:    m,
		logger:     logger,
	}
}

// Publish sends a result to the account's result channel.
func (b *Bridge) Publish(ctx context.Context, account string, res engine.Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	if err := b.rdb.Publish(ctx, b.cfg.ResultPrefix+account, data).Err(); err != nil {
		return fmt.Errorf("publishing result to redis: %w", err)
	}
	b.metrics.BridgeMessages.WithLabelValues("out").Inc()
	return nil
}

// Run consumes quotes and commands until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	if err := b.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}

	pubsub := b.rdb.PSubscribe(ctx, b.cfg.QuotePattern)
	// Wait for confirmation that subscription is created.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return fmt.Errorf("subscribing to %s: %w", b.cfg.QuotePattern, err)
	}
	go func() {
		defer pubsub.Close()
		b.consumeQuotes(ctx, pubsub.Channel())
	}()

	b.logger.Info("redis bridge started",
		slog.String("quote_pattern", b.cfg.QuotePattern),
		slog.String("command_queue", b.cfg.CommandQueue),
	)
	b.consumeCommands(ctx)
	return nil
}

func (b *Bridge) consumeQuotes(ctx context.Context, ch <-chan *redis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			b.handleQuote(ctx, msg.Channel, msg.Payload)
		}
	}
}

// handleQuote applies one quote message. The instrument defaults to the part
// of the channel name after the pattern's prefix.
func (b *Bridge) handleQuote(ctx context.Context, channel, payload string) {
	var msg domain.QuoteMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		b.metrics.BridgeMessages.WithLabelValues("invalid").Inc()
		b.logger.Warn("dropping malformed quote",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
		return
	}
	if msg.InstrumentID == "" {
		msg.InstrumentID = strings.TrimPrefix(channel, strings.TrimSuffix(b.cfg.QuotePattern, "*"))
	}
	b.metrics.BridgeMessages.WithLabelValues("in").Inc()

	if _, err := b.dispatcher.Dispatch(ctx, domain.Command{Aid: domain.AidRtnQuote, Quotes: &msg}); err != nil {
		b.logger.Warn("quote rejected",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
	}
}

func (b *Bridge) consumeCommands(ctx context.Context) {
	for {
		vals, err := b.rdb.BLPop(ctx, blockTimeout, b.cfg.CommandQueue).Result()
		switch {
		case ctx.Err() != nil:
			return
		case errors.Is(err, redis.Nil):
			continue
		case err != nil:
			b.logger.Error("reading command queue failed", slog.String("error", err.Error()))
			select {
			case <-ctx.Done():
				return
			case <-time.After(blockTimeout):
			}
			continue
		}
		// BLPOP returns [key, value].
		if len(vals) == 2 {
			b.handleCommand(ctx, vals[1])
		}
	}
}

// handleCommand runs one command and pushes its reply. Malformed commands
// get an error reply too.
func (b *Bridge) handleCommand(ctx context.Context, payload string) {
	var head struct {
		RequestID string `json:"request_id"`
		Account   string `json:"account"`
		Aid       string `json:"aid"`
	}
	_ = json.Unmarshal([]byte(payload), &head)
	if head.RequestID == "" {
		head.RequestID = uuid.New().String()
	}

	out := reply{RequestID: head.RequestID}
	cmd, err := domain.ParseCommand([]byte(payload))
	if err != nil {
		b.metrics.BridgeMessages.WithLabelValues("invalid").Inc()
		out.Reply = service.Reply{Account: head.Account, Aid: head.Aid, Results: []service.AccountResult{}, Error: err.Error()}
	} else {
		b.metrics.BridgeMessages.WithLabelValues("in").Inc()
		out.Reply, err = b.dispatcher.Dispatch(ctx, cmd)
	}
	if err != nil {
		b.logger.Debug("command failed",
			slog.String("request_id", out.RequestID),
			slog.String("error", err.Error()),
		)
	}

	if b.cfg.ReplyQueue == "" {
		return
	}
	data, err := json.Marshal(out)
	if err != nil {
		b.logger.Error("encoding reply failed", slog.String("error", err.Error()))
		return
	}
	if err := b.rdb.RPush(ctx, b.cfg.ReplyQueue, data).Err(); err != nil {
		b.logger.Error("pushing reply failed", slog.String("error", err.Error()))
	}
}
