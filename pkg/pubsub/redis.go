package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"engagekit/pkg/logger"
)

const actionChannel = "engagekit:actions"

// RedisTransport implements Transport over Redis Pub/Sub, with per
// channel capped lists providing the history fetch. It exists so the SDK
// runs end-to-end against commodity infrastructure; any other broker can
// be dropped in behind the Transport interface.
type RedisTransport struct {
	rdb      *redis.Client
	listener Listener

	mu         sync.Mutex
	subs       map[string]*redis.PubSub
	historyCap int
	cancel     context.CancelFunc
}

// RedisOptions configures a RedisTransport.
type RedisOptions struct {
	Addr       string
	Password   string
	DB         int
	HistoryCap int
}

// NewRedisTransport connects to Redis and starts the shared action
// subscription. The listener receives push callbacks on the transport's
// receive goroutines.
func NewRedisTransport(ctx context.Context, opts RedisOptions, l Listener) (*RedisTransport, error) {
	rdb := redis.NewClient(&redis.Options{Addr: opts.Addr, Password: opts.Password, DB: opts.DB})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	capPer := opts.HistoryCap
	if capPer <= 0 {
		capPer = 200
	}
	ctx2, cancel := context.WithCancel(context.Background())
	t := &RedisTransport{
		rdb:        rdb,
		listener:   l,
		subs:       make(map[string]*redis.PubSub),
		historyCap: capPer,
		cancel:     cancel,
	}

	// one shared subscription carries action add/remove for all channels
	actions := rdb.Subscribe(ctx2, actionChannel)
	go t.receiveActions(actions)

	if l != nil {
		l.OnStatusChange(StatusConnected)
	}
	return t, nil
}

func (t *RedisTransport) Subscribe(channel string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.subs[channel]; ok {
		return nil
	}
	ps := t.rdb.Subscribe(context.Background(), channel)
	t.subs[channel] = ps
	go t.receive(channel, ps)
	return nil
}

func (t *RedisTransport) Unsubscribe(channel string) error {
	t.mu.Lock()
	ps, ok := t.subs[channel]
	delete(t.subs, channel)
	t.mu.Unlock()
	if !ok {
		return nil
	}
	return ps.Close()
}

func (t *RedisTransport) receive(channel string, ps *redis.PubSub) {
	for msg := range ps.Channel() {
		if t.listener != nil {
			t.listener.OnMessage(channel, []byte(msg.Payload))
		}
	}
}

func (t *RedisTransport) receiveActions(ps *redis.PubSub) {
	for msg := range ps.Channel() {
		var ev ActionEvent
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			logger.Warn("action_event_unparseable", "error", err)
			continue
		}
		if t.listener != nil {
			t.listener.OnMessageAction(ev)
		}
	}
}

// Publish appends the payload to the channel's capped history list and
// publishes it, so history fetches and live delivery see the same
// stream.
func (t *RedisTransport) Publish(ctx context.Context, channel string, payload []byte) (string, error) {
	pipe := t.rdb.Pipeline()
	pipe.RPush(ctx, historyKey(channel), payload)
	pipe.LTrim(ctx, historyKey(channel), int64(-t.historyCap), -1)
	pipe.Publish(ctx, channel, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("redis publish failed: %w", err)
	}
	return uuid.NewString(), nil
}

func (t *RedisTransport) FetchHistory(ctx context.Context, channel, _, _ string, limit int) (HistoryPage, error) {
	if limit <= 0 || limit > t.historyCap {
		limit = t.historyCap
	}
	vals, err := t.rdb.LRange(ctx, historyKey(channel), int64(-limit), -1).Result()
	if err != nil {
		return HistoryPage{}, fmt.Errorf("redis history fetch failed: %w", err)
	}
	page := HistoryPage{Payloads: make([][]byte, 0, len(vals))}
	for _, v := range vals {
		page.Payloads = append(page.Payloads, []byte(v))
	}
	return page, nil
}

func (t *RedisTransport) SendMessageAction(ctx context.Context, actionType, value, targetMessageID string) (string, error) {
	act := MessageAction{
		ID:              uuid.NewString(),
		Type:            actionType,
		Value:           value,
		TargetMessageID: targetMessageID,
	}
	if err := t.publishAction(ctx, ActionEvent{Event: ActionAdded, Action: act}); err != nil {
		return "", err
	}
	if err := t.rdb.HSet(ctx, actionKey(targetMessageID), act.ID, actionType+"|"+value).Err(); err != nil {
		return "", fmt.Errorf("redis action store failed: %w", err)
	}
	return act.ID, nil
}

func (t *RedisTransport) RemoveMessageAction(ctx context.Context, messageID, actionID string) error {
	if err := t.rdb.HDel(ctx, actionKey(messageID), actionID).Err(); err != nil {
		return fmt.Errorf("redis action remove failed: %w", err)
	}
	return t.publishAction(ctx, ActionEvent{
		Event:  ActionRemoved,
		Action: MessageAction{ID: actionID, TargetMessageID: messageID},
	})
}

func (t *RedisTransport) publishAction(ctx context.Context, ev ActionEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := t.rdb.Publish(ctx, actionChannel, data).Err(); err != nil {
		return fmt.Errorf("redis action publish failed: %w", err)
	}
	return nil
}

func (t *RedisTransport) Close() error {
	t.cancel()
	t.mu.Lock()
	for ch, ps := range t.subs {
		_ = ps.Close()
		delete(t.subs, ch)
	}
	t.mu.Unlock()
	if t.listener != nil {
		t.listener.OnStatusChange(StatusDisconnected)
	}
	return t.rdb.Close()
}

func historyKey(channel string) string { return "engagekit:hist:" + channel }
func actionKey(messageID string) string { return "engagekit:act:" + messageID }
