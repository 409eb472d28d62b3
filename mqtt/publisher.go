package mqtt

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/icodeforyou/spothub-go/config"
	"github.com/icodeforyou/spothub-go/types/maybe"
	"github.com/icodeforyou/spothub-go/widget"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

type Message struct {
	Topic    string
	Retained bool
	Payload  []byte
}

type publishFunc func(msg Message) error

// Publisher mirrors widget snapshots to an MQTT broker. The full snapshot is
// published retained whenever a fetch changed it, the countdown label
// whenever it changes.
type Publisher struct {
	logger  *slog.Logger
	client  paho.Client
	prefix  string
	publish publishFunc

	mu            sync.Mutex
	lastFetchKey  string
	lastCountdown string
}

func New(cnfg config.AppConfigMqtt) *Publisher {
	logger := slog.Default().With("module", "mqtt")
	opts := paho.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cnfg.Host, cnfg.Port))
	opts.SetClientID("spothub-" + uuid.NewString())
	opts.SetUsername(cnfg.Username)
	opts.SetPassword(cnfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.OnConnect = func(client paho.Client) {
		logger.Info("MQTT connected")
	}
	opts.OnConnectionLost = func(client paho.Client, err error) {
		logger.Warn("MQTT connection lost", slog.Any("error", err))
	}

	paho.CRITICAL = newMqttLogger(logger, slog.LevelError)
	paho.ERROR = newMqttLogger(logger, slog.LevelError)
	paho.WARN = newMqttLogger(logger, slog.LevelWarn)

	p := &Publisher{
		logger: logger,
		client: paho.NewClient(opts),
		prefix: cnfg.GetTopicPrefix(),
	}
	p.publish = p.publishToBroker
	return p
}

func (p *Publisher) Connect() error {
	p.logger.Debug("connecting MQTT client")
	token := p.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("mqtt connect: no answer from broker within %s, retrying in background", connectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

func (p *Publisher) Disconnect() {
	p.client.Disconnect(250)
}

// OnSnapshot is registered with the widget and called on every fetch and tick.
func (p *Publisher) OnSnapshot(s widget.Snapshot) {
	msgs, err := p.messagesFor(s)
	if err != nil {
		p.logger.Error("failed to build MQTT messages", slog.Any("error", err))
		return
	}
	for _, msg := range msgs {
		if err := p.publish(msg); err != nil {
			p.logger.Warn("MQTT publish failed", slog.String("topic", msg.Topic), slog.Any("error", err))
		}
	}
}

func (p *Publisher) messagesFor(s widget.Snapshot) ([]Message, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var msgs []Message

	if key := fetchKey(s); key != p.lastFetchKey {
		payload, err := json.Marshal(s.View())
		if err != nil {
			return nil, fmt.Errorf("marshal snapshot: %w", err)
		}
		p.lastFetchKey = key
		msgs = append(msgs, Message{Topic: p.prefix + "/snapshot", Retained: true, Payload: payload})
	}

	label := ""
	if s.Countdown.IsValid() {
		label = s.Countdown.Value().Label
	}
	if label != p.lastCountdown {
		p.lastCountdown = label
		msgs = append(msgs, Message{Topic: p.prefix + "/countdown", Payload: []byte(label)})
	}

	return msgs, nil
}

// fetchKey changes only when a fetch has been applied or failed, or when the
// cheapest hour was searched again for a new day.
func fetchKey(s widget.Snapshot) string {
	return string(s.State) + "|" + s.Error + "|" + timeKey(s.LastFetchedAt) + "|" + timeKey(s.AnalyzedAt)
}

func timeKey(t maybe.Maybe[time.Time]) string {
	if !t.IsValid() {
		return ""
	}
	return t.Value().Format(time.RFC3339Nano)
}

func (p *Publisher) publishToBroker(msg Message) error {
	if !p.client.IsConnectionOpen() {
		return fmt.Errorf("not connected")
	}
	token := p.client.Publish(msg.Topic, 1, msg.Retained, msg.Payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timed out after %s", publishTimeout)
	}
	return token.Error()
}
