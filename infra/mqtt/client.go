package mqtt

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/cpsim/core/channel"
	"github.com/kilianp07/cpsim/core/model"
	"github.com/kilianp07/cpsim/infra/logger"
)

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// PublishResult reports the completion of one publish.
type PublishResult struct {
	Tag     string
	Topic   string
	Latency time.Duration
	Err     error
}

// PublishObserver receives publish completions. It is called from watcher
// goroutines and must be safe for concurrent use.
type PublishObserver func(PublishResult)

// Option customises a Connector.
type Option func(*Connector)

// WithObserver registers a publish completion observer.
func WithObserver(o PublishObserver) Option {
	return func(c *Connector) { c.observer = o }
}

// WithLogger overrides the connector logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Connector) { c.log = l }
}

// Connector opens one paho client per charge point identity.
type Connector struct {
	cfg      Config
	tlsCfg   *tls.Config
	observer PublishObserver
	log      logger.Logger
}

// NewConnector validates the configuration and loads TLS material once for
// all charge points.
func NewConnector(cfg Config, opts ...Option) (*Connector, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Connector{cfg: cfg, log: logger.New("mqtt_channel")}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		c.tlsCfg = tlsCfg
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// ClientID returns the client id, username and topic prefix used for tag.
func ClientID(tenant, tag string) string {
	return fmt.Sprintf("%s:%s", tenant, tag)
}

// Topic returns the attribute topic of a device.
func Topic(tenant, tag string) string {
	return ClientID(tenant, tag) + "/attrs"
}

// NewClientOptions builds the paho options for one identity.
func (c *Connector) NewClientOptions(id model.Identity) *paho.ClientOptions {
	clientID := ClientID(c.cfg.Tenant, id.Tag)
	opts := paho.NewClientOptions().AddBroker(c.cfg.Broker).SetClientID(clientID)
	opts.SetUsername(clientID)
	if id.Credential != "" {
		opts.SetPassword(id.Credential)
	}
	opts.AutoReconnect = true
	opts.SetConnectTimeout(c.cfg.ConnectTimeout())
	if c.tlsCfg != nil {
		opts.SetTLSConfig(c.tlsCfg)
	}
	log := c.log.With("tag", id.Tag)
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Warnf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	return opts
}

// Connect implements channel.Connector.
func (c *Connector) Connect(ctx context.Context, id model.Identity) (channel.Handle, error) {
	cli := newMQTTClient(c.NewClientOptions(id))
	if err := awaitToken(ctx, cli.Connect(), c.cfg.ConnectTimeout()); err != nil {
		cli.Disconnect(0)
		return nil, fmt.Errorf("%w: %s: %w", channel.ErrConnection, id.Tag, err)
	}
	c.log.Debugf("connected %s", id.Tag)
	return &Handle{
		cli:      cli,
		tag:      id.Tag,
		topic:    Topic(c.cfg.Tenant, id.Tag),
		qos:      c.cfg.QoS,
		timeout:  c.cfg.PublishTimeout(),
		observer: c.observer,
	}, nil
}

var errTokenTimeout = errors.New("timeout")

func awaitToken(ctx context.Context, token paho.Token, timeout time.Duration) error {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}
	select {
	case <-token.Done():
		return token.Error()
	case <-expired:
		return errTokenTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Handle is the paho-backed channel of one charge point.
type Handle struct {
	cli      pahoClient
	tag      string
	topic    string
	qos      byte
	timeout  time.Duration
	observer PublishObserver
	once     sync.Once
}

// Topic returns the publish topic of the handle.
func (h *Handle) Topic() string { return h.topic }

// Publish hands the payload to paho. Without a publish timeout it returns
// immediately and a watcher reports the completion to the observer.
func (h *Handle) Publish(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %s: %w", channel.ErrPublish, h.topic, err)
	}
	start := time.Now()
	token := h.cli.Publish(h.topic, h.qos, false, payload)
	if h.timeout > 0 {
		err := awaitToken(ctx, token, h.timeout)
		h.report(start, err)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", channel.ErrPublish, h.topic, err)
		}
		return nil
	}
	go func() {
		<-token.Done()
		h.report(start, token.Error())
	}()
	return nil
}

func (h *Handle) report(start time.Time, err error) {
	if h.observer == nil {
		return
	}
	if err != nil {
		err = fmt.Errorf("%w: %w", channel.ErrPublish, err)
	}
	h.observer(PublishResult{Tag: h.tag, Topic: h.topic, Latency: time.Since(start), Err: err})
}

// Disconnect gracefully closes the MQTT connection.
func (h *Handle) Disconnect() {
	h.once.Do(func() {
		if h.cli != nil && h.cli.IsConnected() {
			h.cli.Disconnect(250)
		}
	})
}
