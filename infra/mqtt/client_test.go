package mqtt

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"os"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/cpsim/core/channel"
	"github.com/kilianp07/cpsim/core/model"
	"github.com/kilianp07/cpsim/infra/logger"
)

// helper to generate self-signed cert
func generateCert(t *testing.T) (certFile, keyFile, caFile string) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("gen key: %v", err)
	}
	tmpl := x509.Certificate{SerialNumber: big.NewInt(1), Subject: pkix.Name{CommonName: "test"}, NotBefore: time.Now(), NotAfter: time.Now().Add(time.Hour)}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &priv.PublicKey, priv)
	if err != nil {
		t.Fatalf("create cert: %v", err)
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})

	dir := t.TempDir()
	certFile = dir + "/cert.pem"
	keyFile = dir + "/key.pem"
	caFile = dir + "/ca.pem"
	if err := os.WriteFile(certFile, certPEM, 0644); err != nil {
		t.Fatalf("write cert: %v", err)
	}
	if err := os.WriteFile(keyFile, keyPEM, 0644); err != nil {
		t.Fatalf("write key: %v", err)
	}
	if err := os.WriteFile(caFile, certPEM, 0644); err != nil {
		t.Fatalf("write ca: %v", err)
	}
	return
}

func useMockClient(t *testing.T, mc *mockClient) {
	t.Helper()
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() {
		newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) }
	})
}

func TestLoadTLSConfig(t *testing.T) {
	cert, key, ca := generateCert(t)
	cfg := Config{UseTLS: true, ClientCert: cert, ClientKey: key, CABundle: ca}
	tlsCfg, err := cfg.LoadTLSConfig()
	if err != nil {
		t.Fatalf("load tls: %v", err)
	}
	if len(tlsCfg.Certificates) == 0 {
		t.Fatalf("no certs loaded")
	}
	if tlsCfg.RootCAs == nil {
		t.Fatalf("no root CAs")
	}
}

func TestNewConnectorRejectsIncompleteTLS(t *testing.T) {
	if _, err := NewConnector(Config{UseTLS: true}); err == nil {
		t.Fatalf("expected tls error")
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	cfg.QoS = 3
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected qos error")
	}
}

func TestClientOptionsIdentity(t *testing.T) {
	c, err := NewConnector(Config{Broker: "tcp://localhost:1883", Tenant: "admin"}, WithLogger(logger.NopLogger{}))
	if err != nil {
		t.Fatalf("connector: %v", err)
	}
	opts := c.NewClientOptions(model.Identity{Tag: "cp_7", Credential: "s3cret"})
	if opts.ClientID != "admin:cp_7" {
		t.Fatalf("unexpected client id %s", opts.ClientID)
	}
	if opts.Username != "admin:cp_7" || opts.Password != "s3cret" {
		t.Fatalf("auth not set: %s/%s", opts.Username, opts.Password)
	}
	opts = c.NewClientOptions(model.Identity{Tag: "cp_8"})
	if opts.Password != "" {
		t.Fatalf("password should be empty")
	}
}

func TestConnectFailureWrapsConnectionError(t *testing.T) {
	mc := &mockClient{connectErr: fmt.Errorf("not authorized")}
	useMockClient(t, mc)
	c, err := NewConnector(Config{Broker: "tcp://localhost:1883"}, WithLogger(logger.NopLogger{}))
	if err != nil {
		t.Fatalf("connector: %v", err)
	}
	_, err = c.Connect(context.Background(), model.Identity{Tag: "cp_1"})
	if !errors.Is(err, channel.ErrConnection) {
		t.Fatalf("expected ErrConnection, got %v", err)
	}
}

func TestConnectHonoursContext(t *testing.T) {
	mc := &mockClient{connectPending: true}
	useMockClient(t, mc)
	c, err := NewConnector(Config{Broker: "tcp://localhost:1883"}, WithLogger(logger.NopLogger{}))
	if err != nil {
		t.Fatalf("connector: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Connect(ctx, model.Identity{Tag: "cp_1"})
	if !errors.Is(err, channel.ErrConnection) {
		t.Fatalf("expected ErrConnection, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled in chain, got %v", err)
	}
}

func TestPublishKeepsContextError(t *testing.T) {
	mc := &mockClient{publishPending: true}
	useMockClient(t, mc)
	c, err := NewConnector(Config{Broker: "tcp://localhost:1883", PublishTimeoutMS: 1000}, WithLogger(logger.NopLogger{}))
	if err != nil {
		t.Fatalf("connector: %v", err)
	}
	h, err := c.Connect(context.Background(), model.Identity{Tag: "cp_1"})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	err = h.Publish(ctx, []byte(`{}`))
	if !errors.Is(err, channel.ErrPublish) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected ErrPublish wrapping the deadline, got %v", err)
	}
}

func TestPublishTopicAndQoS(t *testing.T) {
	mc := &mockClient{}
	useMockClient(t, mc)
	c, err := NewConnector(Config{Broker: "tcp://localhost:1883", Tenant: "admin", QoS: 1}, WithLogger(logger.NopLogger{}))
	if err != nil {
		t.Fatalf("connector: %v", err)
	}
	h, err := c.Connect(context.Background(), model.Identity{Tag: "cp_1"})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := h.Publish(context.Background(), []byte(`{}`)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	pubs := mc.publishedCopy()
	if len(pubs) != 1 || pubs[0].topic != "admin:cp_1/attrs" || pubs[0].qos != 1 {
		t.Fatalf("unexpected publish %+v", pubs)
	}
}

func TestPublishObserverReportsCompletion(t *testing.T) {
	mc := &mockClient{publishErrs: []error{nil, fmt.Errorf("net fail")}}
	useMockClient(t, mc)
	results := make(chan PublishResult, 2)
	c, err := NewConnector(Config{Broker: "tcp://localhost:1883"},
		WithLogger(logger.NopLogger{}),
		WithObserver(func(r PublishResult) { results <- r }))
	if err != nil {
		t.Fatalf("connector: %v", err)
	}
	h, err := c.Connect(context.Background(), model.Identity{Tag: "cp_1"})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := h.Publish(context.Background(), []byte(`{}`)); err != nil {
			t.Fatalf("async publish should not fail: %v", err)
		}
	}
	var failed int
	for i := 0; i < 2; i++ {
		select {
		case r := <-results:
			if r.Tag != "cp_1" {
				t.Fatalf("unexpected tag %s", r.Tag)
			}
			if r.Err != nil {
				if !errors.Is(r.Err, channel.ErrPublish) {
					t.Fatalf("expected ErrPublish got %v", r.Err)
				}
				failed++
			}
		case <-time.After(time.Second):
			t.Fatalf("observer not called")
		}
	}
	if failed != 1 {
		t.Fatalf("expected one failure got %d", failed)
	}
}

func TestPublishTimeoutAtBoundary(t *testing.T) {
	mc := &mockClient{publishPending: true}
	useMockClient(t, mc)
	c, err := NewConnector(Config{Broker: "tcp://localhost:1883", PublishTimeoutMS: 5}, WithLogger(logger.NopLogger{}))
	if err != nil {
		t.Fatalf("connector: %v", err)
	}
	h, err := c.Connect(context.Background(), model.Identity{Tag: "cp_1"})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := h.Publish(context.Background(), []byte(`{}`)); !errors.Is(err, channel.ErrPublish) {
		t.Fatalf("expected ErrPublish got %v", err)
	}
}

func TestDisconnectIdempotent(t *testing.T) {
	mc := &mockClient{}
	useMockClient(t, mc)
	c, err := NewConnector(Config{Broker: "tcp://localhost:1883"}, WithLogger(logger.NopLogger{}))
	if err != nil {
		t.Fatalf("connector: %v", err)
	}
	h, err := c.Connect(context.Background(), model.Identity{Tag: "cp_1"})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	h.Disconnect()
	h.Disconnect()
	if mc.disconnects != 1 {
		t.Fatalf("expected one disconnect got %d", mc.disconnects)
	}
}

type published struct {
	topic string
	qos   byte
}

// mockClient implements pahoClient for tests
type mockClient struct {
	opts           *paho.ClientOptions
	connectErr     error
	connectPending bool
	publishPending bool

	mu          sync.Mutex
	published   []published
	publishErrs []error
	disconnects int
}

func (m *mockClient) IsConnected() bool { return true }
func (m *mockClient) Connect() paho.Token {
	if m.connectPending {
		return newPendingToken()
	}
	return &dummyToken{err: m.connectErr}
}
func (m *mockClient) Disconnect(uint) {
	m.mu.Lock()
	m.disconnects++
	m.mu.Unlock()
}
func (m *mockClient) Publish(topic string, qos byte, _ bool, _ interface{}) paho.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, published{topic, qos})
	if m.publishPending {
		return newPendingToken()
	}
	if len(m.publishErrs) > 0 {
		err := m.publishErrs[0]
		m.publishErrs = m.publishErrs[1:]
		return &dummyToken{err: err}
	}
	return &dummyToken{}
}

func (m *mockClient) publishedCopy() []published {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]published(nil), m.published...)
}

type dummyToken struct{ err error }

func (d dummyToken) Wait() bool                     { return true }
func (d dummyToken) WaitTimeout(time.Duration) bool { return true }
func (d dummyToken) Done() <-chan struct{}          { ch := make(chan struct{}); close(ch); return ch }
func (d dummyToken) Error() error                   { return d.err }

type pendingToken struct{ done chan struct{} }

func newPendingToken() *pendingToken { return &pendingToken{done: make(chan struct{})} }

func (p *pendingToken) Wait() bool                     { <-p.done; return true }
func (p *pendingToken) WaitTimeout(time.Duration) bool { return false }
func (p *pendingToken) Done() <-chan struct{}          { return p.done }
func (p *pendingToken) Error() error                   { return nil }
