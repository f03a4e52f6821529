// Package remote manages SSH connections to scan targets.
// Each target gets a persistent, multiplexed SSH connection with keepalive.
package remote

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	v1 "github.com/autodoc-sh/autodoc/api/v1"
	"github.com/autodoc-sh/autodoc/internal/core/logger"
	"github.com/autodoc-sh/autodoc/pkg/errs"
	"github.com/autodoc-sh/autodoc/pkg/sshutil"
)

// connection holds a live SSH connection and its metadata.
type connection struct {
	client   *ssh.Client
	addr     string
	lastUsed time.Time
	cancel   context.CancelFunc
}

// Pool manages persistent SSH connections to scan targets.
// Connections are keyed by dial address (host:port) so two targets
// never share one even when their names are left unset in the config.
type Pool struct {
	mu    sync.Mutex
	conns map[string]*connection // host:port → connection
	log   *logger.Logger
}

// NewPool creates an empty connection pool.
func NewPool(log *logger.Logger) *Pool {
	return &Pool{
		conns: make(map[string]*connection),
		log:   log,
	}
}

// Connect establishes (or returns an existing) SSH connection for a target.
func (p *Pool) Connect(ctx context.Context, target v1.ScanTargetSpec) (*ssh.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	addr := targetAddr(target)

	if c, ok := p.conns[addr]; ok {
		// Verify connection is still alive with a lightweight keepalive
		if _, _, err := c.client.Conn.SendRequest("keepalive@autodoc", true, nil); err == nil {
			c.lastUsed = time.Now()
			return c.client, nil
		}
		// Connection dead — remove it and reconnect
		c.cancel()
		delete(p.conns, addr)
	}

	client, err := p.dial(target, addr)
	if err != nil {
		return nil, err
	}

	connCtx, cancel := context.WithCancel(context.Background())
	conn := &connection{
		client:   client,
		addr:     addr,
		lastUsed: time.Now(),
		cancel:   cancel,
	}
	p.conns[addr] = conn

	// Background keepalive goroutine
	go p.keepalive(connCtx, addr, client)

	p.log.Info("ssh connected", "host", target.Host, "addr", addr)
	return client, nil
}

// targetAddr returns the dial address for a target, applying the
// default SSH port when the spec leaves it unset.
func targetAddr(target v1.ScanTargetSpec) string {
	port := target.Port
	if port == 0 {
		port = sshutil.DefaultPort
	}
	return net.JoinHostPort(target.Host, strconv.Itoa(port))
}

// dial opens a new SSH connection to the target based on its spec.
func (p *Pool) dial(target v1.ScanTargetSpec, addr string) (*ssh.Client, error) {
	if target.Key == "" {
		return nil, errs.Newf(errs.ErrScanSSH, "connect",
			"no SSH key configured for target %q", target.Host).
			WithAdvice("set key: in the scan target entry of autodoc.yaml")
	}

	cfg, err := sshutil.ClientConfig(target.User, target.Key, "")
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrScanSSH, "connect").WithResource(target.Host)
	}

	return sshutil.Dial(addr, cfg)
}

// Run executes a command on the target and returns its combined output.
func (p *Pool) Run(ctx context.Context, target v1.ScanTargetSpec, cmd string) (string, int, error) {
	client, err := p.Connect(ctx, target)
	if err != nil {
		return "", -1, err
	}
	return sshutil.RunCommand(client, cmd)
}

// Disconnect closes the connection for a target.
func (p *Pool) Disconnect(target v1.ScanTargetSpec) {
	p.mu.Lock()
	defer p.mu.Unlock()
	addr := targetAddr(target)
	if c, ok := p.conns[addr]; ok {
		c.cancel()
		c.client.Close()
		delete(p.conns, addr)
		p.log.Info("ssh disconnected", "addr", addr)
	}
}

// Close disconnects all managed connections.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for addr, c := range p.conns {
		c.cancel()
		c.client.Close()
		delete(p.conns, addr)
		p.log.Info("ssh connection closed", "addr", addr)
	}
}

// keepalive sends periodic keepalive packets to prevent session timeout.
func (p *Pool) keepalive(ctx context.Context, addr string, client *ssh.Client) {
	ticker := time.NewTicker(sshutil.KeepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, _, err := client.Conn.SendRequest("keepalive@autodoc", true, nil); err != nil {
				p.log.Warn("ssh keepalive failed, connection may be dead",
					"addr", addr, "err", err)
				return
			}
		}
	}
}
