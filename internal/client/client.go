package client

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/lormic/ecomax360/internal/logging"
	"github.com/lormic/ecomax360/internal/protocol"
)

const (
	// DefaultPort is the TCP port of the serial bridge on most
	// installations.
	DefaultPort = 8899

	// DefaultTimeout bounds one full exchange, from dial to matching
	// frame.
	DefaultTimeout = 10 * time.Second

	// readChunkSize is the per-read buffer for the receive loop. The
	// bridge delivers frames in small bursts; 1 KiB matches its own
	// buffering.
	readChunkSize = 1024
)

// BusyPolicy decides what happens when an exchange is requested while
// another is still in flight. The device is half-duplex with a single
// connection per exchange, so exchanges are never allowed to overlap; the
// policy only picks between queueing and rejecting the latecomer.
type BusyPolicy int

const (
	// BusyReject fails the second caller immediately with a busy error.
	// This is the default: a fixed-interval poller prefers dropping a
	// cycle over building a backlog.
	BusyReject BusyPolicy = iota

	// BusyWait queues the second caller until the gate frees up or its
	// context is canceled.
	BusyWait
)

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-exchange timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithBusyPolicy selects the concurrent-exchange policy.
func WithBusyPolicy(p BusyPolicy) Option {
	return func(c *Client) { c.policy = p }
}

// WithDialer overrides the dial function; used by tests to inject a mock
// transport.
func WithDialer(dial func(ctx context.Context, network, addr string) (net.Conn, error)) Option {
	return func(c *Client) { c.dial = dial }
}

// WithLogger sets the logger; defaults to the process logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// Client exchanges frames with an ecoMAX controller over TCP.
//
// Each exchange owns a fresh connection for its whole lifetime and closes
// it on every exit path; connections are never kept open or reused. The
// controller's framing assumes a bounded, known exchange pattern, so this
// is a deliberate robustness choice, not an optimization target.
type Client struct {
	host    string
	port    int
	timeout time.Duration
	policy  BusyPolicy
	dial    func(ctx context.Context, network, addr string) (net.Conn, error)
	log     *zap.Logger

	// gate serializes exchanges: capacity-1 semaphore.
	gate chan struct{}
}

// New creates a client for the controller at host:port.
func New(host string, port int, opts ...Option) *Client {
	dialer := &net.Dialer{}
	c := &Client{
		host:    host,
		port:    port,
		timeout: DefaultTimeout,
		policy:  BusyReject,
		dial:    dialer.DialContext,
		log:     logging.GetLogger(),
		gate:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Addr returns the host:port the client talks to.
func (c *Client) Addr() string {
	return net.JoinHostPort(c.host, fmt.Sprintf("%d", c.port))
}

// Exchange performs one full request/response cycle for the named command:
// connect, send the built frame, await the matching response or broadcast,
// decode it, disconnect. It is the single primitive all higher-level
// operations are built on.
//
// Unrelated broadcast frames and malformed byte runs are skipped silently
// while awaiting the match; every other failure aborts the exchange. The
// connection is torn down immediately when ctx is canceled.
func (c *Client) Exchange(ctx context.Context, commandName string, payload []byte) (protocol.Values, error) {
	cmd, err := protocol.LookupCommand(commandName)
	if err != nil {
		return nil, newExchangeError(ErrTypeRegistry, commandName, "command lookup failed", err, false)
	}

	if err := c.acquire(ctx, commandName); err != nil {
		return nil, err
	}
	defer c.release()

	return c.exchange(ctx, cmd, payload)
}

func (c *Client) acquire(ctx context.Context, command string) error {
	switch c.policy {
	case BusyWait:
		select {
		case c.gate <- struct{}{}:
			return nil
		case <-ctx.Done():
			return newExchangeError(ErrTypeCanceled, command, "canceled while queued", ctx.Err(), false)
		}
	default:
		select {
		case c.gate <- struct{}{}:
			return nil
		default:
			return newExchangeError(ErrTypeBusy, command, "another exchange is in flight", nil, true)
		}
	}
}

func (c *Client) release() {
	<-c.gate
}

func (c *Client) exchange(ctx context.Context, cmd protocol.CommandSpec, payload []byte) (protocol.Values, error) {
	// Connecting.
	conn, err := c.dial(ctx, "tcp", c.Addr())
	if err != nil {
		if ctx.Err() != nil {
			return nil, newExchangeError(ErrTypeCanceled, cmd.Name, "canceled while connecting", ctx.Err(), false)
		}
		return nil, classifyConnError(cmd.Name, err)
	}
	// The connection is closed on every exit path.
	defer conn.Close()

	// Tear the socket down as soon as the caller abandons the exchange
	// rather than waiting out the deadline.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	deadline := time.Now().Add(c.timeout)
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, newExchangeError(ErrTypeConnection, cmd.Name, "failed to arm exchange deadline", err, true)
	}

	// Sending.
	frame := protocol.BuildFrame(cmd.Source, cmd.Dest, cmd.FunctionCode, payload)
	logging.LogFrame("sending frame", frame)
	if _, err := conn.Write(frame); err != nil {
		if ctx.Err() != nil {
			return nil, newExchangeError(ErrTypeCanceled, cmd.Name, "canceled while sending", ctx.Err(), false)
		}
		if timeoutErr(err) {
			return nil, newExchangeError(ErrTypeTimeout, cmd.Name, "timed out sending request", err, true)
		}
		return nil, newExchangeError(ErrTypeWrite, cmd.Name, "socket closed mid-write", err, true)
	}

	// AwaitingFrame.
	match, err := c.awaitFrame(ctx, conn, cmd)
	if err != nil {
		return nil, err
	}

	// Decoding. A decode failure means the registry and the device
	// disagree; it aborts the exchange rather than yielding a partial
	// result.
	values, err := protocol.Decode(match.Payload, protocol.FieldsFor(cmd.Layout))
	if err != nil {
		return nil, newExchangeError(ErrTypeDecode, cmd.Name, "failed to decode matching frame", err, false)
	}

	c.log.Debug("exchange completed",
		zap.String("command", cmd.Name),
		zap.Int("frame_len", len(match.Raw)),
		zap.Int("values", len(values)),
	)
	return values, nil
}

// awaitFrame reads the socket until a frame matching cmd arrives or the
// deadline set on conn expires. Broadcasts for other commands and
// malformed candidates are discarded without failing the exchange.
func (c *Client) awaitFrame(ctx context.Context, conn net.Conn, cmd protocol.CommandSpec) (*protocol.Frame, error) {
	var scanner protocol.FrameScanner
	buf := make([]byte, readChunkSize)

	for {
		n, err := conn.Read(buf)
		if n > 0 {
			scanner.Feed(buf[:n])
			for {
				frame, scanErr := scanner.Next()
				if scanErr != nil {
					// Malformed bytes: discard and keep
					// listening until the deadline.
					c.log.Debug("discarding malformed frame candidate",
						zap.String("command", cmd.Name),
						zap.Error(scanErr),
					)
					continue
				}
				if frame == nil {
					break
				}
				if !cmd.Matches(frame) {
					// Unsolicited broadcast or a response to
					// someone else; silently skipped.
					c.log.Debug("skipping unrelated frame",
						zap.String("command", cmd.Name),
						zap.String("frame", frame.String()),
					)
					continue
				}
				logging.LogFrame("matched frame", frame.Raw)
				return frame, nil
			}
		}
		if err != nil {
			switch {
			case ctx.Err() != nil:
				return nil, newExchangeError(ErrTypeCanceled, cmd.Name, "canceled while awaiting frame", ctx.Err(), false)
			case timeoutErr(err):
				return nil, newExchangeError(ErrTypeTimeout, cmd.Name,
					fmt.Sprintf("no matching frame within %s", c.timeout), err, true)
			default:
				return nil, newExchangeError(ErrTypeConnection, cmd.Name, "connection lost while awaiting frame", err, true)
			}
		}
	}
}

// FetchBulkData requests the periodic plant-temperature broadcast and
// returns its decoded values.
func (c *Client) FetchBulkData(ctx context.Context) (protocol.Values, error) {
	return c.Exchange(ctx, protocol.CmdGetDatas, nil)
}

// FetchThermostatState reads the thermostat frame: operating mode, current
// and target temperatures, day/night setpoints.
func (c *Client) FetchThermostatState(ctx context.Context) (protocol.Values, error) {
	return c.Exchange(ctx, protocol.CmdGetThermostat, protocol.ThermostatQuery())
}

// RequestPresetChange asks the controller to switch to the given operating
// preset (0-7). The returned values are empty; the write acknowledgement
// carries no fields.
func (c *Client) RequestPresetChange(ctx context.Context, preset uint8) (protocol.Values, error) {
	return c.Exchange(ctx, protocol.CmdSetPreset, protocol.PresetPayload(preset))
}

// RequestSetpointChange writes a new day or night temperature setpoint.
func (c *Client) RequestSetpointChange(ctx context.Context, kind protocol.SetpointKind, temperature float64) (protocol.Values, error) {
	return c.Exchange(ctx, kind.Command(), protocol.SetpointPayload(kind, temperature))
}
