package gateway

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/rohan-ak43/Remo/internal/event"
	"github.com/rohan-ak43/Remo/internal/metrics"
)

// Channel names on the wire. Dashboards subscribe to both; the patient
// page emits cv-update over the same connection type.
const (
	ChannelSensorData = "sensor-data"
	ChannelCVUpdate   = "cv-update"
	eventAck          = "ack"
)

const (
	commandTimeout = 5 * time.Second
	stopTimeout    = 10 * time.Second
)

// Envelope is the wire framing for every WebSocket message, inbound and
// outbound.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type ackPayload struct {
	Success bool `json:"success"`
}

// gatewayCmd is the command interface for the Gateway actor.
type gatewayCmd interface{ isGatewayCmd() }

type baseGatewayCmd struct{}

func (baseGatewayCmd) isGatewayCmd() {}

type registerCmd struct {
	baseGatewayCmd
	connection   *websocket.Conn
	errorChannel chan error
}

type unregisterCmd struct {
	baseGatewayCmd
	connection *websocket.Conn
}

type clientCountCmd struct {
	baseGatewayCmd
	replyChannel chan int
}

type broadcastCmd struct {
	baseGatewayCmd
	channel string
	data    []byte
}

type inboundCmd struct {
	baseGatewayCmd
	connection *websocket.Conn
	payload    []byte
}

type stopCmd struct {
	baseGatewayCmd
}

// Gateway fans telemetry events out to every connected dashboard
// client. Events arrive either from the HTTP ingestion handlers
// (PublishSensor/PublishCV) or as cv-update messages pushed over a
// WebSocket connection (HandleInbound). The transport makes no
// role distinction: any connected party can both emit and receive.
type Gateway struct {
	cmdCh       chan gatewayCmd
	clock       clockwork.Clock
	registry    *registry
	maxClients  int
	done        chan struct{}
	stopTimeout time.Duration
}

// New creates a gateway and starts its actor goroutine.
// maxClients bounds concurrent connections (prevents resource exhaustion).
func New(clock clockwork.Clock, maxClients int) *Gateway {
	g := &Gateway{
		cmdCh:       make(chan gatewayCmd, 256),
		clock:       clock,
		registry:    newRegistry(),
		maxClients:  maxClients,
		done:        make(chan struct{}),
		stopTimeout: stopTimeout,
	}
	go g.run()
	return g
}

// Register adds a connection to the registry. Registering a connection
// that is already present is a no-op. Returns an error only when the
// client limit is reached or the command times out.
func (g *Gateway) Register(conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	g.cmdCh <- registerCmd{connection: conn, errorChannel: errCh}

	timer := g.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		return err
	case <-timer.Chan():
		return fmt.Errorf("register command timed out after %v", commandTimeout)
	}
}

// Unregister removes a connection. Removing an absent connection is a no-op.
func (g *Gateway) Unregister(conn *websocket.Conn) {
	g.cmdCh <- unregisterCmd{connection: conn}
}

// ClientCount returns the number of connected clients, or -1 if the
// command times out. Used for observability only.
func (g *Gateway) ClientCount() int {
	replyCh := make(chan int, 1)
	g.cmdCh <- clientCountCmd{replyChannel: replyCh}

	timer := g.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		slog.Warn("ClientCount timed out", "timeout", commandTimeout)
		return -1
	}
}

// PublishSensor broadcasts a sensor reading on the sensor-data channel.
// Delivery is fire-and-forget; per-client failures are never surfaced.
func (g *Gateway) PublishSensor(ev event.SensorReading) {
	g.publish(ChannelSensorData, ev)
}

// PublishCV broadcasts a CV update on the cv-update channel.
func (g *Gateway) PublishCV(ev event.CVUpdate) {
	g.publish(ChannelCVUpdate, ev)
}

func (g *Gateway) publish(channel string, payload any) {
	data, err := marshalEnvelope(channel, payload)
	if err != nil {
		slog.Error("Failed to marshal broadcast message", "channel", channel, "error", err)
		return
	}
	g.cmdCh <- broadcastCmd{channel: channel, data: data}
}

// HandleInbound processes one raw message read from a client
// connection. Called from the connection's read pump.
func (g *Gateway) HandleInbound(conn *websocket.Conn, payload []byte) {
	g.cmdCh <- inboundCmd{connection: conn, payload: payload}
}

// Stop shuts down the gateway, closing all client connections.
// Blocks until the actor goroutine has exited or the stop timeout is reached.
func (g *Gateway) Stop() {
	g.cmdCh <- stopCmd{}

	timer := g.clock.NewTimer(g.stopTimeout)
	defer timer.Stop()

	select {
	case <-g.done:
		slog.Info("Gateway stopped gracefully")
	case <-timer.Chan():
		slog.Warn("Gateway stop timeout exceeded, forcing exit", "timeout", g.stopTimeout)
		metrics.GatewayStopTimeoutsTotal.Inc()
	}
}

func (g *Gateway) run() {
	defer close(g.done)

	for cmd := range g.cmdCh {
		switch c := cmd.(type) {
		case registerCmd:
			g.handleRegister(c)
		case unregisterCmd:
			g.handleUnregister(c.connection)
		case clientCountCmd:
			c.replyChannel <- g.registry.count()
		case broadcastCmd:
			g.handleBroadcast(c.channel, c.data)
		case inboundCmd:
			g.handleInbound(c)
		case stopCmd:
			g.handleStop()
			return
		default:
			slog.Warn("Gateway received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
		}
	}
}

func (g *Gateway) handleRegister(c registerCmd) {
	if _, exists := g.registry.get(c.connection); exists {
		// Already registered; membership is a set.
		c.errorChannel <- nil
		return
	}

	if g.registry.count() >= g.maxClients {
		slog.Warn("Rejecting client: max connections reached", "max_clients", g.maxClients)
		c.connection.Close()
		c.errorChannel <- fmt.Errorf("max connections (%d) reached", g.maxClients)
		return
	}

	cw := newClientWriter(c.connection, g.clock)
	g.registry.add(c.connection, cw)

	metrics.GatewayConnectedClients.Set(float64(g.registry.count()))

	slog.Info("Client connected", "client_id", cw.id.String(), "total_clients", g.registry.count())
	c.errorChannel <- nil
}

func (g *Gateway) handleUnregister(conn *websocket.Conn) {
	cw, existed := g.registry.remove(conn)
	if !existed {
		return
	}

	cw.stop()
	metrics.GatewayConnectedClients.Set(float64(g.registry.count()))

	slog.Info("Client disconnected", "client_id", cw.id.String(), "remaining_clients", g.registry.count())
}

// handleBroadcast delivers data to every registered client. A client
// whose buffer is full is evicted; the loop itself never fails.
func (g *Gateway) handleBroadcast(channel string, data []byte) {
	var slow []*websocket.Conn
	for conn, cw := range g.registry.clients {
		if !cw.send(data) {
			slow = append(slow, conn)
		}
	}

	for _, conn := range slow {
		slog.Warn("Disconnecting slow client")
		metrics.GatewaySlowClientsEvicted.Inc()
		g.handleUnregister(conn)
	}

	metrics.GatewayBroadcastsTotal.WithLabelValues(channel).Inc()
}

// handleInbound processes a message pushed by a connected client.
// cv-update messages are normalized, redistributed to every client
// (sender included), and acknowledged to the sender alone.
func (g *Gateway) handleInbound(c inboundCmd) {
	var env Envelope
	if err := json.Unmarshal(c.payload, &env); err != nil {
		slog.Debug("Ignoring malformed WebSocket message", "error", err)
		return
	}

	metrics.GatewayInboundMessagesTotal.WithLabelValues(env.Event).Inc()

	if env.Event != ChannelCVUpdate {
		slog.Debug("Ignoring unknown WebSocket event", "event", env.Event)
		return
	}

	// Wrong-typed or missing fields default, never reject.
	var raw event.RawCVUpdate
	if err := json.Unmarshal(env.Data, &raw); err != nil {
		raw = event.RawCVUpdate{}
	}
	ev := event.NormalizeCVMessage(raw, g.clock)

	slog.Info("Received CV update over WebSocket", "reps", ev.Reps, "form_accuracy", ev.FormAccuracy)

	data, err := marshalEnvelope(ChannelCVUpdate, ev)
	if err != nil {
		slog.Error("Failed to marshal cv-update broadcast", "error", err)
		return
	}
	g.handleBroadcast(ChannelCVUpdate, data)

	g.ackSender(c.connection)
}

func (g *Gateway) ackSender(conn *websocket.Conn) {
	cw, exists := g.registry.get(conn)
	if !exists {
		// Sender was evicted during the broadcast; nothing to ack.
		return
	}

	ack, err := marshalEnvelope(eventAck, ackPayload{Success: true})
	if err != nil {
		slog.Error("Failed to marshal ack", "error", err)
		return
	}
	if !cw.send(ack) {
		slog.Warn("Dropping ack for slow client", "client_id", cw.id.String())
	}
}

func (g *Gateway) handleStop() {
	total := g.registry.count()
	slog.Info("Gateway shutting down", "connected_clients", total)

	for conn, cw := range g.registry.clients {
		cw.stopGraceful("Server shutting down")
		g.registry.remove(conn)
	}
	metrics.GatewayConnectedClients.Set(0)

	slog.Info("Gateway shutdown complete", "disconnected_clients", total)
}

func marshalEnvelope(eventName string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: eventName, Data: data})
}
