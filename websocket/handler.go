package websocket

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"golang.org/x/net/websocket"
)

// HeaderClientID carries an optional client-chosen connection id.
const HeaderClientID = "X-Eihwaz-Client-Id"

const (
	ErrTypeBadMsg         = "bad_msg"
	ErrTypeUnknownMsgType = "unknown_msg_type"
)

// Msg is the envelope every client message arrives in. Data carries the
// type-specific payload.
type Msg struct {
	Type      string          `json:"type"`
	RequestID uint32          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// DataTo decodes the message payload into v.
func (m Msg) DataTo(v any) error {
	if len(m.Data) == 0 {
		return errors.New("message has no data").
			WithType(ErrTypeBadMsg).
			WithTag("msg_type", m.Type)
	}
	if err := json.Unmarshal(m.Data, v); err != nil {
		return errors.New("decoding message data failed").
			WithType(ErrTypeBadMsg).
			WithTag("msg_type", m.Type).
			Wrap(err)
	}
	return nil
}

// ResponseSender sends messages back to the connected client.
type ResponseSender interface {
	Send(v any) error
}

// Handler is the interface that describes a service handling a client
// connection.
type Handler interface {
	// Handles a client connection.
	HandleConnect(conn *websocket.Conn)

	// Handles a given message.
	//
	// A returned error causes the current WebSocket client to be
	// disconnected.
	HandleMsg(ctx context.Context, respond ResponseSender, msg Msg) error

	// Handles a client disconnection.
	HandleDisconnect(err error)

	// The time a client is idle before being disconnected.
	IdleTimeout() time.Duration

	// Returns the connection client id.
	ClientID() string
}

// Handle serves the given connection with the given handler until the
// context is canceled, the client disconnects, or a message handler fails.
func Handle(ctx context.Context, conn *websocket.Conn, h Handler) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	h.HandleConnect(conn)
	instrumentConnect()
	defer instrumentDisconnect()

	logs.WithTag("client_id", h.ClientID()).Info("client connected")

	respond := &responseSender{conn: conn}

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		if h.IdleTimeout() > 0 {
			conn.SetReadDeadline(time.Now().Add(h.IdleTimeout()))
		}

		var msg Msg
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.HandleDisconnect(disconnectReason(ctx, err))
			return
		}
		instrumentReceivedMsg(msg.Type)

		if err := h.HandleMsg(ctx, respond, msg); err != nil {
			instrumentHandleMsgError(msg.Type, err)
			logs.WithTag("client_id", h.ClientID()).
				WithTag("msg_type", msg.Type).
				Warn(errors.New("handling message failed").Wrap(err))

			h.HandleDisconnect(err)
			return
		}
	}
}

func disconnectReason(ctx context.Context, err error) error {
	switch {
	case ctx.Err() != nil:
		return ctx.Err()

	case err == io.EOF:
		return nil

	default:
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return errors.New("client idle timeout").Wrap(err)
		}
		return err
	}
}

type responseSender struct {
	conn *websocket.Conn
}

func (s *responseSender) Send(v any) error {
	if err := websocket.JSON.Send(s.conn, v); err != nil {
		return errors.New("sending message failed").Wrap(err)
	}
	instrumentSentMsg()
	return nil
}
