package websocket

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	errTypeLabel = "error_type"
	msgTypeLabel = "msg_type"
)

var (
	wsConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ws_connected_clients",
		Help: "The number of connected clients.",
	})

	wsReceivedMsgs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_received_msgs",
		Help: "The number of messages received from WebSocket connections.",
	}, []string{
		msgTypeLabel,
	})

	wsSentMsgs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ws_sent_msgs",
		Help: "The number of messages sent to WebSocket connections.",
	})

	wsHandleMsgErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_handle_msg_errors",
		Help: "The errors that occured while handling a websocket message.",
	}, []string{
		msgTypeLabel,
		errTypeLabel,
	})
)

func instrumentConnect() {
	wsConnectedClients.Inc()
}

func instrumentDisconnect() {
	wsConnectedClients.Dec()
}

func instrumentReceivedMsg(msgType string) {
	wsReceivedMsgs.
		With(prometheus.Labels{msgTypeLabel: msgType}).
		Inc()
}

func instrumentSentMsg() {
	wsSentMsgs.Inc()
}

func instrumentHandleMsgError(msgType string, err error) {
	wsHandleMsgErrors.
		With(prometheus.Labels{
			msgTypeLabel: msgType,
			errTypeLabel: errors.Type(err),
		}).
		Inc()
}
