package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aukilabs/eihwaz/models"
	"github.com/aukilabs/eihwaz/octree"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

type recordSender struct {
	sent []any
}

func (s *recordSender) Send(v any) error {
	s.sent = append(s.sent, v)
	return nil
}

func newTestHandler(t *testing.T, opts octree.Options) *RealtimeHandler {
	tree, err := octree.New(90, opts)
	require.NoError(t, err)
	return &RealtimeHandler{Store: models.NewIndexStore(tree)}
}

func dataMsg(t *testing.T, msgType string, requestID uint32, data any) Msg {
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return Msg{Type: msgType, RequestID: requestID, Data: raw}
}

func TestRealtimeHandlePing(t *testing.T) {
	h := newTestHandler(t, octree.Options{})
	respond := &recordSender{}

	err := h.HandleMsg(context.Background(), respond, Msg{Type: MsgTypePing, RequestID: 7})
	require.NoError(t, err)
	require.Len(t, respond.sent, 1)

	res := respond.sent[0].(*PingResponse)
	require.Equal(t, MsgTypePingResponse, res.Type)
	require.Equal(t, (uint32)(7), res.RequestID)
}

func TestRealtimeHandleObjectAdd(t *testing.T) {
	h := newTestHandler(t, octree.Options{})
	respond := &recordSender{}

	msg := dataMsg(t, MsgTypeObjectAdd, 1, ObjectAddRequest{
		Name:     "probe",
		Position: Point{1, 2, 3},
	})
	require.NoError(t, h.HandleMsg(context.Background(), respond, msg))

	res := respond.sent[0].(*ObjectAddResponse)
	require.Equal(t, MsgTypeObjectAddResponse, res.Type)
	require.Equal(t, (uint32)(1), res.RequestID)
	require.Equal(t, "probe", res.Object.Name)
	require.Equal(t, Point{1, 2, 3}, res.Object.Position)
	require.Equal(t, 1, h.Store.ObjectCount())
}

func TestRealtimeHandleObjectAddErrors(t *testing.T) {
	t.Run("missing data", func(t *testing.T) {
		h := newTestHandler(t, octree.Options{})
		respond := &recordSender{}

		msg := Msg{Type: MsgTypeObjectAdd, RequestID: 2}
		require.NoError(t, h.HandleMsg(context.Background(), respond, msg))

		res := respond.sent[0].(*ErrorResponse)
		require.Equal(t, MsgTypeError, res.Type)
		require.Equal(t, ErrorCodeBadRequest, res.Code)
	})

	t.Run("out of bounds in strict mode", func(t *testing.T) {
		h := newTestHandler(t, octree.Options{StrictBounds: true})
		respond := &recordSender{}

		msg := dataMsg(t, MsgTypeObjectAdd, 3, ObjectAddRequest{
			Name:     "outside",
			Position: Point{100, 0, 0},
		})
		require.NoError(t, h.HandleMsg(context.Background(), respond, msg))

		res := respond.sent[0].(*ErrorResponse)
		require.Equal(t, ErrorCodeOutOfBounds, res.Code)
	})
}

func TestRealtimeHandleObjectQuery(t *testing.T) {
	h := newTestHandler(t, octree.Options{MaxItemsPerLeaf: 1})
	respond := &recordSender{}

	_, err := h.Store.Add("a", octree.NewVector3f(1, 2, 3))
	require.NoError(t, err)
	_, err = h.Store.Add("b", octree.NewVector3f(-5, -5, -5))
	require.NoError(t, err)

	msg := dataMsg(t, MsgTypeObjectQuery, 4, PositionRequest{Position: Point{1, 2, 3}})
	require.NoError(t, h.HandleMsg(context.Background(), respond, msg))

	res := respond.sent[0].(*ObjectQueryResponse)
	require.True(t, res.Found)
	require.Len(t, res.Objects, 1)
	require.Equal(t, "a", res.Objects[0].Name)

	// An octant nothing ever landed in yields a no-result response.
	msg = dataMsg(t, MsgTypeObjectQuery, 5, PositionRequest{Position: Point{5, -5, 5}})
	require.NoError(t, h.HandleMsg(context.Background(), respond, msg))

	res = respond.sent[1].(*ObjectQueryResponse)
	require.False(t, res.Found)
	require.Empty(t, res.Objects)
}

func TestRealtimeHandleRegionQuery(t *testing.T) {
	h := newTestHandler(t, octree.Options{MaxItemsPerLeaf: 1})
	respond := &recordSender{}

	_, err := h.Store.Add("a", octree.NewVector3f(1, 2, 3))
	require.NoError(t, err)
	_, err = h.Store.Add("b", octree.NewVector3f(-5, -5, -5))
	require.NoError(t, err)

	msg := dataMsg(t, MsgTypeRegionQuery, 6, PositionRequest{Position: Point{1, 2, 3}})
	require.NoError(t, h.HandleMsg(context.Background(), respond, msg))

	res := respond.sent[0].(*RegionQueryResponse)
	require.True(t, res.Found)
	require.Equal(t, Point{22.5, 22.5, 22.5}, *res.Center)
}

func TestRealtimeHandleLeafList(t *testing.T) {
	h := newTestHandler(t, octree.Options{MaxItemsPerLeaf: 1})
	respond := &recordSender{}

	_, err := h.Store.Add("a", octree.NewVector3f(1, 2, 3))
	require.NoError(t, err)
	_, err = h.Store.Add("b", octree.NewVector3f(-5, -5, -5))
	require.NoError(t, err)

	require.NoError(t, h.HandleMsg(context.Background(), respond, Msg{Type: MsgTypeLeafList, RequestID: 8}))

	res := respond.sent[0].(*LeafListResponse)
	require.Len(t, res.Leaves, 2)
	require.Equal(t, Point{-22.5, -22.5, -22.5}, res.Leaves[0].Center)
}

func TestRealtimeHandleUnknownMsgType(t *testing.T) {
	h := newTestHandler(t, octree.Options{})
	respond := &recordSender{}

	require.NoError(t, h.HandleMsg(context.Background(), respond, Msg{Type: "nope", RequestID: 9}))

	res := respond.sent[0].(*ErrorResponse)
	require.Equal(t, ErrorCodeUnknownMsgType, res.Code)
}

func TestHandleServesConnection(t *testing.T) {
	tree, err := octree.New(90, octree.Options{})
	require.NoError(t, err)
	store := models.NewIndexStore(tree)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server := httptest.NewServer(websocket.Server{
		Handler: func(conn *websocket.Conn) {
			defer conn.Close()

			Handle(ctx, conn, &RealtimeHandler{
				Store:             store,
				ClientIdleTimeout: time.Second * 5,
			})
		},
	})
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, err := websocket.Dial(wsURL, "", server.URL)
	require.NoError(t, err)
	defer conn.Close()

	addData, err := json.Marshal(ObjectAddRequest{Name: "probe", Position: Point{1, 2, 3}})
	require.NoError(t, err)
	require.NoError(t, websocket.JSON.Send(conn, Msg{
		Type:      MsgTypeObjectAdd,
		RequestID: 1,
		Data:      addData,
	}))

	var addRes ObjectAddResponse
	require.NoError(t, websocket.JSON.Receive(conn, &addRes))
	require.Equal(t, MsgTypeObjectAddResponse, addRes.Type)
	require.Equal(t, "probe", addRes.Object.Name)

	queryData, err := json.Marshal(PositionRequest{Position: Point{1, 2, 3}})
	require.NoError(t, err)
	require.NoError(t, websocket.JSON.Send(conn, Msg{
		Type:      MsgTypeObjectQuery,
		RequestID: 2,
		Data:      queryData,
	}))

	var queryRes ObjectQueryResponse
	require.NoError(t, websocket.JSON.Receive(conn, &queryRes))
	require.True(t, queryRes.Found)
	require.Len(t, queryRes.Objects, 1)
}
