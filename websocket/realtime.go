package websocket

import (
	"context"
	"time"

	"github.com/aukilabs/eihwaz/models"
	"github.com/aukilabs/eihwaz/octree"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/google/uuid"
	"golang.org/x/net/websocket"
)

const (
	MsgTypePing                = "ping"
	MsgTypePingResponse        = "ping_response"
	MsgTypeObjectAdd           = "object_add"
	MsgTypeObjectAddResponse   = "object_add_response"
	MsgTypeObjectQuery         = "object_query"
	MsgTypeObjectQueryResponse = "object_query_response"
	MsgTypeRegionQuery         = "region_query"
	MsgTypeRegionQueryResponse = "region_query_response"
	MsgTypeLeafList            = "leaf_list"
	MsgTypeLeafListResponse    = "leaf_list_response"
	MsgTypeError               = "error_response"
)

const (
	ErrorCodeBadRequest     = "bad_request"
	ErrorCodeOutOfBounds    = "out_of_bounds"
	ErrorCodeUnknownMsgType = "unknown_msg_type"
)

type Point struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

func (p Point) vector() octree.Vector3f {
	return octree.Vector3f{X: p.X, Y: p.Y, Z: p.Z}
}

func pointFromVector(v octree.Vector3f) Point {
	return Point{X: v.X, Y: v.Y, Z: v.Z}
}

type Object struct {
	ID       uint32 `json:"id"`
	Name     string `json:"name"`
	Position Point  `json:"position"`
}

func objectFromModel(o *models.Object) Object {
	return Object{
		ID:       o.ID,
		Name:     o.Name,
		Position: pointFromVector(o.Position()),
	}
}

func objectsFromModels(objects []*models.Object) []Object {
	res := make([]Object, len(objects))
	for i, o := range objects {
		res[i] = objectFromModel(o)
	}
	return res
}

type ObjectAddRequest struct {
	Name     string `json:"name"`
	Position Point  `json:"position"`
}

type ObjectAddResponse struct {
	Type      string `json:"type"`
	RequestID uint32 `json:"request_id"`
	Object    Object `json:"object"`
}

type PositionRequest struct {
	Position Point `json:"position"`
}

type ObjectQueryResponse struct {
	Type      string   `json:"type"`
	RequestID uint32   `json:"request_id"`
	Found     bool     `json:"found"`
	Objects   []Object `json:"objects,omitempty"`
}

type RegionQueryResponse struct {
	Type      string `json:"type"`
	RequestID uint32 `json:"request_id"`
	Found     bool   `json:"found"`
	Center    *Point `json:"center,omitempty"`
}

type Leaf struct {
	Center  Point    `json:"center"`
	Objects []Object `json:"objects"`
}

type LeafListResponse struct {
	Type      string `json:"type"`
	RequestID uint32 `json:"request_id"`
	Leaves    []Leaf `json:"leaves"`
}

type PingResponse struct {
	Type      string `json:"type"`
	RequestID uint32 `json:"request_id"`
}

type ErrorResponse struct {
	Type      string `json:"type"`
	RequestID uint32 `json:"request_id"`
	Code      string `json:"code"`
}

// RealtimeHandler serves spatial index operations to a client connection.
type RealtimeHandler struct {
	// The store that guards the spatial index.
	Store *models.IndexStore

	// The time a client is idle before being disconnected.
	ClientIdleTimeout time.Duration

	conn     *websocket.Conn
	clientID string
}

func (h *RealtimeHandler) HandleConnect(conn *websocket.Conn) {
	h.conn = conn

	h.clientID = conn.Request().Header.Get(HeaderClientID)
	if h.clientID == "" {
		h.clientID = uuid.NewString()
	}
}

func (h *RealtimeHandler) HandleDisconnect(err error) {
	entry := logs.WithTag("client_id", h.clientID)
	if err != nil {
		entry = entry.WithTag("reason", err.Error())
	}
	entry.Info("client disconnected")
}

func (h *RealtimeHandler) IdleTimeout() time.Duration {
	return h.ClientIdleTimeout
}

func (h *RealtimeHandler) ClientID() string {
	return h.clientID
}

func (h *RealtimeHandler) HandleMsg(ctx context.Context, respond ResponseSender, msg Msg) error {
	switch msg.Type {
	case MsgTypePing:
		return h.HandlePing(ctx, respond, msg)

	case MsgTypeObjectAdd:
		return h.HandleObjectAdd(ctx, respond, msg)

	case MsgTypeObjectQuery:
		return h.HandleObjectQuery(ctx, respond, msg)

	case MsgTypeRegionQuery:
		return h.HandleRegionQuery(ctx, respond, msg)

	case MsgTypeLeafList:
		return h.HandleLeafList(ctx, respond, msg)

	default:
		return respond.Send(&ErrorResponse{
			Type:      MsgTypeError,
			RequestID: msg.RequestID,
			Code:      ErrorCodeUnknownMsgType,
		})
	}
}

func (h *RealtimeHandler) HandlePing(ctx context.Context, respond ResponseSender, msg Msg) error {
	return respond.Send(&PingResponse{
		Type:      MsgTypePingResponse,
		RequestID: msg.RequestID,
	})
}

func (h *RealtimeHandler) HandleObjectAdd(ctx context.Context, respond ResponseSender, msg Msg) error {
	var req ObjectAddRequest
	if err := msg.DataTo(&req); err != nil {
		return respond.Send(&ErrorResponse{
			Type:      MsgTypeError,
			RequestID: msg.RequestID,
			Code:      ErrorCodeBadRequest,
		})
	}

	obj, err := h.Store.Add(req.Name, req.Position.vector())
	if err != nil {
		return respond.Send(&ErrorResponse{
			Type:      MsgTypeError,
			RequestID: msg.RequestID,
			Code:      ErrorCodeOutOfBounds,
		})
	}

	return respond.Send(&ObjectAddResponse{
		Type:      MsgTypeObjectAddResponse,
		RequestID: msg.RequestID,
		Object:    objectFromModel(obj),
	})
}

func (h *RealtimeHandler) HandleObjectQuery(ctx context.Context, respond ResponseSender, msg Msg) error {
	var req PositionRequest
	if err := msg.DataTo(&req); err != nil {
		return respond.Send(&ErrorResponse{
			Type:      MsgTypeError,
			RequestID: msg.RequestID,
			Code:      ErrorCodeBadRequest,
		})
	}

	objects, found := h.Store.ObjectsAt(req.Position.vector())
	return respond.Send(&ObjectQueryResponse{
		Type:      MsgTypeObjectQueryResponse,
		RequestID: msg.RequestID,
		Found:     found,
		Objects:   objectsFromModels(objects),
	})
}

func (h *RealtimeHandler) HandleRegionQuery(ctx context.Context, respond ResponseSender, msg Msg) error {
	var req PositionRequest
	if err := msg.DataTo(&req); err != nil {
		return respond.Send(&ErrorResponse{
			Type:      MsgTypeError,
			RequestID: msg.RequestID,
			Code:      ErrorCodeBadRequest,
		})
	}

	res := RegionQueryResponse{
		Type:      MsgTypeRegionQueryResponse,
		RequestID: msg.RequestID,
	}
	if center, found := h.Store.RegionCenterAt(req.Position.vector()); found {
		point := pointFromVector(center)
		res.Found = true
		res.Center = &point
	}
	return respond.Send(&res)
}

func (h *RealtimeHandler) HandleLeafList(ctx context.Context, respond ResponseSender, msg Msg) error {
	leaves := h.Store.Leaves()

	res := LeafListResponse{
		Type:      MsgTypeLeafListResponse,
		RequestID: msg.RequestID,
		Leaves:    make([]Leaf, len(leaves)),
	}
	for i, leaf := range leaves {
		res.Leaves[i] = Leaf{
			Center:  pointFromVector(leaf.Center),
			Objects: objectsFromModels(leaf.Objects),
		}
	}
	return respond.Send(&res)
}
