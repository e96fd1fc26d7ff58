package http

import (
	"io"
	"net/http"
	"strconv"

	"github.com/aukilabs/eihwaz/models"
	"github.com/aukilabs/eihwaz/octree"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/segmentio/encoding/json"
)

const addObjectMaxBodySize = 4096

// IndexHandler exposes a spatial index store over HTTP.
type IndexHandler struct {
	Store *models.IndexStore
}

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

type ObjectPayload struct {
	ID       uint32 `json:"id"`
	Name     string `json:"name"`
	Position Point  `json:"position"`
}

func objectPayload(o *models.Object) ObjectPayload {
	return ObjectPayload{
		ID:       o.ID,
		Name:     o.Name,
		Position: pointFromVector(o.Position()),
	}
}

func objectPayloads(objects []*models.Object) []ObjectPayload {
	payloads := make([]ObjectPayload, len(objects))
	for i, o := range objects {
		payloads[i] = objectPayload(o)
	}
	return payloads
}

type addObjectRequest struct {
	Name     string `json:"name"`
	Position Point  `json:"position"`
}

type objectsAtResponse struct {
	Found   bool            `json:"found"`
	Objects []ObjectPayload `json:"objects,omitempty"`
}

type regionAtResponse struct {
	Found  bool   `json:"found"`
	Center *Point `json:"center,omitempty"`
}

type leafPayload struct {
	Center  Point           `json:"center"`
	Objects []ObjectPayload `json:"objects"`
}

type leavesResponse struct {
	Leaves []leafPayload `json:"leaves"`
}

// HandleAddObject inserts an object into the index.
func (h *IndexHandler) HandleAddObject(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, addObjectMaxBodySize))
	if err != nil {
		badRequest(w, errors.New("reading body failed").Wrap(err))
		return
	}

	var req addObjectRequest
	if err := json.Unmarshal(body, &req); err != nil {
		badRequest(w, errors.New("decoding body failed").Wrap(err))
		return
	}

	obj, err := h.Store.Add(req.Name, req.Position.vector())
	if err != nil {
		badRequest(w, errors.New("inserting object failed").Wrap(err))
		return
	}

	writeJSON(w, http.StatusCreated, objectPayload(obj))
}

// HandleObjectsAt returns the objects of the leaf containing the queried
// position. An empty subtree path is a no-result response, not an error.
func (h *IndexHandler) HandleObjectsAt(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		h.HandleAddObject(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	position, err := positionFromQuery(r)
	if err != nil {
		badRequest(w, err)
		return
	}

	objects, found := h.Store.ObjectsAt(position)
	writeJSON(w, http.StatusOK, objectsAtResponse{
		Found:   found,
		Objects: objectPayloads(objects),
	})
}

// HandleRegionAt returns the center of the leaf region that would contain
// the queried position.
func (h *IndexHandler) HandleRegionAt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	position, err := positionFromQuery(r)
	if err != nil {
		badRequest(w, err)
		return
	}

	res := regionAtResponse{}
	if center, found := h.Store.RegionCenterAt(position); found {
		point := pointFromVector(center)
		res.Found = true
		res.Center = &point
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleLeaves returns every leaf region and its objects.
func (h *IndexHandler) HandleLeaves(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	leaves := h.Store.Leaves()
	res := leavesResponse{Leaves: make([]leafPayload, len(leaves))}
	for i, leaf := range leaves {
		res.Leaves[i] = leafPayload{
			Center:  pointFromVector(leaf.Center),
			Objects: objectPayloads(leaf.Objects),
		}
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleDebugInfo returns the index shape counters.
func (h *IndexHandler) HandleDebugInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, h.Store.DebugInfo())
}

func positionFromQuery(r *http.Request) (octree.Vector3f, error) {
	var position octree.Vector3f

	query := r.URL.Query()
	for _, axis := range []struct {
		name  string
		value *float32
	}{
		{"x", &position.X},
		{"y", &position.Y},
		{"z", &position.Z},
	} {
		raw := query.Get(axis.name)
		if raw == "" {
			return octree.Vector3f{}, errors.New("missing position coordinate").
				WithTag("axis", axis.name)
		}

		v, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			return octree.Vector3f{}, errors.New("parsing position coordinate failed").
				WithTag("axis", axis.name).
				Wrap(err)
		}
		*axis.value = (float32)(v)
	}

	return position, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		logs.Warn(errors.New("encoding response failed").Wrap(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

func badRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": err.Error(),
	})
}
