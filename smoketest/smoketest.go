package smoketest

import (
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/aukilabs/eihwaz/models"
	"github.com/aukilabs/eihwaz/octree"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
)

const (
	DefaultObjectCount = 100
	DefaultLookupCount = 10
)

// probePositions are inserted before the random objects so every run indexes
// a few known positions that lookups can always resolve.
var probePositions = []octree.Vector3f{
	{X: 1, Y: 2, Z: 3},
	{X: -5, Y: -5, Z: -5},
	{X: 11.25, Y: -11.25, Z: -11.25},
}

type Options struct {
	// The number of randomly positioned objects to insert.
	ObjectCount int

	// The number of collision lookups to run against the filled index.
	LookupCount int

	// Seed for the position generator. Zero seeds from the wall clock.
	Seed int64

	SendResult func(context.Context, Results) error
}

type Results struct {
	ObjectCount      int           `json:"object_count"`
	InsertDuration   time.Duration `json:"insert_duration"`
	LookupCount      int           `json:"lookup_count"`
	LookupHits       int           `json:"lookup_hits"`
	LookupDuration   time.Duration `json:"lookup_duration"`
	LeafCount        uint32        `json:"leaf_count"`
	DeepestLeaf      uint32        `json:"deepest_leaf"`
	MaxItemsPerLeaf  int           `json:"max_items_per_leaf"`
}

// Run fills the store with randomly positioned objects, then runs collision
// lookups against it, timing both phases.
func Run(store *models.IndexStore, opts Options) (Results, error) {
	if opts.ObjectCount <= 0 {
		opts.ObjectCount = DefaultObjectCount
	}
	if opts.LookupCount <= 0 {
		opts.LookupCount = DefaultLookupCount
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}

	info := store.DebugInfo()
	rng := rand.New(rand.NewSource(opts.Seed))
	randomPosition := func() octree.Vector3f {
		return octree.Vector3f{
			X: rng.Float32()*info.WorldSize - info.WorldSize/2,
			Y: rng.Float32()*info.WorldSize - info.WorldSize/2,
			Z: rng.Float32()*info.WorldSize - info.WorldSize/2,
		}
	}

	insertStart := time.Now()
	for i, p := range probePositions {
		if _, err := store.Add("probe", p); err != nil {
			return Results{}, errors.New("inserting probe object failed").
				WithTag("probe", i).
				Wrap(err)
		}
	}
	for i := 0; i < opts.ObjectCount; i++ {
		if _, err := store.Add("smoketest", randomPosition()); err != nil {
			return Results{}, errors.New("inserting random object failed").
				WithTag("object", i).
				Wrap(err)
		}
	}
	insertDuration := time.Since(insertStart)

	lookupStart := time.Now()
	var hits int
	for _, p := range probePositions {
		if _, ok := store.ObjectsAt(p); ok {
			hits++
		}
	}
	for i := 0; i < opts.LookupCount-len(probePositions); i++ {
		if objects, ok := store.ObjectsAt(randomPosition()); ok && len(objects) != 0 {
			hits++
		}
	}
	lookupDuration := time.Since(lookupStart)

	info = store.DebugInfo()
	return Results{
		ObjectCount:     opts.ObjectCount + len(probePositions),
		InsertDuration:  insertDuration,
		LookupCount:     opts.LookupCount,
		LookupHits:      hits,
		LookupDuration:  lookupDuration,
		LeafCount:       info.LeafCount,
		DeepestLeaf:     info.DeepestLeaf,
		MaxItemsPerLeaf: info.MaxItemsPerLeaf,
	}, nil
}

type request struct {
	ObjectCount int   `json:"object_count"`
	LookupCount int   `json:"lookup_count"`
	Seed        int64 `json:"seed"`
}

// HandleSmokeTest triggers a smoke test run against the given store. The run
// happens in the background; its result goes through opts.SendResult.
func HandleSmokeTest(ctx context.Context, store *models.IndexStore, opts Options) http.HandlerFunc {
	if opts.SendResult == nil {
		opts.SendResult = logResult
	}

	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		var req request
		if len(body) != 0 {
			if err := json.Unmarshal(body, &req); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
		}

		runOpts := opts
		if req.ObjectCount > 0 {
			runOpts.ObjectCount = req.ObjectCount
		}
		if req.LookupCount > 0 {
			runOpts.LookupCount = req.LookupCount
		}
		if req.Seed != 0 {
			runOpts.Seed = req.Seed
		}

		go func() {
			res, err := Run(store, runOpts)
			if err != nil {
				logs.Warn(errors.New("smoke test failed").Wrap(err))
				return
			}

			if err := opts.SendResult(ctx, res); err != nil {
				logs.Warn(errors.New("sending smoke test result failed").Wrap(err))
			}
		}()

		w.WriteHeader(http.StatusOK)
	}
}

func logResult(ctx context.Context, res Results) error {
	logs.WithTag("object_count", res.ObjectCount).
		WithTag("insert_duration", res.InsertDuration.String()).
		WithTag("lookup_count", res.LookupCount).
		WithTag("lookup_hits", res.LookupHits).
		WithTag("lookup_duration", res.LookupDuration.String()).
		WithTag("leaf_count", res.LeafCount).
		WithTag("deepest_leaf", res.DeepestLeaf).
		Info("smoke test completed")
	return nil
}
