package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/pprof"
	"os"
	"reflect"
	"syscall"
	"time"

	"github.com/aukilabs/eihwaz/featureflag"
	eihwazhttp "github.com/aukilabs/eihwaz/http"
	"github.com/aukilabs/eihwaz/models"
	"github.com/aukilabs/eihwaz/octree"
	"github.com/aukilabs/eihwaz/smoketest"
	ewebsocket "github.com/aukilabs/eihwaz/websocket"
	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/events"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/go-tooling/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

var (
	// The Eihwaz version number. Set at build.
	version = "v0.1.0"

	infoGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "eihwaz_info",
		Help:        "Eihwaz information.",
		ConstLabels: prometheus.Labels{"version": version},
	})
)

// This will effectively disable obfuscation of the config struct. Without it, the keys would get obfuscated causing the cli package to generate garbled command-line options.
// https://github.com/burrowers/garble/issues/403
var _ = reflect.TypeOf(config{})

type config struct {
	Addr              string        `cli:""        env:"EIHWAZ_ADDR"                help:"Listening address for client connections."`
	AdminAddr         string        `cli:""        env:"EIHWAZ_ADMIN_ADDR"          help:"Admin listening address."`
	WorldSize         float64       `cli:""        env:"EIHWAZ_WORLD_SIZE"          help:"Edge length of the indexed world cube, centered on the origin."`
	MaxItemsPerLeaf   int           `cli:""        env:"EIHWAZ_MAX_ITEMS_PER_LEAF"  help:"Objects a leaf region holds before it subdivides."`
	MaxDepth          int           `cli:",hidden" env:"EIHWAZ_MAX_DEPTH"           help:"Maximum subdivision depth of the index."`
	LogLevel          string        `cli:""        env:"EIHWAZ_LOG_LEVEL"           help:"Log level (debug|info|warning|error)."`
	LogIndent         bool          `cli:""        env:"EIHWAZ_LOG_INDENT"          help:"Indent logs."`
	ClientIdleTimeout time.Duration `cli:",hidden" env:"EIHWAZ_CLIENT_IDLE_TIMEOUT" help:"Time until an idle realtime client will be disconnected."`
	FeatureFlags      []string      `cli:",hidden" env:"EIHWAZ_FEATURE_FLAGS"       help:"Comma separated feature flags"`
	Events            eventsConfig  `cli:",hidden" env:"-"                          help:"Event pusher configuration."`
	Version           bool          `cli:""        env:"-"                          help:"Show version."`
	Help              bool          `cli:""        env:"-"                          help:"Show help."`
}

type eventsConfig struct {
	Endpoint      string        `cli:",hidden" env:"EIHWAZ_EVENTS_ENDPOINT"       help:"Endpoint to where events are pushed."`
	FlushInterval time.Duration `cli:",hidden" env:"EIHWAZ_EVENTS_FLUSH_INTERVAL" help:"The duration between each event flush."`
	BatchSize     int           `cli:",hidden" env:"EIHWAZ_EVENTS_BATCH_SIZE"     help:"The maximum number of events sent at once."`
	QueueSize     int           `cli:",hidden" env:"EIHWAZ_EVENTS_QUEUE_SIZE"     help:"The size of the queue where events are stored."`
}

func main() {
	conf := config{
		Addr:              ":4000",
		AdminAddr:         ":18190",
		WorldSize:         90,
		MaxItemsPerLeaf:   octree.DefaultMaxItemsPerLeaf,
		MaxDepth:          octree.DefaultMaxDepth,
		LogLevel:          logs.InfoLevel.String(),
		ClientIdleTimeout: time.Minute * 5,
		Events: eventsConfig{
			FlushInterval: events.DefaultFlushInterval,
			BatchSize:     events.DefaultBatchSize,
			QueueSize:     events.DefaultQueueSize,
		},
	}

	// set the information gauge to 1, useful for SUM query
	infoGauge.Set(1)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Starts Eihwaz spatial index server.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	errors.Encoder = json.Marshal

	transport := metrics.HTTPTransport(http.DefaultTransport)

	if conf.Events.Endpoint != "" {
		eventsPusher := events.Pusher{
			Endpoint:      conf.Events.Endpoint,
			FlushInterval: conf.Events.FlushInterval,
			BatchSize:     conf.Events.BatchSize,
			QueueSize:     conf.Events.QueueSize,
			Transport:     transport,
		}
		go eventsPusher.Start()
		defer eventsPusher.Close()

		eventsLogger := events.Logger{
			Pusher:           &eventsPusher,
			SDKType:          "eihwaz",
			SDKVersionFamily: version,
		}
		logs.SetLogger(eventsLogger.Log)
	}

	flags := featureflag.New(conf.FeatureFlags)

	tree, err := octree.New((float32)(conf.WorldSize), octree.Options{
		MaxItemsPerLeaf: conf.MaxItemsPerLeaf,
		MaxDepth:        conf.MaxDepth,
		StrictBounds:    flags.IsSet(featureflag.FlagRejectOutOfBoundsInsert),
	})
	if err != nil {
		logs.Fatal(errors.New("creating spatial index failed").Wrap(err))
	}

	store := models.NewIndexStore(tree)
	indexHandler := &eihwazhttp.IndexHandler{Store: store}

	var service http.ServeMux

	service.Handle("/objects", eihwazhttp.HandleWithCORS(http.HandlerFunc(indexHandler.HandleObjectsAt)))
	service.Handle("/regions", eihwazhttp.HandleWithCORS(http.HandlerFunc(indexHandler.HandleRegionAt)))
	service.Handle("/leaves", eihwazhttp.HandleWithCORS(http.HandlerFunc(indexHandler.HandleLeaves)))
	flags.IfNotSet(featureflag.FlagDisableDebugEndpoints, func() {
		service.Handle("/index/debug", eihwazhttp.HandleWithCORS(http.HandlerFunc(indexHandler.HandleDebugInfo)))
	})

	service.Handle("/health", eihwazhttp.HandleWithCORS(http.HandlerFunc(eihwazhttp.HandleHealthCheck)))
	service.Handle("/version", eihwazhttp.HandleWithCORS(eihwazhttp.HandleVersion(version)))

	readinessCheck := func() bool {
		return true
	}
	service.Handle("/ready", eihwazhttp.HandleWithCORS(eihwazhttp.HandleReadyCheck(readinessCheck)))

	service.HandleFunc("/smoke-test", smoketest.HandleSmokeTest(ctx, store, smoketest.Options{}))

	flags.IfNotSet(featureflag.FlagDisableRealtime, func() {
		service.Handle("/", eihwazhttp.HandleWithCORS(websocket.Server{
			Handler: func(conn *websocket.Conn) {
				defer conn.Close()

				ewebsocket.Handle(ctx, conn, &ewebsocket.RealtimeHandler{
					Store:             store,
					ClientIdleTimeout: conf.ClientIdleTimeout,
				})
			},
		}))
	})

	service.Handle("/ping", websocket.Server{
		Handler: func(ws *websocket.Conn) {
			defer ws.Close()
			io.Copy(ws, ws)
		},
	})

	var admin http.ServeMux
	admin.Handle("/metrics", promhttp.Handler())
	admin.HandleFunc("/health", eihwazhttp.HandleHealthCheck)
	admin.HandleFunc("/debug/pprof/", pprof.Index)
	admin.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	admin.HandleFunc("/debug/pprof/profile", pprof.Profile)
	admin.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	admin.HandleFunc("/debug/pprof/trace", pprof.Trace)
	admin.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	admin.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	admin.Handle("/debug/pprof/threadcreate", pprof.Handler("threadcreate"))
	admin.Handle("/debug/pprof/block", pprof.Handler("block"))
	admin.HandleFunc("/ready", eihwazhttp.HandleReadyCheck(readinessCheck))

	logs.WithTag("version", version).
		WithTag("log_level", conf.LogLevel).
		WithTag("world_size", conf.WorldSize).
		WithTag("max_items_per_leaf", conf.MaxItemsPerLeaf).
		Info("starting eihwaz server")

	eihwazhttp.ListenAndServe(ctx,
		&http.Server{Addr: conf.Addr, Handler: metrics.HTTPHandler(&service,
			eihwazhttp.MetricsPathFormatter)},
		&http.Server{Addr: conf.AdminAddr, Handler: &admin},
	)
}
