package models

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	errTypeLabel = "error_type"
)

var (
	indexedObjectCountTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "indexed_object_count_total",
		Help: "The total number of objects inserted into the spatial index.",
	})

	indexInsertErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "index_insert_errors",
		Help: "The errors that occured while inserting an object into the spatial index.",
	}, []string{errTypeLabel})

	indexLeafCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "index_leaf_count",
		Help: "The number of leaf regions in the spatial index.",
	})
)

func instrumentCountObject() {
	indexedObjectCountTotal.Inc()
}

func instrumentInsertError(err error) {
	indexInsertErrors.
		With(prometheus.Labels{errTypeLabel: errors.Type(err)}).
		Inc()
}

func instrumentLeafGauge(leafCount int) {
	indexLeafCount.Set((float64)(leafCount))
}
