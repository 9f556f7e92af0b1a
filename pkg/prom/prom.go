package prom

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	xhttp "github.com/sowlabs/transfer-office/pkg/http"
	"github.com/sowlabs/transfer-office/pkg/logger"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const (
	SystemTransfers = "transfer"
	SystemReceipts  = "receipt"
)

const (
	MetricTransfersCreated        = "created_total"
	MetricTransfersWithdrawn      = "withdrawn_total"
	MetricCodeAllocationAttempts  = "code_allocation_attempts"
	MetricReceiptDeliveryDuration = "delivery_duration_seconds"
)

var createMetricLock = &sync.Mutex{}
var namespace = "none"

var MetricSystemEnabled = false

var counterVecs = make(map[string]*prometheus.CounterVec)
var histograms = make(map[string]prometheus.Histogram)
var histogramVecs = make(map[string]*prometheus.HistogramVec)

var defaultLabels prometheus.Labels

// Create registers the transfer-office metric set. Call once at
// startup; helpers below are no-ops until then.
func Create(host string, env string, nameSpace string) error {
	defaultLabels = prometheus.Labels{
		"env":      env,
		"instance": host,
	}
	namespace = nameSpace
	MetricSystemEnabled = true

	var err error
	hasError := func(e error) {
		if err == nil && e != nil {
			err = e
		}
	}

	hasError(createCounterVec(SystemTransfers, MetricTransfersCreated, []string{"currency"}))
	hasError(createCounterVec(SystemTransfers, MetricTransfersWithdrawn, []string{"mode"}))
	hasError(createHistogram(SystemTransfers, MetricCodeAllocationAttempts))
	hasError(createHistogramVec(SystemReceipts, MetricReceiptDeliveryDuration, []string{"event"}))

	return err
}

func createCounterVec(subsystem, name string, labels []string) error {
	createMetricLock.Lock()
	defer createMetricLock.Unlock()

	key := subsystem + "_" + name
	if _, ok := counterVecs[key]; ok {
		return nil
	}

	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		ConstLabels: defaultLabels,
	}, labels)
	if err := prometheus.Register(vec); err != nil {
		return err
	}
	counterVecs[key] = vec
	return nil
}

func createHistogram(subsystem, name string) error {
	createMetricLock.Lock()
	defer createMetricLock.Unlock()

	key := subsystem + "_" + name
	if _, ok := histograms[key]; ok {
		return nil
	}

	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		ConstLabels: defaultLabels,
		Buckets:     []float64{1, 2, 3, 5, 8, 13, 21},
	})
	if err := prometheus.Register(h); err != nil {
		return err
	}
	histograms[key] = h
	return nil
}

func createHistogramVec(subsystem, name string, labels []string) error {
	createMetricLock.Lock()
	defer createMetricLock.Unlock()

	key := subsystem + "_" + name
	if _, ok := histogramVecs[key]; ok {
		return nil
	}

	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		ConstLabels: defaultLabels,
		Buckets:     prometheus.DefBuckets,
	}, labels)
	if err := prometheus.Register(vec); err != nil {
		return err
	}
	histogramVecs[key] = vec
	return nil
}

func IncTransferCreated(currency string) {
	if !MetricSystemEnabled {
		return
	}
	if vec, ok := counterVecs[SystemTransfers+"_"+MetricTransfersCreated]; ok {
		vec.WithLabelValues(currency).Inc()
	}
}

func IncTransferWithdrawn(mode string) {
	if !MetricSystemEnabled {
		return
	}
	if vec, ok := counterVecs[SystemTransfers+"_"+MetricTransfersWithdrawn]; ok {
		vec.WithLabelValues(mode).Inc()
	}
}

func ObserveCodeAllocationAttempts(attempts float64) {
	if !MetricSystemEnabled {
		return
	}
	if h, ok := histograms[SystemTransfers+"_"+MetricCodeAllocationAttempts]; ok {
		h.Observe(attempts)
	}
}

func ObserveReceiptDeliveryDuration(seconds float64, event string) {
	if !MetricSystemEnabled {
		return
	}
	if vec, ok := histogramVecs[SystemReceipts+"_"+MetricReceiptDeliveryDuration]; ok {
		vec.WithLabelValues(event).Observe(seconds)
	}
}

// ListenAndServe exposes /metrics on its own listener.
func ListenAndServe(addr string, uri string) {
	if uri == "" {
		uri = "/metrics"
	}
	hh := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	s := xhttp.CreateServer()
	s.Router.GET(uri, hh)
	go func() {
		if err := s.ListenAndServe(addr); err != nil {
			logger.Error("[prom] metrics listener stopped", "error", err)
		}
	}()
}
