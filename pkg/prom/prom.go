package prom

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	xhttp "github.com/nimasrn/property-marketplace/pkg/http"
	"github.com/nimasrn/property-marketplace/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const (
	SystemHTTP          = "http"
	SystemLeads         = "leads"
	SystemListings      = "listings"
	SystemTransactions  = "transactions"
	SystemNotifications = "notifications"
	SystemStream        = "stream"
	SystemDispatcher    = "dispatcher"
)

const (
	MetricRequestDuration     = "request_duration_seconds"
	MetricLeadsTotal          = "total"
	MetricStageUpdates        = "stage_updates_total"
	MetricNotificationsTotal  = "written_total"
	MetricSubscribers         = "subscribers"
	MetricEventsTotal         = "events_total"
	MetricEventHandleDuration = "event_handle_duration_seconds"
)

const (
	TypeCounter      = "counter"
	TypeCounterVec   = "counterVec"
	TypeHistogramVec = "histogramVec"
	TypeGaugeVec     = "gaugeVec"
)

var (
	createLock sync.Mutex
	namespace  = "none"

	MetricSystemEnabled = false

	counters      = make(map[string]prometheus.Counter)
	counterVecs   = make(map[string]*prometheus.CounterVec)
	gaugeVecs     = make(map[string]*prometheus.GaugeVec)
	histogramVecs = make(map[string]*prometheus.HistogramVec)

	defaultLabels prometheus.Labels
)

// Create registers the service metrics under nameSpace. It must run once per
// process; until it does every recording helper is a no-op.
func Create(host string, env string, nameSpace string) error {
	defaultLabels = prometheus.Labels{"env": env, "instance": host}
	namespace = nameSpace

	var err error
	hasError := func(e error) {
		if err == nil && e != nil {
			err = e
		}
	}

	hasError(createHistogramVec(SystemHTTP, MetricRequestDuration, "HTTP request latency by route and status.", []string{"method", "route", "status"}))
	hasError(createCounterVec(SystemLeads, MetricLeadsTotal, "Lead mutations by action.", []string{"action"}))
	hasError(createCounterVec(SystemListings, MetricLeadsTotal, "Listing mutations by action.", []string{"action"}))
	hasError(createCounterVec(SystemTransactions, MetricStageUpdates, "Stage updates by target stage.", []string{"stage"}))
	hasError(createCounterVec(SystemNotifications, MetricNotificationsTotal, "Notifications written by type.", []string{"type"}))
	hasError(createGaugeVec(SystemStream, MetricSubscribers, "Open event stream subscriptions.", []string{"node"}))
	hasError(createCounterVec(SystemDispatcher, MetricEventsTotal, "Dispatched events by type and outcome.", []string{"type", "outcome"}))
	hasError(createHistogramVec(SystemDispatcher, MetricEventHandleDuration, "Time spent dispatching one event.", []string{"type"}))

	if err == nil {
		MetricSystemEnabled = true
	}
	return err
}

func CreateMetric(metricType, subsystem, name, help string, labels ...string) error {
	switch metricType {
	case TypeCounter:
		return createCounter(subsystem, name, help)
	case TypeCounterVec:
		return createCounterVec(subsystem, name, help, labels)
	case TypeHistogramVec:
		return createHistogramVec(subsystem, name, help, labels)
	case TypeGaugeVec:
		return createGaugeVec(subsystem, name, help, labels)
	}
	return fmt.Errorf("metric type %s is not defined", metricType)
}

// ListenAndServer exposes the default registry on its own fasthttp server.
func ListenAndServer(addr string, url string) {
	s := xhttp.CreateServer()
	s.GET(url, fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler()))
	logger.Info("[metrics-server] listening...", "addr", addr, "url", url)
	if err := s.ListenAndServe(addr); err != nil {
		logger.Panic("[metrics-server] http listen error", "error", err)
	}
}

func createCounter(subsystem, name, help string) error {
	createLock.Lock()
	defer createLock.Unlock()
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: subsystem, Name: name, Help: help, ConstLabels: defaultLabels,
	})
	counters[subsystem+name] = c
	return prometheus.Register(c)
}

func createCounterVec(subsystem, name, help string, labels []string) error {
	createLock.Lock()
	defer createLock.Unlock()
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: subsystem, Name: name, Help: help, ConstLabels: defaultLabels,
	}, labels)
	counterVecs[subsystem+name] = c
	return prometheus.Register(c)
}

func createHistogramVec(subsystem, name, help string, labels []string) error {
	createLock.Lock()
	defer createLock.Unlock()
	h := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: subsystem, Name: name, Help: help, ConstLabels: defaultLabels,
		Buckets: prometheus.DefBuckets,
	}, labels)
	histogramVecs[subsystem+name] = h
	return prometheus.Register(h)
}

func createGaugeVec(subsystem, name, help string, labels []string) error {
	createLock.Lock()
	defer createLock.Unlock()
	g := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: subsystem, Name: name, Help: help, ConstLabels: defaultLabels,
	}, labels)
	gaugeVecs[subsystem+name] = g
	return prometheus.Register(g)
}

func IncCounter(subsystem, name string) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := counters[subsystem+name]; ok {
		v.Inc()
		return
	}
	logger.Warn("[metrics-server] counter not found", "subsystem", subsystem, "name", name)
}

func AddCounterVec(subsystem, name string, num float64, labelValues ...string) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := counterVecs[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Add(num)
		return
	}
	logger.Warn("[metrics-server] counter vec not found", "subsystem", subsystem, "name", name)
}

func IncCounterVec(subsystem, name string, labelValues ...string) {
	AddCounterVec(subsystem, name, 1, labelValues...)
}

func AddGaugeVec(subsystem, name string, num float64, labelValues ...string) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := gaugeVecs[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Add(num)
		return
	}
	logger.Warn("[metrics-server] gauge not found", "subsystem", subsystem, "name", name)
}

func AddHistogramVec(subsystem, name string, number float64, labelValues ...string) {
	if !MetricSystemEnabled {
		return
	}
	if v, ok := histogramVecs[subsystem+name]; ok {
		v.WithLabelValues(labelValues...).Observe(number)
		return
	}
	logger.Warn("[metrics-server] histogram vec not found", "subsystem", subsystem, "name", name)
}

func ObserveHTTPRequest(method, route string, status int, latency time.Duration) {
	AddHistogramVec(SystemHTTP, MetricRequestDuration, latency.Seconds(), method, route, strconv.Itoa(status))
}

func IncLeadAction(action string) {
	IncCounterVec(SystemLeads, MetricLeadsTotal, action)
}

func IncListingAction(action string) {
	IncCounterVec(SystemListings, MetricLeadsTotal, action)
}

func IncStageUpdate(stage string) {
	IncCounterVec(SystemTransactions, MetricStageUpdates, stage)
}

func AddNotifications(kind string, n int) {
	AddCounterVec(SystemNotifications, MetricNotificationsTotal, float64(n), kind)
}

func AddSubscribers(node string, delta float64) {
	AddGaugeVec(SystemStream, MetricSubscribers, delta, node)
}

func ObserveDispatch(eventType, outcome string, took time.Duration) {
	IncCounterVec(SystemDispatcher, MetricEventsTotal, eventType, outcome)
	AddHistogramVec(SystemDispatcher, MetricEventHandleDuration, took.Seconds(), eventType)
}
