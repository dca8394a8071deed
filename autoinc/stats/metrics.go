package stats

import (
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/JuhQ/MongoHelper/autoinc/glog"
)

const (
	Namespace = "Autoinc"
)

var (
	Gather = prometheus.NewRegistry()

	SequenceAllocateCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "sequence",
			Name:      "allocate_total",
			Help:      "Counter of sequence allocations by result.",
		}, []string{"result"})

	SequenceAllocateHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "sequence",
			Name:      "allocate_seconds",
			Help:      "Bucketed histogram of sequence allocation time, retries included.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 24),
		})

	SequenceAttemptHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "sequence",
			Name:      "attempts",
			Help:      "Number of attempts needed per allocation.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34, 55, 89, 100},
		})

	SequenceRetryCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "sequence",
			Name:      "retry_total",
			Help:      "Counter of failed allocation attempts by reason.",
		}, []string{"reason"})

	SequenceCleanupFailureCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "sequence",
			Name:      "cleanup_failure_total",
			Help:      "Counter of superseded records that could not be deleted.",
		})

	StoreRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "store",
			Name:      "request_total",
			Help:      "Counter of sequence store requests.",
		}, []string{"store", "type"})

	StoreRequestHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "store",
			Name:      "request_seconds",
			Help:      "Bucketed histogram of sequence store request processing time.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 24),
		}, []string{"store", "type"})
)

func init() {
	Gather.MustRegister(SequenceAllocateCounter)
	Gather.MustRegister(SequenceAllocateHistogram)
	Gather.MustRegister(SequenceAttemptHistogram)
	Gather.MustRegister(SequenceRetryCounter)
	Gather.MustRegister(SequenceCleanupFailureCounter)
	Gather.MustRegister(StoreRequestCounter)
	Gather.MustRegister(StoreRequestHistogram)
	Gather.MustRegister(collectors.NewGoCollector())
	Gather.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

func LoopPushingMetric(name, instance, addr string, intervalSeconds int) {
	if addr == "" || intervalSeconds == 0 {
		return
	}

	glog.V(0).Infof("%s sends metrics to %s every %d seconds", name, addr, intervalSeconds)

	pusher := push.New(addr, name).Gatherer(Gather).Grouping("instance", instance)

	for {
		err := pusher.Push()
		if err != nil && !strings.HasPrefix(err.Error(), "unexpected status code 200") {
			glog.V(0).Infof("could not push metrics to prometheus push gateway %s: %v", addr, err)
		}
		if intervalSeconds <= 0 {
			intervalSeconds = 15
		}
		time.Sleep(time.Duration(intervalSeconds) * time.Second)
	}
}

func JoinHostPort(host string, port int) string {
	portStr := strconv.Itoa(port)
	if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		return host + ":" + portStr
	}
	return net.JoinHostPort(host, portStr)
}

func StartMetricsServer(ip string, port int) {
	if port == 0 {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(Gather, promhttp.HandlerOpts{}))
	handler := sentryhttp.New(sentryhttp.Options{}).Handle(mux)
	log.Fatal(http.ListenAndServe(JoinHostPort(ip, port), handler))
}

func SourceName(port uint32) string {
	hostname, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return net.JoinHostPort(hostname, strconv.Itoa(int(port)))
}
