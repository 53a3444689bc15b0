// Package metrics 注册进程内的 Prometheus 指标，统一以 wenshu_ 为前缀
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "wenshu"

func counterVec(subsystem, name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: subsystem, Name: name, Help: help,
	}, labels)
}

func histogramVec(subsystem, name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: subsystem, Name: name, Help: help, Buckets: buckets,
	}, labels)
}

// HTTP，path 为路由模板
var (
	HTTPRequestsTotal = counterVec("http", "requests_total",
		"HTTP requests by route and status", "method", "path", "status")
	HTTPRequestDuration = histogramVec("http", "request_duration_seconds",
		"HTTP request latency", []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 60, 300},
		"method", "path")
	// 流式响应不计入
	HTTPResponseSize = histogramVec("http", "response_size_bytes",
		"HTTP response body size", prometheus.ExponentialBuckets(100, 10, 6),
		"method", "path")
)

// 模型调用，由 eino 全局回调上报；workflow 为链名
var (
	LLMTokensUsed = counterVec("llm", "tokens_used_total",
		"Tokens consumed, type is prompt or completion", "workflow", "provider", "model", "type")
	LLMCallDuration = histogramVec("llm", "call_duration_seconds",
		"Model call latency", []float64{1, 5, 10, 30, 60, 120, 300},
		"workflow", "provider", "model")
	LLMCallTotal = counterVec("llm", "call_total",
		"Model calls by outcome", "workflow", "provider", "model", "status")
)

// 生成流程
var (
	GenerationFailures = counterVec("gateway", "failures_total",
		"Generation gateway failures by operation", "op")
	// result: ok / empty / error
	OutlineBatchTotal = counterVec("outline", "batches_total",
		"Outline batches requested by the sequencer", "result")
	OutlineChaptersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "outline", Name: "chapters_created_total",
		Help: "Chapters inserted by outline generation",
	})
	// mode: single / batch
	ContentGenerationTotal = counterVec("content", "generation_total",
		"Chapter content generations", "mode", "status")
	ContentWordCount = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: "content", Name: "word_count",
		Help:    "Generated chapter length in runes",
		Buckets: []float64{100, 500, 1000, 2000, 3000, 5000, 10000},
	})
	JobsRunning = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: "jobs", Name: "running",
		Help: "Background generation jobs in flight",
	}, []string{"type"})
)

// 书库持久化与变更分发
var (
	LibrarySaveTotal = counterVec("library", "save_total",
		"Library snapshot saves", "driver", "status")
	LibrarySaveDuration = histogramVec("library", "save_duration_seconds",
		"Library snapshot save latency", []float64{.001, .005, .01, .05, .1, .5, 1},
		"driver")
	RedisStreamPublished = counterVec("redis", "stream_published_total",
		"Library change messages written to Redis streams", "stream", "status")
	WebsocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: "events", Name: "websocket_clients",
		Help: "Connected library event websocket clients",
	})
)
