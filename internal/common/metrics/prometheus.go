// Package metrics 提供 Prometheus 指标收集
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace 未配置时的指标命名空间
const DefaultNamespace = "incentive"

const (
	resultOK    = "ok"
	resultError = "error"
)

// Metrics 指标收集器
type Metrics struct {
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	httpInFlight   prometheus.Gauge
	cacheLookups   *prometheus.CounterVec
	published      *prometheus.CounterVec
	saleLines      *prometheus.CounterVec
	saleDuration   prometheus.Histogram
	units          *prometheus.CounterVec
	cardsCompleted *prometheus.CounterVec
	rewards        *prometheus.CounterVec
	redemptions    *prometheus.CounterVec
	taskRuns       *prometheus.CounterVec
	taskDuration   *prometheus.HistogramVec
	activeCampaign prometheus.Gauge
	activeEvents   prometheus.Gauge
}

// Init 在默认注册表上创建指标，进程内只应调用一次
func Init(namespace string) *Metrics {
	return New(namespace, prometheus.DefaultRegisterer)
}

// New 在指定注册表上创建指标
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	f := promauto.With(reg)

	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return f.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help}, labels)
	}
	gauge := func(name, help string) prometheus.Gauge {
		return f.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
	}

	return &Metrics{
		httpRequests: counter("http_requests_total", "Total number of HTTP requests", "method", "path", "status"),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		httpInFlight:   gauge("http_requests_in_flight", "Current number of HTTP requests being processed"),
		cacheLookups:   counter("cache_lookups_total", "Cache lookups by cache and result", "cache", "result"),
		published:      counter("events_published_total", "Reward events published by topic and result", "topic", "result"),
		saleLines:      counter("sale_lines_total", "Processed sale lines by outcome", "outcome"),
		saleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sale_processing_duration_seconds",
			Help:      "Sale line processing duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
		units:          counter("sale_units_total", "Sale units by allocation result", "result"),
		cardsCompleted: counter("cards_completed_total", "Completed cards by campaign card mode", "mode"),
		rewards:        counter("rewards_credited_total", "Rewards credited by ledger kind", "kind"),
		redemptions:    counter("redemptions_total", "Redemption transitions by status", "status"),
		taskRuns:       counter("scheduler_task_runs_total", "Scheduled task runs by task and result", "task", "result"),
		taskDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scheduler_task_duration_seconds",
			Help:      "Scheduled task duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"task"}),
		activeCampaign: gauge("active_campaigns", "Number of campaigns currently running"),
		activeEvents:   gauge("active_special_events", "Number of special events currently in effect"),
	}
}

// Middleware 记录 HTTP 请求数与耗时，路径取路由模板；skipPaths 不计入
func (m *Metrics) Middleware(skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}
	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler 暴露默认注册表
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// HandlerFor 暴露指定注册表
func HandlerFor(g prometheus.Gatherer) gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}

func (m *Metrics) RecordCacheHit(cache string) {
	m.cacheLookups.WithLabelValues(cache, "hit").Inc()
}

func (m *Metrics) RecordCacheMiss(cache string) {
	m.cacheLookups.WithLabelValues(cache, "miss").Inc()
}

// RecordPublish 记录一次事件发布
func (m *Metrics) RecordPublish(topic string, err error) {
	m.published.WithLabelValues(topic, result(err)).Inc()
}

// RecordSaleLine 记录销售明细处理结果
func (m *Metrics) RecordSaleLine(outcome string, duration time.Duration) {
	m.saleLines.WithLabelValues(outcome).Inc()
	m.saleDuration.Observe(duration.Seconds())
}

// RecordUnits 记录分配与丢弃的单位数
func (m *Metrics) RecordUnits(allocated, discarded int) {
	if allocated > 0 {
		m.units.WithLabelValues("allocated").Add(float64(allocated))
	}
	if discarded > 0 {
		m.units.WithLabelValues("discarded").Add(float64(discarded))
	}
}

func (m *Metrics) RecordCardCompleted(mode string) {
	m.cardsCompleted.WithLabelValues(mode).Inc()
}

// RecordReward 记录发放金额，非正数忽略
func (m *Metrics) RecordReward(kind string, amount float64) {
	if amount <= 0 {
		return
	}
	m.rewards.WithLabelValues(kind).Add(amount)
}

func (m *Metrics) RecordRedemption(status string) {
	m.redemptions.WithLabelValues(status).Inc()
}

// RecordTask 记录定时任务执行
func (m *Metrics) RecordTask(task string, duration time.Duration, err error) {
	m.taskRuns.WithLabelValues(task, result(err)).Inc()
	m.taskDuration.WithLabelValues(task).Observe(duration.Seconds())
}

func (m *Metrics) SetActiveCampaigns(count float64) {
	m.activeCampaign.Set(count)
}

func (m *Metrics) SetActiveEvents(count float64) {
	m.activeEvents.Set(count)
}

func result(err error) string {
	if err != nil {
		return resultError
	}
	return resultOK
}
