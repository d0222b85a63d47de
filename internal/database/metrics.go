package database

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tasagro_db_query_duration_seconds",
			Help:    "Database query execution time in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"operation", "table", "status"},
	)

	dbQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasagro_db_query_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "table", "status"},
	)

	dbErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasagro_db_errors_total",
			Help: "Total number of database errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	dbConnectionPoolSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tasagro_db_connection_pool_size",
			Help: "Maximum number of database connections in the pool",
		},
	)

	dbConnectionPoolIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tasagro_db_connection_pool_idle",
			Help: "Number of idle database connections in the pool",
		},
	)

	dbConnectionPoolInUse = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tasagro_db_connection_pool_in_use",
			Help: "Number of database connections currently in use",
		},
	)
)

// MetricsPlugin is a GORM plugin that records query metrics.
type MetricsPlugin struct{}

func (p *MetricsPlugin) Name() string {
	return "metricsPlugin"
}

func (p *MetricsPlugin) Initialize(db *gorm.DB) error {
	_ = db.Callback().Create().Before("gorm:create").Register("metrics:before_create", beforeCallback)
	_ = db.Callback().Create().After("gorm:create").Register("metrics:after_create", afterCallback("INSERT"))

	_ = db.Callback().Query().Before("gorm:query").Register("metrics:before_query", beforeCallback)
	_ = db.Callback().Query().After("gorm:query").Register("metrics:after_query", afterCallback("SELECT"))

	_ = db.Callback().Update().Before("gorm:update").Register("metrics:before_update", beforeCallback)
	_ = db.Callback().Update().After("gorm:update").Register("metrics:after_update", afterCallback("UPDATE"))

	_ = db.Callback().Delete().Before("gorm:delete").Register("metrics:before_delete", beforeCallback)
	_ = db.Callback().Delete().After("gorm:delete").Register("metrics:after_delete", afterCallback("DELETE"))

	_ = db.Callback().Raw().Before("gorm:raw").Register("metrics:before_raw", beforeCallback)
	_ = db.Callback().Raw().After("gorm:raw").Register("metrics:after_raw", afterCallback("RAW"))

	return nil
}

func beforeCallback(db *gorm.DB) {
	db.InstanceSet("metrics:start_time", time.Now())
}

func afterCallback(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		startTime, ok := db.InstanceGet("metrics:start_time")
		if !ok {
			return
		}

		duration := time.Since(startTime.(time.Time)).Seconds()
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}

		status := "success"
		if db.Error != nil && db.Error != gorm.ErrRecordNotFound {
			status = "error"
		}

		dbQueryDuration.WithLabelValues(operation, table, status).Observe(duration)
		dbQueryTotal.WithLabelValues(operation, table, status).Inc()

		if db.Error != nil && db.Error != gorm.ErrRecordNotFound {
			dbErrorsTotal.WithLabelValues(operation, table, fmt.Sprintf("%T", db.Error)).Inc()
		}
	}
}

// UpdateConnectionPoolMetrics refreshes the pool gauges.
func UpdateConnectionPoolMetrics(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}

	stats := sqlDB.Stats()
	dbConnectionPoolSize.Set(float64(stats.MaxOpenConnections))
	dbConnectionPoolIdle.Set(float64(stats.Idle))
	dbConnectionPoolInUse.Set(float64(stats.InUse))
}

// StartConnectionPoolMetricsCollector refreshes pool gauges periodically
// until the context is cancelled.
func StartConnectionPoolMetricsCollector(ctx context.Context, db *gorm.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			UpdateConnectionPoolMetrics(db)
		}
	}
}
