package metrics

import (
	"os"
	"time"

	"stego-server/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() (Stats, error)
}

// Stats holds the current statistics
type Stats struct {
	Users          int
	ActiveSessions int
	ImageArtifacts int
	VideoArtifacts int
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	dbPath        string
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector. dbPath may be empty to skip
// the database file size gauges.
func NewCollector(provider StatsProvider, dbPath string, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		dbPath:        dbPath,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	c.collectDBSize()

	if c.statsProvider == nil {
		return
	}

	stats, err := c.statsProvider.GetStats()
	if err != nil {
		logging.Warn("Metrics collection failed: %v", err)
		return
	}

	UsersTotal.Set(float64(stats.Users))
	ActiveSessions.Set(float64(stats.ActiveSessions))
	ArtifactsTotal.WithLabelValues("image").Set(float64(stats.ImageArtifacts))
	ArtifactsTotal.WithLabelValues("video").Set(float64(stats.VideoArtifacts))

	logging.Debug("Metrics collected: users=%d, sessions=%d, images=%d, videos=%d",
		stats.Users, stats.ActiveSessions, stats.ImageArtifacts, stats.VideoArtifacts)
}

func (c *Collector) collectDBSize() {
	if c.dbPath == "" {
		return
	}
	for file, path := range map[string]string{
		"main": c.dbPath,
		"wal":  c.dbPath + "-wal",
		"shm":  c.dbPath + "-shm",
	} {
		info, err := os.Stat(path)
		if err != nil {
			DBSizeBytes.WithLabelValues(file).Set(0)
			continue
		}
		DBSizeBytes.WithLabelValues(file).Set(float64(info.Size()))
	}
}
