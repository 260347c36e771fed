package file

import (
	"expvar"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/inbucket/inbound/pkg/config"
	"github.com/inbucket/inbound/pkg/metric"
	"github.com/rs/zerolog/log"
)

var (
	retentionScanCompleted   = time.Now()
	retentionScanCompletedMu sync.RWMutex

	expRetentionDeletesTotal = new(expvar.Int)
	expRetentionPeriod       = new(expvar.Int)
	expRetainedCurrent       = new(expvar.Int)
)

func init() {
	rm := expvar.NewMap("retention")
	rm.Set("SecondsSinceScanCompleted", expvar.Func(secondsSinceRetentionScanCompleted))
	rm.Set("Period", expRetentionPeriod)
	metric.Track(rm, "Deletes", expRetentionDeletesTotal)
	metric.Track(rm, "Retained", expRetainedCurrent)
}

// RetentionScanner removes attachment files left behind by a process that exited before handing
// them off, once they are older than the retention period.
type RetentionScanner struct {
	globalShutdown    chan bool // Closes when the server needs to shut down
	retentionShutdown chan bool // Closed after the scanner has shut down
	dir               string
	retentionPeriod   time.Duration
}

// NewRetentionScanner configures a new RetentionScanner for the directory of the file store.
func NewRetentionScanner(cfg config.Storage, shutdownChannel chan bool) *RetentionScanner {
	rs := &RetentionScanner{
		globalShutdown:    shutdownChannel,
		retentionShutdown: make(chan bool),
		dir:               storeDir(cfg),
		retentionPeriod:   time.Duration(cfg.RetentionMinutes) * time.Minute,
	}
	expRetentionPeriod.Set(int64(cfg.RetentionMinutes * 60))
	return rs
}

// Start up the retention scanner if retention period > 0
func (rs *RetentionScanner) Start() {
	slog := log.With().Str("module", "tempstore").Logger()
	if rs.retentionPeriod <= 0 {
		slog.Info().Str("phase", "startup").Msg("Retention scanner disabled")
		close(rs.retentionShutdown)
		return
	}
	slog.Info().Str("phase", "startup").Msgf("Retention configured for %v", rs.retentionPeriod)
	go rs.run()
}

// run loops to kick off the scanner on the correct schedule
func (rs *RetentionScanner) run() {
	slog := log.With().Str("module", "tempstore").Logger()
	start := time.Now()
retentionLoop:
	for {
		// Prevent scanner from starting more than once a minute
		since := time.Since(start)
		if since < time.Minute {
			dur := time.Minute - since
			slog.Debug().Msgf("Retention scanner sleeping for %v", dur)
			select {
			case <-rs.globalShutdown:
				break retentionLoop
			case <-time.After(dur):
			}
		}
		// Kickoff scan
		start = time.Now()
		if err := rs.DoScan(); err != nil {
			slog.Error().Err(err).Msg("Error during retention scan")
		}
		// Check for global shutdown
		select {
		case <-rs.globalShutdown:
			break retentionLoop
		default:
		}
	}
	slog.Debug().Str("phase", "shutdown").Msg("Retention scanner shut down")
	close(rs.retentionShutdown)
}

// DoScan does a single pass of the store directory, removing expired attachment files.
func (rs *RetentionScanner) DoScan() error {
	slog := log.With().Str("module", "tempstore").Str("dir", rs.dir).Logger()
	slog.Debug().Msg("Starting retention scan")
	cutoff := time.Now().Add(-1 * rs.retentionPeriod)
	entries, err := os.ReadDir(rs.dir)
	if err != nil {
		return err
	}
	retained := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), filePrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Removed since ReadDir.
			continue
		}
		if !info.ModTime().Before(cutoff) {
			retained++
			continue
		}
		path := filepath.Join(rs.dir, e.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Error().Err(err).Str("path", path).Msg("Failed to purge attachment file")
			continue
		}
		slog.Debug().Str("path", path).Msg("Purged expired attachment file")
		expRetentionDeletesTotal.Add(1)
	}
	setRetentionScanCompleted(time.Now())
	expRetainedCurrent.Set(int64(retained))
	return nil
}

// Join does not return until the retention scanner has shut down.
func (rs *RetentionScanner) Join() {
	if rs.retentionShutdown != nil {
		<-rs.retentionShutdown
	}
}

func setRetentionScanCompleted(t time.Time) {
	retentionScanCompletedMu.Lock()
	defer retentionScanCompletedMu.Unlock()
	retentionScanCompleted = t
}

func getRetentionScanCompleted() time.Time {
	retentionScanCompletedMu.RLock()
	defer retentionScanCompletedMu.RUnlock()
	return retentionScanCompleted
}

func secondsSinceRetentionScanCompleted() interface{} {
	return time.Since(getRetentionScanCompleted()) / time.Second
}
