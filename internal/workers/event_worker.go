package workers

import (
	"errors"
	"log"

	customerrors "github.com/dobprotocol/doblink/internal/errors"
	"github.com/dobprotocol/doblink/internal/models"
	"github.com/dobprotocol/doblink/internal/services"
)

// RollupBroadcaster pushes a refreshed rollup to connected dashboard
// clients after an event lands.
type RollupBroadcaster interface {
	BroadcastRollup(rollup services.ScopeRollup)
}

// StartEventWorkers launches a pool of worker goroutines to process
// analytics events asynchronously. Embed-side traffic (views fired when a
// widget config is fetched) goes through this path so serving the embed is
// never blocked on a storage write.
// Parameters:
//   - workerCount: number of concurrent workers to spawn
//   - eventsChan: channel that receives event messages to be processed
//   - analytics: service that appends events and folds widget counters
//   - broadcaster: optional live-dashboard feed, may be nil
func StartEventWorkers(workerCount int, eventsChan <-chan models.EventMessage, analytics *services.AnalyticsService, broadcaster RollupBroadcaster) {
	log.Printf("Starting %d analytics event worker(s)...", workerCount)
	for i := 0; i < workerCount; i++ {
		go eventWorker(eventsChan, analytics, broadcaster)
	}
}

// eventWorker drains the channel until it is closed. Per-widget
// serialization is the repository's job (atomic SQL update or store
// mutex); workers for different widgets run freely in parallel.
func eventWorker(eventsChan <-chan models.EventMessage, analytics *services.AnalyticsService, broadcaster RollupBroadcaster) {
	for msg := range eventsChan {
		event, err := analytics.Record(msg)
		if err != nil {
			if errors.Is(err, customerrors.ErrWidgetNotFound) {
				// The event is kept in the log even though no widget
				// claims the hash; worth noticing in the logs.
				log.Printf("WARNING: event %s recorded for unknown widget %s", event.ID, msg.WidgetHash)
			} else {
				log.Printf("ERROR: failed to record %s event for widget %s: %v", msg.EventType, msg.WidgetHash, err)
				continue
			}
		}
		if broadcaster != nil {
			rollup, err := analytics.Rollup("")
			if err != nil {
				log.Printf("ERROR: failed to compute rollup for broadcast: %v", err)
				continue
			}
			broadcaster.BroadcastRollup(rollup)
		}
	}
	// Worker exits when the channel is closed during shutdown.
}
