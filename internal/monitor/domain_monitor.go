package monitor

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/dobprotocol/doblink/internal/repository"
)

// DomainMonitor periodically checks the domains where widgets are known to
// be embedded (drawn from the analytics event log) and logs when a domain
// flips between reachable and unreachable. A host that stops serving the
// page usually explains a widget whose views suddenly flatline.
type DomainMonitor struct {
	eventRepo   repository.EventRepository
	interval    time.Duration
	lookback    time.Duration
	knownStates map[string]bool
	mu          sync.Mutex
	httpClient  *http.Client
}

// NewDomainMonitor creates and returns a new instance of DomainMonitor.
// interval is how often to sweep; lookback bounds how far into the event
// log the domain list reaches.
func NewDomainMonitor(eventRepo repository.EventRepository, interval, lookback time.Duration) *DomainMonitor {
	return &DomainMonitor{
		eventRepo:   eventRepo,
		interval:    interval,
		lookback:    lookback,
		knownStates: make(map[string]bool),
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Start launches the periodic monitoring loop. Blocking; run it in its own
// goroutine.
func (m *DomainMonitor) Start() {
	log.Printf("[MONITOR] Starting embed domain monitor with interval of %v...", m.interval)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.checkDomains()
	for range ticker.C {
		m.checkDomains()
	}
}

// checkDomains sweeps the recently seen embed domains and compares each
// one's reachability with its last known state.
func (m *DomainMonitor) checkDomains() {
	domains, err := m.eventRepo.DistinctDomains(time.Now().Add(-m.lookback))
	if err != nil {
		log.Printf("[MONITOR] ERROR retrieving embed domains: %v", err)
		return
	}

	for _, domain := range domains {
		currentState := m.isDomainReachable(domain)

		m.mu.Lock()
		previousState, exists := m.knownStates[domain]
		m.knownStates[domain] = currentState
		m.mu.Unlock()

		if !exists {
			log.Printf("[MONITOR] Initial state for embed domain %s: %s", domain, formatState(currentState))
			continue
		}
		if currentState != previousState {
			log.Printf("[NOTIFICATION] Embed domain %s changed from %s to %s!",
				domain, formatState(previousState), formatState(currentState))
		}
	}
}

// isDomainReachable performs an HTTP HEAD request against the domain over
// https. 2xx and 3xx count as reachable.
func (m *DomainMonitor) isDomainReachable(domain string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "HEAD", "https://"+domain, nil)
	if err != nil {
		log.Printf("[MONITOR] Error creating request for domain '%s': %v", domain, err)
		return false
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		log.Printf("[MONITOR] Error reaching domain '%s': %v", domain, err)
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 400
}

func formatState(reachable bool) string {
	if reachable {
		return "REACHABLE"
	}
	return "UNREACHABLE"
}
