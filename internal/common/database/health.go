// internal/common/database/health.go
package database

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Pinger is anything /ready can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

type CheckResult struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// CheckAll pings every dependency concurrently, each bounded by timeout.
// Results are sorted by name.
func CheckAll(ctx context.Context, deps map[string]Pinger, timeout time.Duration) ([]CheckResult, bool) {
	results := make([]CheckResult, 0, len(deps))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for name, dep := range deps {
		wg.Add(1)
		go func(name string, dep Pinger) {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			r := CheckResult{Name: name, Healthy: true}
			if err := dep.Ping(pctx); err != nil {
				r.Healthy = false
				r.Error = err.Error()
			}
			mu.Lock()
			results = append(results, r)
			mu.Unlock()
		}(name, dep)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	healthy := true
	for _, r := range results {
		healthy = healthy && r.Healthy
	}
	return results, healthy
}
