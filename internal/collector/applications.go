package collector

import (
	"context"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Applications checks every configured endpoint concurrently from the
// gateway. One endpoint failing never affects the others.
func (c *Collector) Applications(ctx context.Context) ApplicationsSummary {
	results := make([]AppHealth, len(c.apps))

	g, gctx := errgroup.WithContext(ctx)
	for i, app := range c.apps {
		g.Go(func() error {
			results[i] = CheckApplication(gctx, c.http, app)
			if !results[i].Healthy {
				c.log.Debug("application unhealthy", "app", app.Key, "url", app.URL)
			}
			return nil
		})
	}
	_ = g.Wait()

	summary := ApplicationsSummary{Applications: make(map[string]AppHealth, len(c.apps))}
	for i, app := range c.apps {
		summary.Applications[app.Key] = results[i]
		if results[i].Healthy {
			summary.HealthyCount++
		} else {
			summary.UnhealthyCount++
		}
	}
	return summary
}

// CheckApplication performs one GET. Any HTTP response counts as reachable;
// it is healthy when 200 <= status < 400.
func CheckApplication(ctx context.Context, client *http.Client, app Application) AppHealth {
	h := AppHealth{Name: DisplayName(app.Key), URL: app.URL}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, app.URL, nil)
	if err != nil {
		msg := err.Error()
		h.Error = &msg
		return h
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		msg := err.Error()
		h.Error = &msg
		return h
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()

	elapsed := math.Round(time.Since(start).Seconds()*100) / 100
	code := resp.StatusCode
	h.StatusCode = &code
	h.ResponseTime = &elapsed
	h.Healthy = code >= 200 && code < 400
	return h
}

// DisplayName turns an application key into a title: "cbl_frontend"
// becomes "Cbl Frontend".
func DisplayName(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
