// Package watcher implements the source adapters that translate upstream
// release and package sources into the normalized Release view.
package watcher

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/cenk/backoff"
	"github.com/m-mizutani/goerr/v2"
	circuit "github.com/rubyist/circuitbreaker"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/m-mizutani/relwatch/pkg/domain/types"
)

const (
	defaultTimeout = 10 * time.Second
	scrapeTimeout  = 15 * time.Second

	// Conservative per-host budget; polls are sequential, this only guards
	// against entries hammering one registry in a tight loop.
	hostRatePerSec = 5
)

// httpClient wraps net/http with a per-host token bucket and a per-host
// circuit breaker so one flaky upstream cannot stall or hammer the rest of a
// poll cycle.
type httpClient struct {
	c *http.Client

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	breakers map[string]*circuit.Breaker
}

func newHTTPClient(timeout time.Duration) *httpClient {
	return &httpClient{
		c:        &http.Client{Timeout: timeout},
		limiters: make(map[string]*rate.Limiter),
		breakers: make(map[string]*circuit.Breaker),
	}
}

func (h *httpClient) limiter(host string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Limit(hostRatePerSec), hostRatePerSec)
		h.limiters[host] = l
	}
	return l
}

func (h *httpClient) breaker(host string) *circuit.Breaker {
	h.mu.Lock()
	defer h.mu.Unlock()
	b, ok := h.breakers[host]
	if !ok {
		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = 30 * time.Second
		bo.MaxInterval = 5 * time.Minute
		bo.Reset()
		b = circuit.NewBreakerWithOptions(&circuit.Options{
			BackOff:    bo,
			ShouldTrip: circuit.ThresholdTripFunc(5),
		})
		h.breakers[host] = b
	}
	return b
}

func (h *httpClient) do(req *http.Request) (*http.Response, error) {
	host := req.URL.Host
	if err := h.limiter(host).Wait(req.Context()); err != nil {
		return nil, goerr.Wrap(err, "rate limit wait aborted", goerr.V("host", host), goerr.T(types.ErrTagFetch))
	}

	br := h.breaker(host)
	if !br.Ready() {
		return nil, goerr.New("circuit open for host", goerr.V("host", host), goerr.T(types.ErrTagFetch))
	}

	var resp *http.Response
	err := br.Call(func() error {
		var doErr error
		resp, doErr = h.c.Do(req)
		return doErr
	}, 0)
	if err != nil {
		return nil, goerr.Wrap(err, "request failed", goerr.V("url", req.URL.String()), goerr.T(types.ErrTagFetch))
	}
	return resp, nil
}

// getJSON fetches url and decodes the 200 response body into out. Any other
// status is a fetch error carrying the status code.
func (h *httpClient) getJSON(ctx context.Context, url string, header http.Header, out any) error {
	return h.requestJSON(ctx, http.MethodGet, url, header, nil, out)
}

func (h *httpClient) requestJSON(ctx context.Context, method, url string, header http.Header, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return goerr.Wrap(err, "failed to build request", goerr.V("url", url), goerr.T(types.ErrTagFetch))
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := h.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return goerr.New("unexpected upstream status",
			goerr.V("url", url), goerr.V("status", resp.StatusCode), goerr.T(types.ErrTagFetch))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return goerr.Wrap(err, "malformed upstream response", goerr.V("url", url), goerr.T(types.ErrTagFetch))
	}
	return nil
}

// getHTML fetches url and parses the 200 response body as an HTML document.
func (h *httpClient) getHTML(ctx context.Context, url string, header http.Header) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build request", goerr.V("url", url), goerr.T(types.ErrTagFetch))
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := h.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, goerr.New("unexpected upstream status",
			goerr.V("url", url), goerr.V("status", resp.StatusCode), goerr.T(types.ErrTagFetch))
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse upstream page", goerr.V("url", url), goerr.T(types.ErrTagFetch))
	}
	return doc, nil
}
