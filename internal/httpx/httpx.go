package httpx

import (
    "context"
    "encoding/json"
    "fmt"
    "io"
    "net"
    "net/http"
    "time"
)

// Doer performs HTTP requests.
//
//go:generate mockgen -package=httpxmock -destination=httpxmock/mock_doer.go -source=httpx.go Doer
type Doer interface {
    Do(req *http.Request) (*http.Response, error)
}

// Client is a small wrapper around http.Client with sane defaults.
type Client struct {
    HTTP      *http.Client
    UserAgent string
    Headers   map[string]string
}

func New(timeout time.Duration) *Client {
    transport := &http.Transport{
        Proxy: http.ProxyFromEnvironment,
        DialContext: (&net.Dialer{Timeout: 3 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
        MaxIdleConns:          50,
        MaxIdleConnsPerHost:   10,
        ForceAttemptHTTP2:     true,
        IdleConnTimeout:       90 * time.Second,
        TLSHandshakeTimeout:   5 * time.Second,
        ExpectContinueTimeout: 1 * time.Second,
        ResponseHeaderTimeout: 10 * time.Second,
    }
    return &Client{HTTP: &http.Client{Timeout: timeout, Transport: transport}, UserAgent: "finmetrics/1.0"}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
    if c.UserAgent != "" && req.Header.Get("User-Agent") == "" {
        req.Header.Set("User-Agent", c.UserAgent)
    }
    for k, v := range c.Headers {
        if req.Header.Get(k) == "" {
            req.Header.Set(k, v)
        }
    }
    return c.HTTP.Do(req)
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
    Code int
    Body string
}

func (e *StatusError) Error() string {
    if e.Body == "" {
        return fmt.Sprintf("unexpected status code: %d", e.Code)
    }
    return fmt.Sprintf("unexpected status code: %d: %s", e.Code, e.Body)
}

// GetJSON issues a GET against rawURL and decodes the body into dst with
// json.Number for numbers. Non-2xx statuses yield a *StatusError.
func GetJSON(ctx context.Context, d Doer, rawURL string, header http.Header, dst any) error {
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
    if err != nil {
        return fmt.Errorf("creating request: %w", err)
    }
    for k, vs := range header {
        for _, v := range vs {
            req.Header.Add(k, v)
        }
    }
    if req.Header.Get("Accept") == "" {
        req.Header.Set("Accept", "application/json")
    }

    res, err := d.Do(req)
    if err != nil {
        return fmt.Errorf("performing request: %w", err)
    }
    defer res.Body.Close()

    if res.StatusCode < 200 || res.StatusCode >= 300 {
        b, _ := io.ReadAll(io.LimitReader(res.Body, 512))
        return &StatusError{Code: res.StatusCode, Body: string(b)}
    }

    dec := json.NewDecoder(res.Body)
    dec.UseNumber()
    if err := dec.Decode(dst); err != nil {
        return fmt.Errorf("decoding response: %w", err)
    }
    return nil
}
