package sink

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	errs "tweetstats/pkg/errors"
	"tweetstats/pkg/logger"
	"tweetstats/pkg/stats"
)

// InfluxSink posts snapshots to an InfluxDB 1.x instance using the line
// protocol write endpoint. The follower gauge keeps the measurement schema
// of the original cron job (measurement "followers", tag "user", field
// "value"); every other metric goes to the "twitter_stats" measurement.
type InfluxSink struct {
	baseURL    string
	database   string
	username   string
	password   string
	httpClient *http.Client
	logger     logger.Logger

	ensureOnce sync.Once
	ensureErr  error
}

// NewInfluxSink creates an InfluxDB sink. Host may be a bare hostname, in
// which case the default scheme and port (http, 8086) are assumed.
func NewInfluxSink(host, database, username, password string, log logger.Logger) *InfluxSink {
	if log == nil {
		log = logger.GetLogger()
	}

	baseURL := host
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	if u, err := url.Parse(baseURL); err == nil && u.Port() == "" {
		baseURL = strings.TrimSuffix(baseURL, "/") + ":8086"
	}

	return &InfluxSink{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		database:   database,
		username:   username,
		password:   password,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     log,
	}
}

// Name identifies the sink
func (s *InfluxSink) Name() string { return "influx" }

// EnsureDatabase creates the database if it does not exist yet.
// CREATE DATABASE is idempotent on InfluxDB 1.x.
func (s *InfluxSink) EnsureDatabase(ctx context.Context) error {
	params := url.Values{}
	params.Set("q", fmt.Sprintf("CREATE DATABASE %q", s.database))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/query", strings.NewReader(params.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	s.setAuth(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return errs.NewNetwork("influx query failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errs.New(errs.ErrorTypeServerError, resp.StatusCode,
			"influx create database failed: %s", strings.TrimSpace(string(body)))
	}

	return nil
}

// Publish writes the snapshot as line protocol points. The database is
// created on first publish, mirroring the original job's behavior.
func (s *InfluxSink) Publish(ctx context.Context, snapshot *stats.Snapshot) error {
	s.ensureOnce.Do(func() {
		s.ensureErr = s.EnsureDatabase(ctx)
	})
	if s.ensureErr != nil {
		return s.ensureErr
	}

	body := s.encodeLines(snapshot)

	writeURL := fmt.Sprintf("%s/write?db=%s&precision=s", s.baseURL, url.QueryEscape(s.database))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, writeURL, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	s.setAuth(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return errs.NewNetwork("influx write failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errs.New(errs.ErrorTypeServerError, resp.StatusCode,
			"influx write failed: %s", strings.TrimSpace(string(respBody)))
	}

	s.logger.DebugWithFields("wrote snapshot to influx", map[string]interface{}{
		"database": s.database,
		"username": snapshot.Username,
		"metrics":  len(snapshot.Metrics),
	})

	return nil
}

// encodeLines renders the snapshot as InfluxDB line protocol
func (s *InfluxSink) encodeLines(snapshot *stats.Snapshot) string {
	ts := snapshot.CollectedAt.Unix()
	user := escapeTag(snapshot.Username)

	var b strings.Builder

	// Follower gauge keeps the original measurement schema
	if followers, ok := snapshot.Metrics[stats.MetricFollowers]; ok {
		fmt.Fprintf(&b, "followers,user=%s value=%di %d\n", user, followers, ts)
	}

	report := stats.NewReport()
	for name, v := range snapshot.Metrics {
		report.Set(name, v)
	}
	for _, name := range report.Names() {
		fmt.Fprintf(&b, "twitter_stats,user=%s,metric=%s value=%di %d\n",
			user, escapeTag(name), report.Get(name), ts)
	}

	return b.String()
}

// setAuth attaches basic auth when credentials are configured
func (s *InfluxSink) setAuth(req *http.Request) {
	if s.username != "" {
		req.SetBasicAuth(s.username, s.password)
	}
}

// escapeTag escapes commas, spaces and equals signs in tag values
func escapeTag(v string) string {
	r := strings.NewReplacer(",", `\,`, " ", `\ `, "=", `\=`)
	return r.Replace(v)
}
