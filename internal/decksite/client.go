// Package decksite talks to the Penny Dreadful website API.
package decksite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	logx "pdbot/pkg/logx"
)

// FetchError is any failure talking to the site: transport errors, bad
// status codes, undecodable bodies. Callers treat it as transient.
type FetchError struct {
	URL    string
	Status int // 0 when the request never completed
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Tournament describes the next upcoming tournament.
type Tournament struct {
	Name              string `json:"name"`
	SponsorName       string `json:"sponsor_name"`
	SecondsUntilStart int64  `json:"seconds_until_start"`
}

// StartsIn is the time remaining before the tournament begins.
func (t Tournament) StartsIn() time.Duration {
	return time.Duration(t.SecondsUntilStart) * time.Second
}

// League describes the currently open league, if any.
type League struct {
	Name    string `json:"name"`
	EndDate int64  `json:"end_date"` // unix seconds
}

// EndsIn is the time remaining before the league closes.
func (l League) EndsIn(now time.Time) time.Duration {
	return time.Unix(l.EndDate, 0).Sub(now)
}

// Person is the site's view of a linked Discord user.
type Person struct {
	Name         string         `json:"name"`
	Achievements map[string]int `json:"achievements"`
}

// Config configures the client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client is a read-only API client. Zero value is not usable; use New.
type Client struct {
	base string
	http *http.Client
	log  logx.Logger
}

func New(cfg Config, log logx.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{
		base: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{Timeout: timeout},
		log:  log,
	}
}

// NextTournament reports the next scheduled tournament.
func (c *Client) NextTournament(ctx context.Context) (Tournament, error) {
	var t Tournament
	if err := c.getJSON(ctx, c.base+"/api/tournaments/next/", &t); err != nil {
		return Tournament{}, err
	}
	return t, nil
}

// CurrentLeague reports the open league. Returns (nil, nil) when no league
// is running, which is distinct from a fetch failure.
func (c *Client) CurrentLeague(ctx context.Context) (*League, error) {
	var l *League
	if err := c.getJSON(ctx, c.base+"/api/league/", &l); err != nil {
		return nil, err
	}
	if l == nil || l.EndDate == 0 {
		return nil, nil
	}
	return l, nil
}

// PersonByDiscordID looks up the site account linked to a Discord user.
// Returns (nil, nil) when the user has no linked account.
func (c *Client) PersonByDiscordID(ctx context.Context, discordID string) (*Person, error) {
	var p *Person
	u := c.base + "/api/person/" + url.PathEscape(discordID) + "/"
	if err := c.getJSON(ctx, u, &p); err != nil {
		var fe *FetchError
		if errors.As(err, &fe) && fe.Status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// AchievementCatalog returns the achievement key to display title mapping.
func (c *Client) AchievementCatalog(ctx context.Context) (map[string]string, error) {
	var resp struct {
		Achievements []struct {
			Key   string `json:"key"`
			Title string `json:"title"`
		} `json:"achievements"`
	}
	if err := c.getJSON(ctx, c.base+"/api/achievements/", &resp); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(resp.Achievements))
	for _, a := range resp.Achievements {
		if a.Key != "" && a.Title != "" {
			out[a.Key] = a.Title
		}
	}
	return out, nil
}

// NextRotation reports when the next season rotation happens.
func (c *Client) NextRotation(ctx context.Context) (time.Time, error) {
	var resp struct {
		NextRotation int64 `json:"next_rotation"` // unix seconds
	}
	if err := c.getJSON(ctx, c.base+"/api/rotation/", &resp); err != nil {
		return time.Time{}, err
	}
	if resp.NextRotation == 0 {
		return time.Time{}, &FetchError{URL: c.base + "/api/rotation/", Err: fmt.Errorf("missing next_rotation")}
	}
	return time.Unix(resp.NextRotation, 0), nil
}

// BuggedCard is one entry of the known-bugs feed.
type BuggedCard struct {
	Card        string `json:"card"`
	Description string `json:"description"`
	Bannable    bool   `json:"bannable"`
}

// BuggedCards fetches the known-bugs feed. The feed lives outside the site
// proper so the full URL comes from configuration.
func (c *Client) BuggedCards(ctx context.Context, feedURL string) ([]BuggedCard, error) {
	var cards []BuggedCard
	if err := c.getJSON(ctx, feedURL, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &FetchError{URL: u, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &FetchError{URL: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &FetchError{URL: u, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return &FetchError{URL: u, Err: err}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &FetchError{URL: u, Err: err}
	}
	return nil
}
