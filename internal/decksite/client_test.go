package decksite

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	logx "pdbot/pkg/logx"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, Timeout: 5 * time.Second}, logx.Nop())
}

func TestNextTournament(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tournaments/next/" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"name":"Penny Dreadful Thursdays","sponsor_name":"Cardhoarder","seconds_until_start":5400}`))
	}))
	tour, err := c.NextTournament(context.Background())
	if err != nil {
		t.Fatalf("NextTournament: %v", err)
	}
	if tour.Name != "Penny Dreadful Thursdays" || tour.SponsorName != "Cardhoarder" {
		t.Fatalf("unexpected tournament: %+v", tour)
	}
	if tour.StartsIn() != 90*time.Minute {
		t.Fatalf("StartsIn = %v, want 90m", tour.StartsIn())
	}
}

func TestCurrentLeagueNone(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`null`))
	}))
	l, err := c.CurrentLeague(context.Background())
	if err != nil {
		t.Fatalf("CurrentLeague: %v", err)
	}
	if l != nil {
		t.Fatalf("expected nil league, got %+v", l)
	}
}

func TestCurrentLeagueOpen(t *testing.T) {
	end := time.Now().Add(36 * time.Hour).Unix()
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"League August","end_date":` + strconv.FormatInt(end, 10) + `}`))
	}))
	l, err := c.CurrentLeague(context.Background())
	if err != nil {
		t.Fatalf("CurrentLeague: %v", err)
	}
	if l == nil || l.Name != "League August" {
		t.Fatalf("unexpected league: %+v", l)
	}
	got := l.EndsIn(time.Now())
	if got < 35*time.Hour || got > 37*time.Hour {
		t.Fatalf("EndsIn = %v, want ~36h", got)
	}
}

func TestFetchErrorOnBadStatus(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	_, err := c.CurrentLeague(context.Background())
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *FetchError", err)
	}
	if fe.Status != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", fe.Status)
	}
}

func TestPersonNotLinked(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	p, err := c.PersonByDiscordID(context.Background(), "1234")
	if err != nil {
		t.Fatalf("PersonByDiscordID: %v", err)
	}
	if p != nil {
		t.Fatalf("expected nil person, got %+v", p)
	}
}

func TestPersonAchievements(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/person/1234/" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"name":"katelyn","achievements":{"tournament_winner":2,"league_player":0}}`))
	}))
	p, err := c.PersonByDiscordID(context.Background(), "1234")
	if err != nil {
		t.Fatalf("PersonByDiscordID: %v", err)
	}
	if p == nil || p.Achievements["tournament_winner"] != 2 {
		t.Fatalf("unexpected person: %+v", p)
	}
}

func TestAchievementCatalog(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"achievements":[{"key":"tournament_winner","title":"Tournament Winner"},{"key":"","title":"x"}]}`))
	}))
	cat, err := c.AchievementCatalog(context.Background())
	if err != nil {
		t.Fatalf("AchievementCatalog: %v", err)
	}
	if len(cat) != 1 || cat["tournament_winner"] != "Tournament Winner" {
		t.Fatalf("unexpected catalog: %v", cat)
	}
}

func TestBuggedCards(t *testing.T) {
	c := New(Config{BaseURL: "http://unused.invalid"}, logx.Nop())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"card":"Profane Command","description":"X spell fizzles","bannable":true}]`))
	}))
	defer srv.Close()
	cards, err := c.BuggedCards(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("BuggedCards: %v", err)
	}
	if len(cards) != 1 || cards[0].Card != "Profane Command" {
		t.Fatalf("unexpected cards: %+v", cards)
	}
}
