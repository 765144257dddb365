// Package issues files GitHub issues for errors that escape background
// tasks. The funnel wraps tasks from the outside; nothing in the task
// bodies knows it exists.
package issues

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	logx "pdbot/pkg/logx"
)

// Config configures the reporter. A missing token or repo disables it.
type Config struct {
	Enabled bool
	Token   string
	Repo    string // "owner/name"
}

// Reporter files issues. A nil Reporter is valid and does nothing, so
// callers never need to branch on whether filing is configured.
type Reporter struct {
	client *github.Client
	owner  string
	repo   string
	log    logx.Logger
}

func New(cfg Config, log logx.Logger) (*Reporter, error) {
	if !cfg.Enabled || cfg.Token == "" || cfg.Repo == "" {
		return nil, nil
	}
	owner, name, ok := strings.Cut(cfg.Repo, "/")
	if !ok || owner == "" || name == "" {
		return nil, fmt.Errorf("github.repo must be owner/name, got %q", cfg.Repo)
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	hc := oauth2.NewClient(context.Background(), ts)
	return &Reporter{
		client: github.NewClient(hc),
		owner:  owner,
		repo:   name,
		log:    log,
	}, nil
}

// ReportError files one issue for an error that escaped a task or handler.
// Filing failures are logged and swallowed; the funnel must never make
// things worse.
func (r *Reporter) ReportError(ctx context.Context, component string, err error) {
	if r == nil || err == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	title := fmt.Sprintf("[%s] %v", component, err)
	if len(title) > 200 {
		title = title[:200]
	}
	body := fmt.Sprintf("Reported automatically by the bot.\n\nComponent: %s\n\n```\n%v\n```\n", component, err)
	labels := []string{"bug", "bot-report", component}

	issue := &github.IssueRequest{
		Title:  github.Ptr(title),
		Body:   github.Ptr(body),
		Labels: &labels,
	}
	if _, _, ferr := r.client.Issues.Create(ctx, r.owner, r.repo, issue); ferr != nil {
		r.log.Warn("filing issue failed",
			logx.String("component", component),
			logx.Err(ferr))
		return
	}
	r.log.Info("filed issue", logx.String("component", component), logx.String("title", title))
}
