// Package github derives affect-like scores from a user's recent activity
// on the code-hosting API.
package github

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultBaseURL = "https://api.github.com"

// Activity summarizes a user's last 24 hours of coding activity as
// focus/stress/relax scores in [0,1].
type Activity struct {
	Username       string  `json:"username"`
	Focus          float64 `json:"focus"`
	Stress         float64 `json:"stress"`
	Relax          float64 `json:"relax"`
	Classification string  `json:"classification"`
	Details        struct {
		PushCount       int `json:"pushCount"`
		IssueCount      int `json:"issueCount"`
		CodeReviewCount int `json:"codeReviewCount"`
	} `json:"details"`
}

// event is the subset of the events API payload we read.
type event struct {
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	Payload   struct {
		Size int `json:"size"`
	} `json:"payload"`
}

// Client wraps the code-hosting activity API.
type Client struct {
	baseURL string
	client  *resty.Client
}

// NewClient creates an activity client.
func NewClient() *Client {
	return &Client{
		baseURL: defaultBaseURL,
		client:  resty.New().SetTimeout(15 * time.Second),
	}
}

// AnalyzeActivity fetches the user behind the token and scores their recent
// events. The token is supplied per call; nothing is cached.
func (c *Client) AnalyzeActivity(ctx context.Context, token string) (*Activity, error) {
	var user struct {
		Login string `json:"login"`
	}
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "token "+token).
		SetHeader("Accept", "application/vnd.github.v3+json").
		SetResult(&user).
		Get(c.baseURL + "/user")
	if err != nil {
		return nil, fmt.Errorf("fetching user: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetching user: status %d", resp.StatusCode())
	}

	var events []event
	resp, err = c.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "token "+token).
		SetHeader("Accept", "application/vnd.github.v3+json").
		SetQueryParam("per_page", "100").
		SetResult(&events).
		Get(c.baseURL + "/users/" + user.Login + "/events")
	if err != nil {
		return nil, fmt.Errorf("fetching events: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetching events: status %d", resp.StatusCode())
	}

	activity := calculateMetrics(events, time.Now())
	activity.Username = user.Login
	return activity, nil
}

// calculateMetrics scores the last 24 hours of events. Pushes drive focus
// (capped at 20 commits; review-only activity counts as lighter focus),
// issues drive stress (sprinting adds more), and relax is the inverse of
// whichever is higher.
func calculateMetrics(events []event, now time.Time) *Activity {
	cutoff := now.Add(-24 * time.Hour)

	var pushCount, reviewCount, issueCount int
	for _, e := range events {
		if !e.CreatedAt.After(cutoff) {
			continue
		}
		switch e.Type {
		case "PushEvent":
			size := e.Payload.Size
			if size == 0 {
				size = 1
			}
			pushCount += size
		case "PullRequestReviewEvent":
			reviewCount++
		case "IssuesEvent":
			issueCount++
		}
	}

	focus := min(float64(pushCount)/20, 1.0)
	if pushCount == 0 && reviewCount > 0 {
		focus = min(float64(reviewCount)/10, 0.8)
	}

	stress := min(float64(issueCount)/5, 1.0)
	if focus > 0.8 {
		stress += 0.2
	}

	relax := 1.0 - max(focus, stress)
	if relax < 0 {
		relax = 0
	}

	classification := "Neutral"
	switch {
	case focus > 0.6:
		classification = "Deep Work"
	case stress > 0.6:
		classification = "High Stress"
	case relax > 0.6:
		classification = "Relaxed"
	}

	activity := &Activity{
		Focus:          focus,
		Stress:         stress,
		Relax:          relax,
		Classification: classification,
	}
	activity.Details.PushCount = pushCount
	activity.Details.IssueCount = issueCount
	activity.Details.CodeReviewCount = reviewCount
	return activity
}
