// Package feedback submits accumulated rating batches to the review
// server. One submission is in flight at most: starting a new one
// cancels its predecessor.
package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"rtcompare/internal/logger"
	"rtcompare/internal/rating"
)

const submitPath = "/api/submit-feedback/"

var (
	// ErrTimeout reports that the submission hit the client-side
	// deadline.
	ErrTimeout = errors.New("submission timed out")

	// ErrCancelled reports that a newer submission superseded this one.
	ErrCancelled = errors.New("submission cancelled")
)

// Submission is the complete outbound batch: the session identifiers,
// passed through unmodified, plus one row per included ROI.
type Submission struct {
	PatientID string         `json:"patient_id"`
	StudyUID  string         `json:"study_uid,omitempty"`
	RT1Label  string         `json:"rt1_label,omitempty"`
	RT2Label  string         `json:"rt2_label,omitempty"`
	RT1SOPUID string         `json:"rt1_sop_uid,omitempty"`
	RT2SOPUID string         `json:"rt2_sop_uid,omitempty"`
	Ratings   []rating.Entry `json:"ratings"`
}

// Result is the server's verdict on one batch.
type Result struct {
	Success    bool     `json:"success"`
	SavedCount int      `json:"saved_count"`
	Error      string   `json:"error,omitempty"`
	Errors     []string `json:"errors,omitempty"`
}

type inflight struct {
	cancel context.CancelFunc
}

type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	log     logger.Logger

	mu      sync.Mutex
	current *inflight
}

func NewClient(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http:    &http.Client{},
		log:     log,
	}
}

// Submit sends one batch and blocks until the server answers, the
// timeout fires, or a newer submission cancels this one. Local rating
// state is never touched; the caller decides what to do with the result.
func (c *Client) Submit(sub Submission) (*Result, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	handle := &inflight{cancel: cancel}
	c.swapInFlight(handle)
	defer c.clearInFlight(handle)

	body, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("encoding submission: %w", err)
	}

	c.log.Info("FeedbackClient", "submitting ratings", map[string]interface{}{
		"patient_id": sub.PatientID,
		"entries":    len(sub.Ratings),
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+submitPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return nil, ErrTimeout
		case errors.Is(ctx.Err(), context.Canceled):
			return nil, ErrCancelled
		default:
			return nil, fmt.Errorf("submitting feedback: %w", err)
		}
	}
	defer resp.Body.Close()

	// Application-level rejections arrive as JSON with a failure flag,
	// so the body is decoded regardless of the HTTP status.
	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response (HTTP %d): %w", resp.StatusCode, err)
	}

	c.log.Info("FeedbackClient", "submission answered", map[string]interface{}{
		"success":     result.Success,
		"saved_count": result.SavedCount,
		"errors":      len(result.Errors),
	})

	return &result, nil
}

// CancelInFlight aborts the pending submission, if any.
func (c *Client) CancelInFlight() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		c.current.cancel()
		c.current = nil
	}
}

func (c *Client) swapInFlight(handle *inflight) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		c.current.cancel()
	}
	c.current = handle
}

func (c *Client) clearInFlight(handle *inflight) {
	c.mu.Lock()
	// A newer submission may already have replaced this handle.
	if c.current == handle {
		c.current = nil
	}
	c.mu.Unlock()
	handle.cancel()
}

// StatusMessage renders one submission outcome as the short status line
// shown next to the submit control.
func StatusMessage(result *Result, err error) string {
	switch {
	case errors.Is(err, ErrTimeout):
		return "Submission timed out"
	case errors.Is(err, ErrCancelled):
		return "Submission cancelled"
	case err != nil:
		return fmt.Sprintf("Submission failed: %v", err)
	case result == nil:
		return "Submission failed"
	case !result.Success:
		if result.Error != "" {
			return fmt.Sprintf("Submission rejected: %s", result.Error)
		}
		return "Submission rejected"
	case len(result.Errors) > 0:
		return fmt.Sprintf("%d saved; errors: %s", result.SavedCount, strings.Join(result.Errors, "; "))
	default:
		return fmt.Sprintf("Saved %d rating(s)", result.SavedCount)
	}
}
