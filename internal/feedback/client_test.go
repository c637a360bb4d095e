package feedback

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"rtcompare/internal/logger"
	"rtcompare/internal/rating"
)

func intPtr(v int) *int { return &v }

func testSubmission() Submission {
	return Submission{
		PatientID: "PAT001",
		StudyUID:  "1.2.3",
		RT1Label:  "Manual",
		RT2Label:  "Auto",
		Ratings: []rating.Entry{
			{ROIID: "1", ROILabel: "Heart", RatingA: intPtr(8), Comment: "ok"},
		},
	}
}

func TestSubmit_Success(t *testing.T) {
	var received Submission
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/submit-feedback/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decoding submission: %v", err)
		}
		json.NewEncoder(w).Encode(Result{Success: true, SavedCount: 1})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, logger.Nop{})
	result, err := c.Submit(testSubmission())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if !result.Success || result.SavedCount != 1 {
		t.Errorf("unexpected result: %+v", result)
	}
	if received.PatientID != "PAT001" || len(received.Ratings) != 1 {
		t.Errorf("submission not carried through: %+v", received)
	}
	if received.Ratings[0].RatingA == nil || *received.Ratings[0].RatingA != 8 {
		t.Errorf("rating row wrong: %+v", received.Ratings[0])
	}
	if got := StatusMessage(result, nil); got != "Saved 1 rating(s)" {
		t.Errorf("status message: %q", got)
	}
}

func TestSubmit_OmitsUnsetRatings(t *testing.T) {
	var raw map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&raw)
		json.NewEncoder(w).Encode(Result{Success: true, SavedCount: 1})
	}))
	defer srv.Close()

	sub := testSubmission()
	sub.Ratings[0].RatingA = nil
	sub.Ratings[0].RatingB = intPtr(3)
	sub.Ratings[0].Comment = ""

	c := NewClient(srv.URL, time.Second, logger.Nop{})
	if _, err := c.Submit(sub); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	row := raw["ratings"].([]interface{})[0].(map[string]interface{})
	if _, present := row["rt1_rating"]; present {
		t.Error("unset rt1_rating should be omitted from the wire")
	}
	if _, present := row["comment"]; present {
		t.Error("empty comment should be omitted from the wire")
	}
	if v := row["rt2_rating"].(float64); v != 3 {
		t.Errorf("rt2_rating: got %v", v)
	}
}

func TestSubmit_PartialValidationFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Result{
			Success:    true,
			SavedCount: 2,
			Errors:     []string{"Lung_L: RTSTRUCT 1 rating must be 1-10"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, logger.Nop{})
	result, err := c.Submit(testSubmission())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	msg := StatusMessage(result, nil)
	if !strings.HasPrefix(msg, "2 saved; errors:") {
		t.Errorf("combined status wrong: %q", msg)
	}
}

func TestSubmit_ApplicationRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(Result{Success: false, Error: "Invalid patient_id"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, logger.Nop{})
	result, err := c.Submit(testSubmission())
	if err != nil {
		t.Fatalf("rejection should not be a transport error: %v", err)
	}
	if result.Success {
		t.Error("expected failure result")
	}
	if got := StatusMessage(result, nil); got != "Submission rejected: Invalid patient_id" {
		t.Errorf("status message: %q", got)
	}
}

func TestSubmit_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 20*time.Millisecond, logger.Nop{})
	_, err := c.Submit(testSubmission())
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if got := StatusMessage(nil, err); got != "Submission timed out" {
		t.Errorf("status message: %q", got)
	}
}

func TestSubmit_NewSubmissionCancelsPrevious(t *testing.T) {
	firstArrived := make(chan struct{})
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			close(firstArrived)
			// Hold the first request until the client abandons it.
			// The server only observes the disconnect (and cancels the
			// request context) once the body has been consumed.
			io.Copy(io.Discard, r.Body)
			<-r.Context().Done()
			return
		}
		json.NewEncoder(w).Encode(Result{Success: true, SavedCount: 1})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, logger.Nop{})

	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Submit(testSubmission())
		firstErr <- err
	}()

	<-firstArrived
	second, err := c.Submit(testSubmission())
	if err != nil {
		t.Fatalf("second submission failed: %v", err)
	}
	if !second.Success {
		t.Errorf("second result: %+v", second)
	}

	if err := <-firstErr; !errors.Is(err, ErrCancelled) {
		t.Errorf("first submission should be cancelled, got %v", err)
	}
	if got := StatusMessage(nil, ErrCancelled); got != "Submission cancelled" {
		t.Errorf("status message: %q", got)
	}
}

func TestSubmit_TransportFailure(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 500*time.Millisecond, logger.Nop{})
	_, err := c.Submit(testSubmission())
	if err == nil {
		t.Fatal("expected transport error")
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrCancelled) {
		t.Errorf("generic failure must not masquerade as timeout/cancel: %v", err)
	}
	if !strings.HasPrefix(StatusMessage(nil, err), "Submission failed:") {
		t.Errorf("status message: %q", StatusMessage(nil, err))
	}
}
