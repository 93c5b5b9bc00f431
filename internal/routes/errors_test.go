package routes

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"cxc-checkin/internal/events"
	"cxc-checkin/internal/storage"
)

func TestGetErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrUnauthorized, http.StatusUnauthorized},
		{fmt.Errorf("event 3: %w", events.ErrEventNotFound), http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", events.ErrInvalidWindow), http.StatusBadRequest},
		{events.ErrEventNotOpen, http.StatusConflict},
		{fmt.Errorf("insert: %w", storage.ErrConflict), http.StatusConflict},
		{NewHTTPError(http.StatusTeapot, nil, "teapot"), http.StatusTeapot},
		{errors.New("pq: connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := GetErrorStatus(tc.err); got != tc.want {
			t.Fatalf("GetErrorStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestGetErrorInfoHidesInternalErrors(t *testing.T) {
	info := GetErrorInfo(errors.New("dial tcp 10.0.0.5:5432: connection refused"))
	if info.Message != "An internal error occurred" {
		t.Fatalf("internal error text leaked: %q", info.Message)
	}

	detailed := fmt.Errorf("%w: end time is before start time", events.ErrInvalidWindow)
	info = GetErrorInfo(detailed)
	if info.Message != detailed.Error() {
		t.Fatalf("expected validation detail, got %q", info.Message)
	}
	if len(info.StopCodes) != 1 || info.StopCodes[0] != "INVALID_EVENT_WINDOW" {
		t.Fatalf("unexpected stop codes %v", info.StopCodes)
	}
}
