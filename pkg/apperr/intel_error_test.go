package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAsAppError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{"app error", NotFound("draft"), CodeNotFound, http.StatusNotFound},
		{"wrapped app error", fmt.Errorf("handler: %w", BadRequest("bad")), CodeBadRequest, http.StatusBadRequest},
		{"plain error", errors.New("boom"), CodeInternalError, http.StatusInternalServerError},
		{"transition", InvalidTransition("sent", "approved"), CodeInvalidTransition, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AsAppError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("Code = %s, want %s", got.Code, tt.wantCode)
			}
			if GetHTTPStatus(got) != tt.wantStatus {
				t.Errorf("Status = %d, want %d", GetHTTPStatus(got), tt.wantStatus)
			}
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := StorageError("save pattern", cause)
	if !errors.Is(err, cause) {
		t.Error("StorageError should unwrap to its cause")
	}
	if err.Details != nil {
		t.Errorf("Details = %v, want nil", err.Details)
	}
}
