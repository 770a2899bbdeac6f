package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	pkgerrors "github.com/yungbote/carepulse-backend/internal/pkg/errors"
)

func TestFromMapsSentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("moment: %w", pkgerrors.ErrNotFound), http.StatusNotFound, "not_found"},
		{fmt.Errorf("bad due date: %w", pkgerrors.ErrInvalidArgument), http.StatusBadRequest, "invalid_argument"},
		{fmt.Errorf("job running: %w", pkgerrors.ErrConflict), http.StatusConflict, "conflict"},
		{errors.New("boom"), http.StatusInternalServerError, "upload_failed"},
		{New(http.StatusTeapot, "teapot", nil), http.StatusTeapot, "teapot"},
	}
	for _, tc := range cases {
		got := From(tc.err, "upload_failed")
		if got.Status != tc.status || got.Code != tc.code {
			t.Fatalf("From(%v): want=%d/%s got=%d/%s", tc.err, tc.status, tc.code, got.Status, got.Code)
		}
	}
	if From(nil, "x") != nil {
		t.Fatalf("From(nil): want nil")
	}
}
