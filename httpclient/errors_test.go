package httpclient

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
)

func asError(err error, target **Error) bool {
	return stderrors.As(err, target)
}

func TestKind_String(t *testing.T) {
	tests := map[Kind]string{
		KindTimeout:    "timeout",
		KindConnection: "connection",
		KindStatus:     "status",
		KindEncoding:   "encoding",
		Kind(99):       "unknown",
	}
	for k, want := range tests {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status    int
		wantNil   bool
		retryable bool
	}{
		{200, true, false},
		{204, true, false},
		{400, false, false},
		{401, false, false},
		{404, false, false},
		{408, false, true},
		{429, false, true},
		{500, false, true},
		{503, false, true},
	}
	for _, tt := range tests {
		got := classifyStatus(tt.status, nil)
		if (got == nil) != tt.wantNil {
			t.Errorf("classifyStatus(%d) = %v", tt.status, got)
			continue
		}
		if got != nil && got.Retryable != tt.retryable {
			t.Errorf("classifyStatus(%d).Retryable = %v, want %v", tt.status, got.Retryable, tt.retryable)
		}
	}
}

func TestIsRetryable_Wrapped(t *testing.T) {
	err := fmt.Errorf("predict: %w", &Error{Kind: KindConnection, Retryable: true, Err: stderrors.New("refused")})
	if !IsRetryable(err) {
		t.Error("wrapped connection error should be retryable")
	}
	if IsRetryable(context.Canceled) {
		t.Error("context.Canceled should not be retryable")
	}
	if StatusCode(stderrors.New("x")) != 0 {
		t.Error("plain errors carry no status")
	}
}

func TestError_Unwrap(t *testing.T) {
	inner := stderrors.New("dial tcp: refused")
	err := &Error{Kind: KindConnection, Service: "seldon", Method: "POST", URL: "http://x", Err: inner}
	if !stderrors.Is(err, inner) {
		t.Error("expected Unwrap to expose the cause")
	}
	want := "httpclient: seldon POST http://x: connection: dial tcp: refused"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
