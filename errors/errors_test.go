package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"testing"
)

func TestError(t *testing.T) {
	// Test basic error creation
	err := New(ErrCodeSessionNotFound, "session not found")
	if err.Code != ErrCodeSessionNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeSessionNotFound, err.Code)
	}

	// Test error wrapping
	cause := fmt.Errorf("underlying error")
	wrapped := Wrap(cause, ErrCodeSaveSessionFailed, "save failed")

	if wrapped.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}

	// Test Is function
	if !Is(wrapped, ErrCodeSaveSessionFailed) {
		t.Error("Is should return true for matching code")
	}

	if Is(wrapped, ErrCodeSessionNotFound) {
		t.Error("Is should return false for non-matching code")
	}

	// Test WithDetail
	detailed := err.WithDetail("sessionId", "abc").WithDetail("pid", 42)
	if detailed.Details["sessionId"] != "abc" {
		t.Error("WithDetail should add details")
	}
}

func TestIsThroughFmtWrap(t *testing.T) {
	inner := SessionNotFound("abc-123")
	outer := fmt.Errorf("rename: %w", inner)

	if !Is(outer, ErrCodeSessionNotFound) {
		t.Error("Is should see through fmt.Errorf wrapping")
	}
	if GetCode(outer) != ErrCodeSessionNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeSessionNotFound, GetCode(outer))
	}
	if Is(nil, ErrCodeSessionNotFound) {
		t.Error("Is(nil) should be false")
	}
	if Is(fmt.Errorf("plain"), "") {
		t.Error("Is with empty code should be false")
	}

	vtErr, ok := As(outer)
	if !ok || vtErr.SessionID() != "abc-123" {
		t.Errorf("As should find the session error, got %v", vtErr)
	}
}

func TestSessionConstructors(t *testing.T) {
	cause := fmt.Errorf("disk full")

	cases := []struct {
		err  *Error
		code ErrorCode
	}{
		{InvalidSessionID("a/b"), ErrCodeInvalidSessionID},
		{SessionNotFound("abc-123"), ErrCodeSessionNotFound},
		{SessionExists("abc-123"), ErrCodeSessionExists},
		{SessionDirDeleted("abc-123"), ErrCodeSessionDirDeleted},
		{SaveSessionFailed("abc-123", cause), ErrCodeSaveSessionFailed},
		{StdinWriteFailed("abc-123", cause), ErrCodeStdinWriteFailed},
		{CleanupFailed("abc-123", cause), ErrCodeCleanupFailed},
		{SpawnFailed("abc-123", []string{"sh"}, cause), ErrCodeSpawnFailed},
	}

	for _, c := range cases {
		if c.err.Code != c.code {
			t.Errorf("expected code %s, got %s", c.code, c.err.Code)
		}
		if c.err.SessionID() == "" {
			t.Errorf("%s should carry the session id", c.code)
		}
	}

	if StdinWriteFailed("abc-123", cause).SessionID() != "abc-123" {
		t.Error("StdinWriteFailed should include the session id")
	}
}

func TestToJSON(t *testing.T) {
	err := CleanupFailed("abc-123", fmt.Errorf("busy"))

	var decoded map[string]interface{}
	if jsonErr := json.Unmarshal([]byte(err.ToJSON()), &decoded); jsonErr != nil {
		t.Fatalf("ToJSON produced invalid JSON: %v", jsonErr)
	}
	if decoded["code"] != string(ErrCodeCleanupFailed) {
		t.Errorf("unexpected code in JSON: %v", decoded["code"])
	}
	details, _ := decoded["details"].(map[string]interface{})
	if details["sessionId"] != "abc-123" {
		t.Errorf("expected sessionId detail, got %v", details)
	}
}

func TestCodeThroughJoin(t *testing.T) {
	joined := stderrors.Join(
		fmt.Errorf("plain failure"),
		CleanupFailed("abc-123", fmt.Errorf("permission denied")),
	)

	if !Is(joined, ErrCodeCleanupFailed) {
		t.Errorf("expected CLEANUP_FAILED through errors.Join, got %q", GetCode(joined))
	}
	vtErr, ok := As(joined)
	if !ok || vtErr.SessionID() != "abc-123" {
		t.Errorf("expected session id abc-123 from joined error, got %+v", vtErr)
	}
	if Is(stderrors.Join(fmt.Errorf("a"), fmt.Errorf("b")), ErrCodeCleanupFailed) {
		t.Error("uncoded joined error must not match")
	}
}
