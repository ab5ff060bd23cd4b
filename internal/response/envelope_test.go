package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	payload := map[string]any{}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return payload
}

func TestOKOmitsErrorAndNilData(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, http.StatusOK, "Deleted", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}
	payload := decode(t, rec)
	if payload["success"] != true || payload["message"] != "Deleted" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if _, ok := payload["error"]; ok {
		t.Fatalf("success envelope must not carry error: %v", payload)
	}
	if _, ok := payload["data"]; ok {
		t.Fatalf("nil data must be omitted: %v", payload)
	}
}

func TestOKKeepsEmptyList(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, http.StatusOK, "Listed", []string{})

	payload := decode(t, rec)
	data, ok := payload["data"].([]any)
	if !ok || len(data) != 0 {
		t.Fatalf("expected empty data list, got %v", payload["data"])
	}
}

func TestValidationFailedCarriesOrderedFieldErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	ValidationFailed(rec, []FieldError{
		{Field: "email", Message: "bad email"},
		{Field: "username", Message: "bad username"},
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var env struct {
		Success bool         `json:"success"`
		Error   ErrorCode    `json:"error"`
		Data    []FieldError `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Success || env.Error != CodeValidation {
		t.Fatalf("unexpected envelope %+v", env)
	}
	if len(env.Data) != 2 || env.Data[0].Field != "email" || env.Data[1].Field != "username" {
		t.Fatalf("unexpected field errors %+v", env.Data)
	}
}

func TestUnauthenticated(t *testing.T) {
	rec := httptest.NewRecorder()
	Unauthenticated(rec)

	payload := decode(t, rec)
	if rec.Code != http.StatusUnauthorized || payload["error"] != string(CodeUnauthorized) {
		t.Fatalf("unexpected response %d %v", rec.Code, payload)
	}
}
