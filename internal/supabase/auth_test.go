package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(srv.URL, "anon-key", nil)
	if err != nil {
		t.Fatal("Failed to create client:", err)
	}
	return client, srv
}

func TestSignIn(t *testing.T) {
	var gotPath, gotGrant, gotAPIKey, gotAuth string
	var gotBody map[string]string

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotGrant = r.URL.Query().Get("grant_type")
		gotAPIKey = r.Header.Get("apikey")
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "access-123",
			"refresh_token": "refresh-456",
			"expires_in":    3600,
			"user":          map[string]string{"id": "user-1", "email": "reader@example.com"},
		})
	})

	sess, err := client.SignIn(context.Background(), "reader@example.com", "secret")
	if err != nil {
		t.Fatal("Failed to sign in:", err)
	}

	if gotPath != "/auth/v1/token" || gotGrant != "password" {
		t.Errorf("Expected password grant on /auth/v1/token, got %s?grant_type=%s", gotPath, gotGrant)
	}
	if gotAPIKey != "anon-key" {
		t.Errorf("Expected apikey header, got %q", gotAPIKey)
	}
	if gotAuth != "Bearer anon-key" {
		t.Errorf("Expected anon bearer token before authentication, got %q", gotAuth)
	}
	if gotBody["email"] != "reader@example.com" || gotBody["password"] != "secret" {
		t.Errorf("Expected credentials in the body, got %v", gotBody)
	}

	if sess.AccessToken != "access-123" || sess.RefreshToken != "refresh-456" {
		t.Errorf("Expected tokens from the response, got %+v", sess)
	}
	if sess.User.ID != "user-1" {
		t.Errorf("Expected user-1, got %s", sess.User.ID)
	}
	if until := time.Until(sess.ExpiresAt); until < 59*time.Minute || until > 61*time.Minute {
		t.Errorf("Expected expiry about an hour out, got %v", until)
	}
}

func TestSignInInvalidCredentials(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error":             "invalid_grant",
			"error_description": "Invalid login credentials",
		})
	})

	_, err := client.SignIn(context.Background(), "reader@example.com", "wrong")
	if err == nil {
		t.Fatal("Expected sign-in to fail")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected an APIError, got %T", err)
	}
	if apiErr.Status != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", apiErr.Status)
	}
	if apiErr.Message != "Invalid login credentials" {
		t.Errorf("Expected the backend's reason, got %q", apiErr.Message)
	}
}

func TestSignUpPending(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/signup" {
			t.Errorf("Expected /auth/v1/signup, got %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"id":                   "new-user",
			"email":                "new@example.com",
			"confirmation_sent_at": "2024-06-01T00:00:00Z",
		})
	})

	result, err := client.SignUp(context.Background(), "new@example.com", "secret123")
	if err != nil {
		t.Fatal("Failed to sign up:", err)
	}

	if !result.Pending {
		t.Error("Expected an unconfirmed signup to be pending")
	}
	if result.User == nil || result.User.ID != "new-user" {
		t.Errorf("Expected the new user, got %+v", result.User)
	}
}

func TestSignUpAutoconfirmed(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "access-123",
			"refresh_token": "refresh-456",
			"expires_in":    3600,
			"user":          map[string]string{"id": "new-user", "email": "new@example.com"},
		})
	})

	result, err := client.SignUp(context.Background(), "new@example.com", "secret123")
	if err != nil {
		t.Fatal("Failed to sign up:", err)
	}

	if result.Pending {
		t.Error("Expected an autoconfirmed signup not to be pending")
	}
	if result.User == nil || result.User.ID != "new-user" {
		t.Errorf("Expected the new user, got %+v", result.User)
	}
}

func TestSignOutSendsAccessToken(t *testing.T) {
	var gotAuth string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	})

	if err := client.SignOut(context.Background(), "access-123"); err != nil {
		t.Fatal("Failed to sign out:", err)
	}

	if gotAuth != "Bearer access-123" {
		t.Errorf("Expected the session's bearer token, got %q", gotAuth)
	}
}

func TestGetUser(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/user" {
			t.Errorf("Expected /auth/v1/user, got %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "user-1", "email": "reader@example.com"})
	})

	user, err := client.GetUser(context.Background(), "access-123")
	if err != nil {
		t.Fatal("Failed to fetch user:", err)
	}
	if user.ID != "user-1" || user.Email != "reader@example.com" {
		t.Errorf("Expected the token's user, got %+v", user)
	}
}

func TestRefreshSession(t *testing.T) {
	var gotGrant string
	var gotBody map[string]string

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotGrant = r.URL.Query().Get("grant_type")
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "fresh-access",
			"refresh_token": "fresh-refresh",
			"expires_in":    3600,
			"user":          map[string]string{"id": "user-1"},
		})
	})

	sess, err := client.RefreshSession(context.Background(), "refresh-456")
	if err != nil {
		t.Fatal("Failed to refresh:", err)
	}

	if gotGrant != "refresh_token" {
		t.Errorf("Expected refresh_token grant, got %q", gotGrant)
	}
	if gotBody["refresh_token"] != "refresh-456" {
		t.Errorf("Expected the refresh token in the body, got %v", gotBody)
	}
	if sess.AccessToken != "fresh-access" {
		t.Errorf("Expected the new access token, got %s", sess.AccessToken)
	}
}
