package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kixlab/kuiz/pkg/webclient/api"
)

func TestClientSendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]any{"made_stem": []any{}})
	}))
	defer srv.Close()

	c := api.New(api.Config{BaseURL: srv.URL, Token: "tok-123"})
	if _, err := c.MadeStems(context.Background()); err != nil {
		t.Fatalf("made stems: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("authorization header: %q", gotAuth)
	}
}

func TestClientLoginStoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "fresh"})
		case "/me":
			if r.Header.Get("Authorization") != "Bearer fresh" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"name": "Ada", "email": "ada@example.com", "is_admin": false,
				"classes": []any{}, "consent": true,
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := api.New(api.Config{BaseURL: srv.URL})
	if err := c.Login(context.Background(), "ada", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	p, err := c.Me(context.Background())
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if !p.IsLoggedIn || p.Name != "Ada" || !p.Consent {
		t.Fatalf("profile mismatch: %+v", p)
	}
}

func TestClientJoinClassUnknownCodeIsZeroCID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "class not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := api.New(api.Config{BaseURL: srv.URL, Token: "tok"})
	class, err := c.JoinClass(context.Background(), "NOPE")
	if err != nil {
		t.Fatalf("404 must not be an error: %v", err)
	}
	if class.CID != "" {
		t.Fatalf("rejected code must yield zero CID, got %+v", class)
	}
}

func TestClientJoinClassCarriesCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Code string `json:"code"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Code != "HCI101" {
			http.Error(w, "wrong code", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"cid": "c1", "name": "Intro HCI"})
	}))
	defer srv.Close()

	c := api.New(api.Config{BaseURL: srv.URL, Token: "tok"})
	class, err := c.JoinClass(context.Background(), "HCI101")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if class.CID != "c1" || class.Code != "HCI101" {
		t.Fatalf("class mismatch: %+v", class)
	}
}

func TestClientScopeSentWithAuthoredQueries(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{"made_option": []any{}})
	}))
	defer srv.Close()

	c := api.New(api.Config{BaseURL: srv.URL, Token: "tok"})
	c.SetScope("c1", "memory")
	if _, err := c.MadeOptions(context.Background()); err != nil {
		t.Fatalf("made options: %v", err)
	}
	if gotBody["cid"] != "c1" || gotBody["topic"] != "memory" {
		t.Fatalf("scope not sent: %v", gotBody)
	}
}
