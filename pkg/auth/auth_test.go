package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// voteAuth is a fixed-outcome authenticator.
type voteAuth struct {
	result Result
}

func (v *voteAuth) Authenticate(context.Context, *http.Request) Result {
	return v.result
}

func TestChainVoting(t *testing.T) {
	yes := &voteAuth{Result{Decision: Yes, Identity: &Identity{Subject: "alice"}}}
	no := &voteAuth{Result{Decision: No, Err: errors.New("bad credentials")}}
	abstain := &voteAuth{Result{Decision: Abstain}}

	tests := []struct {
		name  string
		chain Chain
		want  Decision
	}{
		{
			name:  "first yes wins",
			chain: Chain{Authenticators: []Authenticator{yes, no}},
			want:  Yes,
		},
		{
			name:  "first no stops the chain",
			chain: Chain{Authenticators: []Authenticator{no, yes}},
			want:  No,
		},
		{
			name:  "abstain continues to next",
			chain: Chain{Authenticators: []Authenticator{abstain, yes}},
			want:  Yes,
		},
		{
			name:  "all abstain uses default no",
			chain: Chain{Authenticators: []Authenticator{abstain}, DefaultDecision: No},
			want:  No,
		},
		{
			name:  "all abstain uses default yes",
			chain: Chain{Authenticators: []Authenticator{abstain}, DefaultDecision: Yes},
			want:  Yes,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := http.NewRequest("GET", "/", nil)
			result := tt.chain.Authenticate(context.Background(), r)
			if result.Decision != tt.want {
				t.Errorf("Decision = %d, want %d", result.Decision, tt.want)
			}
			if result.Decision == Yes && result.Identity == nil {
				t.Error("Yes decision without identity")
			}
		})
	}
}

func TestChainDefaultYesIsAnonymous(t *testing.T) {
	chain := Chain{DefaultDecision: Yes}
	r, _ := http.NewRequest("GET", "/", nil)

	result := chain.Authenticate(context.Background(), r)
	if result.Identity == nil || result.Identity.Subject != "anonymous" {
		t.Errorf("Identity = %+v, want anonymous subject", result.Identity)
	}
}

func TestMiddlewareRejectsUnauthenticated(t *testing.T) {
	chain := &Chain{DefaultDecision: No}
	handler := Middleware(chain, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached despite failed authentication")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/v1/chat/completions", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestMiddlewareBypass(t *testing.T) {
	chain := &Chain{DefaultDecision: No}
	called := false
	handler := Middleware(chain, DefaultBypassEndpoints)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))

	if !called {
		t.Error("bypass endpoint did not reach handler")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestMiddlewareInjectsIdentity(t *testing.T) {
	chain := &Chain{Authenticators: []Authenticator{
		&voteAuth{Result{Decision: Yes, Identity: &Identity{Subject: "alice"}}},
	}}

	var got *Identity
	handler := Middleware(chain, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = IdentityFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/v1/chat/completions", nil))

	if got == nil || got.Subject != "alice" {
		t.Errorf("identity in context = %+v, want alice", got)
	}
}
