package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

var testKeys = Keys{
	Public: []string{"pub_key"},
	Admin:  []string{"adm_key"},
}

func serve(mw func(http.Handler) http.Handler, header, value string) int {
	req := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	rec := httptest.NewRecorder()
	mw(okHandler()).ServeHTTP(rec, req)
	return rec.Code
}

func TestRequireAdmin(t *testing.T) {
	mw := RequireAdmin(testKeys)
	cases := []struct {
		name, header, value string
		want                int
	}{
		{"admin key", "X-API-Key", "adm_key", http.StatusOK},
		{"admin bearer", "Authorization", "Bearer adm_key", http.StatusOK},
		{"public key", "X-API-Key", "pub_key", http.StatusForbidden},
		{"no key", "", "", http.StatusUnauthorized},
	}
	for _, c := range cases {
		if got := serve(mw, c.header, c.value); got != c.want {
			t.Errorf("%s: got %d want %d", c.name, got, c.want)
		}
	}
}

func TestRequireAny(t *testing.T) {
	mw := RequireAny(testKeys)
	cases := []struct {
		name, header, value string
		want                int
	}{
		{"public key", "X-API-Key", "pub_key", http.StatusOK},
		{"admin key", "X-API-Key", "adm_key", http.StatusOK},
		{"lowercase bearer", "Authorization", "bearer pub_key", http.StatusOK},
		{"wrong key", "X-API-Key", "nope", http.StatusUnauthorized},
		{"no key", "", "", http.StatusUnauthorized},
	}
	for _, c := range cases {
		if got := serve(mw, c.header, c.value); got != c.want {
			t.Errorf("%s: got %d want %d", c.name, got, c.want)
		}
	}
}

func TestAuth_OpenWhenUnconfigured(t *testing.T) {
	if got := serve(RequireAny(Keys{}), "", ""); got != http.StatusOK {
		t.Fatalf("RequireAny without keys: got %d", got)
	}
	if got := serve(RequireAdmin(Keys{Public: []string{"p"}}), "", ""); got != http.StatusOK {
		t.Fatalf("RequireAdmin without admin keys: got %d", got)
	}
}
