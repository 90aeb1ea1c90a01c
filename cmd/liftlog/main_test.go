package main

import (
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/carpenike/liftlog/internal/handlers"
)

func TestEmbeddedTemplatesParse(t *testing.T) {
	tc, err := handlers.NewTemplateCache(templateFS)
	if err != nil {
		t.Fatalf("parse embedded templates: %v", err)
	}

	pages, err := fs.Glob(templateFS, "templates/pages/*.html")
	if err != nil {
		t.Fatalf("glob pages: %v", err)
	}
	if len(pages) == 0 {
		t.Fatal("no page templates embedded")
	}
	for _, p := range pages {
		name := p[strings.LastIndex(p, "/")+1:]
		if _, ok := tc[name]; !ok {
			t.Errorf("page %s missing from cache", name)
		}
	}
}

func TestStaticAssetsEmbedded(t *testing.T) {
	if _, err := fs.Stat(staticFS, "static/app.css"); err != nil {
		t.Errorf("stat app.css: %v", err)
	}
}

func TestHandleHealth(t *testing.T) {
	rr := httptest.NewRecorder()
	handleHealth(rr, httptest.NewRequest("GET", "/health", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
	if strings.TrimSpace(rr.Body.String()) != "ok" {
		t.Errorf("body = %q, want ok", rr.Body.String())
	}
}

func TestEnvOr(t *testing.T) {
	t.Setenv("LIFTLOG_TEST_VALUE", "")
	if got := envOr("LIFTLOG_TEST_VALUE", "fallback"); got != "fallback" {
		t.Errorf("unset: got %q", got)
	}
	t.Setenv("LIFTLOG_TEST_VALUE", "set")
	if got := envOr("LIFTLOG_TEST_VALUE", "fallback"); got != "set" {
		t.Errorf("set: got %q", got)
	}
}
