package config

import "testing"

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	if cfg.Mode != ModeOffline {
		t.Fatalf("default mode: want offline, got %s", cfg.Mode)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("default addr: got %s", cfg.HTTPAddr)
	}
	if cfg.DBDriver != "sqlite" {
		t.Fatalf("default driver: got %s", cfg.DBDriver)
	}
	if !cfg.EnableLocalAuth {
		t.Fatal("local auth should default on")
	}
	if cfg.EnableGoogleAuth {
		t.Fatal("google auth should default off")
	}
	if len(cfg.CORSOriginsOffline) == 0 {
		t.Fatal("offline CORS origins should have defaults")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("MODE", "online")
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_DSN", "postgres://localhost/kuiz")
	t.Setenv("ENABLE_LOCAL_AUTH", "false")
	t.Setenv("CORS_ORIGINS_ONLINE", "https://a.example.com, https://b.example.com ,")

	cfg := FromEnv()
	if cfg.Mode != ModeOnline || cfg.HTTPAddr != ":9000" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.DBDriver != "postgres" || cfg.DBDSN != "postgres://localhost/kuiz" {
		t.Fatalf("db overrides not applied: %s %s", cfg.DBDriver, cfg.DBDSN)
	}
	if cfg.EnableLocalAuth {
		t.Fatal("ENABLE_LOCAL_AUTH=false should disable local auth")
	}
	if len(cfg.CORSOriginsOnline) != 2 || cfg.CORSOriginsOnline[1] != "https://b.example.com" {
		t.Fatalf("csv parsing: %v", cfg.CORSOriginsOnline)
	}
}

func TestGoogleRedirectDerivedFromPublicURL(t *testing.T) {
	t.Setenv("PUBLIC_URL", "https://kuiz.kixlab.org/")
	cfg := FromEnv()
	if cfg.GoogleRedirectURI != "https://kuiz.kixlab.org/auth/google/callback" {
		t.Fatalf("redirect uri: got %s", cfg.GoogleRedirectURI)
	}
}
