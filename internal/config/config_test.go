package config

import "testing"

func TestLoadRequiresBlueskyCredentials(t *testing.T) {
	t.Setenv("BSKY_HANDLE", "")
	t.Setenv("BSKY_APP_PASSWORD", "")
	t.Setenv("DRY_RUN", "false")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when bluesky credentials are missing")
	}
}

func TestLoadDryRunSkipsCredentialCheck(t *testing.T) {
	t.Setenv("BSKY_HANDLE", "")
	t.Setenv("BSKY_APP_PASSWORD", "")
	t.Setenv("DRY_RUN", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.DryRun {
		t.Fatalf("expected dry run enabled")
	}
	if cfg.SearchTerm != "tomato" || cfg.CaptionLimit != 300 || cfg.StorageType != "json" {
		t.Fatalf("unexpected defaults %#v", cfg)
	}
}

func TestLoadReadsKeysFromEnv(t *testing.T) {
	t.Setenv("BSKY_HANDLE", "tomato.bsky.social")
	t.Setenv("BSKY_APP_PASSWORD", "app-pass")
	t.Setenv("HARVARD_API_KEY", " h-key ")
	t.Setenv("RIJKS_API_KEY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if key, ok := cfg.SourceKey(HarvardKeyEnv); !ok || key != "h-key" {
		t.Fatalf("expected harvard key, got %q ok=%v", key, ok)
	}
	if _, ok := cfg.SourceKey(RijksKeyEnv); ok {
		t.Fatalf("expected rijks key to be absent")
	}
	if _, ok := cfg.SourceKey("UNKNOWN_KEY"); ok {
		t.Fatalf("unknown key env must not resolve")
	}
}

func TestRedactedHidesSecrets(t *testing.T) {
	cfg := &Config{BskyAppPassword: "secret", CooperAPIKey: "k"}
	red := cfg.Redacted()
	for k, v := range red {
		if s, ok := v.(string); ok && (s == "secret" || s == "k") {
			t.Fatalf("secret leaked under %s", k)
		}
	}
	keys := red["keys"].(map[string]bool)
	if !keys[CooperKeyEnv] || keys[SmithKeyEnv] {
		t.Fatalf("unexpected key presence map %#v", keys)
	}
}

func TestValidateRejectsRedisWithoutAddr(t *testing.T) {
	cfg := &Config{DryRun: true, SearchTerm: "tomato", CaptionLimit: 300, StorageType: "redis"}
	if err := cfg.validate(); err == nil {
		t.Fatalf("expected redis_addr validation error")
	}
}
