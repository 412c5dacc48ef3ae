package knowledge

import (
	"testing"
	"time"
)

func TestBuildSearchConfig_Defaults(t *testing.T) {
	cfg := buildSearchConfig(nil)

	if cfg.topK != 3 {
		t.Errorf("topK = %d, want 3", cfg.topK)
	}
	if cfg.filter != nil {
		t.Errorf("filter = %v, want nil", cfg.filter)
	}
	if cfg.exclude != nil {
		t.Errorf("exclude = %v, want nil", cfg.exclude)
	}
	if cfg.timeout != 10*time.Second {
		t.Errorf("timeout = %v, want 10s", cfg.timeout)
	}
}

func TestBuildSearchConfig_Options(t *testing.T) {
	cfg := buildSearchConfig([]SearchOption{
		WithTopK(7),
		WithFilter("category", CategoryConversation),
		WithFilter("visitor_id", "v-1"),
		WithoutFilter("category", CategoryProject),
	})

	if cfg.topK != 7 {
		t.Errorf("topK = %d, want 7", cfg.topK)
	}
	if cfg.filter["category"] != CategoryConversation || cfg.filter["visitor_id"] != "v-1" {
		t.Errorf("filter = %v, want both keys set", cfg.filter)
	}
	if cfg.exclude["category"] != CategoryProject {
		t.Errorf("exclude = %v", cfg.exclude)
	}
}
