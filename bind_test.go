package settings

import (
	"context"
	"reflect"
	"testing"
)

type serverConfig struct {
	Host   string       `json:"host"`
	Port   int          `json:"port"`
	TLS    bool         `json:"tls"`
	Peers  []string     `json:"peers"`
	Limits serverLimits `json:"limits"`
}

type serverLimits struct {
	Max int `json:"max"`
}

func TestBindGroup(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.SetValue(ctx, "server/host", String("localhost"))
	_ = s.SetValue(ctx, "server/port", Int(8080))
	_ = s.SetValue(ctx, "server/peers", Array(String("a"), String("b")))
	_ = s.SetValue(ctx, "server/limits/max", Int(9))
	_ = s.SetValue(ctx, "other", Int(1))

	cfg, err := Bind[serverConfig](s, "server")
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if cfg.Host != "localhost" || cfg.Port != 8080 || cfg.Limits.Max != 9 {
		t.Fatalf("unexpected bind result %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Peers, []string{"a", "b"}) {
		t.Fatalf("unexpected peers %v", cfg.Peers)
	}
}

func TestBindWithDefaults(t *testing.T) {
	s := New()
	_ = s.SetValue(context.Background(), "server/port", Int(9000))

	cfg, err := BindWithDefaults(s, "server", serverConfig{Host: "0.0.0.0", Port: 80, TLS: true})
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if cfg.Host != "0.0.0.0" || cfg.Port != 9000 || !cfg.TLS {
		t.Fatalf("defaults should fill unset fields, got %+v", cfg)
	}

	empty, err := Bind[serverConfig](New(), "server")
	if err != nil {
		t.Fatalf("bind empty: %v", err)
	}
	if empty.Host != "" || empty.Port != 0 {
		t.Fatalf("expected zero value, got %+v", empty)
	}
}

func TestBindTypeMismatch(t *testing.T) {
	s := New()
	_ = s.SetValue(context.Background(), "server/port", String("eighty"))
	if _, err := Bind[serverConfig](s, "server"); err == nil {
		t.Fatalf("expected decode error")
	}
}
