package utils

import (
	"testing"
	"time"
)

func TestPoolConfigDefaults(t *testing.T) {
	got := PostgresPoolConfig{}.withDefaults()
	if got.MaxOpenConns != 25 || got.MaxIdleConns != 25 {
		t.Fatalf("conn defaults = %+v", got)
	}
	if got.ConnMaxLifetime != 30*time.Minute || got.ConnMaxIdleTime != 5*time.Minute {
		t.Fatalf("lifetime defaults = %+v", got)
	}
	if got.PingTimeout != 5*time.Second {
		t.Fatalf("ping timeout = %v", got.PingTimeout)
	}
}

func TestPoolConfigExplicitValuesKept(t *testing.T) {
	in := PostgresPoolConfig{MaxOpenConns: 4, PingTimeout: time.Second}
	got := in.withDefaults()
	if got.MaxOpenConns != 4 || got.PingTimeout != time.Second {
		t.Fatalf("explicit values overridden: %+v", got)
	}
	if got.MaxIdleConns != 25 {
		t.Fatalf("unset field not defaulted: %+v", got)
	}
}
