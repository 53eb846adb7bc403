package rawdata

import (
	"context"
	"testing"
)

func TestRunKeyScheme(t *testing.T) {
	if got := RunPrefix(42); got != "runs/42/" {
		t.Fatalf("RunPrefix=%q", got)
	}
	key, err := RunKey(42, "acquisition.csv")
	if err != nil {
		t.Fatalf("run key: %v", err)
	}
	if key != "runs/42/acquisition.csv" {
		t.Fatalf("key %q", key)
	}

	for _, name := range []string{"", "  ", "a/b", "..", "up..csv/"} {
		if _, err := RunKey(42, name); err == nil {
			t.Fatalf("name %q must be rejected", name)
		}
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()

	t.Setenv("CHAMBERCORE_RAWDATA_DRIVER", "memory")
	store, err := Open(ctx)
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if store.Driver() != DriverMemory {
		t.Fatalf("driver %s want memory", store.Driver())
	}

	t.Setenv("CHAMBERCORE_RAWDATA_DRIVER", "fs")
	t.Setenv("CHAMBERCORE_RAWDATA_FS_ROOT", t.TempDir())
	store, err = Open(ctx)
	if err != nil {
		t.Fatalf("open fs: %v", err)
	}
	if store.Driver() != DriverFilesystem {
		t.Fatalf("driver %s want fs", store.Driver())
	}

	t.Setenv("CHAMBERCORE_RAWDATA_DRIVER", "bogus")
	if _, err := Open(ctx); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}
