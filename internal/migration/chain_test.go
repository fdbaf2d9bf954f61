package migration

import (
	"errors"
	"strings"
	"testing"
)

func appendTag(tag string) Func {
	return func(p string) (string, error) { return p + tag, nil }
}

func TestMigrateAppliesHopsInOrder(t *testing.T) {
	c := &Chain{}
	// Registration order must not matter.
	if err := c.Register(2, 3, appendTag("+b")); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := c.Register(1, 2, appendTag("+a")); err != nil {
		t.Fatalf("register: %v", err)
	}

	res, err := c.Migrate("p", 1, 3)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if res.Payload != "p+a+b" {
		t.Fatalf("expected %q, got %q", "p+a+b", res.Payload)
	}
	if res.Version != 3 {
		t.Fatalf("expected version 3, got %d", res.Version)
	}
	if len(res.Applied) != 2 || len(res.Gaps) != 0 {
		t.Fatalf("unexpected steps: applied=%v gaps=%v", res.Applied, res.Gaps)
	}
}

func TestMigrateGapPassesThrough(t *testing.T) {
	c, err := NewChain(Migrator{From: 3, To: 4, Fn: appendTag("+c")})
	if err != nil {
		t.Fatalf("new chain: %v", err)
	}

	res, err := c.Migrate("p", 1, 4)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if res.Payload != "p+c" {
		t.Fatalf("expected %q, got %q", "p+c", res.Payload)
	}
	want := []Gap{{1, 2}, {2, 3}}
	if len(res.Gaps) != len(want) || res.Gaps[0] != want[0] || res.Gaps[1] != want[1] {
		t.Fatalf("expected gaps %v, got %v", want, res.Gaps)
	}
}

func TestMigrateWithoutMigratorsKeepsPayload(t *testing.T) {
	var c *Chain
	res, err := c.Migrate("unchanged", 0, 2)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if res.Payload != "unchanged" || res.Version != 2 || len(res.Gaps) != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestMigrateSameVersionIsNoop(t *testing.T) {
	c, _ := NewChain(Migrator{From: 1, To: 2, Fn: appendTag("+a")})
	res, err := c.Migrate("p", 2, 2)
	if err != nil || res.Payload != "p" || len(res.Applied) != 0 {
		t.Fatalf("unexpected result: %+v, %v", res, err)
	}
}

func TestMigrateDowngrade(t *testing.T) {
	c, _ := NewChain(Migrator{From: 1, To: 2, Fn: appendTag("+a")})
	res, err := c.Migrate("p", 3, 1)
	if !errors.Is(err, ErrDowngrade) {
		t.Fatalf("expected ErrDowngrade, got %v", err)
	}
	if res.Payload != "p" {
		t.Fatalf("downgrade must not touch the payload, got %q", res.Payload)
	}
}

func TestMigrateMultiVersionJump(t *testing.T) {
	c, _ := NewChain(
		Migrator{From: 1, To: 3, Fn: appendTag("+skip")},
		Migrator{From: 2, To: 3, Fn: appendTag("+never")},
	)
	res, err := c.Migrate("p", 1, 3)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if res.Payload != "p+skip" {
		t.Fatalf("expected %q, got %q", "p+skip", res.Payload)
	}
}

func TestMigrateOvershoot(t *testing.T) {
	c, _ := NewChain(Migrator{From: 1, To: 5, Fn: appendTag("+a")})
	if _, err := c.Migrate("p", 1, 3); !errors.Is(err, ErrOvershoot) {
		t.Fatalf("expected ErrOvershoot, got %v", err)
	}
}

func TestMigrateTransformError(t *testing.T) {
	boom := errors.New("bad field")
	c, _ := NewChain(Migrator{From: 1, To: 2, Fn: func(string) (string, error) { return "", boom }})
	_, err := c.Migrate("p", 1, 2)
	if !errors.Is(err, ErrMigration) || !errors.Is(err, boom) {
		t.Fatalf("expected wrapped transform error, got %v", err)
	}
	if !strings.Contains(err.Error(), "1 -> 2") {
		t.Fatalf("error should name the hop: %v", err)
	}
}

func TestRegisterValidationAndReplace(t *testing.T) {
	c := &Chain{}
	tests := []struct {
		name     string
		from, to int
		fn       Func
	}{
		{"negative from", -1, 0, appendTag("x")},
		{"backwards", 2, 1, appendTag("x")},
		{"same version", 2, 2, appendTag("x")},
		{"nil transform", 1, 2, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.Register(tt.from, tt.to, tt.fn); err == nil {
				t.Fatal("expected registration error")
			}
		})
	}

	_ = c.Register(1, 2, appendTag("+old"))
	_ = c.Register(1, 2, appendTag("+new"))
	if c.Len() != 1 {
		t.Fatalf("expected a single migrator per from version, got %d", c.Len())
	}
	res, _ := c.Migrate("p", 1, 2)
	if res.Payload != "p+new" {
		t.Fatalf("expected replacement migrator to win, got %q", res.Payload)
	}
}

func TestStepsSorted(t *testing.T) {
	c, _ := NewChain(
		Migrator{From: 5, To: 6, Fn: appendTag("")},
		Migrator{From: 0, To: 1, Fn: appendTag("")},
		Migrator{From: 2, To: 4, Fn: appendTag("")},
	)
	steps := c.Steps()
	for i := 1; i < len(steps); i++ {
		if steps[i-1].From >= steps[i].From {
			t.Fatalf("steps not sorted: %v", steps)
		}
	}
}
