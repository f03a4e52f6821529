package setup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	v1 "github.com/autodoc-sh/autodoc/api/v1"
	"github.com/autodoc-sh/autodoc/internal/core/config"
	"github.com/autodoc-sh/autodoc/internal/core/logger"
)

func TestRunStepsFailFast(t *testing.T) {
	var ran []string
	step := func(name string, err error) Step {
		return Step{Name: name, Run: func(context.Context) error {
			ran = append(ran, name)
			return err
		}}
	}

	boom := errors.New("boom")
	steps := []Step{
		step("first", nil),
		step("second", boom),
		step("third", nil),
	}

	err := RunSteps(context.Background(), steps, logger.Discard())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want the second step's error", err)
	}
	if len(ran) != 2 || ran[0] != "first" || ran[1] != "second" {
		t.Errorf("ran = %v, steps after a failure must not run", ran)
	}
}

func TestStepOrdering(t *testing.T) {
	s := NewSequencer(&config.Config{}, nil, nil, logger.Discard(), true)
	steps := s.Steps()

	want := []string{"check-prereqs", "check-config", "make-dirs",
		"build-images", "pull-images", "start-stack", "done"}
	if len(steps) != len(want) {
		t.Fatalf("got %d steps, want %d", len(steps), len(want))
	}
	for i, name := range want {
		if steps[i].Name != name {
			t.Errorf("step[%d] = %q, want %q", i, steps[i].Name, name)
		}
	}
}

func TestMakeDirsIdempotent(t *testing.T) {
	root := t.TempDir()
	cfg := &config.Config{
		Services: []v1.ServiceSpec{
			{Name: "postgres", DataDir: filepath.Join(root, "data/postgres")},
			{Name: "xwiki", DataDir: filepath.Join(root, "data/xwiki")},
		},
	}
	s := NewSequencer(cfg, nil, nil, logger.Discard(), false)

	for i := 0; i < 2; i++ {
		if err := s.makeDirs(context.Background()); err != nil {
			t.Fatalf("makeDirs pass %d: %v", i+1, err)
		}
	}
	for _, dir := range cfg.DataDirs() {
		if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
			t.Errorf("%s not a directory after makeDirs", dir)
		}
	}
}

func TestCheckConfigMissingEnvFile(t *testing.T) {
	cfg := &config.Config{EnvFile: filepath.Join(t.TempDir(), ".env")}
	s := NewSequencer(cfg, nil, nil, logger.Discard(), false)

	if err := s.checkConfig(context.Background()); err == nil {
		t.Fatal("missing .env must fail check-config")
	}
}

func TestCheckConfigLoadsEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	os.WriteFile(path, []byte("POSTGRES_PASSWORD=hunter2\nXWIKI_PORT=9999\n"), 0o600)

	cfg := &config.Config{EnvFile: path}
	s := NewSequencer(cfg, nil, nil, logger.Discard(), false)

	if err := s.checkConfig(context.Background()); err != nil {
		t.Fatalf("checkConfig: %v", err)
	}
	if s.env["POSTGRES_PASSWORD"] != "hunter2" {
		t.Errorf("env = %v", s.env)
	}
}

func TestMergeEnvPrecedence(t *testing.T) {
	spec := v1.ServiceSpec{
		Name:        "xwiki",
		Environment: map[string]string{"DB_HOST": "postgres"},
	}
	merged := mergeEnv(spec, map[string]string{
		"DB_HOST":     "overridden-should-lose",
		"DB_PASSWORD": "hunter2",
	})

	if merged.Environment["DB_HOST"] != "postgres" {
		t.Error("explicit service environment must win over .env values")
	}
	if merged.Environment["DB_PASSWORD"] != "hunter2" {
		t.Error(".env values must be merged in")
	}
	if spec.Environment["DB_PASSWORD"] != "" {
		t.Error("mergeEnv must not mutate the input spec")
	}
}

func TestDryRunSkipsSideEffects(t *testing.T) {
	root := t.TempDir()
	cfg := &config.Config{
		EnvFile: filepath.Join(root, "missing.env"),
		Services: []v1.ServiceSpec{
			{Name: "postgres", DataDir: filepath.Join(root, "data/postgres")},
		},
	}
	s := NewSequencer(cfg, nil, nil, logger.Discard(), true)

	if err := s.checkConfig(context.Background()); err != nil {
		t.Errorf("dry-run checkConfig should not fail: %v", err)
	}
	if err := s.makeDirs(context.Background()); err != nil {
		t.Errorf("dry-run makeDirs: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "data/postgres")); !os.IsNotExist(err) {
		t.Error("dry-run must not create directories")
	}
}
