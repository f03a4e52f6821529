// Package setup implements the first-run provisioning sequence: prereq
// checks, env file validation, data directories, images, stack start.
package setup

import (
	"context"
	"fmt"
	"os"

	v1 "github.com/autodoc-sh/autodoc/api/v1"
	"github.com/autodoc-sh/autodoc/internal/core/config"
	"github.com/autodoc-sh/autodoc/internal/core/logger"
	"github.com/autodoc-sh/autodoc/internal/orchestrator"
	"github.com/autodoc-sh/autodoc/pkg/errs"
	"github.com/autodoc-sh/autodoc/pkg/netutil"
	"github.com/autodoc-sh/autodoc/pkg/pprint"
)

// Step is one stage of the setup sequence. Run returns a zero-or-more-line
// summary already printed; the error halts the whole sequence.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// Sequencer provisions the documentation stack from nothing to running.
type Sequencer struct {
	cfg       *config.Config
	docker    *orchestrator.Client
	lifecycle *orchestrator.LifecycleManager
	log       *logger.Logger
	dryRun    bool

	// env holds the values loaded during check-config, merged into
	// service environments by start-stack.
	env map[string]string
}

// NewSequencer builds the sequencer. dryRun prints every step without
// changing anything.
func NewSequencer(cfg *config.Config, docker *orchestrator.Client,
	lifecycle *orchestrator.LifecycleManager, log *logger.Logger, dryRun bool) *Sequencer {
	return &Sequencer{
		cfg:       cfg,
		docker:    docker,
		lifecycle: lifecycle,
		log:       log,
		dryRun:    dryRun,
	}
}

// Steps returns the ordered sequence. Exposed so `setup --list` and the
// tests can inspect it.
func (s *Sequencer) Steps() []Step {
	return []Step{
		{Name: "check-prereqs", Run: s.checkPrereqs},
		{Name: "check-config", Run: s.checkConfig},
		{Name: "make-dirs", Run: s.makeDirs},
		{Name: "build-images", Run: s.buildImages},
		{Name: "pull-images", Run: s.pullImages},
		{Name: "start-stack", Run: s.startStack},
		{Name: "done", Run: s.printSummary},
	}
}

// Execute runs the sequence fail-fast: the first failing step aborts the
// rest.
func (s *Sequencer) Execute(ctx context.Context) error {
	return RunSteps(ctx, s.Steps(), s.log)
}

// RunSteps executes steps in order, stopping at the first failure.
func RunSteps(ctx context.Context, steps []Step, log *logger.Logger) error {
	for i, step := range steps {
		pprint.Step(i+1, len(steps), step.Name)
		if err := step.Run(ctx); err != nil {
			log.Error("setup step failed", "step", step.Name, "err", err)
			return err
		}
		log.Info("setup step done", "step", step.Name)
	}
	return nil
}

func (s *Sequencer) checkPrereqs(ctx context.Context) error {
	if s.dryRun {
		pprint.Info("dry-run: would ping the Docker daemon")
		return nil
	}
	if err := s.docker.Ping(ctx); err != nil {
		return errs.Wrap(err, errs.ErrSetupPrereq, "check-prereqs").
			WithAdvice("is the Docker daemon running? try: docker info")
	}
	pprint.Success("Docker daemon reachable")
	return nil
}

func (s *Sequencer) checkConfig(ctx context.Context) error {
	path := s.cfg.EnvFile
	if s.dryRun {
		pprint.Info("dry-run: would verify " + path)
		return nil
	}
	env, err := config.LoadEnvFile(path)
	if err != nil {
		return errs.Wrap(err, errs.ErrSetupConfig, "check-config").WithResource(path).
			WithAdvice("create " + path + " with the stack credentials (see .env.example)")
	}
	s.env = env
	for k, v := range env {
		if config.IsSensitiveKey(k) {
			v = "********"
		}
		s.log.Debug("env value loaded", "key", k, "value", v)
	}
	pprint.Success(fmt.Sprintf("%s loaded (%d values)", path, len(env)))
	return nil
}

func (s *Sequencer) makeDirs(ctx context.Context) error {
	for _, dir := range s.cfg.DataDirs() {
		if s.dryRun {
			pprint.Info("dry-run: would create " + dir)
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errs.Wrap(err, errs.ErrSetupDirs, "make-dirs").WithResource(dir)
		}
		pprint.Success("directory ready: " + dir)
	}
	return nil
}

func (s *Sequencer) buildImages(ctx context.Context) error {
	for _, svc := range s.cfg.Services {
		if svc.Build == "" {
			continue
		}
		tag := "autodoc/" + svc.Name + ":latest"
		if s.dryRun {
			pprint.Info("dry-run: would build " + tag + " from " + svc.Build)
			continue
		}
		if err := s.docker.BuildImage(ctx, svc.Build, tag); err != nil {
			return errs.Wrap(err, errs.ErrSetupBuild, "build-images").WithResource(svc.Name)
		}
		pprint.Success("built " + tag)
	}
	return nil
}

func (s *Sequencer) pullImages(ctx context.Context) error {
	for _, svc := range s.cfg.Services {
		if svc.Image == "" || svc.Build != "" {
			continue
		}
		if s.dryRun {
			pprint.Info("dry-run: would pull " + svc.Image)
			continue
		}
		if err := s.docker.PullImage(ctx, svc.Image); err != nil {
			return errs.Wrap(err, errs.ErrSetupPull, "pull-images").WithResource(svc.Image)
		}
		pprint.Success("pulled " + svc.Image)
	}
	return nil
}

func (s *Sequencer) startStack(ctx context.Context) error {
	specs := make([]v1.ServiceSpec, len(s.cfg.Services))
	copy(specs, s.cfg.Services)
	for i := range specs {
		specs[i] = mergeEnv(specs[i], s.env)
	}

	if s.dryRun {
		for _, spec := range specs {
			pprint.Info("dry-run: would start " + spec.Name)
		}
		return nil
	}
	if err := s.lifecycle.Up(ctx, specs, false); err != nil {
		return errs.Wrap(err, errs.ErrSetupStart, "start-stack")
	}
	return nil
}

func (s *Sequencer) printSummary(ctx context.Context) error {
	host := netutil.FirstNonLoopbackAddr()
	pprint.Header("Stack is up")
	pprint.URL("Wiki", fmt.Sprintf("http://%s:%d", host, s.cfg.Ports.Wiki))
	pprint.URL("Bridge API", fmt.Sprintf("http://%s:%d", host, s.cfg.Ports.Bridge))
	pprint.URL("Scanner API", fmt.Sprintf("http://%s:%d", host, s.cfg.Ports.Scanner))
	pprint.URL("AnythingLLM", fmt.Sprintf("http://%s:%d", host, s.cfg.Ports.AnythingLLM))
	pprint.Info("next: run `autodoc serve` to start the documentation APIs")
	pprint.Info("then: run `autodoc github-sync` to mirror your repos into the wiki")
	return nil
}

// mergeEnv overlays .env values onto a service spec without clobbering
// explicit per-service settings.
func mergeEnv(spec v1.ServiceSpec, env map[string]string) v1.ServiceSpec {
	if len(env) == 0 {
		return spec
	}
	merged := make(map[string]string, len(spec.Environment)+len(env))
	for k, v := range env {
		merged[k] = v
	}
	for k, v := range spec.Environment {
		merged[k] = v
	}
	spec.Environment = merged
	return spec
}
