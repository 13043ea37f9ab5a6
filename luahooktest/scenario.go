package luahooktest

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/sliverarmory/luahook"
)

// Scenario is a scripted sequence of intercepted calls against a fake
// runtime, loaded from YAML.
type Scenario struct {
	Name    string         `yaml:"name"`
	Config  luahook.Config `yaml:"config"`
	Runtime RuntimeSpec    `yaml:"runtime"`
	Steps   []Step         `yaml:"steps"`
	Expect  Expect         `yaml:"expect"`
}

// RuntimeSpec describes the fake interpreter at process start.
type RuntimeSpec struct {
	MissingSymbols []string       `yaml:"missing_symbols"`
	StringLibrary  LibraryStyle   `yaml:"string_library"`
	IOLibrary      LibraryStyle   `yaml:"io_library"`
	Results        map[string]int `yaml:"results"`
	FailScripts    []string       `yaml:"fail_scripts"`
	// AuxiliaryGlobals are string globals set when the auxiliary script runs.
	AuxiliaryGlobals map[string]string `yaml:"auxiliary_globals"`
}

// Step is one scenario action. Exactly one of Call, Concurrent, Define or
// Set is expected; Repeat runs Call that many times.
type Step struct {
	Call       string            `yaml:"call"`
	Repeat     int               `yaml:"repeat"`
	Concurrent []string          `yaml:"concurrent"`
	Define     []string          `yaml:"define"`
	Set        map[string]string `yaml:"set"`
}

// Expect holds optional assertions checked after the run.
type Expect struct {
	Injections *int   `yaml:"injections"`
	State      string `yaml:"state"`
}

// Report summarises a scenario run.
type Report struct {
	Name       string
	Calls      int
	Failed     int
	Injections int
	State      luahook.State
}

// ParseScenario decodes a YAML scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if len(s.Steps) == 0 {
		return nil, errors.New("parse scenario: no steps")
	}
	return &s, nil
}

// LoadScenario reads and decodes a YAML scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(data)
}

// NewRuntime builds the fake runtime described by the scenario.
func (s *Scenario) NewRuntime() *Runtime {
	rt := New().Disable(s.Runtime.MissingSymbols...)
	if s.Runtime.StringLibrary != "" {
		rt.SetStringLibrary(s.Runtime.StringLibrary)
	}
	if s.Runtime.IOLibrary != "" {
		rt.SetIOLibrary(s.Runtime.IOLibrary)
	}
	for path, rc := range s.Runtime.Results {
		rt.SetResult(path, rc)
	}
	for _, name := range s.Runtime.FailScripts {
		switch name {
		case "io_probe":
			rt.FailScript(luahook.IOProbeScript, 1)
		case "string_patch":
			rt.FailScript(luahook.StringPatchScript, 1)
		}
	}
	if len(s.Runtime.AuxiliaryGlobals) > 0 {
		aux := s.Config.AuxiliaryScript
		if aux == "" {
			aux = luahook.DefaultConfig().AuxiliaryScript
		}
		globals := s.Runtime.AuxiliaryGlobals
		rc := s.Runtime.Results[aux]
		rt.OnDoFile(aux, func(rt *Runtime) int {
			for name, value := range globals {
				rt.Define(name, String(value))
			}
			return rc
		})
	}
	return rt
}

// Run executes the steps against hook, which must wrap rt.
func (s *Scenario) Run(ctx context.Context, hook *luahook.Hook, rt *Runtime) (*Report, error) {
	report := &Report{Name: s.Name}
	record := func(rc int) {
		report.Calls++
		if rc != 0 {
			report.Failed++
		}
	}

	for i, step := range s.Steps {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		switch {
		case step.Call != "":
			n := step.Repeat
			if n <= 0 {
				n = 1
			}
			for j := 0; j < n; j++ {
				record(hook.DoFile(step.Call))
			}
		case len(step.Concurrent) > 0:
			results := make([]int, len(step.Concurrent))
			g, _ := errgroup.WithContext(ctx)
			for j, name := range step.Concurrent {
				j, name := j, name
				g.Go(func() error {
					results[j] = hook.DoFile(name)
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return report, fmt.Errorf("step %d: %w", i, err)
			}
			for _, rc := range results {
				record(rc)
			}
		case len(step.Define) > 0:
			rt.DefineFunctions(step.Define...)
		case len(step.Set) > 0:
			for name, value := range step.Set {
				rt.Define(name, String(value))
			}
		default:
			return report, fmt.Errorf("step %d: empty step", i)
		}
	}

	report.Injections = rt.CountFileCalls(hook.Config().AuxiliaryScript)
	report.State = hook.State()
	return report, nil
}

// Check compares the report against the scenario expectations.
func (r *Report) Check(expect Expect) error {
	var errs []error
	if expect.Injections != nil && *expect.Injections != r.Injections {
		errs = append(errs, fmt.Errorf("injections: got %d, want %d", r.Injections, *expect.Injections))
	}
	if expect.State != "" && expect.State != r.State.String() {
		errs = append(errs, fmt.Errorf("state: got %s, want %s", r.State, expect.State))
	}
	return errors.Join(errs...)
}
