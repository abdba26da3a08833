package hcl

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/plume/internal/config"
	"github.com/specialistvlad/plume/internal/ctxlog"
	"github.com/specialistvlad/plume/internal/fsutil"
	"github.com/specialistvlad/plume/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// defaultsFilename names the embedded configuration in diagnostics.
const defaultsFilename = "defaults.hcl"

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	environ func() []string
}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{environ: os.Environ}
}

// Load parses every .hcl file found under paths and merges them into one
// model. With no paths the embedded defaults are loaded instead.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	parser := hclparse.NewParser()
	evalCtx := l.evalContext()
	acc := newAccumulator()

	if len(paths) == 0 {
		file, diags := parser.ParseHCL(config.DefaultSource(), defaultsFilename)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse embedded defaults: %w", diags)
		}
		if err := acc.add(file, defaultsFilename, evalCtx); err != nil {
			return nil, err
		}
		logger.Debug("Loaded embedded default configuration.")
		return acc.model()
	}

	files, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl files found in %s", strings.Join(paths, ", "))
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	for _, path := range files {
		file, diags := parser.ParseHCLFile(path)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
		}
		if err := acc.add(file, path, evalCtx); err != nil {
			return nil, err
		}
	}

	model, err := acc.model()
	if err != nil {
		return nil, err
	}
	model.Sources = files
	logger.Debug("HCL loading complete.", "profiles", len(model.Profiles), "default_profile", model.DefaultProfile)
	return model, nil
}

// evalContext exposes the process environment to expressions as `env.NAME`.
func (l *Loader) evalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)
	for _, kv := range l.environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			continue
		}
		vars[name] = cty.StringVal(value)
	}
	env := cty.EmptyObjectVal
	if len(vars) > 0 {
		env = cty.ObjectVal(vars)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": env},
	}
}

// findAllHCLFiles walks all given paths and returns a flat list of all .hcl
// files found. Explicitly named paths must exist.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing config path %s: %w", path, err)
		}

		var found []string
		if info.IsDir() {
			found, err = fsutil.FindFilesByExtension(path, ".hcl")
			if err != nil {
				return nil, err
			}
			sort.Strings(found)
		} else {
			found = []string{path}
		}

		for _, f := range found {
			if _, wasSeen := seen[f]; !wasSeen {
				allFiles = append(allFiles, f)
				seen[f] = struct{}{}
			}
		}
	}
	return allFiles, nil
}

// accumulator merges decoded files, rejecting blocks declared twice.
type accumulator struct {
	defaultProfile string
	profiles       map[string]*schema.Profile
	profileOrder   []string
	deploy         *schema.Deploy
	notify         *schema.Notify
}

func newAccumulator() *accumulator {
	return &accumulator{profiles: make(map[string]*schema.Profile)}
}

func (a *accumulator) add(file *hcl.File, name string, evalCtx *hcl.EvalContext) error {
	var root schema.Root
	if diags := gohcl.DecodeBody(file.Body, evalCtx, &root); diags.HasErrors() {
		return fmt.Errorf("failed to decode HCL file %s: %w", name, diags)
	}

	if root.DefaultProfile != nil {
		if a.defaultProfile != "" && a.defaultProfile != *root.DefaultProfile {
			return fmt.Errorf("%s: default_profile %q conflicts with %q set earlier", name, *root.DefaultProfile, a.defaultProfile)
		}
		a.defaultProfile = *root.DefaultProfile
	}
	for _, p := range root.Profiles {
		if _, dup := a.profiles[p.Name]; dup {
			return fmt.Errorf("%s: duplicate profile %q", name, p.Name)
		}
		a.profiles[p.Name] = p
		a.profileOrder = append(a.profileOrder, p.Name)
	}
	if root.Deploy != nil {
		if a.deploy != nil {
			return fmt.Errorf("%s: duplicate deploy block", name)
		}
		a.deploy = root.Deploy
	}
	if root.Notify != nil {
		if a.notify != nil {
			return fmt.Errorf("%s: duplicate notify block", name)
		}
		a.notify = root.Notify
	}
	return nil
}

func (a *accumulator) model() (*config.Model, error) {
	if len(a.profiles) == 0 {
		return nil, fmt.Errorf("configuration declares no profile")
	}

	m := &config.Model{
		Profiles: make(map[string]*config.Profile, len(a.profiles)),
	}
	for name, p := range a.profiles {
		m.Profiles[name] = translateProfile(p)
	}

	m.DefaultProfile = a.defaultProfile
	if m.DefaultProfile == "" {
		m.DefaultProfile = a.profileOrder[0]
	}
	if _, ok := m.Profiles[m.DefaultProfile]; !ok {
		return nil, fmt.Errorf("default_profile %q is not declared", m.DefaultProfile)
	}

	deploy, err := translateDeploy(a.deploy, m.DefaultProfile)
	if err != nil {
		return nil, err
	}
	if _, ok := m.Profiles[deploy.Profile]; !ok {
		return nil, fmt.Errorf("deploy profile %q is not declared", deploy.Profile)
	}
	m.Deploy = deploy

	if a.notify != nil {
		if m.Notify, err = translateNotify(a.notify); err != nil {
			return nil, err
		}
	}
	return m, nil
}
