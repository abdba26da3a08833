// Package schema holds the HCL-tagged structs a plume.hcl file is decoded
// into. They mirror the file layout one to one and carry no defaults; the
// hcl package translates them into the format-agnostic config model.
package schema

// Root represents the top-level structure of a configuration file.
type Root struct {
	DefaultProfile *string    `hcl:"default_profile,optional"`
	Profiles       []*Profile `hcl:"profile,block"`
	Deploy         *Deploy    `hcl:"deploy,block"`
	Notify         *Notify    `hcl:"notify,block"`
}

// Profile represents a `profile "<name>"` block.
type Profile struct {
	Name         string `hcl:"name,label"`
	Description  string `hcl:"description,optional"`
	OutputPrefix string `hcl:"output_prefix,optional"`
	LogFile      string `hcl:"log_file,optional"`

	CSSDir   string `hcl:"css_dir,optional"`
	JSDir    string `hcl:"js_dir,optional"`
	HTMLDir  string `hcl:"html_dir,optional"`
	BuildDir string `hcl:"build_dir,optional"`

	CSSOrder  []string `hcl:"css_order,optional"`
	JSOrder   []string `hcl:"js_order,optional"`
	ModuleCSS []string `hcl:"module_css,optional"`
	Ignored   []string `hcl:"ignored,optional"`
	Exclude   []string `hcl:"exclude,optional"`
	StripMenu []string `hcl:"strip_menu,optional"`
	ExtraJS   []string `hcl:"extra_js,optional"`

	SkipUnderscore bool `hcl:"skip_underscore,optional"`
}

// Deploy represents the `deploy` block.
type Deploy struct {
	Profile        string   `hcl:"profile,optional"`
	LiveDir        string   `hcl:"live_dir,optional"`
	LogFile        string   `hcl:"log_file,optional"`
	AssetDirs      []string `hcl:"asset_dirs,optional"`
	LandingPage    *string  `hcl:"landing_page,optional"`
	IndexOutput    string   `hcl:"index_output,optional"`
	MTimeTolerance string   `hcl:"mtime_tolerance,optional"`
	TrustMTime     bool     `hcl:"trust_mtime,optional"`
	RemoveRetries  *int     `hcl:"remove_retries,optional"`
	RemoveDelay    string   `hcl:"remove_delay,optional"`
}

// Notify represents the `notify` block.
type Notify struct {
	URL       string `hcl:"url"`
	Namespace string `hcl:"namespace,optional"`
	Event     string `hcl:"event,optional"`
	Timeout   string `hcl:"timeout,optional"`
}
