// This file translates the HCL schema structs into the format-agnostic
// config model, applying defaults along the way.

package hcl

import (
	"fmt"
	"path"
	"time"

	"github.com/specialistvlad/plume/internal/config"
	"github.com/specialistvlad/plume/internal/schema"
)

const (
	defaultMTimeTolerance = 10 * time.Millisecond
	defaultRemoveRetries  = 3
	defaultRemoveDelay    = time.Second
	defaultNotifyTimeout  = 5 * time.Second
)

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// translateProfile converts a profile block into the agnostic model.
func translateProfile(s *schema.Profile) *config.Profile {
	p := &config.Profile{
		Name:           s.Name,
		Description:    s.Description,
		OutputPrefix:   orDefault(s.OutputPrefix, "plume-"+s.Name),
		LogFile:        orDefault(s.LogFile, fmt.Sprintf("build.%s.log", s.Name)),
		CSSDir:         orDefault(s.CSSDir, "css"),
		JSDir:          orDefault(s.JSDir, "js"),
		HTMLDir:        orDefault(s.HTMLDir, "html"),
		BuildDir:       orDefault(s.BuildDir, "build"),
		CSSOrder:       s.CSSOrder,
		JSOrder:        s.JSOrder,
		ModuleCSS:      s.ModuleCSS,
		Ignored:        s.Ignored,
		Exclude:        s.Exclude,
		StripMenu:      s.StripMenu,
		ExtraJS:        s.ExtraJS,
		SkipUnderscore: s.SkipUnderscore,
	}
	if p.ExtraJS == nil {
		p.ExtraJS = []string{path.Join(p.JSDir, "*.js")}
	}
	return p
}

// translateDeploy converts the deploy block, or its absence, into the model.
func translateDeploy(s *schema.Deploy, defaultProfile string) (*config.Deploy, error) {
	if s == nil {
		s = &schema.Deploy{}
	}
	d := &config.Deploy{
		Profile:        orDefault(s.Profile, defaultProfile),
		LiveDir:        orDefault(s.LiveDir, "live"),
		LogFile:        orDefault(s.LogFile, "deploy-smart.log"),
		AssetDirs:      s.AssetDirs,
		LandingPage:    "landing.html",
		IndexOutput:    orDefault(s.IndexOutput, "app.html"),
		MTimeTolerance: defaultMTimeTolerance,
		TrustMTime:     s.TrustMTime,
		RemoveRetries:  defaultRemoveRetries,
		RemoveDelay:    defaultRemoveDelay,
	}
	if d.AssetDirs == nil {
		d.AssetDirs = []string{"doc", "demo"}
	}
	if s.LandingPage != nil {
		d.LandingPage = *s.LandingPage
	}
	if s.RemoveRetries != nil {
		if *s.RemoveRetries < 1 {
			return nil, fmt.Errorf("deploy.remove_retries must be at least 1, got %d", *s.RemoveRetries)
		}
		d.RemoveRetries = *s.RemoveRetries
	}

	var err error
	if d.MTimeTolerance, err = parseDuration("deploy.mtime_tolerance", s.MTimeTolerance, d.MTimeTolerance); err != nil {
		return nil, err
	}
	if d.RemoveDelay, err = parseDuration("deploy.remove_delay", s.RemoveDelay, d.RemoveDelay); err != nil {
		return nil, err
	}
	return d, nil
}

// translateNotify converts the notify block into the model.
func translateNotify(s *schema.Notify) (*config.Notify, error) {
	n := &config.Notify{
		URL:       s.URL,
		Namespace: orDefault(s.Namespace, "/"),
		Event:     orDefault(s.Event, "reload"),
	}
	timeout, err := parseDuration("notify.timeout", s.Timeout, defaultNotifyTimeout)
	if err != nil {
		return nil, err
	}
	n.Timeout = timeout
	return n, nil
}

func parseDuration(field, raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", field, raw)
	}
	return d, nil
}
