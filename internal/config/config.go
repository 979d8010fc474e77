// Package config defines the core's configuration structures (§6).
// Loading a config from a file, validating it against a schema, and
// wiring it from CLI flags are explicitly out of scope (§1) — this
// package only carries the struct shape and its zero-value defaults.
package config

import "time"

// SkipExternal controls which operations honor the registrable-domain
// same-site check.
type SkipExternal string

const (
	SkipExternalOff    SkipExternal = ""
	SkipExternalFrames SkipExternal = "frames"
	SkipExternalPages  SkipExternal = "pages"
)

// StopEarly controls whether the crawl halts after the first page that
// yields any form.
type StopEarly string

const (
	StopEarlyNever          StopEarly = ""
	StopEarlyFirstPageForm  StopEarly = "first-page-with-form"
)

// SourceMapMode controls stack-trace source-map resolution (§6, §9).
type SourceMapMode string

const (
	SourceMapOff        SourceMapMode = "false"
	SourceMapOn         SourceMapMode = "true"
	SourceMapAggressive SourceMapMode = "aggressive"
)

// TimeoutConfig holds the navigation-wait timeouts of §6.
type TimeoutConfig struct {
	Reload      time.Duration
	FollowLink  time.Duration
	SubmitField time.Duration
}

// FillSleepConfig holds the humanized-typing delays of §6.
type FillSleepConfig struct {
	// ClickDwell is the dwell between mouse-down and mouse-up on a click.
	ClickDwell time.Duration
	// KeyDwell is the upper bound of the uniform keydown/keyup dwell per character.
	KeyDwell time.Duration
	// BetweenKeys is the upper bound of the uniform pause between characters.
	BetweenKeys time.Duration
}

// SleepConfig holds the post-action delays of §6. A nil *SleepConfig at
// the Config level disables all delays; a nil Fill disables only fill delays.
type SleepConfig struct {
	PostFill                 time.Duration
	PostFacebookButtonClick  time.Duration
	PostNavigate             time.Duration
	Fill                     *FillSleepConfig
}

// FillConfig holds the fill/submit behavior of §6.
type FillConfig struct {
	Email                 string
	AppendDomainToEmail    bool
	Password               string
	SimulateShowPassword   bool
	Submit                 bool
	AddFacebookButton      bool
	MaxFields              int
}

// ScreenshotTrigger names a moment at which a screenshot may be captured (§6).
type ScreenshotTrigger string

const (
	TriggerLoaded                  ScreenshotTrigger = "loaded"
	TriggerFilled                  ScreenshotTrigger = "filled"
	TriggerSubmitted               ScreenshotTrigger = "submitted"
	TriggerLinkClicked             ScreenshotTrigger = "link-clicked"
	TriggerInteractChainExecuted   ScreenshotTrigger = "interact-chain-executed"
	TriggerNewPage                 ScreenshotTrigger = "new-page"
)

// ScreenshotTarget receives raw PNG bytes captured for a trigger. The
// core never touches a filesystem path directly; a directory-backed
// implementation is the caller's responsibility (§1 output-serialization
// boundary).
type ScreenshotTarget func(trigger ScreenshotTrigger, pageID string, png []byte)

// ScreenshotConfig controls when and where screenshots are captured (§6).
type ScreenshotConfig struct {
	// All, if true, takes a screenshot at every trigger (the `true` form).
	All      bool
	Triggers map[ScreenshotTrigger]bool
	Target   ScreenshotTarget
}

func (s *ScreenshotConfig) Enabled(t ScreenshotTrigger) bool {
	if s == nil || s.Target == nil {
		return false
	}
	if s.All {
		return true
	}
	return s.Triggers[t]
}

// InteractStep is one JS expression evaluated to obtain an element to click.
type InteractStep struct {
	Expression string
}

// InteractChain is an optional preflight click sequence run before normal
// field processing (§4.7, glossary "Interact chain").
type InteractChain struct {
	Name  string
	Steps []InteractStep
}

// Config is the core's top-level configuration (§6).
type Config struct {
	Timeout  TimeoutConfig
	Sleep    *SleepConfig
	Fill     FillConfig

	SkipExternal SkipExternal
	MaxLinks     int
	StopEarly    StopEarly

	ImmediatelyInjectDomLeakDetection bool
	DisableClosedShadowDom            bool

	InteractChains []InteractChain

	Screenshot *ScreenshotConfig

	UseSourceMaps SourceMapMode

	Debug bool

	// BlockResourceTypes names CDP resource types (images, fonts, media,
	// stylesheets) to fail at the network layer for crawl throughput;
	// empty disables blocking entirely.
	BlockResourceTypes []string
}

// Defaults returns a Config with a zero-value-sentinel convention
// applied to every field a caller is likely to leave unset: a zero
// duration, empty string, or zero count means "use the default",
// applied by ApplyDefaults.
func Defaults() Config {
	return Config{
		Timeout: TimeoutConfig{
			Reload:      30 * time.Second,
			FollowLink:  15 * time.Second,
			SubmitField: 15 * time.Second,
		},
		Sleep: &SleepConfig{
			PostFill:                250 * time.Millisecond,
			PostFacebookButtonClick: 250 * time.Millisecond,
			PostNavigate:            500 * time.Millisecond,
			Fill: &FillSleepConfig{
				ClickDwell:  30 * time.Millisecond,
				KeyDwell:    60 * time.Millisecond,
				BetweenKeys: 60 * time.Millisecond,
			},
		},
		Fill: FillConfig{
			Email:                "leak-detector@example.com",
			AppendDomainToEmail:  false,
			Password:             "The--P@s5w0rd",
			SimulateShowPassword: false,
			Submit:               true,
			AddFacebookButton:    true,
			MaxFields:            100,
		},
		SkipExternal:  SkipExternalOff,
		MaxLinks:      5,
		StopEarly:     StopEarlyNever,
		UseSourceMaps: SourceMapOn,
	}
}

// ApplyDefaults fills in zero-valued fields in place.
func (c *Config) ApplyDefaults() {
	d := Defaults()
	if c.Timeout.Reload <= 0 {
		c.Timeout.Reload = d.Timeout.Reload
	}
	if c.Timeout.FollowLink <= 0 {
		c.Timeout.FollowLink = d.Timeout.FollowLink
	}
	if c.Timeout.SubmitField <= 0 {
		c.Timeout.SubmitField = d.Timeout.SubmitField
	}
	if c.Fill.Email == "" {
		c.Fill.Email = d.Fill.Email
	}
	if c.Fill.Password == "" {
		c.Fill.Password = d.Fill.Password
	}
	if c.Fill.MaxFields <= 0 {
		c.Fill.MaxFields = d.Fill.MaxFields
	}
	if c.UseSourceMaps == "" {
		c.UseSourceMaps = d.UseSourceMaps
	}
}
