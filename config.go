package leakdetect

import "github.com/stevenwdv/leak-detect-sub000/internal/config"

// Config is the core's top-level configuration (§6). Re-exported from
// internal/config so that config-file loading and schema validation
// live outside the core's own import graph.
type Config = config.Config

type TimeoutConfig = config.TimeoutConfig
type SleepConfig = config.SleepConfig
type FillSleepConfig = config.FillSleepConfig
type FillConfig = config.FillConfig
type ScreenshotConfig = config.ScreenshotConfig
type ScreenshotTrigger = config.ScreenshotTrigger
type ScreenshotTarget = config.ScreenshotTarget
type InteractChain = config.InteractChain
type InteractStep = config.InteractStep
type SkipExternal = config.SkipExternal
type StopEarly = config.StopEarly
type SourceMapMode = config.SourceMapMode

const (
	SkipExternalOff    = config.SkipExternalOff
	SkipExternalFrames = config.SkipExternalFrames
	SkipExternalPages  = config.SkipExternalPages

	StopEarlyNever         = config.StopEarlyNever
	StopEarlyFirstPageForm = config.StopEarlyFirstPageForm

	SourceMapOff        = config.SourceMapOff
	SourceMapOn         = config.SourceMapOn
	SourceMapAggressive = config.SourceMapAggressive

	TriggerLoaded                = config.TriggerLoaded
	TriggerFilled                = config.TriggerFilled
	TriggerSubmitted             = config.TriggerSubmitted
	TriggerLinkClicked           = config.TriggerLinkClicked
	TriggerInteractChainExecuted = config.TriggerInteractChainExecuted
	TriggerNewPage               = config.TriggerNewPage
)

// DefaultConfig returns a Config with the core's documented defaults.
func DefaultConfig() Config { return config.Defaults() }
