package rsbuild

import (
	"sync/atomic"

	"github.com/gookit/color"
)

// GLOBAL STATE
// A value of 1 marks a critical phase (install in progress), 0 otherwise.
var isCriticalAtomic atomic.Int32

// Global variables
var (
	CheckoutDir string
	CacheDir    string
	CacheStore  string
	LogDir      string
	InstallLib  string
	RulesDir    string
	ProfilePath string
	Debug       bool
	ConfigFile  = "/etc/rsbuild.conf"
	upstreamGit string
	releaseAPI  string
	tarballBase string
	version     = "dev"     // overridden at build time
	buildDate   = "unknown" // overridden at build time
	// Global executors (declared, to be assigned in Main)
	UserExec *Executor
	RootExec *Executor
)

// color helpers
var (
	colInfo    = color.Info // style provided by gookit/color
	colWarn    = color.Warn
	colError   = color.Error
	colSuccess = color.HEX("#1976D2")
	colArrow   = color.HEX("#FFEB3B")
)
