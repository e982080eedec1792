// Package config provides configuration structures and utilities for sshprobe.
// It defines the probe settings, the optional .sshprobe file with per-target
// overrides, and the XDG directories used for the history database.
package config
