// Package main hosts the pixy CLI.
//
// The Cobra command tree covers GPU discovery, the model catalog, media
// probing, crop diagnostics, the upscale pipeline itself, job history, work
// directory cleanup, and configuration scaffolding. Configuration and logger
// setup happen once in commandContext; subcommands only assemble inputs and
// render results.
package main
