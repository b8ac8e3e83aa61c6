// Package procexec runs external tools (ffmpeg, ffprobe, the ncnn upscalers)
// as blocking subprocesses and translates their failures into the services
// error taxonomy.
//
// Components depend on the Runner interface so tests can substitute a fake
// that records invocation order without spawning processes.
package procexec
