// Package types holds the value types carried in REPORT_INFO packets
// (sound, video, and file format descriptions) and other small shared
// value objects.
package types

// SoundInfo describes a PCM stream's format.
type SoundInfo struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// VideoInfo describes a raw video frame's format.
type VideoInfo struct {
	Width    int
	Height   int
	Channels int
}

// FileInfo describes a file-backed source/sink.
type FileInfo struct {
	Path string
	Size int64
}
