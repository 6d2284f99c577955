// Package transcode synthesizes videos from still images and audio tracks
// by invoking ffmpeg.
package transcode

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/tendant/simple-media/pkg/simplemedia"
)

// Preset describes the fixed ffmpeg output settings used for synthesis
type Preset struct {
	VideoCodec   string
	AudioCodec   string
	AudioBitrate string
	PixelFormat  string
	Tune         string
	ExtraArgs    []string
}

// Args returns the ffmpeg arguments encoded by the preset
func (p Preset) Args() []string {
	args := make([]string, 0, 10+len(p.ExtraArgs))
	if p.VideoCodec != "" {
		args = append(args, "-c:v", p.VideoCodec)
	}
	if p.Tune != "" {
		args = append(args, "-tune", p.Tune)
	}
	if p.AudioCodec != "" {
		args = append(args, "-c:a", p.AudioCodec)
	}
	if p.AudioBitrate != "" {
		args = append(args, "-b:a", p.AudioBitrate)
	}
	if p.PixelFormat != "" {
		args = append(args, "-pix_fmt", p.PixelFormat)
	}
	args = append(args, p.ExtraArgs...)
	return args
}

// StillImagePreset is the profile for looping a still image over an audio
// track: h264 video tuned for still images, aac audio, yuv420p for broad
// player compatibility.
func StillImagePreset() Preset {
	return Preset{
		VideoCodec:   "libx264",
		AudioCodec:   "aac",
		AudioBitrate: "192k",
		PixelFormat:  "yuv420p",
		Tune:         "stillimage",
	}
}

// FFmpeg runs the ffmpeg binary as a subprocess. It implements
// simplemedia.Transcoder.
type FFmpeg struct {
	Path   string // ffmpeg binary; defaults to "ffmpeg" on PATH
	Preset Preset
}

// NewFFmpeg creates a transcoder with the still-image synthesis profile
func NewFFmpeg(path string) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpeg{Path: path, Preset: StillImagePreset()}
}

// Synthesize loops the image over the audio track into a single video at
// outputPath. The video ends with the shorter input, i.e. the audio.
func (f *FFmpeg) Synthesize(ctx context.Context, imagePath, audioPath, outputPath string) error {
	args := f.SynthesizeArgs(imagePath, audioPath, outputPath)

	cmd := exec.CommandContext(ctx, f.Path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %v: %s", simplemedia.ErrTranscodeFailed, err, stderrTail(stderr.String()))
	}
	return nil
}

// SynthesizeArgs builds the full argument list for one synthesis invocation
func (f *FFmpeg) SynthesizeArgs(imagePath, audioPath, outputPath string) []string {
	args := []string{"-y", "-loop", "1", "-i", imagePath, "-i", audioPath}
	args = append(args, f.Preset.Args()...)
	args = append(args, "-shortest", outputPath)
	return args
}

// stderrTail keeps the last few lines of ffmpeg output, which carry the
// actual failure reason.
func stderrTail(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > 4 {
		lines = lines[len(lines)-4:]
	}
	return strings.Join(lines, " | ")
}
