package transcode

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tendant/simple-media/pkg/simplemedia"
)

func TestStillImagePresetArgs(t *testing.T) {
	args := StillImagePreset().Args()
	assert.Equal(t, []string{
		"-c:v", "libx264",
		"-tune", "stillimage",
		"-c:a", "aac",
		"-b:a", "192k",
		"-pix_fmt", "yuv420p",
	}, args)
}

func TestPresetArgsSkipEmptyFields(t *testing.T) {
	p := Preset{VideoCodec: "libx264", ExtraArgs: []string{"-movflags", "+faststart"}}
	assert.Equal(t, []string{"-c:v", "libx264", "-movflags", "+faststart"}, p.Args())

	assert.Empty(t, Preset{}.Args())
}

func TestSynthesizeArgs(t *testing.T) {
	f := NewFFmpeg("")

	args := f.SynthesizeArgs("/tmp/in.png", "/tmp/in.mp3", "/tmp/out.mp4")
	assert.Equal(t, []string{
		"-y", "-loop", "1",
		"-i", "/tmp/in.png",
		"-i", "/tmp/in.mp3",
		"-c:v", "libx264",
		"-tune", "stillimage",
		"-c:a", "aac",
		"-b:a", "192k",
		"-pix_fmt", "yuv420p",
		"-shortest", "/tmp/out.mp4",
	}, args)
}

func TestNewFFmpegDefaultsPath(t *testing.T) {
	assert.Equal(t, "ffmpeg", NewFFmpeg("").Path)
	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", NewFFmpeg("/opt/ffmpeg/bin/ffmpeg").Path)
}

func TestSynthesizeMissingBinary(t *testing.T) {
	f := NewFFmpeg("/nonexistent/ffmpeg-binary")

	err := f.Synthesize(context.Background(), "in.png", "in.mp3", "out.mp4")
	assert.ErrorIs(t, err, simplemedia.ErrTranscodeFailed)
}

func TestStderrTail(t *testing.T) {
	assert.Equal(t, "only line", stderrTail("only line\n"))
	assert.Equal(t, "c | d | e | f", stderrTail("a\nb\nc\nd\ne\nf"))
}
