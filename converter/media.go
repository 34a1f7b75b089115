package converter

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// transcoder drives an external ffmpeg binary for audio, video and WebP
// work. Each invocation stages the input in a scratch directory, runs the
// transform and reads the output back: write input, execute, read output.
type transcoder struct {
	ffmpegPath string
	tempDir    string
	logger     *zap.Logger
}

func newTranscoder(ffmpegPath, tempDir string, logger *zap.Logger) *transcoder {
	return &transcoder{
		ffmpegPath: ffmpegPath,
		tempDir:    tempDir,
		logger:     logger,
	}
}

// codec flag sets per target format, mirroring standard ffmpeg CLI usage.
var transcodeArgs = map[string][]string{
	"mp3":  {"-vn", "-acodec", "libmp3lame", "-b:a", "192k"},
	"wav":  {"-vn", "-acodec", "pcm_s16le"},
	"aac":  {"-vn", "-acodec", "aac", "-b:a", "192k"},
	"flac": {"-vn", "-acodec", "flac"},
	"ogg":  {"-vn", "-acodec", "libvorbis", "-q:a", "5"},
	"mp4":  {"-c:v", "libx264", "-preset", "medium", "-crf", "23", "-c:a", "aac"},
	"avi":  {"-c:v", "libx264", "-crf", "23", "-c:a", "aac"},
	"mkv":  {"-c:v", "libx264", "-crf", "23", "-c:a", "aac"},
	"mov":  {"-c:v", "libx264", "-crf", "23", "-c:a", "aac"},
	"webm": {"-c:v", "libvpx-vp9", "-crf", "30", "-b:v", "0", "-c:a", "libopus"},
	"webp": {"-frames:v", "1"},
}

var mediaMIMEs = map[string]string{
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"aac":  "audio/aac",
	"flac": "audio/flac",
	"ogg":  "audio/ogg",
	"mp4":  "video/mp4",
	"avi":  "video/x-msvideo",
	"mkv":  "video/x-matroska",
	"mov":  "video/quicktime",
	"webm": "video/webm",
	"webp": "image/webp",
}

func (t *transcoder) convert(source, target string) ConvertFunc {
	return func(ctx context.Context, in Payload) (Payload, error) {
		return t.transcode(ctx, in, source, target)
	}
}

func (t *transcoder) transcode(ctx context.Context, in Payload, source, target string) (Payload, error) {
	flags, ok := transcodeArgs[target]
	if !ok {
		return Payload{}, fmt.Errorf("no transcode profile for %q", target)
	}

	dir, err := os.MkdirTemp(t.tempDir, "transcode-*")
	if err != nil {
		return Payload{}, fmt.Errorf("failed to create workspace: %w", err)
	}
	defer os.RemoveAll(dir)

	inPath := filepath.Join(dir, "input."+source)
	outPath := filepath.Join(dir, "output."+target)
	if err := os.WriteFile(inPath, in.Data, 0o600); err != nil {
		return Payload{}, fmt.Errorf("failed to stage input: %w", err)
	}

	args := append([]string{"-y", "-i", inPath}, flags...)
	args = append(args, outPath)

	t.logger.Info("Starting transcode",
		zap.String("input", in.Filename),
		zap.String("source", source),
		zap.String("target", target),
	)

	cmd := exec.CommandContext(ctx, t.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Payload{}, ctxErr
		}
		return Payload{}, fmt.Errorf("ffmpeg failed: %v: %s", err, lastLine(stderr.String()))
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return Payload{}, fmt.Errorf("failed to read output: %w", err)
	}
	return Payload{
		Filename: replaceExt(in.Filename, "."+target),
		MIME:     mediaMIMEs[target],
		Data:     data,
	}, nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
