package transcode

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"
)

// Transcoder 将合并产物转码为可播放格式
type Transcoder interface {
	// Transcode 转码 inputPath，返回可播放文件路径
	Transcode(ctx context.Context, videoID, inputPath string) (string, error)
}

// FFmpegTranscoder 调用 ffmpeg 的转码器实现
type FFmpegTranscoder struct {
	ffmpegPath string
	outputDir  string
	logger     *zap.Logger
}

// NewFFmpegTranscoder 创建 ffmpeg 转码器。ffmpegPath 为空时使用 PATH 中的 ffmpeg。
func NewFFmpegTranscoder(ffmpegPath, outputDir string, log *zap.Logger) (*FFmpegTranscoder, error) {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create transcode output dir: %w", err)
	}
	return &FFmpegTranscoder{
		ffmpegPath: ffmpegPath,
		outputDir:  outputDir,
		logger:     log,
	}, nil
}

// Transcode 转码为 H.264/AAC 的 MP4，faststart 便于边下边播
func (t *FFmpegTranscoder) Transcode(ctx context.Context, videoID, inputPath string) (string, error) {
	outputPath := filepath.Join(t.outputDir, videoID+".mp4")

	cmd := exec.CommandContext(ctx, t.ffmpegPath,
		"-y",
		"-i", inputPath,
		"-c:v", "libx264",
		"-preset", "fast",
		"-c:a", "aac",
		"-movflags", "+faststart",
		outputPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		// 失败时清掉半成品输出
		_ = os.Remove(outputPath)
		t.logger.Error("ffmpeg transcode failed",
			zap.String("video_id", videoID),
			zap.String("input", inputPath),
			zap.ByteString("output", tail(output, 2048)),
			zap.Error(err))
		return "", fmt.Errorf("ffmpeg transcode failed: %w", err)
	}

	return outputPath, nil
}

func tail(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[len(b)-n:]
}
