package transcode

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Laprimamiku/ikvcs/internal/pkg/workerpool"
	videobiz "github.com/Laprimamiku/ikvcs/internal/video/biz"
	"go.uber.org/zap"
)

const (
	dequeueTimeout = 2 * time.Second
	maxRetries     = 3
)

// Worker 转码任务消费者：从队列取任务派发给协程池执行
type Worker struct {
	queue      *Queue
	pool       *workerpool.Pool
	transcoder Transcoder
	videos     *videobiz.VideoUseCase
	logger     *zap.Logger

	wg      sync.WaitGroup
	stopCh  chan struct{}
	mu      sync.Mutex
	running bool
}

// NewWorker 创建转码 Worker
func NewWorker(
	queue *Queue,
	pool *workerpool.Pool,
	transcoder Transcoder,
	videos *videobiz.VideoUseCase,
	logger *zap.Logger,
) *Worker {
	return &Worker{
		queue:      queue,
		pool:       pool,
		transcoder: transcoder,
		videos:     videos,
		logger:     logger,
		stopCh:     make(chan struct{}),
	}
}

// Start 启动消费循环
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("transcode worker already running")
	}
	w.running = true

	w.logger.Info("starting transcode worker")
	w.wg.Add(1)
	go w.consumeLoop(ctx)

	return nil
}

// Stop 停止消费循环并等待在途任务
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	w.logger.Info("stopping transcode worker")
	close(w.stopCh)
	w.wg.Wait()
	w.running = false
	w.logger.Info("transcode worker stopped")
}

func (w *Worker) consumeLoop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		task, err := w.queue.Dequeue(ctx, dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("failed to dequeue transcode task", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if task == nil {
			continue
		}

		t := task
		if err := w.pool.Submit(func() error {
			return w.processTask(ctx, t)
		}); err != nil {
			w.logger.Error("failed to submit transcode task",
				zap.String("video_id", t.VideoID),
				zap.Error(err))
			// 提交失败放回队列，避免任务丢失
			if reqErr := w.queue.Requeue(ctx, t); reqErr != nil {
				w.logger.Error("failed to requeue transcode task",
					zap.String("video_id", t.VideoID),
					zap.Error(reqErr))
			}
		}
	}
}

func (w *Worker) processTask(ctx context.Context, task *Task) error {
	logger := w.logger.With(
		zap.String("video_id", task.VideoID),
		zap.Int("retry_count", task.RetryCount))
	logger.Info("processing transcode task")

	playbackPath, err := w.transcoder.Transcode(ctx, task.VideoID, task.FilePath)
	if err == nil {
		if err := w.videos.MarkPublished(ctx, task.VideoID, playbackPath); err != nil {
			logger.Error("failed to mark video published", zap.Error(err))
			return err
		}
		logger.Info("transcode finished", zap.String("playback_path", playbackPath))
		return nil
	}

	logger.Error("transcode failed", zap.Error(err))

	if task.RetryCount < maxRetries {
		if reqErr := w.queue.Requeue(ctx, task); reqErr != nil {
			logger.Error("failed to requeue transcode task", zap.Error(reqErr))
		} else {
			logger.Info("transcode task re-enqueued for retry")
			return err
		}
	}

	// 重试耗尽，标记失败
	if markErr := w.videos.MarkFailed(ctx, task.VideoID, err.Error()); markErr != nil {
		logger.Error("failed to mark video failed", zap.Error(markErr))
	}
	return err
}
