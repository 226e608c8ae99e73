package transcode

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pkgredis "github.com/Laprimamiku/ikvcs/internal/pkg/redis"
)

// TaskQueue 转码任务队列的 Redis 键
const TaskQueue = "queue:video:transcode"

// Task 转码任务
type Task struct {
	VideoID    string `json:"video_id"`
	FilePath   string `json:"file_path"`
	RetryCount int    `json:"retry_count"`
}

// Queue Redis 转码任务队列。实现上传模块的 TranscodeEnqueuer。
type Queue struct {
	redis *pkgredis.Client
}

// NewQueue 创建转码任务队列
func NewQueue(redis *pkgredis.Client) *Queue {
	return &Queue{redis: redis}
}

// Enqueue 将视频加入转码队列
func (q *Queue) Enqueue(ctx context.Context, videoID, filePath string) error {
	return q.push(ctx, &Task{
		VideoID:  videoID,
		FilePath: filePath,
	})
}

// Dequeue 阻塞取出一个任务。队列为空且超时则返回 (nil, nil)。
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Task, error) {
	vals, err := q.redis.BRPop(ctx, timeout, TaskQueue)
	if err != nil {
		// 队列空到超时返回 nil 哨兵，不算错误
		if pkgredis.IsNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue task: %w", err)
	}
	if len(vals) < 2 {
		return nil, nil
	}

	var task Task
	if err := json.Unmarshal([]byte(vals[1]), &task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	return &task, nil
}

// Requeue 将失败任务重新入队（重试计数加一）
func (q *Queue) Requeue(ctx context.Context, task *Task) error {
	t := *task
	t.RetryCount++
	return q.push(ctx, &t)
}

// Size 获取队列长度
func (q *Queue) Size(ctx context.Context) (int64, error) {
	return q.redis.LLen(ctx, TaskQueue)
}

func (q *Queue) push(ctx context.Context, task *Task) error {
	taskJSON, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	if _, err := q.redis.LPush(ctx, TaskQueue, string(taskJSON)); err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}
