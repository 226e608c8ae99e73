package workerpool

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

var ErrPoolClosed = errors.New("worker pool is closed")

// Config Worker Pool 配置
type Config struct {
	Workers  int  // worker 数量
	NonBlock bool // 队列满时是否立即返回错误
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Workers:  8,
		NonBlock: false,
	}
}

// Statistics 统计信息
type Statistics struct {
	Submitted int64 // 已提交
	Completed int64 // 已完成
	Failed    int64 // 失败
}

// Pool 基于 ants 的 goroutine 池
type Pool struct {
	inner  *ants.Pool
	logger *zap.Logger

	submitted int64
	completed int64
	failed    int64

	mu     sync.Mutex
	closed bool
}

// New 创建 Worker Pool
func New(cfg *Config, log *zap.Logger) (*Pool, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	opts := []ants.Option{
		ants.WithLogger(&antsLogger{log}),
	}
	if cfg.NonBlock {
		opts = append(opts, ants.WithNonblocking(true))
	}

	inner, err := ants.NewPool(cfg.Workers, opts...)
	if err != nil {
		return nil, err
	}

	return &Pool{
		inner:  inner,
		logger: log,
	}, nil
}

// Submit 提交任务；task 返回的 error 仅计入统计
func (p *Pool) Submit(task func() error) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	p.mu.Unlock()

	atomic.AddInt64(&p.submitted, 1)
	return p.inner.Submit(func() {
		if err := task(); err != nil {
			atomic.AddInt64(&p.failed, 1)
			return
		}
		atomic.AddInt64(&p.completed, 1)
	})
}

// Stats 返回统计快照
func (p *Pool) Stats() Statistics {
	return Statistics{
		Submitted: atomic.LoadInt64(&p.submitted),
		Completed: atomic.LoadInt64(&p.completed),
		Failed:    atomic.LoadInt64(&p.failed),
	}
}

// Running 正在运行的 worker 数
func (p *Pool) Running() int {
	return p.inner.Running()
}

// Release 等待任务结束并关闭池
func (p *Pool) Release() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.inner.Release()
}

// antsLogger 将 ants 日志接入 zap
type antsLogger struct {
	log *zap.Logger
}

func (l *antsLogger) Printf(format string, args ...interface{}) {
	l.log.Sugar().Infof(format, args...)
}
