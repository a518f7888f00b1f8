package utils

import (
	"sync"

	"go.uber.org/zap"
)

// WorkerPool 通用协程池，限制同时处理请求的 goroutine 数量
type WorkerPool struct {
	JobQueue  chan func()
	WorkerNum int
	log       *zap.Logger
	wg        sync.WaitGroup
	quit      chan bool
}

var (
	GlobalWorkerPool *WorkerPool
	poolOnce         sync.Once
)

// InitGlobalWorkerPool 初始化全局协程池
func InitGlobalWorkerPool(workerNum int, queueSize int, log *zap.Logger) {
	poolOnce.Do(func() {
		GlobalWorkerPool = NewWorkerPool(workerNum, queueSize, log)
		GlobalWorkerPool.Start()
	})
}

func NewWorkerPool(workerNum int, queueSize int, log *zap.Logger) *WorkerPool {
	if log == nil {
		log = zap.NewNop()
	}
	return &WorkerPool{
		JobQueue:  make(chan func(), queueSize),
		WorkerNum: workerNum,
		log:       log,
		quit:      make(chan bool),
	}
}

// Start 启动 worker，单个任务 panic 不能带挂整个 worker
func (p *WorkerPool) Start() {
	for i := 0; i < p.WorkerNum; i++ {
		p.wg.Add(1)
		go func(workerID int) {
			defer p.wg.Done()
			for {
				select {
				case job := <-p.JobQueue:
					func() {
						defer func() {
							if r := recover(); r != nil {
								p.log.Error("worker recovered from panic",
									zap.Int("worker", workerID),
									zap.Any("panic", r),
								)
							}
						}()
						job()
					}()
				case <-p.quit:
					return
				}
			}
		}(i)
	}

	p.log.Info("worker pool started",
		zap.Int("workers", p.WorkerNum),
		zap.Int("queue_size", cap(p.JobQueue)),
	)
}

// Submit 提交任务；队列满时阻塞排队而不是拒绝
func (p *WorkerPool) Submit(job func()) {
	p.JobQueue <- job
}

func (p *WorkerPool) Stop() {
	close(p.quit)
	p.wg.Wait()
}
