package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Renal37/campus-canteen/internal/logger"
	"go.uber.org/zap"
)

var (
	ErrJobQueueIsFull = errors.New("очередь заданий заполнена")
	ErrJobQueueClosed = errors.New("очередь заданий закрыта")
)

// Job задание фоновой очереди. Получает контекст, с которым была запущена очередь.
type Job func(ctx context.Context)

// JobQueueService пул воркеров с ограниченной очередью заданий.
// Используется для зачисления оплаченных пополнений вне HTTP-запроса.
type JobQueueService struct {
	jobs    chan Job
	resume  chan struct{}
	paused  int32 // 1 - приостановлено
	wg      sync.WaitGroup
	mu      sync.Mutex // защищает resume
	closing int32      // 1 - очередь закрыта
}

// NewJobQueueService создает очередь ёмкостью capacity и запускает workers воркеров.
// Воркеры останавливаются при отмене ctx или после Shutdown.
func NewJobQueueService(ctx context.Context, capacity, workers int) *JobQueueService {
	if capacity < 1 {
		capacity = 1
	}
	if workers < 1 {
		workers = 1
	}

	service := &JobQueueService{
		jobs:   make(chan Job, capacity),
		resume: make(chan struct{}),
	}
	service.start(ctx, workers)

	return service
}

func (jqs *JobQueueService) start(ctx context.Context, workers int) {
	for i := 0; i < workers; i++ {
		jqs.wg.Add(1)

		go func(workerID int) {
			defer jqs.wg.Done()

			for {
				select {
				case job, ok := <-jqs.jobs:
					if !ok {
						return
					}

					jqs.mu.Lock()
					var resume chan struct{}
					if atomic.LoadInt32(&jqs.paused) == 1 {
						resume = jqs.resume
					}
					jqs.mu.Unlock()

					if resume != nil {
						select {
						case <-resume:
						case <-ctx.Done():
							return
						}
					}

					jqs.run(ctx, workerID, job)
				case <-ctx.Done():
					return
				}
			}
		}(i + 1)
	}
}

// run выполняет задание, не давая панике в нём остановить воркер.
func (jqs *JobQueueService) run(ctx context.Context, workerID int, job Job) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error("паника в задании", zap.Int("worker", workerID), zap.Any("panic", r))
		}
	}()

	job(ctx)
}

// Enqueue добавляет задание в очередь без ожидания.
func (jqs *JobQueueService) Enqueue(job Job) (err error) {
	if atomic.LoadInt32(&jqs.closing) == 1 {
		return ErrJobQueueClosed
	}

	// Shutdown мог закрыть канал между проверкой и отправкой.
	defer func() {
		if recover() != nil {
			err = ErrJobQueueClosed
		}
	}()

	select {
	case jqs.jobs <- job:
		return nil
	default:
		return ErrJobQueueIsFull
	}
}

// ScheduleJob ставит задание в очередь через delay.
func (jqs *JobQueueService) ScheduleJob(job Job, delay time.Duration) {
	if atomic.LoadInt32(&jqs.closing) == 1 {
		return
	}

	time.AfterFunc(delay, func() {
		if err := jqs.Enqueue(job); err != nil {
			logger.Log.Warn("не удалось запланировать задание", zap.Error(err), zap.Duration("delay", delay))
		}
	})
}

func (jqs *JobQueueService) Pause() {
	atomic.CompareAndSwapInt32(&jqs.paused, 0, 1)
}

func (jqs *JobQueueService) Resume() {
	if atomic.CompareAndSwapInt32(&jqs.paused, 1, 0) {
		jqs.mu.Lock()
		defer jqs.mu.Unlock()
		close(jqs.resume)
		jqs.resume = make(chan struct{})
	}
}

// PauseAndResume приостанавливает выполнение заданий на delay.
func (jqs *JobQueueService) PauseAndResume(delay time.Duration) {
	jqs.Pause()
	time.AfterFunc(delay, jqs.Resume)
}

// Shutdown закрывает очередь и ждёт, пока воркеры доработают оставшиеся задания.
// Отложенные задания, не успевшие попасть в очередь, отбрасываются: платежи по ним
// остаются в статусе pending и подхватываются при следующем запуске.
func (jqs *JobQueueService) Shutdown() {
	if atomic.CompareAndSwapInt32(&jqs.closing, 0, 1) {
		jqs.Resume()
		close(jqs.jobs)
		jqs.wg.Wait()
	}
}
