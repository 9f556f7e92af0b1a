package notifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sowlabs/transfer-office/internal/config"
	"github.com/sowlabs/transfer-office/internal/queue"
	"github.com/sowlabs/transfer-office/pkg/logger"
	"github.com/sowlabs/transfer-office/pkg/redis"
	"github.com/sowlabs/transfer-office/pkg/worker"
)

const ShutdownTimeout = time.Minute

const consumerInstances = 4
const workerCount = 32

// Processor handles one queued event.
type Processor interface {
	Process(ctx context.Context, message *queue.Message) error
	GetType() string
}

// Service consumes the receipts stream and fans messages out over a
// worker pool.
type Service struct {
	adapter   redis.RedisAdapter
	queues    []*queue.Queue
	processor Processor
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	worker    *worker.WorkerManager
}

func NewService(redisAdap redis.RedisAdapter, processor Processor) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		adapter:   redisAdap,
		queues:    make([]*queue.Queue, 0, consumerInstances),
		processor: processor,
		ctx:       ctx,
		cancel:    cancel,
		worker:    worker.NewWorkerManager(10_000, workerCount, nil),
	}
}

type job struct {
	ctx context.Context
	msg *queue.Message
}

func (s *Service) Start() error {
	logger.Info("starting notifier service", "processor", s.processor.GetType())

	s.worker.SetWorker(s.workerHandler)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.worker.Start(); err != nil {
			logger.Error("worker manager stopped", "error", err)
		}
	}()

	for i := 0; i < consumerInstances; i++ {
		queueConfig := queue.QueueConfig{
			Name:              config.Get().QueueName,
			ConsumerGroup:     config.Get().QueueConsumerGroup,
			ConsumerName:      fmt.Sprintf("%s-%s", config.Get().QueueConsumerName, uuid.New().String()[:8]),
			MaxRetries:        config.Get().QueueMaxRetries,
			VisibilityTimeout: config.Get().QueueVisibilityTimeout,
			PollInterval:      config.Get().QueuePollInterval,
			BatchSize:         config.Get().QueueBatchSize,
			MaxLen:            config.Get().QueueMaxLen,
			EnableDLQ:         config.Get().QueueEnableDLQ,
		}

		q, err := queue.NewQueue(s.adapter, queueConfig)
		if err != nil {
			return fmt.Errorf("failed to create queue %d: %w", i, err)
		}

		if err := q.ConsumeManual(s.enqueue); err != nil {
			return fmt.Errorf("failed to start consumer %d: %w", i, err)
		}

		s.queues = append(s.queues, q)
	}

	logger.Info("notifier service started", "consumers", len(s.queues), "workers", workerCount)
	return nil
}

// enqueue hands the message to the worker pool; processing and acking
// happen off the queue poll loop.
func (s *Service) enqueue(ctx context.Context, msg *queue.Message) {
	s.worker.Enqueue(job{ctx: ctx, msg: msg})
}

func (s *Service) workerHandler(workerIndex int, j interface{}) {
	wj, ok := j.(job)
	if !ok {
		return
	}
	if err := s.processor.Process(wj.ctx, wj.msg); err != nil {
		logger.Error("processing failed", "worker", workerIndex, "error", err)
		return
	}
	if err := wj.msg.Ack(); err != nil {
		logger.Error("ack failed", "worker", workerIndex, "error", err)
	}
}

func (s *Service) Stop() {
	logger.Info("stopping notifier service")
	s.cancel()

	for _, q := range s.queues {
		if err := q.Stop(ShutdownTimeout); err != nil {
			logger.Error("queue did not stop cleanly", "error", err)
		}
	}
	s.worker.Exit()
	s.wg.Wait()
}
