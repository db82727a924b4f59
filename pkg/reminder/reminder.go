// Package reminder sweeps for overdue tasks on a cron schedule and nudges
// the user over a chat channel.
package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/adhocore/gronx"

	"github.com/dotsetgreg/taskwise/pkg/bus"
	"github.com/dotsetgreg/taskwise/pkg/config"
	"github.com/dotsetgreg/taskwise/pkg/logger"
	"github.com/dotsetgreg/taskwise/pkg/tasks"
	"github.com/dotsetgreg/taskwise/pkg/utils"
)

const tickInterval = time.Minute

// TaskSource yields pending tasks whose deadline has passed.
type TaskSource interface {
	DuePending(ctx context.Context, cutoffMS int64) ([]tasks.Task, error)
}

type Service struct {
	source   TaskSource
	bus      *bus.MessageBus
	cfg      config.RemindersConfig
	cron     *gronx.Gronx
	notified map[string]bool
	mu       sync.Mutex
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewService(source TaskSource, messageBus *bus.MessageBus, cfg config.RemindersConfig) (*Service, error) {
	g := gronx.New()
	if !g.IsValid(cfg.Schedule) {
		return nil, fmt.Errorf("invalid reminder schedule %q", cfg.Schedule)
	}
	return &Service{
		source:   source,
		bus:      messageBus,
		cfg:      cfg,
		cron:     g,
		notified: make(map[string]bool),
		stopCh:   make(chan struct{}),
	}, nil
}

// Start runs the sweep loop until Stop or context cancellation.
func (s *Service) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		logger.InfoCF("reminder", "Reminder sweeper started", map[string]any{
			"schedule": s.cfg.Schedule,
			"channel":  s.cfg.Channel,
		})

		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			case now := <-ticker.C:
				due, err := s.cron.IsDue(s.cfg.Schedule, now)
				if err != nil {
					logger.WarnCF("reminder", "Schedule evaluation failed", map[string]any{
						"error": err.Error(),
					})
					continue
				}
				if !due {
					continue
				}
				s.sweep(ctx, now)
			}
		}
	}()
}

func (s *Service) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

func (s *Service) sweep(ctx context.Context, now time.Time) {
	overdue, err := s.source.DuePending(ctx, now.UnixMilli())
	if err != nil {
		logger.ErrorCF("reminder", "Overdue sweep failed", map[string]any{
			"error": err.Error(),
		})
		return
	}

	for _, task := range overdue {
		if s.alreadyNotified(task.ID) {
			continue
		}

		s.bus.PublishOutbound(bus.OutboundMessage{
			Channel: s.cfg.Channel,
			ChatID:  s.cfg.ChatID,
			Content: fmt.Sprintf("⏰ Task '%s' is overdue.", task.Title),
		})
		s.markNotified(task.ID)

		logger.InfoCF("reminder", "Overdue reminder sent", map[string]any{
			"task_id": task.ID,
			"title":   utils.Truncate(task.Title, 50),
		})
	}
}

// alreadyNotified keeps each task to one nudge per process lifetime.
func (s *Service) alreadyNotified(taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notified[taskID]
}

func (s *Service) markNotified(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notified[taskID] = true
}
