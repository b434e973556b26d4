package cron

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	cronv3 "github.com/robfig/cron/v3"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/leaderelection"
	"k8s.io/client-go/tools/leaderelection/resourcelock"

	cron_config "github.com/customeros/invoicextract/internal/cron/config"
	apperrors "github.com/customeros/invoicextract/internal/errors"
	"github.com/customeros/invoicextract/internal/logger"
	"github.com/customeros/invoicextract/internal/tracing"
)

// CONSTANTS
const (
	// LeaseName is the k8s lease that elects the polling replica
	LeaseName = "invoicextract-cron-leader"

	// LeaseDuration is how long a lease lasts before needing renewal
	LeaseDuration = 15 * time.Second
	// RenewDeadline is how long a leader has to renew its lease
	RenewDeadline = 10 * time.Second
	// RetryPeriod is how long to wait between leadership attempts
	RetryPeriod = 2 * time.Second

	jobHeartbeat      = "heartbeat"
	jobMailboxPoll    = "mailbox_poll"
	jobScratchJanitor = "scratch_janitor"
)

// RunProcessor runs one full mailbox processing pass.
type RunProcessor interface {
	RunOnce(ctx context.Context) error
}

type ScratchSweeper interface {
	Sweep(ctx context.Context) (int, error)
}

type CronManager struct {
	cfg      *cron_config.Config
	log      logger.Logger
	cron     *cronv3.Cron
	k8s      kubernetes.Interface
	stopCh   chan struct{}
	stopOnce sync.Once
	jobIDs   map[string]cronv3.EntryID
	runner   RunProcessor
	janitor  ScratchSweeper

	// ctx is cancelled on Stop so an in-flight run can abort its backoff
	ctx    context.Context
	cancel context.CancelFunc
}

func NewCronManager(cfg *cron_config.Config, log logger.Logger, k8s kubernetes.Interface, runner RunProcessor, janitor ScratchSweeper) *CronManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &CronManager{
		cfg:     cfg,
		log:     log,
		k8s:     k8s,
		stopCh:  make(chan struct{}),
		jobIDs:  make(map[string]cronv3.EntryID),
		runner:  runner,
		janitor: janitor,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start initializes and starts the cron manager with leader election
// If k8s is nil, it will start in local mode without leader election
func (cm *CronManager) Start() error {
	if cm.k8s == nil || cm.cfg.LocalDev {
		cm.log.Info("Starting cron manager in local mode")
		return cm.StartCron()
	}

	lock := &resourcelock.LeaseLock{
		LeaseMeta: metav1.ObjectMeta{
			Name:      LeaseName,
			Namespace: cm.cfg.Namespace,
		},
		Client: cm.k8s.CoordinationV1(),
		LockConfig: resourcelock.ResourceLockConfig{
			Identity: cm.cfg.PodName,
		},
	}

	errCh := make(chan error, 1)

	go func() {
		le, err := leaderelection.NewLeaderElector(leaderelection.LeaderElectionConfig{
			Lock:            lock,
			ReleaseOnCancel: true,
			LeaseDuration:   LeaseDuration,
			RenewDeadline:   RenewDeadline,
			RetryPeriod:     RetryPeriod,
			Callbacks: leaderelection.LeaderCallbacks{
				OnStartedLeading: func(ctx context.Context) {
					if err := cm.StartCron(); err != nil {
						cm.log.Errorf("Could not start crons as leader: %v", err)
					}
				},
				OnStoppedLeading: func() {
					cm.log.Info("Leader lost - stopping crons")
					cm.Stop()
				},
				OnNewLeader: func(identity string) {
					cm.log.Infof("New leader elected: %s", identity)
				},
			},
		})
		if err != nil {
			errCh <- err
			return
		}

		le.Run(cm.ctx)
	}()

	// Wait briefly to see if leader election fails immediately
	select {
	case err := <-errCh:
		cm.log.Warnf("Leader election failed, falling back to local mode: %v", err)
		return cm.StartCron()
	case <-time.After(5 * time.Second):
	}

	return nil
}

// Stop gracefully stops the cron manager
func (cm *CronManager) Stop() {
	cm.stopOnce.Do(func() {
		cm.cancel()
		if cm.cron != nil {
			cm.log.Info("Stopping cron manager")
			ctx := cm.cron.Stop()
			// Wait for jobs to finish
			<-ctx.Done()
		}
		close(cm.stopCh)
	})
}

// registerJobs adds all cron jobs to the scheduler
func (cm *CronManager) registerJobs(c *cronv3.Cron) error {
	if cm.cfg.CronScheduleHeartbeat != "" {
		podName := cm.cfg.PodName
		if err := cm.addJob(c, jobHeartbeat, cm.cfg.CronScheduleHeartbeat, func() {
			cm.log.Infof("Cron heartbeat from pod: %s", podName)
		}); err != nil {
			return err
		}
	}

	if cm.cfg.CronScheduleMailboxPoll != "" && cm.runner != nil {
		if err := cm.addJob(c, jobMailboxPoll, cm.cfg.CronScheduleMailboxPoll, cm.pollMailboxes); err != nil {
			return err
		}
	}

	if cm.cfg.CronScheduleScratchJanitor != "" && cm.janitor != nil {
		if err := cm.addJob(c, jobScratchJanitor, cm.cfg.CronScheduleScratchJanitor, cm.sweepScratch); err != nil {
			return err
		}
	}
	return nil
}

func (cm *CronManager) addJob(c *cronv3.Cron, name, schedule string, fn func()) error {
	id, err := c.AddFunc(schedule, func() {
		defer tracing.RecoverAndLogToJaeger(cm.log)
		fn()
	})
	if err != nil {
		return errors.Wrapf(err, "could not add %s cron job", name)
	}
	cm.jobIDs[name] = id
	cm.log.Infof("Registered %s job with schedule: %s", name, schedule)
	return nil
}

// StartCron initializes and starts the cron scheduler
func (cm *CronManager) StartCron() error {
	cm.log.Info("Starting cron manager")
	// Create a new cron with seconds field enabled and panic recovery
	cronOptions := []cronv3.Option{
		cronv3.WithSeconds(),
		cronv3.WithChain(
			cronv3.SkipIfStillRunning(cronv3.DefaultLogger), // Skip if still running
			cronv3.Recover(cronv3.DefaultLogger),            // Default recovery as backup
		),
	}
	c := cronv3.New(cronOptions...)
	if err := cm.registerJobs(c); err != nil {
		return err
	}
	c.Start()
	cm.cron = c
	return nil
}

func (cm *CronManager) pollMailboxes() {
	span, ctx := tracing.StartTracerSpan(cm.ctx, "CronManager.pollMailboxes")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	err := cm.runner.RunOnce(ctx)
	switch {
	case err == nil:
		cm.log.Info("Mailbox poll completed")
	case errors.Is(err, apperrors.ErrRunInProgress):
		cm.log.Warn("Mailbox poll tick dropped: run still in progress")
	default:
		tracing.TraceErr(span, err)
		cm.log.Errorf("Mailbox poll failed: %v", err)
	}
}

func (cm *CronManager) sweepScratch() {
	span, ctx := tracing.StartTracerSpan(cm.ctx, "CronManager.sweepScratch")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	removed, err := cm.janitor.Sweep(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Scratch janitor failed: %v", err)
		return
	}
	cm.log.Infof("Scratch janitor removed %d batches", removed)
}
