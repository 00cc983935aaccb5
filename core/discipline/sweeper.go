package discipline

import (
	"context"

	"github.com/robfig/cron/v3"

	"bantay-pod/config"
	"bantay-pod/core/utils"
)

// Sweeper periodically withdraws duplicate active escalations left behind
// by data imports. Live traffic cannot create duplicates; this is a
// background cleanup, not a correctness dependency.
type Sweeper struct {
	svc    *Service
	cfg    config.SweeperConfig
	logger *utils.Logger
	cron   *cron.Cron
}

func NewSweeper(svc *Service, cfg config.SweeperConfig, logger *utils.Logger) *Sweeper {
	return &Sweeper{
		svc:    svc,
		cfg:    cfg,
		logger: logger,
		cron:   cron.New(),
	}
}

func (w *Sweeper) Start() error {
	if !w.cfg.Enabled {
		w.logger.Printf("escalation sweeper disabled")
		return nil
	}
	spec := w.cfg.Spec
	if spec == "" {
		spec = "@every 10m"
	}
	if _, err := w.cron.AddFunc(spec, w.runOnce); err != nil {
		return err
	}
	w.cron.Start()
	w.logger.Printf("escalation sweeper started (%s)", spec)
	return nil
}

func (w *Sweeper) Stop() {
	ctx := w.cron.Stop()
	<-ctx.Done()
}

func (w *Sweeper) runOnce() {
	withdrawn, err := w.svc.ReconcileDuplicateEscalations(context.Background(), "sweeper")
	if err != nil {
		w.logger.Errorf("escalation sweep: %v", err)
		return
	}
	if withdrawn > 0 {
		w.logger.Printf("escalation sweep withdrew %d duplicates", withdrawn)
	}
}
