package cron

import (
	"context"
	"log"
	"time"

	"campushub/config"
	ledgerRepo "campushub/database/repository/ledger"
	"campushub/services/finance"
	"campushub/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeLedgerSweep = "ledger:sweep"

// sweepInterval is how often abandoned Pending ledger entries are reclaimed
// in the background. In-request reclamation still applies; the sweeper only
// bounds how long a stale lock can linger when nobody retries the payment.
const sweepInterval = 5 * time.Minute

// InitLedgerSweeper runs the async worker and its schedule in background.
func InitLedgerSweeper(ledger ledgerRepo.LedgerRepository) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 1,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeLedgerSweep, handleLedgerSweep(ledger))

	go func() {
		log.Println("[LedgerSweeper] starting async worker...")
		if err := srv.Run(mux); err != nil {
			log.Printf("[LedgerSweeper] worker stopped: %v", err)
		}
	}()

	scheduler := asynq.NewScheduler(redisOpts, nil)
	if _, err := scheduler.Register("@every "+sweepInterval.String(), asynq.NewTask(TypeLedgerSweep, nil)); err != nil {
		log.Printf("[LedgerSweeper] failed to register schedule: %v", err)
		return
	}
	go func() {
		if err := scheduler.Run(); err != nil {
			log.Printf("[LedgerSweeper] scheduler stopped: %v", err)
		}
	}()
}

// handleLedgerSweep deletes Pending ledger entries older than the lock timeout.
func handleLedgerSweep(ledger ledgerRepo.LedgerRepository) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		cutoff := time.Now().Add(-finance.LockTimeout)
		reclaimed, err := ledger.DeleteStale(cutoff)
		if err != nil {
			utils.GetLogger().Error("ledger sweep failed", zap.Error(err))
			return err
		}
		if reclaimed > 0 {
			utils.GetLogger().Info("reclaimed stale payment locks",
				zap.Int64("count", reclaimed),
				zap.Time("cutoff", cutoff))
		}
		return nil
	}
}
