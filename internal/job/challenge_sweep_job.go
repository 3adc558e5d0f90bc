package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/fwforge/fwportal/internal/store"
)

// ChallengeSweepJob drops expired verification challenges from the
// in-memory store. Expiry is enforced on every lookup regardless; the
// sweep only keeps abandoned entries from piling up.
type ChallengeSweepJob struct {
	store store.ChallengeStore
}

func NewChallengeSweepJob(st store.ChallengeStore) *ChallengeSweepJob {
	return &ChallengeSweepJob{store: st}
}

func (j *ChallengeSweepJob) Name() string {
	return "challenge_sweep"
}

func (j *ChallengeSweepJob) Run(ctx context.Context) error {
	removed := j.store.SweepExpired(time.Now())
	if removed > 0 {
		logutil.GetLogger(ctx).Info("swept expired challenges", zap.Int("removed", removed))
	}
	return nil
}
