package taskpool

import (
	"context"
	"sync"

	coreconfig "github.com/AzielCF/az-agent/core/config"
	"github.com/sirupsen/logrus"
)

var (
	globalPool     *TaskPool
	globalPoolOnce sync.Once
	globalCancel   context.CancelFunc
)

// GetGlobalPool returns the process-wide pool, starting it on first use.
func GetGlobalPool() *TaskPool {
	globalPoolOnce.Do(func() {
		var ctx context.Context
		ctx, globalCancel = context.WithCancel(context.Background())

		size, queue := 6, 250
		if coreconfig.Global != nil {
			if coreconfig.Global.WorkerPool.Size > 0 {
				size = coreconfig.Global.WorkerPool.Size
			}
			if coreconfig.Global.WorkerPool.QueueSize > 0 {
				queue = coreconfig.Global.WorkerPool.QueueSize
			}
		}

		globalPool = NewTaskPool(size, queue)
		globalPool.Start(ctx)
		logrus.Infof("[TASK_POOL] Global instance started with %d workers and queue size %d", size, queue)
	})
	return globalPool
}

// StopGlobalPool stops the process-wide pool if it was started.
func StopGlobalPool() {
	if globalPool != nil {
		globalPool.Stop()
	}
	if globalCancel != nil {
		globalCancel()
	}
}
