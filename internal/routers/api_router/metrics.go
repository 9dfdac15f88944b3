package api_router

import (
	"expvar"
	"sync"
	"sync/atomic"

	"github.com/haierkeys/wicky/internal/app"
	"github.com/haierkeys/wicky/pkg/workerpool"
	"github.com/haierkeys/wicky/pkg/writequeue"

	"github.com/gin-gonic/gin"
)

var (
	publishOnce sync.Once
	// expvarApp is the container the published vars read from; the latest router wins
	expvarApp atomic.Pointer[app.App]
)

type queueVars struct {
	WriteQueue writequeue.Metrics `json:"writeQueue"`
	WorkerPool workerpool.Metrics `json:"workerPool"`
}

// ExpvarHandler serves /debug/vars with the write queue and worker pool state published as "wicky_queues".
// ExpvarHandler 导出 expvar 指标，附带写队列与工作池状态
func ExpvarHandler(a *app.App) gin.HandlerFunc {
	expvarApp.Store(a)
	publishOnce.Do(func() {
		expvar.Publish("wicky_queues", expvar.Func(func() any {
			cur := expvarApp.Load()
			if cur == nil {
				return nil
			}
			return queueVars{
				WriteQueue: cur.WriteQueueManager().GetMetrics(),
				WorkerPool: cur.WorkerPool().GetMetrics(),
			}
		}))
	})
	return gin.WrapH(expvar.Handler())
}
