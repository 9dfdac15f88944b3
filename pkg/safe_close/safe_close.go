// Package safe_close 协调多个后台 goroutine 的统一关闭
package safe_close

import (
	"sync"
)

// SafeClose broadcasts one close signal to every attached worker and collects the first error
// SafeClose 向所有挂载的 worker 广播关闭信号，并记录第一个错误
type SafeClose struct {
	closeOnce sync.Once
	closeCh   chan struct{}
	wg        sync.WaitGroup

	mu  sync.Mutex
	err error
}

func NewSafeClose() *SafeClose {
	return &SafeClose{closeCh: make(chan struct{})}
}

// Attach 启动一个 worker，worker 退出前必须调用 done
func (s *SafeClose) Attach(fn func(done func(), closeSignal <-chan struct{})) {
	s.wg.Add(1)
	var once sync.Once
	go fn(func() { once.Do(s.wg.Done) }, s.closeCh)
}

// SendCloseSignal 发送关闭信号，可重复调用，只记录第一个非空错误
func (s *SafeClose) SendCloseSignal(err error) {
	s.mu.Lock()
	if s.err == nil && err != nil {
		s.err = err
	}
	s.mu.Unlock()

	s.closeOnce.Do(func() {
		close(s.closeCh)
	})
}

// WaitClosed 等待所有 worker 退出
func (s *SafeClose) WaitClosed() error {
	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Closed 返回关闭信号通道
func (s *SafeClose) Closed() <-chan struct{} {
	return s.closeCh
}
