//go:build linux

package corosched

import (
	"encoding/binary"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// pollBridge is the Linux poll-mode IoBridge. Registered IoSources are
// watched with epoll; an eventfd-backed wake descriptor lets registerSource
// and close interrupt a blocking epoll_wait, the same shape as the pack's
// eventloop wakePipe/createWakeFd.
type pollBridge struct {
	epfd   int
	wakeFd int

	mu     sync.Mutex
	idByFd map[int]uint64
	closed bool
}

func newPollBridge() (*pollBridge, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	wakeFd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(epfd)
		return nil, err
	}
	b := &pollBridge{
		epfd:   epfd,
		wakeFd: wakeFd,
		idByFd: make(map[int]uint64),
	}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakeFd, &unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(wakeFd),
	}); err != nil {
		unix.Close(epfd)
		unix.Close(wakeFd)
		return nil, err
	}
	return b, nil
}

func (b *pollBridge) registerSource(src IoSource) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrPollModeUnavailable
	}
	b.idByFd[src.Fd] = src.Id
	b.mu.Unlock()

	err := unix.EpollCtl(b.epfd, unix.EPOLL_CTL_ADD, src.Fd, &unix.EpollEvent{
		Events: unix.EPOLLIN | unix.EPOLLONESHOT,
		Fd:     int32(src.Fd),
	})
	if err != nil {
		b.mu.Lock()
		delete(b.idByFd, src.Fd)
		b.mu.Unlock()
		return err
	}
	b.nudge()
	return nil
}

func (b *pollBridge) tokenSender() chan<- uint64 {
	return nil
}

// nudge wakes a goroutine blocked in epoll_wait so it notices new state
// (a fresh registration, or shutdown) without waiting out its timeout.
func (b *pollBridge) nudge() {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 1)
	unix.Write(b.wakeFd, buf[:])
}

func (b *pollBridge) drainReady() []uint64 {
	return b.poll(0)
}

func (b *pollBridge) wait(timeout time.Duration) []uint64 {
	deadline := time.Now().Add(timeout)
	for {
		if ready := b.poll(int(timeout / time.Millisecond)); len(ready) > 0 {
			return ready
		}
		// Only the wake descriptor fired (or nothing did): keep waiting out
		// the same deadline so a nudge never reads as a timeout.
		b.mu.Lock()
		closed := b.closed
		b.mu.Unlock()
		if timeout = time.Until(deadline); closed || timeout <= 0 {
			return nil
		}
	}
}

func (b *pollBridge) poll(timeoutMs int) []uint64 {
	var events [64]unix.EpollEvent
	n, err := unix.EpollWait(b.epfd, events[:], timeoutMs)
	if err != nil {
		return nil
	}
	var ready []uint64
	b.mu.Lock()
	for i := 0; i < n; i++ {
		fd := int(events[i].Fd)
		if fd == b.wakeFd {
			var buf [8]byte
			unix.Read(b.wakeFd, buf[:])
			continue
		}
		if id, ok := b.idByFd[fd]; ok {
			ready = append(ready, id)
			delete(b.idByFd, fd)
		}
	}
	b.mu.Unlock()
	return ready
}

func (b *pollBridge) close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()
	b.nudge()
	unix.Close(b.epfd)
	unix.Close(b.wakeFd)
}

func newPlatformPollBridge() (ioBridge, error) {
	return newPollBridge()
}
