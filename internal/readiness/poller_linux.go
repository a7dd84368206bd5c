//go:build linux

package readiness

import "golang.org/x/sys/unix"

type epollPoller struct {
	epfd   int
	events [8]unix.EpollEvent
}

func newPoller() (poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollPoller{epfd: epfd}, nil
}

func (p *epollPoller) add(fd int) error {
	ev := &unix.EpollEvent{
		Events: unix.EPOLLIN | unix.EPOLLRDHUP,
		Fd:     int32(fd),
	}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, ev)
}

func (p *epollPoller) remove(fd int) error {
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (p *epollPoller) wait(ready []int) (int, error) {
	limit := len(p.events)
	if len(ready) < limit {
		limit = len(ready)
	}
	n, err := unix.EpollWait(p.epfd, p.events[:limit], -1)
	if err != nil {
		return 0, err
	}
	for i := 0; i < n; i++ {
		ready[i] = int(p.events[i].Fd)
	}
	return n, nil
}

func (p *epollPoller) close() error {
	return unix.Close(p.epfd)
}
