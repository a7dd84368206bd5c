//go:build unix && !linux

package readiness

import "golang.org/x/sys/unix"

// pollPoller keeps the watched set in user space and hands it to poll(2) on
// every wait.
type pollPoller struct {
	fds []unix.PollFd
}

func newPoller() (poller, error) {
	return &pollPoller{}, nil
}

func (p *pollPoller) add(fd int) error {
	for _, pfd := range p.fds {
		if int(pfd.Fd) == fd {
			return unix.EEXIST
		}
	}
	p.fds = append(p.fds, unix.PollFd{Fd: int32(fd), Events: unix.POLLIN})
	return nil
}

func (p *pollPoller) remove(fd int) error {
	for i, pfd := range p.fds {
		if int(pfd.Fd) == fd {
			p.fds = append(p.fds[:i], p.fds[i+1:]...)
			return nil
		}
	}
	return unix.ENOENT
}

func (p *pollPoller) wait(ready []int) (int, error) {
	for i := range p.fds {
		p.fds[i].Revents = 0
	}
	if _, err := unix.Poll(p.fds, -1); err != nil {
		return 0, err
	}

	n := 0
	for _, pfd := range p.fds {
		if n == len(ready) {
			break
		}
		if pfd.Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR|unix.POLLNVAL) != 0 {
			ready[n] = int(pfd.Fd)
			n++
		}
	}
	return n, nil
}

func (p *pollPoller) close() error {
	p.fds = nil
	return nil
}
