//go:build linux

// File: reactor/poller_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux epoll(7) poller backend.

package reactor

import "golang.org/x/sys/unix"

type epollPoller struct {
	epfd  int
	evbuf []unix.EpollEvent
}

func newPoller() (poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollPoller{
		epfd:  epfd,
		evbuf: make([]unix.EpollEvent, 128),
	}, nil
}

func toEpoll(events EventType) uint32 {
	var ev uint32
	if events&EventRead != 0 {
		ev |= unix.EPOLLIN
	}
	if events&EventWrite != 0 {
		ev |= unix.EPOLLOUT
	}
	return ev
}

func (p *epollPoller) add(fd int, events EventType) error {
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{
		Events: toEpoll(events),
		Fd:     int32(fd),
	})
}

func (p *epollPoller) mod(fd int, events EventType) error {
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, &unix.EpollEvent{
		Events: toEpoll(events),
		Fd:     int32(fd),
	})
}

func (p *epollPoller) del(fd int) error {
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (p *epollPoller) wait(evs []pollEvent, timeoutMs int) (int, error) {
	if len(p.evbuf) < len(evs) {
		p.evbuf = make([]unix.EpollEvent, len(evs))
	}
	n, err := unix.EpollWait(p.epfd, p.evbuf[:len(evs)], timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}
	for i := 0; i < n; i++ {
		raw := p.evbuf[i]
		var ev EventType
		if raw.Events&(unix.EPOLLIN|unix.EPOLLHUP|unix.EPOLLERR) != 0 {
			ev |= EventRead
		}
		if raw.Events&(unix.EPOLLOUT|unix.EPOLLERR) != 0 {
			ev |= EventWrite
		}
		evs[i] = pollEvent{fd: int(raw.Fd), events: ev}
	}
	return n, nil
}

func (p *epollPoller) close() error {
	return unix.Close(p.epfd)
}
