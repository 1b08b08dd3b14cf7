//go:build darwin

// File: reactor/poller_darwin.go
// Author: momentics <momentics@gmail.com>
//
// Darwin kqueue(2) poller backend. Read and write interest map to separate
// kevent filters; a filter removal for interest we never registered is not
// an error.

package reactor

import "golang.org/x/sys/unix"

type kqueuePoller struct {
	kqfd  int
	evbuf []unix.Kevent_t
}

func newPoller() (poller, error) {
	kqfd, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	unix.CloseOnExec(kqfd)
	return &kqueuePoller{
		kqfd:  kqfd,
		evbuf: make([]unix.Kevent_t, 128),
	}, nil
}

func (p *kqueuePoller) apply(fd int, events EventType) error {
	changes := make([]unix.Kevent_t, 0, 2)
	flag := func(want bool) uint16 {
		if want {
			return unix.EV_ADD | unix.EV_ENABLE
		}
		return unix.EV_DELETE
	}
	changes = append(changes, unix.Kevent_t{
		Ident:  uint64(fd),
		Filter: unix.EVFILT_READ,
		Flags:  flag(events&EventRead != 0),
	})
	changes = append(changes, unix.Kevent_t{
		Ident:  uint64(fd),
		Filter: unix.EVFILT_WRITE,
		Flags:  flag(events&EventWrite != 0),
	})
	for _, c := range changes {
		if _, err := unix.Kevent(p.kqfd, []unix.Kevent_t{c}, nil, nil); err != nil {
			if c.Flags == unix.EV_DELETE && err == unix.ENOENT {
				continue
			}
			if err == unix.EINTR {
				continue
			}
			return err
		}
	}
	return nil
}

func (p *kqueuePoller) add(fd int, events EventType) error {
	return p.apply(fd, events)
}

func (p *kqueuePoller) mod(fd int, events EventType) error {
	return p.apply(fd, events)
}

func (p *kqueuePoller) del(fd int) error {
	return p.apply(fd, 0)
}

func (p *kqueuePoller) wait(evs []pollEvent, timeoutMs int) (int, error) {
	if len(p.evbuf) < len(evs) {
		p.evbuf = make([]unix.Kevent_t, len(evs))
	}
	var ts *unix.Timespec
	if timeoutMs >= 0 {
		t := unix.NsecToTimespec(int64(timeoutMs) * 1e6)
		ts = &t
	}
	n, err := unix.Kevent(p.kqfd, nil, p.evbuf[:len(evs)], ts)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}
	for i := 0; i < n; i++ {
		raw := p.evbuf[i]
		var ev EventType
		switch raw.Filter {
		case unix.EVFILT_READ:
			ev = EventRead
		case unix.EVFILT_WRITE:
			ev = EventWrite
		}
		if raw.Flags&unix.EV_ERROR != 0 {
			ev = EventRead | EventWrite
		}
		evs[i] = pollEvent{fd: int(raw.Ident), events: ev}
	}
	return n, nil
}

func (p *kqueuePoller) close() error {
	return unix.Close(p.kqfd)
}
