//go:build linux || darwin

// File: reactor/wake_unix.go
// Author: momentics <momentics@gmail.com>
//
// Self-pipe used to interrupt a blocking poll from another goroutine.

package reactor

import "golang.org/x/sys/unix"

type wakePipe struct {
	r, w int
}

func newWakePipe() (*wakePipe, error) {
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		return nil, err
	}
	for _, fd := range fds {
		if err := unix.SetNonblock(fd, true); err != nil {
			unix.Close(fds[0])
			unix.Close(fds[1])
			return nil, err
		}
		unix.CloseOnExec(fd)
	}
	return &wakePipe{r: fds[0], w: fds[1]}, nil
}

// wake is safe to call from any goroutine. A full pipe already guarantees
// a pending wakeup, so EAGAIN is ignored.
func (p *wakePipe) wake() {
	_, _ = unix.Write(p.w, []byte{0})
}

func (p *wakePipe) drain() {
	var buf [64]byte
	for {
		n, err := unix.Read(p.r, buf[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

func (p *wakePipe) close() error {
	err1 := unix.Close(p.r)
	err2 := unix.Close(p.w)
	if err1 != nil {
		return err1
	}
	return err2
}
