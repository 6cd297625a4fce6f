package mpd

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeMPD speaks enough of the MPD protocol for the library and its watcher.
type fakeMPD struct {
	ln net.Listener

	mu       sync.Mutex
	conns    map[net.Conn]bool
	idle     map[net.Conn]bool
	accepted int
	commands []string
	state    string
	wg       sync.WaitGroup
}

func newFakeMPD(t *testing.T) *fakeMPD {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	f := &fakeMPD{
		ln:    ln,
		conns: make(map[net.Conn]bool),
		idle:  make(map[net.Conn]bool),
		state: "stop",
	}
	f.wg.Add(1)
	go f.accept()
	t.Cleanup(f.close)
	return f
}

func (f *fakeMPD) addr() string {
	return f.ln.Addr().String()
}

func (f *fakeMPD) accept() {
	defer f.wg.Done()
	for {
		conn, err := f.ln.Accept()
		if err != nil {
			return
		}
		f.mu.Lock()
		f.conns[conn] = true
		f.accepted++
		f.mu.Unlock()

		f.wg.Add(1)
		go f.serve(conn)
	}
}

func (f *fakeMPD) serve(conn net.Conn) {
	defer f.wg.Done()
	defer func() {
		f.mu.Lock()
		delete(f.conns, conn)
		delete(f.idle, conn)
		f.mu.Unlock()
		conn.Close()
	}()

	f.write(conn, "OK MPD 0.23.0\n")
	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)

		f.mu.Lock()
		f.commands = append(f.commands, line)
		state := f.state
		f.mu.Unlock()

		switch {
		case line == "close":
			return
		case strings.HasPrefix(line, "idle"):
			// Answered by notify or noidle
			f.mu.Lock()
			f.idle[conn] = true
			f.mu.Unlock()
		case line == "noidle":
			f.mu.Lock()
			wasIdle := f.idle[conn]
			delete(f.idle, conn)
			f.mu.Unlock()
			if wasIdle {
				f.write(conn, "OK\n")
			}
		case line == "status":
			f.write(conn, fmt.Sprintf("volume: 50\nstate: %s\nOK\n", state))
		default:
			f.write(conn, "OK\n")
		}
	}
}

func (f *fakeMPD) write(conn net.Conn, s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, _ = conn.Write([]byte(s))
}

// setState changes the state reported by status and wakes idle watchers.
func (f *fakeMPD) setState(state string) {
	f.mu.Lock()
	f.state = state
	var idle []net.Conn
	for conn := range f.idle {
		idle = append(idle, conn)
	}
	f.idle = make(map[net.Conn]bool)
	f.mu.Unlock()

	for _, conn := range idle {
		f.write(conn, "changed: player\nOK\n")
	}
}

// dropAll closes every open connection, as MPD does on connection_timeout.
func (f *fakeMPD) dropAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for conn := range f.conns {
		conn.Close()
	}
}

func (f *fakeMPD) idleCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.idle)
}

func (f *fakeMPD) acceptedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accepted
}

func (f *fakeMPD) received(cmd string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.commands {
		if c == cmd {
			return true
		}
	}
	return false
}

func (f *fakeMPD) close() {
	f.ln.Close()
	f.dropAll()
	f.wg.Wait()
}
