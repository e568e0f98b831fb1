// Package ports implements DualLink's fixed port arithmetic (spec §4.J)
// and a best-effort stale-port probe supplementing it.
//
// Grounded on original_source/linux-receiver/.../duallink-gui/src/receiver.rs's
// port_is_busy/fuser_kill_ports startup sequence: this repo keeps the
// "probe before bind" half (ProbeFree) and drops the "kill whatever is
// squatting the port" half, since shelling out to terminate a foreign
// process is outside this repo's scope — only detection aids the
// Fatal-bind-failure error path required by spec §7.
package ports

import (
	"fmt"
	"net"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// BaseVideoPort and BaseSignalingPort are the fixed bases from spec §4.J
// and §6.
const (
	BaseVideoPort     = 7878
	BaseSignalingPort = 7879
)

// Video returns the UDP port for display index k: 7878 + 2k.
func Video(displayIndex int) int {
	return BaseVideoPort + 2*displayIndex
}

// Signaling returns the TCP port for display index k: 7879 + 2k.
func Signaling(displayIndex int) int {
	return BaseSignalingPort + 2*displayIndex
}

// ProbeFree reports whether a TCP connect to 127.0.0.1:port succeeds,
// meaning something is already listening there (stale from a previous
// crashed run, or a genuine conflict). A failed dial is treated as "the
// port is free" — the normal case. This is advisory only: the actual
// Fatal error (spec §7) is still raised by the bind call itself.
func ProbeFree(port int) (busy bool) {
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	conn, err := net.DialTimeout("tcp", addr, 150*time.Millisecond)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// reuseAddrControl sets SO_REUSEADDR on the socket before bind, so a
// receiver restarted right after a crash can rebind a signaling port
// still lingering in TIME_WAIT instead of failing the Fatal bind check
// (spec §7) on a port that is not actually in active use.
func reuseAddrControl(_, _ string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}

// ListenConfig returns a net.ListenConfig whose Control sets
// SO_REUSEADDR, for use by TCP signaling listeners binding a port this
// package computed (internal/signaling/server.Listen).
func ListenConfig() net.ListenConfig {
	return net.ListenConfig{Control: reuseAddrControl}
}
