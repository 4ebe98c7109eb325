package platform

import (
	"errors"
	"fmt"
	"hash/fnv"
	"net"
	"path/filepath"
)

// ErrAlreadyRunning indicates another instance already owns the data directory.
var ErrAlreadyRunning = errors.New("instance already running")

// InstanceGuard holds the single-instance lock for one data directory.
type InstanceGuard struct {
	listener net.Listener
	address  string
}

// AcquireSingleInstance binds a localhost port derived from dataDir, so two processes
// sharing a data directory (and therefore a sqlite file) cannot run at once.
func AcquireSingleInstance(appName, dataDir string) (*InstanceGuard, error) {
	if abs, err := filepath.Abs(dataDir); err == nil {
		dataDir = abs
	}
	address := fmt.Sprintf("127.0.0.1:%d", lockPort(appName+"\x00"+dataDir))
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("%w (lock %s): %v", ErrAlreadyRunning, address, err)
	}
	return &InstanceGuard{listener: listener, address: address}, nil
}

// Release frees the lock. It is safe on a nil guard.
func (guard *InstanceGuard) Release() error {
	if guard == nil || guard.listener == nil {
		return nil
	}
	return guard.listener.Close()
}

// Address returns the bound address.
func (guard *InstanceGuard) Address() string {
	if guard == nil {
		return ""
	}
	return guard.address
}

func lockPort(key string) int {
	const (
		minPort = 20000
		maxPort = 39999
	)
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(key))
	return minPort + int(hash.Sum32()%uint32(maxPort-minPort+1))
}
