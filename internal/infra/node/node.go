package node

import (
	"net"
	"sync"

	"github.com/google/uuid"
)

// Node describes the running server instance. Version and CommitHash are
// stamped at build time with -ldflags.
type Node struct {
	ID         string
	IPAddress  string
	Version    string
	CommitHash string
}

var (
	Version    = "development"
	CommitHash = "unknown"
)

var (
	nodeID     string
	nodeIDOnce sync.Once
	nodeIP     string
	nodeIPOnce sync.Once
)

func GetNodeInfo() *Node {
	return &Node{
		ID:         getNodeID(),
		IPAddress:  getNodeIPAddress(),
		Version:    Version,
		CommitHash: CommitHash,
	}
}

func getNodeID() string {
	nodeIDOnce.Do(func() {
		nodeID = uuid.NewString()
	})
	return nodeID
}

func getNodeIPAddress() string {
	nodeIPOnce.Do(func() {
		nodeIP = resolveOutboundIP()
	})
	return nodeIP
}

// resolveOutboundIP picks the address the host would use to reach the
// devices' network. No packet is sent for a UDP dial.
func resolveOutboundIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()

	localAddr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return "127.0.0.1"
	}
	return localAddr.IP.String()
}
