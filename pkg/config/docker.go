package config

import (
	"os"
	"sync"
)

// loopbackHosts cannot reach the host machine from inside a container.
var loopbackHosts = map[string]bool{
	"localhost": true,
	"127.0.0.1": true,
	"::1":       true,
}

// Docker creates /.dockerenv at the container root.
var inDocker = sync.OnceValue(func() bool {
	_, err := os.Stat("/.dockerenv")
	return err == nil
})

// IsRunningInDocker reports whether the engine runs inside a Docker
// container. The check runs once and is cached.
func IsRunningInDocker() bool {
	return inDocker()
}

// ResolveHostForDocker rewrites loopback database hosts to
// host.docker.internal when the engine itself runs in a container.
// Everything else passes through unchanged.
func ResolveHostForDocker(host string) string {
	if !inDocker() || !loopbackHosts[host] {
		return host
	}
	return "host.docker.internal"
}
