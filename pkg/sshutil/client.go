package sshutil

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kevinburke/ssh_config"
	"github.com/sshsshje/sshsshje/internal/errors"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// DefaultPort is used when neither the target nor ~/.ssh/config specify one.
const DefaultPort = 22

// Target identifies the single remote endpoint every channel connects to.
// It is immutable for the lifetime of the process.
type Target struct {
	Host     string // hostname, IP, or ~/.ssh/config alias
	Port     int
	User     string
	KeyPath  string // optional private key; agent and default keys are tried too
	Password string // optional password auth, tried after keys

	// StrictHostKey verifies host keys against ~/.ssh/known_hosts.
	// When false, any host key is accepted.
	StrictHostKey bool
}

// String returns user@host:port.
func (t Target) String() string {
	port := t.Port
	if port == 0 {
		port = DefaultPort
	}
	if t.User == "" {
		return net.JoinHostPort(t.Host, strconv.Itoa(port))
	}
	return t.User + "@" + net.JoinHostPort(t.Host, strconv.Itoa(port))
}

// Client wraps an SSH connection with additional metadata.
type Client struct {
	*ssh.Client
	Host    string // The original host/alias used to connect
	Address string // The resolved address (host:port)
}

// Dial establishes an SSH connection to the target. Settings missing from
// the target (HostName, Port, User, IdentityFile) are resolved from
// ~/.ssh/config when the host is an alias there.
func Dial(target Target, timeout time.Duration) (*Client, error) {
	settings := resolveSSHSettings(target)

	config, err := buildSSHConfig(settings, target, timeout)
	if err != nil {
		var sErr *errors.Error
		if stderrors.As(err, &sErr) {
			return nil, err
		}
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Couldn't set up SSH for '%s'", target.Host),
			"Check your keys are loaded: ssh-add -l")
	}

	address := settings.address()
	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Can't reach '%s' at %s", target.Host, address),
			suggestionForDialError(err))
	}

	// Bound the handshake too; the deadline is cleared once the client is up.
	_ = conn.SetDeadline(time.Now().Add(timeout))
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, address, config)
	if err != nil {
		conn.Close()

		var hostKeyErr *HostKeyMismatchError
		if stderrors.As(err, &hostKeyErr) {
			return nil, errors.New(errors.ErrSSH,
				hostKeyErr.Error(),
				hostKeyErr.Suggestion())
		}

		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("SSH handshake with '%s' didn't go through", target.Host),
			suggestionForHandshakeError(err, settings.encryptedKeys))
	}
	_ = conn.SetDeadline(time.Time{})

	return &Client{
		Client:  ssh.NewClient(sshConn, chans, reqs),
		Host:    target.Host,
		Address: address,
	}, nil
}

// Close closes the SSH connection.
func (c *Client) Close() error {
	if c.Client == nil {
		return nil
	}
	return c.Client.Close()
}

// GetHost returns the original host/alias used to connect.
func (c *Client) GetHost() string {
	return c.Host
}

// GetAddress returns the resolved host:port address.
func (c *Client) GetAddress() string {
	return c.Address
}

// sshSettings holds resolved SSH connection parameters.
type sshSettings struct {
	hostname      string
	port          string
	user          string
	identityFile  string
	encryptedKeys []string // Keys that exist but are encrypted
}

func (s *sshSettings) address() string {
	return net.JoinHostPort(s.hostname, s.port)
}

// resolveSSHSettings merges explicit target fields with ~/.ssh/config.
// Explicit fields win; config fills the gaps.
func resolveSSHSettings(target Target) *sshSettings {
	settings := &sshSettings{
		hostname:     target.Host,
		port:         strconv.Itoa(DefaultPort),
		user:         target.User,
		identityFile: expandPath(target.KeyPath),
	}
	if target.Port > 0 {
		settings.port = strconv.Itoa(target.Port)
	}

	content, err := readSSHConfig(filepath.Join(homeDir(), ".ssh", "config"))
	if err == nil {
		if cfg, err := ssh_config.Decode(bytes.NewReader(content)); err == nil {
			if hostname, _ := cfg.Get(target.Host, "HostName"); hostname != "" {
				settings.hostname = hostname
			}
			if port, _ := cfg.Get(target.Host, "Port"); port != "" && target.Port == 0 {
				settings.port = port
			}
			if user, _ := cfg.Get(target.Host, "User"); user != "" && target.User == "" {
				settings.user = user
			}
			if identity, _ := cfg.Get(target.Host, "IdentityFile"); identity != "" && settings.identityFile == "" {
				settings.identityFile = expandPath(identity)
			}
		}
	}

	if settings.user == "" {
		settings.user = currentUser()
	}
	return settings
}

// readSSHConfig returns ~/.ssh/config content up to the first Match directive,
// which ssh_config cannot decode.
func readSSHConfig(configPath string) ([]byte, error) {
	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(string(content), "\n")
	var result []string
	for _, line := range lines {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "match ") {
			break
		}
		result = append(result, line)
	}
	return []byte(strings.Join(result, "\n")), nil
}

// buildSSHConfig creates an SSH client config with authentication methods.
// It also populates settings.encryptedKeys with any keys that exist but are encrypted.
func buildSSHConfig(settings *sshSettings, target Target, timeout time.Duration) (*ssh.ClientConfig, error) {
	var authMethods []ssh.AuthMethod

	tryKeyFile := func(keyPath string) {
		keyAuth, err := keyFileAuth(keyPath)
		if err != nil {
			var encErr *EncryptedKeyError
			if stderrors.As(err, &encErr) {
				settings.encryptedKeys = append(settings.encryptedKeys, keyPath)
			}
			return
		}
		authMethods = append(authMethods, keyAuth)
	}

	if agentAuth := sshAgentAuth(); agentAuth != nil {
		authMethods = append(authMethods, agentAuth)
	}

	if settings.identityFile != "" {
		tryKeyFile(settings.identityFile)
	}

	for _, keyPath := range defaultKeyFiles() {
		if keyPath == settings.identityFile {
			continue
		}
		tryKeyFile(keyPath)
	}

	if target.Password != "" {
		authMethods = append(authMethods, ssh.Password(target.Password))
	}

	if len(authMethods) == 0 {
		msg := "No SSH auth methods available"
		suggestion := "Set SSH_KEY_PATH, load a key into the agent (ssh-add), or set SSH_PASSWORD"

		if len(settings.encryptedKeys) > 0 {
			msg = fmt.Sprintf("Found SSH key(s) but they're encrypted: %s", strings.Join(settings.encryptedKeys, ", "))
			suggestion = encryptedKeySuggestion(settings.encryptedKeys)
		}

		return nil, errors.New(errors.ErrSSH, msg, suggestion)
	}

	var hostKeyCallback ssh.HostKeyCallback
	if target.StrictHostKey {
		knownHostsPath := filepath.Join(homeDir(), ".ssh", "known_hosts")
		var err error
		hostKeyCallback, err = createHostKeyCallback(knownHostsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load known_hosts: %w", err)
		}
	} else {
		hostKeyCallback = ssh.InsecureIgnoreHostKey() //nolint:gosec // operator opted out of host key checking
	}

	return &ssh.ClientConfig{
		User:            settings.user,
		Auth:            authMethods,
		HostKeyCallback: hostKeyCallback,
		Timeout:         timeout,
	}, nil
}

// agentConn holds the reusable SSH agent connection.
var (
	agentConn     net.Conn
	agentClient   agent.ExtendedAgent
	agentConnOnce sync.Once
)

// sshAgentAuth returns an auth method using the SSH agent if available.
// Returns nil if the agent has no keys loaded.
func sshAgentAuth() ssh.AuthMethod {
	socket := os.Getenv("SSH_AUTH_SOCK")
	if socket == "" {
		return nil
	}

	agentConnOnce.Do(func() {
		conn, err := net.Dial("unix", socket)
		if err != nil {
			return
		}
		agentConn = conn
		agentClient = agent.NewClient(conn)
	})

	if agentClient == nil {
		return nil
	}

	// An empty agent causes auth failures when placed before other methods.
	signers, err := agentClient.Signers()
	if err != nil || len(signers) == 0 {
		return nil
	}

	return ssh.PublicKeysCallback(agentClient.Signers)
}

// CloseAgent closes the SSH agent connection if one is open.
func CloseAgent() {
	if agentConn != nil {
		agentConn.Close()
	}
}

// keyFileAuth returns an auth method using a private key file.
// Returns EncryptedKeyError if the key requires a passphrase.
func keyFileAuth(keyPath string) (ssh.AuthMethod, error) {
	key, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, err
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if stderrors.As(err, &missing) || isEncryptedPEM(key) {
			return nil, &EncryptedKeyError{Path: keyPath}
		}
		return nil, err
	}

	return ssh.PublicKeys(signer), nil
}

func defaultKeyFiles() []string {
	return []string{
		filepath.Join(homeDir(), ".ssh", "id_ed25519"),
		filepath.Join(homeDir(), ".ssh", "id_rsa"),
		filepath.Join(homeDir(), ".ssh", "id_ecdsa"),
	}
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return home
}

func currentUser() string {
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "root"
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}

func isEncryptedPEM(data []byte) bool {
	return bytes.Contains(data, []byte("ENCRYPTED"))
}

func encryptedKeySuggestion(keys []string) string {
	var sb strings.Builder
	sb.WriteString("Add your key(s) to the agent:\n")
	for _, key := range keys {
		if runtime.GOOS == "darwin" {
			sb.WriteString(fmt.Sprintf("  ssh-add --apple-use-keychain %s\n", key))
		} else {
			sb.WriteString(fmt.Sprintf("  ssh-add %s\n", key))
		}
	}
	return sb.String()
}

func suggestionForDialError(err error) string {
	errStr := err.Error()
	if strings.Contains(errStr, "connection refused") {
		return "Is SSH running on that box? Check SSH_PORT."
	}
	if strings.Contains(errStr, "no route to host") || strings.Contains(errStr, "network is unreachable") {
		return "Can't route to the host. Check your network connection."
	}
	if strings.Contains(errStr, "timeout") {
		return "Connection timed out. Host might be offline or blocked by a firewall."
	}
	return "Make sure the host is reachable: ping <host>"
}

func suggestionForHandshakeError(err error, encryptedKeys []string) string {
	errStr := err.Error()
	if strings.Contains(errStr, "unable to authenticate") || strings.Contains(errStr, "no supported methods") {
		if len(encryptedKeys) > 0 {
			return encryptedKeySuggestion(encryptedKeys)
		}
		return "Auth failed. Check SSH_USERNAME and SSH_KEY_PATH."
	}
	if strings.Contains(errStr, "host key") {
		return "Host key issue. Connect once manually: ssh -p <port> <user>@<host>"
	}
	return "Something went wrong during SSH setup. Try connecting manually."
}

// EncryptedKeyError is returned when an SSH key requires a passphrase.
type EncryptedKeyError struct {
	Path string
}

func (e *EncryptedKeyError) Error() string {
	return fmt.Sprintf("SSH key at %s is encrypted (passphrase protected)", e.Path)
}

// HostKeyMismatchError provides helpful context when known_hosts verification fails.
type HostKeyMismatchError struct {
	Hostname     string
	ReceivedType string
	KnownHosts   string
	Want         []knownhosts.KnownKey
}

func (e *HostKeyMismatchError) Error() string {
	return fmt.Sprintf("host key mismatch for %s: server sent %s key", e.Hostname, e.ReceivedType)
}

// Suggestion returns actionable steps to fix the host key mismatch.
func (e *HostKeyMismatchError) Suggestion() string {
	host := e.Hostname
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	var wantTypes []string
	for _, k := range e.Want {
		wantTypes = append(wantTypes, k.Key.Type())
	}
	wantStr := "unknown"
	if len(wantTypes) > 0 {
		wantStr = strings.Join(wantTypes, ", ")
	}

	return fmt.Sprintf(
		"The server's host key doesn't match what's in known_hosts.\n"+
			"  Known types: %s\n"+
			"  Server sent: %s\n\n"+
			"  Remove the old entry:\n"+
			"    ssh-keygen -R %s",
		wantStr, e.ReceivedType, host)
}

// createHostKeyCallback wraps the knownhosts callback to provide better error messages.
func createHostKeyCallback(knownHostsPath string) (ssh.HostKeyCallback, error) {
	if _, err := os.Stat(knownHostsPath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(knownHostsPath), 0700); err != nil {
			return nil, fmt.Errorf("failed to create .ssh directory: %w", err)
		}
		if err := os.WriteFile(knownHostsPath, []byte{}, 0600); err != nil {
			return nil, fmt.Errorf("failed to create known_hosts: %w", err)
		}
	}

	callback, err := knownhosts.New(knownHostsPath)
	if err != nil {
		return nil, err
	}

	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		err := callback(hostname, remote, key)
		if err != nil {
			var keyErr *knownhosts.KeyError
			if stderrors.As(err, &keyErr) && len(keyErr.Want) > 0 {
				return &HostKeyMismatchError{
					Hostname:     hostname,
					ReceivedType: key.Type(),
					KnownHosts:   knownHostsPath,
					Want:         keyErr.Want,
				}
			}
		}
		return err
	}, nil
}
