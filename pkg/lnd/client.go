package lnd

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
)

// ErrInvalidPubkey is returned for node keys that are not compressed secp256k1 points
var ErrInvalidPubkey = errors.New("invalid node public key")

// Runner executes lncli with the given arguments and returns stdout
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Client is a thin wrapper around lncli commands
type Client struct {
	cfg Config
	run Runner
}

// execRunner runs the command and folds stderr into the returned error
func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.Output()
	if err != nil {
		// If there's an error, try to get stderr for more details
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return nil, fmt.Errorf("lncli command failed: %v, stderr: %s", err, string(exitError.Stderr))
		}
		return nil, fmt.Errorf("lncli command failed: %w", err)
	}
	return output, nil
}

// NewClient creates a client that shells out to lncli
func NewClient(cfg Config) *Client {
	return NewClientWithRunner(cfg, execRunner)
}

// NewClientWithRunner creates a client with a custom command runner
func NewClientWithRunner(cfg Config, run Runner) *Client {
	if cfg.LncliPath == "" {
		cfg.LncliPath = "lncli"
	}
	return &Client{cfg: cfg, run: run}
}

var (
	sharedMu     sync.Mutex
	sharedClient *Client
)

// Shared returns the process-wide client, creating it on first use or when
// the connection settings change.
func Shared(cfg Config) *Client {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if sharedClient == nil || sharedClient.cfg != withDefaults(cfg) {
		sharedClient = NewClient(cfg)
	}
	return sharedClient
}

func withDefaults(cfg Config) Config {
	if cfg.LncliPath == "" {
		cfg.LncliPath = "lncli"
	}
	return cfg
}

// globalArgs returns the connection flags that precede the lncli subcommand
func (c *Client) globalArgs() []string {
	var args []string
	if c.cfg.RPCServer != "" {
		args = append(args, "--rpcserver", c.cfg.RPCServer)
	}
	if c.cfg.TLSCertPath != "" {
		args = append(args, "--tlscertpath", c.cfg.TLSCertPath)
	}
	if c.cfg.MacaroonPath != "" {
		args = append(args, "--macaroonpath", c.cfg.MacaroonPath)
	}
	if c.cfg.Network != "" {
		args = append(args, "--network", c.cfg.Network)
	}
	return args
}

// RunLNCLI executes an lncli subcommand and returns the output
func (c *Client) RunLNCLI(ctx context.Context, args ...string) ([]byte, error) {
	full := append(c.globalArgs(), args...)
	return c.run(ctx, c.cfg.LncliPath, full...)
}

// Ping checks LND connectivity
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.RunLNCLI(ctx, "getinfo"); err != nil {
		return fmt.Errorf("failed to connect to LND: %w", err)
	}
	return nil
}

// ListChannels retrieves all channels from LND
func (c *Client) ListChannels(ctx context.Context) ([]Channel, error) {
	output, err := c.RunLNCLI(ctx, "listchannels")
	if err != nil {
		return nil, err
	}

	var response ChannelResponse
	if err := json.Unmarshal(output, &response); err != nil {
		return nil, fmt.Errorf("failed to parse listchannels output: %w", err)
	}

	return response.Channels, nil
}

// LookupNodeAlias retrieves the advertised node info for a given pubkey.
// The alias may be empty when the node has not announced one.
func (c *Client) LookupNodeAlias(ctx context.Context, pubkey string) (NodeInfo, error) {
	if err := ValidatePubkey(pubkey); err != nil {
		return NodeInfo{}, err
	}

	output, err := c.RunLNCLI(ctx, "getnodeinfo", "--pub_key", pubkey)
	if err != nil {
		return NodeInfo{}, err
	}

	var response NodeResponse
	if err := json.Unmarshal(output, &response); err != nil {
		return NodeInfo{}, fmt.Errorf("failed to parse getnodeinfo output: %w", err)
	}

	return response.Node, nil
}

// ValidatePubkey checks that pubkey is a hex encoded compressed secp256k1 key
func ValidatePubkey(pubkey string) error {
	raw, err := hex.DecodeString(pubkey)
	if err != nil {
		return fmt.Errorf("%w: %q is not hex", ErrInvalidPubkey, pubkey)
	}
	if len(raw) != btcec.PubKeyBytesLenCompressed {
		return fmt.Errorf("%w: %q has %d bytes", ErrInvalidPubkey, pubkey, len(raw))
	}
	if _, err := btcec.ParsePubKey(raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPubkey, err)
	}
	return nil
}

// ShortPubkey truncates a pubkey for display when no alias is known
func ShortPubkey(pubkey string) string {
	if len(pubkey) > 12 {
		return pubkey[:12] + "..."
	}
	return pubkey
}
