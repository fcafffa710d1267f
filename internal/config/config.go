// Package config loads the dialer's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"
)

const (
	DefaultDialTimeout  = 30 * time.Second
	DefaultChannelLabel = "data"
	DefaultLogLevel     = "info"
	DefaultKeyFile      = "identity.key"
	DefaultPeerstore    = "peers.sqlite3"

	VerificationStrict  = "strict"
	VerificationLenient = "lenient"
)

// Config is the decoded configuration file.
type Config struct {
	Identity  IdentityConf  `toml:"identity"`
	Dial      DialConf      `toml:"dial"`
	Log       LogConf       `toml:"log"`
	Peerstore PeerstoreConf `toml:"peerstore"`
}

// IdentityConf describes the [identity] block.
type IdentityConf struct {
	KeyFile string `toml:"key_file"`
}

// DialConf describes the [dial] block.
type DialConf struct {
	Timeout      string `toml:"timeout"`
	Verification string `toml:"verification"`
	ChannelLabel string `toml:"channel_label"`
}

// LogConf describes the [log] block.
type LogConf struct {
	Level string `toml:"level"`
}

// PeerstoreConf describes the [peerstore] block. An empty path disables
// the store.
type PeerstoreConf struct {
	Path string `toml:"path"`
}

func Default() Config {
	return Config{
		Identity: IdentityConf{KeyFile: DefaultKeyFile},
		Dial: DialConf{
			Timeout:      DefaultDialTimeout.String(),
			Verification: VerificationStrict,
			ChannelLabel: DefaultChannelLabel,
		},
		Log:       LogConf{Level: DefaultLogLevel},
		Peerstore: PeerstoreConf{Path: DefaultPeerstore},
	}
}

// Load decodes the file at path over the defaults. Keys the file sets but
// Config does not know are an error.
func Load(path string) (Config, error) {
	conf := Default()

	md, err := toml.DecodeFile(path, &conf)
	if err != nil {
		return Config{}, fmt.Errorf("failed to decode config %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}

	if err := conf.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return conf, nil
}

func (c Config) Validate() error {
	var errs *multierror.Error

	if c.Identity.KeyFile == "" {
		errs = multierror.Append(errs, errors.New("identity.key_file must not be empty"))
	}
	if d, err := time.ParseDuration(c.Dial.Timeout); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("dial.timeout: %w", err))
	} else if d <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("dial.timeout must be positive, got %s", d))
	}
	switch c.Dial.Verification {
	case VerificationStrict, VerificationLenient:
	default:
		errs = multierror.Append(errs, fmt.Errorf("dial.verification must be %q or %q, got %q",
			VerificationStrict, VerificationLenient, c.Dial.Verification))
	}
	if c.Dial.ChannelLabel == "" {
		errs = multierror.Append(errs, errors.New("dial.channel_label must not be empty"))
	}

	return errs.ErrorOrNil()
}

// DialTimeout is the parsed dial.timeout, falling back to the default when
// it does not parse.
func (c Config) DialTimeout() time.Duration {
	d, err := time.ParseDuration(c.Dial.Timeout)
	if err != nil || d <= 0 {
		return DefaultDialTimeout
	}
	return d
}
