package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/rudransh-shrivastava/webrtc-direct/internal/address"
	"github.com/rudransh-shrivastava/webrtc-direct/internal/identity"
	"github.com/rudransh-shrivastava/webrtc-direct/internal/peerstore"
	"github.com/rudransh-shrivastava/webrtc-direct/internal/stream"
	"github.com/rudransh-shrivastava/webrtc-direct/internal/transport"
	"github.com/rudransh-shrivastava/webrtc-direct/internal/transport/webrtc"
	"github.com/rudransh-shrivastava/webrtc-direct/internal/webrtcdirect"
)

func (a *app) newTransport() (*webrtcdirect.Transport, error) {
	key, err := identity.Load(a.conf.Identity.KeyFile)
	if err != nil {
		return nil, err
	}

	policy, err := webrtcdirect.ParseVerifyPolicy(a.conf.Dial.Verification)
	if err != nil {
		return nil, err
	}

	sessions, err := webrtc.NewSessionFactory(webrtc.Options{Logger: a.log})
	if err != nil {
		return nil, err
	}

	return webrtcdirect.New(webrtcdirect.Options{
		Identity:     key,
		Sessions:     sessions,
		Logger:       a.log,
		DialTimeout:  a.conf.DialTimeout(),
		Verification: policy,
		ChannelLabel: a.conf.Dial.ChannelLabel,
	})
}

func newDialCmd(a *app) *cobra.Command {
	var sendPath string

	cmd := &cobra.Command{
		Use:   "dial address",
		Short: "dial a peer and pipe stdin/stdout over the data channel",
		Long: `dial a webrtc-direct address such as
/ip4/127.0.0.1/tcp/9090/http/p2p-webrtc-direct/p2p/<peer-id>
and copy stdin to the channel and the channel to stdout, or send a file with --send`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			tr, err := a.newTransport()
			if err != nil {
				return err
			}

			conn, err := tr.Dial(ctx, args[0])
			a.recordDial(ctx, args[0], conn, err)
			if err != nil {
				return err
			}
			defer func() {
				if err := conn.Shutdown(); err != nil {
					a.log.Debugf("Failed to shut down connection: %v", err)
				}
			}()

			a.log.Infof("Connected to %s", args[0])

			if sendPath != "" {
				return sendFile(ctx, cmd, conn, sendPath)
			}
			return pipe(ctx, cmd, conn)
		},
	}

	cmd.Flags().StringVar(&sendPath, "send", "", "send this file instead of stdin")
	return cmd
}

// recordDial stores the outcome when a peer store is configured. Addresses
// that do not parse were never dialled and are not recorded.
func (a *app) recordDial(ctx context.Context, raw string, conn *stream.Conn, dialErr error) {
	if a.conf.Peerstore.Path == "" {
		return
	}
	addr, err := address.Parse(raw)
	if err != nil {
		return
	}

	store, err := peerstore.Open(a.conf.Peerstore.Path)
	if err != nil {
		a.log.Warnf("Failed to open peer store: %v", err)
		return
	}
	defer store.Close()

	rec := peerstore.Record{
		PeerID:    addr.PeerID(),
		Address:   addr.String(),
		Succeeded: dialErr == nil,
	}
	if conn != nil {
		rec.RemotePublicKey = conn.RemotePublicKey()
	}
	if dialErr != nil {
		rec.Error = dialErr.Error()
	}

	if _, err := store.RecordDial(ctx, rec); err != nil {
		a.log.Warnf("Failed to record dial: %v", err)
	}
}

func sendFile(ctx context.Context, cmd *cobra.Command, conn *stream.Conn, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	bar := progressbar.NewOptions64(info.Size(),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetDescription("sending "+filepath.Base(path)),
		progressbar.OptionShowBytes(true),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(cmd.ErrOrStderr())
		}),
	)

	w := conn.ReadWriteCloser(ctx)
	if _, err := io.Copy(w, io.TeeReader(f, bar)); err != nil {
		return fmt.Errorf("failed to send %s: %w", path, err)
	}
	return bar.Finish()
}

// pipe copies stdin to the channel and the channel to stdout. It returns
// once the remote side closes the channel or ctx ends.
func pipe(ctx context.Context, cmd *cobra.Command, conn *stream.Conn) error {
	rwc := conn.ReadWriteCloser(ctx)

	received := make(chan error, 1)
	go func() {
		_, err := io.Copy(cmd.OutOrStdout(), rwc)
		received <- err
	}()

	sent := make(chan error, 1)
	go func() {
		_, err := io.Copy(rwc, cmd.InOrStdin())
		sent <- err
	}()

	select {
	case err := <-received:
		return err
	case err := <-sent:
		if err != nil && !errors.Is(err, transport.ErrNotOpen) {
			return err
		}
	case <-ctx.Done():
		return nil
	}

	select {
	case err := <-received:
		return err
	case <-ctx.Done():
		return nil
	}
}
