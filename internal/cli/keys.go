package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rudransh-shrivastava/webrtc-direct/internal/identity"
	"github.com/rudransh-shrivastava/webrtc-direct/internal/signal"
)

func newKeygenCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "generate an identity key",
		Long:  `generate a new Ed25519 identity and write it to --out, or to identity.key_file from the config`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				out = a.conf.Identity.KeyFile
			}

			key, err := identity.Generate()
			if err != nil {
				return err
			}
			if err := key.Save(out); err != nil {
				return err
			}

			a.log.Infof("Wrote identity to %s", out)
			fmt.Fprintln(cmd.OutOrStdout(), key.PeerID())
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "file to write the key to")
	return cmd
}

func newIDCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "id",
		Short: "print the local peer id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := identity.Load(a.conf.Identity.KeyFile)
			if err != nil {
				return err
			}
			pub, err := key.PublicKey()
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "peer id:    %s\npublic key: %s\n", key.PeerID(), signal.EncodeBytes(pub))
			return nil
		},
	}
}
