package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rudransh-shrivastava/webrtc-direct/internal/peerstore"
	"github.com/rudransh-shrivastava/webrtc-direct/internal/webrtcdirect"
)

func newPeersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "peers",
		Short: "list recorded dials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.conf.Peerstore.Path == "" {
				return errors.New("peer store is disabled")
			}

			store, err := peerstore.Open(a.conf.Peerstore.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.List(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "WHEN\tPEER\tRESULT\tADDRESS")
			for _, r := range records {
				result := "ok"
				if !r.Succeeded {
					result = "failed: " + r.Error
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.DialledAt.Format(time.DateTime), r.PeerID, result, r.Address)
			}
			return tw.Flush()
		},
	}
}

func newListenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listen address",
		Short: "not supported: webrtc-direct only dials",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return webrtcdirect.Listen(args[0])
		},
	}
}
