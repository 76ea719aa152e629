package cmd

import (
	"fmt"

	"github.com/hupe1980/facetidx"
	"github.com/spf13/cobra"
)

var pruneKeep int

// snapshotsCmd represents the snapshots command
var snapshotsCmd = &cobra.Command{
	Use:   "snapshots [store]",
	Short: "snapshots lists the snapshot versions of a store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStore(ctx, args[0])
		if err != nil {
			return err
		}
		versions, err := facetidx.Snapshots(ctx, store)
		if err != nil {
			return err
		}
		for _, v := range versions {
			fmt.Println(facetidx.SnapshotName(v))
		}
		return nil
	},
}

// pruneCmd represents the prune command
var pruneCmd = &cobra.Command{
	Use:   "prune [store]",
	Short: "prune deletes old snapshots",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStore(ctx, args[0])
		if err != nil {
			return err
		}
		n, err := facetidx.PruneSnapshots(ctx, store, pruneKeep)
		if err != nil {
			return err
		}
		fmt.Printf("deleted %d snapshots\n", n)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(snapshotsCmd)
	RootCmd.AddCommand(pruneCmd)
	pruneCmd.Flags().IntVar(&pruneKeep, "keep", 3, "newest snapshots to keep")
}
