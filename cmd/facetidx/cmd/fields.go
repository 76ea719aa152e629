package cmd

import (
	"fmt"
	"time"

	"github.com/hupe1980/facetidx"
	"github.com/spf13/cobra"
)

// fieldsCmd represents the fields command
var fieldsCmd = &cobra.Command{
	Use:   "fields [store]",
	Short: "fields prints the faceted fields of the latest snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStore(ctx, args[0])
		if err != nil {
			return err
		}
		idx, err := loadIndex(ctx, store, false)
		if err != nil {
			return err
		}
		defer func() { _ = idx.Close() }()

		return idx.View(func(txn *facetidx.Txn) error {
			if updated, ok, err := idx.UpdatedAt(txn); err != nil {
				return err
			} else if ok {
				fmt.Printf("levels updated at %s\n", updated.Format(time.RFC3339))
			}

			fids, err := idx.FacetedFieldIDs(txn)
			if err != nil {
				return err
			}
			for _, fid := range fids {
				numberDocs, err := idx.NumberFacetedDocumentsIDs(txn, fid)
				if err != nil {
					return err
				}
				stringDocs, err := idx.StringFacetedDocumentsIDs(txn, fid)
				if err != nil {
					return err
				}
				numbers, strs, err := idx.LevelCount(txn, fid)
				if err != nil {
					return err
				}
				fmt.Printf("field %d: %d number docs in %d levels, %d string docs in %d levels\n",
					fid, numberDocs.Cardinality(), numbers, stringDocs.Cardinality(), strs)
			}
			return nil
		})
	},
}

func init() {
	RootCmd.AddCommand(fieldsCmd)
}
