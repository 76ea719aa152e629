package cmd

import (
	"fmt"
	"math"
	"strconv"

	"github.com/hupe1980/facetidx"
	"github.com/spf13/cobra"
)

var levelsMax int

// levelsCmd represents the levels command
var levelsCmd = &cobra.Command{
	Use:   "levels [store] [field-id]",
	Short: "levels prints every facet level of a field",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[1], 10, 16)
		if err != nil {
			return fmt.Errorf("invalid field id %q", args[1])
		}
		fid := facetidx.FieldID(id)

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
			numbers, strs, err := idx.LevelCount(txn, fid)
			if err != nil {
				return err
			}
			for level := 0; level < numbers && level <= math.MaxUint8; level++ {
				entries, err := idx.NumberLevel(txn, fid, uint8(level))
				if err != nil {
					return err
				}
				fmt.Printf("number level %d: %d entries\n", level, len(entries))
				for i, e := range entries {
					if levelsMax > 0 && i == levelsMax {
						fmt.Printf("  ... %d more\n", len(entries)-i)
						break
					}
					fmt.Printf("  [%g, %g] %d docs\n", e.Left, e.Right, e.DocIDs.Cardinality())
				}
			}
			for level := 0; level < strs && level <= math.MaxUint8; level++ {
				entries, err := idx.StringLevel(txn, fid, uint8(level))
				if err != nil {
					return err
				}
				fmt.Printf("string level %d: %d entries\n", level, len(entries))
				for i, e := range entries {
					if levelsMax > 0 && i == levelsMax {
						fmt.Printf("  ... %d more\n", len(entries)-i)
						break
					}
					switch {
					case level == 0:
						fmt.Printf("  %q (%q) %d docs\n", e.Left, e.Original, e.DocIDs.Cardinality())
					case level == 1:
						fmt.Printf("  #%d-#%d [%q, %q] %d docs\n", e.LeftOrdinal, e.RightOrdinal, e.Left, e.Right, e.DocIDs.Cardinality())
					default:
						fmt.Printf("  #%d-#%d %d docs\n", e.LeftOrdinal, e.RightOrdinal, e.DocIDs.Cardinality())
					}
				}
			}
			return nil
		})
	},
}

func init() {
	RootCmd.AddCommand(levelsCmd)
	levelsCmd.Flags().IntVar(&levelsMax, "max-entries", 20, "entries printed per level, 0 for all")
}
