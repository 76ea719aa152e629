package cmd

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"slices"
	"strconv"

	"github.com/hupe1980/facetidx"
	"github.com/spf13/cobra"
)

var (
	importFields  map[string]int
	importRebuild bool
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import [store] [ndjson]",
	Short: "import adds documents to level 0 of the faceted fields",
	Long: `The import command reads one JSON document per line, e.g.
{"id": 7, "price": 9.99, "color": ["Blue", "Red"]}, and adds the values of
every --field to level 0. Numbers become number facets; strings and
booleans become string facets.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(importFields) == 0 {
			return fmt.Errorf("must specify at least one --field name=id")
		}
		fields := make(map[string]facetidx.FieldID, len(importFields))
		for name, id := range importFields {
			if id < 0 || id > math.MaxUint16 {
				return fmt.Errorf("field %s: id %d out of range", name, id)
			}
			fields[name] = facetidx.FieldID(id)
		}

		opts, err := rebuildOptions()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		store, err := openStore(ctx, args[0])
		if err != nil {
			return err
		}
		idx, err := loadIndex(ctx, store, true)
		if err != nil {
			return err
		}
		defer func() { _ = idx.Close() }()

		f, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close()

		docs := 0
		err = idx.Update(func(txn *facetidx.Txn) error {
			faceted, err := idx.FacetedFieldIDs(txn)
			if err != nil {
				return err
			}
			for _, fid := range fields {
				faceted = append(faceted, fid)
			}
			if err := idx.SetFacetedFields(txn, faceted); err != nil {
				return err
			}

			scanner := bufio.NewScanner(f)
			scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
			for line := 1; scanner.Scan(); line++ {
				if len(scanner.Bytes()) == 0 {
					continue
				}
				if err := importDocument(idx, txn, fields, scanner.Bytes()); err != nil {
					return fmt.Errorf("line %d: %w", line, err)
				}
				docs++
			}
			return scanner.Err()
		})
		if err != nil {
			return err
		}

		if importRebuild {
			if err := idx.RecomputeFacetLevels(ctx, opts...); err != nil {
				return err
			}
		}
		name, err := idx.Save(ctx, store, facetidx.WithLogger(logger))
		if err != nil {
			return err
		}
		fmt.Printf("imported %d documents into %s\n", docs, name)
		return nil
	},
}

func importDocument(idx *facetidx.Index, txn *facetidx.Txn, fields map[string]facetidx.FieldID, data []byte) error {
	var doc map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return err
	}

	rawID, ok := doc["id"].(json.Number)
	if !ok {
		return fmt.Errorf("missing numeric id")
	}
	id, err := strconv.ParseUint(rawID.String(), 10, 32)
	if err != nil {
		return fmt.Errorf("id %s: %w", rawID, err)
	}
	docid := uint32(id)

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		if err := addValue(idx, txn, fields[name], doc[name], docid); err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
	}
	return nil
}

func addValue(idx *facetidx.Index, txn *facetidx.Txn, fid facetidx.FieldID, value any, docid uint32) error {
	switch v := value.(type) {
	case nil:
		return nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return err
		}
		return idx.AddNumberFacetValue(txn, fid, f, docid)
	case string:
		return idx.AddStringFacetValue(txn, fid, v, docid)
	case bool:
		return idx.AddStringFacetValue(txn, fid, strconv.FormatBool(v), docid)
	case []any:
		for _, elem := range v {
			if err := addValue(idx, txn, fid, elem, docid); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported value %T", value)
	}
}

func init() {
	RootCmd.AddCommand(importCmd)
	importCmd.Flags().StringToIntVar(&importFields, "field", nil, "faceted field as name=id, repeatable")
	importCmd.Flags().BoolVar(&importRebuild, "rebuild", false, "rebuild the facet levels before saving")
	addRebuildFlags(importCmd)
}
