package main

import (
	"fmt"
	"os"
	"runtime"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eljefe6a/kite/pkg/config"
	"github.com/eljefe6a/kite/pkg/dataset"
	"github.com/eljefe6a/kite/pkg/entity"
	"github.com/eljefe6a/kite/pkg/json"
	"github.com/eljefe6a/kite/pkg/logger"
	"github.com/eljefe6a/kite/pkg/schema"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "kite",
		Short: "kite - columnar entity mapping toolkit",
		Long: `kite maps schema-described logical entities onto a column-oriented storage
layout: key-mapped fields form the composite row key, column-mapped fields
become single columns, and keyAsColumn fields spread across many columns.`,
	}

	var configFile string
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to YAML tool configuration")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg := config.DefaultToolConfig()
		if configFile != "" {
			if err := config.Load(configFile, cfg); err != nil {
				return err
			}
		}
		return logger.Init(cfg.Logging)
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("kite v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(inspectCommand())
	root.AddCommand(composeCommand())

	if err := root.Execute(); err != nil {
		logger.Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}

// inspectCommand prints a schema's field mappings and key layout.
func inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <schema.avsc>",
		Short: "Show a schema's field mappings and composite key layout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			es, err := loadSchema(args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Entity: %s\n", es.Record().Name)
			fmt.Printf("Fingerprint: %s\n", es.Fingerprint())
			fmt.Printf("Key parts: %d\n\n", es.KeyFieldCount())

			keyed := make([]string, es.KeyFieldCount())
			fmt.Println("Fields:")
			for _, fm := range es.FieldMappings() {
				f, _ := es.Record().Field(fm.FieldName)
				switch fm.Type {
				case schema.MappingKey:
					fmt.Printf("  %-20s %-8s key[%d]\n", fm.FieldName, f.Type.Kind, fm.Ordinal)
					keyed[fm.Ordinal] = fm.FieldName
				case schema.MappingColumn:
					fmt.Printf("  %-20s %-8s column %q\n", fm.FieldName, f.Type.Kind, fm.Value)
				case schema.MappingKeyAsColumn:
					fmt.Printf("  %-20s %-8s keyAsColumn\n", fm.FieldName, f.Type.Kind)
				}
			}

			fmt.Println("\nRow key order:")
			for i, name := range keyed {
				fmt.Printf("  [%d] %s\n", i, name)
			}
			return nil
		},
	}
}

// composeCommand decomposes a JSON entity into its row key and columns.
func composeCommand() *cobra.Command {
	var schemaPath, entityPath string

	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Decompose a JSON entity into row key and column values",
		RunE: func(cmd *cobra.Command, args []string) error {
			es, err := loadSchema(schemaPath)
			if err != nil {
				return err
			}
			composer, err := entity.NewComposer(es, false)
			if err != nil {
				return err
			}

			raw, err := os.ReadFile(entityPath) //nolint:gosec
			if err != nil {
				return err
			}
			var fields map[string]interface{}
			if err := json.Unmarshal(raw, &fields); err != nil {
				return fmt.Errorf("entity file is not a JSON object: %w", err)
			}

			e, err := buildEntity(composer, es, fields)
			if err != nil {
				return err
			}

			parts, err := composer.PartitionKeyParts(e)
			if err != nil {
				return err
			}
			rowKey, err := dataset.EncodeRowKey(parts)
			if err != nil {
				return err
			}

			columns := make(map[string]interface{})
			for _, fm := range es.FieldMappings() {
				switch fm.Type {
				case schema.MappingColumn:
					v, err := composer.ExtractField(e, fm.FieldName)
					if err != nil {
						return err
					}
					columns[fm.Value] = v
				case schema.MappingKeyAsColumn:
					v, err := composer.ExtractField(e, fm.FieldName)
					if err != nil || v == nil {
						continue
					}
					kac, err := composer.ExtractKeyAsColumnValues(fm.FieldName, v)
					if err != nil {
						return err
					}
					for k, kv := range kac {
						columns[fm.FieldName+"."+k] = kv
					}
				}
			}

			fmt.Printf("row key: %s\n", rowKey)
			names := make([]string, 0, len(columns))
			for name := range columns {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				out, _ := json.Marshal(columns[name])
				fmt.Printf("  %-24s %s\n", name, out)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&schemaPath, "schema", "", "path to entity schema JSON")
	cmd.Flags().StringVar(&entityPath, "entity", "", "path to entity value JSON")
	_ = cmd.MarkFlagRequired("schema")
	_ = cmd.MarkFlagRequired("entity")
	return cmd
}

func loadSchema(path string) (*schema.EntitySchema, error) {
	raw, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, err
	}
	return schema.Parse(string(raw))
}

// buildEntity assembles a dynamic entity from decoded JSON field values,
// coercing JSON numbers to the widths the schema declares.
func buildEntity(composer *entity.Composer, es *schema.EntitySchema, fields map[string]interface{}) (interface{}, error) {
	b := composer.Builder()
	for name, v := range fields {
		f, ok := es.Record().Field(name)
		if !ok {
			return nil, fmt.Errorf("entity file mentions unknown field %q", name)
		}
		switch f.Type.Kind {
		case schema.KindMap, schema.KindRecord:
			m, ok := v.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("field %q must be a JSON object", name)
			}
			coerced := make(map[string]interface{}, len(m))
			var inner *schema.ValueType
			if f.Type.Kind == schema.KindMap {
				inner = f.Type.Values
			}
			for k, mv := range m {
				vt := inner
				if vt == nil {
					nf, ok := f.Type.Record.Field(k)
					if !ok {
						return nil, fmt.Errorf("field %q has no entry %q", name, k)
					}
					vt = nf.Type
				}
				coerced[k] = coerceScalar(vt.Kind, mv)
			}
			fv, err := composer.BuildKeyAsColumnField(name, coerced)
			if err != nil {
				return nil, err
			}
			b.Put(name, fv)
		default:
			b.Put(name, coerceScalar(f.Type.Kind, v))
		}
	}
	return b.Build()
}

// coerceScalar narrows JSON's float64 numbers to the declared kind.
func coerceScalar(kind schema.Kind, v interface{}) interface{} {
	n, isNumber := v.(float64)
	if !isNumber {
		return v
	}
	switch kind {
	case schema.KindInt:
		return int32(n)
	case schema.KindLong:
		return int64(n)
	case schema.KindFloat:
		return float32(n)
	default:
		return n
	}
}
