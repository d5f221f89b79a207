package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrF0o/jhp"
	"github.com/MrF0o/jhp/blob"
	"github.com/MrF0o/jhp/codec"
	"github.com/MrF0o/jhp/native"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readInput reads the named file, or stdin for "" and "-".
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "" || name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(name)
}

// withDB opens a session for one command and closes it afterwards.
func (a *app) withDB(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) (err error) {
	ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Timeout)
	defer cancel()

	s, err := open(ctx, a.cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.close(context.WithoutCancel(ctx)); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(ctx, s)
}

func (a *app) blobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blob",
		Short: "Convert between raw bytes and blob descriptors",
	}

	var from string
	encode := &cobra.Command{
		Use:   "encode [file|-]",
		Short: "Print the {data, length} descriptor of a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readInput(cmd, firstArg(args))
			if err != nil {
				return err
			}
			var src any = in
			switch blob.Encoding(from) {
			case blob.EncodingBase64:
				src = string(trimNewline(in))
			case blob.EncodingUTF8:
				src = codec.DecodeUTF8(in)
			}
			d, err := blob.FromSource(src, blob.Encoding(from))
			if err != nil {
				return err
			}
			if d == nil {
				d = &blob.Descriptor{}
			}
			return writeJSON(cmd.OutOrStdout(), d)
		},
	}
	encode.Flags().StringVar(&from, "from", string(blob.EncodingBytes), "input form: bytes, base64 or utf8")

	var asText bool
	decode := &cobra.Command{
		Use:   "decode [descriptor-json|-]",
		Short: "Write the bytes held by a descriptor",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw []byte
			if len(args) == 1 && args[0] != "-" {
				raw = []byte(args[0])
			} else {
				var err error
				if raw, err = readInput(cmd, "-"); err != nil {
					return err
				}
			}
			v, err := codec.JSON[any]{}.Decode(raw)
			if err != nil {
				return fmt.Errorf("descriptor: %w", err)
			}
			d := native.Normalize(v)
			if asText {
				s, err := blob.ToText(d, "")
				if err != nil {
					return err
				}
				_, err = io.WriteString(cmd.OutOrStdout(), s)
				return err
			}
			b, err := blob.ToBytes(d)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
	decode.Flags().BoolVar(&asText, "text", false, "decode the bytes as UTF-8 text")

	cmd.AddCommand(encode, decode)
	return cmd
}

func (a *app) execCmd() *cobra.Command {
	var positional, named []string
	cmd := &cobra.Command{
		Use:   "exec SQL",
		Short: "Run a statement that returns no rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(positional, named)
			if err != nil {
				return err
			}
			return a.withDB(cmd, func(ctx context.Context, s *session) error {
				res, err := s.db.Exec(ctx, args[0], params)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"rowsAffected":    res.RowsAffected,
					"lastInsertRowId": res.LastInsertRowID,
				})
			})
		},
	}
	addParamFlags(cmd, &positional, &named)
	return cmd
}

func (a *app) queryCmd() *cobra.Command {
	var (
		positional, named []string
		limit, repeat     int
		useCache          bool
	)
	cmd := &cobra.Command{
		Use:   "query SQL",
		Short: "Run a statement and print its rows as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(positional, named)
			if err != nil {
				return err
			}
			if repeat < 1 {
				repeat = 1
			}
			return a.withDB(cmd, func(ctx context.Context, s *session) error {
				var res *jhp.QueryResult
				for i := 0; i < repeat; i++ {
					start := time.Now()
					res, err = s.db.Query(ctx, args[0], params, jhp.QueryOptions{Limit: limit, Cache: useCache})
					if err != nil {
						return err
					}
					s.log.Debug("query done", jhp.Fields{"run": i + 1, "took": time.Since(start), "rows": len(res.Rows)})
				}
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"columns": res.Columns,
					"rows":    res.Rows,
				})
			})
		},
	}
	addParamFlags(cmd, &positional, &named)
	cmd.Flags().IntVar(&limit, "limit", 0, "max rows to return (0 = all)")
	cmd.Flags().BoolVar(&useCache, "cached", false, "serve from and fill the query cache")
	cmd.Flags().IntVar(&repeat, "repeat", 1, "run the query this many times, printing the last result")
	return cmd
}

func (a *app) pragmaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pragma NAME [VALUE]",
		Short: "Read or set a pragma",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var value any
			if len(args) == 2 {
				value = args[1]
			}
			return a.withDB(cmd, func(ctx context.Context, s *session) error {
				res, err := s.db.Pragma(ctx, args[0], value)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), res.Rows)
			})
		},
	}
}

func addParamFlags(cmd *cobra.Command, positional, named *[]string) {
	cmd.Flags().StringArrayVarP(positional, "param", "p", nil, "positional parameter (JSON literal, @file or blob:<base64>)")
	cmd.Flags().StringArrayVarP(named, "named", "n", nil, "named parameter as name=value")
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
