package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PhucNguyen204/sigma2padas/internal/output"
	"github.com/PhucNguyen204/sigma2padas/internal/rules"
)

// runConvert loads input, converts every rule and writes output. Any failure
// leaves output untouched.
func runConvert(cmd *cobra.Command, opts *RootOptions, input, out string) error {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return err
	}
	log := opts.logger(cfg)

	loaded, err := rules.Load(input)
	if err != nil {
		return fmt.Errorf("load %s: %w", input, err)
	}
	conv, err := newConverter(cfg, log)
	if err != nil {
		return err
	}
	res, err := conv.Convert(loaded)
	if err != nil {
		return err
	}

	if cfg.DSN != "" {
		st, db, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := st.UpsertRules(cmd.Context(), res.Records); err != nil {
			return err
		}
		log.Info().Int("rules", len(res.Records)).Msg("rules stored")
	}

	if err := output.WriteFile(out, res.Records, cfg.Indent); err != nil {
		return err
	}
	log.Info().
		Str("input", input).
		Str("output", out).
		Int("rules", res.ProcessedRules).
		Dur("took", res.ProcessingTime).
		Msg("conversion done")
	fmt.Fprintf(cmd.OutOrStdout(), "Converted %d Sigma rules to PADAS rules: %s\n", res.ProcessedRules, out)
	return nil
}
