package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"housingreview/internal/app"
	"housingreview/internal/cache/sqlite"
	"housingreview/internal/domain"
	"housingreview/internal/export"
	"housingreview/internal/loader"
	"housingreview/internal/port"
	"housingreview/internal/service"
)

var (
	runApplicationNo string
	runDual          bool
	runDeclared      map[string]string
	runFormat        string
	runOutput        string
	runNoCache       bool
)

var runCmd = &cobra.Command{
	Use:   "run FILE...",
	Short: "Review a set of application files locally",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if runFormat != "json" && runFormat != "csv" && runFormat != "xlsx" {
			return eris.Errorf("unknown format %q (json, csv, xlsx)", runFormat)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		files, err := readFiles(ctx, args, runDeclared)
		if err != nil {
			return err
		}

		var cache port.ExtractionCache
		if cfg.Cache.Path != "" && !runNoCache {
			c, err := sqlite.Open(ctx, cfg.Cache.Path, cfg.Cache.TTL)
			if err != nil {
				return eris.Wrap(err, "open extraction cache")
			}
			defer c.Close()
			cache = c
		}

		app.RegisterProviders()
		components, err := app.Build(cfg, cache)
		if err != nil {
			return err
		}

		appNo := runApplicationNo
		if appNo == "" {
			appNo = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		}
		result, err := components.Pipeline.Run(ctx, appNo, files, runDual)
		if err != nil {
			return eris.Wrap(err, "run review")
		}

		out := io.Writer(os.Stdout)
		if runOutput != "" {
			f, err := os.Create(runOutput)
			if err != nil {
				return eris.Wrapf(err, "create %s", runOutput)
			}
			defer f.Close()
			out = f
		}
		if err := writeResult(out, runFormat, appNo, result, time.Now().UTC()); err != nil {
			return err
		}

		zap.L().Info("reviewctl: review finished",
			zap.String("application_no", appNo),
			zap.String("verdict", string(result.Verdict.Status)),
			zap.Strings("supplementary", result.Verdict.SupplementaryIDs()),
		)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runApplicationNo, "application-no", "", "application number (default: first file name)")
	runCmd.Flags().BoolVar(&runDual, "dual", false, "run both extraction passes and reconcile them")
	runCmd.Flags().StringToStringVar(&runDeclared, "declare", nil, "declare a file's document type, e.g. --declare id.jpg=owner_identity")
	runCmd.Flags().StringVar(&runFormat, "format", "json", "output format: json, csv or xlsx")
	runCmd.Flags().StringVar(&runOutput, "output", "", "write the result to a file (default: stdout)")
	runCmd.Flags().BoolVar(&runNoCache, "no-cache", false, "skip the extraction cache")
	rootCmd.AddCommand(runCmd)
}

// readFiles reads paths concurrently, keeping argument order. declared maps
// a file's base name to a document type identifier or Korean label.
func readFiles(ctx context.Context, paths []string, declared map[string]string) ([]loader.File, error) {
	files := make([]loader.File, len(paths))
	g, _ := errgroup.WithContext(ctx)
	for i, p := range paths {
		g.Go(func() error {
			content, err := os.ReadFile(p)
			if err != nil {
				return eris.Wrapf(err, "read %s", p)
			}
			name := filepath.Base(p)
			f := loader.File{Name: name, Content: content}
			if raw, ok := declared[name]; ok {
				dt := domain.ParseDocumentType(raw)
				if !dt.Valid() {
					return eris.Errorf("unknown document type %q for %s", raw, name)
				}
				f.DeclaredType = dt
			}
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

type runReport struct {
	ApplicationNo  string                        `json:"application_no"`
	Verdict        *domain.Verdict               `json:"verdict"`
	Record         *domain.DocumentRecord        `json:"record"`
	Reconciliation *domain.ReconciliationOutcome `json:"reconciliation,omitempty"`
}

func writeResult(out io.Writer, format, appNo string, result *service.PipelineResult, now time.Time) error {
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(runReport{
			ApplicationNo:  appNo,
			Verdict:        result.Verdict,
			Record:         result.Record,
			Reconciliation: result.Reconciliation,
		})
	}

	review, err := reviewFromResult(appNo, result, now)
	if err != nil {
		return err
	}
	if format == "xlsx" {
		return export.WriteXLSX(out, []domain.Review{*review})
	}
	return export.WriteCSV(out, []domain.Review{*review})
}

// reviewFromResult wraps a local run in a completed Review so the export
// writers can render it.
func reviewFromResult(appNo string, result *service.PipelineResult, now time.Time) (*domain.Review, error) {
	record, err := json.Marshal(result.Record)
	if err != nil {
		return nil, eris.Wrap(err, "encode record")
	}
	verdict, err := json.Marshal(result.Verdict)
	if err != nil {
		return nil, eris.Wrap(err, "encode verdict")
	}
	status := result.Verdict.Status
	return &domain.Review{
		ID:             uuid.New(),
		ApplicationNo:  appNo,
		Status:         domain.ReviewStatusCompleted,
		DualValidation: result.Reconciliation != nil,
		Record:         record,
		Verdict:        verdict,
		VerdictStatus:  &status,
		Attempts:       1,
		SubmittedBy:    "reviewctl",
		CompletedAt:    &now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}
