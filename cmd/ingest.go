package main

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/company-k/purchasing-cli/internal/retrieval"
)

// ingestConcurrency bounds parallel embedding calls during corpus ingestion.
const ingestConcurrency = 4

var ingestManifest string

// manifestFile maps collections to file globs, relative to the manifest's
// directory:
//
//	supplier_history:
//	  - corpus/suppliers/*.md
//	email_examples:
//	  - corpus/emails/*.txt
type manifestFile map[string][]string

var ingestCmd = &cobra.Command{
	Use:   "ingest [collection] [path]",
	Short: "Ingest history and example documents into the retrieval store",
	Long: "Chunks and embeds plain-text or markdown documents into a retrieval collection. " +
		"Pass a collection and a file or directory, or --manifest to load a collection-to-glob map. " +
		"Collections: " + strings.Join(retrieval.Collections(), ", ") + ".",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("ingest"); err != nil {
			return err
		}

		st, provider, err := initProvider(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		targets, err := ingestTargets(args)
		if err != nil {
			return err
		}
		if len(targets) == 0 {
			return eris.New("no documents matched")
		}

		var chunks atomic.Int64
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(ingestConcurrency)
		for _, target := range targets {
			g.Go(func() error {
				content, err := os.ReadFile(target.path)
				if err != nil {
					return eris.Wrapf(err, "read %s", target.path)
				}
				n, err := provider.Ingest(gctx, target.collection, []retrieval.Document{{
					Content:  string(content),
					Metadata: map[string]string{"source": filepath.Base(target.path)},
				}})
				if err != nil {
					return eris.Wrapf(err, "ingest %s", target.path)
				}
				chunks.Add(int64(n))
				zap.L().Info("document ingested",
					zap.String("collection", target.collection),
					zap.String("file", target.path),
					zap.Int("chunks", n),
				)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		zap.L().Info("ingestion complete",
			zap.Int("documents", len(targets)),
			zap.Int64("chunks", chunks.Load()),
		)
		return nil
	},
}

type ingestTarget struct {
	collection string
	path       string
}

// ingestTargets resolves the command arguments into (collection, file)
// pairs, either from a manifest or from a collection plus path.
func ingestTargets(args []string) ([]ingestTarget, error) {
	if ingestManifest != "" {
		return manifestTargets(ingestManifest)
	}

	if len(args) != 2 {
		return nil, eris.New("expected <collection> <path> (or --manifest)")
	}
	collection, root := args[0], args[1]
	if !retrieval.ValidCollection(collection) {
		return nil, eris.Errorf("unknown collection %q; valid: %s",
			collection, strings.Join(retrieval.Collections(), ", "))
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, eris.Wrap(err, "stat path")
	}
	if !info.IsDir() {
		return []ingestTarget{{collection: collection, path: root}}, nil
	}

	var targets []ingestTarget
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !textDocument(path) {
			return nil
		}
		targets = append(targets, ingestTarget{collection: collection, path: path})
		return nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "walk directory")
	}
	return targets, nil
}

// manifestTargets loads a collection-to-glob map; globs resolve relative to
// the manifest's directory.
func manifestTargets(path string) ([]ingestTarget, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "read manifest")
	}
	var manifest manifestFile
	if err := yaml.Unmarshal(content, &manifest); err != nil {
		return nil, eris.Wrap(err, "parse manifest")
	}

	base := filepath.Dir(path)
	var targets []ingestTarget
	for collection, patterns := range manifest {
		if !retrieval.ValidCollection(collection) {
			return nil, eris.Errorf("manifest: unknown collection %q", collection)
		}
		for _, pattern := range patterns {
			if !filepath.IsAbs(pattern) {
				pattern = filepath.Join(base, pattern)
			}
			matches, err := filepath.Glob(pattern)
			if err != nil {
				return nil, eris.Wrapf(err, "manifest: glob %q", pattern)
			}
			for _, m := range matches {
				targets = append(targets, ingestTarget{collection: collection, path: m})
			}
		}
	}
	return targets, nil
}

func textDocument(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		return true
	}
	return false
}

func init() {
	ingestCmd.Flags().StringVar(&ingestManifest, "manifest", "", "manifest.yaml mapping collections to file globs")
	rootCmd.AddCommand(ingestCmd)
}
