package main

import (
	"errors"
	"fmt"

	"github.com/gosuri/uiprogress"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/cognicore/lexfeat/pkg/lexfeat"
	"github.com/cognicore/lexfeat/pkg/lexfeat/annotate"
	"github.com/cognicore/lexfeat/pkg/lexfeat/docparse"
	"github.com/cognicore/lexfeat/pkg/lexfeat/ingest"
)

func parseCommand(ui UI) *cli.Command {
	return &cli.Command{
		Name:      "parse",
		Usage:     "parse and annotate documents into the store",
		ArgsUsage: "[file|dir|glob]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "kind", Usage: "parser kind: text, html or xml"},
			&cli.BoolFlag{Name: "skip-oversize", Usage: "skip documents the annotator rejects as too long or too slow"},
			&cli.BoolFlag{Name: "no-progress", Usage: "disable the progress bar"},
		},
		Action: func(c *cli.Context) error {
			sess, err := openSession(c)
			if err != nil {
				return err
			}
			defer sess.Close()

			src := c.Args().First()
			if src == "" {
				src = sess.cfg.Source
			}
			if src == "" {
				return errors.New("no source given and none configured")
			}
			kind := sess.cfg.Parser.Kind
			if c.IsSet("kind") {
				kind = c.String("kind")
			}

			parser, err := docparse.ForKind(kind, sess.cfg.XMLOptions(sess.logger))
			if err != nil {
				return err
			}
			client, err := annotate.New(sess.cfg.AnnotatorOptions(sess.logger))
			if err != nil {
				return err
			}
			defer client.Close()

			var bar *uiprogress.Bar
			pipeline := ingest.NewPipeline(parser, client)
			engine := sess.engine(lexfeat.Options{
				Pipeline:     pipeline,
				SkipOversize: c.Bool("skip-oversize"),
				OnFile: func(string, int, int) {
					if bar != nil {
						bar.Incr()
					}
				},
			})

			if !c.Bool("no-progress") {
				files, err := pipeline.Files(src)
				if err != nil {
					return err
				}
				uiprogress.Start()
				bar = uiprogress.AddBar(len(files))
				bar.AppendCompleted()
				bar.PrependElapsed()
				defer uiprogress.Stop()
			}

			sess.logger.Info("parsing", zap.String("source", src), zap.String("kind", kind),
				zap.String("annotator", client.Endpoint()))
			stats, err := engine.Ingest(c.Context, src)
			if err != nil {
				return err
			}
			fmt.Fprintf(ui.Out, "%d files, %d documents, %d sentences, %d skipped\n",
				stats.Files, stats.Docs, stats.Sentences, stats.Skipped)
			return nil
		},
	}
}
