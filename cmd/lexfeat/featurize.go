package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/cognicore/lexfeat/pkg/lexfeat"
)

func featurizeCommand(ui UI) *cli.Command {
	return &cli.Command{
		Name:  "featurize",
		Usage: "build the feature matrix of stored mentions (arity 1) or relations (arity 2)",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "arity", Value: 1, Usage: "1 for mentions, 2 for relations"},
			&cli.StringFlag{Name: "index", Value: "features.index.tsv", Usage: "column<TAB>feature output"},
			&cli.StringFlag{Name: "matrix", Value: "features.matrix.tsv", Usage: "row id<TAB>column output"},
		},
		Action: func(c *cli.Context) error {
			sess, err := openSession(c)
			if err != nil {
				return err
			}
			defer sess.Close()

			fs, err := sess.engine(lexfeat.Options{}).Featurize(c.Context, c.Int("arity"))
			if err != nil {
				return err
			}
			if err := writeTo(ui, c.String("index"), fs.WriteIndex); err != nil {
				return err
			}
			if err := writeTo(ui, c.String("matrix"), fs.WriteMatrix); err != nil {
				return err
			}

			rows, cols := fs.Matrix.Dims()
			fmt.Fprintf(ui.Out, "%d rows, %d features, %d set cells\n", rows, cols, fs.Matrix.NNZ())
			return nil
		},
	}
}
