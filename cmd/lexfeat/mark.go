package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/cognicore/lexfeat/pkg/lexfeat"
)

func markCommand(ui UI) *cli.Command {
	return &cli.Command{
		Name:      "mark",
		Usage:     "import related mention pairs from a TSV file",
		ArgsUsage: "[file|-]",
		Description: "Each line holds: file, document position, start1, end1, start2, end2 and an\n" +
			"optional label, tab separated. Offsets are document relative, end exclusive.",
		Action: func(c *cli.Context) error {
			sess, err := openSession(c)
			if err != nil {
				return err
			}
			defer sess.Close()

			var in io.Reader = os.Stdin
			if path := c.Args().First(); path != "" && path != "-" {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			n, err := sess.engine(lexfeat.Options{}).ImportRelations(c.Context, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(ui.Out, "%d relations imported\n", n)
			return nil
		},
	}
}
