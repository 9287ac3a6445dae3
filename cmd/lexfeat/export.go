package main

import (
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/cognicore/lexfeat/pkg/lexfeat"
)

func exportCommand(ui UI) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "write stored relations as doc:pos:span:start:end pairs",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "-", Usage: "output file, - for stdout"},
		},
		Action: func(c *cli.Context) error {
			sess, err := openSession(c)
			if err != nil {
				return err
			}
			defer sess.Close()

			w, closeOut, err := output(ui, c.String("out"))
			if err != nil {
				return err
			}
			n, err := sess.engine(lexfeat.Options{}).ExportRelations(c.Context, w)
			if cerr := closeOut(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			sess.logger.Info("relations exported", zap.Int("count", n), zap.String("out", c.String("out")))
			return nil
		},
	}
}
