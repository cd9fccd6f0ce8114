package main

import (
	"context"
	"fmt"

	"github.com/rxtech-lab/argo-setups/internal/config"
	"github.com/rxtech-lab/argo-setups/internal/detector"
	"github.com/rxtech-lab/argo-setups/internal/types"
	"github.com/urfave/cli/v3"
)

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Print the JSON schema of the configuration file or of one setup's parameters",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "setup", Usage: "Print the parameter schema of this setup instead"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			var (
				schema string
				err    error
			)

			if cmd.IsSet("setup") {
				schema, err = detector.ParamsSchema(types.SetupName(cmd.String("setup")))
			} else {
				schema, err = config.Schema()
			}

			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.Root().Writer, schema)

			return err
		},
	}
}
