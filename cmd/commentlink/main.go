package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/commentlink/cmd/commentlink/commands"
	ferrors "git.home.luguber.info/inful/commentlink/internal/foundation/errors"
	"git.home.luguber.info/inful/commentlink/internal/version"
)

func main() {
	cli := &commands.CLI{}
	global := &commands.Global{Logger: slog.Default()}
	parser := kong.Must(cli,
		kong.Name("commentlink"),
		kong.Description("Resolve [label](path:line) links written in source code comments."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	err = kctx.Run(cli)

	var unresolved *commands.UnresolvedLinksError
	if errors.As(err, &unresolved) {
		os.Exit(unresolved.Code)
	}
	ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
