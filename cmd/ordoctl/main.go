package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/DavidGamba/go-getoptions"
)

func main() {
	os.Exit(program(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// daemonNote warns that a running tracker daemon saves its own copy of the collection.
const daemonNote = "manage tracked prescriptions. Stop the tracker daemon before running add, delete, reset " +
	"or import against a store it uses: it keeps the collection in memory and its next save overwrites changes made here."

func program(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	app := &cli{in: stdin, out: stdout, errOut: stderr}
	opt := options(app)

	remaining, err := opt.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %s\n\n%s", err, opt.Help(getoptions.HelpSynopsis))
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer app.close()

	if err := opt.Dispatch(ctx, remaining); err != nil {
		if errors.Is(err, getoptions.ErrorHelpCalled) {
			return 1
		}
		fmt.Fprintf(stderr, "ERROR: %s\n", err)
		return 1
	}
	return 0
}

func options(app *cli) *getoptions.GetOpt {
	opt := getoptions.New()
	opt.Self("ordoctl", daemonNote)
	opt.SetUnknownMode(getoptions.Pass)
	opt.StringVar(&app.configPath, "config", os.Getenv("ORDOTRACK_CONFIG"),
		opt.Alias("c"),
		opt.Description("path to the YAML configuration file"))
	opt.BoolVar(&app.verbose, "verbose", false, opt.Alias("v"), opt.Description("log at debug level"))

	opt.NewCommand("list", "show tracked prescriptions").SetCommandFn(app.list)

	add := opt.NewCommand("add", "track a new prescription")
	add.StringVar(&app.name, "name", "", add.Alias("n"), add.Description("patient name"))
	add.StringVar(&app.label, "label", "", add.Alias("l"), add.Description("prescription label"))
	add.StringVar(&app.days, "days", "", add.Alias("d"), add.Description("days until expiry"))
	add.SetCommandFn(app.add)

	opt.NewCommand("delete", "remove a prescription by id").SetCommandFn(app.delete)

	reset := opt.NewCommand("reset", "remove every prescription")
	reset.BoolVar(&app.yes, "yes", false, reset.Alias("y"), reset.Description("do not ask for confirmation"))
	reset.SetCommandFn(app.reset)

	export := opt.NewCommand("export", "write a backup file")
	export.StringVar(&app.outPath, "out", "", export.Alias("o"), export.Description("target file, - for stdout"))
	export.SetCommandFn(app.export)

	opt.NewCommand("import", "replace all prescriptions with a backup file").SetCommandFn(app.importBackup)

	opt.NewCommand("check", "alert on prescriptions expiring within a week").SetCommandFn(app.check)

	perm := opt.NewCommand("permission", "show or decide the alert permission")
	perm.BoolVar(&app.grant, "grant", false, perm.Description("allow alerts"))
	perm.BoolVar(&app.deny, "deny", false, perm.Description("refuse alerts"))
	perm.SetCommandFn(app.permission)

	alerts := opt.NewCommand("alerts", "list delivered alerts (postgres store)")
	alerts.StringVar(&app.recordID, "record", "", alerts.Description("only alerts for this prescription id"))
	alerts.IntVar(&app.limit, "limit", 50, alerts.Description("maximum rows"))
	alerts.SetCommandFn(app.alerts)

	tail := opt.NewCommand("tail", "follow alert events on kafka")
	tail.BoolVar(&app.fromStart, "from-beginning", false, tail.Description("replay the whole topic"))
	tail.SetCommandFn(app.tail)

	opt.HelpCommand("help", opt.Alias("?"))
	return opt
}
