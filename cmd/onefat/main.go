// Command onefat is a thin, non-interactive wrapper around the engine
// package: one urfave/cli subcommand per filesystem operation. The
// interactive `<pwd> $ ` prompt described in spec.md §6.1 is out of scope;
// each invocation opens the image, runs exactly one operation, and exits.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/onefatfs/onefat/engine"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "onefat",
		Usage: "inspect and manipulate onefat disk images",
		Commands: []*cli.Command{
			fsCommand("format", "<image> <size>MB", runFormat),
			fsCommand("mkdir", "<image> <path>", runSimple(engine.Mkdir)),
			fsCommand("rmdir", "<image> <path>", runSimple(engine.Rmdir)),
			fsCommand("ls", "<image> [path]", runSimple(engine.Ls)),
			fsCommand("cd", "<image> [path]", runSimple(engine.Cd)),
			fsCommand("pwd", "<image>", runSimple(engine.Pwd)),
			fsCommand("cat", "<image> <path>", runSimple(engine.Cat)),
			fsCommand("info", "<image> <path>", runSimple(engine.Info)),
			fsCommand("incp", "<image> <host> <fs>", runSimple(engine.Incp)),
			fsCommand("outcp", "<image> <fs> <host>", runSimple(engine.Outcp)),
			fsCommand("cp", "<image> <src> <dst>", runSimple(engine.Cp)),
			fsCommand("mv", "<image> <src> <dst>", runSimple(engine.Mv)),
			fsCommand("rm", "<image> <path>", runSimple(engine.Rm)),
			fsCommand("load", "<image> <host-script>", runSimple(engine.Load)),
			fsCommand("defrag", "<image> <path>", runSimple(engine.Defrag)),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("fatal error: %s", err.Error())
	}
}

// defaultFormatSize is used only by commands other than `format` when the
// named image doesn't exist yet (spec.md §6.1: "opens/creates the image").
const defaultFormatSize = 16 * 1_000_000

func fsCommand(name, argsUsage string, action cli.ActionFunc) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     fmt.Sprintf("run `%s` against an image", name),
		ArgsUsage: argsUsage,
		Action:    action,
	}
}

func runFormat(c *cli.Context) error {
	args := c.Args().Slice()
	if len(args) != 2 {
		return fmt.Errorf("usage: onefat format <image> <size>MB")
	}
	imagePath, sizeArg := args[0], args[1]

	diskSize, err := engine.ParseFormatSize(sizeArg)
	if err != nil {
		return err
	}

	e, err := engine.Create(imagePath, diskSize)
	if err != nil {
		return err
	}
	defer e.Close()

	fmt.Println("OK")
	return nil
}

// runSimple adapts one engine.Kind into a cli.ActionFunc: args()[0] is the
// image path, the rest are passed straight through to engine.Dispatch.
func runSimple(kind engine.Kind) cli.ActionFunc {
	return func(c *cli.Context) error {
		args := c.Args().Slice()
		if len(args) < 1 {
			return fmt.Errorf("usage: onefat %s <image> [args...]", kindName(kind))
		}
		imagePath := args[0]
		opArgs := args[1:]

		e, err := engine.OpenOrCreate(imagePath, defaultFormatSize)
		if err != nil {
			return err
		}
		defer e.Close()

		out, err := engine.Dispatch(e, engine.Command{Kind: kind, Args: opArgs})
		if err != nil {
			return err
		}
		if out != "" {
			fmt.Println(out)
		} else {
			fmt.Println("OK")
		}
		return nil
	}
}

func kindName(kind engine.Kind) string {
	switch kind {
	case engine.Mkdir:
		return "mkdir"
	case engine.Rmdir:
		return "rmdir"
	case engine.Ls:
		return "ls"
	case engine.Cd:
		return "cd"
	case engine.Pwd:
		return "pwd"
	case engine.Cat:
		return "cat"
	case engine.Info:
		return "info"
	case engine.Incp:
		return "incp"
	case engine.Outcp:
		return "outcp"
	case engine.Cp:
		return "cp"
	case engine.Mv:
		return "mv"
	case engine.Rm:
		return "rm"
	case engine.Load:
		return "load"
	case engine.Defrag:
		return "defrag"
	default:
		return "unknown"
	}
}
