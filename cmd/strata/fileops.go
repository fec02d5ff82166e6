package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"tractor.dev/strata"
	"tractor.dev/toolkit-go/engine/cli"
)

func catCmd() *cli.Command {
	var mounts string
	cmd := &cli.Command{
		Usage: "cat <path>",
		Short: "read a virtual path and print it",
		Args:  cli.ExactArgs(1),
		Run: func(ctx *cli.Context, args []string) {
			e, err := buildEngine(mounts)
			fatal(err)
			defer e.Close()

			wi := e.Read(args[0], false, nil)
			wi.Wait()
			if wi.Result() != strata.Ok {
				log.Fatalf("read %s: %v", args[0], wi.Err())
			}
			os.Stdout.Write(wi.Buffer())
			wi.FreeBuffer()
			e.Release(wi)
		},
	}
	cmd.Flags().StringVar(&mounts, "mounts", "/=dir:.", "mount table, prefix=kind:path entries")
	return cmd
}

func writeCmd() *cli.Command {
	var mounts string
	var appendTo bool
	cmd := &cli.Command{
		Usage: "write <path>",
		Short: "write stdin to a virtual path",
		Args:  cli.ExactArgs(1),
		Run: func(ctx *cli.Context, args []string) {
			data, err := io.ReadAll(os.Stdin)
			fatal(err)

			e, err := buildEngine(mounts)
			fatal(err)
			defer e.Close()

			var wi *strata.WorkItem
			if appendTo {
				wi = e.Append(args[0], data)
			} else {
				wi = e.Write(args[0], data)
			}
			wi.Wait()
			if wi.Result() != strata.Ok {
				log.Fatalf("write %s: %v", args[0], wi.Err())
			}
			fmt.Fprintf(os.Stderr, "%d bytes\n", wi.Bytes())
			e.Release(wi)
		},
	}
	cmd.Flags().StringVar(&mounts, "mounts", "/=dir:.", "mount table, prefix=kind:path entries")
	cmd.Flags().BoolVar(&appendTo, "append", false, "append instead of truncating")
	return cmd
}

func existsCmd() *cli.Command {
	var mounts string
	cmd := &cli.Command{
		Usage: "exists <path>",
		Short: "check whether a virtual path exists",
		Args:  cli.ExactArgs(1),
		Run: func(ctx *cli.Context, args []string) {
			e, err := buildEngine(mounts)
			fatal(err)
			defer e.Close()

			wi := e.Exists(args[0])
			wi.Wait()
			ok := wi.Result() == strata.Ok
			e.Release(wi)
			fmt.Println(ok)
			if !ok {
				os.Exit(1)
			}
		},
	}
	cmd.Flags().StringVar(&mounts, "mounts", "/=dir:.", "mount table, prefix=kind:path entries")
	return cmd
}

func sizeCmd() *cli.Command {
	var mounts string
	cmd := &cli.Command{
		Usage: "size <path>",
		Short: "print the size of a virtual path",
		Args:  cli.ExactArgs(1),
		Run: func(ctx *cli.Context, args []string) {
			e, err := buildEngine(mounts)
			fatal(err)
			defer e.Close()

			wi := e.Size(args[0])
			wi.Wait()
			if wi.Result() != strata.Ok {
				log.Fatalf("size %s: %v", args[0], wi.Err())
			}
			fmt.Println(wi.Bytes())
			e.Release(wi)
		},
	}
	cmd.Flags().StringVar(&mounts, "mounts", "/=dir:.", "mount table, prefix=kind:path entries")
	return cmd
}
