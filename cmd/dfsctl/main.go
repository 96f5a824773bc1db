package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"quorumfs/internal/cluster"
	"quorumfs/internal/rpc"
)

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: dfsctl [-addr host:port] [-timeout d] <command> [arguments]")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  write <file> <contents>")
	fmt.Fprintln(w, "  write <file> -f <path>")
	fmt.Fprintln(w, "  read <file>")
	fmt.Fprintln(w, "  ls")
	fmt.Fprintln(w, "  member")
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("dfsctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", "127.0.0.1:5000", "Address of any cluster node")
	timeout := fs.Duration("timeout", 30*time.Second, "Request timeout")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		usage(stderr)
		return 2
	}

	conn, err := grpc.NewClient(*addr, rpc.DialOptions()...)
	if err != nil {
		fmt.Fprintf(stderr, "Error connecting to %s: %v\n", *addr, err)
		return 1
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	return dispatch(ctx, rpc.NewFileServiceClient(conn), fs.Args(), stdout, stderr)
}

func dispatch(ctx context.Context, client *rpc.FileServiceClient, args []string, stdout, stderr io.Writer) int {
	switch args[0] {
	case "write":
		filename, contents, err := writeArgs(args[1:])
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			usage(stderr)
			return 2
		}
		res, err := client.Write(ctx, &rpc.WriteRequest{Filename: filename, Contents: contents})
		if code := report(stderr, res, err); code != 0 {
			return code
		}
		fmt.Fprintf(stdout, "Wrote %s at version %d\n", filename, res.Version)

	case "read":
		if len(args) != 2 {
			usage(stderr)
			return 2
		}
		res, err := client.Read(ctx, wrapperspb.String(args[1]))
		if code := report(stderr, res, err); code != 0 {
			return code
		}
		fmt.Fprintf(stderr, "%s version %d\n", args[1], res.Version)
		stdout.Write(res.Contents)

	case "ls":
		list, err := client.AllFileVersions(ctx, &emptypb.Empty{})
		var res *cluster.Result
		if list != nil {
			res = &list.Result
		}
		if code := report(stderr, res, err); code != 0 {
			return code
		}
		for _, f := range list.Files {
			fmt.Fprintf(stdout, "%s\t%d\n", f.Filename, f.Version)
		}

	case "member":
		reply, err := client.RandomMember(ctx, &emptypb.Empty{})
		var res *cluster.Result
		if reply != nil {
			res = &reply.Result
		}
		if code := report(stderr, res, err); code != 0 {
			return code
		}
		fmt.Fprintln(stdout, reply.Member.Addr())

	default:
		fmt.Fprintf(stderr, "Unknown command %q\n", args[0])
		usage(stderr)
		return 2
	}
	return 0
}

// writeArgs accepts either inline contents or -f with a local file path.
func writeArgs(args []string) (string, []byte, error) {
	switch {
	case len(args) == 3 && args[1] == "-f":
		data, err := os.ReadFile(args[2])
		if err != nil {
			return "", nil, err
		}
		return args[0], data, nil
	case len(args) == 2:
		return args[0], []byte(args[1]), nil
	default:
		return "", nil, fmt.Errorf("write needs a filename and contents")
	}
}

func report(stderr io.Writer, res *cluster.Result, err error) int {
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", rpc.ErrorMessage(err))
		return 1
	}
	if err := res.Err(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
