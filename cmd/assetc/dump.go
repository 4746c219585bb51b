package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Faultbox/scenepack/pkg/datafile"
)

// Byte arrays longer than this are summarized unless -v is given.
const dumpPreview = 16

func cmdDump(args []string) int {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	verbose := fs.Bool("v", false, "Print byte arrays in full")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: assetc dump [-v] <file.dat>")
		return 1
	}

	v, err := datafile.ParseAssetFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	d := dumper{w: os.Stdout, verbose: *verbose}
	d.value(v, 0)
	return 0
}

type dumper struct {
	w       io.Writer
	verbose bool
}

func (d dumper) value(v any, depth int) {
	indent := strings.Repeat("  ", depth)
	switch x := v.(type) {
	case string:
		fmt.Fprintf(d.w, "%q\n", x)
	case int64:
		fmt.Fprintf(d.w, "%d\n", x)
	case float64:
		fmt.Fprintf(d.w, "%g\n", x)
	case []byte:
		if !d.verbose && len(x) > dumpPreview {
			fmt.Fprintf(d.w, "bytes[%d] %s...\n", len(x), hex.EncodeToString(x[:dumpPreview]))
			return
		}
		fmt.Fprintf(d.w, "bytes[%d] %s\n", len(x), hex.EncodeToString(x))
	case []any:
		fmt.Fprintf(d.w, "array[%d]\n", len(x))
		for i, e := range x {
			fmt.Fprintf(d.w, "%s  [%d] ", indent, i)
			d.value(e, depth+1)
		}
	case *datafile.Dict:
		fmt.Fprintf(d.w, "dict[%d]\n", x.Len())
		x.Range(func(k string, e any) bool {
			fmt.Fprintf(d.w, "%s  %s: ", indent, k)
			d.value(e, depth+1)
			return true
		})
	default:
		fmt.Fprintf(d.w, "%v\n", x)
	}
}
