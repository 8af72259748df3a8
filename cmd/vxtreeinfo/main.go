// Command vxtreeinfo prints summary statistics for a float64 tree stream:
// node counts per level, active voxel count, memory footprint and active
// bounding box.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/janelia-flyem/vxtree/streamio"
	"github.com/janelia-flyem/vxtree/tree"
	"github.com/janelia-flyem/vxtree/vxlog"
)

func main() {
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()
	vxlog.Verbose = *verbose

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: vxtreeinfo <stream-file>")
		os.Exit(1)
	}

	if err := run(flag.Arg(0)); err != nil {
		vxlog.Errorf("vxtreeinfo: %v", err)
		os.Exit(1)
	}
}

func run(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, decode := streamio.Float64Codec()
	t, err := streamio.ReadTree[float64](f, tree.Float64Ops(), decode)
	if err != nil {
		return err
	}

	counts := t.NodeCount()
	fmt.Printf("roots:       %d\n", counts[0])
	fmt.Printf("internal2:   %d\n", counts[1])
	fmt.Printf("internal1:   %d\n", counts[2])
	fmt.Printf("leaves:      %d\n", counts[3])
	fmt.Printf("active voxels: %s\n", humanize.Comma(t.ActiveVoxelCount()))
	fmt.Printf("memory usage:  %s\n", humanize.Bytes(uint64(t.MemoryUsage())))

	if bbox, ok := t.ActiveBoundingBox(); ok {
		fmt.Printf("active bbox: %s\n", bbox.String())
	} else {
		fmt.Println("active bbox: (empty)")
	}
	return nil
}
