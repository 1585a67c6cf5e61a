package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/astei/slimeworld/internal/slime"
)

func printSummary(w io.Writer, size int, c *slime.Container, snap *slime.Snapshot) error {
	var sections, tiles, mobiles int
	for _, column := range snap.Columns {
		for _, s := range column.Sections {
			if s != nil {
				sections++
			}
		}
		tiles += len(column.Tiles)
		mobiles += len(column.Mobiles)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "size\t%d bytes\n", size)
	fmt.Fprintf(tw, "world version\t%s\n", c.Version)
	fmt.Fprintf(tw, "extent\tx %d, z %d, %dx%d\n", c.Extent.MinX, c.Extent.MinZ, c.Extent.Width, c.Extent.Depth)
	fmt.Fprintf(tw, "columns\t%d of %d slots\n", len(snap.Columns), c.Extent.Slots())
	fmt.Fprintf(tw, "sections\t%d\n", sections)
	fmt.Fprintf(tw, "tiles\t%d\n", tiles)
	if c.HasMobiles {
		fmt.Fprintf(tw, "mobiles\t%d\n", mobiles)
	} else {
		fmt.Fprintf(tw, "mobiles\tnot stored\n")
	}
	fmt.Fprintf(tw, "extra data\t%d bytes\n", len(c.Extra))
	fmt.Fprintf(tw, "map data\t%d bytes\n", len(c.Maps))
	if len(c.Trailing) > 0 {
		fmt.Fprintf(tw, "unknown blobs\t%d\n", len(c.Trailing))
	}
	if len(snap.Dangling) > 0 {
		fmt.Fprintf(tw, "dropped records\t%d\n", len(snap.Dangling))
	}
	return tw.Flush()
}
