package toc

import (
	"strconv"

	"mdtoc/utils/debug"
)

// Dump returns readable representation of the entry tree for debug reports.
func Dump(entries []*Entry) string {
	tw := debug.NewTreeWriter()
	dump(tw, entries, 0)
	return tw.String()
}

func dump(tw *debug.TreeWriter, entries []*Entry, level int) {
	for _, e := range entries {
		tw.Line(level, "%s depth=%d order=%s", e.Path, e.Depth, orderLabel(e.Order))
		tw.TextBlock(level+1, "line", e.Line)
		dump(tw, e.Children, level+1)
	}
}

func orderLabel(order int) string {
	switch order {
	case OrderLast:
		return "last"
	case OrderDefault:
		return "default"
	}
	return strconv.Itoa(order)
}
