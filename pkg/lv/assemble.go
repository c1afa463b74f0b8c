package lv

import "github.com/coolbeans/lvparse/pkg/record"

// assemble concatenates per-unit records in document order.
func assemble(units [][]record.Record) []record.Record {
	n := 0
	for _, u := range units {
		n += len(u)
	}
	out := make([]record.Record, 0, n)
	for _, u := range units {
		out = append(out, u...)
	}
	return out
}
