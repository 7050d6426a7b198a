// Package internaldefs holds the metric names, outcome families and bucket
// bounds shared by the exporters.
//
// Counters that split one event by outcome (verify results, login results)
// are grouped into a Family and exported as one metric with a label. The
// rest are exported as plain counters.
//
// # What this package must NOT do
//
//   - Import any exporter package.
//   - Perform I/O.
package internaldefs
