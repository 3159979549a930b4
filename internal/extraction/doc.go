// Package extraction locates a parental-control PIN inside a raw byte window.
//
// An Extractor holds an ordered list of Strategy implementations and returns
// the first one that validates a candidate. Two strategies ship by default,
// tried in this order:
//
//   - SignatureStrategy: an 8-byte, null-padded ASCII payload immediately
//     followed by the signature 03 0C 06 07 (older firmware save layout).
//   - KeywordStrategy: the first "pinCode" key in the window followed by a
//     run of digits (JSON save layout).
//
// A candidate is always 4 to 8 ASCII digits. Strategies never write partial
// output: a window either yields a whole Match or nothing.
//
// # Usage
//
//	ext := extraction.Default()
//	if m, ok := ext.Extract(window); ok {
//	    fmt.Println(m.Strategy, m.Candidate.Value())
//	}
//
// Additional strategies can be appended without touching dispatch, either in
// code with Append or from a TOML catalog (see LoadCatalog).
//
// Candidate values redact themselves in String, GoString and JSON output.
// Use Value to read the digits.
package extraction
