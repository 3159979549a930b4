// Package scanner streams a file through an extraction.Extractor in
// fixed-size chunks, carrying the tail of each window into the next so
// that a marker crossing a chunk boundary is still seen whole.
//
// Memory use is bounded by ChunkSize + Overlap regardless of file size.
// Every failure (open, read, allocation) degrades to "not found"; the
// reason is kept on Result for logs and metrics only.
//
// Example:
//
//	s, err := scanner.New(scanner.DefaultConfig(), extraction.Default())
//	if err != nil {
//	    return err
//	}
//	pin, ok := s.Scan(ctx, "/mnt/system/save/8000000000000100")
package scanner
