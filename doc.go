// Package fontconfig is a pure Go font discovery and selection library. It
// scans the system's font directories (or accepts in-memory fonts) into an
// index, matches typographic patterns against it, resolves CSS font-family
// stacks into cached fallback chains, and splits Unicode text into per-font
// runs.
//
//	idx := fontconfig.Scan(fontconfig.ScanOptions{})
//	match := idx.Query(&fontconfig.Pattern{Family: "Arial"}, nil)
//
//	chain := idx.ResolveChain([]string{"Arial", "sans-serif"}, fontconfig.Regular, fontconfig.DontCare, fontconfig.DontCare, nil)
//	for _, run := range chain.QueryForText("Hello 世界") {
//		// run.FontID renders run.Text
//	}
package fontconfig
