package ui

// Glyphs for status indicators.
const (
	SymbolSuccess  = "◉" // Check passed
	SymbolFail     = "✕" // Check failed
	SymbolPending  = "◇" // Not yet started
	SymbolComplete = "●" // Done
	SymbolSkipped  = "⊖" // Skipped or unavailable
)
