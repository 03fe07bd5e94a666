package symbols

// ScopeID is a 1-based index into the scope arena.
type ScopeID uint32

// NoScopeID marks the absence of a scope.
const NoScopeID ScopeID = 0

// IsValid reports whether the scope ID refers to an allocated scope.
func (id ScopeID) IsValid() bool { return id != NoScopeID }

// SymbolID is a 1-based index into the binding arena. Two lookups of the
// same declaration always yield the same SymbolID.
type SymbolID uint32

// NoSymbolID marks the absence of a binding.
const NoSymbolID SymbolID = 0

// IsValid reports whether the symbol ID refers to an allocated binding.
func (id SymbolID) IsValid() bool { return id != NoSymbolID }
