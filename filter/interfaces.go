package filter

import "github.com/s0up4200/libgate/model"

// Filter decides whether a catalog record is kept
type Filter interface {
	// Evaluate reports whether the book matches. Evaluation errors read as false.
	Evaluate(book model.BookRecord) bool
}

// CompiledFilter is a filter expression ready for evaluation.
// Implementations are safe for concurrent use.
type CompiledFilter interface {
	Filter

	// Match is Evaluate with the evaluation error exposed
	Match(book model.BookRecord) (bool, error)

	// Expression returns the original filter expression
	Expression() string
}

// Compiler compiles filter expressions into executable filters
type Compiler interface {
	Compile(expression string) (CompiledFilter, error)
}

// CachingCompiler keeps recently compiled filters
type CachingCompiler interface {
	Compiler

	// Clear removes all cached filters
	Clear()

	// Size returns the number of cached filters
	Size() int
}
