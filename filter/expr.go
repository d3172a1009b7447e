package filter

import (
	"maps"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/s0up4200/libgate/model"
)

const defaultCacheSize = 128

// exprFilter implements CompiledFilter using the expr language
type exprFilter struct {
	expression string
	program    *vm.Program
	extra      map[string]any
}

// ExprCompilerOption configures an expr compiler
type ExprCompilerOption func(*exprCompiler)

// WithCache enables filter caching with the specified size
func WithCache(size int) ExprCompilerOption {
	return func(c *exprCompiler) {
		if size > 0 {
			c.cache = newLRUCache(size)
		}
	}
}

// WithCustomFunctions adds custom helper functions
func WithCustomFunctions(funcs map[string]any) ExprCompilerOption {
	return func(c *exprCompiler) {
		maps.Copy(c.extra, funcs)
	}
}

// NewExprCompiler creates a new expr-based filter compiler
func NewExprCompiler(opts ...ExprCompilerOption) CachingCompiler {
	c := &exprCompiler{extra: make(map[string]any)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type exprCompiler struct {
	extra map[string]any
	cache *lruCache
}

var defaultCompiler = NewExprCompiler(WithCache(defaultCacheSize))

// Compile compiles expression with the shared caching compiler
func Compile(expression string) (CompiledFilter, error) {
	return defaultCompiler.Compile(expression)
}

// Compile compiles an expression into an executable filter.
// Unknown identifiers and non-boolean results are compile errors.
func (c *exprCompiler) Compile(expression string) (CompiledFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	if c.cache != nil {
		if f, ok := c.cache.Get(expression); ok {
			return f, nil
		}
	}

	// a zero record gives the checker every field type
	program, err := expr.Compile(expression,
		expr.Env(runtimeEnv(model.BookRecord{}, c.extra)),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	f := &exprFilter{
		expression: expression,
		program:    program,
		extra:      c.extra,
	}

	if c.cache != nil {
		c.cache.Put(expression, f)
	}

	return f, nil
}

// Clear removes all cached filters
func (c *exprCompiler) Clear() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Size returns the number of cached filters
func (c *exprCompiler) Size() int {
	if c.cache != nil {
		return c.cache.Size()
	}
	return 0
}

// Evaluate evaluates the filter against a book
func (f *exprFilter) Evaluate(book model.BookRecord) bool {
	ok, err := f.Match(book)
	return err == nil && ok
}

func (f *exprFilter) Match(book model.BookRecord) (bool, error) {
	result, err := expr.Run(f.program, runtimeEnv(book, f.extra))
	if err != nil {
		return false, &EvaluationError{Expression: f.expression, BookID: book.ID, Err: err}
	}
	// AsBool guarantees the type
	return result.(bool), nil
}

func (f *exprFilter) Expression() string {
	return f.expression
}

// runtimeEnv exposes the book's fields and the helpers bound to it
func runtimeEnv(book model.BookRecord, extra map[string]any) map[string]any {
	env := make(map[string]any, 24+len(extra))
	maps.Copy(env, extra)

	addStringHelpers(env)

	env["Book"] = book
	env["ID"] = book.ID
	env["Title"] = book.Title
	env["Author"] = book.Author
	env["Barcode"] = book.Barcode
	env["CallNumber"] = book.CallNumber
	env["Location"] = book.Location
	env["Status"] = string(book.Status)

	env["available"] = func() bool { return book.Status == model.StatusAvailable }
	env["checkedOut"] = func() bool { return book.Status == model.StatusCheckedOut }
	env["titleHas"] = createTitleHasFunc(book.Title)
	env["matchRatio"] = createMatchRatioFunc(book.Title)

	return env
}

func addStringHelpers(env map[string]any) {
	env["contains"] = func(str, substr string) bool {
		return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
	}
	env["startsWith"] = func(str, prefix string) bool {
		return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
	}
	env["endsWith"] = func(str, suffix string) bool {
		return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
	}
	env["lower"] = strings.ToLower
	env["upper"] = strings.ToUpper
}

// createTitleHasFunc matches whole words for latin text and substrings
// otherwise, since CJK titles carry no word breaks
func createTitleHasFunc(title string) func(...string) bool {
	norm := normalize(title)
	tokens := make(map[string]struct{})
	for _, t := range strings.Fields(norm) {
		tokens[t] = struct{}{}
	}
	return func(words ...string) bool {
		for _, w := range words {
			w = normalize(w)
			if w == "" {
				continue
			}
			if isASCII(w) && !strings.Contains(w, " ") {
				if _, ok := tokens[w]; !ok {
					return false
				}
				continue
			}
			if !strings.Contains(norm, w) {
				return false
			}
		}
		return true
	}
}

func createMatchRatioFunc(title string) func(string) float64 {
	candidate := tokenize(title)
	return func(query string) float64 {
		return tokenMatch(tokenize(query), candidate)
	}
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
