package parse

// The combinator core: generic repetition and chaining helpers, alongside
// parser.try in state.go. The grammar rules in word.go and command.go use
// many for their repetitions; many1, optional, reluctantTill, chainLeft and
// chainRight are not called by any grammar rule (the here-document,
// conditional, and and/or rules run their own loops).

// many runs f until it returns ok=false, collecting every successful
// result. Zero results is not an error.
func many[T any](f func() (T, bool)) []T {
	var out []T
	for {
		v, ok := f()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

// many1 is many but requires at least one success.
func many1[T any](f func() (T, bool)) ([]T, bool) {
	first, ok := f()
	if !ok {
		return nil, false
	}
	rest := many(f)
	return append([]T{first}, rest...), true
}

// optional runs f once; if it fails, it returns the zero value and false
// without otherwise affecting control flow (the caller decides whether
// "false" matters).
func optional[T any](f func() (T, bool)) (T, bool) {
	return f()
}

// reluctantTill runs elem repeatedly, stopping the moment end() reports
// true WITHOUT consuming whatever end matched against. It never invokes
// elem after end succeeds. It fits any construct whose terminator must be
// left unconsumed for an enclosing rule to recognize.
func reluctantTill[T any](end func() bool, elem func() (T, bool)) []T {
	var out []T
	for !end() {
		v, ok := elem()
		if !ok {
			return out
		}
		out = append(out, v)
	}
	return out
}

// chainLeft parses term, then repeatedly parses (op term) pairs, folding
// left-associatively via build.
func chainLeft[T any](term func() T, op func() (string, bool), build func(op string, l, r T) T) T {
	acc := term()
	for {
		o, ok := op()
		if !ok {
			return acc
		}
		acc = build(o, acc, term())
	}
}

// chainRight parses term, then an optional (op chainRight) suffix, folding
// right-associatively via build. It fits explicitly right-associative
// grammar such as && / || chaining over pipelines, which parseAndOr spells
// out directly.
func chainRight[T any](term func() T, op func() (string, bool), build func(op string, l, r T) T) T {
	left := term()
	o, ok := op()
	if !ok {
		return left
	}
	right := chainRight(term, op, build)
	return build(o, left, right)
}
