// Sharing analysis (spec.md §4.G statement-block rule, §9 open
// question): a pattern-bound variable used more than once in its
// scope is constrained to the Shared attribute. Per spec.md §9's
// resolved open question, the two arms of a conditional are disjoint
// occurrence contexts: using a variable once in each branch of an
// if/case does not by itself force Shared, so occurrence counts from
// sibling branches are combined with max, not sum.
package infer

import "github.com/corelang/corec/internal/ast"

// countOccurrences counts, for each name in names, how many times an
// ast.Identifier referencing it appears in expr's evaluation, treating
// the two arms of every If/Case as disjoint contexts whose counts are
// combined by max rather than summed.
func countOccurrences(expr ast.Expression, names []string) map[string]int {
	want := map[string]bool{}
	for _, n := range names {
		want[n] = true
	}
	return countExpr(expr, want)
}

func countExpr(expr ast.Expression, want map[string]bool) map[string]int {
	counts := map[string]int{}
	for _, w := range expr {
		merge(counts, countWord(w, want))
	}
	return counts
}

func countWord(w ast.Word, want map[string]bool) map[string]int {
	switch ww := w.(type) {
	case ast.Identifier:
		if want[ww.Name] {
			return map[string]int{ww.Name: 1}
		}
		return nil
	case ast.Let:
		counts := map[string]int{}
		for _, b := range ww.Bindings {
			merge(counts, countExpr(b.Value, want))
		}
		merge(counts, countExpr(ww.Body, want))
		return counts
	case ast.If:
		return maxMerge(countExpr(ww.Then, want), countExpr(ww.Else, want))
	case ast.Case:
		return maxMerge(countExpr(ww.Then, want), countExpr(ww.Else, want))
	case ast.While:
		counts := countExpr(ww.Cond, want)
		merge(counts, countExpr(ww.Body, want))
		return counts
	case ast.FuncLit:
		return countExpr(ww.Body, want)
	case ast.Handle:
		counts := countExpr(ww.Body, want)
		for _, h := range ww.Handlers {
			merge(counts, countExpr(h.Body, want))
		}
		merge(counts, countExpr(ww.Return.Body, want))
		return counts
	case ast.WithState:
		return countExpr(ww.Body, want)
	default:
		return nil
	}
}

func merge(dst, src map[string]int) {
	for k, v := range src {
		dst[k] += v
	}
}

// maxMerge combines two disjoint-context occurrence maps by taking the
// per-name maximum, the shape spec.md §9's resolved open question
// requires for sibling conditional branches.
func maxMerge(a, b map[string]int) map[string]int {
	out := map[string]int{}
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		if v > out[k] {
			out[k] = v
		}
	}
	return out
}
