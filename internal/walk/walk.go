// Package walk visits the recursive parts of a decoded project in pre-order.
package walk

import "github.com/hpungsan/qdpx/internal/model"

// Signal tells the walker whether to keep going.
type Signal uint8

const (
	Continue Signal = iota
	Stop
)

func (s Signal) String() string {
	if s == Stop {
		return "stop"
	}
	return "continue"
}

// PreOrder visits every node of the forest rooted at roots, each node before
// its children and siblings in slice order. It returns Stop as soon as visit
// does, without calling visit again.
func PreOrder[N any](roots []N, children func(*N) []N, visit func(*N) Signal) Signal {
	for i := range roots {
		n := &roots[i]
		if visit(n) == Stop {
			return Stop
		}
		if PreOrder(children(n), children, visit) == Stop {
			return Stop
		}
	}
	return Continue
}

func codeChildren(c *model.Code) []model.Code { return c.Children }

// Codes visits every code of cb in pre-order. A nil codebook has no codes.
func Codes(cb *model.Codebook, visit func(*model.Code) Signal) Signal {
	if cb == nil {
		return Continue
	}
	return PreOrder(cb.Codes, codeChildren, visit)
}

// ProjectCodes visits every code of p in pre-order.
func ProjectCodes(p *model.Project, visit func(*model.Code) Signal) Signal {
	return Codes(p.Codebook, visit)
}

// CodePath is a code together with the names of its ancestors.
type CodePath struct {
	Code  *model.Code
	Names []string // root first, ending with Code.Name
}

// CodePaths visits every code of cb in pre-order along with its name path.
// The Names slice is only valid for the duration of the call.
func CodePaths(cb *model.Codebook, visit func(CodePath) Signal) Signal {
	if cb == nil {
		return Continue
	}
	var names []string
	var walk func([]model.Code) Signal
	walk = func(codes []model.Code) Signal {
		for i := range codes {
			c := &codes[i]
			names = append(names, c.Name)
			if visit(CodePath{Code: c, Names: names}) == Stop {
				return Stop
			}
			if walk(c.Children) == Stop {
				return Stop
			}
			names = names[:len(names)-1]
		}
		return Continue
	}
	return walk(cb.Codes)
}

// CountCodes returns the number of codes in cb.
func CountCodes(cb *model.Codebook) int {
	n := 0
	Codes(cb, func(*model.Code) Signal {
		n++
		return Continue
	})
	return n
}

// FindCode returns the first code in pre-order for which match is true, or nil.
func FindCode(cb *model.Codebook, match func(*model.Code) bool) *model.Code {
	var found *model.Code
	Codes(cb, func(c *model.Code) Signal {
		if match(c) {
			found = c
			return Stop
		}
		return Continue
	})
	return found
}
