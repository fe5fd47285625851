package expr

// VisitStatus tells Walk how to continue.
type VisitStatus int

const (
	VisitUnknown  VisitStatus = 0 // not used
	VisitSkip     VisitStatus = 1 // do not descend into children
	VisitFinal    VisitStatus = 2 // stop the walk
	VisitContinue VisitStatus = 3 // continue visit
)

// QueryVisitor is implemented by queries that expose their own expressions
// to Walk; sub-queries are not entered otherwise.
type QueryVisitor interface {
	WalkExpressions(fn func(Node) VisitStatus) VisitStatus
}

// Children returns the direct operands of @n in evaluation order.
func Children(n Node) []Node {
	switch m := n.(type) {
	case *AliasNode:
		return []Node{m.Expr}
	case *BinaryNode:
		if m.Right == nil {
			return []Node{m.Left}
		}
		return []Node{m.Left, m.Right}
	case *ComparisonNode:
		if m.Right == nil {
			return []Node{m.Left}
		}
		return []Node{m.Left, m.Right}
	case *AndOrNode:
		return []Node{m.Left, m.Right}
	case *NotNode:
		return []Node{m.Arg}
	case *InNode:
		return append([]Node{m.Left}, m.List...)
	case *InQueryNode:
		return []Node{m.Left}
	case *InParamNode:
		return []Node{m.Left, m.Param}
	case *LikeNode:
		out := []Node{m.Left, m.Pattern}
		if m.Escape != nil {
			out = append(out, m.Escape)
		}
		return out
	case *ListNode:
		return m.Items
	case *FuncNode:
		out := make([]Node, 0, len(m.Args))
		for _, a := range m.Args {
			if a != nil {
				out = append(out, a)
			}
		}
		return out
	case *TableFuncNode:
		out := make([]Node, len(m.Columns))
		for i, c := range m.Columns {
			out[i] = c.Values
		}
		return out
	case *CaseNode:
		var out []Node
		if m.Operand != nil {
			out = append(out, m.Operand)
		}
		for i := range m.Whens {
			out = append(out, m.Whens[i], m.Thens[i])
		}
		if m.Else != nil {
			out = append(out, m.Else)
		}
		return out
	case *AggregateNode:
		var out []Node
		if m.Arg != nil {
			out = append(out, m.Arg)
		}
		for _, o := range m.OrderBy {
			out = append(out, o.Expr)
		}
		if m.Separator != nil {
			out = append(out, m.Separator)
		}
		if m.Filter != nil {
			out = append(out, m.Filter)
		}
		return out
	case *UserAggregateNode:
		out := append([]Node(nil), m.Args...)
		if m.Filter != nil {
			out = append(out, m.Filter)
		}
		return out
	case *UserFuncNode:
		return m.Args
	}
	return nil
}

// Walk visits @n depth first, pre-order.  Sub-queries are entered when they
// implement QueryVisitor.
func Walk(n Node, fn func(Node) VisitStatus) VisitStatus {
	if n == nil {
		return VisitContinue
	}
	switch fn(n) {
	case VisitFinal:
		return VisitFinal
	case VisitSkip:
		return VisitContinue
	}
	for _, c := range Children(n) {
		if Walk(c, fn) == VisitFinal {
			return VisitFinal
		}
	}
	var q Query
	switch m := n.(type) {
	case *SubqueryNode:
		q = m.Query
	case *ExistsNode:
		q = m.Query
	case *InQueryNode:
		q = m.Query
	}
	if qv, ok := q.(QueryVisitor); ok {
		return qv.WalkExpressions(fn)
	}
	return VisitContinue
}

// Columns collects the column references of @n, not entering sub-queries.
func Columns(n Node) []*ColumnNode {
	var cols []*ColumnNode
	walkShallow(n, func(c Node) {
		if col, ok := c.(*ColumnNode); ok {
			cols = append(cols, col)
		}
	})
	return cols
}

// IsDeterministic is false when @n calls a function whose result may change
// between executions (RAND, CURRENT_TIMESTAMP, sequences, variables).
func IsDeterministic(n Node) bool {
	det := true
	Walk(n, func(c Node) VisitStatus {
		switch m := c.(type) {
		case *FuncNode:
			if !m.Info.Deterministic {
				det = false
			}
		case *UserFuncNode:
			if !m.Deterministic {
				det = false
			}
		case *SequenceNode, *VariableNode, *RownumNode:
			det = false
		}
		if !det {
			return VisitFinal
		}
		return VisitContinue
	})
	return det
}

// HasAggregate reports whether @n contains an aggregate outside sub-queries.
func HasAggregate(n Node) bool {
	found := false
	walkShallow(n, func(c Node) {
		switch c.(type) {
		case *AggregateNode, *UserAggregateNode:
			found = true
		}
	})
	return found
}

// Params collects the parameters referenced by @n.
func Params(n Node) []*ParamNode {
	var ps []*ParamNode
	Walk(n, func(c Node) VisitStatus {
		if p, ok := c.(*ParamNode); ok {
			ps = append(ps, p)
		}
		return VisitContinue
	})
	return ps
}

func walkShallow(n Node, fn func(Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range Children(n) {
		walkShallow(c, fn)
	}
}
