package expr

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/araddon/qlfront/sqlerr"
	"github.com/araddon/qlfront/value"
)

// Fold evaluates constant sub-trees of @n, returning the simplified tree.
// Nodes that can not be evaluated without a row are returned unchanged
// with their operands folded.
func Fold(n Node) (Node, error) {
	var err error
	switch m := n.(type) {
	case *BinaryNode:
		if m.Left, err = Fold(m.Left); err != nil {
			return nil, err
		}
		if m.Right != nil {
			if m.Right, err = Fold(m.Right); err != nil {
				return nil, err
			}
		}
		return foldBinary(m)
	case *NotNode:
		if m.Arg, err = Fold(m.Arg); err != nil {
			return nil, err
		}
		if b, ok := boolConst(m.Arg); ok {
			return NewBoolNode(!b), nil
		}
		if vn, ok := m.Arg.(*ValueNode); ok && vn.Value.Nil() {
			return vn, nil
		}
	case *AndOrNode:
		if m.Left, err = Fold(m.Left); err != nil {
			return nil, err
		}
		if m.Right, err = Fold(m.Right); err != nil {
			return nil, err
		}
		l, lok := boolConst(m.Left)
		r, rok := boolConst(m.Right)
		switch {
		case lok && rok && m.And:
			return NewBoolNode(l && r), nil
		case lok && rok:
			return NewBoolNode(l || r), nil
		case m.And && (lok && !l || rok && !r):
			return NewBoolNode(false), nil
		case !m.And && (lok && l || rok && r):
			return NewBoolNode(true), nil
		}
	case *ComparisonNode:
		if m.Left, err = Fold(m.Left); err != nil {
			return nil, err
		}
		if m.Right != nil {
			if m.Right, err = Fold(m.Right); err != nil {
				return nil, err
			}
		}
		return foldComparison(m), nil
	case *FuncNode:
		for i, a := range m.Args {
			if a == nil {
				continue
			}
			if m.Args[i], err = Fold(a); err != nil {
				return nil, err
			}
		}
		if (m.Info.Kind == FuncKindCast || m.Info.Kind == FuncKindConvert) && m.Type != nil {
			if vn, ok := m.Args[0].(*ValueNode); ok {
				v, err := value.Convert(vn.Value, m.Type.Type)
				if err != nil {
					return nil, sqlerr.New(sqlerr.InvalidValue, vn.Value.ToString(), m.Type.Name)
				}
				return NewValueNode(v), nil
			}
		}
	case *ListNode:
		for i, a := range m.Items {
			if m.Items[i], err = Fold(a); err != nil {
				return nil, err
			}
		}
	case *InNode:
		if m.Left, err = Fold(m.Left); err != nil {
			return nil, err
		}
		for i, a := range m.List {
			if m.List[i], err = Fold(a); err != nil {
				return nil, err
			}
		}
	}
	return n, nil
}

func boolConst(n Node) (bool, bool) {
	vn, ok := n.(*ValueNode)
	if !ok {
		return false, false
	}
	bv, ok := vn.Value.(value.BoolValue)
	if !ok {
		return false, false
	}
	return bv.Val(), true
}

func numericConst(n Node) (value.Value, decimal.Decimal, bool) {
	vn, ok := n.(*ValueNode)
	if !ok || !vn.Value.Type().IsNumeric() {
		return nil, decimal.Zero, false
	}
	switch v := vn.Value.(type) {
	case value.IntValue:
		return v, decimal.New(int64(v.Val()), 0), true
	case value.LongValue:
		return v, decimal.New(v.Val(), 0), true
	case value.DecimalValue:
		return v, v.Val(), true
	}
	return nil, decimal.Zero, false
}

func foldBinary(m *BinaryNode) (Node, error) {
	if m.Op == OpNegate {
		if vn, ok := m.Left.(*ValueNode); ok && vn.Value.Type().IsNumeric() {
			v, err := value.Negate(vn.Value)
			if err != nil {
				return nil, err
			}
			return NewValueNode(v), nil
		}
		return m, nil
	}
	if m.Op == OpConcat {
		l, lok := m.Left.(*ValueNode)
		r, rok := m.Right.(*ValueNode)
		if lok && rok && l.Value.Type().IsString() && r.Value.Type().IsString() {
			return NewValueNode(value.NewStringValue(l.Value.ToString() + r.Value.ToString())), nil
		}
		return m, nil
	}
	lv, l, lok := numericConst(m.Left)
	rv, r, rok := numericConst(m.Right)
	if !lok || !rok {
		return m, nil
	}
	vt := value.HigherOrder(lv.Type(), rv.Type())
	var res decimal.Decimal
	switch m.Op {
	case OpPlus:
		res = l.Add(r)
	case OpMinus:
		res = l.Sub(r)
	case OpMultiply:
		res = l.Mul(r)
	case OpDivide, OpModulus:
		if r.IsZero() {
			// division by zero is reported when the statement runs
			return m, nil
		}
		if m.Op == OpModulus {
			res = l.Mod(r)
		} else if vt == value.DecimalType {
			res = l.Div(r)
		} else {
			res = l.Div(r).Truncate(0)
		}
	default:
		return m, nil
	}
	switch vt {
	case value.IntType:
		if !res.Equal(res.Truncate(0)) || res.Cmp(decimal.New(math.MaxInt32, 0)) > 0 || res.Cmp(decimal.New(math.MinInt32, 0)) < 0 {
			return nil, sqlerr.New(sqlerr.NumericValueOutOfRange, res.String())
		}
		return NewValueNode(value.NewIntValue(int32(res.IntPart()))), nil
	case value.LongType:
		if !res.Equal(res.Truncate(0)) || res.Cmp(decimal.New(math.MaxInt64, 0)) > 0 || res.Cmp(decimal.New(math.MinInt64, 0)) < 0 {
			return nil, sqlerr.New(sqlerr.NumericValueOutOfRange, res.String())
		}
		return NewValueNode(value.NewLongValue(res.IntPart())), nil
	}
	return NewValueNode(value.NewDecimalValue(res)), nil
}

func foldComparison(m *ComparisonNode) Node {
	lvn, lok := m.Left.(*ValueNode)
	switch m.Op {
	case CompareIsNull, CompareIsNotNull:
		if lok {
			return NewBoolNode(lvn.Value.Nil() == (m.Op == CompareIsNull))
		}
		return m
	case CompareSpatialIntersects:
		return m
	}
	rvn, rok := m.Right.(*ValueNode)
	if !lok || !rok {
		return m
	}
	if lvn.Value.Nil() || rvn.Value.Nil() {
		switch m.Op {
		case CompareEqualNullSafe:
			return NewBoolNode(lvn.Value.Nil() && rvn.Value.Nil())
		case CompareNotEqualNullSafe:
			return NewBoolNode(lvn.Value.Nil() != rvn.Value.Nil())
		}
		return NewNullNode()
	}
	_, l, lnum := numericConst(lvn)
	_, r, rnum := numericConst(rvn)
	var c int
	switch {
	case lnum && rnum:
		c = l.Cmp(r)
	case lvn.Value.Type().IsString() && rvn.Value.Type().IsString():
		ls, rs := lvn.Value.ToString(), rvn.Value.ToString()
		switch {
		case ls < rs:
			c = -1
		case ls > rs:
			c = 1
		}
	default:
		return m
	}
	switch m.Op {
	case CompareEqual, CompareEqualNullSafe:
		return NewBoolNode(c == 0)
	case CompareNE, CompareNotEqualNullSafe:
		return NewBoolNode(c != 0)
	case CompareGE:
		return NewBoolNode(c >= 0)
	case CompareGT:
		return NewBoolNode(c > 0)
	case CompareLE:
		return NewBoolNode(c <= 0)
	case CompareLT:
		return NewBoolNode(c < 0)
	}
	return m
}
