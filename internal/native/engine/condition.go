package engine

import (
	"pdpnode/internal/native"
)

func (ev *evaluation) condition(expr native.Expression) (bool, error) {
	return ev.boolean(expr)
}

func (ev *evaluation) eval(expr native.Expression) ([]native.AttributeValue, error) {
	switch {
	case expr.Value != nil:
		return []native.AttributeValue{*expr.Value}, nil
	case expr.Designator != nil:
		return ev.lookup(*expr.Designator)
	case expr.Function != "":
		b, err := ev.apply(expr.Function, expr.Args)
		if err != nil {
			return nil, err
		}
		return []native.AttributeValue{native.BooleanValue(b)}, nil
	}
	return nil, processingError("empty expression")
}

func (ev *evaluation) single(expr native.Expression) (native.AttributeValue, error) {
	vals, err := ev.eval(expr)
	if err != nil {
		return native.AttributeValue{}, err
	}
	if len(vals) != 1 {
		if len(vals) == 0 && expr.Designator != nil {
			return native.AttributeValue{}, missingAttribute(*expr.Designator)
		}
		return native.AttributeValue{}, processingError("expected exactly one value, got %d", len(vals))
	}
	return vals[0], nil
}

func (ev *evaluation) boolean(expr native.Expression) (bool, error) {
	v, err := ev.single(expr)
	if err != nil {
		return false, err
	}
	b, err := v.Bool()
	if err != nil {
		return false, processingError("%v", err)
	}
	return b, nil
}

func (ev *evaluation) integer(expr native.Expression) (int64, error) {
	v, err := ev.single(expr)
	if err != nil {
		return 0, err
	}
	n, err := v.Int()
	if err != nil {
		return 0, processingError("%v", err)
	}
	return n, nil
}

func (ev *evaluation) apply(function string, args []native.Expression) (bool, error) {
	switch function {
	case native.FunctionAnd:
		for _, a := range args {
			b, err := ev.boolean(a)
			if err != nil || !b {
				return false, err
			}
		}
		return true, nil
	case native.FunctionOr:
		for _, a := range args {
			b, err := ev.boolean(a)
			if err != nil || b {
				return b, err
			}
		}
		return false, nil
	case native.FunctionNot:
		if err := arity(function, args, 1); err != nil {
			return false, err
		}
		b, err := ev.boolean(args[0])
		return !b, err
	case native.FunctionStringEqual:
		if err := arity(function, args, 2); err != nil {
			return false, err
		}
		a, err := ev.single(args[0])
		if err != nil {
			return false, err
		}
		b, err := ev.single(args[1])
		if err != nil {
			return false, err
		}
		return a.Value == b.Value, nil
	case native.FunctionStringIsIn:
		if err := arity(function, args, 2); err != nil {
			return false, err
		}
		needle, err := ev.single(args[0])
		if err != nil {
			return false, err
		}
		bag, err := ev.eval(args[1])
		if err != nil {
			return false, err
		}
		for _, v := range bag {
			if v.Value == needle.Value {
				return true, nil
			}
		}
		return false, nil
	case native.FunctionAnyOfStringEqualBags:
		if err := arity(function, args, 2); err != nil {
			return false, err
		}
		left, err := ev.eval(args[0])
		if err != nil {
			return false, err
		}
		right, err := ev.eval(args[1])
		if err != nil {
			return false, err
		}
		for _, l := range left {
			for _, r := range right {
				if l.Value == r.Value {
					return true, nil
				}
			}
		}
		return false, nil
	case native.FunctionStringBagIsEmpty:
		if err := arity(function, args, 1); err != nil {
			return false, err
		}
		bag, err := ev.eval(args[0])
		if err != nil {
			return false, err
		}
		return len(bag) == 0, nil
	case native.FunctionIntegerGreaterThan, native.FunctionIntegerGreaterEqual,
		native.FunctionIntegerLessThan, native.FunctionIntegerLessEqual:
		if err := arity(function, args, 2); err != nil {
			return false, err
		}
		a, err := ev.integer(args[0])
		if err != nil {
			return false, err
		}
		b, err := ev.integer(args[1])
		if err != nil {
			return false, err
		}
		switch function {
		case native.FunctionIntegerGreaterThan:
			return a > b, nil
		case native.FunctionIntegerGreaterEqual:
			return a >= b, nil
		case native.FunctionIntegerLessThan:
			return a < b, nil
		default:
			return a <= b, nil
		}
	}
	return false, processingError("unsupported function %q", function)
}

func arity(function string, args []native.Expression, n int) error {
	if len(args) != n {
		return processingError("%s expects %d arguments, got %d", function, n, len(args))
	}
	return nil
}
