package tarantism

import (
	"fmt"
	"strings"
)

// updateOps maps update-key modifier suffixes to wire operations.
// A bare field name means assignment.
var updateOps = map[string]byte{
	"assign": OpAssign,
	"add":    OpAdd,
	"and":    OpAnd,
	"xor":    OpXor,
	"or":     OpOr,
}

type pendingOp struct {
	op    byte
	value any
}

// parseUpdateValues interprets update keys of the form "name" or
// "name__modifier". Unknown fields and unknown modifiers fail; the result
// is keyed by field name, one operation per field.
func parseUpdateValues(m *Model, vals Values) (map[string]pendingOp, error) {
	ops := make(map[string]pendingOp, len(vals))
	for key, v := range vals {
		name, mod := key, "assign"
		if i := strings.Index(key, "__"); i >= 0 {
			name, mod = key[:i], key[i+2:]
		}
		op, ok := updateOps[mod]
		if !ok {
			return nil, fmt.Errorf("unknown update modifier %q in %q", mod, key)
		}
		f := m.fieldsByName[name]
		if f == nil {
			return nil, fieldErrf(m.space, name, "model does not have this field")
		}
		if prev, dup := ops[name]; dup {
			return nil, fieldErrf(m.space, name, "conflicting update operations %q and %q", string(prev.op), string(op))
		}
		ops[name] = pendingOp{op: op, value: v}
	}
	return ops, nil
}

// Update applies field operations to the persisted row keyed by primary
// key, then mutates the in-memory record to match. Arithmetic and bitwise
// modifiers require an integer field and an integer operand; assignment
// takes any value valid for the field.
func (r *Record) Update(vals Values) error {
	return r.UpdateIn(r.model.store(), vals)
}

// UpdateIn is Update against an explicit store.
func (r *Record) UpdateIn(st Store, vals Values) error {
	return r.updateIn(st, vals)
}

func (r *Record) updateIn(st Store, vals Values) error {
	ops, err := parseUpdateValues(r.model, vals)
	if err != nil {
		return err
	}
	key, err := r.primaryKeyTuple()
	if err != nil {
		return err
	}

	// Instructions follow field declaration order, one per touched field.
	instrs := make([]UpdateInstr, 0, len(ops))
	for _, f := range r.model.fields {
		pop, ok := ops[f.Name()]
		if !ok {
			continue
		}
		instr := UpdateInstr{Op: pop.op, Field: f.Position()}
		if pop.op == OpAssign {
			if err := f.Validate(pop.value); err != nil {
				return err
			}
			raw, err := f.ToStorage(pop.value)
			if err != nil {
				return err
			}
			instr.Value = raw
		} else {
			w := f.WireType().width()
			if w == 0 {
				return fieldErrf(r.model.space, f.Name(), "operation %q requires an integer field", string(pop.op))
			}
			n, ok := asInt64(pop.value)
			if !ok {
				return fieldErrf(r.model.space, f.Name(), "operation %q requires an integer operand, got %T", string(pop.op), pop.value)
			}
			instr.Value = putWireInt(n, w)
		}
		instrs = append(instrs, instr)
	}

	if err := st.Update(r.model.space, key, instrs); err != nil {
		return err
	}

	// Mirror the applied operations in memory.
	for _, f := range r.model.fields {
		pop, ok := ops[f.Name()]
		if !ok {
			continue
		}
		if pop.op == OpAssign {
			r.set(f, pop.value)
			continue
		}
		cur, _ := asInt64(r.data[f.Name()])
		arg, _ := asInt64(pop.value)
		switch pop.op {
		case OpAdd:
			cur += arg
		case OpAnd:
			cur &= arg
		case OpXor:
			cur ^= arg
		case OpOr:
			cur |= arg
		}
		r.data[f.Name()] = cur
	}
	r.exists = true
	return nil
}
