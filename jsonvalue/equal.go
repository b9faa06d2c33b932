package jsonvalue

// Equal tells if given two json values are structurally equal.
//
// Numbers are compared by value, so 1 and 1.0 are equal.
// Member order of objects is not significant.
func Equal(v1, v2 Value) bool {
	if v1.kind != v2.kind {
		return false
	}
	switch v1.kind {
	case KindNull:
		return true
	case KindBool:
		return v1.b == v2.b
	case KindString:
		return v1.s == v2.s
	case KindNumber:
		if v1.s == v2.s {
			return true
		}
		return ratFromLiteral(v1.s).Cmp(ratFromLiteral(v2.s)) == 0
	case KindArray:
		if len(v1.items) != len(v2.items) {
			return false
		}
		for i := range v1.items {
			if !Equal(v1.items[i], v2.items[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v1.obj.members) != len(v2.obj.members) {
			return false
		}
		for _, m := range v1.obj.members {
			other, ok := v2.obj.get(m.Key)
			if !ok || !Equal(m.Value, other) {
				return false
			}
		}
		return true
	}
	return false
}
