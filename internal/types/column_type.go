package types

import "fmt"

// ColumnType is a column's declared type: one of INTEGER, FLOAT, TEXT(N),
// DATE, BOOLEAN. Length is only meaningful for TEXT.
type ColumnType struct {
	Kind   Kind
	Length int // VARCHAR(N) upper character bound; 0 for non-TEXT kinds
}

func Int() ColumnType              { return ColumnType{Kind: KindInteger} }
func FloatType() ColumnType        { return ColumnType{Kind: KindFloat} }
func Varchar(n int) ColumnType     { return ColumnType{Kind: KindText, Length: n} }
func DateType() ColumnType         { return ColumnType{Kind: KindDate} }
func BooleanType() ColumnType      { return ColumnType{Kind: KindBoolean} }

func (t ColumnType) String() string {
	if t.Kind == KindText {
		return fmt.Sprintf("VARCHAR(%d)", t.Length)
	}
	return t.Kind.String()
}

// Accepts reports whether a value's runtime kind matches this declared
// type. NULL is always accepted here; nullability is enforced separately
// by the NOT NULL constraint.
func (t ColumnType) Accepts(v Value) bool {
	if v.IsNull() {
		return true
	}
	return v.Kind == t.Kind
}

// Validate enforces the declared type strictly, including the VARCHAR(N)
// length bound. Integer-to-float widening is never permitted in storage —
// only in expression evaluation.
func (t ColumnType) Validate(v Value) error {
	if v.IsNull() {
		return nil
	}
	if v.Kind != t.Kind {
		return fmt.Errorf("type mismatch: expected %s, got %s", t, v.Kind)
	}
	if t.Kind == KindText && t.Length > 0 && len([]rune(v.Text)) > t.Length {
		return fmt.Errorf("value length %d exceeds VARCHAR(%d)", len([]rune(v.Text)), t.Length)
	}
	return nil
}
