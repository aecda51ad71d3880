package ldap

import "testing"

func TestNewAttributeStringValues(t *testing.T) {
	a := NewAttribute("cn", "Jim", "Jimmy")
	got := a.StringValues()
	want := []string{"Jim", "Jimmy"}
	if len(got) != len(want) {
		t.Fatalf("StringValues() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("StringValues()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNewBinaryAttributePreservesBytes(t *testing.T) {
	photo := []byte{0xff, 0xd8, 0xff}
	a := NewBinaryAttribute("jpegPhoto", photo)
	if len(a.Values) != 1 || string(a.Values[0]) != string(photo) {
		t.Errorf("Values = %v, want [%v]", a.Values, photo)
	}
}

func TestChangeOperationString(t *testing.T) {
	cases := map[ChangeOperation]string{
		ChangeAdd:       "add",
		ChangeDelete:    "delete",
		ChangeReplace:   "replace",
		ChangeIncrement: "increment",
	}
	for op, want := range cases {
		if got := op.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", op, got, want)
		}
	}
}

func TestNewChange(t *testing.T) {
	c := NewChange(ChangeReplace, "mail", "a@example.com")
	if c.Operation != ChangeReplace {
		t.Errorf("Operation = %v, want ChangeReplace", c.Operation)
	}
	if c.Attribute.Type != "mail" || len(c.Attribute.Values) != 1 {
		t.Errorf("Attribute = %+v", c.Attribute)
	}
}
