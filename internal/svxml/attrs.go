package svxml

import (
	"encoding/xml"
	"strconv"

	"github.com/danielvb/svsession/internal/types"
)

// attrBag wraps an element's attribute list with typed accessors.
//
// Accessors mark the attributes they consume; whatever remains is returned
// by rest() in document order and preserved on the model, so attributes the
// codec does not interpret survive a round trip.
type attrBag struct {
	list []xml.Attr
	used []bool
}

func bagFor(start xml.StartElement) *attrBag {
	return &attrBag{
		list: start.Attr,
		used: make([]bool, len(start.Attr)),
	}
}

// str consumes a string attribute. Returns ("", false) if absent.
func (b *attrBag) str(name string) (string, bool) {
	for i, a := range b.list {
		if a.Name.Local == name {
			b.used[i] = true
			return a.Value, true
		}
	}
	return "", false
}

// intAttr consumes an integer attribute.
func (b *attrBag) intAttr(name string) (int, bool, error) {
	s, ok := b.str(name)
	if !ok {
		return 0, false, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, true, err
	}
	return v, true, nil
}

// int64Attr consumes a 64-bit integer attribute.
func (b *attrBag) int64Attr(name string) (int64, bool, error) {
	s, ok := b.str(name)
	if !ok {
		return 0, false, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, true, err
	}
	return v, true, nil
}

// floatAttr consumes a floating-point attribute.
func (b *attrBag) floatAttr(name string) (float64, bool, error) {
	s, ok := b.str(name)
	if !ok {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, true, err
	}
	return v, true, nil
}

// boolAttr consumes a boolean attribute ("true"/"false"/"1"/"0").
func (b *attrBag) boolAttr(name string) (bool, bool, error) {
	s, ok := b.str(name)
	if !ok {
		return false, false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, true, err
	}
	return v, true, nil
}

// rest returns the unconsumed attributes in document order.
func (b *attrBag) rest() []types.Attr {
	var out []types.Attr
	for i, a := range b.list {
		if b.used[i] {
			continue
		}
		out = append(out, types.Attr{Name: a.Name.Local, Value: a.Value})
	}
	return out
}
