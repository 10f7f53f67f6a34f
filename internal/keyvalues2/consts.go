package keyvalues2

import "github.com/dmxkit/dmxkit/pkg/dmxval"

// Synthetic type keywords that are not themselves value kinds: "id" lines
// carry the element's UUID under the keyword "elementid", and element-
// valued attributes use "element" for bare references (an inline nested
// literal uses the target's class name in this slot instead).
const (
	keywordElementID = "elementid"
	keywordElement   = "element"
	arraySuffix      = "_array"
	nullUUIDText     = "00000000-0000-0000-0000-000000000000"
)

var kindByKeyword = map[string]dmxval.Kind{
	"int":        dmxval.KindInt,
	"float":      dmxval.KindFloat,
	"bool":       dmxval.KindBool,
	"string":     dmxval.KindString,
	"binary":     dmxval.KindBinary,
	"time":       dmxval.KindTime,
	"color":      dmxval.KindColor,
	"vector2":    dmxval.KindVector2,
	"vector3":    dmxval.KindVector3,
	"vector4":    dmxval.KindVector4,
	"qangle":     dmxval.KindQAngle,
	"quaternion": dmxval.KindQuaternion,
	"matrix":     dmxval.KindMatrix,
}

var keywordByKind = func() map[dmxval.Kind]string {
	m := make(map[dmxval.Kind]string, len(kindByKeyword))
	for kw, k := range kindByKeyword {
		m[k] = kw
	}
	return m
}()
