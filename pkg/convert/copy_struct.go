package convert

import (
	"github.com/jinzhu/copier"
)

// StructAssign copies the same-named fields of src into dst. Slices and maps are not shared.
// StructAssign 把 src 与 dst 同名字段的值深拷贝到 dst 中
func StructAssign(src any, dst any) error {
	return copier.CopyWithOption(dst, src, copier.Option{DeepCopy: true})
}
