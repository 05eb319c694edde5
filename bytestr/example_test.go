package bytestr_test

import (
	"fmt"

	"github.com/QuangTung97/regionarena/allocator"
	"github.com/QuangTung97/regionarena/bytestr"
)

func ExampleString_Append() {
	r, err := allocator.New(256)
	if err != nil {
		panic(err)
	}
	defer r.Destroy()

	s, ok := bytestr.NewFromText(r, "ASDF")
	if !ok {
		panic("region exhausted")
	}
	s, _ = s.AppendText("asdf")
	s, _ = s.AppendText("AaSsDdFf")

	fmt.Println(s.String(), s.Len())
	// Output: ASDFasdfAaSsDdFf 16
}
